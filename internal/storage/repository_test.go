package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *SQLiteRepository, username string) core.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), username, username+"@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user
}

func fullDayRange() core.DateRange {
	today := time.Now().UTC()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return core.DateRange{Start: day, End: day}
}

func TestAuthenticate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := newTestUser(t, repo, "alice")

	t.Run("valid credentials", func(t *testing.T) {
		got, err := repo.Authenticate(ctx, "alice", "hunter2!")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if got.ID != user.ID || got.Username != "alice" {
			t.Errorf("Authenticate = %+v, want id %d username alice", got, user.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := repo.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		if _, err := repo.Authenticate(ctx, "nobody", "hunter2!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		if err := repo.SetUserActive(ctx, user.ID, false); err != nil {
			t.Fatalf("SetUserActive: %v", err)
		}
		defer repo.SetUserActive(ctx, user.ID, true)

		if _, err := repo.Authenticate(ctx, "alice", "hunter2!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		if _, err := repo.CreateUser(ctx, "alice", "other@example.com", "pw"); !errors.Is(err, ErrUsernameTaken) {
			t.Errorf("CreateUser error = %v, want ErrUsernameTaken", err)
		}
	})
}

func TestIngestExpenseIdempotency(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := newTestUser(t, repo, "bob")

	amount := core.Money{Cents: 1250}

	first, err := repo.IngestExpense(ctx, user.ID, amount, "Food", "lunch", "req-1", "add-expense")
	if err != nil {
		t.Fatalf("first IngestExpense: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Errorf("first ingest should assign id and timestamp, got %+v", first)
	}

	_, err = repo.IngestExpense(ctx, user.ID, amount, "Food", "lunch", "req-1", "add-expense")
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("second IngestExpense error = %v, want ErrDuplicateRequest", err)
	}

	expenses, err := repo.ListExpensesInRange(ctx, user.ID, fullDayRange(), "")
	if err != nil {
		t.Fatalf("ListExpensesInRange: %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("expected exactly 1 stored expense, got %d", len(expenses))
	}

	// Same request id on another endpoint is a distinct receipt.
	if _, err := repo.IngestExpense(ctx, user.ID, amount, "Food", "", "req-1", "other-endpoint"); err != nil {
		t.Errorf("IngestExpense with different endpoint: %v", err)
	}

	ok, err := repo.HasReceipt(ctx, "req-1", "add-expense")
	if err != nil || !ok {
		t.Errorf("HasReceipt = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestIngestExpenseWithoutRequestID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := newTestUser(t, repo, "carol")

	// No request id means no receipt and no dedupe.
	for i := 0; i < 2; i++ {
		if _, err := repo.IngestExpense(ctx, user.ID, core.Money{Cents: 500}, "Coffee", "", "", "add-expense"); err != nil {
			t.Fatalf("IngestExpense: %v", err)
		}
	}

	expenses, err := repo.ListExpensesInRange(ctx, user.ID, fullDayRange(), "")
	if err != nil {
		t.Fatalf("ListExpensesInRange: %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("expected 2 expenses, got %d", len(expenses))
	}
}

func TestListExpensesSearchAndIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := newTestUser(t, repo, "alice")
	mallory := newTestUser(t, repo, "mallory")

	seed := []struct {
		userID   int64
		cents    int64
		category string
		note     string
	}{
		{alice.ID, 5000, "Food", "groceries"},
		{alice.ID, 2500, "Transport", "bus ticket"},
		{mallory.ID, 10000, "Shopping", "shoes"},
	}
	for _, s := range seed {
		if _, err := repo.CreateExpense(ctx, s.userID, core.Money{Cents: s.cents}, s.category, s.note); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	rng := fullDayRange()

	expenses, err := repo.ListExpensesInRange(ctx, alice.ID, rng, "")
	if err != nil {
		t.Fatalf("ListExpensesInRange: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("alice should see 2 expenses, got %d", len(expenses))
	}
	for _, e := range expenses {
		if e.UserID != alice.ID {
			t.Errorf("leaked expense from user %d", e.UserID)
		}
	}

	total, err := repo.SumExpensesInRange(ctx, alice.ID, rng, "")
	if err != nil {
		t.Fatalf("SumExpensesInRange: %v", err)
	}
	if total.Cents != 7500 {
		t.Errorf("alice total = %d cents, want 7500", total.Cents)
	}

	t.Run("search matches category case-insensitively", func(t *testing.T) {
		got, err := repo.ListExpensesInRange(ctx, alice.ID, rng, "FOOD")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 1 || got[0].Category != "Food" {
			t.Errorf("search FOOD = %+v, want the Food expense", got)
		}
	})

	t.Run("search matches note", func(t *testing.T) {
		got, err := repo.ListExpensesInRange(ctx, alice.ID, rng, "bus")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 1 || got[0].Category != "Transport" {
			t.Errorf("search bus = %+v, want the Transport expense", got)
		}
	})

	t.Run("search without matches", func(t *testing.T) {
		got, err := repo.ListExpensesInRange(ctx, alice.ID, rng, "yachts")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("search yachts = %+v, want none", got)
		}
	})
}

func TestUpdateAndDeleteExpenseOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := newTestUser(t, repo, "alice")
	mallory := newTestUser(t, repo, "mallory")

	expense, err := repo.CreateExpense(ctx, alice.ID, core.Money{Cents: 1000}, "Food", "")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	// Foreign update is a silent no-op.
	newCat := "Hacked"
	if err := repo.UpdateExpense(ctx, mallory.ID, expense.ID, ExpenseUpdate{Category: &newCat}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, err := repo.ListExpensesInRange(ctx, alice.ID, fullDayRange(), "")
	if err != nil {
		t.Fatalf("ListExpensesInRange: %v", err)
	}
	if len(got) != 1 || got[0].Category != "Food" {
		t.Errorf("foreign update should not change anything, got %+v", got)
	}

	// Owner update applies only provided fields.
	amount := core.Money{Cents: 2000}
	if err := repo.UpdateExpense(ctx, alice.ID, expense.ID, ExpenseUpdate{Amount: &amount}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, _ = repo.ListExpensesInRange(ctx, alice.ID, fullDayRange(), "")
	if got[0].Amount.Cents != 2000 || got[0].Category != "Food" || got[0].Note != "" {
		t.Errorf("owner update result = %+v", got[0])
	}

	// Foreign delete is a silent no-op, owner delete removes the row.
	if err := repo.DeleteExpense(ctx, mallory.ID, expense.ID); err != nil {
		t.Fatalf("DeleteExpense (foreign): %v", err)
	}
	if got, _ = repo.ListExpensesInRange(ctx, alice.ID, fullDayRange(), ""); len(got) != 1 {
		t.Fatal("foreign delete should be a no-op")
	}
	if err := repo.DeleteExpense(ctx, alice.ID, expense.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if got, _ = repo.ListExpensesInRange(ctx, alice.ID, fullDayRange(), ""); len(got) != 0 {
		t.Error("owner delete should remove the expense")
	}
}

func TestUpsertBudget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := newTestUser(t, repo, "dora")

	period := core.Period{Year: 2024, Month: time.March}

	first, err := repo.UpsertBudget(ctx, user.ID, period, "Food", core.Money{Cents: 30000})
	if err != nil {
		t.Fatalf("first UpsertBudget: %v", err)
	}

	second, err := repo.UpsertBudget(ctx, user.ID, period, "Food", core.Money{Cents: 45000})
	if err != nil {
		t.Fatalf("second UpsertBudget: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: ids %d and %d", first.ID, second.ID)
	}

	budgets, err := repo.ListBudgets(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected a single budget row, got %d", len(budgets))
	}
	if budgets[0].Amount.Cents != 45000 {
		t.Errorf("budget amount = %d cents, want the latest 45000", budgets[0].Amount.Cents)
	}

	// Overall budget (empty category) has its own slot in the triple.
	if _, err := repo.UpsertBudget(ctx, user.ID, period, "", core.Money{Cents: 50000}); err != nil {
		t.Fatalf("overall UpsertBudget: %v", err)
	}
	forPeriod, err := repo.BudgetsForPeriod(ctx, user.ID, period)
	if err != nil {
		t.Fatalf("BudgetsForPeriod: %v", err)
	}
	if len(forPeriod) != 2 {
		t.Errorf("expected overall + category budgets, got %d rows", len(forPeriod))
	}
}

func TestDeleteBudgetOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := newTestUser(t, repo, "alice")
	mallory := newTestUser(t, repo, "mallory")

	budget, err := repo.UpsertBudget(ctx, alice.ID, core.Period{Year: 2024, Month: time.March}, "", core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	if err := repo.DeleteBudget(ctx, mallory.ID, budget.ID); err != nil {
		t.Fatalf("DeleteBudget (foreign): %v", err)
	}
	if budgets, _ := repo.ListBudgets(ctx, alice.ID); len(budgets) != 1 {
		t.Fatal("foreign delete should be a no-op")
	}

	if err := repo.DeleteBudget(ctx, alice.ID, budget.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if budgets, _ := repo.ListBudgets(ctx, alice.ID); len(budgets) != 0 {
		t.Error("owner delete should remove the budget")
	}

	// Deleting a nonexistent id is also a no-op.
	if err := repo.DeleteBudget(ctx, alice.ID, 9999); err != nil {
		t.Errorf("DeleteBudget (missing): %v", err)
	}
}

func TestExportTracking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := newTestUser(t, repo, "erin")

	expense, err := repo.CreateExpense(ctx, user.ID, core.Money{Cents: 750}, "Coffee", "espresso")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	row, err := repo.GetExportRow(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExportRow: %v", err)
	}
	if row.Username != "erin" || row.Amount.Cents != 750 || row.Category != "Coffee" {
		t.Errorf("GetExportRow = %+v", row)
	}

	ids, err := repo.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexported: %v", err)
	}
	if len(ids) != 1 || ids[0] != expense.ID {
		t.Errorf("ListUnexported = %v, want [%d]", ids, expense.ID)
	}

	if err := repo.MarkExported(ctx, expense.ID); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	if ids, _ := repo.ListUnexported(ctx, 10); len(ids) != 0 {
		t.Errorf("ListUnexported after mark = %v, want empty", ids)
	}

	if _, err := repo.GetExportRow(ctx, 424242); !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("GetExportRow(missing) error = %v, want ErrExpenseNotFound", err)
	}
}
