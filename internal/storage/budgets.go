package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

// UpsertBudget creates the (user, period, category) budget or replaces
// its amount when the triple already exists. The uniqueness constraint
// on the triple backs the upsert.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, userID int64, period core.Period, category string, amount core.Money) (core.Budget, error) {
	now := time.Now().UTC().Truncate(time.Second)

	var (
		id        int64
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, period, category, amount_cents, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, period, category)
		 DO UPDATE SET amount_cents = excluded.amount_cents
		 RETURNING id, created_at`,
		userID, period.String(), category, amount.Cents, now.Unix()).Scan(&id, &createdAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget upserted",
		"budget_id", id,
		"user_id", userID,
		"period", period.String(),
		"category", category,
		"amount_cents", amount.Cents)

	return core.Budget{
		ID:        id,
		UserID:    userID,
		Period:    period,
		Category:  category,
		Amount:    amount,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
	}, nil
}

// DeleteBudget removes a budget the user owns; unknown or foreign ids
// are a silent no-op.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, budgetID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, budgetID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// ListBudgets returns all of the user's budgets, most recent period
// first.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, period, category, amount_cents, created_at
		 FROM budgets
		 WHERE user_id = ?
		 ORDER BY period DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	return scanBudgets(rows)
}

// BudgetsForPeriod returns the user's budgets for a single month: the
// overall one (empty category) plus any category-scoped ones.
func (r *SQLiteRepository) BudgetsForPeriod(ctx context.Context, userID int64, period core.Period) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, period, category, amount_cents, created_at
		 FROM budgets
		 WHERE user_id = ? AND period = ?`, userID, period.String())
	if err != nil {
		return nil, fmt.Errorf("budgets for period: %w", err)
	}
	defer rows.Close()

	return scanBudgets(rows)
}

type budgetRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBudgets(rows budgetRows) ([]core.Budget, error) {
	var budgets []core.Budget
	for rows.Next() {
		var (
			b         core.Budget
			period    string
			createdAt int64
		)
		if err := rows.Scan(&b.ID, &b.UserID, &period, &b.Category, &b.Amount.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		p, err := core.ParsePeriod(period)
		if err != nil {
			return nil, fmt.Errorf("stored period %q: %w", period, err)
		}
		b.Period = p
		b.CreatedAt = time.Unix(createdAt, 0).UTC()
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}
