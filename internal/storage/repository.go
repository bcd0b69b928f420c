// Package storage is the ledger store: expenses, budgets, users and
// idempotency receipts persisted in an embedded SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateRequest signals that an ingestion receipt for the
	// (request id, endpoint) pair already exists.
	ErrDuplicateRequest = errors.New("request already processed")

	// ErrInvalidCredentials covers unknown usernames, wrong passwords
	// and deactivated accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUsernameTaken = errors.New("username already taken")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense inserts a ledger entry with a server-assigned creation
// timestamp.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID int64, amount core.Money, category, note string) (core.Expense, error) {
	now := time.Now().UTC().Truncate(time.Second)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, amount.Cents, category, note, now.Unix())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	expense := core.Expense{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Category:  category,
		Note:      note,
		CreatedAt: now,
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", expense.ID,
		"user_id", userID,
		"category", category,
		"amount_cents", amount.Cents)

	return expense, nil
}

// IngestExpense creates an expense and, when requestID is non-empty,
// the matching ingestion receipt in a single transaction. The receipt
// insert runs first so its uniqueness constraint arbitrates concurrent
// duplicate submissions: a constraint violation rolls everything back
// and reports ErrDuplicateRequest, leaving exactly one stored expense.
func (r *SQLiteRepository) IngestExpense(ctx context.Context, userID int64, amount core.Money, category, note, requestID, endpoint string) (core.Expense, error) {
	now := time.Now().UTC().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	if requestID != "" {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ingest_receipts (request_id, endpoint, created_at) VALUES (?, ?, ?)`,
			requestID, endpoint, now.Unix())
		if err != nil {
			if isUniqueViolation(err) {
				return core.Expense{}, ErrDuplicateRequest
			}
			return core.Expense{}, fmt.Errorf("insert receipt: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, amount.Cents, category, note, now.Unix())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit ingest transaction: %w", err)
	}

	expense := core.Expense{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Category:  category,
		Note:      note,
		CreatedAt: now,
	}

	slog.InfoContext(ctx, "Expense ingested",
		"expense_id", expense.ID,
		"user_id", userID,
		"category", category,
		"amount_cents", amount.Cents,
		"ingestion_request_id", requestID)

	return expense, nil
}

// ExpenseUpdate carries the fields an owner may change. Nil fields are
// left untouched.
type ExpenseUpdate struct {
	Amount   *core.Money
	Category *string
	Note     *string
}

// UpdateExpense applies the provided fields to an expense the user
// owns. Unknown or foreign ids are a silent no-op.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID, expenseID int64, upd ExpenseUpdate) error {
	set := ""
	args := make([]any, 0, 5)
	if upd.Amount != nil {
		set += "amount_cents = ?"
		args = append(args, upd.Amount.Cents)
	}
	if upd.Category != nil {
		if set != "" {
			set += ", "
		}
		set += "category = ?"
		args = append(args, *upd.Category)
	}
	if upd.Note != nil {
		if set != "" {
			set += ", "
		}
		set += "note = ?"
		args = append(args, *upd.Note)
	}
	if set == "" {
		return nil
	}
	args = append(args, userID, expenseID)

	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET `+set+` WHERE user_id = ? AND id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense the user owns; a silent no-op
// otherwise.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, expenseID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ListExpensesInRange returns the user's expenses created within the
// inclusive day range, newest first. A non-empty search term filters
// case-insensitively on category and note.
func (r *SQLiteRepository) ListExpensesInRange(ctx context.Context, userID int64, rng core.DateRange, search string) ([]core.Expense, error) {
	query := `SELECT id, user_id, amount_cents, category, note, created_at
		FROM expenses
		WHERE user_id = ? AND created_at >= ? AND created_at < ?`
	args := []any{userID, rng.Start.Unix(), rng.End.AddDate(0, 0, 1).Unix()}

	if search != "" {
		query += ` AND (instr(lower(category), lower(?)) > 0 OR instr(lower(note), lower(?)) > 0)`
		args = append(args, search, search)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// SumExpensesInRange totals the user's spend within the inclusive day
// range. A non-empty category restricts the sum to that category.
func (r *SQLiteRepository) SumExpensesInRange(ctx context.Context, userID int64, rng core.DateRange, category string) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE user_id = ? AND created_at >= ? AND created_at < ?`
	args := []any{userID, rng.Start.Unix(), rng.End.AddDate(0, 0, 1).Unix()}

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}

	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// HasReceipt reports whether an ingestion receipt exists for the
// (request id, endpoint) pair.
func (r *SQLiteRepository) HasReceipt(ctx context.Context, requestID, endpoint string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM ingest_receipts WHERE request_id = ? AND endpoint = ?`,
		requestID, endpoint).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check receipt: %w", err)
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
