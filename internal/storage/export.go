package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

// ErrExpenseNotFound is returned by export lookups for ids that no
// longer exist (the owner may have deleted the expense before the
// worker got to it).
var ErrExpenseNotFound = errors.New("expense not found")

// ExportRow is the flattened shape the spreadsheet export needs: the
// expense joined with its owner's username.
type ExportRow struct {
	ExpenseID int64
	Username  string
	Amount    core.Money
	Category  string
	Note      string
	CreatedAt time.Time
}

// GetExportRow loads one expense with its owner for export.
func (r *SQLiteRepository) GetExportRow(ctx context.Context, expenseID int64) (ExportRow, error) {
	var (
		row       ExportRow
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT e.id, u.username, e.amount_cents, e.category, e.note, e.created_at
		 FROM expenses e
		 JOIN users u ON u.id = e.user_id
		 WHERE e.id = ?`, expenseID).
		Scan(&row.ExpenseID, &row.Username, &row.Amount.Cents, &row.Category, &row.Note, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRow{}, ErrExpenseNotFound
	}
	if err != nil {
		return ExportRow{}, fmt.Errorf("get export row: %w", err)
	}
	row.CreatedAt = time.Unix(createdAt, 0).UTC()
	return row, nil
}

// ListUnexported returns ids of expenses the worker has not exported
// yet, oldest first. Backup path for events lost while the queue was
// down.
func (r *SQLiteRepository) ListUnexported(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM expenses WHERE exported = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unexported id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported: %w", err)
	}
	return ids, nil
}

// MarkExported flags an expense as delivered to the spreadsheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, expenseID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET exported = 1 WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.DebugContext(ctx, "Expense marked exported", "expense_id", expenseID)
	return nil
}
