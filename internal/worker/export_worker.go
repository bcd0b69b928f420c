package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dewanik/voice-ios-budget-server/internal/amqp"
	"github.com/Dewanik/voice-ios-budget-server/internal/export"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// ExportWorker mirrors recorded expenses into an external sheet. Rows are
// marked exported only after the appender succeeds, so a crash between the
// two steps re-exports rather than drops.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.RowAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender export.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleRecordedMessage exports a single expense announced over AMQP.
func (w *ExportWorker) HandleRecordedMessage(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded message", "id", msg.ID)

	if err := w.exportExpense(ctx, msg.ID); err != nil {
		// Deleted before the worker got to it. Nothing to export, ack it.
		if errors.Is(err, storage.ErrExpenseNotFound) {
			slog.WarnContext(ctx, "Expense vanished before export", "id", msg.ID)
			return nil
		}
		return err
	}
	return nil
}

// ProcessPending exports any expenses that never made it to the sheet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.storage.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported expenses: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(ids))

	var failed int
	for _, id := range ids {
		if err := w.exportExpense(ctx, id); err != nil {
			if errors.Is(err, storage.ErrExpenseNotFound) {
				continue
			}
			slog.ErrorContext(ctx, "Failed to export pending expense",
				"id", id, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending exports failed", failed, len(ids))
	}
	return nil
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) error {
	if w.appender == nil {
		slog.WarnContext(ctx, "No row appender configured, skipping export", "id", id)
		return nil
	}

	row, err := w.storage.GetExportRow(ctx, id)
	if err != nil {
		return fmt.Errorf("load export row: %w", err)
	}

	if err := w.appender.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"id", id,
		"username", row.Username,
		"category", row.Category)
	return nil
}
