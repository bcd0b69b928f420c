package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dewanik/voice-ios-budget-server/internal/amqp"
	"github.com/Dewanik/voice-ios-budget-server/internal/core"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// AddExpenseEndpoint names the ingestion endpoint in dedupe receipts. The
// same shortcut request id may legitimately hit a different endpoint.
const AddExpenseEndpoint = "add-expense"

// IngestResult reports what the ingestor did with a request. When
// AlreadyProcessed is set the request was a retry and Expense is zero.
type IngestResult struct {
	Expense          core.Expense
	AlreadyProcessed bool
}

// Ingestor records shortcut-submitted expenses, deduplicating retries by
// request id and announcing new rows over AMQP.
type Ingestor struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewIngestor(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *Ingestor {
	return &Ingestor{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Ingest validates and stores one expense. A retry carrying a request id
// already seen on this endpoint is absorbed without writing a second row.
func (i *Ingestor) Ingest(ctx context.Context, userID int64, amount core.Money, category, note, requestID string) (IngestResult, error) {
	candidate := core.Expense{
		UserID:   userID,
		Amount:   amount,
		Category: category,
		Note:     note,
	}
	if err := candidate.Validate(); err != nil {
		return IngestResult{}, err
	}

	expense, err := i.storage.IngestExpense(ctx, userID, amount, category, note, requestID, AddExpenseEndpoint)
	if errors.Is(err, storage.ErrDuplicateRequest) {
		slog.InfoContext(ctx, "Absorbed duplicate ingestion request",
			"user_id", userID,
			"request_id", requestID)
		return IngestResult{AlreadyProcessed: true}, nil
	}
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingest expense: %w", err)
	}

	// Publish async (non-blocking): the expense is already durable locally.
	if i.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping recorded message")
	} else if err := i.amqpClient.PublishExpenseRecorded(ctx, expense.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recorded message",
			"id", expense.ID, "error", err)
	}

	return IngestResult{Expense: expense}, nil
}
