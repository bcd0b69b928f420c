package export

import (
	"context"

	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// Ports for outbound export adapters.
type (
	// RowAppender writes one exported expense row to an external sink.
	RowAppender interface {
		AppendRow(ctx context.Context, row storage.ExportRow) error
	}
)
