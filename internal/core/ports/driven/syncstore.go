package driven

import (
	"context"

	"github.com/driftline/docsync/internal/core/domain"
)

// FileSyncStateStore persists per-file sync state, keyed by
// (connector_id, file_id).
type FileSyncStateStore interface {
	// Get retrieves the state for one file.
	// Returns domain.ErrNotFound if no record exists.
	Get(ctx context.Context, connectorID, fileID string) (*domain.FileSyncState, error)

	// Upsert stores or replaces the state for one file. Last writer wins.
	Upsert(ctx context.Context, state domain.FileSyncState) error

	// ListByConnector returns all states for a connector, for inspection.
	ListByConnector(ctx context.Context, connectorID string) ([]domain.FileSyncState, error)

	// Delete removes the state for one file, making it count as unseen.
	Delete(ctx context.Context, connectorID, fileID string) error
}
