package driving

import "context"

// SyncOrchestrator coordinates change discovery across all enabled
// connectors and fans the results out into per-file download jobs.
type SyncOrchestrator interface {
	// Sync runs one cycle for a single connector.
	Sync(ctx context.Context, connectorID string) error

	// SyncAll runs one cycle across all enabled connectors. A failure in
	// one connector is logged and does not abort the others.
	SyncAll(ctx context.Context) error

	// Status returns the state of the current or last cycle for a
	// connector.
	Status(ctx context.Context, connectorID string) (*SyncStatus, error)
}

// SyncStatus reports progress of a sync cycle for one connector.
type SyncStatus struct {
	// ConnectorID identifies the connector.
	ConnectorID string

	// Running indicates if a cycle is currently in progress.
	Running bool

	// FilesListed is the number of remote files seen this cycle.
	FilesListed int

	// FilesEnqueued is the number of download jobs scheduled.
	FilesEnqueued int

	// ErrorCount is the number of errors encountered.
	ErrorCount int
}
