package driven

import (
	"context"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
)

// Connector is the uniform capability surface over a remote file-storage
// provider. Each provider (Google Drive, OneDrive, Dropbox) implements
// this interface; orchestration code never touches provider SDKs.
//
// Error propagation follows the connector boundary contract: provider
// failures are converted to boolean/empty-collection results and logged,
// because the orchestrator iterates many connectors and one bad
// connector must not abort the sync cycle.
type Connector interface {
	// Provider returns the provider variant this connector talks to.
	Provider() domain.Provider

	// ConnectorID returns the configured connector ID.
	ConnectorID() string

	// Authenticate establishes or refreshes a provider session from the
	// stored credentials. It returns false, without raising, when
	// credentials are absent, expired beyond refresh, or rejected.
	// Refreshed tokens that need persisting are the registry's
	// responsibility, not the connector's.
	Authenticate(ctx context.Context) bool

	// ListFiles enumerates non-folder entries in a folder, paginating
	// internally until exhausted. When since is non-nil, only entries
	// modified strictly after it are returned. Auto-authenticates on
	// first use. On provider error it logs and returns an empty slice.
	ListFiles(ctx context.Context, folderID string, since *time.Time) []domain.FileMetadata

	// DownloadFile streams file bytes to destPath. On any failure the
	// partial file is deleted and false is returned: the caller must
	// never see a truncated file behind a valid-looking completion flag.
	DownloadFile(ctx context.Context, fileID, destPath string) bool

	// GetFileMetadata fetches metadata for a single file.
	GetFileMetadata(ctx context.Context, fileID string) (*domain.FileMetadata, error)

	// WatchFolder registers a push notification channel for a folder.
	// Returns false for providers that do not support watches, rather
	// than raising.
	WatchFolder(ctx context.Context, folderID, callbackURL string) bool

	// Close releases resources.
	Close() error
}
