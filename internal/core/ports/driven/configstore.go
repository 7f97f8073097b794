package driven

import (
	"context"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
)

// ConnectorConfigStore persists connector configurations.
type ConnectorConfigStore interface {
	// Save stores or updates a connector config.
	Save(ctx context.Context, cfg domain.ConnectorConfig) error

	// Get retrieves a config by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.ConnectorConfig, error)

	// List returns all configs.
	List(ctx context.Context) ([]domain.ConnectorConfig, error)

	// ListEnabled returns configs with Enabled = true.
	ListEnabled(ctx context.Context) ([]domain.ConnectorConfig, error)

	// SetEnabled soft-enables or soft-disables a connector.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// UpdateCredentials replaces the opaque OAuth credential blob.
	// Called when the authorization flow completes or tokens refresh.
	UpdateCredentials(ctx context.Context, id string, credentials []byte) error

	// TouchLastSync records the completion time of a sync cycle.
	TouchLastSync(ctx context.Context, id string, t time.Time) error
}
