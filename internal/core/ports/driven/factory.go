package driven

import (
	"context"

	"github.com/driftline/docsync/internal/core/domain"
)

// ConnectorBuilder creates a Connector from a config snapshot.
type ConnectorBuilder func(cfg domain.ConnectorConfig) (Connector, error)

// CredentialSaver persists refreshed OAuth credentials for a connector.
// Builders wrap provider token sources with it so refreshed tokens
// survive process restarts. The connector itself never writes the store.
type CredentialSaver func(ctx context.Context, connectorID string, credentials []byte) error

// ConnectorFactory resolves a persisted ConnectorConfig into a live
// Connector instance. Adding a provider means registering one builder;
// orchestration code is untouched.
type ConnectorFactory interface {
	// Create returns a Connector for the given config snapshot.
	// Returns ErrUnsupportedProvider for unknown providers.
	Create(ctx context.Context, cfg domain.ConnectorConfig) (Connector, error)

	// Register adds a builder for the given provider.
	Register(provider domain.Provider, builder ConnectorBuilder)

	// SupportedProviders returns all registered providers.
	SupportedProviders() []domain.Provider
}
