package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// Ensure ConnectorFactory implements the interface.
var _ driven.ConnectorFactory = (*ConnectorFactory)(nil)

// ConnectorFactory resolves connector configs into live Connector
// instances via registered per-provider builders.
type ConnectorFactory struct {
	mu       sync.RWMutex
	builders map[domain.Provider]driven.ConnectorBuilder
}

// NewConnectorFactory creates an empty connector factory. Providers are
// registered at wiring time so the core never imports connector packages.
func NewConnectorFactory() *ConnectorFactory {
	return &ConnectorFactory{
		builders: make(map[domain.Provider]driven.ConnectorBuilder),
	}
}

// Register adds a builder for the given provider. Registering the same
// provider twice replaces the earlier builder.
func (f *ConnectorFactory) Register(provider domain.Provider, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[provider] = builder
}

// Create returns a Connector for the given config snapshot.
func (f *ConnectorFactory) Create(_ context.Context, cfg domain.ConnectorConfig) (driven.Connector, error) {
	f.mu.RLock()
	builder, ok := f.builders[cfg.Provider]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, cfg.Provider)
	}
	connector, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s connector: %w", cfg.Provider, err)
	}
	return connector, nil
}

// SupportedProviders returns all registered providers in stable order.
func (f *ConnectorFactory) SupportedProviders() []domain.Provider {
	f.mu.RLock()
	defer f.mu.RUnlock()
	providers := make([]domain.Provider, 0, len(f.builders))
	for p := range f.builders {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
