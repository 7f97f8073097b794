// Package memory provides in-memory implementations of the storage
// ports. Used in tests and for ephemeral runs where durability is not
// needed.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// Ensure ConnectorConfigStore implements the interface.
var _ driven.ConnectorConfigStore = (*ConnectorConfigStore)(nil)

// ConnectorConfigStore is an in-memory implementation of
// driven.ConnectorConfigStore.
type ConnectorConfigStore struct {
	mu      sync.RWMutex
	configs map[string]domain.ConnectorConfig
}

// NewConnectorConfigStore creates a new in-memory connector config store.
func NewConnectorConfigStore() *ConnectorConfigStore {
	return &ConnectorConfigStore{
		configs: make(map[string]domain.ConnectorConfig),
	}
}

// Save stores or updates a connector config.
func (s *ConnectorConfigStore) Save(_ context.Context, cfg domain.ConnectorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.ID] = cfg
	return nil
}

// Get retrieves a config by ID.
func (s *ConnectorConfigStore) Get(_ context.Context, id string) (*domain.ConnectorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cfg, nil
}

// List returns all configs sorted by ID for stable output.
func (s *ConnectorConfigStore) List(_ context.Context) ([]domain.ConnectorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ConnectorConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListEnabled returns configs with Enabled = true.
func (s *ConnectorConfigStore) ListEnabled(ctx context.Context) ([]domain.ConnectorConfig, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]domain.ConnectorConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled, nil
}

// SetEnabled soft-enables or soft-disables a connector.
func (s *ConnectorConfigStore) SetEnabled(_ context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return domain.ErrNotFound
	}
	cfg.Enabled = enabled
	s.configs[id] = cfg
	return nil
}

// UpdateCredentials replaces the opaque OAuth credential blob.
func (s *ConnectorConfigStore) UpdateCredentials(_ context.Context, id string, credentials []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return domain.ErrNotFound
	}
	cfg.OAuthCredentials = append([]byte(nil), credentials...)
	s.configs[id] = cfg
	return nil
}

// TouchLastSync records the completion time of a sync cycle.
func (s *ConnectorConfigStore) TouchLastSync(_ context.Context, id string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return domain.ErrNotFound
	}
	cfg.LastSync = t
	s.configs[id] = cfg
	return nil
}
