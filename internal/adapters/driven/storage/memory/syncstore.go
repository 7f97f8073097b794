package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// Ensure FileSyncStateStore implements the interface.
var _ driven.FileSyncStateStore = (*FileSyncStateStore)(nil)

// FileSyncStateStore is an in-memory implementation of
// driven.FileSyncStateStore.
type FileSyncStateStore struct {
	mu     sync.RWMutex
	states map[syncKey]domain.FileSyncState
}

type syncKey struct {
	connectorID string
	fileID      string
}

// NewFileSyncStateStore creates a new in-memory file sync state store.
func NewFileSyncStateStore() *FileSyncStateStore {
	return &FileSyncStateStore{
		states: make(map[syncKey]domain.FileSyncState),
	}
}

// Get retrieves the state for one file.
func (s *FileSyncStateStore) Get(_ context.Context, connectorID, fileID string) (*domain.FileSyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[syncKey{connectorID, fileID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// Upsert stores or replaces the state for one file.
func (s *FileSyncStateStore) Upsert(_ context.Context, state domain.FileSyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[syncKey{state.ConnectorID, state.FileID}] = state
	return nil
}

// ListByConnector returns all states for a connector sorted by file ID.
func (s *FileSyncStateStore) ListByConnector(_ context.Context, connectorID string) ([]domain.FileSyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FileSyncState
	for key, state := range s.states {
		if key.connectorID == connectorID {
			result = append(result, state)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileID < result[j].FileID })
	return result, nil
}

// Delete removes the state for one file.
func (s *FileSyncStateStore) Delete(_ context.Context, connectorID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, syncKey{connectorID, fileID})
	return nil
}
