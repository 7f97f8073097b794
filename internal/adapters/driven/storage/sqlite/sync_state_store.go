package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// fileSyncStateStore implements driven.FileSyncStateStore.
type fileSyncStateStore struct {
	store *Store
}

var _ driven.FileSyncStateStore = (*fileSyncStateStore)(nil)

// Get retrieves the state for one file.
func (s *fileSyncStateStore) Get(ctx context.Context, connectorID, fileID string) (*domain.FileSyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT connector_id, file_id, file_path, last_hash, last_modified, processed
		FROM file_sync_state WHERE connector_id = ? AND file_id = ?
	`, connectorID, fileID)

	state, err := scanFileSyncState(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return state, nil
}

// Upsert stores or replaces the state for one file. Last writer wins.
func (s *fileSyncStateStore) Upsert(ctx context.Context, state domain.FileSyncState) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO file_sync_state (connector_id, file_id, file_path, last_hash, last_modified, processed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(connector_id, file_id) DO UPDATE SET
			file_path = excluded.file_path,
			last_hash = excluded.last_hash,
			last_modified = excluded.last_modified,
			processed = excluded.processed
	`, state.ConnectorID, state.FileID, state.FilePath, state.LastHash,
		formatNullableTime(state.LastModified), boolToInt(state.Processed))

	if err != nil {
		return fmt.Errorf("saving file sync state: %w", err)
	}
	return nil
}

// ListByConnector returns all states for a connector, ordered by file ID.
func (s *fileSyncStateStore) ListByConnector(ctx context.Context, connectorID string) ([]domain.FileSyncState, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT connector_id, file_id, file_path, last_hash, last_modified, processed
		FROM file_sync_state WHERE connector_id = ?
		ORDER BY file_id
	`, connectorID)
	if err != nil {
		return nil, fmt.Errorf("querying file sync state: %w", err)
	}
	defer rows.Close()

	var states []domain.FileSyncState //nolint:prealloc // size unknown from query
	for rows.Next() {
		state, err := scanFileSyncState(rows.Scan)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file sync state: %w", err)
	}

	return states, nil
}

// Delete removes the state for one file.
func (s *fileSyncStateStore) Delete(ctx context.Context, connectorID, fileID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM file_sync_state WHERE connector_id = ? AND file_id = ?",
		connectorID, fileID)
	if err != nil {
		return fmt.Errorf("deleting file sync state: %w", err)
	}
	return nil
}

// scanFileSyncState scans one state row via the given Scan function.
func scanFileSyncState(scan func(...any) error) (*domain.FileSyncState, error) {
	var state domain.FileSyncState
	var lastModified sql.NullString
	var processed int

	if err := scan(&state.ConnectorID, &state.FileID, &state.FilePath,
		&state.LastHash, &lastModified, &processed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning file sync state: %w", err)
	}

	state.LastModified = parseNullableTime(lastModified)
	state.Processed = processed == 1

	return &state, nil
}
