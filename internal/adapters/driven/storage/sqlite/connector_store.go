package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// connectorConfigStore implements driven.ConnectorConfigStore.
type connectorConfigStore struct {
	store *Store
}

var _ driven.ConnectorConfigStore = (*connectorConfigStore)(nil)

const connectorColumns = `id, provider, name, folders, filters, strategy,
	sync_interval_seconds, enabled, oauth_credentials, created_at, last_sync`

// Save stores or updates a connector config.
func (s *connectorConfigStore) Save(ctx context.Context, cfg domain.ConnectorConfig) error {
	foldersJSON, err := json.Marshal(cfg.Folders)
	if err != nil {
		return fmt.Errorf("marshalling folders: %w", err)
	}
	filtersJSON, err := json.Marshal(cfg.Filters)
	if err != nil {
		return fmt.Errorf("marshalling filters: %w", err)
	}

	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO connectors (id, provider, name, folders, filters, strategy,
			sync_interval_seconds, enabled, oauth_credentials, created_at, last_sync)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			name = excluded.name,
			folders = excluded.folders,
			filters = excluded.filters,
			strategy = excluded.strategy,
			sync_interval_seconds = excluded.sync_interval_seconds,
			enabled = excluded.enabled,
			oauth_credentials = excluded.oauth_credentials,
			last_sync = excluded.last_sync
	`, cfg.ID, string(cfg.Provider), cfg.Name, string(foldersJSON), string(filtersJSON),
		string(cfg.Strategy), int64(cfg.SyncInterval.Seconds()), boolToInt(cfg.Enabled),
		nullString(string(cfg.OAuthCredentials)),
		formatNullableTime(cfg.CreatedAt), formatNullableTime(cfg.LastSync))

	if err != nil {
		return fmt.Errorf("saving connector: %w", err)
	}
	return nil
}

// Get retrieves a config by ID.
func (s *connectorConfigStore) Get(ctx context.Context, id string) (*domain.ConnectorConfig, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+connectorColumns+" FROM connectors WHERE id = ?", id)

	cfg, err := scanConnector(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// List returns all configs ordered by ID.
func (s *connectorConfigStore) List(ctx context.Context) ([]domain.ConnectorConfig, error) {
	return s.list(ctx, "SELECT "+connectorColumns+" FROM connectors ORDER BY id")
}

// ListEnabled returns configs with enabled = true, ordered by ID.
func (s *connectorConfigStore) ListEnabled(ctx context.Context) ([]domain.ConnectorConfig, error) {
	return s.list(ctx, "SELECT "+connectorColumns+" FROM connectors WHERE enabled = 1 ORDER BY id")
}

func (s *connectorConfigStore) list(ctx context.Context, query string) ([]domain.ConnectorConfig, error) {
	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying connectors: %w", err)
	}
	defer rows.Close()

	var configs []domain.ConnectorConfig //nolint:prealloc // size unknown from query
	for rows.Next() {
		cfg, err := scanConnector(rows.Scan)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connectors: %w", err)
	}

	return configs, nil
}

// SetEnabled soft-enables or soft-disables a connector.
func (s *connectorConfigStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.exec(ctx, "UPDATE connectors SET enabled = ? WHERE id = ?", boolToInt(enabled), id)
}

// UpdateCredentials replaces the opaque OAuth credential blob.
func (s *connectorConfigStore) UpdateCredentials(ctx context.Context, id string, credentials []byte) error {
	return s.exec(ctx, "UPDATE connectors SET oauth_credentials = ? WHERE id = ?",
		nullString(string(credentials)), id)
}

// TouchLastSync records the completion time of a sync cycle.
func (s *connectorConfigStore) TouchLastSync(ctx context.Context, id string, t time.Time) error {
	return s.exec(ctx, "UPDATE connectors SET last_sync = ? WHERE id = ?",
		formatNullableTime(t), id)
}

// exec runs an update that must match exactly one connector.
func (s *connectorConfigStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating connector: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating connector: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanConnector scans one connector row via the given Scan function.
func scanConnector(scan func(...any) error) (*domain.ConnectorConfig, error) {
	var cfg domain.ConnectorConfig
	var provider, strategy, foldersJSON, filtersJSON string
	var intervalSeconds int64
	var enabled int
	var credentials sql.NullString
	var createdAt, lastSync sql.NullString

	if err := scan(&cfg.ID, &provider, &cfg.Name, &foldersJSON, &filtersJSON,
		&strategy, &intervalSeconds, &enabled, &credentials, &createdAt, &lastSync); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning connector: %w", err)
	}

	if err := json.Unmarshal([]byte(foldersJSON), &cfg.Folders); err != nil {
		return nil, fmt.Errorf("unmarshaling folders: %w", err)
	}
	if err := json.Unmarshal([]byte(filtersJSON), &cfg.Filters); err != nil {
		return nil, fmt.Errorf("unmarshaling filters: %w", err)
	}

	cfg.Provider = domain.Provider(provider)
	cfg.Strategy = domain.SyncStrategy(strategy)
	cfg.SyncInterval = time.Duration(intervalSeconds) * time.Second
	cfg.Enabled = enabled == 1
	if credentials.Valid {
		cfg.OAuthCredentials = json.RawMessage(credentials.String)
	}
	cfg.CreatedAt = parseNullableTime(createdAt)
	cfg.LastSync = parseNullableTime(lastSync)

	return &cfg, nil
}
