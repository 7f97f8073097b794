package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Provider identifies a remote storage provider.
type Provider string

const (
	// ProviderGoogleDrive is Google Drive (Drive API v3).
	ProviderGoogleDrive Provider = "google_drive"

	// ProviderOneDrive is Microsoft OneDrive (Graph API).
	ProviderOneDrive Provider = "onedrive"

	// ProviderDropbox is Dropbox (files API v2).
	ProviderDropbox Provider = "dropbox"
)

// Valid reports whether the provider is a known variant.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogleDrive, ProviderOneDrive, ProviderDropbox:
		return true
	default:
		return false
	}
}

// SyncStrategy selects how changes are discovered for a connector.
type SyncStrategy string

const (
	// SyncPolling lists folders on a fixed interval.
	SyncPolling SyncStrategy = "polling"

	// SyncWebhook relies on provider push notifications.
	// Connectors that cannot register a watch fall back to polling.
	SyncWebhook SyncStrategy = "webhook"
)

// DefaultSyncInterval is how often polling connectors are synced.
const DefaultSyncInterval = 15 * time.Minute

// FileFilters restricts which remote files a connector syncs.
type FileFilters struct {
	// Extensions is an allow-list of filename extensions (e.g. ".pdf").
	// Empty means all extensions are allowed.
	Extensions []string

	// MaxSizeMB is the maximum file size in megabytes. Zero means unlimited.
	MaxSizeMB int64
}

// Allows reports whether a file passes the configured filters.
// A file that fails the filter is "do not sync", which is distinct
// from "failed to sync".
func (f FileFilters) Allows(meta FileMetadata) bool {
	if len(f.Extensions) > 0 {
		name := strings.ToLower(meta.Name)
		matched := false
		for _, ext := range f.Extensions {
			if strings.HasSuffix(name, strings.ToLower(ext)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MaxSizeMB > 0 && meta.SizeBytes > f.MaxSizeMB*1024*1024 {
		return false
	}

	return true
}

// ConnectorConfig is the persisted configuration for one remote source.
// A read-only snapshot is handed to a Connector at instantiation time;
// the persistence layer owns the record.
type ConnectorConfig struct {
	// ID is the stable, opaque identifier for this connector.
	ID string

	// Provider selects the connector implementation.
	Provider Provider

	// Name is the human-readable name for this connector.
	Name string

	// Folders are the provider folder identifiers to sync, in order.
	Folders []string

	// Filters restricts which files are synced.
	Filters FileFilters

	// Strategy selects polling or webhook change discovery.
	Strategy SyncStrategy

	// SyncInterval is the polling cadence.
	SyncInterval time.Duration

	// Enabled gates participation in sync cycles. Connectors are
	// soft-disabled rather than deleted when sync must stop.
	Enabled bool

	// OAuthCredentials is an opaque provider-specific blob. It may be
	// empty until the authorization flow completes.
	OAuthCredentials json.RawMessage

	// CreatedAt is when the connector was registered.
	CreatedAt time.Time

	// LastSync is when the last sync cycle for this connector completed.
	LastSync time.Time
}

// HasCredentials reports whether an OAuth credential blob is present.
func (c *ConnectorConfig) HasCredentials() bool {
	return len(c.OAuthCredentials) > 0 && string(c.OAuthCredentials) != "null"
}
