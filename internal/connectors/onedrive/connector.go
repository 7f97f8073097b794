// Package onedrive implements the OneDrive connector against the
// Microsoft Graph drive endpoints.
package onedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/driftline/docsync/internal/connectors"
	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// subscriptionTTL is the requested lifetime for change subscriptions.
// Graph caps driveItem subscriptions well below 30 days, so renewals
// are expected.
const subscriptionTTL = 24 * time.Hour

// Connector syncs files from a OneDrive account.
type Connector struct {
	cfg        domain.ConnectorConfig
	baseURL    string
	httpClient *http.Client
	limiter    *connectors.RateLimiter
	api        *client
}

var _ driven.Connector = (*Connector)(nil)

// Option customises a Connector.
type Option func(*Connector)

// WithBaseURL points the connector at a different Graph endpoint.
// Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Connector) { c.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Connector) { c.httpClient = hc }
}

// WithRateLimiter overrides the default OneDrive rate limiter.
func WithRateLimiter(l *connectors.RateLimiter) Option {
	return func(c *Connector) { c.limiter = l }
}

// New creates a OneDrive connector for the given config snapshot.
func New(cfg domain.ConnectorConfig, opts ...Option) *Connector {
	c := &Connector{
		cfg:        cfg,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    connectors.NewRateLimiter(domain.ProviderOneDrive),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBuilder returns a factory builder for OneDrive connectors.
func NewBuilder() driven.ConnectorBuilder {
	return func(cfg domain.ConnectorConfig) (driven.Connector, error) {
		if cfg.Provider != domain.ProviderOneDrive {
			return nil, fmt.Errorf("%w: provider %q is not onedrive", domain.ErrConnectorValidation, cfg.Provider)
		}
		return New(cfg), nil
	}
}

// Provider returns the provider variant.
func (c *Connector) Provider() domain.Provider { return domain.ProviderOneDrive }

// ConnectorID returns the configured connector ID.
func (c *Connector) ConnectorID() string { return c.cfg.ID }

// Authenticate validates the stored credentials with a drive lookup.
func (c *Connector) Authenticate(ctx context.Context) bool {
	api, err := c.ensureClient()
	if err != nil {
		logger.Warn("onedrive %s: authenticate: %v", c.cfg.ID, err)
		return false
	}

	var drive struct {
		ID string `json:"id"`
	}
	if err := api.getJSON(ctx, c.baseURL+"/me/drive", &drive); err != nil {
		logger.Warn("onedrive %s: credentials rejected: %v", c.cfg.ID, err)
		return false
	}

	return true
}

// ListFiles enumerates files under folderID, following @odata.nextLink
// pages until exhausted. An empty folderID means the drive root.
// Graph children listings cannot be filtered server-side by modified
// time, so the since cutoff is applied locally.
func (c *Connector) ListFiles(ctx context.Context, folderID string, since *time.Time) []domain.FileMetadata {
	api, err := c.ensureClient()
	if err != nil {
		logger.Warn("onedrive %s: list files: %v", c.cfg.ID, err)
		return []domain.FileMetadata{}
	}

	url := c.baseURL + "/me/drive/root/children"
	if folderID != "" {
		url = fmt.Sprintf("%s/me/drive/items/%s/children", c.baseURL, folderID)
	}

	out := []domain.FileMetadata{}
	for url != "" {
		var page listResponse
		if err := api.getJSON(ctx, url, &page); err != nil {
			logger.Warn("onedrive %s: list files: %v", c.cfg.ID, err)
			return []domain.FileMetadata{}
		}

		for _, item := range page.Value {
			if item.Folder != nil {
				continue
			}
			if since != nil && !item.LastModifiedDateTime.After(*since) {
				continue
			}
			out = append(out, c.fileMetadata(item))
		}

		url = page.NextLink
	}

	return out
}

// DownloadFile streams the item's content to destPath. Graph answers
// the content endpoint with a redirect to a pre-signed URL, which the
// HTTP client follows.
func (c *Connector) DownloadFile(ctx context.Context, fileID, destPath string) bool {
	api, err := c.ensureClient()
	if err != nil {
		logger.Warn("onedrive %s: download %s: %v", c.cfg.ID, fileID, err)
		return false
	}

	url := fmt.Sprintf("%s/me/drive/items/%s/content", c.baseURL, fileID)
	resp, err := api.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warn("onedrive %s: download %s: %v", c.cfg.ID, fileID, err)
		return false
	}
	defer resp.Body.Close()

	if err := connectors.SaveStream(destPath, resp.Body); err != nil {
		logger.Warn("onedrive %s: download %s: %v", c.cfg.ID, fileID, err)
		return false
	}

	return true
}

// GetFileMetadata fetches metadata for a single item.
func (c *Connector) GetFileMetadata(ctx context.Context, fileID string) (*domain.FileMetadata, error) {
	api, err := c.ensureClient()
	if err != nil {
		return nil, err
	}

	var item driveItem
	url := fmt.Sprintf("%s/me/drive/items/%s", c.baseURL, fileID)
	if err := api.getJSON(ctx, url, &item); err != nil {
		return nil, fmt.Errorf("get item %s: %w", fileID, err)
	}

	meta := c.fileMetadata(item)
	return &meta, nil
}

// WatchFolder creates a Graph change subscription for the folder.
func (c *Connector) WatchFolder(ctx context.Context, folderID, callbackURL string) bool {
	api, err := c.ensureClient()
	if err != nil {
		logger.Warn("onedrive %s: watch folder: %v", c.cfg.ID, err)
		return false
	}

	resource := "/me/drive/root"
	if folderID != "" {
		resource = "/me/drive/items/" + folderID
	}

	payload, err := json.Marshal(map[string]string{
		"changeType":         "updated",
		"notificationUrl":    callbackURL,
		"resource":           resource,
		"expirationDateTime": time.Now().Add(subscriptionTTL).UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false
	}

	resp, err := api.do(ctx, http.MethodPost, c.baseURL+"/subscriptions", bytes.NewReader(payload))
	if err != nil {
		logger.Warn("onedrive %s: watch folder %s: %v", c.cfg.ID, folderID, err)
		return false
	}
	resp.Body.Close()

	return true
}

// Close releases resources. The HTTP client holds none worth closing.
func (c *Connector) Close() error { return nil }

// ensureClient lazily builds the Graph client from stored credentials.
func (c *Connector) ensureClient() (*client, error) {
	if c.api != nil {
		return c.api, nil
	}

	creds, err := connectors.DecodeCredentials(c.cfg.OAuthCredentials)
	if err != nil {
		return nil, err
	}

	c.api = &client{
		baseURL: c.baseURL,
		http:    c.httpClient,
		token:   creds.AccessToken,
		limiter: c.limiter,
	}
	return c.api, nil
}

func (c *Connector) fileMetadata(item driveItem) domain.FileMetadata {
	meta := domain.FileMetadata{
		ID:           item.ID,
		Name:         item.Name,
		ModifiedTime: item.LastModifiedDateTime,
		SizeBytes:    item.Size,
		ConnectorID:  c.cfg.ID,
		Source:       domain.ProviderOneDrive,
	}
	if item.File != nil {
		meta.MIMEType = item.File.MimeType
		// Business and SharePoint drives expose only quickXorHash.
		meta.ContentHash = item.File.Hashes.SHA1Hash
		if meta.ContentHash == "" {
			meta.ContentHash = item.File.Hashes.QuickXorHash
		}
	}
	return meta
}
