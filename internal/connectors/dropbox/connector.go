// Package dropbox implements the Dropbox connector on top of the
// official v2 files API.
package dropbox

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"

	"github.com/driftline/docsync/internal/connectors"
	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// Connector syncs files from a Dropbox account. Folder identifiers are
// Dropbox paths ("/Documents"); the empty string is the root.
type Connector struct {
	cfg         domain.ConnectorConfig
	limiter     *connectors.RateLimiter
	filesClient files.Client
	usersClient users.Client
}

var _ driven.Connector = (*Connector)(nil)

// Option customises a Connector.
type Option func(*Connector)

// WithFilesClient injects a files API client. Used by tests.
func WithFilesClient(fc files.Client) Option {
	return func(c *Connector) { c.filesClient = fc }
}

// WithUsersClient injects a users API client. Used by tests.
func WithUsersClient(uc users.Client) Option {
	return func(c *Connector) { c.usersClient = uc }
}

// WithRateLimiter overrides the default Dropbox rate limiter.
func WithRateLimiter(l *connectors.RateLimiter) Option {
	return func(c *Connector) { c.limiter = l }
}

// New creates a Dropbox connector for the given config snapshot.
func New(cfg domain.ConnectorConfig, opts ...Option) *Connector {
	c := &Connector{
		cfg:     cfg,
		limiter: connectors.NewRateLimiter(domain.ProviderDropbox),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBuilder returns a factory builder for Dropbox connectors.
func NewBuilder() driven.ConnectorBuilder {
	return func(cfg domain.ConnectorConfig) (driven.Connector, error) {
		if cfg.Provider != domain.ProviderDropbox {
			return nil, fmt.Errorf("%w: provider %q is not dropbox", domain.ErrConnectorValidation, cfg.Provider)
		}
		return New(cfg), nil
	}
}

// Provider returns the provider variant.
func (c *Connector) Provider() domain.Provider { return domain.ProviderDropbox }

// ConnectorID returns the configured connector ID.
func (c *Connector) ConnectorID() string { return c.cfg.ID }

// Authenticate validates the stored token with an account lookup.
func (c *Connector) Authenticate(ctx context.Context) bool {
	if err := c.ensureClients(); err != nil {
		logger.Warn("dropbox %s: authenticate: %v", c.cfg.ID, err)
		return false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	if _, err := c.usersClient.GetCurrentAccount(); err != nil {
		logger.Warn("dropbox %s: credentials rejected: %v", c.cfg.ID, err)
		return false
	}

	return true
}

// ListFiles enumerates files in a folder, following the cursor until
// has_more is exhausted. The Dropbox API has no server-side modified
// time filter, so the since cutoff is applied locally.
func (c *Connector) ListFiles(ctx context.Context, folderID string, since *time.Time) []domain.FileMetadata {
	if err := c.ensureClients(); err != nil {
		logger.Warn("dropbox %s: list files: %v", c.cfg.ID, err)
		return []domain.FileMetadata{}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		logger.Warn("dropbox %s: list files: %v", c.cfg.ID, err)
		return []domain.FileMetadata{}
	}

	res, err := c.filesClient.ListFolder(files.NewListFolderArg(folderID))
	if err != nil {
		logger.Warn("dropbox %s: list folder %q: %v", c.cfg.ID, folderID, err)
		return []domain.FileMetadata{}
	}

	out := []domain.FileMetadata{}
	for {
		for _, entry := range res.Entries {
			file, ok := entry.(*files.FileMetadata)
			if !ok {
				continue
			}
			if since != nil && !file.ServerModified.After(*since) {
				continue
			}
			out = append(out, c.fileMetadata(file))
		}

		if !res.HasMore {
			return out
		}

		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn("dropbox %s: list files: %v", c.cfg.ID, err)
			return []domain.FileMetadata{}
		}

		res, err = c.filesClient.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			logger.Warn("dropbox %s: list folder continue: %v", c.cfg.ID, err)
			return []domain.FileMetadata{}
		}
	}
}

// DownloadFile streams the file to destPath. fileID may be a Dropbox
// file ID ("id:...") or a path.
func (c *Connector) DownloadFile(ctx context.Context, fileID, destPath string) bool {
	if err := c.ensureClients(); err != nil {
		logger.Warn("dropbox %s: download %s: %v", c.cfg.ID, fileID, err)
		return false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	_, content, err := c.filesClient.Download(files.NewDownloadArg(fileID))
	if err != nil {
		logger.Warn("dropbox %s: download %s: %v", c.cfg.ID, fileID, err)
		return false
	}
	defer content.Close()

	if err := connectors.SaveStream(destPath, content); err != nil {
		logger.Warn("dropbox %s: download %s: %v", c.cfg.ID, fileID, err)
		return false
	}

	return true
}

// GetFileMetadata fetches metadata for a single file.
func (c *Connector) GetFileMetadata(ctx context.Context, fileID string) (*domain.FileMetadata, error) {
	if err := c.ensureClients(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	entry, err := c.filesClient.GetMetadata(files.NewGetMetadataArg(fileID))
	if err != nil {
		return nil, fmt.Errorf("get metadata %s: %w", fileID, err)
	}

	file, ok := entry.(*files.FileMetadata)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a file", domain.ErrInvalidInput, fileID)
	}

	meta := c.fileMetadata(file)
	return &meta, nil
}

// WatchFolder always returns false. Dropbox webhooks are registered
// per-app in the developer console, not per-folder over the API, so
// this connector falls back to polling.
func (c *Connector) WatchFolder(_ context.Context, folderID, _ string) bool {
	logger.Debug("dropbox %s: no per-folder watch support, polling %q", c.cfg.ID, folderID)
	return false
}

// Close releases resources. The SDK clients hold none.
func (c *Connector) Close() error { return nil }

// ensureClients lazily builds the SDK clients from stored credentials.
func (c *Connector) ensureClients() error {
	if c.filesClient != nil && c.usersClient != nil {
		return nil
	}

	creds, err := connectors.DecodeCredentials(c.cfg.OAuthCredentials)
	if err != nil {
		return err
	}

	sdkCfg := dropbox.Config{Token: creds.AccessToken, LogLevel: dropbox.LogOff}
	if c.filesClient == nil {
		c.filesClient = files.New(sdkCfg)
	}
	if c.usersClient == nil {
		c.usersClient = users.New(sdkCfg)
	}
	return nil
}

func (c *Connector) fileMetadata(file *files.FileMetadata) domain.FileMetadata {
	return domain.FileMetadata{
		ID:           file.Id,
		Name:         file.Name,
		ModifiedTime: file.ServerModified,
		SizeBytes:    int64(file.Size),
		ContentHash:  file.ContentHash,
		MIMEType:     mimeTypeForName(file.Name),
		ConnectorID:  c.cfg.ID,
		Source:       domain.ProviderDropbox,
	}
}

// mimeTypeForName derives a MIME type from the file extension. Dropbox
// does not report content types.
func mimeTypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip charset parameters for stable comparisons.
		if i := strings.Index(t, ";"); i >= 0 {
			return strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
