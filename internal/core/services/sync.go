package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/core/ports/driving"
	"github.com/driftline/docsync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates change discovery across connectors. Each
// cycle lists remote files, filters them, asks the change detector which
// need work, and fans those out as download jobs on the task queue. The
// heavy lifting (download, parse, chunk, index) happens in workers, so a
// cycle itself is cheap and safe to run on a schedule.
type SyncOrchestrator struct {
	configStore driven.ConnectorConfigStore
	detector    *ChangeDetector
	factory     driven.ConnectorFactory
	queue       driven.TaskQueue
	processor   driven.DocumentProcessor

	// downloadDir is where workers place fetched files before
	// processing. Empty means the OS temp directory.
	downloadDir string

	progress *ProgressRecorder

	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// SyncOption configures the orchestrator.
type SyncOption func(*SyncOrchestrator)

// WithSyncProgress mirrors processing progress into download job records.
func WithSyncProgress(rec *ProgressRecorder) SyncOption {
	return func(o *SyncOrchestrator) { o.progress = rec }
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	configStore driven.ConnectorConfigStore,
	detector *ChangeDetector,
	factory driven.ConnectorFactory,
	queue driven.TaskQueue,
	processor driven.DocumentProcessor,
	downloadDir string,
	opts ...SyncOption,
) *SyncOrchestrator {
	o := &SyncOrchestrator{
		configStore: configStore,
		detector:    detector,
		factory:     factory,
		queue:       queue,
		processor:   processor,
		downloadDir: downloadDir,
		activeSyncs: make(map[string]*driving.SyncStatus),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sync runs one discovery cycle for a single connector. Files that the
// change detector approves are enqueued as download jobs; the cycle does
// not wait for the jobs to finish.
func (o *SyncOrchestrator) Sync(ctx context.Context, connectorID string) error {
	cfg, err := o.configStore.Get(ctx, connectorID)
	if err != nil {
		return fmt.Errorf("get connector config: %w", err)
	}

	connector, err := o.factory.Create(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if !connector.Authenticate(ctx) {
		return fmt.Errorf("connector %s: %w", connectorID, domain.ErrAuthRequired)
	}

	status := &driving.SyncStatus{
		ConnectorID: connectorID,
		Running:     true,
	}
	o.setStatus(connectorID, status)
	defer o.clearStatus(connectorID)

	logger.Info("Starting sync for connector %s (%s)", connectorID, cfg.Provider)

	// Root listing when no folders are configured. Listings are always
	// full rather than since-scoped: a file downloaded but never
	// processed must be seen again even if unmodified.
	folders := cfg.Folders
	if len(folders) == 0 {
		folders = []string{""}
	}

	for _, folderID := range folders {
		files := connector.ListFiles(ctx, folderID, nil)
		status.FilesListed += len(files)

		for _, meta := range files {
			if !cfg.Filters.Allows(meta) {
				logger.Debug("Filtered out %s", meta.Name)
				continue
			}
			if !o.detector.ShouldProcess(ctx, meta) {
				logger.Debug("Unchanged, skipping %s", meta.Name)
				continue
			}

			payload := domain.DownloadJob{
				ConnectorID: connectorID,
				Config:      *cfg,
				File:        meta,
			}
			jobID, err := o.queue.Enqueue(ctx, domain.JobKindDownload, payload)
			if err != nil {
				status.ErrorCount++
				logger.Warn("enqueue download for %s: %v", meta.Name, err)
				continue
			}
			status.FilesEnqueued++
			logger.Debug("Enqueued %s as job %s", meta.Name, jobID)
		}
	}

	if err := o.configStore.TouchLastSync(ctx, connectorID, time.Now()); err != nil {
		return fmt.Errorf("record last sync: %w", err)
	}

	logger.Info("Sync cycle complete: %d listed, %d enqueued, %d errors",
		status.FilesListed, status.FilesEnqueued, status.ErrorCount)
	status.Running = false
	return nil
}

// SyncAll runs one cycle for every enabled connector. One connector's
// failure does not stop the others.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) error {
	configs, err := o.configStore.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list connectors: %w", err)
	}

	var errs []error
	for _, cfg := range configs {
		if err := o.Sync(ctx, cfg.ID); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", cfg.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Status returns sync status for a connector.
func (o *SyncOrchestrator) Status(_ context.Context, connectorID string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeSyncs[connectorID]; ok {
		// Return a copy to avoid race conditions
		copied := *status
		return &copied, nil
	}

	return &driving.SyncStatus{
		ConnectorID: connectorID,
		Running:     false,
	}, nil
}

// HandleDownloadJob is the task-queue handler for download jobs. It
// downloads one remote file, runs the processing pipeline on it and
// records completion in the per-file state. Errors propagate to the
// queue so its retry policy applies; the idempotent state upserts make
// redelivery safe.
func (o *SyncOrchestrator) HandleDownloadJob(ctx context.Context, job *domain.Job) error {
	var payload domain.DownloadJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode download payload: %w", err)
	}
	meta := payload.File

	connector, err := o.factory.Create(ctx, payload.Config)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if !connector.Authenticate(ctx) {
		return fmt.Errorf("connector %s: %w", payload.ConnectorID, domain.ErrAuthRequired)
	}

	destPath, err := o.downloadPath(payload.ConnectorID, meta)
	if err != nil {
		return err
	}

	if !connector.DownloadFile(ctx, meta.ID, destPath) {
		o.removeDownload(destPath)
		return fmt.Errorf("download %s from %s failed", meta.Name, payload.ConnectorID)
	}

	if err := o.detector.MarkDownloaded(ctx, meta, destPath); err != nil {
		return err
	}

	if o.progress != nil {
		untrack := o.progress.Track(ctx, job, destPath)
		defer untrack()
	}

	if _, err := o.processor.ProcessFile(ctx, destPath, driven.ProcessOptions{}); err != nil {
		o.removeDownload(destPath)
		return fmt.Errorf("process %s: %w", meta.Name, err)
	}

	if err := o.detector.MarkProcessed(ctx, meta, destPath); err != nil {
		return err
	}

	o.removeDownload(destPath)
	logger.Info("Processed %s from %s", meta.Name, payload.ConnectorID)
	return nil
}

// downloadPath builds a per-job destination for the fetched file. The
// original filename is kept so the loader can pick a parser by
// extension.
func (o *SyncOrchestrator) downloadPath(connectorID string, meta domain.FileMetadata) (string, error) {
	base := o.downloadDir
	if base == "" {
		base = os.TempDir()
	}
	dir, err := os.MkdirTemp(base, "docsync-"+connectorID+"-")
	if err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(meta.Name)), nil
}

// removeDownload deletes the fetched file and its holding directory.
func (o *SyncOrchestrator) removeDownload(path string) {
	if err := os.RemoveAll(filepath.Dir(path)); err != nil {
		logger.Warn("cleanup %s: %v", path, err)
	}
}

// setStatus sets the sync status for a connector.
func (o *SyncOrchestrator) setStatus(connectorID string, status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeSyncs[connectorID] = status
}

// clearStatus removes the sync status for a connector.
func (o *SyncOrchestrator) clearStatus(connectorID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeSyncs, connectorID)
}
