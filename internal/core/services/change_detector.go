package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// ChangeDetector decides whether a remote file needs processing by
// comparing provider-side metadata against the stored per-file state.
type ChangeDetector struct {
	syncStore driven.FileSyncStateStore
}

// NewChangeDetector creates a new change detector.
func NewChangeDetector(syncStore driven.FileSyncStateStore) *ChangeDetector {
	return &ChangeDetector{syncStore: syncStore}
}

// ShouldProcess reports whether the file described by meta must be
// downloaded and re-ingested. The decision errs on the side of
// processing: an unreadable state store or a missing provider hash
// never suppresses a sync.
func (d *ChangeDetector) ShouldProcess(ctx context.Context, meta domain.FileMetadata) bool {
	state, err := d.syncStore.Get(ctx, meta.ConnectorID, meta.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("read sync state for %s: %v, reprocessing", meta.ID, err)
		}
		return true
	}

	// A previous run downloaded the file but never finished ingesting it.
	if !state.Processed {
		return true
	}

	// Providers that expose no content hash cannot be deduplicated.
	if meta.ContentHash == "" {
		return true
	}

	return state.LastHash != meta.ContentHash
}

// MarkProcessed records a completed ingestion for the file.
func (d *ChangeDetector) MarkProcessed(ctx context.Context, meta domain.FileMetadata, filePath string) error {
	state := domain.FileSyncState{
		ConnectorID:  meta.ConnectorID,
		FileID:       meta.ID,
		FilePath:     filePath,
		LastHash:     meta.ContentHash,
		LastModified: meta.ModifiedTime,
		Processed:    true,
	}
	if err := d.syncStore.Upsert(ctx, state); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}

// MarkDownloaded records that the file was fetched but not yet ingested.
// Processed stays false so the next sync retries the ingestion.
func (d *ChangeDetector) MarkDownloaded(ctx context.Context, meta domain.FileMetadata, filePath string) error {
	state := domain.FileSyncState{
		ConnectorID:  meta.ConnectorID,
		FileID:       meta.ID,
		FilePath:     filePath,
		LastHash:     meta.ContentHash,
		LastModified: meta.ModifiedTime,
		Processed:    false,
	}
	if err := d.syncStore.Upsert(ctx, state); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}
