package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/core/ports/driving"
	"github.com/driftline/docsync/internal/logger"
	"github.com/driftline/docsync/internal/vectorstore"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// Ingestor is the upload entry point: it validates a local file or URL
// and hands it to the task queue as an ingest job. Processing happens in
// workers so the caller gets a job ID back immediately.
type Ingestor struct {
	queue     driven.TaskQueue
	processor driven.DocumentProcessor
	progress  *ProgressRecorder
}

// IngestorOption configures the ingestor.
type IngestorOption func(*Ingestor)

// WithIngestProgress mirrors processing progress into the job record.
func WithIngestProgress(rec *ProgressRecorder) IngestorOption {
	return func(i *Ingestor) { i.progress = rec }
}

// NewIngestor creates a new ingestor.
func NewIngestor(queue driven.TaskQueue, processor driven.DocumentProcessor, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{queue: queue, processor: processor}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest enqueues processing for a local document or URL and returns the
// job ID for status polling.
func (i *Ingestor) Ingest(ctx context.Context, req driving.IngestRequest) (string, error) {
	if req.FilePath == "" {
		return "", fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}

	// URLs are fetched by the loader at processing time; local paths
	// must exist now so the caller gets immediate feedback.
	if !isURL(req.FilePath) {
		info, err := os.Stat(req.FilePath)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, req.FilePath)
		}
	}

	payload := domain.IngestJob{
		FilePath:         req.FilePath,
		EmbeddingType:    req.EmbeddingType,
		ChunkingStrategy: req.ChunkingStrategy,
	}
	jobID, err := i.queue.Enqueue(ctx, domain.JobKindIngest, payload)
	if err != nil {
		return "", fmt.Errorf("enqueue ingest: %w", err)
	}

	logger.Debug("Enqueued ingest of %s as job %s", req.FilePath, jobID)
	return jobID, nil
}

// HandleIngestJob is the task-queue handler for ingest jobs. The
// document's content hash addresses its index, so re-ingesting
// identical content reopens the existing index instead of re-embedding.
func (i *Ingestor) HandleIngestJob(ctx context.Context, job *domain.Job) error {
	var payload domain.IngestJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode ingest payload: %w", err)
	}

	key, err := contentKey(payload.FilePath)
	if err != nil {
		return err
	}

	if i.progress != nil {
		untrack := i.progress.Track(ctx, job, payload.FilePath)
		defer untrack()
	}

	opts := driven.ProcessOptions{
		CacheKey:         key,
		EmbeddingType:    payload.EmbeddingType,
		ChunkingStrategy: payload.ChunkingStrategy,
	}
	if _, err := i.processor.ProcessFile(ctx, payload.FilePath, opts); err != nil {
		return fmt.Errorf("process %s: %w", payload.FilePath, err)
	}
	return nil
}

// contentKey is the stable content address for an ingest source: the
// file content hash for local paths, the hashed URL for remote ones.
func contentKey(path string) (string, error) {
	if isURL(path) {
		sum := sha256.Sum256([]byte(path))
		return hex.EncodeToString(sum[:]), nil
	}
	return vectorstore.FileHash(path)
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
