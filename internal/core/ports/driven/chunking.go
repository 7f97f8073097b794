package driven

import (
	"context"

	"github.com/driftline/docsync/internal/core/domain"
)

// ChunkingStrategy splits loaded documents into indexable chunks.
// Strategies are selectable per job, not global.
type ChunkingStrategy interface {
	// Name returns the strategy identifier ("recursive", "agentic").
	Name() string

	// Split turns documents into chunks. The recursive strategy is
	// deterministic and never fails on well-formed text.
	Split(ctx context.Context, docs []domain.Document) ([]domain.DocumentChunk, error)
}

// IndexTarget addresses the index a batch of chunks lands in.
type IndexTarget struct {
	// CacheKey is the content address of the index. Empty selects the
	// shared default store.
	CacheKey string

	// EmbeddingType overrides the configured embedding provider for
	// this index when non-empty.
	EmbeddingType string

	// Language overrides detected language when non-empty.
	Language string
}

// ChunkSink receives chunks produced by the document processor.
// The vector store cache implements it; a sink failure is demoted to a
// warning by the processor because raw extraction succeeding is
// independently valuable.
type ChunkSink interface {
	// Add appends chunks to the shared default store.
	Add(ctx context.Context, chunks []domain.DocumentChunk) error

	// Create builds the index addressed by target from the chunks. An
	// index that already exists at the resolved key is reopened without
	// re-embedding.
	Create(ctx context.Context, chunks []domain.DocumentChunk, target IndexTarget) error
}

// ProcessingObserver receives document-processing lifecycle events.
// This is the sole extension point for progress reporting; it carries no
// control flow.
type ProcessingObserver interface {
	// ProcessingStarted fires before loading begins.
	ProcessingStarted(sourcePath, docType string)

	// ProcessingCompleted fires after chunking (and any sink push).
	ProcessingCompleted(sourcePath string, chunkCount int, durationSeconds float64)
}
