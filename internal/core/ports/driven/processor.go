package driven

import (
	"context"

	"github.com/driftline/docsync/internal/core/domain"
)

// ProcessOptions selects the pipeline variants for one document.
type ProcessOptions struct {
	// CacheKey is the content address for the document's chunks. When
	// set, the sink builds (or reopens) a dedicated index at this key
	// instead of appending to the shared default store.
	CacheKey string

	// EmbeddingType selects the embedding provider ("ollama", "openai")
	// for a content-addressed index. Empty selects the configured
	// default. Ignored without a CacheKey: the shared store is bound to
	// one embedding space.
	EmbeddingType string

	// ChunkingStrategy is "recursive" (default) or "agentic".
	ChunkingStrategy string

	// Language overrides detected language for a content-addressed
	// index when non-empty.
	Language string
}

// DocumentProcessor runs the load, chunk and index pipeline for a single
// file or URL. Job workers call it after a download completes.
type DocumentProcessor interface {
	// ProcessFile loads the document at path (or URL), splits it into
	// chunks and pushes them to the configured sink. The chunks are
	// returned even when the sink push fails, because raw extraction
	// succeeding is independently valuable. Unsupported document types
	// return domain.ErrUnsupportedDocType.
	ProcessFile(ctx context.Context, path string, opts ProcessOptions) ([]domain.DocumentChunk, error)
}
