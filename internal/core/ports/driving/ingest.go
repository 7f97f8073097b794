package driving

import "context"

// IngestRequest describes one local file (or URL) to process and index.
type IngestRequest struct {
	// FilePath is the path or URL of the document.
	FilePath string

	// EmbeddingType selects the embedding provider ("ollama", "openai").
	// Empty selects the configured default.
	EmbeddingType string

	// ChunkingStrategy is "recursive" (default) or "agentic".
	ChunkingStrategy string
}

// Ingestor is the upload entry point. Everything from "job accepted"
// onward is owned by the ingestion pipeline.
type Ingestor interface {
	// Ingest enqueues processing for a local document and returns the
	// job ID for status polling.
	Ingest(ctx context.Context, req IngestRequest) (string, error)
}
