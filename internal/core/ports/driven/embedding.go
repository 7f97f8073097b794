package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns a stable identity string for the model. The
	// vector store cache derives its on-disk key signature from this,
	// so it must disambiguate model identity, not just provider.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingResolver picks the embedding service for an embedding type
// and detected language. The vector store cache uses it to bind an
// index to the model that builds it.
type EmbeddingResolver interface {
	// Resolve returns the embedding service for (embeddingType, language).
	// An empty embeddingType selects the configured default.
	Resolve(embeddingType, language string) (EmbeddingService, error)
}
