package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model used for English content.
	Model string

	// MultilingualModel is the embedding model used for non-English
	// content. When empty, Model is used for every language.
	MultilingualModel string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ModelFor returns the model handling the given ISO 639-1 language code.
func (e EmbeddingSettings) ModelFor(language string) string {
	if language != "" && language != "en" && e.MultilingualModel != "" {
		return e.MultilingualModel
	}
	return e.Model
}

// LLMSettings holds LLM provider configuration. The LLM is only needed
// for the agentic chunking strategy; the recursive strategy runs without
// one.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds document chunking configuration.
type ChunkingSettings struct {
	// Strategy is the default strategy name ("recursive" or "agentic").
	Strategy string

	// ChunkSize is the target chunk size in characters.
	ChunkSize int

	// Overlap is the character overlap between adjacent chunks.
	Overlap int
}

// MaxChunkSize is the hard ceiling agentic chunking may emit: twice the
// target size, so the model has room to keep semantic units whole.
func (c ChunkingSettings) MaxChunkSize() int {
	return 2 * c.ChunkSize
}

// QueueSettings holds background task queue configuration.
type QueueSettings struct {
	// Workers is the number of concurrent job workers.
	Workers int

	// MaxAttempts is the per-job attempt cap before a job is marked
	// failed.
	MaxAttempts int
}

// StorageSettings holds filesystem layout configuration.
type StorageSettings struct {
	// DataDir is the root directory for the metadata database.
	DataDir string

	// DownloadDir is where connector downloads land before processing.
	DownloadDir string

	// VectorDir is the root directory for on-disk vector indexes.
	VectorDir string

	// UploadDir, when set, is watched for locally dropped files.
	UploadDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Chunking holds chunking settings.
	Chunking ChunkingSettings

	// Queue holds task queue settings.
	Queue QueueSettings

	// Storage holds filesystem layout settings.
	Storage StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users must set them up explicitly
// before semantic indexing is available.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Chunking: ChunkingSettings{
			Strategy:  "recursive",
			ChunkSize: 1000,
			Overlap:   200,
		},
		Queue: QueueSettings{
			Workers:     4,
			MaxAttempts: 5,
		},
		Storage: StorageSettings{},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default English models per provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultMultilingualEmbeddingModels returns default multilingual models
// per provider. OpenAI models are multilingual already, so the English
// default is reused there.
func DefaultMultilingualEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "bge-m3",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		"bge-m3":            1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
