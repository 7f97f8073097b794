package driven

import "github.com/driftline/docsync/internal/core/domain"

// SettingsStore persists application settings.
type SettingsStore interface {
	// Settings returns the current settings.
	Settings() domain.AppSettings

	// Update replaces and persists the settings.
	Update(settings domain.AppSettings) error
}

// AIConfigValidator checks that AI settings point at a reachable,
// working service before they are saved.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding service described by the
	// settings. Unconfigured settings pass.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM service described by the settings.
	// Unconfigured settings pass.
	ValidateLLM(settings *domain.LLMSettings) error
}
