package driving

import (
	"context"

	"github.com/driftline/docsync/internal/core/domain"
)

// SettingsManager reads and updates application settings. Updates that
// change AI configuration are validated against the live service before
// they are persisted.
type SettingsManager interface {
	// Settings returns the current settings.
	Settings() domain.AppSettings

	// UpdateEmbedding validates and persists embedding settings.
	UpdateEmbedding(ctx context.Context, settings domain.EmbeddingSettings) error

	// UpdateLLM validates and persists LLM settings.
	UpdateLLM(ctx context.Context, settings domain.LLMSettings) error

	// UpdateChunking persists chunking settings.
	UpdateChunking(ctx context.Context, settings domain.ChunkingSettings) error
}
