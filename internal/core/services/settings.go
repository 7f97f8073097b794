package services

import (
	"context"
	"fmt"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsManager = (*SettingsService)(nil)

// SettingsService manages application settings. AI settings are pinged
// before they are persisted, so a typo in a base URL or API key fails
// at configuration time rather than on the first job.
type SettingsService struct {
	store     driven.SettingsStore
	validator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store driven.SettingsStore, validator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		store:     store,
		validator: validator,
	}
}

// Settings returns the current settings.
func (s *SettingsService) Settings() domain.AppSettings {
	return s.store.Settings()
}

// UpdateEmbedding validates and persists embedding settings. The model
// defaults to the provider's default when left empty.
func (s *SettingsService) UpdateEmbedding(_ context.Context, settings domain.EmbeddingSettings) error {
	if settings.Provider != "" && !settings.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, settings.Provider)
	}
	if settings.Model == "" {
		settings.Model = domain.DefaultEmbeddingModels()[settings.Provider]
	}
	if settings.MultilingualModel == "" {
		settings.MultilingualModel = domain.DefaultMultilingualEmbeddingModels()[settings.Provider]
	}

	if s.validator != nil {
		if err := s.validator.ValidateEmbedding(&settings); err != nil {
			return fmt.Errorf("embedding config rejected: %w", err)
		}
	}

	current := s.store.Settings()
	current.Embedding = settings
	return s.store.Update(current)
}

// UpdateLLM validates and persists LLM settings.
func (s *SettingsService) UpdateLLM(_ context.Context, settings domain.LLMSettings) error {
	if settings.Provider != "" && !settings.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, settings.Provider)
	}
	if settings.Model == "" {
		settings.Model = domain.DefaultLLMModels()[settings.Provider]
	}

	if s.validator != nil {
		if err := s.validator.ValidateLLM(&settings); err != nil {
			return fmt.Errorf("llm config rejected: %w", err)
		}
	}

	current := s.store.Settings()
	current.LLM = settings
	return s.store.Update(current)
}

// UpdateChunking persists chunking settings.
func (s *SettingsService) UpdateChunking(_ context.Context, settings domain.ChunkingSettings) error {
	if settings.Strategy != "recursive" && settings.Strategy != "agentic" {
		return fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, settings.Strategy)
	}
	if settings.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}
	if settings.Overlap < 0 || settings.Overlap >= settings.ChunkSize {
		return fmt.Errorf("%w: overlap must be smaller than the chunk size", domain.ErrInvalidInput)
	}

	current := s.store.Settings()
	current.Chunking = settings
	return s.store.Update(current)
}
