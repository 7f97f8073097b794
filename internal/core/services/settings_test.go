package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
)

// mockSettingsStore implements driven.SettingsStore for testing.
type mockSettingsStore struct {
	settings domain.AppSettings
	updates  int
	err      error
}

func (m *mockSettingsStore) Settings() domain.AppSettings {
	return m.settings
}

func (m *mockSettingsStore) Update(settings domain.AppSettings) error {
	if m.err != nil {
		return m.err
	}
	m.settings = settings
	m.updates++
	return nil
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func newSettingsService() (*SettingsService, *mockSettingsStore, *mockAIValidator) {
	store := &mockSettingsStore{settings: domain.DefaultAppSettings()}
	validator := &mockAIValidator{}
	return NewSettingsService(store, validator), store, validator
}

func TestSettingsService_Settings(t *testing.T) {
	svc, store, _ := newSettingsService()
	store.settings.Chunking.ChunkSize = 512

	got := svc.Settings()

	assert.Equal(t, 512, got.Chunking.ChunkSize)
}

func TestSettingsService_UpdateEmbedding(t *testing.T) {
	svc, store, _ := newSettingsService()

	err := svc.UpdateEmbedding(context.Background(), domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, "mxbai-embed-large", store.settings.Embedding.Model)
	assert.Equal(t, "bge-m3", store.settings.Embedding.MultilingualModel)
}

func TestSettingsService_UpdateEmbedding_DefaultsModel(t *testing.T) {
	svc, store, _ := newSettingsService()

	err := svc.UpdateEmbedding(context.Background(), domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
	})

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", store.settings.Embedding.Model)
}

func TestSettingsService_UpdateEmbedding_UnknownProvider(t *testing.T) {
	svc, store, _ := newSettingsService()

	err := svc.UpdateEmbedding(context.Background(), domain.EmbeddingSettings{
		Provider: "banana",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, store.updates)
}

func TestSettingsService_UpdateEmbedding_ValidatorRejects(t *testing.T) {
	svc, store, validator := newSettingsService()
	validator.embeddingErr = errors.New("connection refused")

	err := svc.UpdateEmbedding(context.Background(), domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embedding config rejected")
	assert.Equal(t, 0, store.updates)
}

func TestSettingsService_UpdateEmbedding_PreservesOtherSections(t *testing.T) {
	svc, store, _ := newSettingsService()
	store.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
	}

	err := svc.UpdateEmbedding(context.Background(), domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, store.settings.LLM.Provider)
}

func TestSettingsService_UpdateLLM(t *testing.T) {
	svc, store, _ := newSettingsService()

	err := svc.UpdateLLM(context.Background(), domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "sk-ant-test",
	})

	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-latest", store.settings.LLM.Model)
}

func TestSettingsService_UpdateLLM_ValidatorRejects(t *testing.T) {
	svc, store, validator := newSettingsService()
	validator.llmErr = errors.New("status 401")

	err := svc.UpdateLLM(context.Background(), domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "sk-wrong",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "llm config rejected")
	assert.Equal(t, 0, store.updates)
}

func TestSettingsService_UpdateChunking(t *testing.T) {
	svc, store, _ := newSettingsService()

	err := svc.UpdateChunking(context.Background(), domain.ChunkingSettings{
		Strategy:  "agentic",
		ChunkSize: 800,
		Overlap:   100,
	})

	require.NoError(t, err)
	assert.Equal(t, "agentic", store.settings.Chunking.Strategy)
}

func TestSettingsService_UpdateChunking_Invalid(t *testing.T) {
	svc, _, _ := newSettingsService()
	ctx := context.Background()

	tests := []struct {
		name     string
		settings domain.ChunkingSettings
	}{
		{
			name:     "unknown strategy",
			settings: domain.ChunkingSettings{Strategy: "semantic", ChunkSize: 1000},
		},
		{
			name:     "zero chunk size",
			settings: domain.ChunkingSettings{Strategy: "recursive", ChunkSize: 0},
		},
		{
			name:     "overlap not smaller than chunk size",
			settings: domain.ChunkingSettings{Strategy: "recursive", ChunkSize: 100, Overlap: 100},
		},
		{
			name:     "negative overlap",
			settings: domain.ChunkingSettings{Strategy: "recursive", ChunkSize: 100, Overlap: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateChunking(ctx, tt.settings)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
