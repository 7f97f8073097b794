package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
)

// mockSettingsManager implements driving.SettingsManager for testing.
type mockSettingsManager struct {
	settings  domain.AppSettings
	embedding *domain.EmbeddingSettings
	llm       *domain.LLMSettings
	chunking  *domain.ChunkingSettings
	err       error
}

func (m *mockSettingsManager) Settings() domain.AppSettings {
	return m.settings
}

func (m *mockSettingsManager) UpdateEmbedding(_ context.Context, s domain.EmbeddingSettings) error {
	if m.err != nil {
		return m.err
	}
	m.embedding = &s
	return nil
}

func (m *mockSettingsManager) UpdateLLM(_ context.Context, s domain.LLMSettings) error {
	if m.err != nil {
		return m.err
	}
	m.llm = &s
	return nil
}

func (m *mockSettingsManager) UpdateChunking(_ context.Context, s domain.ChunkingSettings) error {
	if m.err != nil {
		return m.err
	}
	m.chunking = &s
	return nil
}

func setupConfigTest() (*mockSettingsManager, func()) {
	old := settingsManager
	mock := &mockSettingsManager{settings: domain.DefaultAppSettings()}
	settingsManager = mock
	return mock, func() {
		settingsManager = old
	}
}

func resetConfigFlags() {
	aiProvider = ""
	aiModel = ""
	multilingualModel = ""
	aiBaseURL = ""
	aiAPIKey = ""
	chunkStrategy = "recursive"
	chunkSize = 1000
	chunkOverlap = 200
}

func TestConfigCmd_Show(t *testing.T) {
	mock, cleanup := setupConfigTest()
	defer cleanup()

	mock.settings.Embedding = domain.EmbeddingSettings{
		Provider:          domain.AIProviderOllama,
		Model:             "nomic-embed-text",
		MultilingualModel: "bge-m3",
	}

	out, err := execute(t, "config")

	assert.NoError(t, err)
	assert.Contains(t, out, "provider: ollama, model: nomic-embed-text")
	assert.Contains(t, out, "multilingual model: bge-m3")
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "strategy: recursive, chunk size: 1000, overlap: 200")
}

func TestConfigCmd_SetEmbedding(t *testing.T) {
	mock, cleanup := setupConfigTest()
	defer cleanup()
	defer resetConfigFlags()

	out, err := execute(t, "config", "set-embedding",
		"--provider", "openai",
		"--model", "text-embedding-3-small",
		"--api-key", "sk-test")

	assert.NoError(t, err)
	assert.Contains(t, out, "Embedding settings saved.")
	require.NotNil(t, mock.embedding)
	assert.Equal(t, domain.AIProviderOpenAI, mock.embedding.Provider)
	assert.Equal(t, "sk-test", mock.embedding.APIKey)
}

func TestConfigCmd_SetEmbedding_ServiceRejects(t *testing.T) {
	mock, cleanup := setupConfigTest()
	defer cleanup()
	defer resetConfigFlags()

	mock.err = errors.New("embedding config rejected: connection refused")

	_, err := execute(t, "config", "set-embedding", "--provider", "ollama")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConfigCmd_SetLLM(t *testing.T) {
	mock, cleanup := setupConfigTest()
	defer cleanup()
	defer resetConfigFlags()

	out, err := execute(t, "config", "set-llm",
		"--provider", "anthropic",
		"--api-key", "sk-ant-test")

	assert.NoError(t, err)
	assert.Contains(t, out, "LLM settings saved.")
	require.NotNil(t, mock.llm)
	assert.Equal(t, domain.AIProviderAnthropic, mock.llm.Provider)
}

func TestConfigCmd_SetChunking(t *testing.T) {
	mock, cleanup := setupConfigTest()
	defer cleanup()
	defer resetConfigFlags()

	out, err := execute(t, "config", "set-chunking",
		"--strategy", "agentic",
		"--chunk-size", "800",
		"--overlap", "100")

	assert.NoError(t, err)
	assert.Contains(t, out, "Chunking settings saved.")
	require.NotNil(t, mock.chunking)
	assert.Equal(t, "agentic", mock.chunking.Strategy)
	assert.Equal(t, 800, mock.chunking.ChunkSize)
}

func TestConfigCmd_ServiceNotConfigured(t *testing.T) {
	old := settingsManager
	settingsManager = nil
	defer func() {
		settingsManager = old
	}()

	_, err := execute(t, "config")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
