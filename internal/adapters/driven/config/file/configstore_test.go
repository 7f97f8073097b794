package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
)

func TestNewSettingsStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewSettingsStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewSettingsStore_DefaultsWhenFileMissing(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	settings := store.Settings()
	assert.Equal(t, "recursive", settings.Chunking.Strategy)
	assert.Equal(t, 1000, settings.Chunking.ChunkSize)
	assert.Equal(t, 4, settings.Queue.Workers)
	assert.Equal(t, 5, settings.Queue.MaxAttempts)
	assert.False(t, settings.Embedding.IsConfigured())
}

func TestSettingsStore_UpdateRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewSettingsStore(tmpDir)
	require.NoError(t, err)

	settings := store.Settings()
	settings.Embedding = domain.EmbeddingSettings{
		Provider:          domain.AIProviderOllama,
		Model:             "nomic-embed-text",
		MultilingualModel: "bge-m3",
		BaseURL:           "http://localhost:11434",
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "ak-test",
	}
	settings.Chunking.Strategy = "agentic"
	settings.Storage.DownloadDir = "/tmp/docsync-downloads"

	require.NoError(t, store.Update(settings))

	// Re-open from disk.
	reloaded, err := NewSettingsStore(tmpDir)
	require.NoError(t, err)

	got := reloaded.Settings()
	assert.Equal(t, domain.AIProviderOllama, got.Embedding.Provider)
	assert.Equal(t, "bge-m3", got.Embedding.MultilingualModel)
	assert.Equal(t, domain.AIProviderAnthropic, got.LLM.Provider)
	assert.Equal(t, "ak-test", got.LLM.APIKey)
	assert.Equal(t, "agentic", got.Chunking.Strategy)
	assert.Equal(t, "/tmp/docsync-downloads", got.Storage.DownloadDir)
}

func TestSettingsStore_PartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[embedding]\nprovider = \"ollama\"\nmodel = \"all-minilm\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewSettingsStore(tmpDir)
	require.NoError(t, err)

	settings := store.Settings()
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, 1000, settings.Chunking.ChunkSize)
	assert.Equal(t, 4, settings.Queue.Workers)
}

func TestSettingsStore_MalformedFileIsAnError(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewSettingsStore(tmpDir)
	require.Error(t, err)
}

func TestSettingsStore_SaveRestrictsPermissions(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewSettingsStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
