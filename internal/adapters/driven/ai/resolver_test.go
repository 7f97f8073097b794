package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
)

func testEmbeddingSettings() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:          domain.AIProviderOllama,
		Model:             "nomic-embed-text",
		MultilingualModel: "bge-m3",
	}
}

func TestResolver_EnglishUsesDefaultModel(t *testing.T) {
	r := NewResolver(testEmbeddingSettings())
	defer r.Close()

	svc, err := r.Resolve("", "en")
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestResolver_NonEnglishUsesMultilingualModel(t *testing.T) {
	r := NewResolver(testEmbeddingSettings())
	defer r.Close()

	svc, err := r.Resolve("", "de")
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", svc.ModelName())
}

func TestResolver_NoMultilingualModelFallsBack(t *testing.T) {
	settings := testEmbeddingSettings()
	settings.MultilingualModel = ""
	r := NewResolver(settings)
	defer r.Close()

	svc, err := r.Resolve("", "ja")
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestResolver_CachesPerModel(t *testing.T) {
	r := NewResolver(testEmbeddingSettings())
	defer r.Close()

	first, err := r.Resolve("", "de")
	require.NoError(t, err)
	second, err := r.Resolve("", "fr")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestResolver_EmbeddingTypeMustMatchProvider(t *testing.T) {
	r := NewResolver(testEmbeddingSettings())
	defer r.Close()

	svc, err := r.Resolve("ollama", "en")
	require.NoError(t, err)
	require.NotNil(t, svc)

	_, err = r.Resolve("openai", "en")
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestResolver_Unconfigured(t *testing.T) {
	r := NewResolver(domain.EmbeddingSettings{})
	defer r.Close()

	_, err := r.Resolve("", "en")
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestResolver_EmptyModelUsesProviderDefault(t *testing.T) {
	r := NewResolver(domain.EmbeddingSettings{Provider: domain.AIProviderOllama})
	defer r.Close()

	svc, err := r.Resolve("", "en")
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}
