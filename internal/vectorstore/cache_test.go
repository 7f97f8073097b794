package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// fakeEmbedder produces deterministic vectors and counts embed calls.
type fakeEmbedder struct {
	model      string
	vectors    map[string][]float32
	embedCalls int
	batchCalls int
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	// Deterministic fallback derived from content.
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedCalls++
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 3 }
func (f *fakeEmbedder) ModelName() string            { return f.model }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// fakeResolver hands out one embedder and records what it was asked for.
type fakeResolver struct {
	embedder      *fakeEmbedder
	embeddingType string
	language      string
}

func (r *fakeResolver) Resolve(embeddingType, language string) (driven.EmbeddingService, error) {
	r.embeddingType = embeddingType
	r.language = language
	return r.embedder, nil
}

var (
	_ driven.EmbeddingService  = (*fakeEmbedder)(nil)
	_ driven.EmbeddingResolver = (*fakeResolver)(nil)
)

func sampleChunks() []domain.DocumentChunk {
	return []domain.DocumentChunk{
		{Text: "the first chunk of english text", SourcePath: "doc.txt", StartOffset: 0},
		{Text: "the second chunk of english text", SourcePath: "doc.txt", StartOffset: 31},
	}
}

func TestCache_CreatePersistsIndex(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")

	require.NoError(t, cache.Create(context.Background(), sampleChunks(), driven.IndexTarget{CacheKey: "hash123"}))

	// Directory key carries the model signature and language.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hash123_nomic-embed-text_en", entries[0].Name())

	// No temp files left behind by the atomic save.
	files, err := os.ReadDir(filepath.Join(root, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "index.gob", files[0].Name())
}

func TestCache_CreateTwiceIsACacheHit(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")
	ctx := context.Background()

	require.NoError(t, cache.Create(ctx, sampleChunks(), driven.IndexTarget{CacheKey: "hash123"}))
	assert.Equal(t, 1, embedder.batchCalls)

	// Same key again: loads from disk, does not re-embed.
	fresh := NewCache(root, &fakeResolver{embedder: embedder}, "")
	require.NoError(t, fresh.Create(ctx, sampleChunks(), driven.IndexTarget{CacheKey: "hash123"}))
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestCache_CreateHonorsTargetOverrides(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "text-embedding-3-small"}
	resolver := &fakeResolver{embedder: embedder}
	cache := NewCache(root, resolver, "ollama")

	require.NoError(t, cache.Create(context.Background(), sampleChunks(), driven.IndexTarget{
		CacheKey:      "hash123",
		EmbeddingType: "openai",
		Language:      "de",
	}))

	// The per-index overrides reach the resolver and the on-disk key;
	// the configured default and detection do not apply.
	assert.Equal(t, "openai", resolver.embeddingType)
	assert.Equal(t, "de", resolver.language)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hash123_text-embedding-3-small_de", entries[0].Name())
}

func TestCache_CreateEmptyTargetUsesDefaults(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	resolver := &fakeResolver{embedder: embedder}
	cache := NewCache(root, resolver, "ollama")

	require.NoError(t, cache.Create(context.Background(), sampleChunks(), driven.IndexTarget{}))

	assert.Equal(t, "ollama", resolver.embeddingType)
	assert.Equal(t, "en", resolver.language)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultCacheKey+"_nomic-embed-text_en", entries[0].Name())
}

func TestCache_LoadModelMismatchFailsClosed(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	builder := &fakeEmbedder{model: "model-a"}
	cache := NewCache(root, &fakeResolver{embedder: builder}, "")
	require.NoError(t, cache.Create(ctx, sampleChunks(), driven.IndexTarget{CacheKey: "hash123"}))

	// A cache configured for a different model must refuse the index.
	other := NewCache(root, &fakeResolver{embedder: &fakeEmbedder{model: "model-b"}}, "")
	err := other.Load(filepath.Join(root, "hash123"))
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestCache_LoadResolvesSignatureSuffix(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	ctx := context.Background()

	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")
	require.NoError(t, cache.Create(ctx, sampleChunks(), driven.IndexTarget{CacheKey: "hash123"}))

	// The literal path lacks the signature suffix; the parent scan
	// finds the single candidate.
	fresh := NewCache(root, &fakeResolver{embedder: embedder}, "")
	require.NoError(t, fresh.Load(filepath.Join(root, "hash123")))

	results, err := fresh.SimilaritySearch(ctx, "first chunk", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestCache_LoadMissingStore(t *testing.T) {
	root := t.TempDir()
	cache := NewCache(root, &fakeResolver{embedder: &fakeEmbedder{model: "m"}}, "")

	err := cache.Load(filepath.Join(root, "absent"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_AddWithoutIndexCreatesDefaultStore(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")

	require.NoError(t, cache.Add(context.Background(), sampleChunks()))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultCacheKey+"_nomic-embed-text_en", entries[0].Name())
}

func TestCache_AddAppendsAndPersists(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")
	ctx := context.Background()

	require.NoError(t, cache.Add(ctx, sampleChunks()))
	require.NoError(t, cache.Add(ctx, []domain.DocumentChunk{
		{Text: "a third english chunk arrives later", SourcePath: "other.txt"},
	}))

	// Reload from disk: both writes must be visible.
	fresh := NewCache(root, &fakeResolver{embedder: embedder}, "")
	require.NoError(t, fresh.Load(filepath.Join(root, DefaultCacheKey)))

	results, err := fresh.SimilaritySearch(ctx, "anything", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestCache_AddEmptyIsNoop(t *testing.T) {
	cache := NewCache(t.TempDir(), &fakeResolver{embedder: &fakeEmbedder{model: "m"}}, "")
	require.NoError(t, cache.Add(context.Background(), nil))
}

func TestCache_LegacyKeyIgnored(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")

	// A pre-signature store directory at the bare key.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hash123"), 0o755))

	require.NoError(t, cache.Create(context.Background(), sampleChunks(), driven.IndexTarget{CacheKey: "hash123"}))

	// A fresh signature-suffixed store was built; the legacy dir was
	// neither reused nor deleted.
	assert.True(t, dirExists(filepath.Join(root, "hash123_nomic-embed-text_en")))
	assert.True(t, dirExists(filepath.Join(root, "hash123")))
	assert.Equal(t, 1, embedder.batchCalls)
}

func TestCache_SimilaritySearchOrdering(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{
		model: "nomic-embed-text",
		vectors: map[string][]float32{
			"dogs and puppies":  {1, 0, 0},
			"cats and kittens":  {0, 1, 0},
			"stocks and shares": {0, 0, 1},
			"canine query":      {0.9, 0.1, 0},
		},
	}
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")
	ctx := context.Background()

	require.NoError(t, cache.Create(ctx, []domain.DocumentChunk{
		{Text: "dogs and puppies"},
		{Text: "cats and kittens"},
		{Text: "stocks and shares"},
	}, driven.IndexTarget{CacheKey: "animals"}))

	results, err := cache.SimilaritySearch(ctx, "canine query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "dogs and puppies", results[0].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestCache_SearchWithoutIndex(t *testing.T) {
	cache := NewCache(t.TempDir(), &fakeResolver{embedder: &fakeEmbedder{model: "m"}}, "")

	_, err := cache.SimilaritySearch(context.Background(), "query", 5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestCache_GetRetrieverLazyLoad(t *testing.T) {
	root := t.TempDir()
	embedder := &fakeEmbedder{model: "nomic-embed-text"}
	ctx := context.Background()

	seed := NewCache(root, &fakeResolver{embedder: embedder}, "")
	require.NoError(t, seed.Add(ctx, sampleChunks()))

	// A fresh cache with nothing loaded finds the default store.
	cache := NewCache(root, &fakeResolver{embedder: embedder}, "")
	retriever, err := cache.GetRetriever(5)
	require.NoError(t, err)

	results, err := retriever.Search(ctx, "first chunk")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCache_GetRetrieverNoStore(t *testing.T) {
	cache := NewCache(t.TempDir(), &fakeResolver{embedder: &fakeEmbedder{model: "m"}}, "")

	_, err := cache.GetRetriever(5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	content := []byte("stable content address")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	want := sha256.Sum256(content)

	got, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)

	// Same content, same hash.
	again, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestFileHash_MissingFile(t *testing.T) {
	_, err := FileHash(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestModelSignature(t *testing.T) {
	assert.Equal(t, "text-embedding-3-small", modelSignature("text-embedding-3-small"))
	assert.Equal(t, "ollama-nomic-embed-text-v1.5", modelSignature("Ollama/nomic-embed-text:v1.5"))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "en", DetectLanguage(""))
	assert.Equal(t, "en", DetectLanguage("The quick brown fox jumps over the lazy dog and keeps on running through the field."))
	assert.Equal(t, "es", DetectLanguage("El rápido zorro marrón salta sobre el perro perezoso y sigue corriendo por el campo todos los días."))
}
