package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// DefaultCacheKey is the shared store that remote-sync and upload chunks
// land in when no content-specific key is given.
const DefaultCacheKey = "default_store"

// languageSampleChunks is how many leading chunks feed language
// detection.
const languageSampleChunks = 3

// Ensure Cache implements the sink interface.
var _ driven.ChunkSink = (*Cache)(nil)

// Cache manages content-addressed vector indexes under a root directory.
// One directory per composite key {cache_key}_{model_signature}_{language}.
// It is the single shared mutable resource of the pipeline: all writes
// are serialized behind one mutex, and every persist is replace-on-write,
// so no partial-index state is ever observable on disk.
type Cache struct {
	root          string
	resolver      driven.EmbeddingResolver
	embeddingType string

	mu          sync.Mutex
	current     *Index
	currentPath string
	embedder    driven.EmbeddingService
}

// NewCache creates a cache rooted at dir. embeddingType selects the
// default embedding provider; empty means the resolver's default.
func NewCache(dir string, resolver driven.EmbeddingResolver, embeddingType string) *Cache {
	return &Cache{
		root:          dir,
		resolver:      resolver,
		embeddingType: embeddingType,
	}
}

// FileHash computes the streaming content hash of a local file, used as
// the stable content address for uploaded documents. This is distinct
// from the provider-native hashes used in remote sync.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Create builds (or reopens) the index addressed by target. The full
// on-disk key is {cache_key}_{model_signature}_{language}; if a
// directory already exists at that exact key the chunks are NOT
// re-embedded — the existing index is loaded instead. Empty target
// fields fall back to the default store key, the configured embedding
// type, and detected language.
func (c *Cache) Create(ctx context.Context, chunks []domain.DocumentChunk, target driven.IndexTarget) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createLocked(ctx, chunks, target)
}

func (c *Cache) createLocked(ctx context.Context, chunks []domain.DocumentChunk, target driven.IndexTarget) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks to index", domain.ErrInvalidInput)
	}

	cacheKey := target.CacheKey
	if cacheKey == "" {
		cacheKey = DefaultCacheKey
	}
	lang := target.Language
	if lang == "" {
		lang = DetectLanguage(languageSample(chunks))
	}
	embeddingType := target.EmbeddingType
	if embeddingType == "" {
		embeddingType = c.embeddingType
	}
	embedder, err := c.resolver.Resolve(embeddingType, lang)
	if err != nil {
		return fmt.Errorf("resolve embedding model: %w", err)
	}

	key := fmt.Sprintf("%s_%s_%s", cacheKey, modelSignature(embedder.ModelName()), lang)
	path := filepath.Join(c.root, key)

	// Cache hit: same content, same model, same language.
	if dirExists(path) {
		logger.Debug("Cache hit for %s", key)
		return c.loadLocked(path)
	}

	// A directory at the bare key predates model signatures. Mixing
	// embedding spaces corrupts similarity geometry, so it is ignored
	// rather than reused.
	if legacy := filepath.Join(c.root, cacheKey); legacy != path && dirExists(legacy) {
		logger.Warn("ignoring legacy cache %s without model signature", cacheKey)
	}

	entries, err := c.embedChunks(ctx, embedder, chunks)
	if err != nil {
		return err
	}

	idx := &Index{
		ModelName:  embedder.ModelName(),
		Language:   lang,
		Dimensions: embedder.Dimensions(),
		Entries:    entries,
	}
	if err := idx.Save(path); err != nil {
		return err
	}

	c.current = idx
	c.currentPath = path
	c.embedder = embedder
	logger.Info("Created vector store %s with %d chunks", key, len(entries))
	return nil
}

// Add pushes chunks into the currently loaded index, persisting the full
// index immediately. With no index loaded it delegates to Create under
// the default cache key.
func (c *Cache) Add(ctx context.Context, chunks []domain.DocumentChunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(chunks) == 0 {
		return nil
	}
	if c.current == nil {
		return c.createLocked(ctx, chunks, driven.IndexTarget{})
	}

	entries, err := c.embedChunks(ctx, c.embedder, chunks)
	if err != nil {
		return err
	}
	c.current.Entries = append(c.current.Entries, entries...)

	if err := c.current.Save(c.currentPath); err != nil {
		return err
	}
	logger.Debug("Appended %d chunks to %s", len(entries), filepath.Base(c.currentPath))
	return nil
}

// Load opens a persisted index. When the literal path does not exist it
// searches the parent directory for a single signature-suffixed
// directory and loads that instead, inferring the embedding model from
// the stored index. A model other than the one the resolver yields for
// the index's language fails closed with ErrModelMismatch.
func (c *Cache) Load(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(path)
}

func (c *Cache) loadLocked(path string) error {
	resolved, err := resolveStorePath(path)
	if err != nil {
		return err
	}

	idx, err := LoadIndex(resolved)
	if err != nil {
		return err
	}

	embedder, err := c.resolver.Resolve(c.embeddingType, idx.Language)
	if err != nil {
		return fmt.Errorf("resolve embedding model: %w", err)
	}
	if embedder.ModelName() != idx.ModelName {
		return fmt.Errorf("%w: index built with %q, configured model is %q",
			domain.ErrModelMismatch, idx.ModelName, embedder.ModelName())
	}

	c.current = idx
	c.currentPath = resolved
	c.embedder = embedder
	logger.Debug("Loaded vector store %s (%d chunks)", filepath.Base(resolved), len(idx.Entries))
	return nil
}

// SimilaritySearch embeds the query and returns the k most similar
// chunks from the loaded index.
func (c *Cache) SimilaritySearch(ctx context.Context, query string, k int) ([]SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, domain.ErrIndexUnavailable
	}

	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return c.current.Search(vec, k), nil
}

// Retriever is a fixed-k search handle over the cache.
type Retriever struct {
	cache *Cache
	k     int
}

// GetRetriever returns a retriever over the loaded index, lazily loading
// the default store if nothing is loaded yet. Returns
// ErrIndexUnavailable when that also fails.
func (c *Cache) GetRetriever(k int) (*Retriever, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		if err := c.loadLocked(filepath.Join(c.root, DefaultCacheKey)); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
	}
	return &Retriever{cache: c, k: k}, nil
}

// Search runs a similarity search with the retriever's configured k.
func (r *Retriever) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return r.cache.SimilaritySearch(ctx, query, r.k)
}

func (c *Cache) embedChunks(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.DocumentChunk) ([]Entry, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]Entry, len(chunks))
	for i := range chunks {
		entries[i] = Entry{Chunk: chunks[i], Vector: vectors[i]}
	}
	return entries, nil
}

// languageSample concatenates the first few chunks for detection.
func languageSample(chunks []domain.DocumentChunk) string {
	n := languageSampleChunks
	if len(chunks) < n {
		n = len(chunks)
	}
	var b strings.Builder
	for _, chunk := range chunks[:n] {
		b.WriteString(chunk.Text)
		b.WriteString(" ")
	}
	return b.String()
}

// resolveStorePath returns the literal path when it exists, otherwise
// searches the parent directory for exactly one signature-suffixed
// sibling of the requested name.
func resolveStorePath(path string) (string, error) {
	if dirExists(path) {
		return path, nil
	}

	parent := filepath.Dir(path)
	base := filepath.Base(path)

	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", fmt.Errorf("%w: no store at %s", domain.ErrNotFound, path)
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), base+"_") {
			matches = append(matches, e.Name())
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no store at %s", domain.ErrNotFound, path)
	case 1:
		return filepath.Join(parent, matches[0]), nil
	default:
		return "", fmt.Errorf("%w: ambiguous store %s: %d candidates", domain.ErrInvalidInput, base, len(matches))
	}
}

// modelSignature derives a filesystem-safe signature from a model
// identity string.
func modelSignature(modelName string) string {
	sig := strings.ToLower(modelName)
	sig = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '-'
		}
	}, sig)
	return strings.Trim(sig, "-")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
