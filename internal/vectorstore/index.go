// Package vectorstore implements the content-addressed on-disk vector
// index and the cache that manages it. Indexes are keyed by
// {content_hash}_{model_signature}_{language} so an index can never be
// reopened with an embedding model other than the one that built it.
package vectorstore

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/driftline/docsync/internal/core/domain"
)

// indexFileName is the persisted index file inside a store directory.
const indexFileName = "index.gob"

// Entry pairs a chunk with its embedding vector.
type Entry struct {
	Chunk  domain.DocumentChunk
	Vector []float32
}

// Index is a flat in-memory vector index with exhaustive cosine search.
// It records the identity of the model that embedded its entries; the
// cache refuses to search it with any other model.
type Index struct {
	// ModelName is the embedding model that built this index.
	ModelName string

	// Language is the detected ISO 639-1 language code.
	Language string

	// Dimensions is the embedding vector width.
	Dimensions int

	Entries []Entry
}

// SearchResult is one similarity hit.
type SearchResult struct {
	Chunk domain.DocumentChunk
	Score float64
}

// Search returns the k entries most similar to the query vector by
// cosine similarity, best first.
func (idx *Index) Search(query []float32, k int) []SearchResult {
	results := make([]SearchResult, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		results = append(results, SearchResult{
			Chunk: e.Chunk,
			Score: cosineSimilarity(query, e.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// Save persists the index into dir atomically: it writes a temp file in
// the same directory and renames it over the index file, so a reader
// never observes a partially written index.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, indexFileName+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(idx); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, indexFileName)); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// LoadIndex reads a persisted index from dir.
func LoadIndex(dir string) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no index at %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var idx Index
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &idx, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
