package processor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/chunking"
	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// recordingSink captures chunks pushed by the processor.
type recordingSink struct {
	mu      sync.Mutex
	chunks  []domain.DocumentChunk
	targets []driven.IndexTarget
	err     error
}

func (s *recordingSink) Add(_ context.Context, chunks []domain.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *recordingSink) Create(_ context.Context, chunks []domain.DocumentChunk, target driven.IndexTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.chunks = append(s.chunks, chunks...)
	s.targets = append(s.targets, target)
	return nil
}

// recordingObserver captures lifecycle events.
type recordingObserver struct {
	started   []string
	completed []string
	counts    []int
}

func (o *recordingObserver) ProcessingStarted(sourcePath, _ string) {
	o.started = append(o.started, sourcePath)
}

func (o *recordingObserver) ProcessingCompleted(sourcePath string, chunkCount int, _ float64) {
	o.completed = append(o.completed, sourcePath)
	o.counts = append(o.counts, chunkCount)
}

var (
	_ driven.ChunkSink          = (*recordingSink)(nil)
	_ driven.ProcessingObserver = (*recordingObserver)(nil)
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestProcessor(opts ...Option) *Processor {
	opts = append([]Option{WithStrategy(chunking.NewRecursive())}, opts...)
	return New(opts...)
}

func TestDetectDocType(t *testing.T) {
	cases := []struct {
		path string
		want DocType
	}{
		{"notes.txt", DocTypeText},
		{"README.md", DocTypeMarkdown},
		{"export.csv", DocTypeCSV},
		{"paper.PDF", DocTypePDF},
		{"page.html", DocTypeHTML},
		{"https://example.com/post", DocTypeURL},
	}
	for _, tc := range cases {
		got, err := DetectDocType(tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}

	_, err := DetectDocType("archive.zip")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocType)
}

func TestProcessFile_TextDocument(t *testing.T) {
	path := writeFile(t, "doc.txt", "plain text body for processing")
	sink := &recordingSink{}
	p := newTestProcessor(WithSink(sink))

	chunks, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "plain text body for processing", chunks[0].Text)
	assert.Equal(t, path, chunks[0].SourcePath)

	// Chunks reached the sink.
	assert.Equal(t, chunks, sink.chunks)
}

func TestProcessFile_CacheKeyRoutesToCreate(t *testing.T) {
	path := writeFile(t, "doc.txt", "plain text body for processing")
	sink := &recordingSink{}
	p := newTestProcessor(WithSink(sink))

	chunks, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{
		CacheKey:      "abc123",
		EmbeddingType: "openai",
		Language:      "de",
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	// A cache key addresses a dedicated index instead of the shared
	// store, carrying the per-job embedding and language selection.
	require.Len(t, sink.targets, 1)
	assert.Equal(t, driven.IndexTarget{
		CacheKey:      "abc123",
		EmbeddingType: "openai",
		Language:      "de",
	}, sink.targets[0])
}

func TestProcessFile_CSVDocument(t *testing.T) {
	path := writeFile(t, "table.csv", "name,city\nada,london\ngrace,arlington\n")
	p := newTestProcessor()

	chunks, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "name, city\nada, london\ngrace, arlington", chunks[0].Text)
}

func TestProcessFile_MissingFile(t *testing.T) {
	p := newTestProcessor()

	_, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), driven.ProcessOptions{})
	assert.Error(t, err)
}

func TestProcessFile_UnsupportedType(t *testing.T) {
	path := writeFile(t, "data.bin", "binary")
	p := newTestProcessor()

	_, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocType)
}

func TestProcessFile_UnknownStrategy(t *testing.T) {
	path := writeFile(t, "doc.txt", "text")
	p := newTestProcessor()

	_, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{ChunkingStrategy: "psychic"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessFile_SinkFailureIsWarning(t *testing.T) {
	path := writeFile(t, "doc.txt", "content survives an index hiccup")
	sink := &recordingSink{err: errors.New("index unavailable")}
	p := newTestProcessor(WithSink(sink))

	chunks, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestProcessFile_ObserverEvents(t *testing.T) {
	path := writeFile(t, "doc.txt", "observed content")
	obs := &recordingObserver{}
	p := newTestProcessor(WithObserver(obs))

	chunks, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{})
	require.NoError(t, err)

	require.Len(t, obs.started, 1)
	require.Len(t, obs.completed, 1)
	assert.Equal(t, path, obs.started[0])
	assert.Equal(t, len(chunks), obs.counts[0])
}

func TestProcessFile_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Post</title></head><body>
			<article><h1>A heading</h1>
			<p>This is the readable body of the article. It has enough prose
			to be extracted as the main content of the page by a reader.</p>
			<p>A second paragraph keeps the extraction from looking empty.</p>
			</article></body></html>`))
	}))
	defer srv.Close()

	p := newTestProcessor()

	chunks, err := p.ProcessFile(context.Background(), srv.URL, driven.ProcessOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Text, "readable body")
	assert.Equal(t, srv.URL, chunks[0].SourcePath)
}

func TestProcessFile_URLServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newTestProcessor()

	_, err := p.ProcessFile(context.Background(), srv.URL, driven.ProcessOptions{})
	assert.Error(t, err)
}

func TestProcessFile_SelectsStrategyByName(t *testing.T) {
	path := writeFile(t, "doc.txt", "some text to split")
	named := &fakeStrategy{name: "fake"}
	p := New(WithStrategy(chunking.NewRecursive()), WithStrategy(named))

	_, err := p.ProcessFile(context.Background(), path, driven.ProcessOptions{ChunkingStrategy: "fake"})
	require.NoError(t, err)
	assert.True(t, named.called)
}

type fakeStrategy struct {
	name   string
	called bool
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Split(_ context.Context, docs []domain.Document) ([]domain.DocumentChunk, error) {
	f.called = true
	var chunks []domain.DocumentChunk
	for _, d := range docs {
		chunks = append(chunks, domain.DocumentChunk{Text: d.Text, SourcePath: d.SourcePath, StartOffset: 0})
	}
	return chunks, nil
}
