package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.DocumentProcessor = (*Processor)(nil)

// Processor is the document pipeline: load, chunk, push to the sink.
// The sink is optional, and a sink failure is demoted to a warning; the
// extracted chunks are returned either way.
type Processor struct {
	loader     *Loader
	strategies map[string]driven.ChunkingStrategy
	defaultStr string
	sink       driven.ChunkSink
	observers  []driven.ProcessingObserver
}

// Option configures the processor.
type Option func(*Processor)

// WithSink attaches a chunk sink (the vector store cache).
func WithSink(sink driven.ChunkSink) Option {
	return func(p *Processor) { p.sink = sink }
}

// WithObserver attaches a processing lifecycle observer.
func WithObserver(obs driven.ProcessingObserver) Option {
	return func(p *Processor) { p.observers = append(p.observers, obs) }
}

// WithStrategy registers a chunking strategy. The first registered
// strategy becomes the default.
func WithStrategy(s driven.ChunkingStrategy) Option {
	return func(p *Processor) {
		p.strategies[s.Name()] = s
		if p.defaultStr == "" {
			p.defaultStr = s.Name()
		}
	}
}

// New creates a processor. At least one strategy must be registered via
// WithStrategy before ProcessFile is called.
func New(opts ...Option) *Processor {
	p := &Processor{
		loader:     NewLoader(),
		strategies: make(map[string]driven.ChunkingStrategy),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFile loads the document, splits it with the selected strategy
// and pushes the chunks into the sink.
func (p *Processor) ProcessFile(ctx context.Context, path string, opts driven.ProcessOptions) ([]domain.DocumentChunk, error) {
	docType, err := DetectDocType(path)
	if err != nil {
		return nil, err
	}

	for _, obs := range p.observers {
		obs.ProcessingStarted(path, string(docType))
	}
	start := time.Now()

	docs, err := p.loader.Load(ctx, path, docType)
	if err != nil {
		return nil, err
	}

	strategy, err := p.strategy(opts.ChunkingStrategy)
	if err != nil {
		return nil, err
	}

	chunks, err := strategy.Split(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}

	if p.sink != nil && len(chunks) > 0 {
		// Index-layer hiccups must not discard extracted content.
		if err := p.push(ctx, chunks, opts); err != nil {
			logger.Warn("push %d chunks from %s to index: %v", len(chunks), path, err)
		}
	}

	duration := time.Since(start).Seconds()
	for _, obs := range p.observers {
		obs.ProcessingCompleted(path, len(chunks), duration)
	}
	logger.Debug("Processed %s: %d chunks in %.2fs", path, len(chunks), duration)

	return chunks, nil
}

// push sends chunks to the sink. A cache key routes them into a
// content-addressed index, where identical content becomes a reopen
// instead of a re-embed; without one they append to the shared store.
func (p *Processor) push(ctx context.Context, chunks []domain.DocumentChunk, opts driven.ProcessOptions) error {
	if opts.CacheKey != "" {
		return p.sink.Create(ctx, chunks, driven.IndexTarget{
			CacheKey:      opts.CacheKey,
			EmbeddingType: opts.EmbeddingType,
			Language:      opts.Language,
		})
	}
	return p.sink.Add(ctx, chunks)
}

func (p *Processor) strategy(name string) (driven.ChunkingStrategy, error) {
	if name == "" {
		name = p.defaultStr
	}
	s, ok := p.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, name)
	}
	return s, nil
}
