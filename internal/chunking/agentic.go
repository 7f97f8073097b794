package chunking

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// atomicUnitSize is the size of the sentence-granularity units the
// agentic strategy walks over.
const atomicUnitSize = 200

// contextWindow is how much of the accumulating chunk's tail is shown to
// the model when asking about the next unit.
const contextWindow = 500

// DefaultSegmentationPrompt is the boundary question posed to the model.
// It takes two placeholders: the current chunk's tail and the next
// passage.
const DefaultSegmentationPrompt = "You are segmenting a document into topic-coherent chunks.\n" +
	"Current chunk ends with:\n---\n%s\n---\n" +
	"Next passage:\n---\n%s\n---\n" +
	"Answer with exactly one word: MERGE if the passage continues " +
	"the same topic, SPLIT if it starts a new one."

// Ensure Agentic implements the interface.
var _ driven.ChunkingStrategy = (*Agentic)(nil)

// Agentic splits text at topic boundaries chosen by a chat model. Text
// is first broken into small atomic units by the recursive splitter,
// then the units are walked sequentially: the model answers a binary
// MERGE/SPLIT question comparing the accumulating chunk's tail against
// the next unit. It trades determinism and latency for topic-coherent
// boundaries.
type Agentic struct {
	llm driven.LLMService

	// maxChunkSize bounds chunk growth even when the model answers
	// MERGE on every unit. Defaults to twice the target chunk size.
	maxChunkSize int

	// promptTemplate is the boundary question template. Customisable
	// via a prompt store; must keep both %s placeholders.
	promptTemplate string
}

// AgenticOption configures the agentic splitter.
type AgenticOption func(*Agentic)

// WithMaxChunkSize sets the hard ceiling on chunk size.
func WithMaxChunkSize(size int) AgenticOption {
	return func(a *Agentic) {
		if size > 0 {
			a.maxChunkSize = size
		}
	}
}

// WithPromptTemplate overrides the boundary question template.
// Templates missing either placeholder are ignored.
func WithPromptTemplate(template string) AgenticOption {
	return func(a *Agentic) {
		if strings.Count(template, "%s") == 2 {
			a.promptTemplate = template
		}
	}
}

// NewAgentic creates an agentic splitter backed by the given chat model.
func NewAgentic(llm driven.LLMService, opts ...AgenticOption) *Agentic {
	a := &Agentic{
		llm:            llm,
		maxChunkSize:   2 * DefaultChunkSize,
		promptTemplate: DefaultSegmentationPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the strategy identifier.
func (a *Agentic) Name() string {
	return "agentic"
}

// Split turns documents into topic-coherent chunks. A model call
// failure defaults to MERGE: fail toward fewer, larger chunks rather
// than aborting the document.
func (a *Agentic) Split(ctx context.Context, docs []domain.Document) ([]domain.DocumentChunk, error) {
	units := NewRecursive(WithChunkSize(atomicUnitSize), WithOverlap(0))

	var chunks []domain.DocumentChunk
	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}

		pieces, err := units.Split(ctx, []domain.Document{doc})
		if err != nil {
			return nil, err
		}

		var current strings.Builder
		for _, piece := range pieces {
			if current.Len() == 0 {
				current.WriteString(piece.Text)
				continue
			}

			// The ceiling commits unconditionally, before the model is
			// consulted, so a degenerate always-MERGE model cannot grow
			// a chunk without bound.
			if current.Len()+len(piece.Text) > a.maxChunkSize {
				chunks = append(chunks, a.commit(doc, current.String()))
				current.Reset()
				current.WriteString(piece.Text)
				continue
			}

			if a.shouldSplit(ctx, current.String(), piece.Text) {
				chunks = append(chunks, a.commit(doc, current.String()))
				current.Reset()
			}
			current.WriteString(piece.Text)
		}
		if current.Len() > 0 {
			chunks = append(chunks, a.commit(doc, current.String()))
		}
	}
	return chunks, nil
}

func (a *Agentic) commit(doc domain.Document, text string) domain.DocumentChunk {
	return domain.DocumentChunk{
		Text:       text,
		SourcePath: doc.SourcePath,
		Page:       doc.Page,
		// Offsets are not tracked: merged units lose their positions.
		StartOffset: -1,
	}
}

// shouldSplit asks the model whether the next unit starts a new topic.
func (a *Agentic) shouldSplit(ctx context.Context, current, next string) bool {
	tail := current
	if len(tail) > contextWindow {
		tail = tail[len(tail)-contextWindow:]
	}

	prompt := fmt.Sprintf(a.promptTemplate, tail, next)

	answer, err := a.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   5,
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("chunk boundary call failed, merging: %v", err)
		return false
	}

	return strings.Contains(strings.ToUpper(answer), "SPLIT")
}
