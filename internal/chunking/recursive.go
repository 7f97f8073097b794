// Package chunking provides the two splitting strategies for document
// processing: a deterministic fixed-window recursive splitter and an
// LLM-guided agentic splitter that looks for topic boundaries.
package chunking

import (
	"context"
	"strings"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// defaultSeparators is the priority order for split points: paragraph
// breaks first, then lines, then words, then individual characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Ensure Recursive implements the interface.
var _ driven.ChunkingStrategy = (*Recursive)(nil)

// Recursive splits text into fixed-size overlapping chunks along a
// priority-ordered list of separators. It is deterministic, makes no
// external calls, and never fails on well-formed text.
type Recursive struct {
	chunkSize  int
	overlap    int
	separators []string
}

// RecursiveOption configures the recursive splitter.
type RecursiveOption func(*Recursive)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) RecursiveOption {
	return func(r *Recursive) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) RecursiveOption {
	return func(r *Recursive) {
		if overlap >= 0 {
			r.overlap = overlap
		}
	}
}

// NewRecursive creates a recursive splitter with the given options.
func NewRecursive(opts ...RecursiveOption) *Recursive {
	r := &Recursive{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: defaultSeparators,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Ensure overlap doesn't exceed chunk size
	if r.overlap >= r.chunkSize {
		r.overlap = r.chunkSize / 4
	}

	return r
}

// Name returns the strategy identifier.
func (r *Recursive) Name() string {
	return "recursive"
}

// Split turns documents into chunks. Offsets index into each source
// document's text, so stripping the overlap prefix and concatenating in
// offset order reproduces the original text.
func (r *Recursive) Split(_ context.Context, docs []domain.Document) ([]domain.DocumentChunk, error) {
	var chunks []domain.DocumentChunk
	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		for _, span := range r.splitText(doc.Text) {
			chunks = append(chunks, domain.DocumentChunk{
				Text:        span.text,
				SourcePath:  doc.SourcePath,
				Page:        doc.Page,
				StartOffset: span.offset,
			})
		}
	}
	return chunks, nil
}

type span struct {
	text   string
	offset int
}

// splitText produces overlapping chunks from one text. It first breaks
// the text into atomic pieces no longer than the chunk size, keeping
// separators attached so piece concatenation equals the input, then
// packs consecutive pieces into chunks with a trailing-piece overlap.
func (r *Recursive) splitText(text string) []span {
	pieces := r.atomicPieces(text, r.separators)

	var chunks []span
	var current []span
	currentLen := 0
	offset := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		var b strings.Builder
		for _, p := range current {
			b.WriteString(p.text)
		}
		chunks = append(chunks, span{text: b.String(), offset: current[0].offset})
	}

	for _, piece := range pieces {
		p := span{text: piece, offset: offset}
		offset += len(piece)

		if currentLen+len(piece) > r.chunkSize && currentLen > 0 {
			flush()
			// Carry trailing pieces forward as overlap.
			var kept []span
			keptLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				if keptLen+len(current[i].text) > r.overlap {
					break
				}
				keptLen += len(current[i].text)
				kept = append([]span{current[i]}, kept...)
			}
			// Drop overlap from the front if it would push the next
			// chunk past the size target.
			for len(kept) > 0 && keptLen+len(piece) > r.chunkSize {
				keptLen -= len(kept[0].text)
				kept = kept[1:]
			}
			current = kept
			currentLen = keptLen
		}

		current = append(current, p)
		currentLen += len(p.text)
	}
	flush()

	return chunks
}

// atomicPieces recursively splits text into pieces no longer than the
// chunk size, trying coarser separators first. Separators stay attached
// to the preceding piece so no characters are lost.
func (r *Recursive) atomicPieces(text string, separators []string) []string {
	if len(text) <= r.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return r.hardSplit(text)
	}

	sep := separators[0]
	rest := separators[1:]

	if sep == "" {
		return r.hardSplit(text)
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		// Separator absent, try the next finer one.
		return r.atomicPieces(text, rest)
	}

	var pieces []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) > r.chunkSize {
			pieces = append(pieces, r.atomicPieces(part, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// hardSplit cuts text at exact chunk-size boundaries, as the last
// resort when no separator granularity fits.
func (r *Recursive) hardSplit(text string) []string {
	var pieces []string
	for len(text) > r.chunkSize {
		pieces = append(pieces, text[:r.chunkSize])
		text = text[r.chunkSize:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}
