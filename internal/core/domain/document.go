package domain

// Document is one loaded unit of source text before chunking. Loaders
// that understand pagination (PDF) emit one Document per page; plain
// text loaders emit a single Document with Page zero.
type Document struct {
	// Text is the raw extracted text.
	Text string

	// SourcePath is the file path or URL the text came from.
	SourcePath string

	// Page is the 1-based page number, or 0 when the source has no pages.
	Page int
}

// DocumentChunk is a bounded span of document text plus positional
// metadata, the unit indexed for retrieval. Chunks are immutable once
// created; the vector store owns them after processing.
type DocumentChunk struct {
	// Text is the chunk content.
	Text string

	// SourcePath identifies the parent document.
	SourcePath string

	// Page is the page the chunk starts on, or 0 when unknown.
	Page int

	// StartOffset is the byte offset of the chunk within its source
	// document's text, recorded for citation. -1 when the producing
	// strategy does not track offsets.
	StartOffset int
}
