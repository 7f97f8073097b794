// Package processor turns files and URLs into indexable chunks: a
// type-specific loader extracts text, a chunking strategy splits it, and
// the result is pushed into the configured chunk sink.
package processor

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/logger"
)

// DocType identifies which loader handles a source.
type DocType string

const (
	DocTypeText     DocType = "text"
	DocTypeMarkdown DocType = "markdown"
	DocTypeCSV      DocType = "csv"
	DocTypePDF      DocType = "pdf"
	DocTypeHTML     DocType = "html"
	DocTypeURL      DocType = "url"
)

// DetectDocType infers the document type from the URL scheme or file
// extension. Returns domain.ErrUnsupportedDocType for anything the
// loaders cannot handle.
func DetectDocType(path string) (DocType, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return DocTypeURL, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return DocTypeText, nil
	case ".md", ".markdown":
		return DocTypeMarkdown, nil
	case ".csv":
		return DocTypeCSV, nil
	case ".pdf":
		return DocTypePDF, nil
	case ".html", ".htm":
		return DocTypeHTML, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedDocType, path)
	}
}

// Loader extracts text from a source into Documents.
type Loader struct {
	// client fetches URL sources. Defaults to http.DefaultClient.
	client *http.Client
}

// NewLoader creates a loader.
func NewLoader() *Loader {
	return &Loader{client: http.DefaultClient}
}

// Load extracts text from the source at path. PDF sources produce one
// Document per page; everything else produces a single Document.
func (l *Loader) Load(ctx context.Context, path string, docType DocType) ([]domain.Document, error) {
	switch docType {
	case DocTypeText, DocTypeMarkdown:
		return l.loadText(path)
	case DocTypeCSV:
		return l.loadCSV(path)
	case DocTypePDF:
		return l.loadPDF(path)
	case DocTypeHTML:
		return l.loadHTML(path)
	case DocTypeURL:
		return l.loadURL(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDocType, docType)
	}
}

func (l *Loader) loadText(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []domain.Document{{Text: string(data), SourcePath: path}}, nil
}

func (l *Loader) loadCSV(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Ragged rows are common in exported spreadsheets.
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, strings.Join(record, ", "))
	}
	return []domain.Document{{Text: strings.Join(lines, "\n"), SourcePath: path}}, nil
}

func (l *Loader) loadPDF(path string) ([]domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var docs []domain.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page should not discard the rest.
			logger.Warn("pdf %s page %d: %v", path, i, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{Text: text, SourcePath: path, Page: i})
	}
	return docs, nil
}

func (l *Loader) loadHTML(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	article, err := readability.FromReader(f, nil)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", path, err)
	}
	return []domain.Document{{Text: article.TextContent, SourcePath: path}}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) ([]domain.Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return []domain.Document{{Text: article.TextContent, SourcePath: rawURL}}, nil
}
