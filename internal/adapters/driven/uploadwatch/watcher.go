// Package uploadwatch watches a local drop directory and enqueues
// ingestion for files that land in it.
package uploadwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/driftline/docsync/internal/core/ports/driving"
	"github.com/driftline/docsync/internal/logger"
)

// defaultSettleDelay is how long a file must stay quiet after its last
// write before it is ingested. Editors and downloads write in bursts;
// ingesting on the first event reads half a file.
const defaultSettleDelay = 2 * time.Second

// defaultMaxFileSize caps watched-file ingestion at 50MB.
const defaultMaxFileSize = 50 * 1024 * 1024

// defaultExtensions are the document types picked up from the drop
// directory. Everything else is ignored.
var defaultExtensions = []string{".txt", ".md", ".pdf", ".html", ".htm", ".csv"}

// Watcher monitors a directory and submits created or modified files to
// the ingestor.
type Watcher struct {
	dir         string
	ingestor    driving.Ingestor
	fsWatcher   *fsnotify.Watcher
	settleDelay time.Duration
	maxFileSize int64
	extensions  map[string]struct{}

	// pending tracks settle timers per path so a burst of writes
	// collapses into one ingestion. Guarded by mu: timers fire on their
	// own goroutines.
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithSettleDelay sets the quiet period before ingesting a file.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settleDelay = d
		}
	}
}

// WithMaxFileSize sets the size cap for ingested files.
func WithMaxFileSize(size int64) Option {
	return func(w *Watcher) {
		if size > 0 {
			w.maxFileSize = size
		}
	}
}

// WithExtensions replaces the accepted extension list.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) == 0 {
			return
		}
		w.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			w.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// NewWatcher creates a watcher over dir. The directory must exist.
func NewWatcher(dir string, ingestor driving.Ingestor, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("upload directory: %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		dir:         dir,
		ingestor:    ingestor,
		fsWatcher:   fsw,
		settleDelay: defaultSettleDelay,
		maxFileSize: defaultMaxFileSize,
		pending:     make(map[string]*time.Timer),
	}
	w.extensions = make(map[string]struct{}, len(defaultExtensions))
	for _, ext := range defaultExtensions {
		w.extensions[ext] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the directory until ctx is cancelled. It blocks, so run
// it in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watching upload directory %s", w.dir)

	defer w.fsWatcher.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("upload watcher error: %v", err)
		}
	}
}

// handleEvent schedules ingestion for create and write events. Each
// event resets the file's settle timer.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.shouldProcess(event.Name) {
		return
	}

	path := event.Name
	w.mu.Lock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
	w.mu.Unlock()
}

// shouldProcess filters by extension and size.
func (w *Watcher) shouldProcess(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := w.extensions[ext]; !ok {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if info.Size() > w.maxFileSize {
		logger.Warn("skipping %s: %d bytes exceeds watch limit", path, info.Size())
		return false
	}
	return true
}

// ingest submits the settled file. A file removed between the event and
// the timer firing is not an error.
func (w *Watcher) ingest(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Warn("stat %s: %v", path, err)
		return
	}

	jobID, err := w.ingestor.Ingest(ctx, driving.IngestRequest{FilePath: path})
	if err != nil {
		logger.Warn("ingest %s: %v", path, err)
		return
	}
	logger.Info("queued %s as job %s", path, jobID)
}
