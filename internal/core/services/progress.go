package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// Ensure ProgressRecorder implements the observer interface.
var _ driven.ProcessingObserver = (*ProgressRecorder)(nil)

// ProgressRecorder mirrors document-processing lifecycle events into the
// note field of the job that triggered them, so 'jobs status' shows what
// a worker is doing mid-flight. Job handlers register the source path
// they are about to process; observer callbacks carry only the path.
type ProgressRecorder struct {
	store driven.JobStore

	mu     sync.Mutex
	active map[string]trackedJob
}

type trackedJob struct {
	ctx context.Context
	job *domain.Job
}

// NewProgressRecorder creates a recorder over the given job store.
func NewProgressRecorder(store driven.JobStore) *ProgressRecorder {
	return &ProgressRecorder{
		store:  store,
		active: make(map[string]trackedJob),
	}
}

// Track binds a source path to the job processing it. The returned
// function releases the binding; callers defer it around ProcessFile.
func (r *ProgressRecorder) Track(ctx context.Context, job *domain.Job, sourcePath string) func() {
	r.mu.Lock()
	r.active[sourcePath] = trackedJob{ctx: ctx, job: job}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.active, sourcePath)
		r.mu.Unlock()
	}
}

// ProcessingStarted records that loading began for a tracked source.
func (r *ProgressRecorder) ProcessingStarted(sourcePath, docType string) {
	r.note(sourcePath, fmt.Sprintf("Loading %s document", docType))
}

// ProcessingCompleted records the chunk count for a tracked source.
func (r *ProgressRecorder) ProcessingCompleted(sourcePath string, chunkCount int, durationSeconds float64) {
	r.note(sourcePath, fmt.Sprintf("Indexed %d chunks in %.1fs", chunkCount, durationSeconds))
}

func (r *ProgressRecorder) note(sourcePath, note string) {
	r.mu.Lock()
	tracked, ok := r.active[sourcePath]
	r.mu.Unlock()
	if !ok {
		return
	}

	tracked.job.Note = note
	tracked.job.UpdatedAt = time.Now()
	if err := r.store.Update(tracked.ctx, *tracked.job); err != nil {
		logger.Warn("record progress for job %s: %v", tracked.job.ID, err)
	}
}
