package driven

import (
	"context"

	"github.com/driftline/docsync/internal/core/domain"
)

// TaskQueue is the asynchronous job execution substrate. Delivery is
// at-least-once; handlers must be idempotent.
type TaskQueue interface {
	// Enqueue persists a job and schedules it for execution.
	// Returns the job ID for status polling.
	Enqueue(ctx context.Context, kind domain.JobKind, payload any) (string, error)

	// Status returns the current job record by ID.
	Status(ctx context.Context, jobID string) (*domain.Job, error)
}

// JobHandler executes one job delivery. Returning an error triggers the
// queue's retry policy; a nil return marks the job succeeded.
type JobHandler func(ctx context.Context, job *domain.Job) error

// JobStore persists task-queue job records.
type JobStore interface {
	// Create inserts a new job record.
	Create(ctx context.Context, job domain.Job) error

	// Update replaces a job record.
	Update(ctx context.Context, job domain.Job) error

	// Get retrieves a job by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Job, error)

	// ListPending returns jobs that are queued or were in progress when
	// the process stopped, oldest first. Used for redelivery on startup.
	ListPending(ctx context.Context) ([]domain.Job, error)

	// ListRecent returns the most recent jobs, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.Job, error)
}
