// Package taskqueue is the asynchronous job execution substrate: a pool
// of workers pulling durable jobs, with exponential-backoff retries and
// status reporting by job ID. Delivery is at-least-once; jobs that were
// pending when the process stopped are redelivered on the next start.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/logger"
)

// DefaultWorkers is the default worker pool size.
const DefaultWorkers = 4

// DefaultMaxAttempts caps handler invocations per job before it is
// marked failed, bounding requeue loops on a permanently broken input.
const DefaultMaxAttempts = 5

// queueBuffer is the in-flight job channel capacity.
const queueBuffer = 1024

// Ensure Queue implements the interface.
var _ driven.TaskQueue = (*Queue)(nil)

// Queue executes registered job handlers against durable job records.
type Queue struct {
	store       driven.JobStore
	workers     int
	maxAttempts int

	// newBackOff builds the per-job retry policy. Overridable in tests
	// to avoid real waits.
	newBackOff func() backoff.BackOff

	mu       sync.Mutex
	handlers map[domain.JobKind]driven.JobHandler
	running  bool
	stopCh   chan struct{}

	jobCh chan string
	wg    sync.WaitGroup
}

// Option configures the queue.
type Option func(*Queue)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithMaxAttempts sets the attempt cap per job.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithBackOff sets the retry policy factory.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(q *Queue) { q.newBackOff = factory }
}

// New creates a queue over the given job store.
func New(store driven.JobStore, opts ...Option) *Queue {
	q := &Queue{
		store:       store,
		workers:     DefaultWorkers,
		maxAttempts: DefaultMaxAttempts,
		handlers:    make(map[domain.JobKind]driven.JobHandler),
		jobCh:       make(chan string, queueBuffer),
	}
	q.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Second
		b.MaxInterval = time.Minute
		return b
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RegisterHandler binds a handler to a job kind. Must be called before
// Start.
func (q *Queue) RegisterHandler(kind domain.JobKind, handler driven.JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// Start redelivers pending jobs and launches the worker pool. It
// returns immediately; workers run until Stop or context cancellation.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.mu.Unlock()

	// Jobs left queued or in progress by a previous run are delivered
	// again. Handlers are idempotent against FileSyncState, so a crash
	// mid-job costs a redo, never a loss.
	pending, err := q.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	for _, job := range pending {
		select {
		case q.jobCh <- job.ID:
		default:
			logger.Warn("job channel full, %s redelivered on next start", job.ID)
		}
	}
	if len(pending) > 0 {
		logger.Info("Redelivering %d pending jobs", len(pending))
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	return nil
}

// Stop shuts the pool down, waiting for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()
}

// Enqueue persists a job and schedules it for execution.
func (q *Queue) Enqueue(ctx context.Context, kind domain.JobKind, payload any) (string, error) {
	q.mu.Lock()
	_, known := q.handlers[kind]
	q.mu.Unlock()
	if !known {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownJobKind, kind)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	now := time.Now()
	job := domain.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    domain.JobQueued,
		Payload:   data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("persist job: %w", err)
	}

	select {
	case q.jobCh <- job.ID:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return job.ID, nil
}

// Status returns the current job record by ID.
func (q *Queue) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	return q.store.Get(ctx, jobID)
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case jobID := <-q.jobCh:
			q.runJob(ctx, jobID)
		}
	}
}

// runJob executes one job with retries. Each attempt is recorded in the
// job record; terminal failure is reported via status, never by crashing
// the worker.
func (q *Queue) runJob(ctx context.Context, jobID string) {
	job, err := q.store.Get(ctx, jobID)
	if err != nil {
		logger.Warn("load job %s: %v", jobID, err)
		return
	}
	if job.Status.Terminal() {
		return
	}

	q.mu.Lock()
	handler, ok := q.handlers[job.Kind]
	q.mu.Unlock()
	if !ok {
		q.finish(ctx, job, fmt.Errorf("%w: %s", domain.ErrUnknownJobKind, job.Kind))
		return
	}

	job.Status = domain.JobInProgress
	q.update(ctx, job)

	policy := backoff.WithContext(q.newBackOff(), ctx)
	attempt := func() error {
		if job.Attempts >= q.maxAttempts {
			return backoff.Permanent(fmt.Errorf("attempt cap reached (%d)", q.maxAttempts))
		}
		job.Attempts++
		q.update(ctx, job)

		if err := handler(ctx, job); err != nil {
			job.Error = err.Error()
			q.update(ctx, job)
			logger.Debug("job %s attempt %d failed: %v", job.ID, job.Attempts, err)
			if job.Attempts >= q.maxAttempts {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	q.finish(ctx, job, backoff.Retry(attempt, policy))
}

func (q *Queue) finish(ctx context.Context, job *domain.Job, err error) {
	if err != nil {
		job.Status = domain.JobFailed
		job.Error = err.Error()
		logger.Warn("job %s failed after %d attempts: %v", job.ID, job.Attempts, err)
	} else {
		job.Status = domain.JobSucceeded
		job.Error = ""
	}
	q.update(ctx, job)
}

func (q *Queue) update(ctx context.Context, job *domain.Job) {
	job.UpdatedAt = time.Now()
	if err := q.store.Update(ctx, *job); err != nil {
		logger.Warn("update job %s: %v", job.ID, err)
	}
}
