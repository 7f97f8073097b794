package taskqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/adapters/driven/storage/memory"
	"github.com/driftline/docsync/internal/core/domain"
)

const testKind domain.JobKind = "test"

// newTestQueue builds a queue with no retry waits.
func newTestQueue(store *memory.JobStore, opts ...Option) *Queue {
	opts = append([]Option{
		WithWorkers(2),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}, opts...)
	return New(store, opts...)
}

func waitForTerminal(t *testing.T, q *Queue, jobID string) *domain.Job {
	t.Helper()
	var job *domain.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = q.Status(context.Background(), jobID)
		return err == nil && job.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func TestQueue_SuccessfulJob(t *testing.T) {
	store := memory.NewJobStore()
	q := newTestQueue(store)

	var handled atomic.Int32
	q.RegisterHandler(testKind, func(_ context.Context, _ *domain.Job) error {
		handled.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx))
	defer q.Stop()

	jobID, err := q.Enqueue(ctx, testKind, map[string]string{"k": "v"})
	require.NoError(t, err)

	job := waitForTerminal(t, q, jobID)
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Empty(t, job.Error)
	assert.Equal(t, int32(1), handled.Load())
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := memory.NewJobStore()
	q := newTestQueue(store)

	var calls atomic.Int32
	q.RegisterHandler(testKind, func(_ context.Context, _ *domain.Job) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx))
	defer q.Stop()

	jobID, err := q.Enqueue(ctx, testKind, nil)
	require.NoError(t, err)

	job := waitForTerminal(t, q, jobID)
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Equal(t, 3, job.Attempts)
}

func TestQueue_AttemptCapMarksFailed(t *testing.T) {
	store := memory.NewJobStore()
	q := newTestQueue(store, WithMaxAttempts(3))

	var calls atomic.Int32
	q.RegisterHandler(testKind, func(_ context.Context, _ *domain.Job) error {
		calls.Add(1)
		return errors.New("permanently broken")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx))
	defer q.Stop()

	jobID, err := q.Enqueue(ctx, testKind, nil)
	require.NoError(t, err)

	job := waitForTerminal(t, q, jobID)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, 3, job.Attempts)
	assert.Contains(t, job.Error, "permanently broken")
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueue_EnqueueUnknownKind(t *testing.T) {
	q := newTestQueue(memory.NewJobStore())

	_, err := q.Enqueue(context.Background(), "mystery", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownJobKind)
}

func TestQueue_StatusUnknownJob(t *testing.T) {
	q := newTestQueue(memory.NewJobStore())

	_, err := q.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueue_RedeliversPendingOnStart(t *testing.T) {
	store := memory.NewJobStore()
	ctx := context.Background()

	// A job left in progress by a previous run.
	require.NoError(t, store.Create(ctx, domain.Job{
		ID:        "stale-1",
		Kind:      testKind,
		Status:    domain.JobInProgress,
		Payload:   []byte(`{}`),
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	q := newTestQueue(store)
	var handled atomic.Int32
	q.RegisterHandler(testKind, func(_ context.Context, _ *domain.Job) error {
		handled.Add(1)
		return nil
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	require.NoError(t, q.Start(runCtx))
	defer q.Stop()

	job := waitForTerminal(t, q, "stale-1")
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Equal(t, int32(1), handled.Load())
}

func TestQueue_StopWaitsForInflight(t *testing.T) {
	store := memory.NewJobStore()
	q := newTestQueue(store)

	release := make(chan struct{})
	started := make(chan struct{})
	q.RegisterHandler(testKind, func(_ context.Context, _ *domain.Job) error {
		close(started)
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx))

	jobID, err := q.Enqueue(ctx, testKind, nil)
	require.NoError(t, err)

	<-started
	close(release)
	q.Stop()

	job, err := q.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobSucceeded, job.Status)
}

func TestQueue_ParallelJobs(t *testing.T) {
	store := memory.NewJobStore()
	q := newTestQueue(store, WithWorkers(4))

	var handled atomic.Int32
	q.RegisterHandler(testKind, func(_ context.Context, _ *domain.Job) error {
		handled.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx))
	defer q.Stop()

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id, err := q.Enqueue(ctx, testKind, map[string]int{"n": i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for _, id := range ids {
		job := waitForTerminal(t, q, id)
		assert.Equal(t, domain.JobSucceeded, job.Status)
	}
	assert.Equal(t, int32(20), handled.Load())
}
