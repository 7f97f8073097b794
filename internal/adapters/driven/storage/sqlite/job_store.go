package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const jobColumns = "id, kind, status, attempts, payload, error, note, created_at, updated_at"

// Create inserts a new job record.
func (s *jobStore) Create(ctx context.Context, job domain.Job) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, status, attempts, payload, error, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, string(job.Kind), string(job.Status), job.Attempts,
		nullString(string(job.Payload)), nullString(job.Error), nullString(job.Note),
		formatNullableTime(job.CreatedAt), formatNullableTime(job.UpdatedAt))

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

// Update replaces a job record.
func (s *jobStore) Update(ctx context.Context, job domain.Job) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET kind = ?, status = ?, attempts = ?, payload = ?,
			error = ?, note = ?, updated_at = ?
		WHERE id = ?
	`, string(job.Kind), string(job.Status), job.Attempts,
		nullString(string(job.Payload)), nullString(job.Error), nullString(job.Note),
		formatNullableTime(job.UpdatedAt), job.ID)

	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)

	job, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListPending returns non-terminal jobs, oldest first.
func (s *jobStore) ListPending(ctx context.Context) ([]domain.Job, error) {
	return s.list(ctx, "SELECT "+jobColumns+` FROM jobs
		WHERE status IN (?, ?) ORDER BY created_at`,
		string(domain.JobQueued), string(domain.JobInProgress))
}

// ListRecent returns the most recent jobs, newest first.
func (s *jobStore) ListRecent(ctx context.Context, limit int) ([]domain.Job, error) {
	return s.list(ctx, "SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC LIMIT ?", limit)
}

func (s *jobStore) list(ctx context.Context, query string, args ...any) ([]domain.Job, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	return jobs, nil
}

// scanJob scans one job row via the given Scan function.
func scanJob(scan func(...any) error) (*domain.Job, error) {
	var job domain.Job
	var kind, status string
	var payload, errMsg, note sql.NullString
	var createdAt, updatedAt sql.NullString

	if err := scan(&job.ID, &kind, &status, &job.Attempts,
		&payload, &errMsg, &note, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	if payload.Valid {
		job.Payload = json.RawMessage(payload.String)
	}
	job.Error = errMsg.String
	job.Note = note.String
	job.CreatedAt = parseNullableTime(createdAt)
	job.UpdatedAt = parseNullableTime(updatedAt)

	return &job, nil
}
