package domain

import (
	"encoding/json"
	"time"
)

// JobKind identifies what a queued job does.
type JobKind string

const (
	// JobKindDownload downloads one remote file and processes it.
	JobKindDownload JobKind = "download"

	// JobKindIngest processes one locally uploaded file.
	JobKindIngest JobKind = "ingest"
)

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobInProgress JobStatus = "in_progress"
	JobSucceeded  JobStatus = "succeeded"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is a durable task-queue record. Delivery is at-least-once; job
// outcomes must be idempotent against FileSyncState.
type Job struct {
	// ID is the queue-assigned job identifier.
	ID string

	// Kind selects the registered handler.
	Kind JobKind

	// Status is the current lifecycle state.
	Status JobStatus

	// Attempts counts handler invocations so far.
	Attempts int

	// Payload is the kind-specific message body.
	Payload json.RawMessage

	// Error holds the last handler error, if any.
	Error string

	// Note is a free-form progress string for status reporting.
	Note string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DownloadJob is the payload for JobKindDownload. It carries a snapshot
// of the connector config so the worker can re-instantiate the connector
// without re-reading the store mid-cycle.
type DownloadJob struct {
	ConnectorID string          `json:"connector_id"`
	Config      ConnectorConfig `json:"config"`
	File        FileMetadata    `json:"file"`
}

// IngestJob is the payload for JobKindIngest, produced by the upload
// entry point.
type IngestJob struct {
	FilePath         string `json:"file_path"`
	EmbeddingType    string `json:"embedding_type"`
	ChunkingStrategy string `json:"chunking_strategy"`
}
