package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown connector provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrUnsupportedDocType indicates a document type with no loader.
	ErrUnsupportedDocType = errors.New("unsupported document type")

	// ErrAuthRequired indicates the connector requires authentication
	// but no credentials are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrConnectorValidation indicates connector instantiation failed.
	// The config is malformed or credentials are unusable.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrIndexUnavailable indicates no vector index is loaded and a lazy
	// load failed. Create or load a store first.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrModelMismatch indicates a persisted index was built with a
	// different embedding model than the one configured. Loading it
	// would silently corrupt similarity geometry, so it fails closed.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM provider is not configured or
	// unreachable.
	ErrLLMUnavailable = errors.New("llm service unavailable")

	// ErrUnknownJobKind indicates a queued job has no registered handler.
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrQueueClosed indicates the task queue is not accepting jobs.
	ErrQueueClosed = errors.New("task queue closed")
)
