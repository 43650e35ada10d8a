package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists, e.g. a duplicate
	// document slug.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding provider is
	// unreachable or the request was not authenticated.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingRejected indicates the provider refused the input itself,
	// e.g. an empty text.
	ErrEmbeddingRejected = errors.New("embedding input rejected")

	// ErrStoreUnavailable indicates the vector store lost connectivity.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrConstraintViolation indicates a write referenced a missing parent
	// row, e.g. a chunk whose document does not exist.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrRateLimitExceeded indicates the client exhausted its request
	// window. This failure is always surfaced to the caller, never degraded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrConfigurationMissing indicates required configuration (typically
	// provider credentials) is absent. Fatal at ingestion entry, soft at
	// query time.
	ErrConfigurationMissing = errors.New("configuration missing")
)
