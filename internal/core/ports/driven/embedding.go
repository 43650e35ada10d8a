package driven

import "context"

// EmbeddingService generates vector embeddings from text. Every call is
// blocking, potentially slow and potentially failing I/O; callers must pass
// a context and be prepared for per-call failure.
//
// Implementations map transport failures onto the domain taxonomy:
// unreachable or unauthenticated providers return
// domain.ErrEmbeddingUnavailable, invalid input (e.g. empty text) returns
// domain.ErrEmbeddingRejected.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Providers without
	// a batch API fall back to one call per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size. It must equal
	// domain.EmbeddingDimensions for the stores in this repository.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	// Used at startup before committing to semantic retrieval.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
