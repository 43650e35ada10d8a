package driving

import "context"

// ChunkFailure records a single chunk that could not be embedded or stored
// during an ingestion run. Failures never abort the run.
type ChunkFailure struct {
	DocumentID int64
	ChunkIndex int
	Err        string
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	// DocumentsProcessed counts documents that were chunked this run.
	DocumentsProcessed int

	// ChunksCreated counts chunks stored with an embedding.
	ChunksCreated int

	// Failures lists chunks that were recorded and skipped.
	Failures []ChunkFailure
}

// IngestOrchestrator drives chunking and embedding for every document that
// is not yet indexed.
type IngestOrchestrator interface {
	// IngestPending processes all documents with zero chunks and backfills
	// embeddings for chunks stored without one. Best-effort per chunk.
	// Returns domain.ErrConfigurationMissing before touching any document
	// when no embedding provider is configured.
	IngestPending(ctx context.Context) (IngestReport, error)
}
