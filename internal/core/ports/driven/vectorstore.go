package driven

import (
	"context"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
)

// VectorStore persists documents and their embedded chunks and executes
// nearest-neighbour similarity search. Implementations are interchangeable
// behind this contract: the SQLite store scans embeddings brute-force, the
// Postgres store delegates to a pgvector HNSW index. Connectivity loss is
// reported as domain.ErrStoreUnavailable.
type VectorStore interface {
	// SaveDocument inserts doc and assigns its ID, or updates it when the ID
	// is already set. Returns domain.ErrAlreadyExists on a slug collision.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// GetDocumentBySlug retrieves a document by its unique slug.
	GetDocumentBySlug(ctx context.Context, slug string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document; its chunks are deleted with it.
	DeleteDocument(ctx context.Context, id int64) error

	// DeleteDocumentChunks removes all chunks of a document, e.g. before
	// re-ingesting changed content.
	DeleteDocumentChunks(ctx context.Context, documentID int64) error

	// PutChunk upserts a chunk at (documentID, chunkIndex). Returns
	// domain.ErrConstraintViolation when documentID references no document.
	PutChunk(ctx context.Context, documentID int64, content string, embedding []float32, chunkIndex int) (domain.Chunk, error)

	// Search returns up to k results ordered by descending similarity,
	// where similarity is 1 − cosineDistance(chunk, query). Ties are broken
	// by insertion order. Chunks without an embedding are never returned.
	Search(ctx context.Context, query []float32, k int) ([]domain.SimilarityResult, error)

	// ChunksMissingEmbedding returns chunks stored without an embedding,
	// in insertion order.
	ChunksMissingEmbedding(ctx context.Context) ([]domain.Chunk, error)

	// UpdateChunkEmbedding replaces a chunk's embedding wholesale.
	UpdateChunkEmbedding(ctx context.Context, id int64, embedding []float32) error

	// DocumentsMissingEmbedding returns documents with zero chunks: exactly
	// the set the ingestion orchestrator still has to process.
	DocumentsMissingEmbedding(ctx context.Context) ([]domain.Document, error)

	// Close releases the underlying connection.
	Close() error
}
