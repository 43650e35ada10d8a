package driving

import (
	"context"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
)

// DocumentService manages corpus documents. This is thin plumbing around
// the store; the retrieval pipeline only depends on it for re-ingestion
// after content changes.
type DocumentService interface {
	// Add stores a new document. An empty slug is derived from the title.
	Add(ctx context.Context, title, slug, content string) (*domain.Document, error)

	// Update replaces a document's content and drops its chunks so the next
	// ingestion run re-indexes it.
	Update(ctx context.Context, id int64, title, content string) (*domain.Document, error)

	// Get retrieves a document by slug.
	Get(ctx context.Context, slug string) (*domain.Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document and, by cascade, its chunks.
	Delete(ctx context.Context, id int64) error
}
