package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides document management on top of the vector store.
type DocumentService struct {
	store driven.VectorStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.VectorStore) *DocumentService {
	return &DocumentService{store: store}
}

// Add stores a new document. When slug is empty it is derived from the
// title. The document becomes searchable after the next ingestion run.
func (s *DocumentService) Add(ctx context.Context, title, slug, content string) (*domain.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("add document: %w: empty title", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("add document: %w: empty content", domain.ErrInvalidInput)
	}

	if slug == "" {
		slug = domain.Slugify(title)
	}
	if !domain.ValidSlug(slug) {
		return nil, fmt.Errorf("add document: %w: bad slug %q", domain.ErrInvalidInput, slug)
	}

	doc := &domain.Document{
		Title:   title,
		Content: content,
		Slug:    slug,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}

	logger.Info("Added document %d (%s)", doc.ID, doc.Slug)
	return doc, nil
}

// Update replaces a document's title and content and drops its chunks so
// the next ingestion run re-indexes it from scratch.
func (s *DocumentService) Update(ctx context.Context, id int64, title, content string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if title != "" {
		doc.Title = title
	}
	if content != "" {
		doc.Content = content
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := s.store.DeleteDocumentChunks(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("drop stale chunks: %w", err)
	}

	logger.Info("Updated document %d, chunks dropped for re-ingestion", doc.ID)
	return doc, nil
}

// Get retrieves a document by slug.
func (s *DocumentService) Get(ctx context.Context, slug string) (*domain.Document, error) {
	doc, err := s.store.GetDocumentBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document. Its chunks go with it by cascade.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Info("Deleted document %d", id)
	return nil
}
