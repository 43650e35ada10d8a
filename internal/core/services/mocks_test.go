package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorStore is a small in-memory store for service tests.
type mockVectorStore struct {
	mu      sync.Mutex
	nextDoc int64
	nextChk int64
	docs    map[int64]*domain.Document
	chunks  []domain.Chunk

	saveErr   error
	putErr    error
	searchErr error
	listErr   error

	// searchResults, when set, are returned by Search instead of scanning.
	searchResults []domain.SimilarityResult
}

var _ driven.VectorStore = (*mockVectorStore)(nil)

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{docs: make(map[int64]*domain.Document)}
}

func (m *mockVectorStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == 0 {
		for _, d := range m.docs {
			if d.Slug == doc.Slug {
				return domain.ErrAlreadyExists
			}
		}
		m.nextDoc++
		doc.ID = m.nextDoc
		doc.CreatedAt = time.Now()
	}
	doc.UpdatedAt = time.Now()
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *mockVectorStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *mockVectorStore) GetDocumentBySlug(_ context.Context, slug string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.Slug == slug {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockVectorStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockVectorStore) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	m.deleteChunksLocked(id)
	return nil
}

func (m *mockVectorStore) DeleteDocumentChunks(_ context.Context, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteChunksLocked(documentID)
	return nil
}

func (m *mockVectorStore) deleteChunksLocked(documentID int64) {
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
}

func (m *mockVectorStore) PutChunk(_ context.Context, documentID int64, content string, embedding []float32, chunkIndex int) (domain.Chunk, error) {
	if m.putErr != nil {
		return domain.Chunk{}, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[documentID]; !ok {
		return domain.Chunk{}, domain.ErrConstraintViolation
	}
	m.nextChk++
	chunk := domain.Chunk{
		ID:         m.nextChk,
		DocumentID: documentID,
		Content:    content,
		Embedding:  embedding,
		ChunkIndex: chunkIndex,
		CreatedAt:  time.Now(),
	}
	m.chunks = append(m.chunks, chunk)
	return chunk, nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, k int) ([]domain.SimilarityResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.searchResults) {
		return m.searchResults, nil
	}
	return m.searchResults[:k], nil
}

func (m *mockVectorStore) ChunksMissingEmbedding(_ context.Context) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.Embedding == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockVectorStore) UpdateChunkEmbedding(_ context.Context, id int64, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.chunks {
		if m.chunks[i].ID == id {
			m.chunks[i].Embedding = embedding
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockVectorStore) DocumentsMissingEmbedding(_ context.Context) ([]domain.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	chunked := make(map[int64]bool)
	for _, c := range m.chunks {
		chunked[c.DocumentID] = true
	}
	var out []domain.Document
	for _, doc := range m.docs {
		if !chunked[doc.ID] {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedding []float32
	embedErr  error
	calls     int

	// failTexts contains inputs that fail with embedErr while others succeed.
	failTexts map[string]bool
}

var _ driven.EmbeddingService = (*mockEmbeddingService)(nil)

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failTexts != nil && m.failTexts[text] {
		return nil, m.embedErr
	}
	if m.failTexts == nil && m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedding != nil {
		return m.embedding, nil
	}
	return make([]float32, domain.EmbeddingDimensions), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		e, err := m.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return domain.EmbeddingDimensions }
func (m *mockEmbeddingService) ModelName() string            { return "stub-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
