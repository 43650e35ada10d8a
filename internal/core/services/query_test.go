package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
)

func TestQueryService_Context(t *testing.T) {
	store := newMockVectorStore()
	store.searchResults = []domain.SimilarityResult{
		{Content: "relevant passage", DocumentTitle: "Doc A", Similarity: 0.88},
	}
	embedder := &mockEmbeddingService{}

	svc := NewQueryService(store, embedder)
	got, results, err := svc.Context(context.Background(), "what is a goroutine?")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, got, "[Source 1: Doc A]")
	assert.Contains(t, got, "relevant passage")
	assert.Equal(t, 1, embedder.callCount())
}

func TestQueryService_TopKPassedToStore(t *testing.T) {
	store := newMockVectorStore()
	store.searchResults = []domain.SimilarityResult{
		{Content: "one", DocumentTitle: "A", Similarity: 0.9},
		{Content: "two", DocumentTitle: "B", Similarity: 0.8},
		{Content: "three", DocumentTitle: "C", Similarity: 0.7},
	}

	svc := NewQueryService(store, &mockEmbeddingService{}, WithTopK(2))
	_, results, err := svc.Context(context.Background(), "anything")

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQueryService_EmptyQuery(t *testing.T) {
	svc := NewQueryService(newMockVectorStore(), &mockEmbeddingService{})

	got, results, err := svc.Context(context.Background(), "   ")

	require.NoError(t, err)
	assert.Equal(t, NoContext, got)
	assert.Nil(t, results)
}

func TestQueryService_DegradesWithoutEmbedder(t *testing.T) {
	// Missing credentials are a soft failure at query time.
	svc := NewQueryService(newMockVectorStore(), nil)

	got, _, err := svc.Context(context.Background(), "question")

	require.NoError(t, err)
	assert.Equal(t, NoContext, got)
}

func TestQueryService_DegradesOnEmbedFailure(t *testing.T) {
	embedder := &mockEmbeddingService{embedErr: domain.ErrEmbeddingUnavailable}
	svc := NewQueryService(newMockVectorStore(), embedder)

	got, _, err := svc.Context(context.Background(), "question")

	require.NoError(t, err)
	assert.Equal(t, NoContext, got)
}

func TestQueryService_DegradesOnStoreFailure(t *testing.T) {
	store := newMockVectorStore()
	store.searchErr = errors.New("connection refused")
	svc := NewQueryService(store, &mockEmbeddingService{})

	got, _, err := svc.Context(context.Background(), "question")

	require.NoError(t, err)
	assert.Equal(t, NoContext, got)
}

func TestQueryService_NoResultsYieldsSentinel(t *testing.T) {
	svc := NewQueryService(newMockVectorStore(), &mockEmbeddingService{})

	got, results, err := svc.Context(context.Background(), "question")

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, NoContext, got)
}
