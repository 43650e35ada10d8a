package services

import (
	"context"
	"strings"
	"time"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 5

// DefaultQueryTimeout bounds the embed-and-search round trip so a slow
// provider cannot hang a request handler.
const DefaultQueryTimeout = 15 * time.Second

// QueryService runs the retrieval pipeline: embed the query, search the
// vector store, assemble the top results into a context block.
type QueryService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	topK     int
	timeout  time.Duration
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithTopK sets the number of passages retrieved per query.
func WithTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithQueryTimeout sets the per-request pipeline timeout.
func WithQueryTimeout(d time.Duration) QueryOption {
	return func(s *QueryService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewQueryService creates a new query service. The embedder may be nil when
// no provider is configured; every query then degrades to NoContext.
func NewQueryService(store driven.VectorStore, embedder driven.EmbeddingService, opts ...QueryOption) *QueryService {
	s := &QueryService{
		store:    store,
		embedder: embedder,
		topK:     DefaultTopK,
		timeout:  DefaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Context retrieves grounding passages for query and formats them for the
// answering model. Retrieval failures are logged and degrade to the
// NoContext sentinel with a nil error: the chat endpoint must still answer,
// just without grounding.
func (s *QueryService) Context(ctx context.Context, query string) (string, []domain.SimilarityResult, error) {
	logger.Section("Query Pipeline")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, no context")
		return NoContext, nil, nil
	}

	if s.embedder == nil {
		// Missing provider configuration is a soft failure at query time.
		logger.Warn("No embedding provider configured, answering without context")
		return NoContext, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Debug("Embedding query (%d chars)", len(query))
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("Query embedding failed, answering without context: %v", err)
		return NoContext, nil, nil
	}

	logger.Debug("Searching top %d of corpus", s.topK)
	results, err := s.store.Search(ctx, embedding, s.topK)
	if err != nil {
		logger.Error("Similarity search failed, answering without context: %v", err)
		return NoContext, nil, nil
	}

	logger.Info("Retrieved %d passages", len(results))
	return AssembleContext(results), results, nil
}
