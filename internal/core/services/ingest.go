package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/chunker"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// DefaultEmbedRate caps embedding requests per second during ingestion so
// provider quotas are not exhausted by large corpora.
const DefaultEmbedRate = 10.0

// IngestOrchestrator drives Chunker → EmbeddingService → VectorStore for
// every document lacking embeddings. Ingestion is best-effort per chunk:
// one chunk's failure is recorded and the rest of the document, and the rest
// of the batch, continue.
type IngestOrchestrator struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	splitter *chunker.Chunker
	throttle *rate.Limiter
}

// IngestOption configures the orchestrator.
type IngestOption func(*IngestOrchestrator)

// WithEmbedRate sets the sustained embedding calls per second.
func WithEmbedRate(perSecond float64) IngestOption {
	return func(o *IngestOrchestrator) {
		if perSecond > 0 {
			o.throttle = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithChunker replaces the default chunker configuration.
func WithChunker(c *chunker.Chunker) IngestOption {
	return func(o *IngestOrchestrator) {
		if c != nil {
			o.splitter = c
		}
	}
}

// NewIngestOrchestrator creates a new ingestion orchestrator.
func NewIngestOrchestrator(store driven.VectorStore, embedder driven.EmbeddingService, opts ...IngestOption) *IngestOrchestrator {
	o := &IngestOrchestrator{
		store:    store,
		embedder: embedder,
		splitter: chunker.New(),
		throttle: rate.NewLimiter(rate.Limit(DefaultEmbedRate), 1),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// IngestPending chunks and embeds every document with zero chunks, then
// backfills embeddings for chunks stored without one. A missing embedding
// provider aborts the run before any document is touched.
func (o *IngestOrchestrator) IngestPending(ctx context.Context) (driving.IngestReport, error) {
	report := driving.IngestReport{RunID: uuid.New().String()}

	if o.embedder == nil {
		return report, fmt.Errorf("ingest: %w: no embedding provider", domain.ErrConfigurationMissing)
	}

	logger.Section("Ingestion Run " + report.RunID)

	docs, err := o.store.DocumentsMissingEmbedding(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending documents: %w", err)
	}
	logger.Info("%d documents pending ingestion", len(docs))

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		o.ingestDocument(ctx, &docs[i], &report)
	}

	if err := o.backfillChunks(ctx, &report); err != nil {
		return report, err
	}

	logger.Info("Run %s: %d documents, %d chunks, %d failures",
		report.RunID, report.DocumentsProcessed, report.ChunksCreated, len(report.Failures))
	return report, nil
}

// ingestDocument chunks one document and stores each chunk with its
// embedding, in original order.
func (o *IngestOrchestrator) ingestDocument(ctx context.Context, doc *domain.Document, report *driving.IngestReport) {
	chunks := o.splitter.Split(doc.Content)
	logger.Debug("Document %d (%s): %d chunks", doc.ID, doc.Slug, len(chunks))
	report.DocumentsProcessed++

	for idx, content := range chunks {
		embedding, err := o.embedChunk(ctx, content)
		if err != nil {
			o.recordFailure(report, doc.ID, idx, err)
			continue
		}

		if _, err := o.store.PutChunk(ctx, doc.ID, content, embedding, idx); err != nil {
			o.recordFailure(report, doc.ID, idx, err)
			continue
		}
		report.ChunksCreated++
	}
}

// backfillChunks embeds chunks that were stored without an embedding, e.g.
// by an earlier partially failed run.
func (o *IngestOrchestrator) backfillChunks(ctx context.Context, report *driving.IngestReport) error {
	pending, err := o.store.ChunksMissingEmbedding(ctx)
	if err != nil {
		return fmt.Errorf("list pending chunks: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	logger.Info("Backfilling %d chunk embeddings", len(pending))
	for _, chunk := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		embedding, err := o.embedChunk(ctx, chunk.Content)
		if err != nil {
			o.recordFailure(report, chunk.DocumentID, chunk.ChunkIndex, err)
			continue
		}

		if err := o.store.UpdateChunkEmbedding(ctx, chunk.ID, embedding); err != nil {
			o.recordFailure(report, chunk.DocumentID, chunk.ChunkIndex, err)
			continue
		}
		report.ChunksCreated++
	}

	return nil
}

// embedChunk waits out the provider throttle, then embeds one chunk.
func (o *IngestOrchestrator) embedChunk(ctx context.Context, content string) ([]float32, error) {
	if err := o.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return o.embedder.Embed(ctx, content)
}

func (o *IngestOrchestrator) recordFailure(report *driving.IngestReport, docID int64, idx int, err error) {
	logger.Warn("Chunk %d of document %d skipped: %v", idx, docID, err)
	report.Failures = append(report.Failures, driving.ChunkFailure{
		DocumentID: docID,
		ChunkIndex: idx,
		Err:        err.Error(),
	})
}
