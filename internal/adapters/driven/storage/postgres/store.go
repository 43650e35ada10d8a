// Package postgres provides a pgvector-backed vector store. Similarity
// search runs inside the database through an HNSW cosine index, so it scales
// past the brute-force scan the SQLite store uses.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Postgres error codes for constraint failures.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store is a PostgreSQL implementation of driven.VectorStore backed by the
// pgvector extension.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres using dsn and bootstraps the schema. The
// target database must allow CREATE EXTENSION vector.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn", domain.ErrConfigurationMissing)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// bootstrap creates the extension, tables and indexes if absent.
func (s *Store) bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			embedding vector(%d),
			chunk_index INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (document_id, chunk_index)
		)`, domain.EmbeddingDimensions),
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id
			ON document_chunks (document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding
			ON document_chunks USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Documents ====================

func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.ID == 0 {
		doc.CreatedAt = now
		doc.UpdatedAt = now
		row := s.pool.QueryRow(ctx, `
			INSERT INTO documents (title, content, slug, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, doc.Title, doc.Content, doc.Slug, doc.CreatedAt, doc.UpdatedAt)
		if err := row.Scan(&doc.ID); err != nil {
			return mapWriteError("saving document", err)
		}
		return nil
	}

	doc.UpdatedAt = now
	_, err := s.pool.Exec(ctx, `
		UPDATE documents SET title = $1, content = $2, slug = $3, updated_at = $4
		WHERE id = $5
	`, doc.Title, doc.Content, doc.Slug, doc.UpdatedAt, doc.ID)
	if err != nil {
		return mapWriteError("updating document", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, content, slug, created_at, updated_at
		FROM documents WHERE id = $1
	`, id)
	return scanDocument(row)
}

func (s *Store) GetDocumentBySlug(ctx context.Context, slug string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, content, slug, created_at, updated_at
		FROM documents WHERE slug = $1
	`, slug)
	return scanDocument(row)
}

func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, content, slug, created_at, updated_at
		FROM documents ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, storeErr("querying documents", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return storeErr("deleting document", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDocumentChunks(ctx context.Context, documentID int64) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM document_chunks WHERE document_id = $1", documentID)
	if err != nil {
		return storeErr("deleting document chunks", err)
	}
	return nil
}

// ==================== Chunks ====================

func (s *Store) PutChunk(ctx context.Context, documentID int64, content string, embedding []float32, chunkIndex int) (domain.Chunk, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO document_chunks (document_id, content, embedding, chunk_index)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, chunk_index) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
		RETURNING id, created_at
	`, documentID, content, toVector(embedding), chunkIndex)

	chunk := domain.Chunk{
		DocumentID: documentID,
		Content:    content,
		Embedding:  embedding,
		ChunkIndex: chunkIndex,
	}
	if err := row.Scan(&chunk.ID, &chunk.CreatedAt); err != nil {
		return domain.Chunk{}, mapWriteError("saving chunk", err)
	}
	return chunk, nil
}

func (s *Store) UpdateChunkEmbedding(ctx context.Context, id int64, embedding []float32) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE document_chunks SET embedding = $1 WHERE id = $2
	`, toVector(embedding), id)
	if err != nil {
		return storeErr("updating chunk embedding", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ChunksMissingEmbedding(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, content, chunk_index, created_at
		FROM document_chunks WHERE embedding IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, storeErr("querying pending chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&chunk.ChunkIndex, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating pending chunks", err)
	}
	return chunks, nil
}

func (s *Store) DocumentsMissingEmbedding(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.title, d.content, d.slug, d.created_at, d.updated_at
		FROM documents d
		LEFT JOIN document_chunks dc ON d.id = dc.document_id
		WHERE dc.id IS NULL
		ORDER BY d.id
	`)
	if err != nil {
		return nil, storeErr("querying pending documents", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ==================== Similarity search ====================

// Search delegates ranking to pgvector: cosine distance ascending equals
// similarity descending, and the chunk ID tiebreak keeps insertion order
// for equal distances.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.SimilarityResult, error) {
	if k <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT dc.content, d.title, 1 - (dc.embedding <=> $1) AS similarity
		FROM document_chunks dc
		JOIN documents d ON dc.document_id = d.id
		WHERE dc.embedding IS NOT NULL
		ORDER BY dc.embedding <=> $1, dc.id
		LIMIT $2
	`, pgvector.NewVector(query), k)
	if err != nil {
		return nil, storeErr("querying chunks", err)
	}
	defer rows.Close()

	results := []domain.SimilarityResult{}
	for rows.Next() {
		var r domain.SimilarityResult
		if err := rows.Scan(&r.Content, &r.DocumentTitle, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating results", err)
	}
	return results, nil
}

// ==================== Helpers ====================

// toVector wraps an embedding for pgvector encoding, preserving NULL for
// chunks stored without one.
func toVector(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Slug,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

func collectDocuments(rows pgx.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Slug,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating documents", err)
	}
	return docs, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrConstraintViolation)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
		}
	}
	return storeErr(op, err)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
