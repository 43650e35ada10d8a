// Package sqlite provides a SQLite-backed vector store. Similarity search is
// a brute-force cosine scan over the embedding column, which is the
// small-corpus fallback behind the same contract the Postgres/pgvector store
// implements with an ANN index.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.VectorStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.kbase/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kbase", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// WAL mode for better concurrency under parallel request handlers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Chunk cascade deletion depends on foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// SaveDocument inserts doc and assigns its ID, or updates it when the ID is
// already set.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.ID == 0 {
		doc.CreatedAt = now
		doc.UpdatedAt = now

		row := s.db.QueryRowContext(ctx, `
			INSERT INTO documents (title, content, slug, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`, doc.Title, doc.Content, doc.Slug, doc.CreatedAt, doc.UpdatedAt)
		if err := row.Scan(&doc.ID); err != nil {
			return mapWriteError("saving document", err)
		}
		return nil
	}

	doc.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET title = ?, content = ?, slug = ?, updated_at = ?
		WHERE id = ?
	`, doc.Title, doc.Content, doc.Slug, doc.UpdatedAt, doc.ID)
	if err != nil {
		return mapWriteError("updating document", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, slug, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetDocumentBySlug retrieves a document by its unique slug.
func (s *Store) GetDocumentBySlug(ctx context.Context, slug string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, slug, created_at, updated_at
		FROM documents WHERE slug = ?
	`, slug)
	return scanDocument(row)
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, slug, created_at, updated_at
		FROM documents ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, storeErr("querying documents", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// DeleteDocument removes a document; chunks cascade via the foreign key.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return storeErr("deleting document", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocumentChunks removes all chunks of a document.
func (s *Store) DeleteDocumentChunks(ctx context.Context, documentID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM document_chunks WHERE document_id = ?", documentID)
	if err != nil {
		return storeErr("deleting document chunks", err)
	}
	return nil
}

// ==================== Chunks ====================

// PutChunk upserts a chunk at (documentID, chunkIndex).
func (s *Store) PutChunk(ctx context.Context, documentID int64, content string, embedding []float32, chunkIndex int) (domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO document_chunks (document_id, content, embedding, chunk_index, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_index) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding
		RETURNING id, created_at
	`, documentID, content, float32SliceToBytes(embedding), chunkIndex, time.Now().UTC())

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

// UpdateChunkEmbedding replaces a chunk's embedding wholesale.
func (s *Store) UpdateChunkEmbedding(ctx context.Context, id int64, embedding []float32) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE document_chunks SET embedding = ? WHERE id = ?
	`, float32SliceToBytes(embedding), id)
	if err != nil {
		return storeErr("updating chunk embedding", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ChunksMissingEmbedding returns chunks stored without an embedding, in
// insertion order.
func (s *Store) ChunksMissingEmbedding(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
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

// DocumentsMissingEmbedding returns documents with zero chunks.
func (s *Store) DocumentsMissingEmbedding(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
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

// scoredRow holds one candidate before ranking.
type scoredRow struct {
	result domain.SimilarityResult
}

// Search scans every embedded chunk, scores it against the query vector and
// returns the top k by descending similarity. Ties keep insertion order:
// candidates are read ordered by chunk ID and sorted stably.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.SimilarityResult, error) {
	if k <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT dc.content, d.title, dc.embedding
		FROM document_chunks dc
		JOIN documents d ON dc.document_id = d.id
		WHERE dc.embedding IS NOT NULL
		ORDER BY dc.id
	`)
	if err != nil {
		return nil, storeErr("querying chunks", err)
	}
	defer rows.Close()

	var candidates []scoredRow
	for rows.Next() {
		var content, title string
		var blob []byte
		if err := rows.Scan(&content, &title, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		candidates = append(candidates, scoredRow{result: domain.SimilarityResult{
			Content:       content,
			DocumentTitle: title,
			Similarity:    cosineSimilarity(query, bytesToFloat32Slice(blob)),
		}})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating chunks", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].result.Similarity > candidates[j].result.Similarity
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]domain.SimilarityResult, len(candidates))
	for i, c := range candidates {
		results[i] = c.result
	}
	return results, nil
}

// cosineSimilarity computes 1 − cosineDistance. Mismatched or zero vectors
// score 0 rather than erroring a whole search.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ==================== Helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
// Nil input stays nil so an absent embedding maps to SQL NULL.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Slug,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// collectDocuments drains a documents result set.
func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
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

// mapWriteError translates SQLite constraint failures onto the domain
// taxonomy; everything else is treated as a store failure.
func mapWriteError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: %w", op, domain.ErrConstraintViolation)
	case strings.Contains(msg, "UNIQUE constraint failed: documents.slug"):
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	default:
		return storeErr(op, err)
	}
}

// storeErr classifies an infrastructure failure as store unavailability.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
