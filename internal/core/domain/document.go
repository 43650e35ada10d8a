package domain

import (
	"regexp"
	"strings"
	"time"
)

// EmbeddingDimensions is the vector size produced by the embedding models
// this system supports. The storage schema and every adapter must agree on
// this value.
const EmbeddingDimensions = 768

// Document is a corpus entry owned by the relational store.
// Deleting a document cascades deletion of its chunks.
type Document struct {
	// ID is the store-assigned identity.
	ID int64

	// Title is the human-readable title.
	Title string

	// Content is the full document text.
	Content string

	// Slug is the unique human-readable key.
	Slug string

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Chunk is a bounded excerpt of a document, independently embeddable and
// retrievable. Chunk indices within one document are contiguous from 0 and
// follow original text order.
type Chunk struct {
	// ID is the store-assigned identity.
	ID int64

	// DocumentID links to the owning Document.
	DocumentID int64

	// Content is the chunk text, a substring of the document.
	Content string

	// Embedding is the vector representation. Nil until embedded; once set
	// it is only ever replaced wholesale.
	Embedding []float32

	// ChunkIndex is the zero-based position within the document.
	ChunkIndex int

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a well-formed document slug:
// lowercase alphanumerics separated by single hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from a title. Returns an empty string when the
// title contains no usable characters; callers must treat that as invalid.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
