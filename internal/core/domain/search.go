package domain

// SimilarityResult is one retrieved passage for a query. It is ephemeral and
// query-scoped, never persisted.
type SimilarityResult struct {
	// Content is the matched chunk text.
	Content string

	// DocumentTitle is the title of the chunk's parent document, carried so
	// the assembled context can attribute each passage to its source.
	DocumentTitle string

	// Similarity is 1 − cosineDistance(chunk, query), in [-1, 1].
	// Higher means more relevant.
	Similarity float64
}
