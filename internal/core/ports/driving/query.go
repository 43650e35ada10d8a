package driving

import (
	"context"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
)

// QueryService retrieves grounding context for a chat question.
type QueryService interface {
	// Context embeds the query, searches the vector store and assembles the
	// top results into a provenance-tagged prompt block. Embedding or store
	// failures degrade to the services.NoContext sentinel with a nil error;
	// the caller still answers, just without grounding.
	Context(ctx context.Context, query string) (string, []domain.SimilarityResult, error)
}
