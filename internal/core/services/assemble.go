package services

import (
	"fmt"
	"strings"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
)

// NoContext is the sentinel returned when retrieval produced no grounding
// passages. Callers detect it by equality and phrase their own user-facing
// message; it is never meant to be shown verbatim.
const NoContext = "[[no-relevant-documents]]"

// contextSeparator joins source blocks so the answering model can tell
// passages apart.
const contextSeparator = "\n\n---\n\n"

// AssembleContext formats retrieved passages into a provenance-tagged block
// for the answering model. Results are rendered in input order, which the
// vector store already guarantees is similarity-descending; this function
// performs no ranking of its own.
func AssembleContext(results []domain.SimilarityResult) string {
	if len(results) == 0 {
		return NoContext
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, r.DocumentTitle, r.Content)
	}

	return strings.Join(blocks, contextSeparator)
}
