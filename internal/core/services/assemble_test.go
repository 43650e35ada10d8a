package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
)

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, NoContext, AssembleContext(nil))
	assert.Equal(t, NoContext, AssembleContext([]domain.SimilarityResult{}))
}

func TestAssembleContext_ProvenanceBlocks(t *testing.T) {
	results := []domain.SimilarityResult{
		{Content: "Go is a statically typed language.", DocumentTitle: "Go Basics", Similarity: 0.91},
		{Content: "Channels carry values between goroutines.", DocumentTitle: "Concurrency", Similarity: 0.77},
	}

	got := AssembleContext(results)

	blocks := strings.Split(got, "\n\n---\n\n")
	assert.Equal(t, []string{
		"[Source 1: Go Basics]\nGo is a statically typed language.",
		"[Source 2: Concurrency]\nChannels carry values between goroutines.",
	}, blocks)
}

func TestAssembleContext_PreservesInputOrder(t *testing.T) {
	// The assembler formats only; it must not reorder what the store ranked.
	results := []domain.SimilarityResult{
		{Content: "b", DocumentTitle: "B", Similarity: 0.2},
		{Content: "a", DocumentTitle: "A", Similarity: 0.9},
	}

	got := AssembleContext(results)
	assert.True(t, strings.Index(got, "[Source 1: B]") < strings.Index(got, "[Source 2: A]"))
}
