// Package chunker splits document text into bounded, sentence-aligned
// passages ready for embedding.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxChunkSize is the default chunk size budget in bytes.
const DefaultMaxChunkSize = 500

// DefaultMinChunkLen is the trimmed length at or below which a chunk is
// discarded as too small to carry standalone meaning.
const DefaultMinChunkLen = 50

// Chunker accumulates whole sentences into chunks of bounded size.
// It is a pure function of its input: identical text and configuration
// always produce the identical ordered sequence of chunks.
type Chunker struct {
	maxChunkSize int
	minChunkLen  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChunkSize sets the chunk size budget in bytes.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxChunkSize = size
		}
	}
}

// WithMinChunkLen sets the minimum trimmed chunk length filter.
func WithMinChunkLen(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minChunkLen = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChunkSize: DefaultMaxChunkSize,
		minChunkLen:  DefaultMinChunkLen,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Split chunks text into sentence-aligned passages. Sentences are greedily
// packed while the joined length stays within the size budget; a sentence
// that does not fit starts the next chunk. A single sentence longer than the
// budget is emitted whole rather than cut mid-sentence. Chunks whose trimmed
// length is at or below the minimum are dropped, so very short documents can
// legitimately produce zero chunks.
func (c *Chunker) Split(text string) []string {
	sentences := splitSentences(text)

	var chunks []string
	var current string

	for _, sentence := range sentences {
		if len(current)+1+len(sentence) <= c.maxChunkSize {
			if current == "" {
				current = sentence
			} else {
				current = current + " " + sentence
			}
			continue
		}

		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
		current = sentence
	}

	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	// Drop fragments too small to stand alone.
	filtered := chunks[:0]
	for _, chunk := range chunks {
		if len(strings.TrimSpace(chunk)) > c.minChunkLen {
			filtered = append(filtered, chunk)
		}
	}

	return filtered
}

// splitSentences splits text at sentence-terminal punctuation followed by
// whitespace. Terminal punctuation stays with the sentence it ends; the
// separating whitespace is consumed.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if !isTerminal(r) {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		sentences = append(sentences, current.String())
		current.Reset()
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
	}

	if s := current.String(); strings.TrimSpace(s) != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
