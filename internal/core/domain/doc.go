// Package domain contains the core entity types and business errors for the
// knowledge base: documents, their embedded chunks, similarity results and
// the AI provider taxonomy. It has no dependencies on adapters or services.
package domain
