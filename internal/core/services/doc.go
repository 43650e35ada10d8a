// Package services implements the core use cases: retrieval-context
// assembly, the query pipeline and the ingestion orchestrator. Services
// depend only on the driven ports, never on concrete adapters.
package services
