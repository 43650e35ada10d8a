// Command kbase is a personal knowledge base with retrieval-augmented
// search. Documents are chunked, embedded and searched by cosine
// similarity; retrieved context is assembled with source attribution.
package main

import (
	"context"
	"fmt"
	"os"

	configfile "github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/config/file"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/embedding"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/storage/postgres"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/storage/sqlite"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driving/cli"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/services"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

func main() {
	cli.SetInitializer(wireServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// wireServices builds the full service graph from configuration. Runs once,
// after flags are parsed.
func wireServices() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	store, err := openStore(configStore)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder := openEmbedder(configStore)

	cli.SetServices(cli.Services{
		Query:    services.NewQueryService(store, embedder),
		Ingest:   services.NewIngestOrchestrator(store, embedder),
		Document: services.NewDocumentService(store),
		Config:   configStore,
	})
	return nil
}

// openStore picks the storage backend. SQLite is the zero-config default;
// Postgres with pgvector is opt-in via storage.backend.
func openStore(cfg driven.ConfigStore) (driven.VectorStore, error) {
	switch backend := cfg.GetString("storage.backend"); backend {
	case "postgres":
		return postgres.NewStore(context.Background(), cfg.GetString("storage.postgres_dsn"))
	case "", "sqlite":
		return sqlite.NewStore(cli.DataDir())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// openEmbedder builds the embedding service from config. A missing or
// unusable provider yields nil; queries then degrade to the no-context
// sentinel and ingestion reports the missing configuration.
func openEmbedder(cfg driven.ConfigStore) driven.EmbeddingService {
	settings := &embedding.Settings{
		Provider:   domain.AIProvider(cfg.GetString("embedding.provider")),
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		BaseURL:    cfg.GetString("embedding.base_url"),
		Model:      cfg.GetString("embedding.model"),
		Dimensions: cfg.GetInt("embedding.dimensions"),
	}

	// Default to Gemini when a key is in the environment, else local Ollama.
	if settings.Provider == "" {
		if settings.APIKey != "" {
			settings.Provider = domain.AIProviderGemini
		} else {
			settings.Provider = domain.AIProviderOllama
		}
	}

	if !settings.IsConfigured() {
		logger.Warn("No embedding provider configured; search runs without grounding")
		return nil
	}

	svc, err := embedding.NewService(settings)
	if err != nil {
		logger.Warn("Embedding provider unusable: %v", err)
		return nil
	}
	return svc
}
