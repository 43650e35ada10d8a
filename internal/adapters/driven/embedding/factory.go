// Package embedding provides factory functions for creating embedding
// service adapters.
package embedding

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driven/embedding/ollama"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for provider connectivity validation.
const pingTimeout = 5 * time.Second

// Settings selects and configures an embedding provider.
type Settings struct {
	Provider   domain.AIProvider
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// IsConfigured reports whether the settings name a usable provider. A remote
// provider without an API key is not configured.
func (s *Settings) IsConfigured() bool {
	if s == nil || !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// NewService creates the appropriate embedding service based on settings.
// Returns nil if no provider is configured; callers run in degraded mode.
func NewService(settings *Settings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderGemini:
		if settings.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini api key", domain.ErrConfigurationMissing)
		}
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// NewValidatedService creates an embedding service and validates connectivity
// before handing it out.
func NewValidatedService(settings *Settings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := NewService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'kbase config' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: provider unreachable (%w). Run 'kbase config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}
