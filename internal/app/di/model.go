// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"

	"company_analyzer/internal/app/config"
	"company_analyzer/internal/feature/analysis/adapters/gemini"
	"company_analyzer/internal/feature/analysis/adapters/openai"
	"company_analyzer/internal/feature/analysis/usecase"
	infrahttp "company_analyzer/internal/platform/http"
)

// NewModelClient creates the ModelClient for the configured provider with a tuned HTTP client.
// A missing API key does not fail here; the client reports ErrConfiguration on first use.
func NewModelClient(ctx context.Context, cfg config.LLMConfig) (usecase.ModelClient, error) {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:     cfg.APIKey(),
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		}), nil
	case config.ProviderGemini, "":
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:     cfg.APIKey(),
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
