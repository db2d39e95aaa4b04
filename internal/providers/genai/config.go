package genai

import (
	"context"
	"net/http"

	"endorsement/internal/infra"
)

// NewFromConfig builds the configured backend. apiKey is passed separately
// because it may come from the credential store rather than the environment.
func NewFromConfig(ctx context.Context, cfg *infra.Config, apiKey string, logger *infra.Logger) (Generator, error) {
	return NewBackend(ctx, cfg.GeminiBackend, Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: cfg.GeminiTimeout},
		Logger:     logger,
	})
}
