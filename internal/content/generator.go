// Package content produces the email and SMS copy sent to a lead.
package content

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/entity"
)

// Generator writes notification copy for a lead. Implementations always
// return usable content.
type Generator interface {
	Generate(ctx context.Context, lead entity.Lead, estimate entity.SavingsEstimate) entity.GeneratedContent
}

// NewGenerator returns a Gemini-backed generator when an API key is
// configured and the template fallback otherwise.
func NewGenerator(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using template content")
		return Fallback{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewGeminiGenerator(client.Models, cfg.Model, logger), nil
}
