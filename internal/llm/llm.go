package llm

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/grocery/internal/config"
	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// New builds the language model selected by cfg. The credential must
// already have been checked with cfg.RequireCredential.
func New(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (domain.LanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, log,
			WithGeminiModel(cfg.Model),
			WithGeminiTemperature(cfg.Temperature),
			WithGeminiMaxTokens(cfg.MaxTokens),
		)
	case config.ProviderOpenAI, "":
		return NewClient(cfg.Endpoint, cfg.APIKey, log,
			WithModel(cfg.Model),
			WithTemperature(cfg.Temperature),
			WithMaxTokens(cfg.MaxTokens),
			WithHTTPTimeout(cfg.Timeout),
		), nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
}
