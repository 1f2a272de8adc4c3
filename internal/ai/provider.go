package ai

import (
	"context"
	"fmt"

	"github.com/tbourn/go-survey-backend/internal/config"
	"github.com/tbourn/go-survey-backend/internal/services"
)

// New returns the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.AIConfig) (services.Completer, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIURL), nil
	case "gemini":
		return NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

var (
	_ services.Completer = (*OpenAI)(nil)
	_ services.Completer = (*Gemini)(nil)
)
