package ai

import (
	"context"
	"testing"

	"github.com/tbourn/go-survey-backend/internal/config"
)

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(context.Background(), config.AIConfig{Provider: "openai", OpenAIKey: "sk"})
	if err != nil {
		t.Fatalf("New(openai): %v", err)
	}
	if _, ok := c.(*OpenAI); !ok {
		t.Fatalf("expected *OpenAI, got %T", c)
	}
	if _, err := New(context.Background(), config.AIConfig{Provider: "llama"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
