package ai

import (
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

func TestToHistory(t *testing.T) {
	history, last, err := toHistory([]domain.Message{
		{Role: domain.RoleUser, Content: "a"},
		{Role: domain.RoleAssistant, Content: "b"},
		{Role: domain.RoleUser, Content: "c"},
	})
	if err != nil {
		t.Fatalf("toHistory: %v", err)
	}
	if last != "c" || len(history) != 2 {
		t.Fatalf("unexpected split: %d history, last=%q", len(history), last)
	}
	if history[0].Role != "user" || history[1].Role != "model" {
		t.Fatalf("unexpected roles %q %q", history[0].Role, history[1].Role)
	}

	if _, _, err := toHistory(nil); err == nil {
		t.Fatalf("expected error for empty conversation")
	}
	if _, _, err := toHistory([]domain.Message{{Role: domain.RoleAssistant, Content: "x"}}); err == nil {
		t.Fatalf("expected error when the last turn is not from the user")
	}
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(`"x"}`)}},
		}},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: 42},
	}
	c, err := fromResponse(resp)
	if err != nil {
		t.Fatalf("fromResponse: %v", err)
	}
	if c.Text != `{"title":"x"}` || c.TokensUsed != 42 {
		t.Fatalf("unexpected completion %+v", c)
	}

	if _, err := fromResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error for no candidates")
	}
	c, err = fromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}})
	if err != nil || c.TokensUsed != 0 {
		t.Fatalf("missing usage should count as zero: %+v, %v", c, err)
	}
}
