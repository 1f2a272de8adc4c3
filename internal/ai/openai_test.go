package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

type capturedRequest struct {
	Model          string `json:"model"`
	Messages       []struct{ Role, Content string }
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newOpenAIServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

const okCompletion = `{"id":"c1","object":"chat.completion","model":"gpt-4o",
 "choices":[{"index":0,"message":{"role":"assistant","content":"Hello there"},"finish_reason":"stop"}],
 "usage":{"prompt_tokens":4,"completion_tokens":6,"total_tokens":10}}`

func TestOpenAI_Complete(t *testing.T) {
	srv, got := newOpenAIServer(t, http.StatusOK, okCompletion)
	o := NewOpenAI("sk-test", "", srv.URL+"/v1")

	c, err := o.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hi"},
		{Role: domain.RoleAssistant, Content: "Hello"},
		{Role: domain.RoleUser, Content: "Help"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Text != "Hello there" || c.TokensUsed != 10 {
		t.Fatalf("unexpected completion %+v", c)
	}
	if got.Model != "gpt-4o" || len(got.Messages) != 4 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != chatPreamble || got.Messages[2].Role != "assistant" {
		t.Fatalf("expected preamble and mapped roles, got %+v", got.Messages)
	}
	if got.ResponseFormat != nil {
		t.Fatalf("chat must not force JSON mode")
	}
}

func TestOpenAI_GenerateSurvey_UsesJSONMode(t *testing.T) {
	srv, got := newOpenAIServer(t, http.StatusOK, okCompletion)
	o := NewOpenAI("sk-test", "gpt-4o-mini", srv.URL+"/v1")

	if _, err := o.GenerateSurvey(context.Background(), "customer satisfaction"); err != nil {
		t.Fatalf("GenerateSurvey: %v", err)
	}
	if got.Model != "gpt-4o-mini" || got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Content != surveyPreamble || got.Messages[1].Content != "customer satisfaction" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestOpenAI_ErrorsCarryProviderMessage(t *testing.T) {
	srv, _ := newOpenAIServer(t, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	o := NewOpenAI("sk-test", "", srv.URL+"/v1")

	_, err := o.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Hi"}})
	if err == nil || !strings.Contains(err.Error(), "Rate limit reached") {
		t.Fatalf("expected provider message, got %v", err)
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv, _ := newOpenAIServer(t, http.StatusOK, `{"id":"c1","choices":[],"usage":{"total_tokens":3}}`)
	o := NewOpenAI("sk-test", "", srv.URL+"/v1")

	if _, err := o.GenerateSurvey(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
