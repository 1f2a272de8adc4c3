package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Gemini talks to the Google generative language API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a client authenticated with key.
func NewGemini(ctx context.Context, key, model string) (*Gemini, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: cl, model: model}, nil
}

// Close releases the underlying connection.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Complete replays the conversation as chat history and sends the final user turn.
func (g *Gemini) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	history, last, err := toHistory(messages)
	if err != nil {
		return domain.Completion{}, err
	}
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = genai.NewUserContent(genai.Text(chatPreamble))

	cs := m.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("gemini: %w", err)
	}
	return fromResponse(resp)
}

// GenerateSurvey requests a JSON survey document.
func (g *Gemini) GenerateSurvey(ctx context.Context, prompt string) (domain.Completion, error) {
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = genai.NewUserContent(genai.Text(surveyPreamble))
	m.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("gemini: %w", err)
	}
	return fromResponse(resp)
}

// toHistory splits messages into prior turns and the final user prompt.
// Gemini names the assistant role "model".
func toHistory(messages []domain.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", errors.New("gemini: no messages")
	}
	last := messages[len(messages)-1]
	if last.Role != domain.RoleUser {
		return nil, "", errors.New("gemini: last message must come from the user")
	}
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return history, last.Content, nil
}

func fromResponse(resp *genai.GenerateContentResponse) (domain.Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.Completion{}, errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	var used int64
	if resp.UsageMetadata != nil {
		used = int64(resp.UsageMetadata.TotalTokenCount)
	}
	return domain.Completion{Text: b.String(), TokensUsed: used}, nil
}
