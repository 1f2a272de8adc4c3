package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// OpenAI talks to the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client for key. baseURL overrides the API endpoint when
// set, which is how tests point the client at a local server.
func NewOpenAI(key, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends the conversation behind the chat preamble.
func (o *OpenAI) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: chatPreamble})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return o.create(ctx, openai.ChatCompletionRequest{Model: o.model, Messages: msgs})
}

// GenerateSurvey requests a JSON survey document in JSON mode.
func (o *OpenAI) GenerateSurvey(ctx context.Context, prompt string) (domain.Completion, error) {
	return o.create(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: surveyPreamble},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
}

func (o *OpenAI) create(ctx context.Context, req openai.ChatCompletionRequest) (domain.Completion, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return domain.Completion{}, fmt.Errorf("openai: %s", apiErr.Message)
		}
		return domain.Completion{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, errors.New("openai: empty response")
	}
	return domain.Completion{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int64(resp.Usage.TotalTokens),
	}, nil
}
