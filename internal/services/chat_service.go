// Package services – ChatService
//
// ChatService runs a token-metered conversation turn with the AI provider.
// The balance is checked before the provider is called; the provider-reported
// cost is charged afterwards through the Ledger. Failed provider calls are
// never charged. Conversations are not persisted.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ChatService coordinates quota checks, completions and charges for chat.
type ChatService struct {
	Ledger *Ledger
	AI     Completer

	// Timeout bounds a single provider call; zero disables it.
	Timeout time.Duration

	// Optional guards
	MaxMessages     int
	MaxMessageRunes int
}

// ChatResult is the assistant reply together with the balance after charging.
type ChatResult struct {
	Message      string `json:"message"`
	TokenBalance int64  `json:"tokenBalance"`
}

// Chat validates messages, requires a positive balance, asks the provider for
// the next assistant turn and charges the reported cost.
func (s *ChatService) Chat(ctx context.Context, userID uint, messages []domain.Message) (*ChatResult, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Chat",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int("messages", len(messages)),
		),
	)
	defer span.End()

	msgs, err := s.normalize(messages)
	if err != nil {
		return nil, err
	}

	balance, err := s.Ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		quotaRejections.WithLabelValues(string(domain.TxChat)).Inc()
		return nil, &QuotaError{Balance: balance}
	}

	completion, err := complete(ctx, s.Timeout, func(ctx context.Context) (domain.Completion, error) {
		return s.AI.Complete(ctx, msgs)
	})
	if err != nil {
		collaboratorFailures.WithLabelValues("ai").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	_, balance, err = s.Ledger.Charge(ctx, userID, completion.TokensUsed, domain.TxChat)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("tokens.used", completion.TokensUsed))
	return &ChatResult{Message: completion.Text, TokenBalance: balance}, nil
}

// normalize trims message content and enforces role and size rules.
func (s *ChatService) normalize(messages []domain.Message) ([]domain.Message, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}
	if s.MaxMessages > 0 && len(messages) > s.MaxMessages {
		return nil, ErrTooManyMessages
	}
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if !domain.ValidRole(m.Role) {
			return nil, ErrInvalidRole
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			return nil, ErrEmptyContent
		}
		if s.MaxMessageRunes > 0 && utf8.RuneCountInString(content) > s.MaxMessageRunes {
			return nil, ErrTooLong
		}
		out = append(out, domain.Message{Role: m.Role, Content: content})
	}
	return out, nil
}

// complete runs call under an optional deadline.
func complete(ctx context.Context, timeout time.Duration, call func(context.Context) (domain.Completion, error)) (domain.Completion, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return call(ctx)
}
