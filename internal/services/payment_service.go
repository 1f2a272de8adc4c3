// Package services – PaymentService
//
// PaymentService opens payment intents for the fixed purchase plans and
// applies verified payment notifications to the ledger. Notifications are
// credited at most once per payment intent: the intent id is the ledger
// reference, and a replay is acknowledged without a second credit.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/repo"
)

// Metadata keys written on every intent and read back from notifications.
const (
	MetaType   = "type"
	MetaUserID = "userId"
)

// PaymentService coordinates the payment gateway and the ledger.
type PaymentService struct {
	DB      *gorm.DB
	Ledger  *Ledger
	Gateway PaymentGateway

	// PublishableKey is handed to browsers to initialise the payment form.
	PublishableKey string
}

// WebhookResult describes what a notification did.
type WebhookResult struct {
	Credited  bool   `json:"credited"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   string `json:"ignored,omitempty"`
	UserID    uint   `json:"-"`
	Tokens    int64  `json:"-"`
	Balance   int64  `json:"-"`
}

// CreateIntent opens a payment for kind and returns its client secret.
func (s *PaymentService) CreateIntent(ctx context.Context, userID uint, kind domain.PaymentKind) (string, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "CreateIntent",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.String("payment.kind", string(kind)),
		),
	)
	defer span.End()

	plan, ok := domain.PlanFor(kind)
	if !ok {
		return "", ErrInvalidPaymentKind
	}
	exists, err := repo.UserExists(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrUserNotFound
	}

	secret, err := s.Gateway.CreateIntent(ctx, userID, plan)
	if err != nil {
		collaboratorFailures.WithLabelValues("stripe").Inc()
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", ErrPaymentCallFailed, err)
	}
	return secret, nil
}

// HandleWebhook verifies a notification and credits the purchased tokens.
// Notifications that cannot be attributed to a plan and a user are
// acknowledged and ignored so the processor stops retrying them.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "HandleWebhook")
	defer span.End()

	ev, err := s.Gateway.VerifyWebhook(payload, signature)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	span.SetAttributes(
		attribute.String("event.id", ev.EventID),
		attribute.String("event.type", ev.Type),
		attribute.String("payment_intent.id", ev.IntentID),
	)
	lg := log.Ctx(ctx).With().Str("event_id", ev.EventID).Str("payment_intent", ev.IntentID).Logger()

	if ev.Type != domain.EventPaymentSucceeded {
		return &WebhookResult{Ignored: "event type " + ev.Type}, nil
	}

	plan, ok := domain.PlanFor(domain.PaymentKind(ev.Metadata[MetaType]))
	if !ok {
		lg.Warn().Str("type", ev.Metadata[MetaType]).Msg("payment without a known plan")
		return &WebhookResult{Ignored: "unknown payment type"}, nil
	}
	uid, err := strconv.ParseUint(ev.Metadata[MetaUserID], 10, 64)
	if err != nil || uid == 0 {
		lg.Warn().Str("user_id", ev.Metadata[MetaUserID]).Msg("payment without a valid user id")
		return &WebhookResult{Ignored: "missing user id"}, nil
	}
	userID := uint(uid)

	balance, err := s.Ledger.Credit(ctx, userID, plan.Tokens, plan.TxKind, ev.IntentID)
	switch {
	case errors.Is(err, ErrAlreadyCredited):
		lg.Info().Msg("payment already credited")
		return &WebhookResult{Duplicate: true, UserID: userID}, nil
	case errors.Is(err, ErrUserNotFound):
		lg.Warn().Uint("user_id", userID).Msg("payment for unknown user")
		return &WebhookResult{Ignored: "unknown user"}, nil
	case err != nil:
		return nil, err
	}

	lg.Info().Uint("user_id", userID).Int64("tokens", plan.Tokens).Int64("balance", balance).Msg("payment credited")
	return &WebhookResult{Credited: true, UserID: userID, Tokens: plan.Tokens, Balance: balance}, nil
}
