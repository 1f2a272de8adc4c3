// Package payments integrates the Stripe PaymentIntents API and webhook
// verification behind the services.PaymentGateway interface.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/services"
)

// Stripe creates payment intents and verifies webhook signatures.
type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
}

// Options tunes the Stripe client. Zero values use the live API.
type Options struct {
	Currency string
	// APIURL overrides the API endpoint, e.g. for stripe-mock or tests.
	APIURL string
	// MaxRetries caps network retries; nil keeps the library default.
	MaxRetries *int64
}

// New returns a gateway authenticated with secretKey.
func New(secretKey, webhookSecret string, opts Options) *Stripe {
	var backends *stripe.Backends
	if opts.APIURL != "" || opts.MaxRetries != nil {
		cfg := &stripe.BackendConfig{
			MaxNetworkRetries: opts.MaxRetries,
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		}
		if opts.APIURL != "" {
			cfg.URL = stripe.String(opts.APIURL)
		}
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Connect: stripe.GetBackend(stripe.ConnectBackend),
			Uploads: stripe.GetBackend(stripe.UploadsBackend),
		}
	}
	currency := strings.ToLower(opts.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Stripe{api: client.New(secretKey, backends), webhookSecret: webhookSecret, currency: currency}
}

// CreateIntent opens a PaymentIntent for plan. The plan kind and user id are
// stored as metadata so the webhook can attribute the payment.
func (s *Stripe) CreateIntent(ctx context.Context, userID uint, plan domain.Plan) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(plan.AmountCents),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			services.MetaType:   string(plan.Kind),
			services.MetaUserID: strconv.FormatUint(uint64(userID), 10),
		},
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			return "", fmt.Errorf("stripe: %s", se.Msg)
		}
		return "", fmt.Errorf("stripe: %w", err)
	}
	return pi.ClientSecret, nil
}

// eventObject is the part of an event's data object the service needs.
type eventObject struct {
	ID       string            `json:"id"`
	Object   string            `json:"object"`
	Metadata map[string]string `json:"metadata"`
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret and decodes the event. API version mismatches are tolerated since
// only the id and metadata are read.
func (s *Stripe) VerifyWebhook(payload []byte, signature string) (domain.PaymentEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	out := domain.PaymentEvent{EventID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out, nil
	}
	var obj eventObject
	if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode event object: %w", err)
	}
	if obj.Object == "payment_intent" {
		out.IntentID = obj.ID
	}
	out.Metadata = obj.Metadata
	return out, nil
}

var _ services.PaymentGateway = (*Stripe)(nil)
