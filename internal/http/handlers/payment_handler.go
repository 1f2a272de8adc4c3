// Payment HTTP handlers.
//
//   - POST /create-payment-intent  (open a purchase, returns the client secret)
//   - GET  /config/payments        (publishable key for the payment form)
//   - POST /webhooks/stripe        (processor notifications, signature-checked)
//
// The webhook route is not behind session auth; the Stripe-Signature header
// over the raw body is its authentication.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/services"
)

// maxWebhookBytes bounds notification bodies, matching stripe-go's own limit.
const maxWebhookBytes = 65536

// CreatePaymentIntentRequest selects the plan to buy.
type CreatePaymentIntentRequest struct {
	Type domain.PaymentKind `json:"type" binding:"required" example:"tokens" enums:"subscription,tokens"`
}

// CreatePaymentIntentResponse holds the secret the browser confirms against.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret" example:"pi_3Nx_secret_abc"`
}

// PaymentConfigResponse is the public payment configuration.
type PaymentConfigResponse struct {
	PublishableKey string `json:"publishableKey" example:"pk_test_123"`
}

// WebhookResponse acknowledges a notification.
type WebhookResponse struct {
	Received bool `json:"received" example:"true"`
	services.WebhookResult
}

// CreatePaymentIntent godoc
// @ID          createPaymentIntent
// @Summary     Start a purchase
// @Description Opens a payment intent for the subscription (20000 tokens, $20) or token pack (10000 tokens, $10).
// @Description Tokens are credited when the processor confirms the payment.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreatePaymentIntentRequest  true  "Plan"
// @Success     200   {object}  handlers.CreatePaymentIntentResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Unknown plan"
// @Failure     401   {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     500   {object}  handlers.ErrorResponse  "Processor failure"
// @Router      /create-payment-intent [post]
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type is required")
		return
	}
	secret, err := h.payments.CreateIntent(c.Request.Context(), uid, req.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, CreatePaymentIntentResponse{ClientSecret: secret})
}

// PaymentConfig godoc
// @ID          paymentConfig
// @Summary     Payment configuration
// @Description Returns the publishable key used to initialise the payment form.
// @Tags        Payments
// @Produce     json
// @Success     200  {object}  handlers.PaymentConfigResponse
// @Router      /config/payments [get]
func (h *Handlers) PaymentConfig(c *gin.Context) {
	ok(c, http.StatusOK, PaymentConfigResponse{PublishableKey: h.opts.PublishableKey})
}

// StripeWebhook godoc
// @ID          stripeWebhook
// @Summary     Payment notifications
// @Description Verifies the Stripe-Signature header over the raw body and credits tokens for payment_intent.succeeded.
// @Description Each payment intent is credited at most once; replays are acknowledged with duplicate=true.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature  header  string  true  "Processor signature"
// @Success     200  {object}  handlers.WebhookResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad signature or unreadable body"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /webhooks/stripe [post]
func (h *Handlers) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable webhook body")
		return
	}
	res, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, WebhookResponse{Received: true, WebhookResult: *res})
}
