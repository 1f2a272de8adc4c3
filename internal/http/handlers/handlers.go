// Package handlers – wiring.
//
// Handlers depend on narrow, context-aware service contracts so the
// transport stays separate from business logic; the concrete services in
// internal/services satisfy them. All implementations must be safe for
// concurrent use.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/services"
)

//
// Service contracts
//

// AuthService manages accounts and sessions.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Me(ctx context.Context, userID uint) (*domain.User, error)
}

// ChatService answers survey-design conversations.
type ChatService interface {
	Chat(ctx context.Context, userID uint, messages []domain.Message) (*services.ChatResult, error)
}

// SurveyService generates and lists surveys.
type SurveyService interface {
	Generate(ctx context.Context, userID uint, prompt string) (*services.GenerateResult, error)
	GetByRef(ctx context.Context, userID uint, ref string) (*domain.Survey, error)
	ListPage(ctx context.Context, userID uint, page, pageSize int) ([]domain.Survey, int64, error)
	Stats(ctx context.Context, userID uint) (int64, *time.Time, error)
}

// CredentialsService stores the user's platform credentials.
type CredentialsService interface {
	Update(ctx context.Context, userID uint, creds domain.QualtricsCredentials) error
}

// PaymentService opens payment intents and applies processor notifications.
type PaymentService interface {
	CreateIntent(ctx context.Context, userID uint, kind domain.PaymentKind) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*services.WebhookResult, error)
}

// IdempotencyRecorder stores the outcome of a keyed request for replay.
type IdempotencyRecorder interface {
	Save(ctx context.Context, userID uint, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Options carries transport settings that are not services.
type Options struct {
	CookieName     string
	CookieSecure   bool
	PublishableKey string
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	auth     AuthService
	chat     ChatService
	surveys  SurveyService
	creds    CredentialsService
	payments PaymentService
	idem     IdempotencyRecorder
	opts     Options
}

// New constructs a Handlers bound to the given services. idem may be nil, in
// which case Idempotency-Key headers are validated but never recorded.
func New(auth AuthService, chat ChatService, surveys SurveyService, creds CredentialsService, payments PaymentService, idem IdempotencyRecorder, opts Options) *Handlers {
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	return &Handlers{
		auth:     auth,
		chat:     chat,
		surveys:  surveys,
		creds:    creds,
		payments: payments,
		idem:     idem,
		opts:     opts,
	}
}

// currentUser returns the id set by the auth middleware. Routes mounted
// behind middleware.Auth always have one; the 401 is a wiring guard.
func currentUser(c *gin.Context) (uint, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return uid, ok
}
