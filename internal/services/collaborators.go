package services

import (
	"context"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// Completer is the AI provider. Implementations own their system preambles
// and report the provider-side token cost of every successful call.
type Completer interface {
	// Complete continues a conversation with the chat assistant preamble.
	Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error)
	// GenerateSurvey asks for a JSON survey document for prompt.
	GenerateSurvey(ctx context.Context, prompt string) (domain.Completion, error)
}

// SurveyPlatform creates surveys in the user's Qualtrics account.
type SurveyPlatform interface {
	// VerifyCredentials returns false when the platform rejects the
	// credentials and an error when it could not be asked.
	VerifyCredentials(ctx context.Context, creds domain.QualtricsCredentials) (bool, error)
	// CreateSurvey creates the survey shell and its questions and returns the
	// platform survey id.
	CreateSurvey(ctx context.Context, creds domain.QualtricsCredentials, doc *domain.SurveyDocument) (string, error)
}

// PaymentGateway is the payment processor.
type PaymentGateway interface {
	// CreateIntent opens a payment for plan on behalf of userID and returns
	// the client secret the browser needs to confirm it.
	CreateIntent(ctx context.Context, userID uint, plan domain.Plan) (string, error)
	// VerifyWebhook authenticates a notification and decodes it.
	VerifyWebhook(payload []byte, signature string) (domain.PaymentEvent, error)
}

// DocumentArchive keeps a copy of every generated survey document.
type DocumentArchive interface {
	Put(ctx context.Context, userID uint, qualtricsID string, doc []byte) error
}
