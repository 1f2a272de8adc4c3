// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes name the workflow step that failed so clients can branch on
// them (e.g. prompting for credentials, opening the purchase dialog).
//
// writeError maps the service error taxonomy onto these codes. Handlers call
// it for any error returned by a service; only transport-level problems (bad
// JSON, bad query params) call fail directly.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation          = "validation_failed"
	ErrCodeInvalidLogin        = "invalid_login"
	ErrCodeUsernameTaken       = "username_taken"
	ErrCodeInsufficientTokens  = "insufficient_tokens"
	ErrCodeCredentialsMissing  = "credentials_missing"
	ErrCodeCredentialsInvalid  = "credentials_invalid"
	ErrCodeInvalidSignature    = "invalid_signature"
	ErrCodeGenerationFailed    = "generation_failed"
	ErrCodePlatformFailed      = "platform_failed"
	ErrCodePlatformAfterCharge = "platform_failed_after_charge"
	ErrCodeSaveAfterCharge     = "save_failed_after_charge"
	ErrCodePaymentFailed       = "payment_failed"
	ErrCodeListFailed          = "list_failed"
)

// writeError translates a service error into an error envelope.
func writeError(c *gin.Context, err error) {
	var (
		quota   *services.QuotaError
		partial *services.PartialFailureError
	)
	switch {
	case errors.As(err, &partial):
		charged, balance := partial.TokensCharged, partial.Balance
		status, code := http.StatusBadGateway, ErrCodePlatformAfterCharge
		if partial.Stage == services.StagePersist {
			status, code = http.StatusInternalServerError, ErrCodeSaveAfterCharge
		}
		failWith(c, status, ErrorResponse{
			Code:          code,
			Message:       err.Error(),
			TokenBalance:  &balance,
			TokensCharged: &charged,
		})
	case errors.As(err, &quota):
		balance := quota.Balance
		failWith(c, http.StatusPaymentRequired, ErrorResponse{
			Code:         ErrCodeInsufficientTokens,
			Message:      "insufficient tokens",
			TokenBalance: &balance,
		})

	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidLogin):
		fail(c, http.StatusUnauthorized, ErrCodeInvalidLogin, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusConflict, ErrCodeUsernameTaken, err.Error())
	case errors.Is(err, services.ErrSurveyNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, services.ErrInvalidSignature):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSignature, err.Error())
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrCredentialsMissing):
		fail(c, http.StatusBadRequest, ErrCodeCredentialsMissing, "Please configure your Qualtrics settings first")
	case errors.Is(err, services.ErrCredentialsInvalid):
		fail(c, http.StatusBadRequest, ErrCodeCredentialsInvalid, "Invalid Qualtrics credentials")

	case errors.Is(err, services.ErrGenerationFailed):
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, err.Error())
	case errors.Is(err, services.ErrPlatformCallFailed):
		fail(c, http.StatusInternalServerError, ErrCodePlatformFailed, err.Error())
	case errors.Is(err, services.ErrPaymentCallFailed):
		fail(c, http.StatusInternalServerError, ErrCodePaymentFailed, err.Error())

	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
