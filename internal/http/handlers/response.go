// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the structured error envelope, the fail() helper and small success writers.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - Quota and partial-failure errors add the caller's `tokenBalance`
//     (and `tokensCharged`) so clients can refresh their counter.
//   - `fail()` logs 5xx responses with the request-scoped logger and reports
//     them to Sentry.
//
// Example error response:
//
//	HTTP/1.1 402 Payment Required
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "insufficient_tokens",
//	  "message": "insufficient tokens",
//	  "tokenBalance": 0
//	}
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/observability"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"insufficient_tokens"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"insufficient tokens"`
	// Caller's balance after the failed operation (402 and partial 502 only)
	TokenBalance *int64 `json:"tokenBalance,omitempty" example:"0"`
	// Tokens charged before the failure (partial 502 only)
	TokensCharged *int64 `json:"tokensCharged,omitempty" example:"812"`
}

// fail aborts the request with a structured error.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

// failWith writes resp after filling in the request id. Server errors are
// logged with the request-scoped logger and reported to Sentry.
func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
		observability.CaptureError(c.Request.Context(), errors.New(resp.Message), map[string]string{
			"code":   resp.Code,
			"status": strconv.Itoa(status),
			"route":  c.FullPath(),
		})
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
