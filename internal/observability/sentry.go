package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tbourn/go-survey-backend/internal/config"
)

// SetupSentry initialises the global Sentry client when a DSN is configured
// and returns a flush function for shutdown.
func SetupSentry(cfg config.SentryConfig, release string) (func(time.Duration) bool, error) {
	if cfg.DSN == "" {
		return func(time.Duration) bool { return true }, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          release,
		AttachStacktrace: true,
		SendDefaultPII:   false,
	})
	if err != nil {
		return nil, err
	}
	return sentry.Flush, nil
}

// CaptureError reports err to the request's hub, or the global hub when the
// context carries none. Safe to call when Sentry is disabled.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
