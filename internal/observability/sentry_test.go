package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tbourn/go-survey-backend/internal/config"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *captureTransport) Configure(sentry.ClientOptions)        {}
func (t *captureTransport) Flush(time.Duration) bool              { return true }
func (t *captureTransport) FlushWithContext(context.Context) bool { return true }
func (t *captureTransport) Close()                                {}
func (t *captureTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func TestSetupSentry_DisabledWithoutDSN(t *testing.T) {
	flush, err := SetupSentry(config.SentryConfig{}, "v0")
	if err != nil {
		t.Fatalf("SetupSentry: %v", err)
	}
	if !flush(time.Millisecond) {
		t.Fatalf("no-op flush should report success")
	}
	// Capturing without a client must not panic.
	CaptureError(context.Background(), errors.New("ignored"), nil)
}

func TestSetupSentry_InvalidDSN(t *testing.T) {
	if _, err := SetupSentry(config.SentryConfig{DSN: "not a dsn"}, "v0"); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}

func TestCaptureError_UsesContextHub(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://public@example.com/1", Transport: tr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	CaptureError(ctx, errors.New("qualtrics: status 500"), map[string]string{"collaborator": "qualtrics"})
	CaptureError(ctx, nil, nil)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.events) != 1 {
		t.Fatalf("expected one event, got %d", len(tr.events))
	}
	if tr.events[0].Tags["collaborator"] != "qualtrics" {
		t.Fatalf("expected tag on event, got %v", tr.events[0].Tags)
	}
}
