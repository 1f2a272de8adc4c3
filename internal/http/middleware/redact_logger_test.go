package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"plain survey prompt", "plain survey prompt"},
		{"mail jane.doe@corp.io", "mail [REDACTED:email]"},
		{"call 555-123-4567", "call [REDACTED:phone]"},
		{"id=123e4567-e89b-12d3-a456-426614174000", "id=[REDACTED:id]"},
	}
	for _, tc := range cases {
		if got := redact(tc.in); got != tc.want {
			t.Errorf("redact(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactingLogger_MasksCredentialsAndPII(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(func(c *gin.Context) { SetUserID(c, 77); c.Next() })
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{" Stripe-Signature ", "X-API-TOKEN", ""}}))
	r.POST("/surveys/generate", func(c *gin.Context) { c.Status(http.StatusCreated) })

	q := "ref=a.b+tag@example.com&phone=+1-555-123-4567&trace=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodPost, "/surveys/generate?"+q,
		strings.NewReader(`{"prompt":"survey for jane@corp.io"}`))
	req.Header.Set("Authorization", "Bearer secret-jwt")
	req.Header.Set("Cookie", "session=topsecret")
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	req.Header.Set("X-Api-Token", "qualtrics-token")
	req.Header.Set("X-Note", "contact a@b.com")
	req.Header.Set(requestIDHeader, "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/surveys/generate"`,
		`"request_id":"rid-req"`,
		`"user_id":"77"`,
		`"status":201`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"Stripe-Signature":"[REDACTED]"`,
		`"X-Api-Token":"[REDACTED]"`,
		`"X-Note":"contact [REDACTED:email]"`,
		`[REDACTED:email]`, `[REDACTED:phone]`, `[REDACTED:id]`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %s", want)
		}
	}
	for _, leaked := range []string{"secret-jwt", "topsecret", "v1=abc", "qualtrics-token", "jane@corp.io", "survey for"} {
		if strings.Contains(logs, leaked) {
			t.Errorf("log leaked %q", leaked)
		}
	}
	if t.Failed() {
		t.Logf("log: %s", logs)
	}
}

func TestRedactingLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	// No RequestID middleware: the id comes from the request header.
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/surveys", func(c *gin.Context) {
		switch c.Query("case") {
		case "quota":
			c.Status(http.StatusPaymentRequired)
		case "upstream":
			c.Status(http.StatusBadGateway)
		case "ginerr":
			_ = c.Error(errors.New("boom"))
			c.Status(http.StatusBadRequest)
		default:
			c.Status(http.StatusOK)
		}
	})

	send := func(path, rid string) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(requestIDHeader, rid)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	send("/surveys", "rid-ok")
	send("/surveys?case=quota", "rid-quota")
	send("/surveys?case=upstream", "rid-upstream")
	send("/surveys?case=ginerr", "rid-ginerr")
	send("/nowhere", "rid-404")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d; want 5\n%s", len(lines), buf.String())
	}
	want := []struct{ level, rid string }{
		{"info", "rid-ok"},
		{"warn", "rid-quota"},
		{"error", "rid-upstream"},
		{"error", "rid-ginerr"},
		{"warn", "rid-404"},
	}
	for i, w := range want {
		if !strings.Contains(lines[i], `"level":"`+w.level+`"`) || !strings.Contains(lines[i], `"request_id":"`+w.rid+`"`) {
			t.Errorf("line %d = %s; want level %s rid %s", i, lines[i], w.level, w.rid)
		}
	}
	if !strings.Contains(lines[3], `"errors":"Error #01: boom`) {
		t.Errorf("gin errors missing: %s", lines[3])
	}
	if !strings.Contains(lines[4], `"path":"/nowhere"`) {
		t.Errorf("unmatched route should log the raw path: %s", lines[4])
	}
}
