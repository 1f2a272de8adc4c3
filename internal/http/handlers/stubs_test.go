package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/services"
)

// ---------- stub services ----------

type stubAuth struct {
	register func(ctx context.Context, u, p string) (*domain.User, error)
	login    func(ctx context.Context, u, p string) (*services.Session, error)
	me       func(ctx context.Context, id uint) (*domain.User, error)
}

func (s stubAuth) Register(ctx context.Context, u, p string) (*domain.User, error) {
	if s.register != nil {
		return s.register(ctx, u, p)
	}
	return &domain.User{ID: 1, Username: u, TokenBalance: 100}, nil
}

func (s stubAuth) Login(ctx context.Context, u, p string) (*services.Session, error) {
	if s.login != nil {
		return s.login(ctx, u, p)
	}
	return &services.Session{
		Token:     "tok-" + u,
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &domain.User{ID: 1, Username: u, TokenBalance: 100},
	}, nil
}

func (s stubAuth) Me(ctx context.Context, id uint) (*domain.User, error) {
	if s.me != nil {
		return s.me(ctx, id)
	}
	return &domain.User{ID: id, Username: "alice", TokenBalance: 42}, nil
}

type stubChat struct {
	chat func(ctx context.Context, uid uint, msgs []domain.Message) (*services.ChatResult, error)
}

func (s stubChat) Chat(ctx context.Context, uid uint, msgs []domain.Message) (*services.ChatResult, error) {
	return s.chat(ctx, uid, msgs)
}

type stubSurveys struct {
	generate  func(ctx context.Context, uid uint, prompt string) (*services.GenerateResult, error)
	getByRef  func(ctx context.Context, uid uint, ref string) (*domain.Survey, error)
	listPage  func(ctx context.Context, uid uint, page, size int) ([]domain.Survey, int64, error)
	stats     func(ctx context.Context, uid uint) (int64, *time.Time, error)
	generated int
}

func (s *stubSurveys) Generate(ctx context.Context, uid uint, prompt string) (*services.GenerateResult, error) {
	s.generated++
	return s.generate(ctx, uid, prompt)
}

func (s *stubSurveys) GetByRef(ctx context.Context, uid uint, ref string) (*domain.Survey, error) {
	if s.getByRef != nil {
		return s.getByRef(ctx, uid, ref)
	}
	return nil, services.ErrSurveyNotFound
}

func (s *stubSurveys) ListPage(ctx context.Context, uid uint, page, size int) ([]domain.Survey, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, uid, page, size)
	}
	return nil, 0, nil
}

func (s *stubSurveys) Stats(ctx context.Context, uid uint) (int64, *time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx, uid)
	}
	return 0, nil, nil
}

type stubCreds struct {
	update func(ctx context.Context, uid uint, c domain.QualtricsCredentials) error
}

func (s stubCreds) Update(ctx context.Context, uid uint, c domain.QualtricsCredentials) error {
	return s.update(ctx, uid, c)
}

type stubPayments struct {
	createIntent func(ctx context.Context, uid uint, kind domain.PaymentKind) (string, error)
	webhook      func(ctx context.Context, payload []byte, sig string) (*services.WebhookResult, error)
}

func (s stubPayments) CreateIntent(ctx context.Context, uid uint, kind domain.PaymentKind) (string, error) {
	return s.createIntent(ctx, uid, kind)
}

func (s stubPayments) HandleWebhook(ctx context.Context, payload []byte, sig string) (*services.WebhookResult, error) {
	return s.webhook(ctx, payload, sig)
}

// memIdem is an in-memory IdempotencyRecorder that also serves lookups.
type memIdem struct {
	saved map[string]string
}

func newMemIdem() *memIdem { return &memIdem{saved: map[string]string{}} }

func idemKey(uid uint, scope, key string) string {
	return strconv.FormatUint(uint64(uid), 10) + "|" + scope + "|" + key
}

func (m *memIdem) Save(_ context.Context, uid uint, scope, key, res string, _ int) error {
	if _, dup := m.saved[idemKey(uid, scope, key)]; !dup {
		m.saved[idemKey(uid, scope, key)] = res
	}
	return nil
}

func (m *memIdem) Lookup(_ context.Context, uid uint, scope, key string, _ time.Time) (string, bool, error) {
	res, ok := m.saved[idemKey(uid, scope, key)]
	return res, ok, nil
}

// ---------- router + request helpers ----------

const testUserHeader = "X-Test-User"

// testAuth stands in for middleware.Auth: the user id comes from a header.
func testAuth(c *gin.Context) {
	id, err := strconv.ParseUint(c.GetHeader(testUserHeader), 10, 64)
	if err != nil || id == 0 {
		Fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	middleware.SetUserID(c, uint(id))
	c.Next()
}

func newTestRouter(h *Handlers, idem middleware.IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/config/payments", h.PaymentConfig)
	r.POST("/webhooks/stripe", h.StripeWebhook)

	authed := r.Group("", testAuth, middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem))
	authed.GET("/user", h.Me)
	authed.POST("/chat", h.Chat)
	authed.POST("/surveys/generate", h.GenerateSurvey)
	authed.GET("/surveys", h.ListSurveys)
	authed.POST("/settings/qualtrics", h.UpdateQualtricsSettings)
	authed.POST("/create-payment-intent", h.CreatePaymentIntent)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, uid uint, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if uid != 0 {
		req.Header.Set(testUserHeader, strconv.FormatUint(uint64(uid), 10))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}
