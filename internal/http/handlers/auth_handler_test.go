package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/services"
)

func TestRegister_CreatesAccountAndSetsCookie(t *testing.T) {
	h := New(stubAuth{}, nil, nil, nil, nil, nil, Options{CookieName: "sid"})
	r := newTestRouter(h, nil)

	w := doJSON(t, r, http.MethodPost, "/register", 0, CredentialsRequest{Username: "alice", Password: "hunter22!"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Token != "tok-alice" || out.User == nil || out.User.TokenBalance != 100 {
		t.Fatalf("unexpected session: %+v", out)
	}
	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "sid=tok-alice") || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("expected HttpOnly session cookie, got %q", cookie)
	}
}

func TestRegister_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		body   any
		status int
		code   string
	}{
		{"bad json", nil, "{", http.StatusBadRequest, ErrCodeBadRequest},
		{"missing password", nil, map[string]string{"username": "alice"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"taken", services.ErrUsernameTaken, CredentialsRequest{Username: "alice", Password: "hunter22!"}, http.StatusConflict, ErrCodeUsernameTaken},
		{"weak password", services.ErrInvalidPassword, CredentialsRequest{Username: "alice", Password: "x"}, http.StatusBadRequest, ErrCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := stubAuth{register: func(context.Context, string, string) (*domain.User, error) { return nil, tc.err }}
			r := newTestRouter(New(auth, nil, nil, nil, nil, nil, Options{}), nil)
			w := doJSON(t, r, http.MethodPost, "/register", 0, tc.body, nil)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			if er := decodeError(t, w); er.Code != tc.code || er.RequestID == "" {
				t.Fatalf("unexpected error body: %+v", er)
			}
		})
	}
}

func TestLogin_InvalidAndValid(t *testing.T) {
	auth := stubAuth{login: func(_ context.Context, u, p string) (*services.Session, error) {
		if p != "right-password" {
			return nil, services.ErrInvalidLogin
		}
		return stubAuth{}.Login(context.Background(), u, p)
	}}
	r := newTestRouter(New(auth, nil, nil, nil, nil, nil, Options{}), nil)

	w := doJSON(t, r, http.MethodPost, "/login", 0, CredentialsRequest{Username: "alice", Password: "wrong-password"}, nil)
	if w.Code != http.StatusUnauthorized || decodeError(t, w).Code != ErrCodeInvalidLogin {
		t.Fatalf("expected 401 invalid_login, got %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Set-Cookie") != "" {
		t.Fatalf("failed login must not set a cookie")
	}

	w = doJSON(t, r, http.MethodPost, "/login", 0, CredentialsRequest{Username: "alice", Password: "right-password"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "session=tok-alice") {
		t.Fatalf("expected default cookie name, got %q", w.Header().Get("Set-Cookie"))
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	r := newTestRouter(New(stubAuth{}, nil, nil, nil, nil, nil, Options{}), nil)
	w := doJSON(t, r, http.MethodPost, "/logout", 0, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if c := w.Header().Get("Set-Cookie"); !strings.Contains(c, "session=;") || !strings.Contains(c, "Max-Age=0") {
		t.Fatalf("expected expiring cookie, got %q", c)
	}
}

func TestMe(t *testing.T) {
	auth := stubAuth{me: func(_ context.Context, id uint) (*domain.User, error) {
		if id == 9 {
			return nil, services.ErrUserNotFound
		}
		tok := "secret-token"
		return &domain.User{ID: id, Username: "alice", TokenBalance: 77, QualtricsAPIToken: &tok}, nil
	}}
	r := newTestRouter(New(auth, nil, nil, nil, nil, nil, Options{}), nil)

	w := doJSON(t, r, http.MethodGet, "/user", 0, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status=%d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/user", 3, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"tokenBalance":77`) {
		t.Fatalf("expected balance in body: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret-token") {
		t.Fatalf("api token must never be serialized: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/user", 9, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("removed account: status=%d", w.Code)
	}
}
