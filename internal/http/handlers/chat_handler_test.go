package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/services"
)

func TestChat_Success(t *testing.T) {
	var gotUser uint
	var gotMsgs []domain.Message
	chat := stubChat{chat: func(_ context.Context, uid uint, msgs []domain.Message) (*services.ChatResult, error) {
		gotUser, gotMsgs = uid, msgs
		return &services.ChatResult{Message: "Try a 5-point scale.", TokenBalance: 88}, nil
	}}
	r := newTestRouter(New(stubAuth{}, chat, nil, nil, nil, nil, Options{}), nil)

	body := ChatRequest{Messages: []domain.Message{{Role: "user", Content: "How do I measure satisfaction?"}}}
	w := doJSON(t, r, http.MethodPost, "/chat", 5, body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out services.ChatResult
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Message != "Try a 5-point scale." || out.TokenBalance != 88 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if gotUser != 5 || len(gotMsgs) != 1 || gotMsgs[0].Role != "user" {
		t.Fatalf("service called with uid=%d msgs=%v", gotUser, gotMsgs)
	}
}

func TestChat_Errors(t *testing.T) {
	cases := []struct {
		name    string
		body    any
		err     error
		status  int
		code    string
		balance *int64
	}{
		{"bad json", "{", nil, http.StatusBadRequest, ErrCodeBadRequest, nil},
		{"no messages", map[string]any{}, nil, http.StatusBadRequest, ErrCodeBadRequest, nil},
		{"invalid role", ChatRequest{Messages: []domain.Message{{Role: "system", Content: "x"}}}, services.ErrInvalidRole, http.StatusBadRequest, ErrCodeValidation, nil},
		{"quota", ChatRequest{Messages: []domain.Message{{Role: "user", Content: "x"}}}, &services.QuotaError{Balance: 0}, http.StatusPaymentRequired, ErrCodeInsufficientTokens, new(int64)},
		{"provider", ChatRequest{Messages: []domain.Message{{Role: "user", Content: "x"}}}, fmt.Errorf("%w: upstream timeout", services.ErrGenerationFailed), http.StatusInternalServerError, ErrCodeGenerationFailed, nil},
		{"unknown", ChatRequest{Messages: []domain.Message{{Role: "user", Content: "x"}}}, errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chat := stubChat{chat: func(context.Context, uint, []domain.Message) (*services.ChatResult, error) {
				return nil, tc.err
			}}
			r := newTestRouter(New(stubAuth{}, chat, nil, nil, nil, nil, Options{}), nil)
			w := doJSON(t, r, http.MethodPost, "/chat", 1, tc.body, nil)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			er := decodeError(t, w)
			if er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
			if tc.balance != nil && (er.TokenBalance == nil || *er.TokenBalance != *tc.balance) {
				t.Fatalf("expected tokenBalance %d, got %v", *tc.balance, er.TokenBalance)
			}
		})
	}
}
