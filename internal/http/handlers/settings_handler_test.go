package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/services"
)

func TestUpdateQualtricsSettings_Success(t *testing.T) {
	var got domain.QualtricsCredentials
	var gotUser uint
	creds := stubCreds{update: func(_ context.Context, uid uint, c domain.QualtricsCredentials) error {
		gotUser, got = uid, c
		return nil
	}}
	r := newTestRouter(New(stubAuth{}, nil, nil, creds, nil, nil, Options{}), nil)

	body := map[string]string{
		"qualtricsApiToken":   "tok",
		"qualtricsDatacenter": "iad1",
		"qualtricsBrandId":    "acme",
	}
	w := doJSON(t, r, http.MethodPost, "/settings/qualtrics", 9, body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"message":"Credentials updated successfully"}` {
		t.Fatalf("body=%s", w.Body.String())
	}
	if gotUser != 9 || got.APIToken != "tok" || got.Datacenter != "iad1" || got.BrandID != "acme" {
		t.Fatalf("service got user=%d creds=%+v", gotUser, got)
	}
}

func TestUpdateQualtricsSettings_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		err    error
		status int
		code   string
		msg    string
	}{
		{"bad json", "{", nil, http.StatusBadRequest, ErrCodeBadRequest, ""},
		{"missing fields", map[string]string{}, services.ErrMissingCredentials, http.StatusBadRequest, ErrCodeValidation, ""},
		{"rejected", map[string]string{"qualtricsApiToken": "x"}, services.ErrCredentialsInvalid,
			http.StatusBadRequest, ErrCodeCredentialsInvalid, "Invalid Qualtrics credentials"},
		{"platform down", map[string]string{"qualtricsApiToken": "x"}, services.ErrPlatformCallFailed,
			http.StatusInternalServerError, ErrCodePlatformFailed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creds := stubCreds{update: func(context.Context, uint, domain.QualtricsCredentials) error { return tc.err }}
			r := newTestRouter(New(stubAuth{}, nil, nil, creds, nil, nil, Options{}), nil)

			w := doJSON(t, r, http.MethodPost, "/settings/qualtrics", 1, tc.body, nil)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			er := decodeError(t, w)
			if er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
			if tc.msg != "" && er.Message != tc.msg {
				t.Fatalf("message=%q want %q", er.Message, tc.msg)
			}
		})
	}
}

func TestUpdateQualtricsSettings_RequiresAuth(t *testing.T) {
	r := newTestRouter(New(stubAuth{}, nil, nil, stubCreds{}, nil, nil, Options{}), nil)
	w := doJSON(t, r, http.MethodPost, "/settings/qualtrics", 0, map[string]string{}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
}
