package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIdempotencyContextHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
		t.Fatalf("fresh context reports key or replay")
	}

	c.Set(ctxKeyIdemKey, 123)
	c.Set(ctxKeyIdemResource, 42)
	if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
		t.Fatalf("non-string values must read as absent")
	}

	c.Set(ctxKeyIdemKey, "k")
	c.Set(ctxKeyIdemResource, "42")
	if k, ok := GetIdempotencyKey(c); !ok || k != "k" {
		t.Fatalf("key = %q,%v", k, ok)
	}
	if res, ok := ReplayOf(c); !ok || res != "42" || !IsReplay(c) {
		t.Fatalf("replay = %q,%v", res, ok)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"default length cap", IdempotencyOptions{}, strings.Repeat("a", 201)},
		{"space", IdempotencyOptions{}, "retry 1"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts, nil))
			r.POST("/surveys/generate", func(c *gin.Context) {
				t.Fatalf("handler reached with key %q", tc.key)
			})

			req := httptest.NewRequest(http.MethodPost, "/surveys/generate", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "bad_idempotency_key" {
				t.Fatalf("body = %s (%v)", w.Body.String(), err)
			}
		})
	}
}

type lookupCall struct {
	uid   uint
	scope string
	key   string
}

func TestIdempotencyValidator_Lookup(t *testing.T) {
	type result struct {
		res   string
		found bool
		err   error
	}
	cases := []struct {
		name       string
		uid        uint // 0 means anonymous
		header     string
		result     result
		wantCall   bool
		wantReplay string
	}{
		{name: "no header", uid: 3},
		{name: "anonymous skips lookup", header: "key-1", result: result{"1", true, nil}},
		{name: "miss", uid: 3, header: "key-1", wantCall: true},
		{name: "error is a miss", uid: 3, header: "key-1", result: result{"9", true, errors.New("db down")}, wantCall: true},
		{name: "empty resource is a miss", uid: 3, header: "key-1", result: result{"", true, nil}, wantCall: true},
		{name: "hit", uid: 9, header: "k-9", result: result{"17", true, nil}, wantCall: true, wantReplay: "17"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			var calls []lookupCall
			lookup := func(_ context.Context, uid uint, scope, key string, now time.Time) (string, bool, error) {
				if now.IsZero() || now.Location() != time.UTC {
					t.Errorf("lookup time = %v; want UTC now", now)
				}
				calls = append(calls, lookupCall{uid, scope, key})
				return tc.result.res, tc.result.found, tc.result.err
			}

			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tc.uid != 0 {
					SetUserID(c, tc.uid)
				}
				c.Next()
			})
			r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))

			var replay string
			var bypass, keyed bool
			r.POST("/surveys/generate", func(c *gin.Context) {
				replay, _ = ReplayOf(c)
				bypass = IsRateBypass(c)
				_, keyed = GetIdempotencyKey(c)
				c.Status(http.StatusOK)
			})

			before := testutil.ToFloat64(idemReplays.WithLabelValues("/surveys/generate"))

			req := httptest.NewRequest(http.MethodPost, "/surveys/generate", nil)
			if tc.header != "" {
				req.Header.Set(HeaderIdempotencyKey, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if keyed != (tc.header != "") {
				t.Fatalf("key stashed = %v", keyed)
			}
			if tc.wantCall {
				want := lookupCall{tc.uid, "/surveys/generate", tc.header}
				if len(calls) != 1 || calls[0] != want {
					t.Fatalf("calls = %+v; want [%+v]", calls, want)
				}
			} else if len(calls) != 0 {
				t.Fatalf("unexpected lookup: %+v", calls)
			}
			if replay != tc.wantReplay || bypass != (tc.wantReplay != "") {
				t.Fatalf("replay = %q bypass = %v", replay, bypass)
			}

			wantDelta := 0.0
			if tc.wantReplay != "" {
				wantDelta = 1
			}
			if got := testutil.ToFloat64(idemReplays.WithLabelValues("/surveys/generate")) - before; got != wantDelta {
				t.Fatalf("replay counter delta = %v; want %v", got, wantDelta)
			}
		})
	}
}
