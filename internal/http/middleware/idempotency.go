// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe HTTP methods. It
// validates an Idempotency-Key request header, looks up a previously completed
// request for (user, route, key) and annotates the Gin context so downstream
// handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests and the resource they produced (ReplayOf)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Persistence stays behind the narrow IdempotencyLookup function type.
// Install it after Auth so the user identity is known.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HeaderIdempotencyKey is the request header that carries the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemResource = "idem.resource" // string: resource id of the stored result
	ctxKeyRateBypass   = "rate.bypass"   // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// ReplayOf returns the resource id recorded for this key when the request is
// a replay of a completed operation.
func ReplayOf(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemResource)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the request replays a completed operation.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayOf(c)
	return ok
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs to the lookup function.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to defaultKeyPattern.
	Pattern *regexp.Regexp
}

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

var idemReplays = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "idempotency_replays_total",
		Help: "Requests recognised as retries of a completed operation.",
	},
	[]string{"path"},
)

func init() {
	prometheus.MustRegister(idemReplays)
}

// IdempotencyLookup returns the resource id stored for (userID, scope, key)
// when a still-valid record exists at now.
type IdempotencyLookup func(ctx context.Context, userID uint, scope, key string, now time.Time) (resourceID string, found bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it, and marks replays using lookup. The scope of a key is the
// matched route, so one key may be reused on different endpoints.
//
//   - header absent: no-op
//   - header invalid: 400 bad_idempotency_key
//   - replay found: resource id stashed, rate limiting bypassed
//   - lookup error: logged, request proceeds as a first attempt
//
// It never serves a cached payload itself; handlers decide how to replay.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": GetRequestID(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid, ok := UserID(c)
		if !ok || lookup == nil {
			c.Next()
			return
		}
		res, found, err := lookup(c.Request.Context(), uid, c.FullPath(), key, time.Now().UTC())
		switch {
		case err != nil:
			LoggerFrom(c).Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
		case found && res != "":
			c.Set(ctxKeyIdemResource, res)
			c.Set(ctxKeyRateBypass, true)
			idemReplays.WithLabelValues(routeLabel(c)).Inc()
		}
		c.Next()
	}
}
