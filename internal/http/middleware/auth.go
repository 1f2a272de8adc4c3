package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxKeyUserID = "userID"

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(token string) (uint, error)
}

// AuthOptions configures Auth.
type AuthOptions struct {
	// CookieName is checked when no Authorization header is sent.
	CookieName string
}

// Auth requires a valid session. The token is read from
// "Authorization: Bearer <token>" or, failing that, from the session cookie.
// On success the user id is stored in the Gin context (see UserID).
func Auth(a Authenticator, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && opts.CookieName != "" {
			token, _ = c.Cookie(opts.CookieName)
		}
		uid, err := a.Authenticate(token)
		if err != nil || uid == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": GetRequestID(c),
				"code":       "unauthorized",
				"message":    "authentication required",
			})
			return
		}
		SetUserID(c, uid)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// SetUserID records the authenticated identity on the context.
func SetUserID(c *gin.Context, id uint) { c.Set(ctxKeyUserID, id) }

func bearerToken(h string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
