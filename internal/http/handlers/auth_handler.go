// Account and session HTTP handlers.
//
//   - POST /register  (create account, returns a session)
//   - POST /login     (issue a session, sets the session cookie)
//   - POST /logout    (clear the session cookie)
//   - GET  /user      (current account incl. tokenBalance)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// CredentialsRequest is the payload for register and login.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Creates an account with the starting token grant and returns a session.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CredentialsRequest  true  "Username and password"
// @Success     201   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid username or password"
// @Failure     409   {object}  handlers.ErrorResponse  "Username taken"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.auth.Register(ctx, req.Username, req.Password); err != nil {
		writeError(c, err)
		return
	}
	sess, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setSessionCookie(c, sess.Token, sess.ExpiresAt)
	ok(c, http.StatusCreated, SessionResponse{User: sess.User, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies the password, returns a bearer token and sets the session cookie.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CredentialsRequest  true  "Username and password"
// @Success     200   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid username or password"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setSessionCookie(c, sess.Token, sess.ExpiresAt)
	ok(c, http.StatusOK, SessionResponse{User: sess.User, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Clears the session cookie. Bearer tokens stay valid until they expire.
// @Tags        Auth
// @Success     204  {string}  string  "No Content"
// @Router      /logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.CookieSecure, true)
	noContent(c)
}

// Me godoc
// @ID          currentUser
// @Summary     Current user
// @Description Returns the authenticated account, including the token balance.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Account removed"
// @Router      /user [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	u, err := h.auth.Me(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

func (h *Handlers) setSessionCookie(c *gin.Context, token string, exp time.Time) {
	maxAge := int(time.Until(exp).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, maxAge, "/", "", h.opts.CookieSecure, true)
}
