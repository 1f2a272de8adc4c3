// Chat HTTP handler.
//
//   - POST /chat  (next assistant turn of a survey-design conversation)
//
// The client sends the whole conversation each time; nothing is stored
// server-side except the ledger entry for the tokens the turn consumed.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ChatRequest is the conversation so far, oldest message first.
type ChatRequest struct {
	Messages []domain.Message `json:"messages" binding:"required"`
}

// Chat godoc
// @ID          chat
// @Summary     Chat with the survey assistant
// @Description Returns the next assistant message and charges the tokens it used.
// @Description Requires a positive balance; the provider is not called otherwise.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.ChatRequest  true  "Conversation"
// @Success     200   {object}  services.ChatResult
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid messages"
// @Failure     401   {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     402   {object}  handlers.ErrorResponse  "Insufficient tokens (includes tokenBalance)"
// @Failure     500   {object}  handlers.ErrorResponse  "Provider failure"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "messages are required")
		return
	}
	res, err := h.chat.Chat(c.Request.Context(), uid, req.Messages)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
