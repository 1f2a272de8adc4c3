// Platform settings HTTP handler.
//
//   - POST /settings/qualtrics  (verify and store Qualtrics credentials)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// QualtricsSettingsRequest carries the credentials to verify and store.
type QualtricsSettingsRequest struct {
	APIToken   string `json:"qualtricsApiToken" example:"a1b2c3d4e5"`
	Datacenter string `json:"qualtricsDatacenter" example:"iad1"`
	BrandID    string `json:"qualtricsBrandId" example:"acme"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"Credentials updated successfully"`
}

// UpdateQualtricsSettings godoc
// @ID          updateQualtricsSettings
// @Summary     Store Qualtrics credentials
// @Description Verifies the credentials against the platform and stores them. Rejected credentials are not saved.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.QualtricsSettingsRequest  true  "Credentials"
// @Success     200   {object}  handlers.MessageResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing fields or invalid credentials"
// @Failure     401   {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     500   {object}  handlers.ErrorResponse  "Platform unreachable"
// @Router      /settings/qualtrics [post]
func (h *Handlers) UpdateQualtricsSettings(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	var req QualtricsSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.creds.Update(c.Request.Context(), uid, domain.QualtricsCredentials{
		APIToken:   req.APIToken,
		Datacenter: req.Datacenter,
		BrandID:    req.BrandID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Credentials updated successfully"})
}
