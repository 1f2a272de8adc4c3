// Survey HTTP handlers.
//
//   - POST /surveys/generate  (prompt → survey on the user's platform account)
//   - GET  /surveys           (caller's surveys, paginated, ETag support)
//
// The list body is a bare JSON array; pagination metadata travels in the
// X-Total-Count, X-Page, X-Page-Size and X-Has-Next headers.
//
// Idempotency:
// When the client sends an Idempotency-Key and the same key already produced
// a survey, the stored survey is returned with `Idempotency-Replayed: true`
// and nothing is generated or charged again.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/utils"
)

// GenerateSurveyRequest is the natural-language description of the survey.
type GenerateSurveyRequest struct {
	Prompt string `json:"prompt" example:"A short survey about remote work satisfaction"`
}

// GenerateSurveyResponse describes the created survey.
type GenerateSurveyResponse struct {
	// Platform survey id
	SurveyID string `json:"surveyId" example:"SV_4Ip2rTnYQ0kR2Ul"`
	// Local record id
	ID           uint            `json:"id" example:"12"`
	SurveyData   json.RawMessage `json:"surveyData" swaggertype:"object"`
	TokenBalance int64           `json:"tokenBalance" example:"9188"`
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 100
		maxPageSize     = 100
	)
	page = utils.AtLeast(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// GenerateSurvey godoc
// @ID          generateSurvey
// @Summary     Generate a survey
// @Description Generates a survey from the prompt, creates it in the user's Qualtrics account and charges the tokens used.
// @Description Preconditions are checked in order: prompt, credentials, balance. None of them call the AI provider.
// @Description Supports idempotency via the Idempotency-Key header (same key → same survey, no second charge).
// @Tags        Surveys
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.GenerateSurveyRequest  true  "Prompt"
// @Success     200  {object}  handlers.GenerateSurveyResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing prompt or Qualtrics settings"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient tokens (includes tokenBalance)"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failed"
// @Failure     502  {object}  handlers.ErrorResponse  "Charged, but the platform rejected the survey (includes tokenBalance, tokensCharged)"
// @Router      /surveys/generate [post]
func (h *Handlers) GenerateSurvey(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	if ref, replay := middleware.ReplayOf(c); replay {
		if sv, err := h.surveys.GetByRef(ctx, uid, ref); err == nil {
			u, err := h.auth.Me(ctx, uid)
			if err != nil {
				writeError(c, err)
				return
			}
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, GenerateSurveyResponse{
				SurveyID:     sv.QualtricsID,
				ID:           sv.ID,
				SurveyData:   json.RawMessage(sv.Document),
				TokenBalance: u.TokenBalance,
			})
			return
		}
		// A key that points at a missing survey must not generate a second one.
		fail(c, http.StatusConflict, ErrCodeConflict, "idempotency key already used")
		return
	}

	var req GenerateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "Prompt is required")
		return
	}

	res, err := h.surveys.Generate(ctx, uid, req.Prompt)
	if err != nil {
		writeError(c, err)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.idem != nil {
		if err := h.idem.Save(ctx, uid, c.FullPath(), key, strconv.FormatUint(uint64(res.Survey.ID), 10), http.StatusOK); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
		}
	}

	ok(c, http.StatusOK, GenerateSurveyResponse{
		SurveyID:     res.Survey.QualtricsID,
		ID:           res.Survey.ID,
		SurveyData:   json.RawMessage(res.Survey.Document),
		TokenBalance: res.TokenBalance,
	})
}

// ListSurveys godoc
// @ID          listSurveys
// @Summary     List surveys (paginated)
// @Description Returns a page of the caller's surveys, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Surveys
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"surveys:1:3:1700000000\")
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(100)
// @Success     200  {array}   domain.Survey
// @Header      200  {string}  ETag           "Weak ETag for current result"
// @Header      200  {int}     X-Total-Count  "Number of surveys the caller owns"
// @Header      200  {bool}    X-Has-Next     "Whether another page exists"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /surveys [get]
func (h *Handlers) ListSurveys(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Surveys are immutable, so count and
	// newest timestamp identify the list.
	if count, maxTS, err := h.surveys.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"surveys:%d:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.surveys.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.Header("X-Page", strconv.Itoa(page))
	c.Header("X-Page-Size", strconv.Itoa(pageSize))
	c.Header("X-Has-Next", strconv.FormatBool(page < totalPages))
	if items == nil {
		items = []domain.Survey{}
	}
	ok(c, http.StatusOK, items)
}
