// Package services – SurveyService
//
// SurveyService turns a natural-language prompt into a survey in the user's
// Qualtrics account. The workflow is:
//
//  1. Check preconditions in order: prompt present, user exists, platform
//     credentials configured, positive balance. None of these call the AI.
//  2. Ask the provider for a JSON survey document.
//  3. Create the survey on the platform.
//  4. Charge the provider-reported cost, persist the survey and archive the
//     document.
//
// Charging rules:
//   - Provider failure: nothing is charged.
//   - Provider output unusable: the cost is charged, ErrGenerationFailed.
//   - Platform failure after a successful generation: the cost is charged, no
//     survey row is written, *PartialFailureError carries the charge.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/repo"
)

// SurveyService generates, stores and lists surveys.
type SurveyService struct {
	DB       *gorm.DB
	Ledger   *Ledger
	AI       Completer
	Platform SurveyPlatform
	// Archive is optional.
	Archive DocumentArchive

	Timeout        time.Duration
	MaxPromptRunes int

	// Title fallback config
	TitleLocale language.Tag
	TitleMaxLen int
}

// GenerateResult is the outcome of a successful generation.
type GenerateResult struct {
	Survey       *domain.Survey
	Document     domain.SurveyDocument
	TokenBalance int64
}

// Generate runs the full prompt-to-platform workflow for userID.
func (s *SurveyService) Generate(ctx context.Context, userID uint, prompt string) (*GenerateResult, error) {
	ctx, span := otel.Tracer("services/SurveyService").Start(ctx, "Generate",
		trace.WithAttributes(attribute.Int("user.id", int(userID))),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	user, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.HasQualtricsCredentials() {
		return nil, ErrCredentialsMissing
	}
	if user.TokenBalance <= 0 {
		quotaRejections.WithLabelValues(string(domain.TxSurvey)).Inc()
		return nil, &QuotaError{Balance: user.TokenBalance}
	}

	completion, err := complete(ctx, s.Timeout, func(ctx context.Context) (domain.Completion, error) {
		return s.AI.GenerateSurvey(ctx, prompt)
	})
	if err != nil {
		collaboratorFailures.WithLabelValues("ai").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	span.SetAttributes(attribute.Int64("tokens.used", completion.TokensUsed))

	doc, parseErr := domain.ParseSurveyDocument(completion.Text)
	if parseErr != nil {
		// The provider did the work; the cost stands.
		if _, _, err := s.Ledger.Charge(ctx, userID, completion.TokensUsed, domain.TxSurvey); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, parseErr)
	}
	if doc.Title == "" {
		doc.Title = s.clipTitle(s.generateTitleFromPrompt(prompt))
	}
	if doc.Title == "" {
		doc.Title = "Untitled survey"
	}

	qualtricsID, platformErr := s.Platform.CreateSurvey(ctx, user.Credentials(), &doc)

	charged, balance, err := s.Ledger.Charge(ctx, userID, completion.TokensUsed, domain.TxSurvey)
	if err != nil {
		return nil, err
	}
	if platformErr != nil {
		collaboratorFailures.WithLabelValues("qualtrics").Inc()
		span.RecordError(platformErr)
		return nil, &PartialFailureError{Stage: StagePlatform, TokensCharged: charged, Balance: balance, Err: platformErr}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	survey := &domain.Survey{
		UserID:      userID,
		QualtricsID: qualtricsID,
		Name:        doc.Title,
		Document:    raw,
	}
	if err := repo.CreateSurvey(ctx, s.DB, survey); err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).
			Uint("user_id", userID).
			Str("qualtrics_id", qualtricsID).
			Int64("tokens_charged", charged).
			Msg("persist generated survey")
		return nil, &PartialFailureError{
			Stage:         StagePersist,
			QualtricsID:   qualtricsID,
			TokensCharged: charged,
			Balance:       balance,
			Err:           err,
		}
	}

	if s.Archive != nil {
		if err := s.Archive.Put(ctx, userID, qualtricsID, raw); err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Uint("user_id", userID).
				Str("qualtrics_id", qualtricsID).
				Msg("archive survey document")
		}
	}

	return &GenerateResult{Survey: survey, Document: doc, TokenBalance: balance}, nil
}

// Get returns one of the user's surveys.
func (s *SurveyService) Get(ctx context.Context, userID, surveyID uint) (*domain.Survey, error) {
	sv, err := repo.GetSurvey(ctx, s.DB, surveyID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSurveyNotFound
	}
	return sv, err
}

// GetByRef resolves a survey id stored as text, e.g. an idempotency resource id.
func (s *SurveyService) GetByRef(ctx context.Context, userID uint, ref string) (*domain.Survey, error) {
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return nil, ErrSurveyNotFound
	}
	return s.Get(ctx, userID, uint(id))
}

// List returns all of the user's surveys, newest first.
func (s *SurveyService) List(ctx context.Context, userID uint) ([]domain.Survey, error) {
	return repo.ListSurveys(ctx, s.DB, userID)
}

// ListPage returns a page of the user's surveys and the total count.
// It applies defaults for invalid page/pageSize.
func (s *SurveyService) ListPage(ctx context.Context, userID uint, page, pageSize int) ([]domain.Survey, int64, error) {
	ctx, span := otel.Tracer("services/SurveyService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountSurveys(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Survey{}, 0, nil
	}
	items, err := repo.ListSurveysPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Stats returns the survey count and newest creation time, used for ETags.
func (s *SurveyService) Stats(ctx context.Context, userID uint) (int64, *time.Time, error) {
	return repo.SurveysStats(ctx, s.DB, userID)
}

// generateTitleFromPrompt builds a short title-cased name from the prompt's
// content words.
func (s *SurveyService) generateTitleFromPrompt(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}
	locale := s.TitleLocale
	if locale == language.Und {
		locale = language.English
	}
	titleCaser := cases.Title(locale)
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	return strings.Join(out, " ")
}

// DefaultTitleMaxLen is the rune budget for titles derived from a prompt.
const DefaultTitleMaxLen = 60

// clipTitle truncates a generated title to at most TitleMaxLen runes,
// backing off to the last whole word when one fits.
func (s *SurveyService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = DefaultTitleMaxLen
	}
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	cut := string(runes[:max])
	if runes[max] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimSpace(cut)
}

// Extract Unicode letters with optional trailing numbers (e.g., "gen2025").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"create": {}, "make": {}, "generate": {}, "survey": {}, "about": {}, "me": {},
}
