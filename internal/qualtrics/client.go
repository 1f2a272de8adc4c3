// Package qualtrics is a small REST client for the Qualtrics v3 survey
// definitions API. Every call is made with the calling user's API token
// against the host of their datacenter.
package qualtrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// DefaultBaseURL is the v3 API root; {datacenter} is substituted per user.
const DefaultBaseURL = "https://{datacenter}.qualtrics.com/API/v3"

// Client calls the Qualtrics API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New returns a Client. baseURL may contain "{datacenter}"; an empty value
// selects DefaultBaseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		hc.SetTimeout(timeout)
	}
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/")}
}

// apiError is the error envelope Qualtrics returns on non-2xx responses.
type apiError struct {
	Meta struct {
		HTTPStatus string `json:"httpStatus"`
		Error      struct {
			ErrorMessage string `json:"errorMessage"`
			ErrorCode    string `json:"errorCode"`
		} `json:"error"`
	} `json:"meta"`
}

func (e *apiError) message() string {
	if e == nil {
		return ""
	}
	return e.Meta.Error.ErrorMessage
}

type surveyShell struct {
	Name            string `json:"name"`
	ProjectCategory string `json:"projectCategory"`
}

type createResult struct {
	Result struct {
		SurveyID string `json:"SurveyID"`
		ID       string `json:"id"`
	} `json:"result"`
}

type choice struct {
	Text string `json:"text"`
}

type questionBody struct {
	QuestionText string             `json:"questionText"`
	QuestionType string             `json:"questionType"`
	Choices      []choice           `json:"choices,omitempty"`
	Validation   *domain.Validation `json:"validation,omitempty"`
}

func (c *Client) url(datacenter, path string) string {
	return strings.ReplaceAll(c.baseURL, "{datacenter}", datacenter) + path
}

func (c *Client) request(ctx context.Context, creds domain.QualtricsCredentials) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("X-API-TOKEN", creds.APIToken).
		SetError(&apiError{})
}

// VerifyCredentials calls /whoami. A 401 or 403 answer means the token was
// rejected; any other failure is returned as an error.
func (c *Client) VerifyCredentials(ctx context.Context, creds domain.QualtricsCredentials) (bool, error) {
	resp, err := c.request(ctx, creds).Get(c.url(creds.Datacenter, "/whoami"))
	if err != nil {
		return false, fmt.Errorf("qualtrics whoami: %w", err)
	}
	switch {
	case resp.IsSuccess():
		return true, nil
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return false, nil
	default:
		return false, statusError("whoami", resp)
	}
}

// CreateSurvey creates the survey shell and then adds each question in
// document order. Questions already added stay in place if a later one fails.
func (c *Client) CreateSurvey(ctx context.Context, creds domain.QualtricsCredentials, doc *domain.SurveyDocument) (string, error) {
	if doc == nil {
		return "", errors.New("qualtrics: nil survey document")
	}
	var out createResult
	resp, err := c.request(ctx, creds).
		SetBody(surveyShell{Name: doc.Title, ProjectCategory: creds.BrandID}).
		SetResult(&out).
		Post(c.url(creds.Datacenter, "/survey-definitions"))
	if err != nil {
		return "", fmt.Errorf("qualtrics create survey: %w", err)
	}
	if !resp.IsSuccess() {
		return "", statusError("create survey", resp)
	}
	id := out.Result.SurveyID
	if id == "" {
		id = out.Result.ID
	}
	if id == "" {
		return "", errors.New("qualtrics create survey: response carried no survey id")
	}

	for i, q := range doc.Questions {
		if err := c.addQuestion(ctx, creds, id, q); err != nil {
			return "", fmt.Errorf("qualtrics add question %d to %s: %w", i+1, id, err)
		}
	}
	return id, nil
}

func (c *Client) addQuestion(ctx context.Context, creds domain.QualtricsCredentials, surveyID string, q domain.Question) error {
	body := questionBody{
		QuestionText: q.Text,
		QuestionType: MapQuestionType(q.Type),
		Validation:   q.Validation,
	}
	for _, ch := range q.Choices {
		body.Choices = append(body.Choices, choice{Text: ch})
	}
	resp, err := c.request(ctx, creds).
		SetBody(body).
		Post(c.url(creds.Datacenter, "/survey-definitions/"+surveyID+"/questions"))
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return statusError("add question", resp)
	}
	return nil
}

// MapQuestionType converts a document question type to a Qualtrics type code.
func MapQuestionType(t string) string {
	switch t {
	case domain.QuestionMultipleChoice:
		return "MC"
	case domain.QuestionRating:
		return "Matrix"
	default:
		return "TE"
	}
}

// maxErrorRunes bounds how much of a platform error body is surfaced.
const maxErrorRunes = 200

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func statusError(op string, resp *resty.Response) error {
	msg := ""
	if e, ok := resp.Error().(*apiError); ok {
		msg = e.message()
	}
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("qualtrics %s: status %d: %s", op, resp.StatusCode(), clipRunes(msg, maxErrorRunes))
}
