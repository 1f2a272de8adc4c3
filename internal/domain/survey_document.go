package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Question types understood by the generator.
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionText           = "text"
	QuestionRating         = "rating"
)

// Validation holds optional answer constraints for a question.
type Validation struct {
	Required bool `json:"required"`
	Min      *int `json:"min,omitempty"`
	Max      *int `json:"max,omitempty"`
}

// Question is a single survey item.
type Question struct {
	Type       string      `json:"type" example:"multiple_choice"`
	Text       string      `json:"text" example:"How often do you shop online?"`
	Choices    []string    `json:"choices,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
}

// SurveyDocument is the structured output of survey generation.
type SurveyDocument struct {
	Title       string     `json:"title" example:"Online shopping habits"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// ErrMalformedSurvey is returned when generated text cannot be used as a survey.
var ErrMalformedSurvey = errors.New("malformed survey document")

// ParseSurveyDocument decodes model output into a SurveyDocument. Markdown
// code fences around the JSON are tolerated. The document must carry at least
// one question with text; a missing title is left empty for the caller to fill.
func ParseSurveyDocument(raw string) (SurveyDocument, error) {
	var doc SurveyDocument
	body := stripFence(raw)
	if body == "" {
		return doc, fmt.Errorf("%w: empty output", ErrMalformedSurvey)
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrMalformedSurvey, err)
	}
	doc.Title = strings.TrimSpace(doc.Title)
	kept := doc.Questions[:0]
	for _, q := range doc.Questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			continue
		}
		q.Type = strings.ToLower(strings.TrimSpace(q.Type))
		kept = append(kept, q)
	}
	doc.Questions = kept
	if len(doc.Questions) == 0 {
		return doc, fmt.Errorf("%w: no questions", ErrMalformedSurvey)
	}
	return doc, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
