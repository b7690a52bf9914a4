package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"careerquest-service/internal/content"
	"careerquest-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

const defaultMotivation = "Great work! Keep building your skills."

var errNoValidQuestions = errors.New("no valid questions in response")

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func responseSchema(count int) *content.Schema {
	return &content.Schema{
		Type:     content.TypeArray,
		MinItems: intPtr(1),
		MaxItems: intPtr(count),
		Items: &content.Schema{
			Type: content.TypeObject,
			Properties: map[string]*content.Schema{
				"text":     {Type: content.TypeString, Description: "The question shown to the student"},
				"scenario": {Type: content.TypeString, Description: "Situation the question is based on"},
				"options": {
					Type:     content.TypeArray,
					Items:    &content.Schema{Type: content.TypeString},
					MinItems: intPtr(domain.OptionCount),
					MaxItems: intPtr(domain.OptionCount),
				},
				"correctIndex": {
					Type:        content.TypeInteger,
					Description: "0-based index of the correct option",
					Minimum:     floatPtr(0),
					Maximum:     floatPtr(domain.OptionCount - 1),
				},
				"explanation":         {Type: content.TypeString},
				"motivationalMessage": {Type: content.TypeString},
			},
			Required: []string{"text", "options", "correctIndex", "explanation", "motivationalMessage"},
		},
	}
}

// rawQuestion mirrors one generated item before it becomes a domain.Question.
type rawQuestion struct {
	Text                string   `json:"text" validate:"required"`
	Scenario            string   `json:"scenario"`
	Options             []string `json:"options" validate:"len=4,dive,required"`
	CorrectIndex        *int     `json:"correctIndex" validate:"required,min=0,max=3"`
	Explanation         string   `json:"explanation" validate:"required"`
	MotivationalMessage string   `json:"motivationalMessage"`
}

func (q *rawQuestion) repair() {
	q.Text = strings.TrimSpace(q.Text)
	q.Scenario = strings.TrimSpace(q.Scenario)
	q.Explanation = strings.TrimSpace(q.Explanation)
	q.MotivationalMessage = strings.TrimSpace(q.MotivationalMessage)
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
	if q.MotivationalMessage == "" {
		q.MotivationalMessage = defaultMotivation
	}
}

// decodeItems splits the payload into items; a payload that is not a JSON array fails as a whole.
func decodeItems(raw []byte) ([]json.RawMessage, error) {
	raw = stripCodeFence(raw)
	if len(raw) == 0 {
		return nil, content.ErrEmptyResponse
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode question array: %w", err)
	}
	if len(items) == 0 {
		return nil, errNoValidQuestions
	}
	return items, nil
}

func stripCodeFence(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("```")) {
		return raw
	}
	raw = bytes.TrimPrefix(raw, []byte("```"))
	if nl := bytes.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[nl+1:]
	}
	raw = bytes.TrimSuffix(bytes.TrimSpace(raw), []byte("```"))
	return bytes.TrimSpace(raw)
}

type itemValidator struct {
	validate *validator.Validate
}

func newItemValidator() *itemValidator {
	return &itemValidator{validate: validator.New()}
}

// check decodes, repairs and validates one item.
func (v *itemValidator) check(item json.RawMessage, set int) (rawQuestion, error) {
	var q rawQuestion
	if err := json.Unmarshal(item, &q); err != nil {
		return rawQuestion{}, fmt.Errorf("decode item: %w", err)
	}
	q.repair()
	if err := v.validate.Struct(q); err != nil {
		return rawQuestion{}, err
	}
	if ScenarioRequired(set) && q.Scenario == "" {
		return rawQuestion{}, fmt.Errorf("set %d requires a scenario", set)
	}
	return q, nil
}

// leaks reports the first excluded keyword of the set found in the item.
func leaks(q rawQuestion, set int) (string, bool) {
	haystack := strings.ToLower(q.Text + " " + q.Scenario)
	for _, kw := range focusFor(set).excluded {
		if strings.Contains(haystack, kw) {
			return kw, true
		}
	}
	return "", false
}
