package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultLanguage is the language every catalog entry is authored in.
	DefaultLanguage = "en"
	// MaxSets is the number of mutually exclusive topical sets per domain.
	MaxSets = 5
	// OptionCount is the number of answer options on every question.
	OptionCount = 4
)

// Category groups domains for filtering.
type Category string

const (
	CategoryAll          Category = "all"
	CategoryAviation     Category = "aviation"
	CategoryHospitality  Category = "hospitality"
	CategoryCareerSkills Category = "career-skills"
)

// ParseCategory normalizes user input into a Category.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case "":
		return CategoryAll, nil
	case CategoryAll, CategoryAviation, CategoryHospitality, CategoryCareerSkills:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
}

// Persona biases the register of generated content for a domain.
type Persona string

const (
	PersonaAviation      Persona = "aviation"
	PersonaHospitality   Persona = "hospitality"
	PersonaInterview     Persona = "interview-skills"
	PersonaCommunication Persona = "communication"
)

// Difficulty narrows the reasoning complexity expected from a question.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyExpert       Difficulty = "expert"
)

// ParseDifficulty normalizes user input into a Difficulty; empty input means basic.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return DifficultyBasic, nil
	case DifficultyBasic, DifficultyIntermediate, DifficultyExpert:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, raw)
	}
}

// ValidateSet checks that a set number is within 1..MaxSets.
func ValidateSet(set int) error {
	if set < 1 || set > MaxSets {
		return fmt.Errorf("%w: %d", ErrInvalidSet, set)
	}
	return nil
}

// UnlockedAfter returns the highest selectable set once highestPassed has been passed.
func UnlockedAfter(highestPassed int) int {
	if highestPassed >= MaxSets {
		return MaxSets
	}
	if highestPassed < 0 {
		return 1
	}
	return highestPassed + 1
}

// Domain is an assessable subject area (a department of the institute).
type Domain struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	LocalizedName        map[string]string `json:"localizedName,omitempty"`
	Description          string            `json:"description"`
	LocalizedDescription map[string]string `json:"localizedDescription,omitempty"`
	Category             Category          `json:"category"`
	Icon                 string            `json:"icon"`
	Theme                string            `json:"theme"`
	Persona              Persona           `json:"-"`
}

// DisplayName returns the name in lang, falling back to the default language.
func (d Domain) DisplayName(lang string) string {
	if v, ok := d.LocalizedName[lang]; ok && v != "" {
		return v
	}
	return d.Name
}

// Summary returns the description in lang, falling back to the default language.
func (d Domain) Summary(lang string) string {
	if v, ok := d.LocalizedDescription[lang]; ok && v != "" {
		return v
	}
	return d.Description
}

// Question is one multiple-choice assessment item.
type Question struct {
	ID                  string   `json:"id"`
	Category            string   `json:"category"`
	Text                string   `json:"text"`
	Scenario            string   `json:"scenario,omitempty"`
	Options             []string `json:"options"`
	CorrectIndex        int      `json:"correctIndex"`
	Explanation         string   `json:"explanation"`
	MotivationalMessage string   `json:"motivationalMessage"`
}

// SessionResult is the terminal snapshot of a completed quiz session.
type SessionResult struct {
	DomainID         string     `json:"domainId"`
	DomainName       string     `json:"domainName"`
	Difficulty       Difficulty `json:"difficulty"`
	Set              int        `json:"set"`
	Score            int        `json:"score"`
	Total            int        `json:"total"`
	Accuracy         int        `json:"accuracy"`
	ExperiencePoints int        `json:"experiencePoints"`
	Tier             string     `json:"tier"`
	Feedback         string     `json:"feedback"`
	Passed           bool       `json:"passed"`
}

// ProgressEvent is written to the progress collaborator when a session completes.
type ProgressEvent struct {
	PlayerID   string
	DomainID   string
	Difficulty Difficulty
	Set        int
	Score      int
	Total      int
	Passed     bool
}
