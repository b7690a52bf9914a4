// Package quiz holds the per-player quiz engine: a pure state machine over one question batch
// and the scoring summary computed when it ends.
package quiz

import (
	"errors"
	"time"

	"careerquest-service/internal/domain"
)

var ErrNoQuestions = errors.New("quiz needs at least one question")

// Rules are the fixed knobs of a round.
type Rules struct {
	MaxLives          int           `json:"maxLives"`
	QuestionsPerRound int           `json:"questionsPerRound"`
	AutoEndDelay      time.Duration `json:"-"`
	PointsPerCorrect  int           `json:"pointsPerCorrect"`
}

func DefaultRules() Rules {
	return Rules{
		MaxLives:          5,
		QuestionsPerRound: 20,
		AutoEndDelay:      2 * time.Second,
		PointsPerCorrect:  100,
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.MaxLives <= 0 {
		r.MaxLives = def.MaxLives
	}
	if r.QuestionsPerRound <= 0 {
		r.QuestionsPerRound = def.QuestionsPerRound
	}
	if r.AutoEndDelay <= 0 {
		r.AutoEndDelay = def.AutoEndDelay
	}
	if r.PointsPerCorrect <= 0 {
		r.PointsPerCorrect = def.PointsPerCorrect
	}
	return r
}

type Phase string

const (
	AwaitingSelection Phase = "awaiting-selection"
	OptionSelected    Phase = "option-selected"
	Revealed          Phase = "revealed"
	SessionEnded      Phase = "ended"
	SessionAborted    Phase = "aborted"
)

// Terminal reports whether no further event can change the state.
func (p Phase) Terminal() bool {
	return p == SessionEnded || p == SessionAborted
}

// NoSelection marks a question without a chosen option.
const NoSelection = -1

// State is one attempt at a batch. It is a value; Reduce returns a new one.
type State struct {
	Questions []domain.Question
	Index     int
	Lives     int
	Score     int
	Selected  int
	Phase     Phase
	Rules     Rules
}

// Start begins a round over questions, presented in the given order.
func Start(questions []domain.Question, rules Rules) (State, error) {
	if len(questions) == 0 {
		return State{}, ErrNoQuestions
	}
	rules = rules.withDefaults()
	return State{
		Questions: questions,
		Lives:     rules.MaxLives,
		Selected:  NoSelection,
		Phase:     AwaitingSelection,
		Rules:     rules,
	}, nil
}

// Current returns the question on screen.
func (s State) Current() domain.Question {
	return s.Questions[s.Index]
}

// Ceiling is the last index the round can reach.
func (s State) Ceiling() int {
	n := len(s.Questions)
	if s.Rules.QuestionsPerRound < n {
		n = s.Rules.QuestionsPerRound
	}
	return n - 1
}

// Presented is the number of questions shown so far, including the current one.
func (s State) Presented() int {
	return s.Index + 1
}

// Points is the cosmetic score shown during play.
func (s State) Points() int {
	return s.Score * s.Rules.PointsPerCorrect
}

// Summary scores the questions presented so far.
func (s State) Summary() Summary {
	return Summarize(s.Score, s.Presented())
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

type (
	SelectOption struct{ Option int }
	Submit       struct{}
	Advance      struct{}
	// AutoEnd is fed by the caller's timer after Rules.AutoEndDelay.
	AutoEnd struct{}
	Exit    struct{}
)

func (SelectOption) isEvent() {}
func (Submit) isEvent()       {}
func (Advance) isEvent()      {}
func (AutoEnd) isEvent()      {}
func (Exit) isEvent()         {}

// Effects tell the caller what to do after a transition. A no-op transition has zero Effects.
type Effects struct {
	Changed         bool
	QuestionChanged bool
	ScheduleAutoEnd bool
	Ended           bool
	Aborted         bool
	Correct         *bool
}

// Reduce applies ev to s. Events that are not valid in the current phase leave s unchanged.
func Reduce(s State, ev Event) (State, Effects) {
	switch e := ev.(type) {
	case SelectOption:
		return selectOption(s, e.Option)
	case Submit:
		return submit(s)
	case Advance:
		return advance(s)
	case AutoEnd:
		if s.Phase != Revealed || s.Lives > 0 {
			return s, Effects{}
		}
		s.Phase = SessionEnded
		return s, Effects{Changed: true, Ended: true}
	case Exit:
		if s.Phase.Terminal() {
			return s, Effects{}
		}
		s.Phase = SessionAborted
		return s, Effects{Changed: true, Aborted: true}
	}
	return s, Effects{}
}

func selectOption(s State, option int) (State, Effects) {
	if s.Phase != AwaitingSelection && s.Phase != OptionSelected {
		return s, Effects{}
	}
	if option < 0 || option >= len(s.Current().Options) {
		return s, Effects{}
	}
	if s.Phase == OptionSelected && s.Selected == option {
		return s, Effects{}
	}
	s.Selected = option
	s.Phase = OptionSelected
	return s, Effects{Changed: true}
}

func submit(s State) (State, Effects) {
	if s.Phase != OptionSelected {
		return s, Effects{}
	}
	correct := s.Selected == s.Current().CorrectIndex
	if correct {
		s.Score++
	} else if s.Lives > 0 {
		s.Lives--
	}
	s.Phase = Revealed
	return s, Effects{Changed: true, Correct: &correct, ScheduleAutoEnd: s.Lives == 0}
}

func advance(s State) (State, Effects) {
	if s.Phase != Revealed {
		return s, Effects{}
	}
	if s.Lives == 0 || s.Index >= s.Ceiling() {
		s.Phase = SessionEnded
		return s, Effects{Changed: true, Ended: true}
	}
	s.Index++
	s.Selected = NoSelection
	s.Phase = AwaitingSelection
	return s, Effects{Changed: true, QuestionChanged: true}
}
