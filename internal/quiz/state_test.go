package quiz_test

import (
	"errors"
	"fmt"
	"testing"

	"careerquest-service/internal/domain"
	"careerquest-service/internal/quiz"
)

func batch(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Text:         fmt.Sprintf("Question %d", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % domain.OptionCount,
		}
	}
	return questions
}

func mustStart(t *testing.T, n int) quiz.State {
	t.Helper()
	s, err := quiz.Start(batch(n), quiz.DefaultRules())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return s
}

// answer selects and submits, answering correctly when right is true.
func answer(s quiz.State, right bool) (quiz.State, quiz.Effects) {
	option := s.Current().CorrectIndex
	if !right {
		option = (option + 1) % domain.OptionCount
	}
	s, _ = quiz.Reduce(s, quiz.SelectOption{Option: option})
	return quiz.Reduce(s, quiz.Submit{})
}

func TestStartRejectsEmptyBatch(t *testing.T) {
	if _, err := quiz.Start(nil, quiz.DefaultRules()); !errors.Is(err, quiz.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestStartAppliesDefaults(t *testing.T) {
	s, err := quiz.Start(batch(1), quiz.Rules{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if s.Lives != 5 || s.Rules.QuestionsPerRound != 20 || s.Selected != quiz.NoSelection || s.Phase != quiz.AwaitingSelection {
		t.Fatalf("unexpected initial state %+v", s)
	}
}

func TestFullRoundOfTwentyQuestions(t *testing.T) {
	s := mustStart(t, 20)
	rounds := 0
	for {
		var eff quiz.Effects
		s, _ = answer(s, rounds%5 != 0)
		rounds++
		s, eff = quiz.Reduce(s, quiz.Advance{})
		if eff.Ended {
			break
		}
		if !eff.QuestionChanged {
			t.Fatalf("advance should move to the next question")
		}
		if rounds > 20 {
			t.Fatalf("session did not end after 20 rounds")
		}
	}
	if rounds != 20 {
		t.Fatalf("expected 20 rounds, got %d", rounds)
	}
	if s.Phase != quiz.SessionEnded {
		t.Fatalf("expected ended phase, got %s", s.Phase)
	}
	summary := s.Summary()
	if summary.Total != 20 || summary.ExperiencePoints != s.Score*100 {
		t.Fatalf("unexpected summary %+v (score %d)", summary, s.Score)
	}
}

func TestFiveWrongAnswersEndEarly(t *testing.T) {
	s := mustStart(t, 20)
	for i := 0; i < 5; i++ {
		var eff quiz.Effects
		s, eff = answer(s, false)
		if i < 4 {
			if eff.ScheduleAutoEnd {
				t.Fatalf("auto end scheduled too early at answer %d", i+1)
			}
			s, _ = quiz.Reduce(s, quiz.Advance{})
			continue
		}
		if !eff.ScheduleAutoEnd {
			t.Fatalf("expected auto end after fifth wrong answer")
		}
	}
	if s.Lives != 0 || s.Phase != quiz.Revealed {
		t.Fatalf("expected revealed state with no lives, got %+v", s)
	}

	ended, eff := quiz.Reduce(s, quiz.AutoEnd{})
	if !eff.Ended || ended.Phase != quiz.SessionEnded {
		t.Fatalf("auto end did not end the session")
	}
	if got := ended.Summary().Total; got != 5 {
		t.Fatalf("expected 5 presented questions, got %d", got)
	}

	// An explicit advance ends it as well.
	viaAdvance, eff := quiz.Reduce(s, quiz.Advance{})
	if !eff.Ended || viaAdvance.Index != 4 {
		t.Fatalf("advance with no lives should end on the same question")
	}
}

func TestAutoEndIgnoredWhileLivesRemain(t *testing.T) {
	s := mustStart(t, 3)
	s, _ = answer(s, false)
	next, eff := quiz.Reduce(s, quiz.AutoEnd{})
	if eff != (quiz.Effects{}) || next.Phase != quiz.Revealed {
		t.Fatalf("auto end should be a no-op with lives left")
	}
}

func TestShortBatchEndsAtLastQuestion(t *testing.T) {
	s := mustStart(t, 2)
	s, _ = answer(s, true)
	s, eff := quiz.Reduce(s, quiz.Advance{})
	if !eff.QuestionChanged || s.Index != 1 {
		t.Fatalf("expected second question")
	}
	s, _ = answer(s, true)
	s, eff = quiz.Reduce(s, quiz.Advance{})
	if !eff.Ended || s.Score != 2 {
		t.Fatalf("expected end with score 2, got %+v", s)
	}
}

func TestCeilingCapsLongBatches(t *testing.T) {
	s := mustStart(t, 25)
	if got := s.Ceiling(); got != 19 {
		t.Fatalf("expected ceiling 19, got %d", got)
	}
}

func TestInvalidTransitionsAreNoOps(t *testing.T) {
	s := mustStart(t, 3)

	for _, ev := range []quiz.Event{quiz.Submit{}, quiz.Advance{}, quiz.AutoEnd{}, quiz.SelectOption{Option: 7}, quiz.SelectOption{Option: -1}} {
		next, eff := quiz.Reduce(s, ev)
		if eff != (quiz.Effects{}) || next.Phase != s.Phase || next.Selected != s.Selected {
			t.Fatalf("%T should be a no-op while awaiting selection", ev)
		}
	}

	s, _ = quiz.Reduce(s, quiz.SelectOption{Option: 2})
	again, eff := quiz.Reduce(s, quiz.SelectOption{Option: 2})
	if eff != (quiz.Effects{}) || again.Selected != 2 {
		t.Fatalf("re-selecting the same option should leave state unchanged")
	}
	swapped, eff := quiz.Reduce(s, quiz.SelectOption{Option: 1})
	if !eff.Changed || swapped.Selected != 1 {
		t.Fatalf("selecting another option should replace the selection")
	}

	revealed, _ := quiz.Reduce(swapped, quiz.Submit{})
	for _, ev := range []quiz.Event{quiz.Submit{}, quiz.SelectOption{Option: 3}} {
		next, eff := quiz.Reduce(revealed, ev)
		if eff != (quiz.Effects{}) || next.Score != revealed.Score || next.Lives != revealed.Lives || next.Selected != revealed.Selected {
			t.Fatalf("%T should be a no-op once revealed", ev)
		}
	}
}

func TestSubmitScoresAndConsumesLives(t *testing.T) {
	s := mustStart(t, 3)
	s, eff := answer(s, true)
	if eff.Correct == nil || !*eff.Correct || s.Score != 1 || s.Lives != 5 {
		t.Fatalf("correct answer should add score, got %+v", s)
	}
	s, _ = quiz.Reduce(s, quiz.Advance{})
	s, eff = answer(s, false)
	if eff.Correct == nil || *eff.Correct || s.Score != 1 || s.Lives != 4 {
		t.Fatalf("wrong answer should consume a life, got %+v", s)
	}
	if s.Points() != 100 {
		t.Fatalf("expected 100 points, got %d", s.Points())
	}
}

func TestExit(t *testing.T) {
	s := mustStart(t, 3)
	aborted, eff := quiz.Reduce(s, quiz.Exit{})
	if !eff.Aborted || aborted.Phase != quiz.SessionAborted {
		t.Fatalf("exit should abort")
	}
	if _, eff := quiz.Reduce(aborted, quiz.Exit{}); eff != (quiz.Effects{}) {
		t.Fatalf("exit from a terminal phase should be a no-op")
	}
}

func TestLivesAndScoreStayInBounds(t *testing.T) {
	s := mustStart(t, 20)
	events := []quiz.Event{
		quiz.SelectOption{Option: 1}, quiz.Submit{}, quiz.Advance{}, quiz.Submit{},
		quiz.SelectOption{Option: 0}, quiz.Submit{}, quiz.Submit{}, quiz.Advance{}, quiz.Advance{},
	}
	for i := 0; i < 12; i++ {
		for _, ev := range events {
			prevScore := s.Score
			s, _ = quiz.Reduce(s, ev)
			if s.Lives < 0 || s.Lives > s.Rules.MaxLives {
				t.Fatalf("lives out of bounds: %d", s.Lives)
			}
			if s.Score < prevScore {
				t.Fatalf("score decreased from %d to %d", prevScore, s.Score)
			}
			if s.Index < 0 || s.Index >= len(s.Questions) {
				t.Fatalf("index out of bounds: %d", s.Index)
			}
		}
	}
	if !s.Phase.Terminal() {
		t.Fatalf("expected the session to have ended, got %s", s.Phase)
	}
}
