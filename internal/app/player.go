package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"careerquest-service/internal/domain"
	"careerquest-service/internal/generator"
	"careerquest-service/internal/identity"
	"careerquest-service/internal/quiz"
	"github.com/google/uuid"
)

type Stage string

const (
	StageDomainSelection Stage = "domain-selection"
	StageLoading         Stage = "loading"
	StageQuiz            Stage = "quiz"
	StageResults         Stage = "results"
)

const loadFailedNotice = "Questions could not be loaded. Please choose a department and try again."

// Hooks observe a player. They run with the player locked and must not call back into it.
type Hooks struct {
	OnChange func(Snapshot)
	// OnAttentionReset fires when a new question is shown so the surface can scroll to the top.
	OnAttentionReset func(index int)
}

// ChooseRequest starts a round.
type ChooseRequest struct {
	DomainID   string            `json:"domainId"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Language   string            `json:"language"`
	Set        int               `json:"set"`
}

// Player sequences one person's visit: domain selection, loading, quiz and results.
type Player struct {
	id       string
	learner  string
	name     string
	svc      *QuizService
	hooks    Hooks
	joinedAt time.Time

	mu       sync.Mutex
	stage    Stage
	choice   ChooseRequest
	selected domain.Domain
	token    string
	cancel   context.CancelFunc
	state    quiz.State
	degraded bool
	result   *domain.SessionResult
	notice   string
	epoch    int
	stopTimer func() bool
}

func (p *Player) ID() string { return p.id }

// LearnerKey identifies whose progress this player reads and writes.
func (p *Player) LearnerKey() string { return p.learner }

func (p *Player) Name() string { return p.name }

func (p *Player) Greeting() string { return identity.Greeting(p.name) }

func (p *Player) JoinedAt() time.Time { return p.joinedAt }

// Stage returns the player's current stage.
func (p *Player) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Choose validates the request and starts generating questions in the background.
func (p *Player) Choose(ctx context.Context, req ChooseRequest) error {
	d, ok := p.svc.catalog.Lookup(req.DomainID)
	if !ok {
		return domain.ErrDomainNotFound
	}
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyBasic
	}
	difficulty, err := domain.ParseDifficulty(string(req.Difficulty))
	if err != nil {
		return err
	}
	req.Difficulty = difficulty
	if req.Set == 0 {
		req.Set = 1
	}
	if err := domain.ValidateSet(req.Set); err != nil {
		return err
	}
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))
	if req.Language == "" {
		req.Language = domain.DefaultLanguage
	}
	if p.svc.enforceUnlocks {
		unlocked, err := p.svc.UnlockedSet(ctx, p.learner, d.ID, req.Difficulty)
		if err != nil {
			return err
		}
		if req.Set > unlocked {
			return domain.ErrSetLocked
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != StageDomainSelection {
		return domain.ErrInvalidStage
	}

	loadCtx, cancel := context.WithCancel(ctx)
	p.token = uuid.NewString()
	p.cancel = cancel
	p.choice = req
	p.selected = d
	p.notice = ""
	p.stage = StageLoading
	p.notifyLocked()

	go p.load(loadCtx, p.token, generator.Request{
		Domain:     d,
		Count:      p.svc.rules.QuestionsPerRound,
		Difficulty: req.Difficulty,
		Language:   req.Language,
		Set:        req.Set,
	})
	return nil
}

func (p *Player) load(ctx context.Context, token string, req generator.Request) {
	batch, err := p.svc.fetch(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if token != p.token {
		log.Printf("[session] player %s: ignoring stale batch for %q", p.id, req.Domain.Name)
		return
	}
	p.clearRequestLocked()

	if err == nil {
		p.state, err = quiz.Start(batch.Questions, p.svc.rules)
	}
	if err != nil {
		log.Printf("[session] player %s: loading %q failed: %v", p.id, req.Domain.Name, err)
		p.stage = StageDomainSelection
		p.notice = loadFailedNotice
		p.notifyLocked()
		return
	}
	p.degraded = batch.Degraded()
	p.stage = StageQuiz
	p.epoch++
	p.notifyLocked()
	p.attentionLocked()
}

func (p *Player) Select(option int) error {
	return p.apply(quiz.SelectOption{Option: option})
}

func (p *Player) Submit() error {
	return p.apply(quiz.Submit{})
}

func (p *Player) Advance() error {
	return p.apply(quiz.Advance{})
}

// Exit abandons the pending request or the running quiz and returns to domain selection.
func (p *Player) Exit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.stage {
	case StageLoading:
		p.clearRequestLocked()
	case StageQuiz:
		p.state, _ = quiz.Reduce(p.state, quiz.Exit{})
		p.stopTimerLocked()
		p.epoch++
	case StageResults:
		p.result = nil
	default:
		return nil
	}
	p.stage = StageDomainSelection
	p.notifyLocked()
	return nil
}

// Continue leaves the results screen.
func (p *Player) Continue() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != StageResults {
		return domain.ErrInvalidStage
	}
	p.result = nil
	p.stage = StageDomainSelection
	p.notifyLocked()
	return nil
}

func (p *Player) apply(ev quiz.Event) error {
	var progress *domain.ProgressEvent
	defer func() { p.svc.record(progress) }()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != StageQuiz {
		return domain.ErrInvalidStage
	}
	progress = p.reduceLocked(ev)
	return nil
}

func (p *Player) autoEnd(epoch int) {
	var progress *domain.ProgressEvent
	defer func() { p.svc.record(progress) }()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != StageQuiz || epoch != p.epoch {
		return
	}
	progress = p.reduceLocked(quiz.AutoEnd{})
}

// reduceLocked feeds the quiz engine and acts on its effects. It returns the progress
// event to record once the lock is released.
func (p *Player) reduceLocked(ev quiz.Event) *domain.ProgressEvent {
	next, eff := quiz.Reduce(p.state, ev)
	if !eff.Changed {
		return nil
	}
	p.state = next

	if eff.ScheduleAutoEnd {
		p.stopTimerLocked()
		epoch := p.epoch
		p.stopTimer = p.svc.afterFunc(p.state.Rules.AutoEndDelay, func() { p.autoEnd(epoch) })
	}
	if !eff.Ended {
		p.notifyLocked()
		if eff.QuestionChanged {
			p.attentionLocked()
		}
		return nil
	}

	p.stopTimerLocked()
	p.epoch++
	summary := p.state.Summary()
	p.result = &domain.SessionResult{
		DomainID:         p.selected.ID,
		DomainName:       p.selected.Name,
		Difficulty:       p.choice.Difficulty,
		Set:              p.choice.Set,
		Score:            summary.Score,
		Total:            summary.Total,
		Accuracy:         summary.Accuracy,
		ExperiencePoints: summary.ExperiencePoints,
		Tier:             string(summary.Tier),
		Feedback:         summary.Tier.Feedback(),
		Passed:           summary.Passed,
	}
	p.stage = StageResults
	p.notifyLocked()
	log.Printf("[session] player %s finished %q set %d: %d/%d", p.id, p.selected.Name, p.choice.Set, summary.Score, summary.Total)

	// The fallback placeholder is not a real attempt.
	if p.degraded {
		return nil
	}
	return &domain.ProgressEvent{
		PlayerID:   p.learner,
		DomainID:   p.selected.ID,
		Difficulty: p.choice.Difficulty,
		Set:        p.choice.Set,
		Score:      summary.Score,
		Total:      summary.Total,
		Passed:     summary.Passed,
	}
}

func (p *Player) clearRequestLocked() {
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = nil
	p.token = ""
}

func (p *Player) stopTimerLocked() {
	if p.stopTimer != nil {
		p.stopTimer()
		p.stopTimer = nil
	}
}

func (p *Player) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearRequestLocked()
	p.stopTimerLocked()
	p.epoch++
	p.hooks = Hooks{}
}

func (p *Player) notifyLocked() {
	if p.hooks.OnChange != nil {
		p.hooks.OnChange(p.snapshotLocked())
	}
}

func (p *Player) attentionLocked() {
	if p.hooks.OnAttentionReset != nil {
		p.hooks.OnAttentionReset(p.state.Index)
	}
}

// Snapshot is a serializable view of a player.
type Snapshot struct {
	PlayerID    string                `json:"playerId"`
	DisplayName string                `json:"displayName"`
	Stage       Stage                 `json:"stage"`
	DomainID    string                `json:"domainId,omitempty"`
	DomainName  string                `json:"domainName,omitempty"`
	Difficulty  domain.Difficulty     `json:"difficulty,omitempty"`
	Language    string                `json:"language,omitempty"`
	Set         int                   `json:"set,omitempty"`
	Notice      string                `json:"notice,omitempty"`
	Quiz        *QuizView             `json:"quiz,omitempty"`
	Result      *domain.SessionResult `json:"result,omitempty"`
}

// QuizView is the question on screen plus the round's counters. Answer fields stay empty until revealed.
type QuizView struct {
	Phase               quiz.Phase `json:"phase"`
	Degraded            bool       `json:"degraded"`
	Index               int        `json:"index"`
	Total               int        `json:"total"`
	QuestionID          string     `json:"questionId"`
	Category            string     `json:"category"`
	Text                string     `json:"text"`
	Scenario            string     `json:"scenario,omitempty"`
	Options             []string   `json:"options"`
	Selected            int        `json:"selected"`
	CorrectIndex        *int       `json:"correctIndex,omitempty"`
	Correct             *bool      `json:"correct,omitempty"`
	Explanation         string     `json:"explanation,omitempty"`
	MotivationalMessage string     `json:"motivationalMessage,omitempty"`
	Lives               int        `json:"lives"`
	MaxLives            int        `json:"maxLives"`
	Score               int        `json:"score"`
	Points              int        `json:"points"`
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() Snapshot {
	snap := Snapshot{
		PlayerID:    p.id,
		DisplayName: p.name,
		Stage:       p.stage,
		Notice:      p.notice,
	}
	if p.stage != StageDomainSelection {
		snap.DomainID = p.selected.ID
		snap.DomainName = p.selected.Name
		snap.Difficulty = p.choice.Difficulty
		snap.Language = p.choice.Language
		snap.Set = p.choice.Set
	}
	switch p.stage {
	case StageQuiz:
		snap.Quiz = p.quizViewLocked()
	case StageResults:
		result := *p.result
		snap.Result = &result
	}
	return snap
}

func (p *Player) quizViewLocked() *QuizView {
	s := p.state
	q := s.Current()
	view := &QuizView{
		Phase:      s.Phase,
		Degraded:   p.degraded,
		Index:      s.Index,
		Total:      s.Ceiling() + 1,
		QuestionID: q.ID,
		Category:   q.Category,
		Text:       q.Text,
		Scenario:   q.Scenario,
		Options:    append([]string(nil), q.Options...),
		Selected:   s.Selected,
		Lives:      s.Lives,
		MaxLives:   s.Rules.MaxLives,
		Score:      s.Score,
		Points:     s.Points(),
	}
	if s.Phase == quiz.Revealed {
		correctIndex := q.CorrectIndex
		correct := s.Selected == correctIndex
		view.CorrectIndex = &correctIndex
		view.Correct = &correct
		view.Explanation = q.Explanation
		view.MotivationalMessage = q.MotivationalMessage
	}
	return view
}

// IsActionError reports whether err is a rejected player action rather than an infrastructure failure.
func IsActionError(err error) bool {
	for _, target := range []error{
		domain.ErrDomainNotFound, domain.ErrUnknownDifficulty, domain.ErrInvalidSet,
		domain.ErrSetLocked, domain.ErrInvalidStage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
