package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"careerquest-service/internal/domain"
	"careerquest-service/internal/generator"
	"careerquest-service/internal/identity"
	"careerquest-service/internal/quiz"
	"github.com/google/uuid"
)

// DomainCatalog resolves the domains a player can choose from.
type DomainCatalog interface {
	ListDomains() []domain.Domain
	Lookup(id string) (domain.Domain, bool)
}

// QuestionSource produces question batches (the generator, optionally behind a cache).
type QuestionSource interface {
	Generate(ctx context.Context, req generator.Request) (generator.Batch, error)
}

// SessionRepository abstracts where live players are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Add(p *Player)
	Get(playerID string) (*Player, bool)
	Remove(playerID string)
}

// ProgressSink receives one event per completed session.
type ProgressSink interface {
	RecordProgress(ctx context.Context, ev domain.ProgressEvent) error
}

// ProgressReader reports the highest set a player may start.
type ProgressReader interface {
	HighestUnlockedSet(ctx context.Context, playerID, domainID string, difficulty domain.Difficulty) (int, error)
}

// ProgressStore is both halves of progress persistence.
type ProgressStore interface {
	ProgressSink
	ProgressReader
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

const defaultProgressTimeout = 5 * time.Second

// QuizService hosts players and the collaborators they share.
type QuizService struct {
	catalog        DomainCatalog
	source         QuestionSource
	sessions       SessionRepository
	progress       ProgressStore
	rules          quiz.Rules
	enforceUnlocks bool
	loadTimeout    time.Duration
	afterFunc      AfterFunc
	now            func() time.Time
}

type ServiceOption func(*QuizService)

func WithRules(r quiz.Rules) ServiceOption {
	return func(s *QuizService) { s.rules = r }
}

// WithProgress records completed sessions and answers unlock queries from store.
func WithProgress(store ProgressStore) ServiceOption {
	return func(s *QuizService) { s.progress = store }
}

// WithEnforceUnlocks rejects sets above the player's highest unlocked set.
func WithEnforceUnlocks(enforce bool) ServiceOption {
	return func(s *QuizService) { s.enforceUnlocks = enforce }
}

// WithLoadTimeout bounds each generation request; zero means no bound. Running out of
// time serves the fallback batch instead of failing the load.
func WithLoadTimeout(d time.Duration) ServiceOption {
	return func(s *QuizService) { s.loadTimeout = d }
}

// WithAfterFunc replaces the timer used for auto-ending sessions (tests).
func WithAfterFunc(f AfterFunc) ServiceOption {
	return func(s *QuizService) { s.afterFunc = f }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(catalog DomainCatalog, source QuestionSource, sessions SessionRepository, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		catalog:   catalog,
		source:    source,
		sessions:  sessions,
		rules:     quiz.DefaultRules(),
		afterFunc: realAfterFunc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domains lists the catalog in order.
func (s *QuizService) Domains() []domain.Domain {
	return s.catalog.ListDomains()
}

// PlayerOption customizes a new player.
type PlayerOption func(*Player)

// WithLearnerKey ties progress to a key that outlives the session. Without one,
// progress is kept under the session id and is lost with it.
func WithLearnerKey(key string) PlayerOption {
	return func(p *Player) {
		if k := identity.LearnerKey(key); k != "" {
			p.learner = k
		}
	}
}

// NewPlayer registers a player in DomainSelection.
func (s *QuizService) NewPlayer(displayName string, hooks Hooks, opts ...PlayerOption) *Player {
	id := uuid.NewString()
	p := &Player{
		id:       id,
		learner:  id,
		name:     identity.DisplayName(displayName),
		svc:      s,
		hooks:    hooks,
		stage:    StageDomainSelection,
		joinedAt: s.now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	s.sessions.Add(p)
	log.Printf("[session] player %s (%s, learner %s) joined", p.id, p.name, p.learner)
	return p
}

// Player returns a live player by id.
func (s *QuizService) Player(playerID string) (*Player, error) {
	p, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return p, nil
}

// Release stops a player's pending work and forgets it.
func (s *QuizService) Release(playerID string) {
	p, ok := s.sessions.Get(playerID)
	if !ok {
		return
	}
	p.close()
	s.sessions.Remove(playerID)
	log.Printf("[session] player %s left", playerID)
}

// UnlockedSet returns the highest set the player may start; 1 without a progress store.
func (s *QuizService) UnlockedSet(ctx context.Context, playerID, domainID string, difficulty domain.Difficulty) (int, error) {
	if s.progress == nil {
		return 1, nil
	}
	set, err := s.progress.HighestUnlockedSet(ctx, playerID, domainID, difficulty)
	if err != nil {
		return 0, fmt.Errorf("read progress: %w", err)
	}
	if set < 1 {
		set = 1
	}
	return set, nil
}

// fetch runs the source under the load timeout. A panicking source becomes an error so a
// player never stays in Loading; running out of time becomes the fallback batch. Only the
// caller's own cancellation is reported as a context error.
func (s *QuizService) fetch(ctx context.Context, req generator.Request) (batch generator.Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("question source panic: %v", r)
		}
	}()

	loadCtx := ctx
	if s.loadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, s.loadTimeout)
		defer cancel()
	}
	batch, err = s.source.Generate(loadCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		log.Printf("[session] generation for %q set %d timed out after %s", req.Domain.Name, req.Set, s.loadTimeout)
		return generator.Fallback(req, err.Error()), nil
	}
	return batch, err
}

func (s *QuizService) record(ev *domain.ProgressEvent) {
	if ev == nil || s.progress == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultProgressTimeout)
	defer cancel()
	if err := s.progress.RecordProgress(ctx, *ev); err != nil {
		log.Printf("[progress] record for player %s failed: %v", ev.PlayerID, err)
	}
}
