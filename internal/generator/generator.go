// Package generator requests scenario-based question batches from a content provider.
package generator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"careerquest-service/internal/content"
	"careerquest-service/internal/domain"
)

const (
	// QuestionsPerSet caps a batch; five sets of twenty make up a domain's full bank.
	QuestionsPerSet    = 20
	defaultTemperature = 0.7
)

// BatchStatus tells callers whether the batch is real content or the fallback.
type BatchStatus string

const (
	StatusOK       BatchStatus = "ok"
	StatusDegraded BatchStatus = "degraded"
)

// Request describes one batch.
type Request struct {
	Domain     domain.Domain
	Count      int
	Difficulty domain.Difficulty
	Language   string
	Set        int
}

// Normalized applies the request defaults and bounds.
func (r Request) Normalized() Request {
	if r.Count <= 0 || r.Count > QuestionsPerSet {
		r.Count = QuestionsPerSet
	}
	if r.Set < 1 {
		r.Set = 1
	}
	if r.Set > domain.MaxSets {
		r.Set = domain.MaxSets
	}
	if _, ok := difficultyFraming[r.Difficulty]; !ok {
		r.Difficulty = domain.DifficultyBasic
	}
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		r.Language = domain.DefaultLanguage
	}
	return r
}

// CacheKey identifies requests that may share a generated batch.
func CacheKey(r Request) string {
	r = r.Normalized()
	return fmt.Sprintf("%s|%s|%s|%d|%d", Slugify(r.Domain.Name), r.Difficulty, r.Language, r.Set, r.Count)
}

// Batch is the generator output; Questions is never empty.
type Batch struct {
	Status    BatchStatus       `json:"status"`
	Questions []domain.Question `json:"questions"`
	Reason    string            `json:"reason,omitempty"`
}

// Degraded reports whether the batch is the fallback placeholder.
func (b Batch) Degraded() bool {
	return b.Status == StatusDegraded
}

// Generator builds prompts, calls the provider and validates its output.
type Generator struct {
	provider    content.Provider
	validator   *itemValidator
	now         func() time.Time
	strictSets  bool
	temperature float64
	timeout     time.Duration
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the timestamp source used for question ids.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithStrictSets drops items that mention topics excluded from the requested set.
func WithStrictSets(strict bool) Option {
	return func(g *Generator) { g.strictSets = strict }
}

// WithTimeout bounds each provider call; running out of time yields the fallback batch.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

func WithTemperature(t float64) Option {
	return func(g *Generator) {
		if t > 0 {
			g.temperature = t
		}
	}
}

func New(provider content.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:    provider,
		validator:   newItemValidator(),
		now:         time.Now,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a batch for the request. Provider failures of any kind degrade to the
// fallback batch; the only error is the caller's own context ending.
func (g *Generator) Generate(ctx context.Context, req Request) (batch Batch, err error) {
	req = req.Normalized()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[generator] provider panic for %q set %d: %v", req.Domain.Name, req.Set, r)
			batch, err = Fallback(req, fmt.Sprintf("provider panic: %v", r)), nil
		}
	}()

	creq := content.Request{
		Prompt:      buildPrompt(req, PersonaFor(req.Domain)),
		Schema:      responseSchema(req.Count),
		Temperature: g.temperature,
	}
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	raw, genErr := g.provider.Generate(callCtx, creq)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Batch{}, ctxErr
	}
	if genErr != nil {
		log.Printf("[generator] provider failed for %q set %d: %v", req.Domain.Name, req.Set, genErr)
		return Fallback(req, genErr.Error()), nil
	}

	questions, parseErr := g.parse(raw, req)
	if parseErr != nil {
		log.Printf("[generator] unusable response for %q set %d: %v", req.Domain.Name, req.Set, parseErr)
		return Fallback(req, parseErr.Error()), nil
	}
	return Batch{Status: StatusOK, Questions: questions}, nil
}

func (g *Generator) parse(raw []byte, req Request) ([]domain.Question, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(items))
	rejected := 0
	for i, item := range items {
		if len(questions) == req.Count {
			break
		}
		q, err := g.validator.check(item, req.Set)
		if err != nil {
			rejected++
			log.Printf("[generator] rejected item %d for %q: %v", i, req.Domain.Name, err)
			continue
		}
		if kw, leaked := leaks(q, req.Set); leaked {
			if g.strictSets {
				rejected++
				log.Printf("[generator] dropped item %d for %q: %q is outside set %d", i, req.Domain.Name, kw, req.Set)
				continue
			}
			log.Printf("[generator] item %d for %q mentions %q, outside set %d", i, req.Domain.Name, kw, req.Set)
		}
		questions = append(questions, domain.Question{
			Category:            req.Domain.Name,
			Text:                q.Text,
			Scenario:            q.Scenario,
			Options:             q.Options,
			CorrectIndex:        *q.CorrectIndex,
			Explanation:         q.Explanation,
			MotivationalMessage: q.MotivationalMessage,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w (%d rejected)", errNoValidQuestions, rejected)
	}
	AssignIDs(questions, req.Domain.Name, req.Set, g.now())
	return questions, nil
}

// AssignIDs stamps ids of the form <slug>-<unix millis>-s<set>-q<position>.
func AssignIDs(questions []domain.Question, domainName string, set int, at time.Time) {
	slug := Slugify(domainName)
	ts := at.UnixMilli()
	for i := range questions {
		questions[i].ID = fmt.Sprintf("%s-%d-s%d-q%d", slug, ts, set, i+1)
	}
}

// FallbackID is the id carried by the single degraded question of a domain.
func FallbackID(domainName string) string {
	return Slugify(domainName) + "-fallback"
}

// Fallback is the degraded single-question batch served when no real content is available.
func Fallback(req Request, reason string) Batch {
	return Batch{
		Status: StatusDegraded,
		Reason: reason,
		Questions: []domain.Question{{
			ID:       FallbackID(req.Domain.Name),
			Category: req.Domain.Name,
			Text:     "The question service is temporarily unavailable. Please try again in a moment.",
			Options: []string{
				"Try again later",
				"Check your connection",
				"Ask your instructor",
				"Choose another department",
			},
			CorrectIndex:        0,
			Explanation:         "New questions could not be prepared right now.",
			MotivationalMessage: "Don't give up! Please try again shortly.",
		}},
	}
}

// Slugify lowercases a name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "domain"
	}
	return b.String()
}
