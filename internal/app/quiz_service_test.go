package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"careerquest-service/internal/app"
	"careerquest-service/internal/catalog"
	"careerquest-service/internal/content"
	"careerquest-service/internal/domain"
	"careerquest-service/internal/generator"
	"careerquest-service/internal/infra/memory"
)

func TestScenarioFullRoundRecordsProgress(t *testing.T) {
	progress := memory.NewProgressStore()
	service, _ := newTestService(staticSource(20), app.WithProgress(progress))
	rec := newRecorder()
	player := service.NewPlayer("Sari", rec.hooks())

	if err := player.Choose(context.Background(), app.ChooseRequest{DomainID: "cabin-crew-safety", Set: 1}); err != nil {
		t.Fatalf("choose failed: %v", err)
	}
	rec.waitStage(t, app.StageQuiz)

	rounds := 0
	for player.Snapshot().Stage == app.StageQuiz {
		view := player.Snapshot().Quiz
		option := view.Index % domain.OptionCount
		// miss every fifth question
		if rounds%5 == 4 {
			option = (option + 1) % domain.OptionCount
		}
		mustDo(t, player.Select(option))
		mustDo(t, player.Submit())
		mustDo(t, player.Advance())
		rounds++
		if rounds > 20 {
			t.Fatalf("quiz did not end after 20 rounds")
		}
	}

	if rounds != 20 {
		t.Fatalf("expected 20 rounds, got %d", rounds)
	}
	snap := player.Snapshot()
	if snap.Stage != app.StageResults || snap.Result == nil {
		t.Fatalf("expected results, got %+v", snap)
	}
	res := snap.Result
	if res.Score != 16 || res.Total != 20 || res.ExperiencePoints != res.Score*100 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Accuracy != 80 || res.Tier != "high" || !res.Passed {
		t.Fatalf("unexpected grading %+v", res)
	}
	if got := rec.attentionCount(); got != 20 {
		t.Fatalf("expected 20 attention resets, got %d", got)
	}

	events := progress.Events()
	if len(events) != 1 {
		t.Fatalf("expected one progress event, got %d", len(events))
	}
	ev := events[0]
	if ev.PlayerID != player.ID() || ev.DomainID != "cabin-crew-safety" || ev.Set != 1 || !ev.Passed || ev.Difficulty != domain.DifficultyBasic {
		t.Fatalf("unexpected progress event %+v", ev)
	}

	mustDo(t, player.Continue())
	if player.Stage() != app.StageDomainSelection {
		t.Fatalf("expected domain selection after continue, got %s", player.Stage())
	}
}

func TestSourceFailureReturnsToDomainSelection(t *testing.T) {
	sources := map[string]app.QuestionSource{
		"panic": sourceFunc(func(context.Context, generator.Request) (generator.Batch, error) {
			panic("transport exploded")
		}),
		"error": sourceFunc(func(context.Context, generator.Request) (generator.Batch, error) {
			return generator.Batch{}, errors.New("dial tcp: connection refused")
		}),
		"empty batch": sourceFunc(func(context.Context, generator.Request) (generator.Batch, error) {
			return generator.Batch{Status: generator.StatusOK}, nil
		}),
	}
	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			service, _ := newTestService(source)
			rec := newRecorder()
			player := service.NewPlayer("", rec.hooks())

			if err := player.Choose(context.Background(), app.ChooseRequest{DomainID: "front-office"}); err != nil {
				t.Fatalf("choose failed: %v", err)
			}
			rec.waitStage(t, app.StageLoading)
			snap := rec.waitStage(t, app.StageDomainSelection)
			if snap.Notice == "" {
				t.Fatalf("expected a notice after failed load")
			}

			// The player can try again.
			if err := player.Choose(context.Background(), app.ChooseRequest{DomainID: "front-office"}); err != nil {
				t.Fatalf("second choose failed: %v", err)
			}
		})
	}
}

func TestDegradedBatchIsPlayableButNotRecorded(t *testing.T) {
	progress := memory.NewProgressStore()
	gen := generator.New(content.NewStaticProvider(nil, errors.New("quota exceeded")))
	service, _ := newTestService(gen, app.WithProgress(progress))
	rec := newRecorder()
	player := service.NewPlayer("Budi", rec.hooks())

	mustDo(t, player.Choose(context.Background(), app.ChooseRequest{DomainID: "ground-staff"}))
	snap := rec.waitStage(t, app.StageQuiz)
	if !snap.Quiz.Degraded || snap.Quiz.Total != 1 || snap.Quiz.QuestionID != "airport-ground-staff-fallback" {
		t.Fatalf("expected the fallback question, got %+v", snap.Quiz)
	}

	mustDo(t, player.Select(0))
	mustDo(t, player.Submit())
	mustDo(t, player.Advance())
	if player.Stage() != app.StageResults {
		t.Fatalf("expected results, got %s", player.Stage())
	}
	if n := len(progress.Events()); n != 0 {
		t.Fatalf("fallback rounds must not be recorded, got %d events", n)
	}
}

func TestStaleCompletionIsIgnored(t *testing.T) {
	release := make(chan struct{})
	var calls sync.WaitGroup
	calls.Add(1)
	source := sourceFunc(func(ctx context.Context, req generator.Request) (generator.Batch, error) {
		defer calls.Done()
		<-release
		return staticSource(5).Generate(context.Background(), req)
	})
	service, _ := newTestService(source)
	rec := newRecorder()
	player := service.NewPlayer("Sari", rec.hooks())

	mustDo(t, player.Choose(context.Background(), app.ChooseRequest{DomainID: "housekeeping"}))
	rec.waitStage(t, app.StageLoading)
	mustDo(t, player.Exit())
	if player.Stage() != app.StageDomainSelection {
		t.Fatalf("expected domain selection after exit, got %s", player.Stage())
	}

	close(release)
	calls.Wait()
	// Give the loader goroutine time to take the lock after the source returns.
	time.Sleep(50 * time.Millisecond)

	if player.Stage() != app.StageDomainSelection {
		t.Fatalf("stale batch changed the stage to %s", player.Stage())
	}
}

func TestLoadTimeoutServesFallback(t *testing.T) {
	slow := sourceFunc(func(ctx context.Context, _ generator.Request) (generator.Batch, error) {
		<-ctx.Done()
		return generator.Batch{}, ctx.Err()
	})
	service, _ := newTestService(slow, app.WithLoadTimeout(20*time.Millisecond))
	rec := newRecorder()
	player := service.NewPlayer("Sari", rec.hooks())

	mustDo(t, player.Choose(context.Background(), app.ChooseRequest{DomainID: "cabin-crew-safety"}))
	snap := rec.waitStage(t, app.StageQuiz)
	if !snap.Quiz.Degraded || snap.Quiz.QuestionID != generator.FallbackID("Cabin Crew - Safety") {
		t.Fatalf("expected fallback question after timeout, got %+v", snap.Quiz)
	}
}

func TestExitDoesNotDisturbPlayerSharingGeneration(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	source := sourceFunc(func(ctx context.Context, req generator.Request) (generator.Batch, error) {
		started <- struct{}{}
		select {
		case <-release:
			return staticSource(5).Generate(ctx, req)
		case <-ctx.Done():
			return generator.Batch{}, ctx.Err()
		}
	})
	service, _ := newTestService(memory.NewBatchRepository(source, time.Minute))
	recA, recB := newRecorder(), newRecorder()
	playerA := service.NewPlayer("Sari", recA.hooks())
	playerB := service.NewPlayer("Budi", recB.hooks())

	req := app.ChooseRequest{DomainID: "cabin-crew-safety", Set: 1}
	mustDo(t, playerA.Choose(context.Background(), req))
	<-started
	mustDo(t, playerB.Choose(context.Background(), req))
	// Let B's load join the generation already in flight.
	time.Sleep(20 * time.Millisecond)

	mustDo(t, playerA.Exit())
	recA.waitStage(t, app.StageDomainSelection)
	close(release)

	snap := recB.waitStage(t, app.StageQuiz)
	if snap.Quiz.Degraded || snap.Quiz.Total != 5 {
		t.Fatalf("expected B to get the generated batch, got %+v", snap.Quiz)
	}
	if playerA.Stage() != app.StageDomainSelection {
		t.Fatalf("A should stay in domain selection, got %s", playerA.Stage())
	}
}

func TestProgressFollowsLearnerKeyAcrossSessions(t *testing.T) {
	progress := memory.NewProgressStore()
	service, _ := newTestService(staticSource(5), app.WithProgress(progress), app.WithEnforceUnlocks(true))
	ctx := context.Background()

	rec := newRecorder()
	first := service.NewPlayer("Sari", rec.hooks(), app.WithLearnerKey(" Sari@Campus "))
	if first.LearnerKey() != "sari@campus" || first.LearnerKey() == first.ID() {
		t.Fatalf("unexpected learner key %q", first.LearnerKey())
	}
	mustDo(t, first.Choose(ctx, app.ChooseRequest{DomainID: "front-office", Set: 1}))
	rec.waitStage(t, app.StageQuiz)
	for first.Stage() == app.StageQuiz {
		mustDo(t, first.Select(first.Snapshot().Quiz.Index%domain.OptionCount))
		mustDo(t, first.Submit())
		mustDo(t, first.Advance())
	}
	if res := first.Snapshot().Result; res == nil || !res.Passed {
		t.Fatalf("expected a passing result, got %+v", res)
	}
	if events := progress.Events(); len(events) != 1 || events[0].PlayerID != "sari@campus" {
		t.Fatalf("expected progress under the learner key, got %+v", events)
	}
	service.Release(first.ID())

	returning := service.NewPlayer("Sari", app.Hooks{}, app.WithLearnerKey("sari@campus"))
	if returning.ID() == first.ID() {
		t.Fatalf("expected a fresh session id")
	}
	if err := returning.Choose(ctx, app.ChooseRequest{DomainID: "front-office", Set: 2}); err != nil {
		t.Fatalf("set 2 should stay unlocked for the returning learner: %v", err)
	}

	stranger := service.NewPlayer("Budi", app.Hooks{})
	if err := stranger.Choose(ctx, app.ChooseRequest{DomainID: "front-office", Set: 2}); !errors.Is(err, domain.ErrSetLocked) {
		t.Fatalf("expected ErrSetLocked for another learner, got %v", err)
	}
}

func TestExitAbortsQuizWithoutResult(t *testing.T) {
	progress := memory.NewProgressStore()
	service, _ := newTestService(staticSource(5), app.WithProgress(progress))
	rec := newRecorder()
	player := service.NewPlayer("Sari", rec.hooks())

	mustDo(t, player.Choose(context.Background(), app.ChooseRequest{DomainID: "front-office"}))
	rec.waitStage(t, app.StageQuiz)
	mustDo(t, player.Select(1))
	mustDo(t, player.Exit())

	snap := player.Snapshot()
	if snap.Stage != app.StageDomainSelection || snap.Result != nil || snap.Quiz != nil {
		t.Fatalf("expected clean domain selection, got %+v", snap)
	}
	if n := len(progress.Events()); n != 0 {
		t.Fatalf("aborted session must not be recorded, got %d", n)
	}
}

func TestAutoEndAfterLastLife(t *testing.T) {
	timers := &fakeTimers{}
	service, _ := newTestService(staticSource(20), app.WithAfterFunc(timers.AfterFunc))
	rec := newRecorder()
	player := service.NewPlayer("Sari", rec.hooks())

	mustDo(t, player.Choose(context.Background(), app.ChooseRequest{DomainID: "front-office", Difficulty: domain.DifficultyExpert}))
	rec.waitStage(t, app.StageQuiz)

	for i := 0; i < 5; i++ {
		view := player.Snapshot().Quiz
		mustDo(t, player.Select((view.Index+1)%domain.OptionCount))
		mustDo(t, player.Submit())
		if i < 4 {
			mustDo(t, player.Advance())
		}
	}

	snap := player.Snapshot()
	if snap.Stage != app.StageQuiz || snap.Quiz.Lives != 0 || snap.Quiz.Correct == nil || *snap.Quiz.Correct {
		t.Fatalf("expected revealed failing answer, got %+v", snap.Quiz)
	}
	if timers.count() != 1 || timers.delay(0) != 2*time.Second {
		t.Fatalf("expected one 2s auto-end timer, got %d", timers.count())
	}

	timers.fire(0)
	snap = player.Snapshot()
	if snap.Stage != app.StageResults {
		t.Fatalf("expected results after auto end, got %s", snap.Stage)
	}
	if snap.Result.Total != 5 || snap.Result.Score != 0 || snap.Result.Tier != "low" {
		t.Fatalf("unexpected result %+v", snap.Result)
	}

	// A late second firing is ignored.
	timers.fire(0)
	if player.Stage() != app.StageResults {
		t.Fatalf("late timer changed the stage")
	}
}

func TestChooseValidation(t *testing.T) {
	progress := memory.NewProgressStore()
	service, _ := newTestService(staticSource(3), app.WithProgress(progress), app.WithEnforceUnlocks(true))
	player := service.NewPlayer("Sari", app.Hooks{})
	ctx := context.Background()

	cases := []struct {
		req  app.ChooseRequest
		want error
	}{
		{app.ChooseRequest{DomainID: "unknown"}, domain.ErrDomainNotFound},
		{app.ChooseRequest{DomainID: "front-office", Difficulty: "legendary"}, domain.ErrUnknownDifficulty},
		{app.ChooseRequest{DomainID: "front-office", Set: 6}, domain.ErrInvalidSet},
		{app.ChooseRequest{DomainID: "front-office", Set: 2}, domain.ErrSetLocked},
	}
	for _, tc := range cases {
		if err := player.Choose(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("Choose(%+v) = %v, want %v", tc.req, err, tc.want)
		}
		if !app.IsActionError(tc.want) {
			t.Fatalf("%v should be an action error", tc.want)
		}
	}

	_ = progress.RecordProgress(ctx, domain.ProgressEvent{PlayerID: player.ID(), DomainID: "front-office", Difficulty: domain.DifficultyBasic, Set: 1, Passed: true})
	if err := player.Choose(ctx, app.ChooseRequest{DomainID: "front-office", Set: 2}); err != nil {
		t.Fatalf("set 2 should be unlocked after passing set 1: %v", err)
	}
	if err := player.Choose(ctx, app.ChooseRequest{DomainID: "front-office"}); !errors.Is(err, domain.ErrInvalidStage) {
		t.Fatalf("expected invalid stage while loading, got %v", err)
	}
}

func TestActionsOutsideQuizAreRejected(t *testing.T) {
	service, _ := newTestService(staticSource(3))
	player := service.NewPlayer("Sari", app.Hooks{})

	for name, action := range map[string]func() error{
		"select":   func() error { return player.Select(0) },
		"submit":   player.Submit,
		"advance":  player.Advance,
		"continue": player.Continue,
	} {
		if err := action(); !errors.Is(err, domain.ErrInvalidStage) {
			t.Fatalf("%s: expected ErrInvalidStage, got %v", name, err)
		}
	}
	if err := player.Exit(); err != nil {
		t.Fatalf("exit from domain selection should be a no-op, got %v", err)
	}
}

func TestSnapshotHidesAnswerUntilRevealed(t *testing.T) {
	service, _ := newTestService(staticSource(3))
	rec := newRecorder()
	player := service.NewPlayer("Sari", rec.hooks())
	mustDo(t, player.Choose(context.Background(), app.ChooseRequest{DomainID: "front-office", Language: "ID"}))
	rec.waitStage(t, app.StageQuiz)

	snap := player.Snapshot()
	if snap.Quiz.CorrectIndex != nil || snap.Quiz.Explanation != "" {
		t.Fatalf("answer leaked before reveal: %+v", snap.Quiz)
	}
	if snap.Language != "id" || snap.DomainName != "Hotel Front Office" {
		t.Fatalf("unexpected choice echo %+v", snap)
	}

	mustDo(t, player.Select(0))
	mustDo(t, player.Submit())
	snap = player.Snapshot()
	if snap.Quiz.CorrectIndex == nil || *snap.Quiz.CorrectIndex != 0 || snap.Quiz.Explanation == "" {
		t.Fatalf("expected answer after reveal: %+v", snap.Quiz)
	}
	if snap.Quiz.Points != 100 {
		t.Fatalf("expected 100 points, got %d", snap.Quiz.Points)
	}
}

func TestPlayerLookupAndRelease(t *testing.T) {
	service, store := newTestService(staticSource(1))
	player := service.NewPlayer("  ", app.Hooks{})
	if player.Name() != "anonymous" {
		t.Fatalf("expected anonymous name, got %q", player.Name())
	}

	got, err := service.Player(player.ID())
	if err != nil || got != player {
		t.Fatalf("lookup failed: %v", err)
	}
	service.Release(player.ID())
	if _, err := service.Player(player.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestUnlockedSetDefaultsWithoutProgress(t *testing.T) {
	service, _ := newTestService(staticSource(1))
	set, err := service.UnlockedSet(context.Background(), "p1", "front-office", domain.DifficultyBasic)
	if err != nil || set != 1 {
		t.Fatalf("expected set 1, got %d (%v)", set, err)
	}
}

func newTestService(source app.QuestionSource, opts ...app.ServiceOption) (*app.QuizService, *memory.SessionStore) {
	store := memory.NewSessionStore()
	return app.NewQuizService(catalog.Default(), source, store, opts...), store
}

type sourceFunc func(ctx context.Context, req generator.Request) (generator.Batch, error)

func (f sourceFunc) Generate(ctx context.Context, req generator.Request) (generator.Batch, error) {
	return f(ctx, req)
}

// staticSource returns n questions whose correct option cycles through 0..3.
func staticSource(n int) app.QuestionSource {
	return sourceFunc(func(_ context.Context, req generator.Request) (generator.Batch, error) {
		questions := make([]domain.Question, n)
		for i := range questions {
			questions[i] = domain.Question{
				Category:            req.Domain.Name,
				Text:                fmt.Sprintf("Question %d", i+1),
				Options:             []string{"a", "b", "c", "d"},
				CorrectIndex:        i % domain.OptionCount,
				Explanation:         "Explained.",
				MotivationalMessage: "Nice!",
			}
		}
		generator.AssignIDs(questions, req.Domain.Name, req.Set, time.Now())
		return generator.Batch{Status: generator.StatusOK, Questions: questions}, nil
	})
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("action failed: %v", err)
	}
}

type recorder struct {
	changes chan app.Snapshot

	mu        sync.Mutex
	attention []int
}

func newRecorder() *recorder {
	return &recorder{changes: make(chan app.Snapshot, 512)}
}

func (r *recorder) hooks() app.Hooks {
	return app.Hooks{
		OnChange: func(s app.Snapshot) { r.changes <- s },
		OnAttentionReset: func(index int) {
			r.mu.Lock()
			r.attention = append(r.attention, index)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) attentionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attention)
}

func (r *recorder) waitStage(t *testing.T, stage app.Stage) app.Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-r.changes:
			if snap.Stage == stage {
				return snap
			}
		case <-timeout:
			t.Fatalf("timed out waiting for stage %s", stage)
			return app.Snapshot{}
		}
	}
}

type fakeTimers struct {
	mu     sync.Mutex
	funcs  []func()
	delays []time.Duration
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funcs = append(f.funcs, fn)
	f.delays = append(f.delays, d)
	return func() bool { return true }
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.funcs)
}

func (f *fakeTimers) delay(i int) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delays[i]
}

func (f *fakeTimers) fire(i int) {
	f.mu.Lock()
	fn := f.funcs[i]
	f.mu.Unlock()
	fn()
}
