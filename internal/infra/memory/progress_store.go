package memory

import (
	"context"
	"sync"

	"careerquest-service/internal/domain"
)

// ProgressStore keeps the highest passed set per player, domain and difficulty.
type ProgressStore struct {
	mu     sync.RWMutex
	passed map[progressKey]int
	events []domain.ProgressEvent
}

type progressKey struct {
	player     string
	domain     string
	difficulty domain.Difficulty
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{passed: make(map[progressKey]int)}
}

func (s *ProgressStore) RecordProgress(_ context.Context, ev domain.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if !ev.Passed {
		return nil
	}
	key := progressKey{ev.PlayerID, ev.DomainID, ev.Difficulty}
	if ev.Set > s.passed[key] {
		s.passed[key] = ev.Set
	}
	return nil
}

// HighestUnlockedSet is one past the highest passed set, capped at domain.MaxSets.
func (s *ProgressStore) HighestUnlockedSet(_ context.Context, playerID, domainID string, difficulty domain.Difficulty) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.UnlockedAfter(s.passed[progressKey{playerID, domainID, difficulty}]), nil
}

// Events returns every recorded event in order.
func (s *ProgressStore) Events() []domain.ProgressEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ProgressEvent(nil), s.events...)
}
