package memory

import (
	"sync"

	"careerquest-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu      sync.RWMutex
	players map[string]*app.Player
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		players: make(map[string]*app.Player),
	}
}

func (s *SessionStore) Add(p *app.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID()] = p
}

func (s *SessionStore) Get(playerID string) (*app.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	return p, ok
}

func (s *SessionStore) Remove(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, playerID)
}

// Len reports how many players are live.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}
