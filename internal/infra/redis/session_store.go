package redis

import (
	"context"
	"sync"
	"time"

	"careerquest-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Players hold timers and hooks, so the live objects stay in a local map.
//   - Redis carries a liveness hash per player (name, joined_at) with a TTL, which lets
//     other instances or operators see who is playing.
type SessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	players map[string]*app.Player
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:  client,
		ttl:     ttl,
		players: make(map[string]*app.Player),
	}
}

func (s *SessionStore) Add(p *app.Player) {
	s.mu.Lock()
	s.players[p.ID()] = p
	s.mu.Unlock()

	// best-effort liveness marker
	ctx := context.Background()
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key(p.ID()), "name", p.Name(), "joined_at", p.JoinedAt().Unix())
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(p.ID()), s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (s *SessionStore) Get(playerID string) (*app.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(playerID), s.ttl).Err()
	}
	return p, ok
}

func (s *SessionStore) Remove(playerID string) {
	s.mu.Lock()
	delete(s.players, playerID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "careerquest:player:" + playerID
}
