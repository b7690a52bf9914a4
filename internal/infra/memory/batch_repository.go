package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"careerquest-service/internal/app"
	"careerquest-service/internal/domain"
	"careerquest-service/internal/generator"
	"golang.org/x/sync/singleflight"
)

// BatchRepository caches generated batches with TTL to avoid repeated provider calls.
// Only ok batches are kept; degraded ones are always retried.
type BatchRepository struct {
	source app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBatch
}

type cachedBatch struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewBatchRepository(source app.QuestionSource, ttl time.Duration) *BatchRepository {
	return &BatchRepository{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBatch),
	}
}

func (r *BatchRepository) Generate(ctx context.Context, req generator.Request) (generator.Batch, error) {
	req = req.Normalized()
	key := generator.CacheKey(req)
	if batch, ok := r.lookup(key, req); ok {
		return batch, nil
	}

	ch := r.sf.DoChan(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if batch, ok := r.lookup(key, req); ok {
			return batch, nil
		}

		// Every caller waiting on key shares this call; one of them leaving must not end it.
		batch, err := r.source.Generate(context.WithoutCancel(ctx), req)
		if err != nil {
			return generator.Batch{}, err
		}
		if batch.Status == generator.StatusOK {
			r.mu.Lock()
			r.cache[key] = cachedBatch{
				questions: append([]domain.Question(nil), batch.Questions...),
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
			r.mu.Unlock()
		}
		return batch, nil
	})
	select {
	case <-ctx.Done():
		return generator.Batch{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return generator.Batch{}, res.Err
		}
		batch := res.Val.(generator.Batch)
		batch.Questions = append([]domain.Question(nil), batch.Questions...)
		return batch, nil
	}
}

// lookup returns a fresh copy of a live entry with new question ids.
func (r *BatchRepository) lookup(key string, req generator.Request) (generator.Batch, bool) {
	now := r.clock()
	r.mu.RLock()
	entry, ok := r.cache[key]
	r.mu.RUnlock()
	if !ok || !entry.expiresAt.After(now) {
		return generator.Batch{}, false
	}
	questions := append([]domain.Question(nil), entry.questions...)
	generator.AssignIDs(questions, req.Domain.Name, req.Set, now)
	return generator.Batch{Status: generator.StatusOK, Questions: questions}, true
}

func (r *BatchRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
