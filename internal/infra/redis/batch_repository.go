package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"careerquest-service/internal/app"
	"careerquest-service/internal/domain"
	"careerquest-service/internal/generator"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BatchRepository caches generated question batches in Redis and falls back to the source on a miss.
// Batches are stored as JSON: SET careerquest:batch:{cacheKey} [question...]
// Degraded batches are never written.
type BatchRepository struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewBatchRepository(client *redis.Client, source app.QuestionSource, ttl time.Duration) *BatchRepository {
	return &BatchRepository{
		client: client,
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BatchRepository) Generate(ctx context.Context, req generator.Request) (generator.Batch, error) {
	req = req.Normalized()
	key := r.batchKey(req)

	if batch, ok := r.lookup(ctx, key, req); ok {
		return batch, nil
	}

	ch := r.sf.DoChan(key, func() (interface{}, error) {
		// Every caller waiting on key shares this call; one of them leaving must not end it.
		shared := context.WithoutCancel(ctx)

		// Re-check cache in case another goroutine filled it.
		if batch, ok := r.lookup(shared, key, req); ok {
			return batch, nil
		}

		batch, err := r.source.Generate(shared, req)
		if err != nil {
			return generator.Batch{}, err
		}
		if batch.Status != generator.StatusOK {
			return batch, nil
		}

		payload, err := json.Marshal(batch.Questions)
		if err != nil {
			log.Printf("[cache] encode batch %s: %v", key, err)
			return batch, nil
		}
		if err := r.client.Set(shared, key, payload, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("[cache] store batch %s: %v", key, err)
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

// lookup treats any Redis or decode failure as a miss.
func (r *BatchRepository) lookup(ctx context.Context, key string, req generator.Request) (generator.Batch, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] read batch %s: %v", key, err)
		}
		return generator.Batch{}, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		log.Printf("[cache] discarding unreadable batch %s", key)
		return generator.Batch{}, false
	}
	generator.AssignIDs(questions, req.Domain.Name, req.Set, r.clock())
	return generator.Batch{Status: generator.StatusOK, Questions: questions}, true
}

func (r *BatchRepository) batchKey(req generator.Request) string {
	return "careerquest:batch:" + generator.CacheKey(req)
}

func (r *BatchRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
