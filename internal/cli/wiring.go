package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"careerquest-service/internal/app"
	"careerquest-service/internal/catalog"
	"careerquest-service/internal/config"
	"careerquest-service/internal/content"
	"careerquest-service/internal/content/gemini"
	"careerquest-service/internal/generator"
	"careerquest-service/internal/infra/memory"
	pgprogress "careerquest-service/internal/infra/postgres"
	infraredis "careerquest-service/internal/infra/redis"
	"careerquest-service/internal/quiz"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// backends holds the optional external connections; nil fields mean in-memory.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (b backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func connectBackends(ctx context.Context, cfg config.Config) (backends, error) {
	var b backends
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			b.Close()
			return backends{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return backends{}, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

func newProvider(cfg config.Config) (content.Provider, error) {
	switch cfg.Generator.Provider {
	case config.ProviderStatic:
		var payload []byte
		if cfg.Generator.StaticPayload != "" {
			data, err := os.ReadFile(cfg.Generator.StaticPayload)
			if err != nil {
				return nil, fmt.Errorf("read static payload: %w", err)
			}
			payload = data
		}
		return content.NewStaticProvider(payload, nil), nil
	case config.ProviderGemini, "":
		if cfg.Generator.APIKey == "" {
			log.Printf("[generator] no gemini api key configured; every batch will use the fallback question")
		}
		httpClient := &http.Client{Timeout: config.TTLDuration(cfg.Generator.Timeout, 45*time.Second)}
		return gemini.NewClient(httpClient, cfg.Generator.APIKey,
			gemini.WithBaseURL(cfg.Generator.BaseURL),
			gemini.WithModel(cfg.Generator.Model),
		), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}

// newQuizService assembles the orchestrator over the configured backends.
func newQuizService(cfg config.Config, b backends, sessions app.SessionRepository) (*app.QuizService, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	loadTimeout := config.TTLDuration(cfg.Quiz.LoadTimeout, 60*time.Second)
	gen := generator.New(provider,
		generator.WithStrictSets(cfg.Generator.StrictSets),
		generator.WithTemperature(cfg.Generator.Temperature),
		generator.WithTimeout(loadTimeout),
	)
	source := newQuestionSource(cfg, b, gen)

	var progress app.ProgressStore = memory.NewProgressStore()
	if b.pool != nil {
		progress = pgprogress.NewProgressStore(b.pool)
	}

	rules := quiz.Rules{
		MaxLives:          cfg.Quiz.MaxLives,
		QuestionsPerRound: cfg.Quiz.QuestionsPerRound,
		AutoEndDelay:      config.TTLDuration(cfg.Quiz.AutoEndDelay, 2*time.Second),
	}

	return app.NewQuizService(catalog.Default(), source, sessions,
		app.WithRules(rules),
		app.WithProgress(progress),
		app.WithEnforceUnlocks(cfg.Quiz.EnforceUnlocks),
		app.WithLoadTimeout(loadTimeout),
	), nil
}

// newQuestionSource puts the generator behind a batch cache only when generator.cache_ttl
// is set; by default every session gets freshly generated questions.
func newQuestionSource(cfg config.Config, b backends, gen *generator.Generator) app.QuestionSource {
	cacheTTL := config.TTLDuration(cfg.Generator.CacheTTL, 0)
	switch {
	case cacheTTL <= 0:
		return gen
	case b.redis != nil:
		log.Printf("[generator] caching batches in redis for %s", cacheTTL)
		return infraredis.NewBatchRepository(b.redis, gen, cacheTTL)
	default:
		log.Printf("[generator] caching batches in memory for %s", cacheTTL)
		return memory.NewBatchRepository(gen, cacheTTL)
	}
}
