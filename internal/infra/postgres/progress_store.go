package postgres

import (
	"context"
	"fmt"

	"careerquest-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProgressStore persists completed sessions in the quiz_progress table.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) RecordProgress(ctx context.Context, ev domain.ProgressEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_progress (player_id, domain_id, difficulty, set_number, score, total, passed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.PlayerID, ev.DomainID, string(ev.Difficulty), ev.Set, ev.Score, ev.Total, ev.Passed)
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) HighestUnlockedSet(ctx context.Context, playerID, domainID string, difficulty domain.Difficulty) (int, error) {
	var passed int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM quiz_progress
		 WHERE player_id=$1 AND domain_id=$2 AND difficulty=$3 AND passed`,
		playerID, domainID, string(difficulty)).Scan(&passed)
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}
	return domain.UnlockedAfter(passed), nil
}
