package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

type reputationRepository struct {
	db *sql.DB
}

func NewReputationRepository(db *sql.DB) repository.ReputationRepository {
	return &reputationRepository{db: db}
}

func (r *reputationRepository) Get(ctx context.Context, identity string) (*domain.Reputation, error) {
	rep := &domain.Reputation{Identity: identity}
	var updated time.Time
	err := r.db.QueryRowContext(ctx, `SELECT score, updated_at FROM reputations WHERE identity = $1`, identity).Scan(&rep.Score, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return rep, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation: %w", err)
	}
	rep.UpdatedAt = &updated
	return rep, nil
}

// adjustReputation applies delta inside tx and returns the stored score. The
// floor at zero is applied by the database so concurrent returns cannot push
// a score negative.
func adjustReputation(ctx context.Context, q querier, adj domain.ReputationAdjustment, at time.Time) (int64, error) {
	query := `INSERT INTO reputations (identity, score, updated_at) VALUES ($1, GREATEST(0, $2::bigint), $3)
	          ON CONFLICT (identity) DO UPDATE SET score = GREATEST(0, reputations.score + $2::bigint), updated_at = $3
	          RETURNING score`
	logger.DatabaseCall("UPSERT", "reputations", "identity", adj.Identity, "delta", adj.Delta)
	var score int64
	err := q.QueryRowContext(ctx, query, adj.Identity, adj.Delta, at).Scan(&score)
	logger.DatabaseResult("UPSERT", 1, err, "identity", adj.Identity, "score", score)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust reputation: %w", err)
	}
	return score, nil
}
