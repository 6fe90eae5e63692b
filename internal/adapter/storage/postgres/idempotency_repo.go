package postgres

import (
	"context"
	"errors"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Claim records the response for a key inside the settlement transaction.
// It reports false when another request already holds the key; Postgres
// blocks on an uncommitted holder until it commits or rolls back.
func (r *IdempotencyRepo) Claim(ctx context.Context, tx pgx.Tx, entry *domain.IdempotencyLog) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO idempotency_logs (key, user_id, response_json, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`,
		entry.Key, entry.UserID, entry.ResponseJSON, entry.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get returns the stored response for key, or nil.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	entry := &domain.IdempotencyLog{}
	err := r.pool.QueryRow(ctx,
		`SELECT key, user_id, response_json, created_at FROM idempotency_logs WHERE key = $1`, key,
	).Scan(&entry.Key, &entry.UserID, &entry.ResponseJSON, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency log: %w", err)
	}
	return entry, nil
}
