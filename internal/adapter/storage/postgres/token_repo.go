package postgres

import (
	"context"
	"errors"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TokenRepo implements ports.TokenRepository.
type TokenRepo struct {
	pool Pool
}

// NewTokenRepo creates a new TokenRepo.
func NewTokenRepo(pool Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// Create stores a new bearer token.
func (r *TokenRepo) Create(ctx context.Context, t *domain.AuthToken) error {
	query := `INSERT INTO auth_tokens (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, t.Token, t.UserID, t.CreatedAt, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// Get fetches a token by its value.
func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.AuthToken, error) {
	query := `SELECT token, user_id, created_at, expires_at FROM auth_tokens WHERE token = $1`
	return scanToken(r.pool.QueryRow(ctx, query, token))
}

// GetLatestByUser fetches the newest token of a user.
func (r *TokenRepo) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.AuthToken, error) {
	query := `SELECT token, user_id, created_at, expires_at FROM auth_tokens
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanToken(r.pool.QueryRow(ctx, query, userID))
}

// Delete removes a token. Deleting an unknown token is not an error.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func scanToken(row pgx.Row) (*domain.AuthToken, error) {
	t := &domain.AuthToken{}
	if err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return t, nil
}
