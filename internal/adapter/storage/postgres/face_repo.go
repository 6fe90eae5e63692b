package postgres

import (
	"context"
	"errors"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FaceRepo implements ports.FaceRepository.
type FaceRepo struct {
	pool Pool
}

// NewFaceRepo creates a new FaceRepo.
func NewFaceRepo(pool Pool) *FaceRepo {
	return &FaceRepo{pool: pool}
}

// Upsert stores or replaces a user's encoding.
func (r *FaceRepo) Upsert(ctx context.Context, f *domain.FaceData) error {
	query := `INSERT INTO face_data (user_id, encoding, created_at, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET encoding = EXCLUDED.encoding, updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, query, f.UserID, f.Encoding, f.CreatedAt, f.UpdatedAt); err != nil {
		return fmt.Errorf("upsert face data: %w", err)
	}
	return nil
}

// GetByUserID fetches a user's enrolled encoding.
func (r *FaceRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.FaceData, error) {
	query := `SELECT user_id, encoding, created_at, updated_at FROM face_data WHERE user_id = $1`

	f := &domain.FaceData{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&f.UserID, &f.Encoding, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get face data: %w", err)
	}
	return f, nil
}
