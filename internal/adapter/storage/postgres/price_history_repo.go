package postgres

import (
	"context"
	"fmt"
	"slices"

	"arc-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// PriceHistoryRepo implements ports.PriceHistoryRepository.
type PriceHistoryRepo struct {
	pool Pool
}

// NewPriceHistoryRepo creates a new PriceHistoryRepo.
func NewPriceHistoryRepo(pool Pool) *PriceHistoryRepo {
	return &PriceHistoryRepo{pool: pool}
}

// Create appends a price point within a database transaction.
func (r *PriceHistoryRepo) Create(ctx context.Context, tx pgx.Tx, pt *domain.PricePoint) error {
	query := `INSERT INTO price_history (pair, price, volume, timestamp) VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, query, pt.Pair, pt.Price, pt.Volume, pt.Timestamp); err != nil {
		return fmt.Errorf("insert price point: %w", err)
	}
	return nil
}

// ListRecent returns the newest limit points of a pair, oldest first.
func (r *PriceHistoryRepo) ListRecent(ctx context.Context, pair string, limit int) ([]domain.PricePoint, error) {
	query := `SELECT pair, price, volume, timestamp FROM price_history
		WHERE pair = $1 ORDER BY timestamp DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, pair, limit)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var pt domain.PricePoint
		if err := rows.Scan(&pt.Pair, &pt.Price, &pt.Volume, &pt.Timestamp); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}
	slices.Reverse(points)
	return points, nil
}
