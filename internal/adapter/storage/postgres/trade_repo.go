package postgres

import (
	"context"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TradeRepo implements ports.TradeRepository.
type TradeRepo struct {
	pool Pool
}

// NewTradeRepo creates a new TradeRepo.
func NewTradeRepo(pool Pool) *TradeRepo {
	return &TradeRepo{pool: pool}
}

// Create records a fill within a database transaction.
func (r *TradeRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Trade) error {
	query := `INSERT INTO trades (id, order_id, user_id, pair, side, quantity, price, quote_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.OrderID, t.UserID, t.Pair, t.Side, t.Quantity, t.Price, t.QuoteAmount, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// ListByUser returns the newest fills of a user.
func (r *TradeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Trade, error) {
	query := `SELECT id, order_id, user_id, pair, side, quantity, price, quote_amount, created_at
		FROM trades WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.OrderID, &t.UserID, &t.Pair, &t.Side,
			&t.Quantity, &t.Price, &t.QuoteAmount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}
