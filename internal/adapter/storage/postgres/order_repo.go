package postgres

import (
	"context"
	"errors"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, order_id, user_id, pair, order_type, side, quantity, price,
	filled_quantity, avg_fill_price, status, created_at, updated_at`

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts an order within a database transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.OrderID, o.UserID, o.Pair, o.Type, o.Side, o.Quantity, o.Price,
		o.FilledQuantity, o.AvgFillPrice, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByOrderID fetches an order by its ORD_ identifier.
func (r *OrderRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	return scanOrder(r.pool.QueryRow(ctx, query, orderID))
}

// GetByOrderIDForUpdate fetches and locks an order.
// This MUST be called within a transaction.
func (r *OrderRepo) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRow(ctx, query, orderID))
}

// Update persists fill state and status.
func (r *OrderRepo) Update(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `UPDATE orders SET filled_quantity = $1, avg_fill_price = $2, status = $3, updated_at = $4
		WHERE order_id = $5`

	tag, err := tx.Exec(ctx, query, o.FilledQuantity, o.AvgFillPrice, o.Status, o.UpdatedAt, o.OrderID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", o.OrderID)
	}
	return nil
}

// ListByUser returns the newest orders of a user.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

// ListPendingLimit returns resting limit orders of a pair, oldest first.
func (r *OrderRepo) ListPendingLimit(ctx context.Context, pair string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE pair = $1 AND status = 'pending' AND order_type = 'limit' ORDER BY created_at, id`
	return r.list(ctx, query, pair)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.OrderID, &o.UserID, &o.Pair, &o.Type, &o.Side, &o.Quantity, &o.Price,
		&o.FilledQuantity, &o.AvgFillPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}
