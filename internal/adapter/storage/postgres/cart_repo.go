package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const cartColumns = `id, cart_id, user_id, merchant_name, items, total_amount, status,
	payment_symbol, payment_amount, payment_tx, paid_at, created_at, updated_at`

// CartRepo implements ports.CartRepository.
type CartRepo struct {
	pool Pool
}

// NewCartRepo creates a new CartRepo.
func NewCartRepo(pool Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

// Create inserts a cart. Items are stored as JSONB.
func (r *CartRepo) Create(ctx context.Context, c *domain.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshal cart items: %w", err)
	}

	query := `INSERT INTO carts (id, cart_id, user_id, merchant_name, items, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		c.ID, c.CartID, c.UserID, c.MerchantName, items, c.TotalAmount, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// GetByCartID fetches a cart by its CART_ identifier.
func (r *CartRepo) GetByCartID(ctx context.Context, cartID string) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE cart_id = $1`
	return scanCart(r.pool.QueryRow(ctx, query, cartID))
}

// GetByCartIDForUpdate fetches and locks a cart.
// This MUST be called within a transaction.
func (r *CartRepo) GetByCartIDForUpdate(ctx context.Context, tx pgx.Tx, cartID string) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE cart_id = $1 FOR UPDATE`
	return scanCart(tx.QueryRow(ctx, query, cartID))
}

// MarkPaid records the payment and moves the cart to paid.
func (r *CartRepo) MarkPaid(ctx context.Context, tx pgx.Tx, cartID string, p *domain.CartPayment) error {
	query := `UPDATE carts SET status = $1, payment_symbol = $2, payment_amount = $3, payment_tx = $4,
		paid_at = $5, updated_at = $5 WHERE cart_id = $6 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, domain.CartStatusPaid, p.Symbol, p.Amount, p.TxHash, p.PaidAt, cartID)
	if err != nil {
		return fmt.Errorf("mark cart paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending cart not found: %s", cartID)
	}
	return nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	c := &domain.Cart{}
	var (
		items         []byte
		paymentSymbol *string
		paymentAmount *decimal.Decimal
		paymentTx     *string
		paidAt        *time.Time
	)
	err := row.Scan(
		&c.ID, &c.CartID, &c.UserID, &c.MerchantName, &items, &c.TotalAmount, &c.Status,
		&paymentSymbol, &paymentAmount, &paymentTx, &paidAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cart: %w", err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Items); err != nil {
			return nil, fmt.Errorf("unmarshal cart items: %w", err)
		}
	}
	if paymentSymbol != nil && paymentAmount != nil && paymentTx != nil && paidAt != nil {
		c.Payment = &domain.CartPayment{
			Symbol: *paymentSymbol,
			Amount: *paymentAmount,
			TxHash: *paymentTx,
			PaidAt: *paidAt,
		}
	}
	return c, nil
}
