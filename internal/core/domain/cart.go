package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusPending CartStatus = "pending"
	CartStatusPaid    CartStatus = "paid"
)

// CartItem is a line of a checkout cart.
type CartItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CartPayment is embedded in a cart once it has been paid.
type CartPayment struct {
	Symbol string          `json:"crypto_symbol"`
	Amount decimal.Decimal `json:"crypto_amount"`
	TxHash string          `json:"tx_hash"`
	PaidAt time.Time       `json:"paid_at"`
}

// Cart is a checkout priced in USD and settled in crypto.
type Cart struct {
	ID           uuid.UUID       `json:"id"`
	CartID       string          `json:"cart_id"`
	UserID       uuid.UUID       `json:"user_id"`
	MerchantName string          `json:"merchant_name"`
	Items        []CartItem      `json:"items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       CartStatus      `json:"status"`
	Payment      *CartPayment    `json:"payment,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsPayable reports whether the cart still awaits payment.
func (c *Cart) IsPayable() bool {
	return c.Status == CartStatusPending
}

// NewCartID returns a CART_ identifier.
func NewCartID(now time.Time) string {
	return fmt.Sprintf("CART_%d_%d", now.Unix(), rand.IntN(9000)+1000)
}
