package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Order is a request to trade Quantity of the pair's base asset.
type Order struct {
	ID             uuid.UUID        `json:"id"`
	OrderID        string           `json:"order_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Pair           string           `json:"pair"`
	Type           OrderType        `json:"order_type"`
	Side           OrderSide        `json:"side"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	FilledQuantity decimal.Decimal  `json:"filled_quantity"`
	AvgFillPrice   *decimal.Decimal `json:"avg_fill_price,omitempty"`
	Status         OrderStatus      `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ValidSide reports whether s is buy or sell.
func ValidSide(s OrderSide) bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// Validate checks side, type, quantity and, for limit orders, the limit price.
func (o *Order) Validate() error {
	if !ValidSide(o.Side) {
		return fmt.Errorf("invalid side %q", o.Side)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	switch o.Type {
	case OrderTypeMarket:
	case OrderTypeLimit:
		if o.Price == nil || !o.Price.IsPositive() {
			return fmt.Errorf("limit order requires a positive price")
		}
	default:
		return fmt.Errorf("invalid order type %q", o.Type)
	}
	return nil
}

// IsMarketable reports whether a pending limit order can fill at price.
func (o *Order) IsMarketable(price decimal.Decimal) bool {
	if o.Type != OrderTypeLimit || o.Status != OrderStatusPending || o.Price == nil {
		return false
	}
	if o.Side == OrderSideBuy {
		return o.Price.GreaterThanOrEqual(price)
	}
	return o.Price.LessThanOrEqual(price)
}

// IsCancellable reports whether the order may still be withdrawn.
func (o *Order) IsCancellable() bool {
	return o.Status == OrderStatusPending
}

// Fill marks the order fully executed at price.
func (o *Order) Fill(price decimal.Decimal, at time.Time) {
	o.FilledQuantity = o.Quantity
	p := price
	o.AvgFillPrice = &p
	o.Status = OrderStatusFilled
	o.UpdatedAt = at
}

// NewOrderID returns an ORD_ identifier.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD_%d_%04d", now.Unix(), rand.IntN(9000)+1000)
}

// Trade records one fill of an order.
type Trade struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     string          `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Pair        string          `json:"pair"`
	Side        OrderSide       `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	QuoteAmount decimal.Decimal `json:"quote_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
