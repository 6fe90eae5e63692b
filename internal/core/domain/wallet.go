package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds one asset balance for one owner. (OwnerID, Symbol) is unique.
type Wallet struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	PrivateKeyEnc string          `json:"-"` // AES-256-GCM encrypted, never expose
	Balance       decimal.Decimal `json:"balance"`
	Network       string          `json:"network"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CanDebit reports whether the wallet is active and holds at least amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.IsActive && w.Balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the balance. Callers check CanDebit first under lock.
func (w *Wallet) Debit(amount decimal.Decimal) {
	w.Balance = w.Balance.Sub(amount)
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount decimal.Decimal) {
	w.Balance = w.Balance.Add(amount)
}
