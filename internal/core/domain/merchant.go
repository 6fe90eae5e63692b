package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCartMerchant receives cart checkouts that name no merchant.
const DefaultCartMerchant = "curve"

// Merchant is the business profile of a merchant user. Its wallets are
// the wallets of UserID.
type Merchant struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	MerchantName     string          `json:"merchant_name"`
	BusinessName     string          `json:"business_name"`
	WebsiteURL       string          `json:"website_url,omitempty"`
	WebhookURL       *string         `json:"webhook_url,omitempty"`
	WebhookSecretEnc string          `json:"-"` // Encrypted, never expose
	TotalReceived    decimal.Decimal `json:"total_received"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StatsPeriod selects the window of merchant statistics.
type StatsPeriod string

const (
	StatsPeriodDay   StatsPeriod = "day"
	StatsPeriodWeek  StatsPeriod = "week"
	StatsPeriodMonth StatsPeriod = "month"
	StatsPeriodAll   StatsPeriod = "all"
)

// Since returns the start of the period ending at now. The zero time means unbounded.
func (p StatsPeriod) Since(now time.Time) time.Time {
	switch p {
	case StatsPeriodDay:
		return now.Add(-24 * time.Hour)
	case StatsPeriodWeek:
		return now.AddDate(0, 0, -7)
	case StatsPeriodMonth:
		return now.AddDate(0, -1, 0)
	default:
		return time.Time{}
	}
}

// ValidStatsPeriod reports whether p is a known period.
func ValidStatsPeriod(p StatsPeriod) bool {
	switch p {
	case StatsPeriodDay, StatsPeriodWeek, StatsPeriodMonth, StatsPeriodAll:
		return true
	}
	return false
}

// SymbolStats aggregates received payments for one symbol.
type SymbolStats struct {
	Symbol      string          `json:"crypto_symbol"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// MerchantStats summarizes payments a merchant received in a period.
type MerchantStats struct {
	MerchantName  string          `json:"merchant_name"`
	Period        StatsPeriod     `json:"period"`
	Since         *time.Time      `json:"since,omitempty"`
	PaymentCount  int64           `json:"payment_count"`
	TotalReceived decimal.Decimal `json:"total_received"` // lifetime, in USDT
	BySymbol      []SymbolStats   `json:"by_symbol"`
}
