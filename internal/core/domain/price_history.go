package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource tells clients where a history series came from.
type PriceSource string

const (
	PriceSourceDatabase  PriceSource = "database"
	PriceSourceCoinCap   PriceSource = "coincap"
	PriceSourceSimulated PriceSource = "simulated"
)

// PricePoint is one sample of a pair's price.
type PricePoint struct {
	Pair      string          `json:"pair"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// PriceHistory is a series of points plus derived indicators.
type PriceHistory struct {
	Pair       string       `json:"pair"`
	Source     PriceSource  `json:"source"`
	Points     []PricePoint `json:"history"`
	Indicators Indicators   `json:"indicators"`
}

// Indicators are computed over the closing prices of a history series.
// A nil field means the series was too short.
type Indicators struct {
	SMA20 *float64 `json:"sma_20,omitempty"`
	EMA20 *float64 `json:"ema_20,omitempty"`
	RSI14 *float64 `json:"rsi_14,omitempty"`
}
