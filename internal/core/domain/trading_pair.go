package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// PriceScale is the number of decimals kept on simulated prices.
	PriceScale = 8
	// MaxTickMove bounds the relative price move of one simulation step.
	MaxTickMove = 0.01
	// MaxVolumeMove bounds the relative volume move of one simulation step.
	MaxVolumeMove = 0.05
)

// MinPrice is the floor applied to simulated prices.
var MinPrice = decimal.New(1, -PriceScale)

// RandomSource is the subset of *rand.Rand the simulator needs.
type RandomSource interface {
	Float64() float64
}

// TradingPair is a listed market such as BTCUSDT.
type TradingPair struct {
	ID             uuid.UUID       `json:"id"`
	Pair           string          `json:"pair"`
	BaseSymbol     string          `json:"base_symbol"`
	QuoteSymbol    string          `json:"quote_symbol"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Open24h        decimal.Decimal `json:"open_24h"`
	PriceChange24h decimal.Decimal `json:"price_change_24h"`
	Volume24h      decimal.Decimal `json:"volume_24h"`
	High24h        decimal.Decimal `json:"high_24h"`
	Low24h         decimal.Decimal `json:"low_24h"`
	IsActive       bool            `json:"is_active"`
	LastUpdated    time.Time       `json:"last_updated"`
}

func sessionStart(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// PairSymbol joins base and quote into a pair symbol.
func PairSymbol(base, quote string) string {
	return base + quote
}

// Simulate advances the pair by one random-walk step and returns the
// resulting history point. The price stays at or above MinPrice and
// LastUpdated strictly increases across calls. The 24h statistics cover
// the current UTC day: the first step of a new day reopens them at the
// previous price.
func (p *TradingPair) Simulate(rng RandomSource, now time.Time) PricePoint {
	if p.Open24h.IsZero() || sessionStart(now).After(p.LastUpdated) {
		p.Open24h = p.CurrentPrice
		p.High24h = p.CurrentPrice
		p.Low24h = p.CurrentPrice
	}

	move := decimal.NewFromFloat(uniform(rng, MaxTickMove))
	price := p.CurrentPrice.Mul(decimal.NewFromInt(1).Add(move)).Round(PriceScale)
	if price.LessThan(MinPrice) {
		price = MinPrice
	}
	p.CurrentPrice = price

	if p.High24h.IsZero() || price.GreaterThan(p.High24h) {
		p.High24h = price
	}
	if p.Low24h.IsZero() || price.LessThan(p.Low24h) {
		p.Low24h = price
	}

	if p.Open24h.IsPositive() {
		p.PriceChange24h = price.Sub(p.Open24h).Div(p.Open24h).Mul(decimal.NewFromInt(100)).Round(4)
	}

	volMove := decimal.NewFromFloat(uniform(rng, MaxVolumeMove))
	volume := p.Volume24h.Mul(decimal.NewFromInt(1).Add(volMove)).Round(2)
	if volume.IsNegative() {
		volume = decimal.Zero
	}
	p.Volume24h = volume

	// Storage keeps microseconds.
	ts := now.UTC().Truncate(time.Microsecond)
	if !ts.After(p.LastUpdated) {
		ts = p.LastUpdated.Add(time.Microsecond)
	}
	p.LastUpdated = ts

	return PricePoint{
		Pair:      p.Pair,
		Price:     price,
		Volume:    volume,
		Timestamp: ts,
	}
}

// uniform returns a value drawn from U(-bound, +bound).
func uniform(rng RandomSource, bound float64) float64 {
	return (rng.Float64()*2 - 1) * bound
}
