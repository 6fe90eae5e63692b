package service

import (
	"context"
	"time"

	"arc-exchange/internal/core/ports"

	"github.com/rs/zerolog"
)

// MarketTicker drives the simulated venue: each tick advances prices,
// matches resting limit orders and pushes a snapshot to live subscribers.
type MarketTicker struct {
	market      ports.MarketService
	trading     ports.TradingService
	broadcaster ports.MarketBroadcaster // optional
	interval    time.Duration
	log         zerolog.Logger
}

// NewMarketTicker creates a ticker. broadcaster may be nil.
func NewMarketTicker(
	market ports.MarketService,
	trading ports.TradingService,
	broadcaster ports.MarketBroadcaster,
	interval time.Duration,
	log zerolog.Logger,
) *MarketTicker {
	return &MarketTicker{
		market:      market,
		trading:     trading,
		broadcaster: broadcaster,
		interval:    interval,
		log:         log,
	}
}

// Run ticks until ctx is cancelled. A non-positive interval returns immediately.
func (t *MarketTicker) Run(ctx context.Context) {
	if t.interval <= 0 {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.log.Info().Dur("interval", t.interval).Msg("market ticker started")
	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("market ticker stopped")
			return
		case <-ticker.C:
			if err := t.Tick(ctx); err != nil && ctx.Err() == nil {
				t.log.Error().Err(err).Msg("market tick failed")
			}
		}
	}
}

// Tick runs one simulate, match and broadcast cycle.
func (t *MarketTicker) Tick(ctx context.Context) error {
	pairs, err := t.market.SimulateAllPrices(ctx)
	if err != nil {
		return err
	}

	for _, p := range pairs {
		if _, err := t.trading.MatchLimitOrders(ctx, p.Pair); err != nil {
			t.log.Warn().Err(err).Str("pair", p.Pair).Msg("limit matching failed")
		}
	}

	if t.broadcaster != nil {
		t.broadcaster.Broadcast(pairs)
	}
	return nil
}
