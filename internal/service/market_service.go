package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultHistoryPoints = 100

// MarketOptions tunes the market service.
type MarketOptions struct {
	SimulateOnRead  bool
	HistoryPoints   int
	HistoryCacheTTL time.Duration
}

// globalRand draws from the goroutine-safe top-level generator.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// MarketServiceImpl implements ports.MarketService.
type MarketServiceImpl struct {
	pairRepo    ports.TradingPairRepository
	historyRepo ports.PriceHistoryRepository
	transactor  ports.DBTransactor
	provider    ports.MarketDataProvider // optional
	cache       ports.HistoryCache       // optional
	opts        MarketOptions
	rng         domain.RandomSource
	now         func() time.Time
	log         zerolog.Logger
}

// NewMarketService creates a new MarketServiceImpl. provider and cache may be nil.
func NewMarketService(
	pairRepo ports.TradingPairRepository,
	historyRepo ports.PriceHistoryRepository,
	transactor ports.DBTransactor,
	provider ports.MarketDataProvider,
	cache ports.HistoryCache,
	opts MarketOptions,
	log zerolog.Logger,
) *MarketServiceImpl {
	if opts.HistoryPoints <= 0 {
		opts.HistoryPoints = defaultHistoryPoints
	}
	if opts.HistoryCacheTTL <= 0 {
		opts.HistoryCacheTTL = 5 * time.Minute
	}
	return &MarketServiceImpl{
		pairRepo:    pairRepo,
		historyRepo: historyRepo,
		transactor:  transactor,
		provider:    provider,
		cache:       cache,
		opts:        opts,
		rng:         globalRand{},
		now:         time.Now,
		log:         log,
	}
}

// SimulateAllPrices advances every active pair by one step in one transaction.
func (s *MarketServiceImpl) SimulateAllPrices(ctx context.Context) ([]domain.TradingPair, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	pairs, err := s.pairRepo.ListActiveForUpdate(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock trading pairs: %w", err))
	}

	now := s.now()
	for i := range pairs {
		pt := pairs[i].Simulate(s.rng, now)
		if err := s.pairRepo.Update(ctx, dbTx, &pairs[i]); err != nil {
			return nil, apperror.InternalError(err)
		}
		if err := s.historyRepo.Create(ctx, dbTx, &pt); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append price history: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Debug().Int("pairs", len(pairs)).Msg("prices simulated")
	return pairs, nil
}

// SimulatePair advances a single pair by one step.
func (s *MarketServiceImpl) SimulatePair(ctx context.Context, pairSymbol string) (*domain.TradingPair, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	pair, err := s.pairRepo.GetByPairForUpdate(ctx, dbTx, strings.ToUpper(pairSymbol))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock trading pair: %w", err))
	}
	if pair == nil {
		return nil, apperror.ErrNotFound("Trading pair")
	}

	pt := pair.Simulate(s.rng, s.now())
	if err := s.pairRepo.Update(ctx, dbTx, pair); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.historyRepo.Create(ctx, dbTx, &pt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append price history: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return pair, nil
}

// MarketData lists active pairs, simulating one step first when configured to.
func (s *MarketServiceImpl) MarketData(ctx context.Context) ([]domain.TradingPair, error) {
	if s.opts.SimulateOnRead {
		if _, err := s.SimulateAllPrices(ctx); err != nil {
			s.log.Warn().Err(err).Msg("simulate on read failed, serving stored prices")
		}
	}

	pairs, err := s.pairRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list trading pairs: %w", err))
	}
	if pairs == nil {
		pairs = []domain.TradingPair{}
	}
	return pairs, nil
}

// Prices maps each listed base symbol, and the quote asset, to its USDT price.
func (s *MarketServiceImpl) Prices(ctx context.Context) (map[string]decimal.Decimal, error) {
	pairs, err := s.pairRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list trading pairs: %w", err))
	}

	prices := map[string]decimal.Decimal{domain.QuoteAsset: decimal.NewFromInt(1)}
	for _, p := range pairs {
		if p.QuoteSymbol == domain.QuoteAsset {
			prices[p.BaseSymbol] = p.CurrentPrice
		}
	}
	return prices, nil
}

// PriceHistory returns stored samples, else CoinCap hourly data, else a
// simulated one-minute walk, together with indicators over the series.
func (s *MarketServiceImpl) PriceHistory(ctx context.Context, pairSymbol string) (*domain.PriceHistory, error) {
	pairSymbol = strings.ToUpper(strings.TrimSpace(pairSymbol))
	if pairSymbol == "" {
		return nil, apperror.Validation("Missing pair parameter")
	}

	pair, err := s.pairRepo.GetByPair(ctx, pairSymbol)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get trading pair: %w", err))
	}
	if pair == nil {
		return nil, apperror.ErrNotFound("Trading pair")
	}

	points, err := s.historyRepo.ListRecent(ctx, pair.Pair, s.opts.HistoryPoints)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list price history: %w", err))
	}
	source := domain.PriceSourceDatabase

	if len(points) == 0 {
		points = s.externalHistory(ctx, pair.Pair)
		source = domain.PriceSourceCoinCap
	}
	if len(points) == 0 {
		points = s.simulatedHistory(pair)
		source = domain.PriceSourceSimulated
	}

	return &domain.PriceHistory{
		Pair:       pair.Pair,
		Source:     source,
		Points:     points,
		Indicators: computeIndicators(points),
	}, nil
}

// externalHistory returns cached or freshly fetched CoinCap points, or nil.
func (s *MarketServiceImpl) externalHistory(ctx context.Context, pair string) []domain.PricePoint {
	assetID, ok := domain.CoinCapAssets[pair]
	if !ok || s.provider == nil {
		return nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, pair)
		if err != nil {
			s.log.Warn().Err(err).Str("pair", pair).Msg("history cache read failed")
		}
		if len(cached) > 0 {
			return cached
		}
	}

	points, err := s.provider.History(ctx, assetID, s.opts.HistoryPoints)
	if err != nil {
		s.log.Warn().Err(err).Str("pair", pair).Str("asset", assetID).Msg("coincap history unavailable")
		return nil
	}
	for i := range points {
		points[i].Pair = pair
	}

	if s.cache != nil && len(points) > 0 {
		if err := s.cache.Set(ctx, pair, points, s.opts.HistoryCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("pair", pair).Msg("history cache write failed")
		}
	}
	return points
}

// simulatedHistory walks back from the current price one minute per point.
func (s *MarketServiceImpl) simulatedHistory(pair *domain.TradingPair) []domain.PricePoint {
	n := s.opts.HistoryPoints
	now := s.now().UTC().Truncate(time.Minute)
	price := pair.CurrentPrice
	points := make([]domain.PricePoint, 0, n)

	for i := 0; i < n; i++ {
		move := decimal.NewFromFloat((s.rng.Float64()*2 - 1) * domain.MaxTickMove)
		price = price.Mul(decimal.NewFromInt(1).Add(move)).Round(domain.PriceScale)
		if price.LessThan(domain.MinPrice) {
			price = domain.MinPrice
		}
		volScale := decimal.NewFromFloat(0.8 + s.rng.Float64()*0.4)
		volume := pair.Volume24h.Mul(volScale).Div(decimal.NewFromInt(100)).Round(2)

		points = append(points, domain.PricePoint{
			Pair:      pair.Pair,
			Price:     price,
			Volume:    volume,
			Timestamp: now.Add(-time.Duration(n-1-i) * time.Minute),
		})
	}
	return points
}

// SeedPairs lists the catalogue pairs that are missing and returns how many were created.
func (s *MarketServiceImpl) SeedPairs(ctx context.Context) (int, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	created := 0
	for _, p := range domain.SeedPairs() {
		p.ID = uuid.New()
		p.LastUpdated = now
		ok, err := s.pairRepo.CreateIfNotExists(ctx, &p)
		if err != nil {
			return created, apperror.InternalError(err)
		}
		if ok {
			created++
		}
	}
	s.log.Info().Int("created", created).Msg("trading pairs seeded")
	return created, nil
}
