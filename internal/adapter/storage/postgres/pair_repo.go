package postgres

import (
	"context"
	"errors"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const pairColumns = `id, pair, base_symbol, quote_symbol, current_price, open_24h, price_change_24h,
	volume_24h, high_24h, low_24h, is_active, last_updated`

// TradingPairRepo implements ports.TradingPairRepository.
type TradingPairRepo struct {
	pool Pool
}

// NewTradingPairRepo creates a new TradingPairRepo.
func NewTradingPairRepo(pool Pool) *TradingPairRepo {
	return &TradingPairRepo{pool: pool}
}

// CreateIfNotExists inserts a pair unless its symbol is already listed.
func (r *TradingPairRepo) CreateIfNotExists(ctx context.Context, p *domain.TradingPair) (bool, error) {
	query := `INSERT INTO trading_pairs (` + pairColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (pair) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Pair, p.BaseSymbol, p.QuoteSymbol, p.CurrentPrice, p.Open24h, p.PriceChange24h,
		p.Volume24h, p.High24h, p.Low24h, p.IsActive, p.LastUpdated,
	)
	if err != nil {
		return false, fmt.Errorf("insert trading pair: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByPair fetches a pair by symbol, e.g. BTCUSDT.
func (r *TradingPairRepo) GetByPair(ctx context.Context, pair string) (*domain.TradingPair, error) {
	query := `SELECT ` + pairColumns + ` FROM trading_pairs WHERE pair = $1`
	return scanPair(r.pool.QueryRow(ctx, query, pair))
}

// GetByPairForUpdate fetches and locks a pair.
// This MUST be called within a transaction.
func (r *TradingPairRepo) GetByPairForUpdate(ctx context.Context, tx pgx.Tx, pair string) (*domain.TradingPair, error) {
	query := `SELECT ` + pairColumns + ` FROM trading_pairs WHERE pair = $1 FOR UPDATE`
	return scanPair(tx.QueryRow(ctx, query, pair))
}

// ListActive returns all active pairs ordered by symbol.
func (r *TradingPairRepo) ListActive(ctx context.Context) ([]domain.TradingPair, error) {
	query := `SELECT ` + pairColumns + ` FROM trading_pairs WHERE is_active = TRUE ORDER BY pair`
	return r.list(ctx, r.pool, query)
}

// ListActiveForUpdate locks all active pairs so concurrent simulator runs serialize.
func (r *TradingPairRepo) ListActiveForUpdate(ctx context.Context, tx pgx.Tx) ([]domain.TradingPair, error) {
	query := `SELECT ` + pairColumns + ` FROM trading_pairs WHERE is_active = TRUE ORDER BY pair FOR UPDATE`
	return r.list(ctx, tx, query)
}

// Update persists the simulated quote of a pair.
func (r *TradingPairRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.TradingPair) error {
	query := `UPDATE trading_pairs SET current_price = $1, open_24h = $2, price_change_24h = $3,
		volume_24h = $4, high_24h = $5, low_24h = $6, last_updated = $7 WHERE id = $8`

	tag, err := tx.Exec(ctx, query,
		p.CurrentPrice, p.Open24h, p.PriceChange24h, p.Volume24h, p.High24h, p.Low24h, p.LastUpdated, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update trading pair: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trading pair not found: %s", p.Pair)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *TradingPairRepo) list(ctx context.Context, q querier, query string) ([]domain.TradingPair, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trading pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.TradingPair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading pair rows: %w", err)
	}
	return pairs, nil
}

func scanPair(row pgx.Row) (*domain.TradingPair, error) {
	p := &domain.TradingPair{}
	err := row.Scan(
		&p.ID, &p.Pair, &p.BaseSymbol, &p.QuoteSymbol, &p.CurrentPrice, &p.Open24h, &p.PriceChange24h,
		&p.Volume24h, &p.High24h, &p.Low24h, &p.IsActive, &p.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan trading pair: %w", err)
	}
	return p, nil
}
