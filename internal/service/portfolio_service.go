package service

import (
	"context"
	"fmt"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortfolioServiceImpl implements ports.PortfolioService. It never writes.
type PortfolioServiceImpl struct {
	walletRepo ports.WalletRepository
	pairRepo   ports.TradingPairRepository
}

// NewPortfolioService creates a new PortfolioServiceImpl.
func NewPortfolioService(walletRepo ports.WalletRepository, pairRepo ports.TradingPairRepository) *PortfolioServiceImpl {
	return &PortfolioServiceImpl{walletRepo: walletRepo, pairRepo: pairRepo}
}

// CalculatePortfolioValue returns the USDT value of every wallet of userID.
func (s *PortfolioServiceImpl) CalculatePortfolioValue(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	p, err := s.GetPortfolio(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.TotalValue, nil
}

// GetPortfolio values each wallet at the last price of its SYMBOL+USDT pair,
// listed or not. USDT counts at 1 and symbols without a pair count at 0.
func (s *PortfolioServiceImpl) GetPortfolio(ctx context.Context, userID uuid.UUID) (*ports.Portfolio, error) {
	wallets, err := s.walletRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}

	portfolio := &ports.Portfolio{
		UserID:     userID,
		Wallets:    make([]ports.WalletValuation, 0, len(wallets)),
		TotalValue: decimal.Zero,
	}
	for _, w := range wallets {
		v := ports.WalletValuation{Wallet: w, Value: decimal.Zero}
		if w.Symbol == domain.QuoteAsset {
			one := decimal.NewFromInt(1)
			v.Price = &one
			v.Value = w.Balance
		} else {
			pair, err := s.pairRepo.GetByPair(ctx, domain.PairSymbol(w.Symbol, domain.QuoteAsset))
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("get trading pair: %w", err))
			}
			if pair != nil {
				price := pair.CurrentPrice
				v.Price = &price
				v.Value = w.Balance.Mul(price)
			}
		}
		portfolio.TotalValue = portfolio.TotalValue.Add(v.Value)
		portfolio.Wallets = append(portfolio.Wallets, v)
	}
	return portfolio, nil
}
