package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderHistoryLimit = 50

// TradingServiceImpl implements ports.TradingService. Orders settle against
// the simulated venue at the pair's current price; no counterparty wallet
// is touched.
type TradingServiceImpl struct {
	ledger     *Ledger
	pairRepo   ports.TradingPairRepository
	orderRepo  ports.OrderRepository
	tradeRepo  ports.TradeRepository
	transactor ports.DBTransactor
	events     ports.EventPublisher
	log        zerolog.Logger
	now        func() time.Time
}

// NewTradingService creates a new TradingServiceImpl.
func NewTradingService(
	ledger *Ledger,
	pairRepo ports.TradingPairRepository,
	orderRepo ports.OrderRepository,
	tradeRepo ports.TradeRepository,
	transactor ports.DBTransactor,
	events ports.EventPublisher,
	log zerolog.Logger,
) *TradingServiceImpl {
	return &TradingServiceImpl{
		ledger:     ledger,
		pairRepo:   pairRepo,
		orderRepo:  orderRepo,
		tradeRepo:  tradeRepo,
		transactor: transactor,
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

// validateOrder maps order validation failures to their error codes.
func validateOrder(o *domain.Order) error {
	if !domain.ValidSide(o.Side) {
		return apperror.ErrInvalidSide()
	}
	if !validAmount(o.Quantity) {
		return apperror.ErrInvalidQuantity()
	}
	switch o.Type {
	case domain.OrderTypeMarket:
	case domain.OrderTypeLimit:
		if o.Price == nil || !validAmount(*o.Price) {
			return apperror.ErrInvalidPrice()
		}
	default:
		return apperror.ErrInvalidOrderType()
	}
	return o.Validate()
}

func (s *TradingServiceImpl) getPair(ctx context.Context, symbol string) (*domain.TradingPair, error) {
	pair, err := s.pairRepo.GetByPair(ctx, symbol)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get trading pair: %w", err))
	}
	if pair == nil || !pair.IsActive {
		return nil, apperror.ErrNotFound("Trading pair")
	}
	return pair, nil
}

// PlaceOrder executes a market order or rests a limit order and runs one
// matching pass over its pair.
func (s *TradingServiceImpl) PlaceOrder(ctx context.Context, req ports.PlaceOrderRequest) (*ports.OrderResult, error) {
	if req.Type == "" {
		req.Type = domain.OrderTypeMarket
	}
	if req.Type == domain.OrderTypeMarket {
		return s.ExecuteMarketOrder(ctx, req.UserID, req.Pair, req.Side, req.Quantity)
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:             uuid.New(),
		OrderID:        domain.NewOrderID(now),
		UserID:         req.UserID,
		Pair:           req.Pair,
		Type:           req.Type,
		Side:           req.Side,
		Quantity:       req.Quantity,
		Price:          req.Price,
		FilledQuantity: decimal.Zero,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validateOrder(order); err != nil {
		return nil, err
	}
	if _, err := s.getPair(ctx, req.Pair); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.orderRepo.Create(ctx, dbTx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create order: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("order_id", order.OrderID).
		Str("user_id", req.UserID.String()).
		Str("pair", order.Pair).
		Str("side", string(order.Side)).
		Str("quantity", order.Quantity.String()).
		Str("price", order.Price.String()).
		Msg("limit order placed")

	result := &ports.OrderResult{Order: order}
	fills, err := s.matchPair(ctx, req.Pair)
	if err != nil {
		s.log.Warn().Err(err).Str("pair", req.Pair).Msg("limit matching after placement failed")
		return result, nil
	}
	if trade, ok := fills[order.OrderID]; ok {
		result.Trade = trade
	}

	latest, err := s.orderRepo.GetByOrderID(ctx, order.OrderID)
	if err == nil && latest != nil {
		result.Order = latest
	}
	return result, nil
}

// ExecuteMarketOrder fills quantity of pair at its current price.
func (s *TradingServiceImpl) ExecuteMarketOrder(ctx context.Context, userID uuid.UUID, pairSymbol string, side domain.OrderSide, quantity decimal.Decimal) (*ports.OrderResult, error) {
	if !domain.ValidSide(side) {
		return nil, apperror.ErrInvalidSide()
	}
	if !validAmount(quantity) {
		return nil, apperror.ErrInvalidQuantity()
	}

	pair, err := s.getPair(ctx, pairSymbol)
	if err != nil {
		return nil, err
	}
	price := pair.CurrentPrice

	now := s.now().UTC()
	order := &domain.Order{
		ID:             uuid.New(),
		OrderID:        domain.NewOrderID(now),
		UserID:         userID,
		Pair:           pair.Pair,
		Type:           domain.OrderTypeMarket,
		Side:           side,
		Quantity:       quantity,
		FilledQuantity: decimal.Zero,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	trade, err := s.settle(ctx, dbTx, order, pair, price)
	if err != nil {
		return nil, err
	}
	order.Fill(price, now)
	if err := s.orderRepo.Create(ctx, dbTx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create order: %w", err))
	}
	if err := s.tradeRepo.Create(ctx, dbTx, trade); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create trade: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.logTrade(trade, "market order filled")
	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventTradeExecuted, trade.OrderID, &userID, trade))
	return &ports.OrderResult{Order: order, Trade: trade}, nil
}

// settle moves balances for one fill of order at price. The base and quote
// wallets are locked in symbol order. The credited wallet is provisioned
// when missing.
func (s *TradingServiceImpl) settle(ctx context.Context, dbTx pgx.Tx, order *domain.Order, pair *domain.TradingPair, price decimal.Decimal) (*domain.Trade, error) {
	qty := order.Quantity
	cost := qty.Mul(price).Round(maxAmountScale)
	buy := order.Side == domain.OrderSideBuy

	lockBase := func() (*domain.Wallet, error) {
		return s.ledger.lockWallet(ctx, dbTx, order.UserID, pair.BaseSymbol, buy)
	}
	lockQuote := func() (*domain.Wallet, error) {
		return s.ledger.lockWallet(ctx, dbTx, order.UserID, pair.QuoteSymbol, !buy)
	}

	var base, quote *domain.Wallet
	var err error
	if pair.BaseSymbol < pair.QuoteSymbol {
		if base, err = lockBase(); err == nil {
			quote, err = lockQuote()
		}
	} else {
		if quote, err = lockQuote(); err == nil {
			base, err = lockBase()
		}
	}
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	if buy {
		if quote == nil || !quote.Balance.GreaterThanOrEqual(cost) {
			return nil, apperror.ErrInsufficientFunds()
		}
		if !quote.IsActive || !base.IsActive {
			return nil, apperror.ErrWalletInactive()
		}
		quote.Debit(cost)
		base.Credit(qty)
	} else {
		if base == nil || !base.Balance.GreaterThanOrEqual(qty) {
			return nil, apperror.ErrInsufficientFunds()
		}
		if !quote.IsActive || !base.IsActive {
			return nil, apperror.ErrWalletInactive()
		}
		base.Debit(qty)
		quote.Credit(cost)
	}

	if err := s.ledger.save(ctx, dbTx, base); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.ledger.save(ctx, dbTx, quote); err != nil {
		return nil, apperror.InternalError(err)
	}

	return &domain.Trade{
		ID:          uuid.New(),
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		Pair:        pair.Pair,
		Side:        order.Side,
		Quantity:    qty,
		Price:       price,
		QuoteAmount: cost,
		CreatedAt:   s.now().UTC(),
	}, nil
}

// MatchLimitOrders fills every marketable pending limit order of pair.
func (s *TradingServiceImpl) MatchLimitOrders(ctx context.Context, pair string) (int, error) {
	fills, err := s.matchPair(ctx, pair)
	return len(fills), err
}

// sortByPriority orders buys by highest price then oldest, followed by sells
// by lowest price then oldest.
func sortByPriority(orders []domain.Order) {
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		if a.Side != b.Side {
			if a.Side == domain.OrderSideBuy {
				return -1
			}
			return 1
		}
		var byPrice int
		switch {
		case a.Price == nil || b.Price == nil:
		case a.Side == domain.OrderSideBuy:
			byPrice = b.Price.Cmp(*a.Price)
		default:
			byPrice = a.Price.Cmp(*b.Price)
		}
		if byPrice != 0 {
			return byPrice
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func (s *TradingServiceImpl) matchPair(ctx context.Context, pairSymbol string) (map[string]*domain.Trade, error) {
	pair, err := s.getPair(ctx, pairSymbol)
	if err != nil {
		return nil, err
	}

	pending, err := s.orderRepo.ListPendingLimit(ctx, pair.Pair)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list pending orders: %w", err))
	}
	sortByPriority(pending)

	fills := make(map[string]*domain.Trade)
	for i := range pending {
		if !pending[i].IsMarketable(pair.CurrentPrice) {
			continue
		}
		trade, err := s.fillLimitOrder(ctx, pending[i].OrderID, pair)
		if err != nil {
			return fills, err
		}
		if trade != nil {
			fills[trade.OrderID] = trade
		}
	}

	if len(fills) > 0 {
		s.log.Info().Str("pair", pair.Pair).Int("fills", len(fills)).Msg("limit orders matched")
	}
	return fills, nil
}

// fillLimitOrder settles one order in its own transaction. An order that can
// no longer settle is rejected. A nil trade means nothing was filled.
func (s *TradingServiceImpl) fillLimitOrder(ctx context.Context, orderID string, pair *domain.TradingPair) (*domain.Trade, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orderRepo.GetByOrderIDForUpdate(ctx, dbTx, orderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}
	price := pair.CurrentPrice
	if order == nil || !order.IsMarketable(price) {
		return nil, nil
	}

	trade, err := s.settle(ctx, dbTx, order, pair, price)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
			_ = dbTx.Rollback(ctx)
			return nil, s.rejectOrder(ctx, orderID, appErr)
		}
		return nil, err
	}

	order.Fill(price, s.now().UTC())
	if err := s.orderRepo.Update(ctx, dbTx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update order: %w", err))
	}
	if err := s.tradeRepo.Create(ctx, dbTx, trade); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create trade: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.logTrade(trade, "limit order filled")
	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventTradeExecuted, trade.OrderID, &trade.UserID, trade))
	return trade, nil
}

func (s *TradingServiceImpl) rejectOrder(ctx context.Context, orderID string, reason *apperror.AppError) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orderRepo.GetByOrderIDForUpdate(ctx, dbTx, orderID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil || order.Status != domain.OrderStatusPending {
		return nil
	}

	order.Status = domain.OrderStatusRejected
	order.UpdatedAt = s.now().UTC()
	if err := s.orderRepo.Update(ctx, dbTx, order); err != nil {
		return apperror.InternalError(fmt.Errorf("update order: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Warn().
		Str("order_id", orderID).
		Str("user_id", order.UserID.String()).
		Str("reason", reason.Code).
		Msg("limit order rejected")
	return nil
}

// CancelOrder withdraws a pending order owned by userID.
func (s *TradingServiceImpl) CancelOrder(ctx context.Context, userID uuid.UUID, orderID string) (*domain.Order, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orderRepo.GetByOrderIDForUpdate(ctx, dbTx, orderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil || order.UserID != userID {
		return nil, apperror.ErrNotFound("Order")
	}
	if !order.IsCancellable() {
		return nil, apperror.ErrOrderNotCancellable()
	}

	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = s.now().UTC()
	if err := s.orderRepo.Update(ctx, dbTx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update order: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("order_id", orderID).Str("user_id", userID.String()).Msg("order cancelled")
	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventOrderCancelled, orderID, &userID, order))
	return order, nil
}

// ListOrders returns the most recent orders of userID.
func (s *TradingServiceImpl) ListOrders(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID, orderHistoryLimit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list orders: %w", err))
	}
	return orders, nil
}

// OrderBook lists the resting limit orders of pair. Unknown pairs have an empty book.
func (s *TradingServiceImpl) OrderBook(ctx context.Context, pair string) (*ports.OrderBook, error) {
	pending, err := s.orderRepo.ListPendingLimit(ctx, pair)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list pending orders: %w", err))
	}
	sortByPriority(pending)

	book := &ports.OrderBook{Pair: pair, Bids: []ports.OrderBookEntry{}, Asks: []ports.OrderBookEntry{}}
	for _, o := range pending {
		if o.Price == nil {
			continue
		}
		entry := ports.OrderBookEntry{
			OrderID:   o.OrderID,
			Price:     *o.Price,
			Quantity:  o.Quantity.Sub(o.FilledQuantity),
			CreatedAt: o.CreatedAt,
		}
		if o.Side == domain.OrderSideBuy {
			book.Bids = append(book.Bids, entry)
		} else {
			book.Asks = append(book.Asks, entry)
		}
	}
	return book, nil
}

func (s *TradingServiceImpl) logTrade(t *domain.Trade, msg string) {
	s.log.Info().
		Str("order_id", t.OrderID).
		Str("user_id", t.UserID.String()).
		Str("pair", t.Pair).
		Str("side", string(t.Side)).
		Str("quantity", t.Quantity.String()).
		Str("price", t.Price.String()).
		Str("quote_amount", t.QuoteAmount.String()).
		Msg(msg)
}

