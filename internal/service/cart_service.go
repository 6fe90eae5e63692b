package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartServiceImpl implements ports.CartService.
type CartServiceImpl struct {
	ledger       *Ledger
	cartRepo     ports.CartRepository
	merchantRepo ports.MerchantRepository
	pairRepo     ports.TradingPairRepository
	merchants    ports.MerchantService
	transactor   ports.DBTransactor
	webhooks     ports.WebhookService // optional
	events       ports.EventPublisher
	log          zerolog.Logger
	now          func() time.Time
}

// NewCartService creates a new CartServiceImpl.
func NewCartService(
	ledger *Ledger,
	cartRepo ports.CartRepository,
	merchantRepo ports.MerchantRepository,
	pairRepo ports.TradingPairRepository,
	merchants ports.MerchantService,
	transactor ports.DBTransactor,
	webhooks ports.WebhookService,
	events ports.EventPublisher,
	log zerolog.Logger,
) *CartServiceImpl {
	return &CartServiceImpl{
		ledger:       ledger,
		cartRepo:     cartRepo,
		merchantRepo: merchantRepo,
		pairRepo:     pairRepo,
		merchants:    merchants,
		transactor:   transactor,
		webhooks:     webhooks,
		events:       events,
		log:          log,
		now:          time.Now,
	}
}

// Create opens a pending cart, creating the merchant on first use.
func (s *CartServiceImpl) Create(ctx context.Context, req ports.CreateCartRequest) (*domain.Cart, error) {
	if req.TotalAmount.IsZero() {
		req.TotalAmount = cartTotal(req.Items)
	}
	if !req.TotalAmount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" || item.Price.IsNegative() || item.Quantity <= 0 {
			return nil, apperror.Validation("Invalid cart item")
		}
	}

	name := strings.TrimSpace(req.MerchantName)
	if name == "" {
		name = domain.DefaultCartMerchant
	}
	merchant, err := s.merchants.EnsureMerchant(ctx, name)
	if err != nil {
		return nil, err
	}

	items := req.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	now := s.now().UTC()
	cart := &domain.Cart{
		ID:           uuid.New(),
		CartID:       domain.NewCartID(now),
		UserID:       req.UserID,
		MerchantName: merchant.MerchantName,
		Items:        items,
		TotalAmount:  req.TotalAmount,
		Status:       domain.CartStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create cart: %w", err))
	}

	s.log.Info().
		Str("cart_id", cart.CartID).
		Str("user_id", req.UserID.String()).
		Str("merchant", cart.MerchantName).
		Str("total", cart.TotalAmount.String()).
		Msg("cart created")
	return cart, nil
}

// Get returns a cart owned by userID.
func (s *CartServiceImpl) Get(ctx context.Context, userID uuid.UUID, cartID string) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetByCartID(ctx, cartID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get cart: %w", err))
	}
	if cart == nil || cart.UserID != userID {
		return nil, apperror.ErrNotFound("Cart")
	}
	return cart, nil
}

// Pay settles a cart in symbol at the current symbol/USDT price.
func (s *CartServiceImpl) Pay(ctx context.Context, userID uuid.UUID, cartID, symbol string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, apperror.Validation("Cart id required")
	}
	symbol = normalizeSymbol(symbol)

	pair, err := s.pairRepo.GetByPair(ctx, domain.PairSymbol(symbol, domain.QuoteAsset))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get trading pair: %w", err))
	}
	if pair == nil || !pair.CurrentPrice.IsPositive() {
		return nil, apperror.ErrUnsupportedSymbol()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	cart, err := s.cartRepo.GetByCartIDForUpdate(ctx, dbTx, cartID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock cart: %w", err))
	}
	if cart == nil || cart.UserID != userID {
		return nil, apperror.ErrNotFound("Cart")
	}
	if !cart.IsPayable() {
		return nil, apperror.ErrCartProcessed()
	}

	amount := cart.TotalAmount.DivRound(pair.CurrentPrice, domain.PriceScale)
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	merchant, err := s.merchantRepo.GetByName(ctx, cart.MerchantName)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil || !merchant.IsActive {
		return nil, apperror.ErrNotFound("Merchant")
	}

	record, err := s.ledger.transfer(ctx, dbTx, transferParams{
		From:   userID,
		To:     merchant.UserID,
		Symbol: symbol,
		Amount: amount,
		Memo:   "Cart payment " + cart.CartID,
		Type:   domain.TransactionTypeCartPayment,
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.CartPayment{
		Symbol: symbol,
		Amount: amount,
		TxHash: record.Hash,
		PaidAt: s.now().UTC(),
	}
	if err := s.cartRepo.MarkPaid(ctx, dbTx, cart.CartID, payment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark cart paid: %w", err))
	}
	if err := s.merchantRepo.AddReceived(ctx, dbTx, merchant.ID, cart.TotalAmount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add merchant total: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	cart.Status = domain.CartStatusPaid
	cart.Payment = payment
	cart.UpdatedAt = payment.PaidAt

	s.log.Info().
		Str("cart_id", cart.CartID).
		Str("tx_hash", record.Hash).
		Str("symbol", symbol).
		Str("crypto_amount", amount.String()).
		Str("total", cart.TotalAmount.String()).
		Msg("cart paid")

	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventCartPaid, cart.CartID, &userID, cart))
	if s.webhooks != nil {
		n := ports.WebhookNotification{
			Event:       domain.EventCartPaid,
			ReferenceID: cart.CartID,
			TxHash:      record.Hash,
			Symbol:      symbol,
			Amount:      amount,
			USDValue:    cart.TotalAmount,
			Status:      string(cart.Status),
		}
		if err := s.webhooks.EnqueueWebhook(ctx, merchant, n); err != nil {
			s.log.Warn().Err(err).Str("cart_id", cart.CartID).Msg("failed to enqueue webhook")
		}
	}
	return cart, nil
}

// cartTotal sums item prices times quantities.
func cartTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
