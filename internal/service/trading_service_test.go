package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTradingFixture(t *testing.T) (*fixture, *TradingServiceImpl) {
	f := newFixture(t)
	svc := NewTradingService(f.ledger, f.pairs, f.orders, f.trades, f.store, f.events, newTestLogger())
	return f, svc
}

func priceRef(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestExecuteMarketOrder_Buy(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "USDT", "1000")
	f.addPair(t, "BTC", "50")

	res, err := svc.ExecuteMarketOrder(context.Background(), u.ID, "BTCUSDT", domain.OrderSideBuy, dec("10"))
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusFilled, res.Order.Status)
	require.NotNil(t, res.Order.AvgFillPrice)
	assert.True(t, dec("50").Equal(*res.Order.AvgFillPrice))
	assert.True(t, dec("10").Equal(res.Order.FilledQuantity))
	require.NotNil(t, res.Trade)
	assert.True(t, dec("500").Equal(res.Trade.QuoteAmount))

	assert.True(t, dec("500").Equal(f.balance(t, u.ID, "USDT")))
	assert.True(t, dec("10").Equal(f.balance(t, u.ID, "BTC")))
	assert.Equal(t, []domain.EventType{domain.EventTradeExecuted}, f.events.types())
}

func TestExecuteMarketOrder_SellCreditsQuote(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "ETH", "2")
	f.addPair(t, "ETH", "3000.5")

	_, err := svc.ExecuteMarketOrder(context.Background(), u.ID, "ETHUSDT", domain.OrderSideSell, dec("1.5"))
	require.NoError(t, err)

	assert.True(t, dec("0.5").Equal(f.balance(t, u.ID, "ETH")))
	assert.True(t, dec("4500.75").Equal(f.balance(t, u.ID, "USDT")))
}

func TestExecuteMarketOrder_Rejections(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "USDT", "100")
	f.fund(t, u.ID, "BTC", "1")
	f.addPair(t, "BTC", "50")
	inactive := f.addPair(t, "DOT", "5")
	require.NoError(t, f.store.write(func(st *memState) error {
		inactive.IsActive = false
		st.pairs[inactive.Pair] = inactive
		return nil
	}))

	tests := []struct {
		name string
		pair string
		side domain.OrderSide
		qty  string
		want *apperror.AppError
	}{
		{"bad side", "BTCUSDT", "hold", "1", apperror.ErrInvalidSide()},
		{"zero quantity", "BTCUSDT", domain.OrderSideBuy, "0", apperror.ErrInvalidQuantity()},
		{"unknown pair", "XYZUSDT", domain.OrderSideBuy, "1", apperror.ErrNotFound("Trading pair")},
		{"inactive pair", "DOTUSDT", domain.OrderSideBuy, "1", apperror.ErrNotFound("Trading pair")},
		{"buy beyond quote", "BTCUSDT", domain.OrderSideBuy, "3", apperror.ErrInsufficientFunds()},
		{"sell beyond base", "BTCUSDT", domain.OrderSideSell, "1.5", apperror.ErrInsufficientFunds()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExecuteMarketOrder(context.Background(), u.ID, tt.pair, tt.side, dec(tt.qty))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	assert.True(t, dec("100").Equal(f.balance(t, u.ID, "USDT")))
	assert.True(t, dec("1").Equal(f.balance(t, u.ID, "BTC")))
	orders, err := svc.ListOrders(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_DefaultsToMarket(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "USDT", "100")
	f.addPair(t, "SOL", "20")

	res, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "SOLUSDT", Side: domain.OrderSideBuy, Quantity: dec("2"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderTypeMarket, res.Order.Type)
	assert.True(t, dec("60").Equal(f.balance(t, u.ID, "USDT")))
}

func TestPlaceOrder_LimitRestsThenFillsWhenPriceCrosses(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "USDT", "1000")
	f.addPair(t, "BTC", "50")

	res, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "BTCUSDT", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy,
		Quantity: dec("2"), Price: priceRef("45"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, res.Order.Status)
	assert.Nil(t, res.Trade)
	assert.True(t, dec("1000").Equal(f.balance(t, u.ID, "USDT")))

	book, err := svc.OrderBook(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	assert.Empty(t, book.Asks)
	assert.True(t, dec("45").Equal(book.Bids[0].Price))

	f.setPrice(t, "BTCUSDT", "44")
	fills, err := svc.MatchLimitOrders(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1, fills)

	order, err := f.orders.GetByOrderID(context.Background(), res.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)
	require.NotNil(t, order.AvgFillPrice)
	assert.True(t, dec("44").Equal(*order.AvgFillPrice), "fills at the current price")
	assert.True(t, dec("912").Equal(f.balance(t, u.ID, "USDT")))
	assert.True(t, dec("2").Equal(f.balance(t, u.ID, "BTC")))
}

func TestPlaceOrder_MarketableLimitFillsImmediately(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "ETH", "1")
	f.addPair(t, "ETH", "3000")

	res, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "ETHUSDT", Type: domain.OrderTypeLimit, Side: domain.OrderSideSell,
		Quantity: dec("1"), Price: priceRef("2900"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, res.Order.Status)
	require.NotNil(t, res.Trade)
	assert.True(t, dec("3000").Equal(f.balance(t, u.ID, "USDT")))
}

func TestPlaceOrder_LimitValidation(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.addPair(t, "BTC", "50")

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "BTCUSDT", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: dec("1"),
	})
	assert.True(t, errors.Is(err, apperror.ErrInvalidPrice()))

	_, err = svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "BTCUSDT", Type: "stop", Side: domain.OrderSideBuy, Quantity: dec("1"),
	})
	assert.True(t, errors.Is(err, apperror.ErrInvalidOrderType()))
}

func TestMatchLimitOrders_RejectsUnfundedOrder(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	f.fund(t, u.ID, "USDT", "10")
	f.addPair(t, "BTC", "50")

	res, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "BTCUSDT", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy,
		Quantity: dec("1"), Price: priceRef("40"),
	})
	require.NoError(t, err)

	f.setPrice(t, "BTCUSDT", "39")
	fills, err := svc.MatchLimitOrders(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Zero(t, fills)

	order, err := f.orders.GetByOrderID(context.Background(), res.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, order.Status)
	assert.True(t, dec("10").Equal(f.balance(t, u.ID, "USDT")))
}

func TestCancelOrder(t *testing.T) {
	f, svc := newTradingFixture(t)
	u := f.addUser(t, "trader")
	other := f.addUser(t, "other")
	f.fund(t, u.ID, "USDT", "1000")
	f.addPair(t, "BTC", "50")

	res, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		UserID: u.ID, Pair: "BTCUSDT", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy,
		Quantity: dec("1"), Price: priceRef("10"),
	})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), other.ID, res.Order.OrderID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound("Order")))

	cancelled, err := svc.CancelOrder(context.Background(), u.ID, res.Order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	_, err = svc.CancelOrder(context.Background(), u.ID, res.Order.OrderID)
	assert.True(t, errors.Is(err, apperror.ErrOrderNotCancellable()))
	assert.Contains(t, f.events.types(), domain.EventOrderCancelled)

	book, err := svc.OrderBook(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, book.Bids)
}

func TestSortByPriority(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string, side domain.OrderSide, price string, age int) domain.Order {
		return domain.Order{
			ID: uuid.New(), OrderID: id, Side: side, Type: domain.OrderTypeLimit,
			Price: priceRef(price), CreatedAt: base.Add(time.Duration(age) * time.Second),
		}
	}
	orders := []domain.Order{
		mk("s-high", domain.OrderSideSell, "12", 0),
		mk("b-low", domain.OrderSideBuy, "9", 0),
		mk("s-low-late", domain.OrderSideSell, "11", 5),
		mk("b-high-late", domain.OrderSideBuy, "10", 5),
		mk("s-low-early", domain.OrderSideSell, "11", 1),
		mk("b-high-early", domain.OrderSideBuy, "10", 1),
	}

	sortByPriority(orders)

	var got []string
	for _, o := range orders {
		got = append(got, o.OrderID)
	}
	assert.Equal(t, []string{"b-high-early", "b-high-late", "b-low", "s-low-early", "s-low-late", "s-high"}, got)
}

func TestValidateOrder(t *testing.T) {
	o := &domain.Order{Side: domain.OrderSideBuy, Type: domain.OrderTypeLimit, Quantity: dec("1"), Price: priceRef("-1")}
	assert.True(t, errors.Is(validateOrder(o), apperror.ErrInvalidPrice()))

	o = &domain.Order{Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: dec("1")}
	assert.NoError(t, validateOrder(o))
}
