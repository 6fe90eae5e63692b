package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPortfolio_ValuesWalletsInQuote(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.wallets, f.pairs)
	u := f.addUser(t, "holder")
	f.addPair(t, "BTC", "50")
	f.fund(t, u.ID, "BTC", "10")
	f.fund(t, u.ID, "USDT", "500")
	f.fund(t, u.ID, "LINK", "3")

	p, err := svc.GetPortfolio(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(p.TotalValue))
	require.Len(t, p.Wallets, 3)

	bySymbol := map[string]int{}
	for i, w := range p.Wallets {
		bySymbol[w.Wallet.Symbol] = i
	}
	btc := p.Wallets[bySymbol["BTC"]]
	require.NotNil(t, btc.Price)
	assert.True(t, dec("500").Equal(btc.Value))

	link := p.Wallets[bySymbol["LINK"]]
	assert.Nil(t, link.Price)
	assert.True(t, link.Value.IsZero())

	total, err := svc.CalculatePortfolioValue(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, p.TotalValue.Equal(total))
}

func TestGetPortfolio_NoWallets(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.wallets, f.pairs)
	u := f.addUser(t, "empty")

	p, err := svc.GetPortfolio(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, p.TotalValue.IsZero())
	assert.NotNil(t, p.Wallets)
}

func TestGetPortfolio_PricesDelistedPair(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.wallets, f.pairs)
	u := f.addUser(t, "holder")
	f.addPair(t, "SOL", "20")
	require.NoError(t, f.store.write(func(st *memState) error {
		p := st.pairs["SOLUSDT"]
		p.IsActive = false
		st.pairs["SOLUSDT"] = p
		return nil
	}))
	f.fund(t, u.ID, "SOL", "2")

	p, err := svc.GetPortfolio(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, p.Wallets, 1)
	require.NotNil(t, p.Wallets[0].Price)
	assert.True(t, dec("40").Equal(p.TotalValue))
}
