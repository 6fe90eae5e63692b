package service

import (
	"context"
	"errors"
	"testing"

	"arc-exchange/internal/core/domain"
	"arc-exchange/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletFixture(t *testing.T) (*fixture, *WalletServiceImpl) {
	f := newFixture(t)
	return f, NewWalletService(f.ledger, f.wallets, f.users, f.store, newTestLogger())
}

func TestWalletService_CreateProvisionsSealedKey(t *testing.T) {
	f, svc := newWalletFixture(t)
	u := f.addUser(t, "alice")

	w, err := svc.Create(context.Background(), u.ID, " sol ")
	require.NoError(t, err)
	assert.Equal(t, "SOL", w.Symbol)
	assert.Equal(t, "Solana", w.Name)
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.IsActive)

	priv, err := f.enc.Decrypt(w.PrivateKeyEnc)
	require.NoError(t, err)
	assert.Len(t, priv, 64)

	_, err = svc.Create(context.Background(), u.ID, "SOL")
	assert.True(t, errors.Is(err, apperror.ErrWalletExists()))

	_, err = svc.Create(context.Background(), u.ID, "DOGE")
	assert.True(t, errors.Is(err, apperror.ErrUnsupportedSymbol()))
}

func TestWalletService_GetAndList(t *testing.T) {
	f, svc := newWalletFixture(t)
	u := f.addUser(t, "alice")
	f.fund(t, u.ID, "ARC", "1")
	f.fund(t, u.ID, "BTC", "2")

	w, err := svc.Get(context.Background(), u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSymbol, w.Symbol)

	_, err = svc.Get(context.Background(), u.ID, "ETH")
	assert.True(t, errors.Is(err, apperror.ErrNotFound("Wallet")))

	list, err := svc.List(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestWalletService_Lookup(t *testing.T) {
	f, svc := newWalletFixture(t)
	u := f.addUser(t, "alice")
	w := f.fund(t, u.ID, "ETH", "0")

	addr, err := svc.Lookup(context.Background(), "alice", "eth")
	require.NoError(t, err)
	assert.Equal(t, w.Address, addr.Address)
	assert.Equal(t, "alice", addr.Username)

	_, err = svc.Lookup(context.Background(), "ghost", "ETH")
	assert.True(t, errors.Is(err, apperror.ErrNotFound("User")))

	f.setInactive(t, u.ID, "ETH")
	_, err = svc.Lookup(context.Background(), "alice", "ETH")
	assert.True(t, errors.Is(err, apperror.ErrNotFound("Wallet")))
}

func TestWalletService_DepositAndWithdraw(t *testing.T) {
	f, svc := newWalletFixture(t)
	u := f.addUser(t, "alice")
	f.fund(t, u.ID, "USDT", "10")

	dep, err := svc.Deposit(context.Background(), u.ID, "USDT", dec("5"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, dep.Type)
	assert.Equal(t, domain.TransactionStatusConfirmed, dep.Status)
	assert.True(t, dec("15").Equal(f.balance(t, u.ID, "USDT")))

	wd, err := svc.Withdraw(context.Background(), u.ID, "USDT", dec("15"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeWithdraw, wd.Type)
	assert.True(t, f.balance(t, u.ID, "USDT").IsZero())

	_, err = svc.Withdraw(context.Background(), u.ID, "USDT", dec("0.01"))
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds()))

	_, err = svc.Deposit(context.Background(), u.ID, "BTC", dec("1"))
	assert.True(t, errors.Is(err, apperror.ErrNotFound("Wallet")))

	_, err = svc.Deposit(context.Background(), u.ID, "USDT", dec("-1"))
	assert.True(t, errors.Is(err, apperror.ErrInvalidAmount()))

	f.setInactive(t, u.ID, "USDT")
	_, err = svc.Deposit(context.Background(), u.ID, "USDT", dec("1"))
	assert.True(t, errors.Is(err, apperror.ErrWalletInactive()))
}
