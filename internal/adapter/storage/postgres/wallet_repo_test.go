package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(ownerID uuid.UUID, symbol string) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Symbol:        symbol,
		Name:          "Arc Token",
		Address:       "0x52908400098527886E0F7030069857D2E4169EE7",
		PrivateKeyEnc: "aes_encrypted_key",
		Balance:       decimal.RequireFromString("0.1"),
		Network:       domain.DefaultNetwork,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func walletCols() []string {
	return []string{"id", "owner_id", "symbol", "name", "address", "private_key_enc", "balance",
		"network", "is_active", "created_at", "updated_at"}
}

func walletRow(rows *pgxmock.Rows, w *domain.Wallet) *pgxmock.Rows {
	return rows.AddRow(
		w.ID, w.OwnerID, w.Symbol, w.Name, w.Address, w.PrivateKeyEnc, w.Balance,
		w.Network, w.IsActive, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "ARC")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.OwnerID, w.Symbol, w.Name, w.Address, w.PrivateKeyEnc, w.Balance,
			w.Network, w.IsActive, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "BTC")

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE owner_id = \\$1 AND symbol = \\$2$").
		WithArgs(w.OwnerID, "BTC").
		WillReturnRows(walletRow(pgxmock.NewRows(walletCols()), w))

	result, err := repo.GetByOwner(context.Background(), w.OwnerID, "BTC")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.True(t, w.Balance.Equal(result.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByOwner_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	ownerID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE owner_id").
		WithArgs(ownerID, "SOL").
		WillReturnRows(pgxmock.NewRows(walletCols()))

	result, err := repo.GetByOwner(context.Background(), ownerID, "SOL")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByOwnerForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "USDT")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE owner_id .+ FOR UPDATE").
		WithArgs(w.OwnerID, "USDT").
		WillReturnRows(walletRow(pgxmock.NewRows(walletCols()), w))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByOwnerForUpdate(context.Background(), tx, w.OwnerID, "USDT")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "USDT", result.Symbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "ETH")

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE address").
		WithArgs(w.Address).
		WillReturnRows(walletRow(pgxmock.NewRows(walletCols()), w))

	result, err := repo.GetByAddress(context.Background(), w.Address)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.OwnerID, result.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	ownerID := uuid.New()
	arc := newTestWallet(ownerID, "ARC")
	btc := newTestWallet(ownerID, "BTC")

	rows := pgxmock.NewRows(walletCols())
	walletRow(rows, arc)
	walletRow(rows, btc)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE owner_id = \\$1 ORDER BY symbol").
		WithArgs(ownerID).
		WillReturnRows(rows)

	wallets, err := repo.ListByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "ARC", wallets[0].Symbol)
	assert.Equal(t, "BTC", wallets[1].Symbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	balance := decimal.RequireFromString("42.5")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(balance, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, walletID, balance)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(decimal.Zero, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, walletID, decimal.Zero)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "wallet not found")
}

func TestWalletRepo_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "ARC")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WillReturnError(errors.New("duplicate key value violates unique constraint"))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, w)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert wallet")
}
