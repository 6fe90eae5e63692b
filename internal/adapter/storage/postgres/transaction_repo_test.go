package postgres

import (
	"context"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(userID uuid.UUID) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	to := uuid.New()
	return &domain.Transaction{
		ID:             uuid.New(),
		Hash:           domain.NewTxHash(),
		UserID:         userID,
		CounterpartyID: &to,
		Type:           domain.TransactionTypeTransfer,
		Symbol:         "ARC",
		Amount:         decimal.RequireFromString("5"),
		FromAddress:    "0xfrom",
		ToAddress:      "0xto",
		Status:         domain.TransactionStatusConfirmed,
		Fee:            decimal.Zero,
		Memo:           "rent",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func transactionCols() []string {
	return []string{"id", "tx_hash", "user_id", "counterparty_id", "transaction_type", "crypto_symbol", "amount",
		"from_address", "to_address", "status", "fee", "memo", "created_at", "updated_at"}
}

func transactionRow(rows *pgxmock.Rows, t *domain.Transaction) *pgxmock.Rows {
	return rows.AddRow(
		t.ID, t.Hash, t.UserID, t.CounterpartyID, t.Type, t.Symbol, t.Amount,
		t.FromAddress, t.ToAddress, t.Status, t.Fee, t.Memo, t.CreatedAt, t.UpdatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.Hash, txn.UserID, txn.CounterpartyID, txn.Type, txn.Symbol, txn.Amount,
			txn.FromAddress, txn.ToAddress, txn.Status, txn.Fee, txn.Memo, txn.CreatedAt, txn.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE tx_hash").
		WithArgs(txn.Hash).
		WillReturnRows(transactionRow(pgxmock.NewRows(transactionCols()), txn))

	result, err := repo.GetByHash(context.Background(), txn.Hash)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, *txn.CounterpartyID, *result.CounterpartyID)
	assert.Equal(t, domain.TransactionTypeTransfer, result.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByHash_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE tx_hash").
		WithArgs("0xmissing").
		WillReturnRows(pgxmock.NewRows(transactionCols()))

	result, err := repo.GetByHash(context.Background(), "0xmissing")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransactionRepo_GetByHashForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())
	txn.Status = domain.TransactionStatusPending

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE tx_hash = \\$1 FOR UPDATE").
		WithArgs(txn.Hash).
		WillReturnRows(transactionRow(pgxmock.NewRows(transactionCols()), txn))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByHashForUpdate(context.Background(), tx, txn.Hash)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.TransactionStatusPending, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()
	memo := "coffee" + domain.CancelledMemoSuffix

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusFailed, memo, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateStatus(context.Background(), tx, id, domain.TransactionStatusFailed, memo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusFailed, "", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, id, domain.TransactionStatusFailed, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction not found")
}

func TestTransactionRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	sent := newTestTransaction(userID)
	received := newTestTransaction(uuid.New())
	received.CounterpartyID = &userID

	rows := pgxmock.NewRows(transactionCols())
	transactionRow(rows, sent)
	transactionRow(rows, received)

	mock.ExpectQuery("SELECT .+ FROM transactions\\s+WHERE user_id = \\$1 OR counterparty_id = \\$1 ORDER BY created_at DESC LIMIT \\$2").
		WithArgs(userID, 50).
		WillReturnRows(rows)

	txns, err := repo.ListByUser(context.Background(), userID, 50)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SumReceived_AllTime(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	types := []domain.TransactionType{domain.TransactionTypeMerchantPayment, domain.TransactionTypeCartPayment}

	mock.ExpectQuery("SELECT crypto_symbol, COUNT\\(\\*\\), COALESCE\\(SUM\\(amount\\), 0\\)").
		WithArgs(userID, []string{"merchant_payment", "cart_payment"}).
		WillReturnRows(pgxmock.NewRows([]string{"crypto_symbol", "count", "sum"}).
			AddRow("ARC", int64(3), decimal.RequireFromString("30")).
			AddRow("BTC", int64(1), decimal.RequireFromString("0.01")))

	stats, err := repo.SumReceived(context.Background(), userID, types, nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "ARC", stats[0].Symbol)
	assert.Equal(t, int64(3), stats[0].Count)
	assert.True(t, decimal.RequireFromString("30").Equal(stats[0].TotalAmount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SumReceived_Since(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	since := time.Now().UTC().Add(-24 * time.Hour)

	mock.ExpectQuery("created_at >= \\$3 GROUP BY crypto_symbol").
		WithArgs(userID, []string{"merchant_payment"}, since).
		WillReturnRows(pgxmock.NewRows([]string{"crypto_symbol", "count", "sum"}))

	stats, err := repo.SumReceived(context.Background(), userID,
		[]domain.TransactionType{domain.TransactionTypeMerchantPayment}, &since)
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
