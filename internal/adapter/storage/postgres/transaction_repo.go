package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, tx_hash, user_id, counterparty_id, transaction_type, crypto_symbol, amount,
	from_address, to_address, status, fee, memo, created_at, updated_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Hash, t.UserID, t.CounterpartyID, t.Type, t.Symbol, t.Amount,
		t.FromAddress, t.ToAddress, t.Status, t.Fee, t.Memo, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByHash fetches a transaction by its hash.
func (r *TransactionRepo) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_hash = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, hash))
}

// GetByHashForUpdate fetches and locks a transaction.
// This MUST be called within a transaction.
func (r *TransactionRepo) GetByHashForUpdate(ctx context.Context, tx pgx.Tx, hash string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_hash = $1 FOR UPDATE`
	return scanTransaction(tx.QueryRow(ctx, query, hash))
}

// UpdateStatus sets status and memo within a database transaction.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, memo string) error {
	query := `UPDATE transactions SET status = $1, memo = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, memo, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// ListByUser returns transactions the user sent or received, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1 OR counterparty_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// SumReceived aggregates confirmed payments of the given types received by userID.
func (r *TransactionRepo) SumReceived(ctx context.Context, userID uuid.UUID, types []domain.TransactionType, since *time.Time) ([]domain.SymbolStats, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	args := []any{userID, names}
	condition := `counterparty_id = $1 AND transaction_type = ANY($2) AND status = 'confirmed'`
	if since != nil {
		condition += ` AND created_at >= $3`
		args = append(args, *since)
	}

	query := fmt.Sprintf(`SELECT crypto_symbol, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions WHERE %s GROUP BY crypto_symbol ORDER BY crypto_symbol`, condition)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum received: %w", err)
	}
	defer rows.Close()

	var stats []domain.SymbolStats
	for rows.Next() {
		var s domain.SymbolStats
		if err := rows.Scan(&s.Symbol, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan received stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate received stats: %w", err)
	}
	return stats, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Hash, &t.UserID, &t.CounterpartyID, &t.Type, &t.Symbol, &t.Amount,
		&t.FromAddress, &t.ToAddress, &t.Status, &t.Fee, &t.Memo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
