package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL          = 24 * time.Hour
	idempotencyScopeTx      = "transactions"
	transactionHistoryLimit = 100
)

// TransactionServiceImpl implements ports.TransactionService.
type TransactionServiceImpl struct {
	ledger     *Ledger
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	events     ports.EventPublisher
	log        zerolog.Logger
}

// NewTransactionService creates a new TransactionServiceImpl.
func NewTransactionService(
	ledger *Ledger,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	events ports.EventPublisher,
	log zerolog.Logger,
) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		ledger:     ledger,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		events:     events,
		log:        log,
	}
}

// Create sends funds to an address. A platform wallet of the same symbol is
// settled through the transfer engine; any other address is recorded as a
// pending external withdrawal. A repeated idempotency key replays the first result.
func (s *TransactionServiceImpl) Create(ctx context.Context, req ports.CreateTransactionRequest) (*domain.Transaction, error) {
	toAddress := strings.TrimSpace(req.ToAddress)
	if toAddress == "" {
		return nil, apperror.Validation("Invalid transaction data")
	}
	if !validAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	symbol := normalizeSymbol(req.Symbol)

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.UserID, idempotencyScopeTx, req.IdempotencyKey)
		replay, err := s.lookupIdempotent(ctx, idempKey)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	target, err := s.walletRepo.GetByAddress(ctx, toAddress)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve address: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	var record *domain.Transaction
	if target != nil && target.Symbol == symbol {
		record, err = s.ledger.transfer(ctx, dbTx, transferParams{
			From:   req.UserID,
			To:     target.OwnerID,
			Symbol: symbol,
			Amount: req.Amount,
			Memo:   req.Memo,
			Type:   domain.TransactionTypeTransfer,
		})
	} else {
		record, err = s.withdrawExternal(ctx, dbTx, req, symbol, toAddress)
	}
	if err != nil {
		return nil, err
	}

	var respJSON []byte
	if idempKey != "" {
		respJSON, err = json.Marshal(record)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		entry := &domain.IdempotencyLog{
			Key:          idempKey,
			UserID:       req.UserID,
			ResponseJSON: respJSON,
			CreatedAt:    record.CreatedAt,
		}
		claimed, err := s.idempRepo.Claim(ctx, dbTx, entry)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
		if !claimed {
			// A concurrent request with the same key settled first.
			_ = dbTx.Rollback(ctx)
			s.log.Info().Str("key", idempKey).Msg("idempotency key settled concurrently, replaying")
			return s.replayIdempotent(ctx, idempKey)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" && s.idempCache != nil {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.log.Info().
		Str("tx_hash", record.Hash).
		Str("user_id", req.UserID.String()).
		Str("symbol", symbol).
		Str("amount", req.Amount.String()).
		Str("status", string(record.Status)).
		Msg("transaction created")

	if record.Status == domain.TransactionStatusConfirmed {
		publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventTransferConfirmed, record.Hash, &record.UserID, record))
	}
	return record, nil
}

// lookupIdempotent checks Redis first, then the database log.
func (s *TransactionServiceImpl) lookupIdempotent(ctx context.Context, key string) (*domain.Transaction, error) {
	if s.idempCache != nil {
		cached, err := s.idempCache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return decodeTransaction(cached)
		}
	}

	entry, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if entry == nil {
		return nil, nil
	}
	return decodeTransaction(entry.ResponseJSON)
}

func (s *TransactionServiceImpl) replayIdempotent(ctx context.Context, key string) (*domain.Transaction, error) {
	replay, err := s.lookupIdempotent(ctx, key)
	if err != nil {
		return nil, err
	}
	if replay == nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency key %s claimed but not readable", key))
	}
	return replay, nil
}

func decodeTransaction(data []byte) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	return &tx, nil
}

// withdrawExternal debits the sender and records a pending external transaction.
func (s *TransactionServiceImpl) withdrawExternal(ctx context.Context, dbTx pgx.Tx, req ports.CreateTransactionRequest, symbol, toAddress string) (*domain.Transaction, error) {
	w, err := s.ledger.lockWallet(ctx, dbTx, req.UserID, symbol, false)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	if !w.IsActive {
		return nil, apperror.ErrWalletInactive()
	}
	if !w.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	w.Debit(req.Amount)
	if err := s.ledger.save(ctx, dbTx, w); err != nil {
		return nil, apperror.InternalError(err)
	}

	record, err := s.ledger.record(ctx, dbTx, w, domain.TransactionTypeExternal, domain.TransactionStatusPending,
		req.Amount, domain.ExternalWithdrawalFee, toAddress, req.Memo)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return record, nil
}

// List returns the newest transactions userID sent or received.
func (s *TransactionServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	txs, err := s.txRepo.ListByUser(ctx, userID, transactionHistoryLimit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txs, nil
}

// Cancel fails a pending transaction of userID and refunds its amount.
func (s *TransactionServiceImpl) Cancel(ctx context.Context, userID uuid.UUID, txHash string) (*domain.Transaction, error) {
	if strings.TrimSpace(txHash) == "" {
		return nil, apperror.Validation("Transaction hash required")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	record, err := s.txRepo.GetByHashForUpdate(ctx, dbTx, txHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if record == nil || record.UserID != userID {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if !record.IsCancellable() {
		return nil, apperror.ErrTransactionNotCancellable()
	}

	w, err := s.ledger.lockWallet(ctx, dbTx, userID, record.Symbol, true)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	w.Credit(record.Amount)
	if err := s.ledger.save(ctx, dbTx, w); err != nil {
		return nil, apperror.InternalError(err)
	}

	record.Status = domain.TransactionStatusFailed
	record.Memo += domain.CancelledMemoSuffix
	record.UpdatedAt = time.Now().UTC()
	if err := s.txRepo.UpdateStatus(ctx, dbTx, record.ID, record.Status, record.Memo); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_hash", record.Hash).
		Str("user_id", userID.String()).
		Str("symbol", record.Symbol).
		Str("amount", record.Amount.String()).
		Msg("transaction cancelled and refunded")

	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventTxCancelled, record.Hash, &userID, record))
	return record, nil
}
