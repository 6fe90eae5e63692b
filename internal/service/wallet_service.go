package service

import (
	"context"
	"fmt"
	"strings"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	ledger     *Ledger
	walletRepo ports.WalletRepository
	userRepo   ports.UserRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	ledger *Ledger,
	walletRepo ports.WalletRepository,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		ledger:     ledger,
		walletRepo: walletRepo,
		userRepo:   userRepo,
		transactor: transactor,
		log:        log,
	}
}

func normalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.DefaultSymbol
	}
	return symbol
}

// List returns all wallets of userID ordered by symbol.
func (s *WalletServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

// Get returns the wallet of userID for symbol.
func (s *WalletServiceImpl) Get(ctx context.Context, userID uuid.UUID, symbol string) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByOwner(ctx, userID, normalizeSymbol(symbol))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return w, nil
}

// Create provisions an empty wallet for a supported symbol.
func (s *WalletServiceImpl) Create(ctx context.Context, userID uuid.UUID, symbol string) (*domain.Wallet, error) {
	symbol = normalizeSymbol(symbol)
	if !domain.IsSupportedAsset(symbol) {
		return nil, apperror.ErrUnsupportedSymbol()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	existing, err := s.walletRepo.GetByOwnerForUpdate(ctx, dbTx, userID, symbol)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrWalletExists()
	}

	w, err := s.ledger.provisionWallet(ctx, dbTx, userID, symbol, decimal.Zero)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Str("symbol", symbol).Str("address", w.Address).Msg("wallet created")
	return w, nil
}

// Lookup returns the public address of username's wallet for symbol.
func (s *WalletServiceImpl) Lookup(ctx context.Context, username, symbol string) (*ports.WalletAddress, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}

	symbol = normalizeSymbol(symbol)
	w, err := s.walletRepo.GetByOwner(ctx, user.ID, symbol)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil || !w.IsActive {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return &ports.WalletAddress{Username: user.Username, Symbol: w.Symbol, Address: w.Address}, nil
}

// Deposit credits the wallet and records a confirmed deposit.
func (s *WalletServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, symbol string, amount decimal.Decimal) (*domain.Transaction, error) {
	return s.adjust(ctx, userID, normalizeSymbol(symbol), amount, domain.TransactionTypeDeposit)
}

// Withdraw debits the wallet and records a confirmed withdrawal.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, userID uuid.UUID, symbol string, amount decimal.Decimal) (*domain.Transaction, error) {
	return s.adjust(ctx, userID, normalizeSymbol(symbol), amount, domain.TransactionTypeWithdraw)
}

func (s *WalletServiceImpl) adjust(ctx context.Context, userID uuid.UUID, symbol string, amount decimal.Decimal, txType domain.TransactionType) (*domain.Transaction, error) {
	if !validAmount(amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.ledger.lockWallet(ctx, dbTx, userID, symbol, false)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	if !w.IsActive {
		return nil, apperror.ErrWalletInactive()
	}

	if txType == domain.TransactionTypeWithdraw {
		if !w.CanDebit(amount) {
			return nil, apperror.ErrInsufficientFunds()
		}
		w.Debit(amount)
	} else {
		w.Credit(amount)
	}
	if err := s.ledger.save(ctx, dbTx, w); err != nil {
		return nil, apperror.InternalError(err)
	}

	record, err := s.ledger.record(ctx, dbTx, w, txType, domain.TransactionStatusConfirmed, amount, decimal.Zero, "", "")
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_hash", record.Hash).
		Str("user_id", userID.String()).
		Str("symbol", symbol).
		Str("amount", amount.String()).
		Str("type", string(txType)).
		Msg("wallet balance adjusted")
	return record, nil
}
