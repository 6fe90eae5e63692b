package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// maxAmountScale matches the NUMERIC(36,18) balance columns.
const maxAmountScale = 18

// validAmount reports whether d is positive and representable in storage.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Exponent() >= -maxAmountScale
}

// Ledger holds the balance primitives shared by every settlement path.
// All of its methods run inside the caller's transaction.
type Ledger struct {
	wallets ports.WalletRepository
	txs     ports.TransactionRepository
	keys    ports.KeyGenerator
	enc     ports.EncryptionService
	now     func() time.Time
}

// NewLedger creates the shared settlement helper.
func NewLedger(
	wallets ports.WalletRepository,
	txs ports.TransactionRepository,
	keys ports.KeyGenerator,
	enc ports.EncryptionService,
) *Ledger {
	return &Ledger{wallets: wallets, txs: txs, keys: keys, enc: enc, now: time.Now}
}

// newWallet builds an active wallet with a fresh key pair. The private key is sealed.
func (l *Ledger) newWallet(ownerID uuid.UUID, symbol string, balance decimal.Decimal) (*domain.Wallet, error) {
	address, privHex, err := l.keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	sealed, err := l.enc.Encrypt(privHex)
	if err != nil {
		return nil, fmt.Errorf("encrypt private key: %w", err)
	}

	now := l.now().UTC()
	return &domain.Wallet{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Symbol:        symbol,
		Name:          domain.AssetName(symbol),
		Address:       address,
		PrivateKeyEnc: sealed,
		Balance:       balance,
		Network:       domain.DefaultNetwork,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// provisionWallet inserts a new wallet for ownerID.
func (l *Ledger) provisionWallet(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, symbol string, balance decimal.Decimal) (*domain.Wallet, error) {
	w, err := l.newWallet(ownerID, symbol, balance)
	if err != nil {
		return nil, err
	}
	if err := l.wallets.Create(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("provision %s wallet: %w", symbol, err)
	}
	return w, nil
}

// provisionAssets creates every missing wallet of grants for ownerID and
// returns how many were created.
func (l *Ledger) provisionAssets(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, grants []domain.AssetGrant) (int, error) {
	created := 0
	for _, g := range grants {
		w, err := l.wallets.GetByOwnerForUpdate(ctx, tx, ownerID, g.Symbol)
		if err != nil {
			return created, fmt.Errorf("lock %s wallet: %w", g.Symbol, err)
		}
		if w != nil {
			continue
		}
		if _, err := l.provisionWallet(ctx, tx, ownerID, g.Symbol, g.Balance); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// lockWallet locks the wallet of ownerID for symbol. When provision is set a
// missing wallet is created with a zero balance.
func (l *Ledger) lockWallet(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, symbol string, provision bool) (*domain.Wallet, error) {
	w, err := l.wallets.GetByOwnerForUpdate(ctx, tx, ownerID, symbol)
	if err != nil {
		return nil, fmt.Errorf("lock %s wallet: %w", symbol, err)
	}
	if w == nil && provision {
		return l.provisionWallet(ctx, tx, ownerID, symbol, decimal.Zero)
	}
	return w, nil
}

// save persists the balance of w.
func (l *Ledger) save(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	if err := l.wallets.UpdateBalance(ctx, tx, w.ID, w.Balance); err != nil {
		return fmt.Errorf("update %s balance: %w", w.Symbol, err)
	}
	return nil
}

// transferParams describes one peer-to-peer movement.
type transferParams struct {
	From   uuid.UUID
	To     uuid.UUID
	Symbol string
	Amount decimal.Decimal
	Memo   string
	Type   domain.TransactionType
}

// ownerLess orders owners for lock acquisition.
func ownerLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// transfer debits From and credits To by Amount and records a confirmed
// transaction. Wallets are locked in ascending owner order. A missing
// recipient wallet is provisioned. Errors are *apperror.AppError.
func (l *Ledger) transfer(ctx context.Context, tx pgx.Tx, p transferParams) (*domain.Transaction, error) {
	if !validAmount(p.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if p.From == p.To {
		return nil, apperror.ErrSelfTransfer()
	}

	var sender, recipient *domain.Wallet
	var err error
	if ownerLess(p.From, p.To) {
		if sender, err = l.lockWallet(ctx, tx, p.From, p.Symbol, false); err != nil {
			return nil, apperror.InternalError(err)
		}
		if sender == nil {
			return nil, apperror.ErrNotFound("Wallet")
		}
		if recipient, err = l.lockWallet(ctx, tx, p.To, p.Symbol, true); err != nil {
			return nil, apperror.InternalError(err)
		}
	} else {
		if recipient, err = l.lockWallet(ctx, tx, p.To, p.Symbol, true); err != nil {
			return nil, apperror.InternalError(err)
		}
		if sender, err = l.lockWallet(ctx, tx, p.From, p.Symbol, false); err != nil {
			return nil, apperror.InternalError(err)
		}
		if sender == nil {
			return nil, apperror.ErrNotFound("Wallet")
		}
	}

	if !sender.IsActive || !recipient.IsActive {
		return nil, apperror.ErrWalletInactive()
	}
	if !sender.CanDebit(p.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	sender.Debit(p.Amount)
	recipient.Credit(p.Amount)
	if err := l.save(ctx, tx, sender); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := l.save(ctx, tx, recipient); err != nil {
		return nil, apperror.InternalError(err)
	}

	txType := p.Type
	if txType == "" {
		txType = domain.TransactionTypeTransfer
	}
	to := p.To
	now := l.now().UTC()
	record := &domain.Transaction{
		ID:             uuid.New(),
		Hash:           domain.NewTxHash(),
		UserID:         p.From,
		CounterpartyID: &to,
		Type:           txType,
		Symbol:         p.Symbol,
		Amount:         p.Amount,
		FromAddress:    sender.Address,
		ToAddress:      recipient.Address,
		Status:         domain.TransactionStatusConfirmed,
		Fee:            decimal.Zero,
		Memo:           p.Memo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.txs.Create(ctx, tx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	return record, nil
}

// record inserts a single-sided transaction for w.
func (l *Ledger) record(ctx context.Context, tx pgx.Tx, w *domain.Wallet, txType domain.TransactionType,
	status domain.TransactionStatus, amount, fee decimal.Decimal, toAddress, memo string,
) (*domain.Transaction, error) {
	now := l.now().UTC()
	record := &domain.Transaction{
		ID:          uuid.New(),
		Hash:        domain.NewTxHash(),
		UserID:      w.OwnerID,
		Type:        txType,
		Symbol:      w.Symbol,
		Amount:      amount,
		FromAddress: w.Address,
		ToAddress:   toAddress,
		Status:      status,
		Fee:         fee,
		Memo:        memo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.txs.Create(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return record, nil
}
