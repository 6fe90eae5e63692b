package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of balance movement.
type TransactionType string

const (
	TransactionTypeTransfer        TransactionType = "transfer"
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypeWithdraw        TransactionType = "withdraw"
	TransactionTypeExternal        TransactionType = "external"
	TransactionTypeMerchantPayment TransactionType = "merchant_payment"
	TransactionTypeCartPayment     TransactionType = "cart_payment"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// CancelledMemoSuffix is appended to the memo of a user-cancelled transaction.
const CancelledMemoSuffix = " [CANCELLED BY USER]"

// ExternalWithdrawalFee is recorded on pending external withdrawals.
var ExternalWithdrawalFee = decimal.RequireFromString("0.001")

// Transaction records a balance movement. UserID is the debited or credited
// owner; CounterpartyID is the receiving user of an internal transfer.
type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	Hash           string            `json:"tx_hash"`
	UserID         uuid.UUID         `json:"user_id"`
	CounterpartyID *uuid.UUID        `json:"counterparty_id,omitempty"`
	Type           TransactionType   `json:"transaction_type"`
	Symbol         string            `json:"crypto_symbol"`
	Amount         decimal.Decimal   `json:"amount"`
	FromAddress    string            `json:"from_address"`
	ToAddress      string            `json:"to_address"`
	Status         TransactionStatus `json:"status"`
	Fee            decimal.Decimal   `json:"fee"`
	Memo           string            `json:"memo"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsCancellable returns true only for pending transactions.
func (t *Transaction) IsCancellable() bool {
	return t.Status == TransactionStatusPending
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusConfirmed || t.Status == TransactionStatusFailed
}

// NewTxHash returns a fresh 0x-prefixed transaction hash.
func NewTxHash() string {
	id := uuid.New()
	sum := sha256.Sum256(id[:])
	return "0x" + hex.EncodeToString(sum[:])
}
