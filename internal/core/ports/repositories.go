package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByLogin matches either the username or the email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ListMerchants(ctx context.Context) ([]domain.User, error)
	SetMerchant(ctx context.Context, tx pgx.Tx, id uuid.UUID, merchantName string) error
}

// TokenRepository is the single source of truth for bearer tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.AuthToken) error
	Get(ctx context.Context, token string) (*domain.AuthToken, error)
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.AuthToken, error)
	Delete(ctx context.Context, token string) error
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID, symbol string) (*domain.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, symbol string) (*domain.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// TradingPairRepository defines persistence operations for listed markets.
type TradingPairRepository interface {
	// CreateIfNotExists inserts the pair unless its symbol is already listed.
	CreateIfNotExists(ctx context.Context, pair *domain.TradingPair) (bool, error)
	GetByPair(ctx context.Context, pair string) (*domain.TradingPair, error)
	GetByPairForUpdate(ctx context.Context, tx pgx.Tx, pair string) (*domain.TradingPair, error)
	ListActive(ctx context.Context) ([]domain.TradingPair, error)
	ListActiveForUpdate(ctx context.Context, tx pgx.Tx) ([]domain.TradingPair, error)
	Update(ctx context.Context, tx pgx.Tx, pair *domain.TradingPair) error
}

// PriceHistoryRepository stores simulator samples.
type PriceHistoryRepository interface {
	Create(ctx context.Context, tx pgx.Tx, point *domain.PricePoint) error
	// ListRecent returns up to limit points, oldest first.
	ListRecent(ctx context.Context, pair string, limit int) ([]domain.PricePoint, error)
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.Order, error)
	Update(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Order, error)
	// ListPendingLimit returns pending limit orders of a pair, oldest first.
	ListPendingLimit(ctx context.Context, pair string) ([]domain.Order, error)
}

// TradeRepository records order fills.
type TradeRepository interface {
	Create(ctx context.Context, tx pgx.Tx, trade *domain.Trade) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Trade, error)
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByHash(ctx context.Context, hash string) (*domain.Transaction, error)
	GetByHashForUpdate(ctx context.Context, tx pgx.Tx, hash string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, memo string) error
	// ListByUser returns transactions the user sent or received, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)
	// SumReceived aggregates confirmed payments received by a user per symbol.
	SumReceived(ctx context.Context, userID uuid.UUID, types []domain.TransactionType, since *time.Time) ([]domain.SymbolStats, error)
}

// MerchantRepository defines persistence operations for merchant profiles.
type MerchantRepository interface {
	Create(ctx context.Context, tx pgx.Tx, merchant *domain.Merchant) error
	GetByName(ctx context.Context, name string) (*domain.Merchant, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Merchant, error)
	AddReceived(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
	UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) error
}

// CartRepository defines persistence operations for checkout carts.
type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	GetByCartID(ctx context.Context, cartID string) (*domain.Cart, error)
	GetByCartIDForUpdate(ctx context.Context, tx pgx.Tx, cartID string) (*domain.Cart, error)
	MarkPaid(ctx context.Context, tx pgx.Tx, cartID string, payment *domain.CartPayment) error
}

// FaceRepository stores enrolled face encodings.
type FaceRepository interface {
	Upsert(ctx context.Context, face *domain.FaceData) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.FaceData, error)
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	// Claim stores entry unless the key exists and reports whether it did.
	Claim(ctx context.Context, tx pgx.Tx, entry *domain.IdempotencyLog) (bool, error)
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	// DeleteBefore removes entries older than cutoff and returns how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WebhookRepository persists webhook delivery attempts.
type WebhookRepository interface {
	Create(ctx context.Context, log *domain.WebhookDeliveryLog) error
	Update(ctx context.Context, log *domain.WebhookDeliveryLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
