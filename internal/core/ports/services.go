package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TicketService issues and validates short-lived face verification tickets.
type TicketService interface {
	Issue(userID uuid.UUID) (*FaceTicket, error)
	Validate(ticket string) (*TicketClaims, error)
}

// FaceTicket is a signed proof of a recent face match.
type FaceTicket struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TicketClaims holds the parsed ticket claims.
type TicketClaims struct {
	UserID    uuid.UUID
	ID        string
	ExpiresAt time.Time
}

// KeyGenerator creates wallet key material.
type KeyGenerator interface {
	// Generate returns a new address and its hex-encoded private key.
	Generate() (address string, privateKeyHex string, err error)
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// HealthChecker is a named dependency probed by GET /health.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}

// ReplayGuard remembers identifiers that may be redeemed once, such as
// face verification tickets.
type ReplayGuard interface {
	// FirstUse reports true only for the first redemption of id in scope
	// within ttl.
	FirstUse(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
}

// HistoryCache caches externally sourced price history.
type HistoryCache interface {
	Get(ctx context.Context, pair string) ([]domain.PricePoint, error) // nil on miss
	Set(ctx context.Context, pair string, points []domain.PricePoint, ttl time.Duration) error
}

// MarketDataProvider fetches hourly price history from an external API.
type MarketDataProvider interface {
	History(ctx context.Context, assetID string, limit int) ([]domain.PricePoint, error)
}

// EventPublisher emits domain events after settlements.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

// MarketBroadcaster pushes market snapshots to live subscribers.
type MarketBroadcaster interface {
	Broadcast(pairs []domain.TradingPair)
}

// --- Service Ports (Business Logic) ---

// AuthService defines registration and token authentication.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, login, password string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	FaceEncoding []float64 // optional
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token        string
	ExpiresAt    *time.Time
	User         *domain.User
	FaceEnrolled bool
}

// WalletService manages a user's wallets by explicit symbol.
type WalletService interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Get(ctx context.Context, userID uuid.UUID, symbol string) (*domain.Wallet, error)
	Create(ctx context.Context, userID uuid.UUID, symbol string) (*domain.Wallet, error)
	Lookup(ctx context.Context, username, symbol string) (*WalletAddress, error)
	Deposit(ctx context.Context, userID uuid.UUID, symbol string, amount decimal.Decimal) (*domain.Transaction, error)
	Withdraw(ctx context.Context, userID uuid.UUID, symbol string, amount decimal.Decimal) (*domain.Transaction, error)
}

// WalletAddress is the public view of a wallet.
type WalletAddress struct {
	Username string
	Symbol   string
	Address  string
}

// TransferService is the peer-to-peer settlement engine.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
}

// TransferRequest moves Amount of Symbol between two users. When ToUserID
// is uuid.Nil the recipient is resolved by ToUsername.
type TransferRequest struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	ToUsername string
	Symbol     string
	Amount     decimal.Decimal
	Memo       string
	Type       domain.TransactionType
}

// TradingService places, matches and cancels orders against the simulated venue.
type TradingService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error)
	ExecuteMarketOrder(ctx context.Context, userID uuid.UUID, pair string, side domain.OrderSide, quantity decimal.Decimal) (*OrderResult, error)
	CancelOrder(ctx context.Context, userID uuid.UUID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	OrderBook(ctx context.Context, pair string) (*OrderBook, error)
	// MatchLimitOrders fills marketable pending limit orders of pair and returns the fill count.
	MatchLimitOrders(ctx context.Context, pair string) (int, error)
}

// PlaceOrderRequest holds validated input for order placement.
type PlaceOrderRequest struct {
	UserID   uuid.UUID
	Pair     string
	Type     domain.OrderType
	Side     domain.OrderSide
	Quantity decimal.Decimal
	Price    *decimal.Decimal
}

// OrderResult is an order and, when it filled, its trade.
type OrderResult struct {
	Order *domain.Order
	Trade *domain.Trade
}

// OrderBook lists resting limit orders of a pair.
type OrderBook struct {
	Pair string
	Bids []OrderBookEntry
	Asks []OrderBookEntry
}

// OrderBookEntry is the public view of a resting order.
type OrderBookEntry struct {
	OrderID   string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	CreatedAt time.Time
}

// MarketService runs the price simulator and serves market data.
type MarketService interface {
	SimulateAllPrices(ctx context.Context) ([]domain.TradingPair, error)
	SimulatePair(ctx context.Context, pair string) (*domain.TradingPair, error)
	MarketData(ctx context.Context) ([]domain.TradingPair, error)
	Prices(ctx context.Context) (map[string]decimal.Decimal, error)
	PriceHistory(ctx context.Context, pair string) (*domain.PriceHistory, error)
	SeedPairs(ctx context.Context) (int, error)
}

// PortfolioService values a user's wallets.
type PortfolioService interface {
	CalculatePortfolioValue(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	GetPortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error)
}

// Portfolio is a user's wallets with their USDT valuation.
type Portfolio struct {
	UserID     uuid.UUID
	Wallets    []WalletValuation
	TotalValue decimal.Decimal
}

// WalletValuation is one wallet priced in USDT. Price is nil when no pair exists.
type WalletValuation struct {
	Wallet domain.Wallet
	Price  *decimal.Decimal
	Value  decimal.Decimal
}

// TransactionService creates, lists and cancels user transactions.
type TransactionService interface {
	Create(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	Cancel(ctx context.Context, userID uuid.UUID, txHash string) (*domain.Transaction, error)
}

// CreateTransactionRequest sends funds to an address, internal or external.
type CreateTransactionRequest struct {
	UserID         uuid.UUID
	ToAddress      string
	Symbol         string
	Amount         decimal.Decimal
	Memo           string
	IdempotencyKey string // optional
}

// MerchantService manages merchant profiles and merchant payments.
type MerchantService interface {
	Register(ctx context.Context, req RegisterMerchantRequest) (*MerchantRegistration, error)
	Info(ctx context.Context, name string) (*MerchantInfo, error)
	Pay(ctx context.Context, req MerchantPaymentRequest) (*MerchantPaymentResult, error)
	// FaceTransfer pays a merchant after consuming a face verification ticket.
	FaceTransfer(ctx context.Context, req MerchantPaymentRequest) (*MerchantPaymentResult, error)
	UpdateWebhookURL(ctx context.Context, userID uuid.UUID, webhookURL *string) error
	// EnsureMerchant returns the named merchant, creating user, profile and wallets when missing.
	EnsureMerchant(ctx context.Context, name string) (*domain.Merchant, error)
	// ProvisionMerchants creates profiles and default wallets for merchant users lacking them.
	ProvisionMerchants(ctx context.Context) (int, error)
}

// RegisterMerchantRequest turns an existing user into a merchant.
type RegisterMerchantRequest struct {
	UserID       uuid.UUID
	MerchantName string
	BusinessName string
	WebsiteURL   string
	WebhookURL   *string
}

// MerchantRegistration holds the webhook secret, shown only once.
type MerchantRegistration struct {
	Merchant      *domain.Merchant
	WebhookSecret string
}

// MerchantInfo is the public view of a merchant.
type MerchantInfo struct {
	MerchantName string
	BusinessName string
	WebsiteURL   string
	Wallets      []WalletAddress
}

// MerchantPaymentRequest pays Amount of Symbol to a merchant.
type MerchantPaymentRequest struct {
	UserID       uuid.UUID
	MerchantName string
	Symbol       string
	Amount       decimal.Decimal
	Memo         string
	FaceTicket   string
}

// MerchantPaymentResult is a settled merchant payment.
type MerchantPaymentResult struct {
	Transaction *domain.Transaction
	USDValue    decimal.Decimal
}

// CartService creates and settles checkout carts.
type CartService interface {
	Create(ctx context.Context, req CreateCartRequest) (*domain.Cart, error)
	Get(ctx context.Context, userID uuid.UUID, cartID string) (*domain.Cart, error)
	Pay(ctx context.Context, userID uuid.UUID, cartID, symbol string) (*domain.Cart, error)
}

// CreateCartRequest holds input for cart creation.
type CreateCartRequest struct {
	UserID       uuid.UUID
	MerchantName string
	Items        []domain.CartItem
	TotalAmount  decimal.Decimal
}

// FaceService enrolls and verifies face encodings.
type FaceService interface {
	Register(ctx context.Context, userID uuid.UUID, encoding []float64) error
	Verify(ctx context.Context, userID uuid.UUID, encoding []float64) (*FaceVerification, error)
	// ConsumeTicket validates a ticket for userID and marks it used.
	ConsumeTicket(ctx context.Context, userID uuid.UUID, ticket string) error
}

// FaceVerification is the outcome of a face comparison.
type FaceVerification struct {
	Match    bool
	Distance float64
	Ticket   *FaceTicket
}

// ReportingService aggregates merchant statistics.
type ReportingService interface {
	MerchantStats(ctx context.Context, userID uuid.UUID, period domain.StatsPeriod) (*domain.MerchantStats, error)
}

// SystemService seeds markets and merchant wallets.
type SystemService interface {
	Initialize(ctx context.Context) (*InitializeResult, error)
}

// InitializeResult reports what system initialization created.
type InitializeResult struct {
	PairsCreated         int
	PairsSimulated       int
	MerchantsProvisioned int
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
	// Prune deletes entries older than retention.
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// WebhookService delivers merchant notifications asynchronously.
type WebhookService interface {
	EnqueueWebhook(ctx context.Context, merchant *domain.Merchant, n WebhookNotification) error
}

// WebhookNotification describes a payment the merchant received.
type WebhookNotification struct {
	Event       domain.EventType
	ReferenceID string
	TxHash      string
	Symbol      string
	Amount      decimal.Decimal
	USDValue    decimal.Decimal
	Status      string
}
