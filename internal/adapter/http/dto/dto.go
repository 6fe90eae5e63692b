package dto

import (
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username     string    `json:"username" binding:"required,min=3,max=50,safe_id"`
	Email        string    `json:"email" binding:"required,email,max=254"`
	Password     string    `json:"password" binding:"required,min=8,max=128"`
	FirstName    string    `json:"first_name" binding:"max=50"`
	LastName     string    `json:"last_name" binding:"max=50"`
	FaceEncoding []float64 `json:"face_encoding,omitempty" binding:"omitempty,len=128"`
}

// LoginRequest accepts a username or an email.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=254"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token        string       `json:"token"`
	ExpiresAt    *int64       `json:"expires_at,omitempty"` // Unix timestamp
	User         *domain.User `json:"user"`
	FaceEnrolled bool         `json:"face_enrolled,omitempty"`
}

// NewAuthResponse maps an auth result.
func NewAuthResponse(r *ports.AuthResult) AuthResponse {
	resp := AuthResponse{Token: r.Token, User: r.User, FaceEnrolled: r.FaceEnrolled}
	if r.ExpiresAt != nil {
		exp := r.ExpiresAt.Unix()
		resp.ExpiresAt = &exp
	}
	return resp
}

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Symbol string `json:"crypto_symbol" binding:"required,symbol"`
}

// AmountRequest is the request body for deposit and withdraw.
type AmountRequest struct {
	Symbol string          `json:"crypto_symbol" binding:"omitempty,symbol"`
	Amount decimal.Decimal `json:"amount" binding:"decimal_positive"`
}

// WalletAddressResponse is the public view of a wallet.
type WalletAddressResponse struct {
	Username string `json:"username"`
	Symbol   string `json:"crypto_symbol"`
	Address  string `json:"address"`
}

// TransferRequest is the request body for peer transfers.
type TransferRequest struct {
	ToUsername string          `json:"to_username" binding:"required,max=50"`
	Symbol     string          `json:"crypto_symbol" binding:"omitempty,symbol"`
	Amount     decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Memo       string          `json:"memo" binding:"max=255"`
}

// PortfolioResponse lists wallets with their USDT valuation.
type PortfolioResponse struct {
	TotalValue decimal.Decimal         `json:"total_value"`
	Wallets    []WalletValuationEntry `json:"wallets"`
}

// WalletValuationEntry is one valued wallet.
type WalletValuationEntry struct {
	domain.Wallet
	Price *decimal.Decimal `json:"price"`
	Value decimal.Decimal  `json:"value"`
}

// NewPortfolioResponse maps a portfolio.
func NewPortfolioResponse(p *ports.Portfolio) PortfolioResponse {
	resp := PortfolioResponse{TotalValue: p.TotalValue, Wallets: make([]WalletValuationEntry, 0, len(p.Wallets))}
	for _, w := range p.Wallets {
		resp.Wallets = append(resp.Wallets, WalletValuationEntry{Wallet: w.Wallet, Price: w.Price, Value: w.Value})
	}
	return resp
}

// PlaceOrderRequest is the request body for order placement.
type PlaceOrderRequest struct {
	Pair      string           `json:"pair" binding:"required,pair"`
	Side      string           `json:"side" binding:"required,side"`
	OrderType string           `json:"order_type" binding:"omitempty,order_type"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"decimal_positive"`
	Price     *decimal.Decimal `json:"price,omitempty" binding:"omitempty,decimal_positive"`
}

// OrderResponse is an order and, when it filled, its trade.
type OrderResponse struct {
	Order *domain.Order `json:"order"`
	Trade *domain.Trade `json:"trade,omitempty"`
}

// OrderBookResponse lists resting orders of a pair.
type OrderBookResponse struct {
	Pair string           `json:"pair"`
	Bids []OrderBookEntry `json:"bids"`
	Asks []OrderBookEntry `json:"asks"`
}

// OrderBookEntry is one resting order.
type OrderBookEntry struct {
	OrderID   string          `json:"order_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewOrderBookResponse maps an order book.
func NewOrderBookResponse(b *ports.OrderBook) OrderBookResponse {
	conv := func(in []ports.OrderBookEntry) []OrderBookEntry {
		out := make([]OrderBookEntry, 0, len(in))
		for _, e := range in {
			out = append(out, OrderBookEntry{OrderID: e.OrderID, Price: e.Price, Quantity: e.Quantity, CreatedAt: e.CreatedAt})
		}
		return out
	}
	return OrderBookResponse{Pair: b.Pair, Bids: conv(b.Bids), Asks: conv(b.Asks)}
}

// CreateTransactionRequest sends funds to an address.
type CreateTransactionRequest struct {
	ToAddress string          `json:"to_address" binding:"required,max=128"`
	Symbol    string          `json:"crypto_symbol" binding:"omitempty,symbol"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Memo      string          `json:"memo" binding:"max=255"`
}

// CancelTransactionRequest names the pending transaction to cancel.
type CancelTransactionRequest struct {
	TxHash string `json:"tx_hash" binding:"required,max=80"`
}

// RegisterMerchantRequest is the request body for merchant registration.
type RegisterMerchantRequest struct {
	MerchantName string  `json:"merchant_name" binding:"required,min=2,max=100,safe_id"`
	BusinessName string  `json:"business_name" binding:"max=200"`
	WebsiteURL   string  `json:"website_url" binding:"omitempty,safe_url"`
	WebhookURL   *string `json:"webhook_url,omitempty" binding:"omitempty,safe_url"`
}

// MerchantRegistrationResponse carries the webhook secret, shown only once.
type MerchantRegistrationResponse struct {
	Merchant      *domain.Merchant `json:"merchant"`
	WebhookSecret string           `json:"webhook_secret"`
}

// MerchantInfoResponse is the public view of a merchant.
type MerchantInfoResponse struct {
	MerchantName string                  `json:"merchant_name"`
	BusinessName string                  `json:"business_name"`
	WebsiteURL   string                  `json:"website_url,omitempty"`
	Wallets      []WalletAddressResponse `json:"wallets"`
}

// NewMerchantInfoResponse maps merchant info.
func NewMerchantInfoResponse(m *ports.MerchantInfo) MerchantInfoResponse {
	resp := MerchantInfoResponse{
		MerchantName: m.MerchantName,
		BusinessName: m.BusinessName,
		WebsiteURL:   m.WebsiteURL,
		Wallets:      make([]WalletAddressResponse, 0, len(m.Wallets)),
	}
	for _, w := range m.Wallets {
		resp.Wallets = append(resp.Wallets, WalletAddressResponse{Username: w.Username, Symbol: w.Symbol, Address: w.Address})
	}
	return resp
}

// MerchantPaymentRequest pays a merchant. FaceTicket is required by the
// face-gated transfer endpoint only.
type MerchantPaymentRequest struct {
	Symbol     string          `json:"crypto_symbol" binding:"omitempty,symbol"`
	Amount     decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Memo       string          `json:"memo" binding:"max=255"`
	FaceTicket string          `json:"face_ticket" binding:"max=2048"`
}

// MerchantPaymentResponse is a settled merchant payment.
type MerchantPaymentResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	USDValue    decimal.Decimal     `json:"usd_value"`
}

// UpdateWebhookRequest is the request body for updating the webhook URL.
type UpdateWebhookRequest struct {
	WebhookURL *string `json:"webhook_url" binding:"omitempty,safe_url"`
}

// CreateCartRequest is the request body for cart creation. A zero
// total_amount is computed from the items.
type CreateCartRequest struct {
	MerchantName string            `json:"merchant_name" binding:"omitempty,max=100"`
	Items        []CartItemRequest `json:"items" binding:"max=100,dive"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
}

// CartItemRequest is one line of a cart.
type CartItemRequest struct {
	Name     string          `json:"name" binding:"required,max=200"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"required,gt=0"`
}

// ToItems converts request lines to domain items.
func (r CreateCartRequest) ToItems() []domain.CartItem {
	items := make([]domain.CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.CartItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return items
}

// PayCartRequest is the request body for cart payment.
type PayCartRequest struct {
	CartID string `json:"cart_id" binding:"required,max=64,safe_id"`
	Symbol string `json:"crypto_symbol" binding:"required,symbol"`
}

// FaceRequest carries a 128-d face encoding.
type FaceRequest struct {
	Encoding []float64 `json:"face_encoding" binding:"required,len=128"`
}

// FaceVerifyResponse is the outcome of a face comparison.
type FaceVerifyResponse struct {
	Match           bool    `json:"match"`
	Distance        float64 `json:"distance"`
	Ticket          string  `json:"face_ticket,omitempty"`
	TicketExpiresAt *int64  `json:"face_ticket_expires_at,omitempty"`
}

// NewFaceVerifyResponse maps a verification.
func NewFaceVerifyResponse(v *ports.FaceVerification) FaceVerifyResponse {
	resp := FaceVerifyResponse{Match: v.Match, Distance: v.Distance}
	if v.Ticket != nil {
		resp.Ticket = v.Ticket.Token
		exp := v.Ticket.ExpiresAt.Unix()
		resp.TicketExpiresAt = &exp
	}
	return resp
}

// InitializeResponse reports what system initialization created.
type InitializeResponse struct {
	PairsCreated         int `json:"pairs_created"`
	PairsSimulated       int `json:"pairs_simulated"`
	MerchantsProvisioned int `json:"merchants_provisioned"`
}
