package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MerchantServiceImpl implements ports.MerchantService. A merchant is a user
// with a merchant profile; payments land in that user's wallets.
type MerchantServiceImpl struct {
	ledger       *Ledger
	userRepo     ports.UserRepository
	merchantRepo ports.MerchantRepository
	walletRepo   ports.WalletRepository
	pairRepo     ports.TradingPairRepository
	transactor   ports.DBTransactor
	encSvc       ports.EncryptionService
	hashSvc      ports.HashService
	faceSvc      ports.FaceService
	webhooks     ports.WebhookService // optional
	events       ports.EventPublisher
	log          zerolog.Logger
	now          func() time.Time
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(
	ledger *Ledger,
	userRepo ports.UserRepository,
	merchantRepo ports.MerchantRepository,
	walletRepo ports.WalletRepository,
	pairRepo ports.TradingPairRepository,
	transactor ports.DBTransactor,
	encSvc ports.EncryptionService,
	hashSvc ports.HashService,
	faceSvc ports.FaceService,
	webhooks ports.WebhookService,
	events ports.EventPublisher,
	log zerolog.Logger,
) *MerchantServiceImpl {
	return &MerchantServiceImpl{
		ledger:       ledger,
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		walletRepo:   walletRepo,
		pairRepo:     pairRepo,
		transactor:   transactor,
		encSvc:       encSvc,
		hashSvc:      hashSvc,
		faceSvc:      faceSvc,
		webhooks:     webhooks,
		events:       events,
		log:          log,
		now:          time.Now,
	}
}

// newMerchant builds an active profile with a fresh webhook secret and
// returns the plaintext secret alongside it.
func (s *MerchantServiceImpl) newMerchant(userID uuid.UUID, name, business, website string, webhookURL *string) (*domain.Merchant, string, error) {
	secret, err := generateKey("whsec_", 24)
	if err != nil {
		return nil, "", fmt.Errorf("generate webhook secret: %w", err)
	}
	sealed, err := s.encSvc.Encrypt(secret)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt webhook secret: %w", err)
	}

	now := s.now().UTC()
	return &domain.Merchant{
		ID:               uuid.New(),
		UserID:           userID,
		MerchantName:     name,
		BusinessName:     business,
		WebsiteURL:       website,
		WebhookURL:       webhookURL,
		WebhookSecretEnc: sealed,
		TotalReceived:    decimal.Zero,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, secret, nil
}

// Register turns an existing user into a merchant.
func (s *MerchantServiceImpl) Register(ctx context.Context, req ports.RegisterMerchantRequest) (*ports.MerchantRegistration, error) {
	name := strings.TrimSpace(req.MerchantName)
	if name == "" {
		return nil, apperror.Validation("Merchant name required")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}

	if existing, err := s.merchantRepo.GetByUserID(ctx, user.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant by user: %w", err))
	} else if existing != nil {
		return nil, apperror.ErrMerchantExists()
	}
	if existing, err := s.merchantRepo.GetByName(ctx, name); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant by name: %w", err))
	} else if existing != nil {
		return nil, apperror.ErrMerchantExists()
	}

	business := strings.TrimSpace(req.BusinessName)
	if business == "" {
		business = name
	}
	merchant, secret, err := s.newMerchant(user.ID, name, business, req.WebsiteURL, req.WebhookURL)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchantRepo.Create(ctx, dbTx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}
	if err := s.userRepo.SetMerchant(ctx, dbTx, user.ID, name); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flag merchant user: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("merchant", name).Str("user_id", user.ID.String()).Msg("merchant registered")
	return &ports.MerchantRegistration{Merchant: merchant, WebhookSecret: secret}, nil
}

func (s *MerchantServiceImpl) activeMerchant(ctx context.Context, name string) (*domain.Merchant, error) {
	m, err := s.merchantRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if m == nil || !m.IsActive {
		return nil, apperror.ErrNotFound("Merchant")
	}
	return m, nil
}

// Info returns the public profile and active wallet addresses of a merchant.
func (s *MerchantServiceImpl) Info(ctx context.Context, name string) (*ports.MerchantInfo, error) {
	m, err := s.activeMerchant(ctx, name)
	if err != nil {
		return nil, err
	}

	wallets, err := s.walletRepo.ListByOwner(ctx, m.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list merchant wallets: %w", err))
	}

	info := &ports.MerchantInfo{
		MerchantName: m.MerchantName,
		BusinessName: m.BusinessName,
		WebsiteURL:   m.WebsiteURL,
		Wallets:      []ports.WalletAddress{},
	}
	for _, w := range wallets {
		if w.IsActive {
			info.Wallets = append(info.Wallets, ports.WalletAddress{Username: m.MerchantName, Symbol: w.Symbol, Address: w.Address})
		}
	}
	return info, nil
}

// usdValue prices amount of symbol in USDT. Symbols without a pair count at face value.
func (s *MerchantServiceImpl) usdValue(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	if symbol == domain.QuoteAsset {
		return amount, nil
	}
	pair, err := s.pairRepo.GetByPair(ctx, domain.PairSymbol(symbol, domain.QuoteAsset))
	if err != nil {
		return decimal.Zero, fmt.Errorf("get trading pair: %w", err)
	}
	if pair == nil {
		return amount, nil
	}
	return amount.Mul(pair.CurrentPrice).Round(maxAmountScale), nil
}

// Pay settles a payment to a merchant that accepts the symbol.
func (s *MerchantServiceImpl) Pay(ctx context.Context, req ports.MerchantPaymentRequest) (*ports.MerchantPaymentResult, error) {
	return s.pay(ctx, req, nil)
}

// pay runs gate, when set, inside the settlement transaction after the
// debit succeeded, so a payment rejected for any other reason leaves the
// gate untouched.
func (s *MerchantServiceImpl) pay(ctx context.Context, req ports.MerchantPaymentRequest, gate func(context.Context) error) (*ports.MerchantPaymentResult, error) {
	if !validAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	symbol := normalizeSymbol(req.Symbol)

	m, err := s.activeMerchant(ctx, req.MerchantName)
	if err != nil {
		return nil, err
	}

	accepting, err := s.walletRepo.GetByOwner(ctx, m.UserID, symbol)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant wallet: %w", err))
	}
	if accepting == nil || !accepting.IsActive {
		return nil, apperror.ErrMerchantRejectsSymbol()
	}

	usd, err := s.usdValue(ctx, symbol, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	memo := req.Memo
	if memo == "" {
		memo = "Payment to " + m.MerchantName
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	record, err := s.ledger.transfer(ctx, dbTx, transferParams{
		From:   req.UserID,
		To:     m.UserID,
		Symbol: symbol,
		Amount: req.Amount,
		Memo:   memo,
		Type:   domain.TransactionTypeMerchantPayment,
	})
	if err != nil {
		return nil, err
	}
	if gate != nil {
		if err := gate(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.merchantRepo.AddReceived(ctx, dbTx, m.ID, usd); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add merchant total: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_hash", record.Hash).
		Str("user_id", req.UserID.String()).
		Str("merchant", m.MerchantName).
		Str("symbol", symbol).
		Str("amount", req.Amount.String()).
		Str("usd_value", usd.String()).
		Msg("merchant payment settled")

	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventMerchantPaid, record.Hash, &record.UserID, record))
	s.notify(ctx, m, ports.WebhookNotification{
		Event:       domain.EventMerchantPaid,
		ReferenceID: record.Hash,
		TxHash:      record.Hash,
		Symbol:      symbol,
		Amount:      req.Amount,
		USDValue:    usd,
		Status:      string(record.Status),
	})

	return &ports.MerchantPaymentResult{Transaction: record, USDValue: usd}, nil
}

// FaceTransfer pays a merchant against a face verification ticket. The
// ticket is consumed only once the payment has cleared its checks.
func (s *MerchantServiceImpl) FaceTransfer(ctx context.Context, req ports.MerchantPaymentRequest) (*ports.MerchantPaymentResult, error) {
	if req.FaceTicket == "" {
		return nil, apperror.ErrFaceVerificationRequired()
	}
	return s.pay(ctx, req, func(ctx context.Context) error {
		return s.faceSvc.ConsumeTicket(ctx, req.UserID, req.FaceTicket)
	})
}

func (s *MerchantServiceImpl) notify(ctx context.Context, m *domain.Merchant, n ports.WebhookNotification) {
	if s.webhooks == nil {
		return
	}
	if err := s.webhooks.EnqueueWebhook(ctx, m, n); err != nil {
		s.log.Warn().Err(err).Str("merchant", m.MerchantName).Str("reference_id", n.ReferenceID).Msg("failed to enqueue webhook")
	}
}

// UpdateWebhookURL sets or clears the webhook of the caller's merchant profile.
func (s *MerchantServiceImpl) UpdateWebhookURL(ctx context.Context, userID uuid.UUID, webhookURL *string) error {
	m, err := s.merchantRepo.GetByUserID(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if m == nil {
		return apperror.ErrNotFound("Merchant")
	}
	if webhookURL != nil && strings.TrimSpace(*webhookURL) == "" {
		webhookURL = nil
	}
	if err := s.merchantRepo.UpdateWebhookURL(ctx, m.ID, webhookURL); err != nil {
		return apperror.InternalError(err)
	}
	return nil
}

// EnsureMerchant returns the named merchant, creating its user, profile and
// zero-balance wallets when missing.
func (s *MerchantServiceImpl) EnsureMerchant(ctx context.Context, name string) (*domain.Merchant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultCartMerchant
	}

	m, err := s.merchantRepo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if m != nil {
		return m, nil
	}

	user, err := s.userRepo.GetByUsername(ctx, name)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant user: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if user == nil {
		if user, err = s.createMerchantUser(ctx, dbTx, name); err != nil {
			return nil, apperror.InternalError(err)
		}
	} else if err := s.userRepo.SetMerchant(ctx, dbTx, user.ID, name); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flag merchant user: %w", err))
	}

	business, website := name+" Business", ""
	if name == domain.DefaultCartMerchant {
		business, website = "Curve E-commerce", "https://curve.com"
	}
	m, _, err = s.newMerchant(user.ID, name, business, website, nil)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.merchantRepo.Create(ctx, dbTx, m); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}
	if _, err := s.ledger.provisionAssets(ctx, dbTx, user.ID, domain.CartMerchantAssets()); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("merchant", name).Str("user_id", user.ID.String()).Msg("merchant auto-created")
	return m, nil
}

// createMerchantUser inserts a merchant user that cannot log in with a known password.
func (s *MerchantServiceImpl) createMerchantUser(ctx context.Context, dbTx pgx.Tx, name string) (*domain.User, error) {
	password, err := generateRandomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	merchantName := name
	user := &domain.User{
		ID:           uuid.New(),
		Username:     name,
		Email:        name + "@curve.com",
		PasswordHash: hash,
		IsMerchant:   true,
		MerchantName: &merchantName,
		KYCVerified:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, fmt.Errorf("create merchant user: %w", err)
	}
	return user, nil
}

// ProvisionMerchants creates a profile and the default merchant wallets for
// every merchant user lacking a profile.
func (s *MerchantServiceImpl) ProvisionMerchants(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListMerchants(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("list merchant users: %w", err))
	}

	provisioned := 0
	for i := range users {
		ok, err := s.provisionMerchant(ctx, &users[i])
		if err != nil {
			return provisioned, err
		}
		if ok {
			provisioned++
		}
	}
	s.log.Info().Int("provisioned", provisioned).Msg("merchant wallets initialized")
	return provisioned, nil
}

func (s *MerchantServiceImpl) provisionMerchant(ctx context.Context, user *domain.User) (bool, error) {
	existing, err := s.merchantRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("get merchant by user: %w", err))
	}
	if existing != nil {
		return false, nil
	}

	name, business := user.Username, user.Username+" Business"
	if user.MerchantName != nil && *user.MerchantName != "" {
		name, business = *user.MerchantName, *user.MerchantName
	}
	if taken, err := s.merchantRepo.GetByName(ctx, name); err != nil {
		return false, apperror.InternalError(fmt.Errorf("get merchant by name: %w", err))
	} else if taken != nil {
		s.log.Warn().Str("merchant", name).Str("user_id", user.ID.String()).Msg("merchant name taken, skipping")
		return false, nil
	}

	m, _, err := s.newMerchant(user.ID, name, business, "", nil)
	if err != nil {
		return false, apperror.InternalError(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchantRepo.Create(ctx, dbTx, m); err != nil {
		return false, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}
	if _, err := s.ledger.provisionAssets(ctx, dbTx, user.ID, domain.DefaultMerchantAssets()); err != nil {
		return false, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return false, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return true, nil
}

func generateKey(prefix string, length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(b), nil
}
