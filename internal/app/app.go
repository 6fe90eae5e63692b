// Package app wires configuration, storage and services into a runnable exchange.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"arc-exchange/config"
	"arc-exchange/internal/adapter/coincap"
	httpHandler "arc-exchange/internal/adapter/http/handler"
	"arc-exchange/internal/adapter/keygen"
	"arc-exchange/internal/adapter/messaging"
	pgStorage "arc-exchange/internal/adapter/storage/postgres"
	redisStorage "arc-exchange/internal/adapter/storage/redis"
	"arc-exchange/internal/adapter/stream"
	"arc-exchange/internal/core/ports"
	"arc-exchange/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the connected infrastructure and every business service.
type App struct {
	Config *Config

	Pool   *pgxpool.Pool
	Redis  *goredis.Client
	Events ports.EventPublisher
	Hub    *stream.Hub

	Auth        ports.AuthService
	Wallets     ports.WalletService
	Transfers   ports.TransferService
	Portfolio   ports.PortfolioService
	Market      ports.MarketService
	Trading     ports.TradingService
	Transaction ports.TransactionService
	Merchants   ports.MerchantService
	Reporting   ports.ReportingService
	Carts       ports.CartService
	Face        ports.FaceService
	System      ports.SystemService
	Audit       ports.AuditService
	Ticker      *service.MarketTicker

	rateLimitStore *redisStorage.RateLimitStore
	webhooks       *service.WebhookServiceImpl
	log            zerolog.Logger
}

const webhookDrainTimeout = 5 * time.Second

// Config is the application configuration.
type Config = config.Config

// New connects to PostgreSQL and Redis and builds all services.
// The caller must Close the returned App.
func New(ctx context.Context, cfg *Config, log zerolog.Logger) (*App, error) {
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	a := &App{Config: cfg, Pool: pool, Redis: rdb, log: log}
	if err := a.build(cfg, log); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *Config, log zerolog.Logger) error {
	// Event publisher
	a.Events = messaging.NopPublisher{}
	if cfg.Kafka.Enabled {
		pub, err := messaging.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		a.Events = pub
	}

	// Repositories
	userRepo := pgStorage.NewUserRepo(a.Pool)
	tokenRepo := pgStorage.NewTokenRepo(a.Pool)
	walletRepo := pgStorage.NewWalletRepo(a.Pool)
	txRepo := pgStorage.NewTransactionRepo(a.Pool)
	pairRepo := pgStorage.NewTradingPairRepo(a.Pool)
	historyRepo := pgStorage.NewPriceHistoryRepo(a.Pool)
	orderRepo := pgStorage.NewOrderRepo(a.Pool)
	tradeRepo := pgStorage.NewTradeRepo(a.Pool)
	merchantRepo := pgStorage.NewMerchantRepo(a.Pool)
	cartRepo := pgStorage.NewCartRepo(a.Pool)
	faceRepo := pgStorage.NewFaceRepo(a.Pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(a.Pool)
	webhookRepo := pgStorage.NewWebhookRepo(a.Pool)
	auditRepo := pgStorage.NewAuditRepo(a.Pool)
	transactor := pgStorage.NewTransactor(a.Pool, a.Config.Database.LockTimeout)

	// Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(a.Redis)
	replayGuard := redisStorage.NewReplayGuard(a.Redis)
	historyCache := redisStorage.NewHistoryCache(a.Redis)
	a.rateLimitStore = redisStorage.NewRateLimitStore(a.Redis)

	// Crypto primitives
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key, cfg.AES.RetiredKeys...)
	if err != nil {
		return fmt.Errorf("init encryption: %w", err)
	}
	if cfg.Face.TicketSecret == "" {
		return fmt.Errorf("face.ticket_secret is required")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	ticketSvc := service.NewJWTTicketService(cfg.Face.TicketSecret, cfg.Face.TicketTTL, cfg.Face.Issuer)

	ledger := service.NewLedger(walletRepo, txRepo, keygen.New(), encSvc)

	// Business services
	a.Audit = service.NewAuditService(auditRepo, log)
	webhookSvc := service.NewWebhookService(webhookRepo, encSvc, sigSvc, &http.Client{Timeout: 10 * time.Second}, log)
	a.webhooks = webhookSvc
	a.Face = service.NewFaceService(faceRepo, ticketSvc, replayGuard, cfg.Face.Tolerance, log)
	a.Auth = service.NewAuthService(ledger, userRepo, tokenRepo, faceRepo, hashSvc, transactor, cfg.Auth.TokenTTL, log)
	a.Wallets = service.NewWalletService(ledger, walletRepo, userRepo, transactor, log)
	a.Transfers = service.NewTransferService(ledger, userRepo, transactor, a.Events, log)
	a.Portfolio = service.NewPortfolioService(walletRepo, pairRepo)
	a.Market = service.NewMarketService(
		pairRepo,
		historyRepo,
		transactor,
		coincap.New(cfg.CoinCap),
		historyCache,
		service.MarketOptions{
			SimulateOnRead:  cfg.Market.SimulateOnRead,
			HistoryPoints:   cfg.Market.HistoryPoints,
			HistoryCacheTTL: cfg.CoinCap.CacheTTL,
		},
		log,
	)
	a.Trading = service.NewTradingService(ledger, pairRepo, orderRepo, tradeRepo, transactor, a.Events, log)
	a.Transaction = service.NewTransactionService(
		ledger, walletRepo, txRepo, idempotencyRepo, idempotencyCache, transactor, a.Events, log,
	)
	a.Merchants = service.NewMerchantService(
		ledger,
		userRepo,
		merchantRepo,
		walletRepo,
		pairRepo,
		transactor,
		encSvc,
		hashSvc,
		a.Face,
		webhookSvc,
		a.Events,
		log,
	)
	a.Reporting = service.NewReportingService(txRepo, merchantRepo)
	a.Carts = service.NewCartService(
		ledger, cartRepo, merchantRepo, pairRepo, a.Merchants, transactor, webhookSvc, a.Events, log,
	)
	a.System = service.NewSystemService(a.Market, a.Merchants, log)

	a.Hub = stream.NewHub(log)
	a.Ticker = service.NewMarketTicker(a.Market, a.Trading, a.Hub, cfg.Market.TickInterval, log)
	return nil
}

// apiDocs loads the OpenAPI document. Docs are optional, so a missing or
// malformed file only disables /swagger.
func (a *App) apiDocs() *httpHandler.APIDocs {
	spec, err := os.ReadFile(a.Config.Swagger.SpecPath)
	if err != nil {
		a.log.Warn().Err(err).Str("path", a.Config.Swagger.SpecPath).Msg("openapi document not found, /swagger disabled")
		return nil
	}
	docs, err := httpHandler.NewAPIDocs(spec)
	if err != nil {
		a.log.Warn().Err(err).Msg("openapi document rejected, /swagger disabled")
		return nil
	}
	return docs
}

// Router builds the HTTP router over the wired services.
func (a *App) Router() http.Handler {
	return httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        a.Auth,
		WalletSvc:      a.Wallets,
		TransferSvc:    a.Transfers,
		PortfolioSvc:   a.Portfolio,
		MarketSvc:      a.Market,
		TradingSvc:     a.Trading,
		TransactionSvc: a.Transaction,
		MerchantSvc:    a.Merchants,
		ReportingSvc:   a.Reporting,
		CartSvc:        a.Carts,
		FaceSvc:        a.Face,
		SystemSvc:      a.System,
		AuditSvc:       a.Audit,
		RateLimitStore: a.rateLimitStore,
		MarketStream:   a.Hub,
		Docs:           a.apiDocs(),
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(a.Pool),
			redisStorage.NewHealthCheck(a.Redis),
		},
		AdminToken: a.Config.Admin.Token,
		Logger:     a.log,
	})
}

// Migrate applies the database schema.
func (a *App) Migrate(ctx context.Context) error {
	return pgStorage.Migrate(ctx, a.Pool)
}

// Close releases every connection. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.webhooks != nil {
		ctx, cancel := context.WithTimeout(context.Background(), webhookDrainTimeout)
		if err := a.webhooks.Close(ctx); err != nil {
			a.log.Warn().Err(err).Msg("webhook deliveries still running at shutdown")
		}
		cancel()
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.log.Warn().Err(err).Msg("event publisher close failed")
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
