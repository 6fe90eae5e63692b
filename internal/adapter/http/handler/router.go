package handler

import (
	"net/http"

	"arc-exchange/internal/adapter/http/middleware"
	"arc-exchange/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	TransferSvc    ports.TransferService
	PortfolioSvc   ports.PortfolioService
	MarketSvc      ports.MarketService
	TradingSvc     ports.TradingService
	TransactionSvc ports.TransactionService
	MerchantSvc    ports.MerchantService
	ReportingSvc   ports.ReportingService
	CartSvc        ports.CartService
	FaceSvc        ports.FaceService
	SystemSvc      ports.SystemService
	AuditSvc       ports.AuditService     // nil = audit logging disabled
	RateLimitStore middleware.RateCounter // nil = rate limiting disabled
	MarketStream   http.Handler           // nil = live stream disabled
	Docs           *APIDocs               // nil = /swagger answers 404
	HealthCheckers []ports.HealthChecker
	AdminToken     string // empty = admin routes always 403
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	docs := deps.Docs
	if docs == nil {
		docs = &APIDocs{}
	}
	swagger := r.Group("/swagger")
	{
		swagger.GET("", docs.UI)
		swagger.GET("/spec", docs.YAML)
		swagger.GET("/spec.json", docs.JSON)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	tokenAuth := middleware.TokenAuth(deps.AuthSvc, deps.Logger)
	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/logout", tokenAuth, rl("account"), authHandler.Logout)
	}
	v1.GET("/users/me", tokenAuth, rl("account"), authHandler.Profile)

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.TransferSvc, deps.PortfolioSvc)
	v1.GET("/wallets/lookup", rl("market"), walletHandler.Lookup)
	wallets := v1.Group("/wallets", tokenAuth)
	{
		wallets.GET("", rl("account"), walletHandler.List)
		wallets.POST("", rl("account"), walletHandler.Create)
		wallets.GET("/:symbol", rl("account"), walletHandler.Get)
		wallets.POST("/deposit", rl("transfers"), walletHandler.Deposit)
		wallets.POST("/withdraw", rl("transfers"), walletHandler.Withdraw)
	}
	v1.POST("/transfers", tokenAuth, rl("transfers"), walletHandler.Transfer)
	v1.GET("/portfolio", tokenAuth, rl("account"), walletHandler.Portfolio)

	marketHandler := NewMarketHandler(deps.MarketSvc, deps.TradingSvc, deps.MarketStream)
	market := v1.Group("/market", rl("market"))
	{
		market.GET("", marketHandler.Market)
		market.GET("/prices", marketHandler.Prices)
		market.GET("/history", marketHandler.History)
		market.GET("/orderbook", marketHandler.OrderBook)
		market.GET("/stream", marketHandler.Stream)
	}

	orderHandler := NewOrderHandler(deps.TradingSvc)
	orders := v1.Group("/orders", tokenAuth, rl("orders"))
	{
		orders.POST("", orderHandler.Place)
		orders.GET("", orderHandler.List)
		orders.DELETE("/:order_id", orderHandler.Cancel)
	}

	txHandler := NewTransactionHandler(deps.TransactionSvc)
	transactions := v1.Group("/transactions", tokenAuth)
	{
		transactions.GET("", rl("account"), txHandler.List)
		transactions.POST("", rl("transfers"), txHandler.Create)
		transactions.POST("/cancel", rl("transfers"), txHandler.Cancel)
	}

	merchantHandler := NewMerchantHandler(deps.MerchantSvc, deps.ReportingSvc)
	v1.GET("/merchants/:name", rl("market"), merchantHandler.Info)
	merchants := v1.Group("/merchants", tokenAuth)
	{
		merchants.POST("", rl("account"), merchantHandler.Register)
		merchants.POST("/:name/pay", rl("payments"), merchantHandler.Pay)
		merchants.POST("/:name/transfer", rl("payments"), merchantHandler.FaceTransfer)
		merchants.GET("/me/stats", rl("account"), merchantHandler.Stats)
		merchants.PUT("/me/webhook", rl("account"), merchantHandler.UpdateWebhookURL)
	}

	cartHandler := NewCartHandler(deps.CartSvc)
	carts := v1.Group("/carts", tokenAuth, rl("payments"))
	{
		carts.POST("", cartHandler.Create)
		carts.POST("/pay", cartHandler.Pay)
		carts.GET("/:cart_id", cartHandler.Get)
	}

	faceHandler := NewFaceHandler(deps.FaceSvc)
	face := v1.Group("/face", tokenAuth, rl("face"))
	{
		face.POST("/register", faceHandler.Register)
		face.POST("/verify", faceHandler.Verify)
	}

	systemHandler := NewSystemHandler(deps.SystemSvc)
	v1.POST("/system/initialize", middleware.AdminAuth(deps.AdminToken), systemHandler.Initialize)

	return r
}
