package handler

import (
	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet, transfer and portfolio endpoints.
type WalletHandler struct {
	walletSvc    ports.WalletService
	transferSvc  ports.TransferService
	portfolioSvc ports.PortfolioService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, transferSvc ports.TransferService, portfolioSvc ports.PortfolioService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, transferSvc: transferSvc, portfolioSvc: portfolioSvc}
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	wallets, err := h.walletSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallets)
}

// Get handles GET /api/v1/wallets/:symbol.
func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	wallet, err := h.walletSvc.Get(c.Request.Context(), userID, c.Param("symbol"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallet)
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.CreateWalletRequest
	if !bindJSON(c, &req) {
		return
	}

	wallet, err := h.walletSvc.Create(c.Request.Context(), userID, req.Symbol)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wallet)
}

// Lookup handles GET /api/v1/wallets/lookup?username=&crypto_symbol=.
func (h *WalletHandler) Lookup(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		response.Error(c, apperror.Validation("Missing username parameter"))
		return
	}

	addr, err := h.walletSvc.Lookup(c.Request.Context(), username, c.DefaultQuery("crypto_symbol", domain.DefaultSymbol))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.WalletAddressResponse{Username: addr.Username, Symbol: addr.Symbol, Address: addr.Address})
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.AmountRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletSvc.Deposit(c.Request.Context(), userID, req.Symbol, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Withdraw handles POST /api/v1/wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.AmountRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.walletSvc.Withdraw(c.Request.Context(), userID, req.Symbol, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Transfer handles POST /api/v1/transfers.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	dto.SanitizeStruct(&req)

	tx, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		FromUserID: userID,
		ToUsername: req.ToUsername,
		Symbol:     req.Symbol,
		Amount:     req.Amount,
		Memo:       req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Portfolio handles GET /api/v1/portfolio.
func (h *WalletHandler) Portfolio(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	p, err := h.portfolioSvc.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewPortfolioResponse(p))
}
