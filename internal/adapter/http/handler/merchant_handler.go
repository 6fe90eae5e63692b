package handler

import (
	"context"

	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles merchant registration, payments and self-service.
type MerchantHandler struct {
	merchantSvc  ports.MerchantService
	reportingSvc ports.ReportingService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(merchantSvc ports.MerchantService, reportingSvc ports.ReportingService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc, reportingSvc: reportingSvc}
}

// Register handles POST /api/v1/merchants.
func (h *MerchantHandler) Register(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.RegisterMerchantRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := h.merchantSvc.Register(c.Request.Context(), ports.RegisterMerchantRequest{
		UserID:       userID,
		MerchantName: req.MerchantName,
		BusinessName: req.BusinessName,
		WebsiteURL:   req.WebsiteURL,
		WebhookURL:   req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.MerchantRegistrationResponse{Merchant: reg.Merchant, WebhookSecret: reg.WebhookSecret})
}

// Info handles GET /api/v1/merchants/:name.
func (h *MerchantHandler) Info(c *gin.Context) {
	info, err := h.merchantSvc.Info(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewMerchantInfoResponse(info))
}

// Pay handles POST /api/v1/merchants/:name/pay.
func (h *MerchantHandler) Pay(c *gin.Context) {
	h.pay(c, h.merchantSvc.Pay)
}

// FaceTransfer handles POST /api/v1/merchants/:name/transfer.
func (h *MerchantHandler) FaceTransfer(c *gin.Context) {
	h.pay(c, h.merchantSvc.FaceTransfer)
}

type payFunc func(ctx context.Context, req ports.MerchantPaymentRequest) (*ports.MerchantPaymentResult, error)

func (h *MerchantHandler) pay(c *gin.Context, fn payFunc) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.MerchantPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	dto.SanitizeStruct(&req)

	result, err := fn(c.Request.Context(), ports.MerchantPaymentRequest{
		UserID:       userID,
		MerchantName: c.Param("name"),
		Symbol:       req.Symbol,
		Amount:       req.Amount,
		Memo:         req.Memo,
		FaceTicket:   req.FaceTicket,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.MerchantPaymentResponse{Transaction: result.Transaction, USDValue: result.USDValue})
}

// Stats handles GET /api/v1/merchants/me/stats?period=day|week|month|all.
func (h *MerchantHandler) Stats(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	period := domain.StatsPeriod(c.DefaultQuery("period", string(domain.StatsPeriodAll)))
	if !domain.ValidStatsPeriod(period) {
		response.Error(c, apperror.Validation("Invalid period"))
		return
	}

	stats, err := h.reportingSvc.MerchantStats(c.Request.Context(), userID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// UpdateWebhookURL handles PUT /api/v1/merchants/me/webhook.
func (h *MerchantHandler) UpdateWebhookURL(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateWebhookRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.merchantSvc.UpdateWebhookURL(c.Request.Context(), userID, req.WebhookURL); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"webhook_url": req.WebhookURL})
}
