package handler

import (
	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey deduplicates transaction creation.
const HeaderIdempotencyKey = "Idempotency-Key"

// TransactionHandler handles transaction history, creation and cancellation.
type TransactionHandler struct {
	txSvc ports.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txSvc ports.TransactionService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	txs, err := h.txSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txs)
}

// Create handles POST /api/v1/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	dto.SanitizeStruct(&req)

	key := c.GetHeader(HeaderIdempotencyKey)
	if len(key) > 128 {
		response.Error(c, apperror.Validation("Idempotency-Key too long"))
		return
	}

	tx, err := h.txSvc.Create(c.Request.Context(), ports.CreateTransactionRequest{
		UserID:         userID,
		ToAddress:      req.ToAddress,
		Symbol:         req.Symbol,
		Amount:         req.Amount,
		Memo:           req.Memo,
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Cancel handles POST /api/v1/transactions/cancel.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.CancelTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.txSvc.Cancel(c.Request.Context(), userID, req.TxHash)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tx)
}
