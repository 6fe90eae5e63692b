package handler

import (
	"strings"

	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles order placement, history and cancellation.
type OrderHandler struct {
	tradingSvc ports.TradingService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(tradingSvc ports.TradingService) *OrderHandler {
	return &OrderHandler{tradingSvc: tradingSvc}
}

// Place handles POST /api/v1/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	orderType := domain.OrderType(strings.ToLower(req.OrderType))
	if orderType == "" {
		orderType = domain.OrderTypeMarket
	}

	result, err := h.tradingSvc.PlaceOrder(c.Request.Context(), ports.PlaceOrderRequest{
		UserID:   userID,
		Pair:     strings.ToUpper(req.Pair),
		Type:     orderType,
		Side:     domain.OrderSide(strings.ToLower(req.Side)),
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.OrderResponse{Order: result.Order, Trade: result.Trade})
}

// List handles GET /api/v1/orders.
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	orders, err := h.tradingSvc.ListOrders(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orders)
}

// Cancel handles DELETE /api/v1/orders/:order_id.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	order, err := h.tradingSvc.CancelOrder(c.Request.Context(), userID, c.Param("order_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}
