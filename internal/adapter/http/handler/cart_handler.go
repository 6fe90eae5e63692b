package handler

import (
	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// CartHandler handles checkout carts.
type CartHandler struct {
	cartSvc ports.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartSvc ports.CartService) *CartHandler {
	return &CartHandler{cartSvc: cartSvc}
}

// Create handles POST /api/v1/carts.
func (h *CartHandler) Create(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.CreateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.cartSvc.Create(c.Request.Context(), ports.CreateCartRequest{
		UserID:       userID,
		MerchantName: req.MerchantName,
		Items:        req.ToItems(),
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cart)
}

// Get handles GET /api/v1/carts/:cart_id.
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	cart, err := h.cartSvc.Get(c.Request.Context(), userID, c.Param("cart_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cart)
}

// Pay handles POST /api/v1/carts/pay.
func (h *CartHandler) Pay(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.PayCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.cartSvc.Pay(c.Request.Context(), userID, req.CartID, req.Symbol)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cart)
}
