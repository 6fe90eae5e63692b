package handler

import (
	"net/http"

	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// MarketHandler serves simulated market data.
type MarketHandler struct {
	marketSvc  ports.MarketService
	tradingSvc ports.TradingService
	stream     http.Handler // nil = live stream disabled
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc ports.MarketService, tradingSvc ports.TradingService, stream http.Handler) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, tradingSvc: tradingSvc, stream: stream}
}

// Market handles GET /api/v1/market.
func (h *MarketHandler) Market(c *gin.Context) {
	pairs, err := h.marketSvc.MarketData(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pairs)
}

// Prices handles GET /api/v1/market/prices.
func (h *MarketHandler) Prices(c *gin.Context) {
	prices, err := h.marketSvc.Prices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, prices)
}

// History handles GET /api/v1/market/history?pair=BTCUSDT.
func (h *MarketHandler) History(c *gin.Context) {
	history, err := h.marketSvc.PriceHistory(c.Request.Context(), c.Query("pair"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, history)
}

// OrderBook handles GET /api/v1/market/orderbook?pair=BTCUSDT.
func (h *MarketHandler) OrderBook(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		response.Error(c, apperror.Validation("Missing pair parameter"))
		return
	}

	book, err := h.tradingSvc.OrderBook(c.Request.Context(), pair)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewOrderBookResponse(book))
}

// Stream handles GET /api/v1/market/stream by upgrading to a websocket.
func (h *MarketHandler) Stream(c *gin.Context) {
	if h.stream == nil {
		response.Error(c, apperror.ErrNotFound("Market stream"))
		return
	}
	h.stream.ServeHTTP(c.Writer, c.Request)
}
