// Package coincap fetches hourly price history from the CoinCap v3 REST API.
package coincap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arc-exchange/config"
	"arc-exchange/internal/core/domain"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://rest.coincap.io/v3"
	historyPath    = "/assets/{id}/history"
)

// Client implements ports.MarketDataProvider.
type Client struct {
	http *resty.Client
}

type historyResponse struct {
	Data []struct {
		PriceUSD string `json:"priceUsd"`
		Time     int64  `json:"time"`
	} `json:"data"`
}

// New builds a client from config. An empty API key sends unauthenticated requests.
func New(cfg config.CoinCapConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond)
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	return &Client{http: httpClient}
}

// History returns the newest limit hourly points of assetID, oldest first.
// Rows without a parseable price are skipped.
func (c *Client) History(ctx context.Context, assetID string, limit int) ([]domain.PricePoint, error) {
	var body historyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", assetID).
		SetQueryParam("interval", "h1").
		SetResult(&body).
		Get(historyPath)
	if err != nil {
		return nil, fmt.Errorf("coincap history %s: %w", assetID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("coincap history %s: status %d", assetID, resp.StatusCode())
	}

	rows := body.Data
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	points := make([]domain.PricePoint, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.PriceUSD)
		if err != nil || row.Time == 0 {
			continue
		}
		points = append(points, domain.PricePoint{
			Price:     price.Round(domain.PriceScale),
			Volume:    decimal.Zero,
			Timestamp: time.UnixMilli(row.Time).UTC(),
		})
	}
	return points, nil
}
