package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// webhookRetryIntervals are the waits before each redelivery.
var webhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

const webhookAttemptTimeout = 10 * time.Second

// WebhookPayload is the JSON body POSTed to a merchant webhook_url.
type WebhookPayload struct {
	EventType domain.EventType   `json:"event_type"`
	Data      WebhookPayloadData `json:"data"`
	Signature string             `json:"signature"`
}

// WebhookPayloadData is signed together with the event type.
type WebhookPayloadData struct {
	MerchantName string          `json:"merchant_name"`
	ReferenceID  string          `json:"reference_id"`
	TxHash       string          `json:"tx_hash"`
	Symbol       string          `json:"crypto_symbol"`
	Amount       decimal.Decimal `json:"amount"`
	USDValue     decimal.Decimal `json:"usd_value"`
	Status       string          `json:"status"`
	Timestamp    int64           `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookServiceImpl implements ports.WebhookService.
type WebhookServiceImpl struct {
	webhookRepo ports.WebhookRepository
	encSvc      ports.EncryptionService
	sigSvc      ports.SignatureService
	httpClient  HTTPClient
	intervals   []time.Duration
	log         zerolog.Logger
	now         func() time.Time

	// stop cancels in-flight deliveries; mu guards closed so no delivery
	// starts once Close has begun waiting.
	stop     context.Context
	halt     context.CancelFunc
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewWebhookService creates a new WebhookServiceImpl.
func NewWebhookService(
	webhookRepo ports.WebhookRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) *WebhookServiceImpl {
	stop, halt := context.WithCancel(context.Background())
	return &WebhookServiceImpl{
		stop:        stop,
		halt:        halt,
		webhookRepo: webhookRepo,
		encSvc:      encSvc,
		sigSvc:      sigSvc,
		httpClient:  httpClient,
		intervals:   webhookRetryIntervals,
		log:         log,
		now:         time.Now,
	}
}

// EnqueueWebhook signs the notification and delivers it in the background.
// Merchants without a webhook URL are skipped.
func (s *WebhookServiceImpl) EnqueueWebhook(ctx context.Context, merchant *domain.Merchant, n ports.WebhookNotification) error {
	if merchant == nil || merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		return nil
	}

	secret, err := s.encSvc.Decrypt(merchant.WebhookSecretEnc)
	if err != nil {
		return fmt.Errorf("decrypt webhook secret: %w", err)
	}

	data := WebhookPayloadData{
		MerchantName: merchant.MerchantName,
		ReferenceID:  n.ReferenceID,
		TxHash:       n.TxHash,
		Symbol:       n.Symbol,
		Amount:       n.Amount,
		USDValue:     n.USDValue,
		Status:       n.Status,
		Timestamp:    s.now().Unix(),
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal webhook data: %w", err)
	}

	body, err := json.Marshal(WebhookPayload{
		EventType: n.Event,
		Data:      data,
		Signature: s.sigSvc.Sign(secret, webhookSigningInput(string(n.Event), dataBytes)),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	entry := domain.NewWebhookDelivery(merchant.ID, n.Event, n.ReferenceID, *merchant.WebhookURL, string(body), s.now().UTC())
	if err := s.webhookRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create webhook log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Warn().Str("reference_id", entry.ReferenceID).Msg("webhook service closed, delivery left pending")
		return nil
	}

	// Delivery outlives the request but not the service.
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	unlink := context.AfterFunc(s.stop, cancel)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		defer unlink()
		s.deliverWithRetries(dctx, entry)
	}()
	return nil
}

// Close stops scheduling retries, aborts in-flight posts and waits for the
// delivery goroutines until ctx ends. Interrupted deliveries stay pending in
// the delivery log.
func (s *WebhookServiceImpl) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.halt()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for webhook deliveries: %w", ctx.Err())
	}
}

// deliverWithRetries posts the payload until a 2xx or the retry schedule runs out,
// persisting every attempt.
func (s *WebhookServiceImpl) deliverWithRetries(ctx context.Context, entry *domain.WebhookDeliveryLog) {
	logger := s.log.With().Str("reference_id", entry.ReferenceID).Str("merchant_id", entry.MerchantID.String()).Logger()

	for attempt := 0; attempt <= len(s.intervals); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				logger.Info().Int("attempt", entry.Attempt).Msg("webhook retry abandoned on shutdown")
				return
			case <-time.After(s.intervals[attempt-1]):
			}
		}

		var retryIn time.Duration
		if attempt < len(s.intervals) {
			retryIn = s.intervals[attempt]
		}
		status, err := s.post(ctx, entry.WebhookURL, []byte(entry.Payload))
		if ctx.Err() != nil {
			logger.Info().Int("attempt", entry.Attempt+1).Msg("webhook delivery interrupted by shutdown")
			return
		}
		delivered := entry.RecordAttempt(s.now().UTC(), status, err, retryIn)
		s.persist(ctx, entry)
		if delivered {
			logger.Info().Int("attempt", entry.Attempt).Int("status", status).Msg("webhook delivered")
			return
		}
		logger.Warn().Str("error", *entry.LastError).Int("attempt", entry.Attempt).Msg("webhook delivery failed")
	}

	logger.Error().Int("attempts", entry.Attempt).Msg("webhook retries exhausted")
}

func (s *WebhookServiceImpl) post(ctx context.Context, url string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, webhookAttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (s *WebhookServiceImpl) persist(ctx context.Context, entry *domain.WebhookDeliveryLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookAttemptTimeout)
	defer cancel()
	if err := s.webhookRepo.Update(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("webhook_log_id", entry.ID.String()).Msg("persist webhook attempt failed")
	}
}
