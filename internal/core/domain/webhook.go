package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WebhookStatus is where a notification stands in its retry schedule.
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusDelivered WebhookStatus = "delivered"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// WebhookDeliveryLog is one merchant notification and the outcome of its
// latest delivery attempt.
type WebhookDeliveryLog struct {
	ID          uuid.UUID     `json:"id"`
	MerchantID  uuid.UUID     `json:"merchant_id"`
	EventType   EventType     `json:"event_type"`
	ReferenceID string        `json:"reference_id"` // tx hash or cart id
	WebhookURL  string        `json:"webhook_url"`
	Payload     string        `json:"payload"`
	HTTPStatus  *int          `json:"http_status"`
	Attempt     int           `json:"attempt"`
	Status      WebhookStatus `json:"status"`
	NextRetryAt *time.Time    `json:"next_retry_at"`
	LastError   *string       `json:"last_error"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewWebhookDelivery queues payload for url.
func NewWebhookDelivery(merchantID uuid.UUID, event EventType, referenceID, url, payload string, now time.Time) *WebhookDeliveryLog {
	return &WebhookDeliveryLog{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		EventType:   event,
		ReferenceID: referenceID,
		WebhookURL:  url,
		Payload:     payload,
		Status:      WebhookStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RecordAttempt applies the result of one POST. httpStatus is 0 when no
// response arrived. A zero retryIn means no attempts remain, so a failure
// becomes final. It reports whether the notification was delivered.
func (w *WebhookDeliveryLog) RecordAttempt(at time.Time, httpStatus int, err error, retryIn time.Duration) bool {
	w.Attempt++
	w.UpdatedAt = at
	w.HTTPStatus = nil
	if httpStatus > 0 {
		w.HTTPStatus = &httpStatus
	}
	if err == nil && (httpStatus < 200 || httpStatus > 299) {
		err = fmt.Errorf("non-2xx response: %d", httpStatus)
	}

	if err == nil {
		w.Status = WebhookStatusDelivered
		w.NextRetryAt = nil
		w.LastError = nil
		return true
	}

	msg := err.Error()
	w.LastError = &msg
	if retryIn > 0 {
		next := at.Add(retryIn)
		w.NextRetryAt = &next
		return false
	}
	w.Status = WebhookStatusFailed
	w.NextRetryAt = nil
	return false
}
