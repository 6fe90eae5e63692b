package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event published after a settlement.
type EventType string

const (
	EventTradeExecuted     EventType = "trade.executed"
	EventTransferConfirmed EventType = "transfer.confirmed"
	EventMerchantPaid      EventType = "merchant.paid"
	EventCartPaid          EventType = "cart.paid"
	EventOrderCancelled    EventType = "order.cancelled"
	EventTxCancelled       EventType = "transaction.cancelled"
	EventPricesSimulated   EventType = "market.simulated"
)

// Event is the envelope of a published domain event.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Key        string     `json:"key"`
	OccurredAt time.Time  `json:"occurred_at"`
	Payload    any        `json:"payload"`
}

// NewEvent builds an event keyed for partitioning by key.
func NewEvent(t EventType, key string, userID *uuid.UUID, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		UserID:     userID,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
