package service

import (
	"context"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"

	"github.com/rs/zerolog"
)

// publishEvent emits a settled event. Publishing never fails the settlement.
func publishEvent(ctx context.Context, pub ports.EventPublisher, log zerolog.Logger, ev domain.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event_type", string(ev.Type)).Str("key", ev.Key).Msg("failed to publish event")
	}
}
