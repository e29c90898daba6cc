package event

import (
	"context"

	"github.com/fincore/customer/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotentHandler wraps an event handler with duplicate suppression. The
// outbox delivers at-least-once, so subscribers that are not naturally
// idempotent should be wrapped before subscription.
type IdempotentHandler struct {
	inner  shared.EventHandler
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
}

// NewIdempotentHandler wraps the given handler
func NewIdempotentHandler(
	inner shared.EventHandler,
	store shared.IdempotencyStore,
	config shared.IdempotencyConfig,
	logger *zap.Logger,
) *IdempotentHandler {
	return &IdempotentHandler{
		inner:  inner,
		store:  store,
		config: config,
		logger: logger,
	}
}

// Handle processes the event exactly once per event ID within the TTL window.
// If the store is unavailable the event is processed anyway; duplicate
// processing is preferred over lost events.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.inner.Handle(ctx, event)
	}

	eventID := event.EventID().String()

	newlyMarked, err := h.store.MarkProcessed(ctx, eventID, h.config.TTL)
	if err != nil {
		h.logger.Warn("idempotency store unavailable, processing without dedup",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		return h.inner.Handle(ctx, event)
	}

	if !newlyMarked {
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()))
		return nil
	}

	return h.inner.Handle(ctx, event)
}

// EventTypes returns the event types the wrapped handler subscribes to
func (h *IdempotentHandler) EventTypes() []string {
	return h.inner.EventTypes()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
