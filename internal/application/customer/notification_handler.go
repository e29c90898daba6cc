package customer

import (
	"context"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationSink receives customer notifications. Implementations forward
// to whatever channel operations uses; delivery is best effort and a failed
// notification never affects the stored customer.
type NotificationSink interface {
	Notify(ctx context.Context, eventType string, event shared.DomainEvent) error
}

// LogNotificationSink writes notifications to the service log. It is the
// default sink when no external channel is configured.
type LogNotificationSink struct {
	logger *zap.Logger
}

// NewLogNotificationSink creates a new LogNotificationSink
func NewLogNotificationSink(logger *zap.Logger) *LogNotificationSink {
	return &LogNotificationSink{logger: logger}
}

// Notify implements NotificationSink
func (s *LogNotificationSink) Notify(_ context.Context, eventType string, event shared.DomainEvent) error {
	s.logger.Info("customer notification",
		zap.String("event_type", eventType),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
	)
	return nil
}

// NotificationHandler forwards customer events to the notification sink.
// The outbox delivers at-least-once, so the handler is wrapped with
// idempotent dedup at subscription time.
type NotificationHandler struct {
	sink   NotificationSink
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(sink NotificationSink, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		sink:   sink,
		logger: logger,
	}
}

// Handle forwards one event to the sink. Sink failures are logged and
// swallowed; notification is not part of the write path.
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.sink.Notify(ctx, event.EventType(), event); err != nil {
		h.logger.Warn("notification delivery failed",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	}
	return nil
}

// EventTypes returns the customer events the handler subscribes to
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		customer.EventTypeInitialized,
		customer.EventTypeCreated,
		customer.EventTypeUpdated,
		customer.EventTypeActivated,
		customer.EventTypeLocked,
		customer.EventTypeUnlocked,
		customer.EventTypeClosed,
		customer.EventTypeReopened,
		customer.EventTypeAddressUpdated,
		customer.EventTypeContactDetailsUpdated,
		customer.EventTypeIdentificationCardUpdated,
	}
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
