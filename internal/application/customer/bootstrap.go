package customer

import (
	"context"
	"sync"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bootstrap emits the per-tenant readiness signal. Each tenant gets exactly
// one customer.initialized event for the lifetime of the process; observers
// subscribe to the event bus rather than polling a flag.
type Bootstrap struct {
	publisher shared.EventPublisher
	logger    *zap.Logger

	mu   sync.Mutex
	done map[uuid.UUID]struct{}
}

// NewBootstrap creates a new Bootstrap
func NewBootstrap(publisher shared.EventPublisher, logger *zap.Logger) *Bootstrap {
	return &Bootstrap{
		publisher: publisher,
		logger:    logger,
		done:      make(map[uuid.UUID]struct{}),
	}
}

// Initialize emits the readiness event for a tenant. Repeated calls for the
// same tenant are no-ops.
func (b *Bootstrap) Initialize(ctx context.Context, tenantID uuid.UUID) error {
	b.mu.Lock()
	if _, ok := b.done[tenantID]; ok {
		b.mu.Unlock()
		return nil
	}
	b.done[tenantID] = struct{}{}
	b.mu.Unlock()

	if err := b.publisher.Publish(ctx, customer.NewInitializedEvent(tenantID)); err != nil {
		// Allow a later retry rather than leaving the tenant permanently
		// marked ready without an emitted signal.
		b.mu.Lock()
		delete(b.done, tenantID)
		b.mu.Unlock()
		return err
	}

	b.logger.Info("tenant bootstrap completed", zap.String("tenant_id", tenantID.String()))
	return nil
}

// Initialized reports whether the tenant's readiness signal has been emitted
func (b *Bootstrap) Initialized(tenantID uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.done[tenantID]
	return ok
}
