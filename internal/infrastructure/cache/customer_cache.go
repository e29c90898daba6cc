package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultProjectionTTL bounds staleness when an invalidation is lost
const DefaultProjectionTTL = 5 * time.Minute

// CachedCustomerRepository decorates a customer.Repository with a read-through
// Redis cache keyed by (tenant, identifier). Every accepted mutation
// invalidates the cached projection. The cache is strictly best-effort: any
// Redis failure falls back to the underlying repository.
type CachedCustomerRepository struct {
	inner  customer.Repository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCustomerRepository wraps the given repository with a Redis cache
func NewCachedCustomerRepository(inner customer.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedCustomerRepository {
	if ttl <= 0 {
		ttl = DefaultProjectionTTL
	}
	return &CachedCustomerRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func projectionKey(tenantID uuid.UUID, identifier string) string {
	return "customer:projection:" + tenantID.String() + ":" + identifier
}

// FindByIdentifier serves the projection from cache when possible
func (r *CachedCustomerRepository) FindByIdentifier(ctx context.Context, tenantID uuid.UUID, identifier string) (*customer.Customer, error) {
	key := projectionKey(tenantID, identifier)

	payload, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var c customer.Customer
		if unmarshalErr := json.Unmarshal(payload, &c); unmarshalErr == nil {
			return &c, nil
		}
		// Corrupt entry, drop it and fall through
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		r.logger.Warn("customer cache read failed",
			zap.String("identifier", identifier),
			zap.Error(err))
	}

	c, err := r.inner.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(c); marshalErr == nil {
		if setErr := r.client.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			r.logger.Warn("customer cache write failed",
				zap.String("identifier", identifier),
				zap.Error(setErr))
		}
	}

	return c, nil
}

// FindByID delegates to the underlying repository; lookups by internal ID are
// rare and not worth a second key space.
func (r *CachedCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	return r.inner.FindByID(ctx, tenantID, id)
}

// ExistsByIdentifier delegates to the underlying repository
func (r *CachedCustomerRepository) ExistsByIdentifier(ctx context.Context, tenantID uuid.UUID, identifier string) (bool, error) {
	return r.inner.ExistsByIdentifier(ctx, tenantID, identifier)
}

// Create delegates and invalidates the projection
func (r *CachedCustomerRepository) Create(ctx context.Context, c *customer.Customer, events []shared.DomainEvent) error {
	if err := r.inner.Create(ctx, c, events); err != nil {
		return err
	}
	r.invalidate(ctx, c)
	return nil
}

// Save delegates and invalidates the projection
func (r *CachedCustomerRepository) Save(ctx context.Context, c *customer.Customer, events []shared.DomainEvent) error {
	if err := r.inner.Save(ctx, c, events); err != nil {
		return err
	}
	r.invalidate(ctx, c)
	return nil
}

// UpdateState delegates and invalidates the projection
func (r *CachedCustomerRepository) UpdateState(ctx context.Context, c *customer.Customer, expectedVersion int, events []shared.DomainEvent) error {
	if err := r.inner.UpdateState(ctx, c, expectedVersion, events); err != nil {
		return err
	}
	r.invalidate(ctx, c)
	return nil
}

// Search delegates to the underlying repository; result pages are not cached
func (r *CachedCustomerRepository) Search(ctx context.Context, tenantID uuid.UUID, term string, onlyActive *bool, filter shared.Filter) (shared.Paginated[customer.Customer], error) {
	return r.inner.Search(ctx, tenantID, term, onlyActive, filter)
}

func (r *CachedCustomerRepository) invalidate(ctx context.Context, c *customer.Customer) {
	if err := r.client.Del(ctx, projectionKey(c.TenantID, c.Identifier)).Err(); err != nil {
		r.logger.Warn("customer cache invalidation failed",
			zap.String("identifier", c.Identifier),
			zap.Error(err))
	}
}

// Ensure CachedCustomerRepository implements customer.Repository
var _ customer.Repository = (*CachedCustomerRepository)(nil)
