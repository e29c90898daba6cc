package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/fincore/customer/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormCustomerRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a customer by its internal ID within a tenant
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdentifier finds a customer by its external identifier within a tenant
func (r *GormCustomerRepository) FindByIdentifier(ctx context.Context, tenantID uuid.UUID, identifier string) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND identifier = ?", tenantID, identifier).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByIdentifier checks whether the identifier is already taken in the tenant
func (r *GormCustomerRepository) ExistsByIdentifier(ctx context.Context, tenantID uuid.UUID, identifier string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND identifier = ?", tenantID, identifier).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists a new customer and its pending events atomically. A unique
// index on (tenant_id, identifier) backs the duplicate check, so races between
// two concurrent creates collapse into ErrAlreadyExists for the loser.
func (r *GormCustomerRepository) Create(ctx context.Context, c *customer.Customer, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.CustomerModelFromDomain(c)
		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}

		return r.saveEvents(ctx, tx, events)
	})
}

// Save replaces the stored projection with optimistic locking. State is never
// written here; UpdateState owns the state column.
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer, events []shared.DomainEvent) error {
	addressJSON, err := marshalColumn(c.Address)
	if err != nil {
		return err
	}
	cardJSON, err := marshalColumn(c.IdentificationCard)
	if err != nil {
		return err
	}
	contactsJSON, err := marshalColumn(c.ContactDetails)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := c.Version - 1

		result := tx.Model(&models.CustomerModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", c.TenantID, c.ID, currentVersion).
			Updates(map[string]interface{}{
				"given_name":          c.GivenName,
				"middle_name":         c.MiddleName,
				"surname":             c.Surname,
				"date_of_birth":       c.DateOfBirth,
				"type":                c.Type,
				"address":             addressJSON,
				"identification_card": cardJSON,
				"contact_details":     contactsJSON,
				"last_modified_by":    c.LastModifiedBy,
				"version":             c.Version,
				"updated_at":          time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.conflictOrMissing(ctx, tx, c.TenantID, c.ID)
		}

		return r.saveEvents(ctx, tx, events)
	})
}

// UpdateState writes the new lifecycle state using the version the caller read
// before applying the transition. When another transition won the race the
// version predicate matches nothing and the write is rejected.
func (r *GormCustomerRepository) UpdateState(ctx context.Context, c *customer.Customer, expectedVersion int, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CustomerModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", c.TenantID, c.ID, expectedVersion).
			Updates(map[string]interface{}{
				"current_state":    c.CurrentState,
				"last_modified_by": c.LastModifiedBy,
				"version":          c.Version,
				"updated_at":       time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.conflictOrMissing(ctx, tx, c.TenantID, c.ID)
		}

		return r.saveEvents(ctx, tx, events)
	})
}

// Search lists customers matching an identifier term, optionally restricted to
// the ACTIVE state
func (r *GormCustomerRepository) Search(ctx context.Context, tenantID uuid.UUID, term string, onlyActive *bool, filter shared.Filter) (shared.Paginated[customer.Customer], error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ?", tenantID)

	if term != "" {
		pattern := "%" + term + "%"
		query = query.Where("identifier ILIKE ? OR given_name ILIKE ? OR surname ILIKE ?", pattern, pattern, pattern)
	}
	if onlyActive != nil {
		if *onlyActive {
			query = query.Where("current_state = ?", customer.StateActive)
		} else {
			query = query.Where("current_state <> ?", customer.StateActive)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[customer.Customer]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CustomerSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.CustomerModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return shared.Paginated[customer.Customer]{}, err
	}

	customers := make([]customer.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}

	return shared.NewPaginated(customers, total, filter.Page, filter.PageSize), nil
}

// conflictOrMissing distinguishes a lost version race from a missing row
func (r *GormCustomerRepository) conflictOrMissing(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// marshalColumn serializes a jsonb column value. Map-based Updates bypass
// GORM's field serializers, so sub-resource slots are marshalled by hand.
func marshalColumn(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Slice) && rv.IsNil() {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *GormCustomerRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	return r.outboxSaver.SaveEvents(ctx, tx, events...)
}

// Ensure GormCustomerRepository implements customer.Repository
var _ customer.Repository = (*GormCustomerRepository)(nil)
