package persistence

import (
	"context"
	"errors"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// appendRetries bounds the position race retry loop. Contention on a single
// customer is rare; two attempts almost always suffice.
const appendRetries = 3

// GormCommandRepository implements customer.CommandRepository using GORM.
// The command table is append-only; rows are never updated or deleted.
type GormCommandRepository struct {
	db *gorm.DB
}

// NewGormCommandRepository creates a new GormCommandRepository
func NewGormCommandRepository(db *gorm.DB) *GormCommandRepository {
	return &GormCommandRepository{db: db}
}

// Append assigns the next sequence position for the customer and inserts the
// command. A unique index on (customer_id, position) backs the assignment:
// when two appends race, the loser's insert is rejected and retried with a
// fresh position, so positions stay strictly monotonic with no ties.
func (r *GormCommandRepository) Append(ctx context.Context, cmd *customer.Command) (int, error) {
	var lastErr error

	for attempt := 0; attempt < appendRetries; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxPosition int
			if err := tx.Model(&customer.Command{}).
				Where("customer_id = ?", cmd.CustomerID).
				Select("COALESCE(MAX(position), 0)").
				Scan(&maxPosition).Error; err != nil {
				return err
			}

			cmd.Position = maxPosition + 1
			return tx.Create(cmd).Error
		})
		if err == nil {
			return cmd.Position, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, err
		}
		lastErr = err
	}

	return 0, lastErr
}

// History returns the full command sequence for a customer, oldest first
func (r *GormCommandRepository) History(ctx context.Context, tenantID, customerID uuid.UUID) ([]customer.Command, error) {
	var commands []customer.Command
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("position ASC").
		Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}

// Ensure GormCommandRepository implements customer.CommandRepository
var _ customer.CommandRepository = (*GormCommandRepository)(nil)
