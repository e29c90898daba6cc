package customer

import (
	"time"

	"github.com/google/uuid"
)

// Command is an immutable audit record of an accepted state-changing action.
// Commands are only ever created as a side effect of an accepted transition
// and are never edited or removed once appended.
type Command struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_command_customer_position,priority:1"`
	Position   int       `gorm:"not null;uniqueIndex:idx_command_customer_position,priority:2"`
	Action     Action    `gorm:"type:varchar(20);not null"`
	Comment    string    `gorm:"type:varchar(500)"`
	CreatedBy  string    `gorm:"type:varchar(64);not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Command) TableName() string {
	return "customer_commands"
}

// NewCommand creates an audit record for an accepted action. The position is
// assigned by the audit store on append.
func NewCommand(tenantID, customerID uuid.UUID, action Action, actor, comment string) *Command {
	return &Command{
		ID:         uuid.New(),
		TenantID:   tenantID,
		CustomerID: customerID,
		Action:     action,
		Comment:    comment,
		CreatedBy:  actor,
		CreatedAt:  time.Now(),
	}
}
