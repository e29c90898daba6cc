package customer

import (
	"context"

	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository owns the current projected view of each customer. Writes go
// through optimistic version checks; two concurrent transitions on the same
// customer never silently overwrite one another.
type Repository interface {
	// FindByID finds a customer by its internal ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindByIdentifier finds a customer by its external identifier within a tenant
	FindByIdentifier(ctx context.Context, tenantID uuid.UUID, identifier string) (*Customer, error)

	// ExistsByIdentifier checks whether the identifier is already taken in the tenant
	ExistsByIdentifier(ctx context.Context, tenantID uuid.UUID, identifier string) (bool, error)

	// Create persists a new customer and saves its pending events to the
	// outbox in the same transaction. Returns ErrAlreadyExists when the
	// identifier is taken.
	Create(ctx context.Context, c *Customer, events []shared.DomainEvent) error

	// Save replaces the stored projection (identity fields and sub-resource
	// slots, never state) with optimistic locking and saves events to the
	// outbox atomically. Returns ErrConcurrencyConflict on a version mismatch.
	Save(ctx context.Context, c *Customer, events []shared.DomainEvent) error

	// UpdateState writes the customer's new state using the version read by
	// the caller. Returns ErrConcurrencyConflict when another transition won
	// the race. Events are saved to the outbox in the same transaction.
	UpdateState(ctx context.Context, c *Customer, expectedVersion int, events []shared.DomainEvent) error

	// Search lists customers filtered by an identifier term and an activity
	// flag. A nil onlyActive means no state filtering.
	Search(ctx context.Context, tenantID uuid.UUID, term string, onlyActive *bool, filter shared.Filter) (shared.Paginated[Customer], error)
}

// CommandRepository is the append-only audit ledger of accepted commands.
// Append is the only mutation; entries are never edited or removed.
type CommandRepository interface {
	// Append appends a command for its customer and returns the assigned
	// sequence position. Appends for the same customer are serialized so
	// positions are strictly monotonic with no observable ties.
	Append(ctx context.Context, cmd *Command) (int, error)

	// History returns the full command sequence for a customer, oldest first
	History(ctx context.Context, tenantID, customerID uuid.UUID) ([]Command, error)
}
