package customer

import (
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Externally observable event names. The payload carries the customer
// identifier so downstream systems can correlate without a second lookup.
const (
	EventTypeInitialized               = "customer.initialized"
	EventTypeCreated                   = "customer.created"
	EventTypeUpdated                   = "customer.updated"
	EventTypeActivated                 = "customer.activated"
	EventTypeLocked                    = "customer.locked"
	EventTypeUnlocked                  = "customer.unlocked"
	EventTypeClosed                    = "customer.closed"
	EventTypeReopened                  = "customer.reopened"
	EventTypeAddressUpdated            = "customer.address.updated"
	EventTypeContactDetailsUpdated     = "customer.contactDetails.updated"
	EventTypeIdentificationCardUpdated = "customer.identificationCard.updated"
)

// transitionEventTypes maps each accepted action to its event name
var transitionEventTypes = map[Action]string{
	ActionActivate: EventTypeActivated,
	ActionLock:     EventTypeLocked,
	ActionUnlock:   EventTypeUnlocked,
	ActionClose:    EventTypeClosed,
	ActionReopen:   EventTypeReopened,
}

// TransitionEventType returns the event name published for an accepted action
func TransitionEventType(action Action) string {
	return transitionEventTypes[action]
}

// InitializedEvent signals per-tenant readiness, emitted exactly once when a
// tenant's customer store has been bootstrapped.
type InitializedEvent struct {
	shared.BaseDomainEvent
}

// NewInitializedEvent creates a new InitializedEvent for a tenant
func NewInitializedEvent(tenantID uuid.UUID) *InitializedEvent {
	return &InitializedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInitialized, AggregateTypeCustomer, tenantID, tenantID),
	}
}

// CreatedEvent is published when a new customer is created
type CreatedEvent struct {
	shared.BaseDomainEvent
	Identifier string `json:"identifier"`
}

// NewCustomerCreatedEvent creates a new CreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		Identifier:      c.Identifier,
	}
}

// UpdatedEvent is published when a customer's identity fields are replaced
type UpdatedEvent struct {
	shared.BaseDomainEvent
	Identifier string `json:"identifier"`
}

// NewCustomerUpdatedEvent creates a new UpdatedEvent
func NewCustomerUpdatedEvent(c *Customer) *UpdatedEvent {
	return &UpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUpdated, AggregateTypeCustomer, c.ID, c.TenantID),
		Identifier:      c.Identifier,
	}
}

// TransitionedEvent is published for each accepted state transition. Its
// event type is action-specific (customer.activated, customer.locked, ...).
type TransitionedEvent struct {
	shared.BaseDomainEvent
	Identifier string `json:"identifier"`
	Action     Action `json:"action"`
	FromState  State  `json:"from_state"`
	ToState    State  `json:"to_state"`
}

// NewCustomerTransitionedEvent creates a new TransitionedEvent for an action
func NewCustomerTransitionedEvent(c *Customer, action Action, from, to State) *TransitionedEvent {
	return &TransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(TransitionEventType(action), AggregateTypeCustomer, c.ID, c.TenantID),
		Identifier:      c.Identifier,
		Action:          action,
		FromState:       from,
		ToState:         to,
	}
}

// AddressUpdatedEvent is published when the address slot is replaced
type AddressUpdatedEvent struct {
	shared.BaseDomainEvent
	Identifier string `json:"identifier"`
}

// NewAddressUpdatedEvent creates a new AddressUpdatedEvent
func NewAddressUpdatedEvent(c *Customer) *AddressUpdatedEvent {
	return &AddressUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAddressUpdated, AggregateTypeCustomer, c.ID, c.TenantID),
		Identifier:      c.Identifier,
	}
}

// ContactDetailsUpdatedEvent is published when the contact list is replaced
type ContactDetailsUpdatedEvent struct {
	shared.BaseDomainEvent
	Identifier string `json:"identifier"`
}

// NewContactDetailsUpdatedEvent creates a new ContactDetailsUpdatedEvent
func NewContactDetailsUpdatedEvent(c *Customer) *ContactDetailsUpdatedEvent {
	return &ContactDetailsUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactDetailsUpdated, AggregateTypeCustomer, c.ID, c.TenantID),
		Identifier:      c.Identifier,
	}
}

// IdentificationCardUpdatedEvent is published when the card slot is replaced
type IdentificationCardUpdatedEvent struct {
	shared.BaseDomainEvent
	Identifier string `json:"identifier"`
}

// NewIdentificationCardUpdatedEvent creates a new IdentificationCardUpdatedEvent
func NewIdentificationCardUpdatedEvent(c *Customer) *IdentificationCardUpdatedEvent {
	return &IdentificationCardUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIdentificationCardUpdated, AggregateTypeCustomer, c.ID, c.TenantID),
		Identifier:      c.Identifier,
	}
}
