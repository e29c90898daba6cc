package event

import (
	"github.com/fincore/customer/internal/domain/customer"
)

// RegisterAllEvents registers every domain event type with the serializer.
// The OutboxProcessor needs this to deserialize events from the outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(customer.EventTypeInitialized, &customer.InitializedEvent{})
	serializer.Register(customer.EventTypeCreated, &customer.CreatedEvent{})
	serializer.Register(customer.EventTypeUpdated, &customer.UpdatedEvent{})

	// One transition payload shape registered under each action-specific name.
	serializer.Register(customer.EventTypeActivated, &customer.TransitionedEvent{})
	serializer.Register(customer.EventTypeLocked, &customer.TransitionedEvent{})
	serializer.Register(customer.EventTypeUnlocked, &customer.TransitionedEvent{})
	serializer.Register(customer.EventTypeClosed, &customer.TransitionedEvent{})
	serializer.Register(customer.EventTypeReopened, &customer.TransitionedEvent{})

	serializer.Register(customer.EventTypeAddressUpdated, &customer.AddressUpdatedEvent{})
	serializer.Register(customer.EventTypeContactDetailsUpdated, &customer.ContactDetailsUpdatedEvent{})
	serializer.Register(customer.EventTypeIdentificationCardUpdated, &customer.IdentificationCardUpdatedEvent{})
}
