package customer

import (
	"time"

	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerType distinguishes natural persons from businesses
type CustomerType string

const (
	CustomerTypePerson   CustomerType = "PERSON"
	CustomerTypeBusiness CustomerType = "BUSINESS"
)

// IsValid returns true for a recognized customer type
func (t CustomerType) IsValid() bool {
	return t == CustomerTypePerson || t == CustomerTypeBusiness
}

// Address is a single-slot value object replaced wholesale on update.
// No history is kept for it.
type Address struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	Region      string `json:"region,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Country     string `json:"country,omitempty"`
}

// IdentificationCard is a single-slot value object replaced wholesale on update
type IdentificationCard struct {
	Type           string     `json:"type"`
	Number         string     `json:"number"`
	Issuer         string     `json:"issuer,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// ContactType classifies a contact detail entry
type ContactType string

const (
	ContactTypeEmail  ContactType = "EMAIL"
	ContactTypePhone  ContactType = "PHONE"
	ContactTypeMobile ContactType = "MOBILE"
)

// IsValid returns true for a recognized contact type
func (t ContactType) IsValid() bool {
	switch t {
	case ContactTypeEmail, ContactTypePhone, ContactTypeMobile:
		return true
	default:
		return false
	}
}

// ContactGroup tags a contact detail as business or private
type ContactGroup string

const (
	ContactGroupBusiness ContactGroup = "BUSINESS"
	ContactGroupPrivate  ContactGroup = "PRIVATE"
)

// IsValid returns true for a recognized contact group
func (g ContactGroup) IsValid() bool {
	return g == ContactGroupBusiness || g == ContactGroupPrivate
}

// ContactDetail is one entry in the customer's ordered contact list.
// The (type, value) pair is unique within a customer.
type ContactDetail struct {
	Type            ContactType  `json:"type"`
	Group           ContactGroup `json:"group"`
	Value           string       `json:"value"`
	Validated       bool         `json:"validated"`
	PreferenceLevel int          `json:"preference_level"`
}

// Customer is the master identity record under lifecycle management.
// It is the aggregate root for the customer bounded context.
type Customer struct {
	shared.TenantAggregateRoot
	Identifier         string              `json:"identifier"`
	GivenName          string              `json:"given_name"`
	MiddleName         string              `json:"middle_name,omitempty"`
	Surname            string              `json:"surname"`
	DateOfBirth        *time.Time          `json:"date_of_birth,omitempty"`
	Type               CustomerType        `json:"type"`
	CurrentState       State               `json:"current_state"`
	Address            *Address            `json:"address,omitempty"`
	IdentificationCard *IdentificationCard `json:"identification_card,omitempty"`
	ContactDetails     []ContactDetail     `json:"contact_details"`
}

// NewCustomer creates a customer in the PENDING state. The identifier is
// externally assigned and immutable afterwards. Callers must validate the
// draft first; this constructor only wires the aggregate together.
func NewCustomer(tenantID uuid.UUID, identifier string, customerType CustomerType, actor string) *Customer {
	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, actor),
		Identifier:          identifier,
		Type:                customerType,
		CurrentState:        StatePending,
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c
}

// UpdateDetails replaces the identity fields of the customer. State and
// audit history are never touched here.
func (c *Customer) UpdateDetails(givenName, middleName, surname string, dateOfBirth *time.Time, customerType CustomerType, actor string) {
	c.GivenName = givenName
	c.MiddleName = middleName
	c.Surname = surname
	c.DateOfBirth = dateOfBirth
	c.Type = customerType
	c.Touch(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewCustomerUpdatedEvent(c))
}

// Apply runs the action through the transition table. On acceptance it moves
// the customer to the next state, records the actor, and returns the audit
// Command to be appended. On rejection nothing is mutated and an
// IllegalTransitionError is returned.
func (c *Customer) Apply(action Action, actor, comment string) (*Command, error) {
	next, err := Transition(c.CurrentState, action)
	if err != nil {
		return nil, err
	}

	from := c.CurrentState
	c.CurrentState = next
	c.Touch(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewCustomerTransitionedEvent(c, action, from, next))

	return NewCommand(c.TenantID, c.ID, action, actor, comment), nil
}

// ReplaceAddress replaces the address slot wholesale
func (c *Customer) ReplaceAddress(address Address, actor string) {
	c.Address = &address
	c.Touch(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewAddressUpdatedEvent(c))
}

// ReplaceContactDetails replaces the contact detail list wholesale
func (c *Customer) ReplaceContactDetails(details []ContactDetail, actor string) {
	c.ContactDetails = details
	c.Touch(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewContactDetailsUpdatedEvent(c))
}

// ReplaceIdentificationCard replaces the identification card slot wholesale
func (c *Customer) ReplaceIdentificationCard(card IdentificationCard, actor string) {
	c.IdentificationCard = &card
	c.Touch(actor)
	c.IncrementVersion()
	c.AddDomainEvent(NewIdentificationCardUpdatedEvent(c))
}

// IsActive returns true if the customer is in the ACTIVE state
func (c *Customer) IsActive() bool {
	return c.CurrentState == StateActive
}

// IsClosed returns true if the customer is in the CLOSED state
func (c *Customer) IsClosed() bool {
	return c.CurrentState == StateClosed
}
