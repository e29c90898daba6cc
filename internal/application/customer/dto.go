package customer

import (
	"time"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
)

// CreateCustomerRequest is the input for creating a customer
type CreateCustomerRequest struct {
	Identifier         string                      `json:"identifier"`
	GivenName          string                      `json:"given_name"`
	MiddleName         string                      `json:"middle_name,omitempty"`
	Surname            string                      `json:"surname"`
	DateOfBirth        *time.Time                  `json:"date_of_birth,omitempty"`
	Type               string                      `json:"type"`
	Address            *AddressRequest             `json:"address,omitempty"`
	IdentificationCard *IdentificationCardRequest  `json:"identification_card,omitempty"`
	ContactDetails     []ContactDetailRequest      `json:"contact_details"`
}

// UpdateCustomerRequest is the input for replacing a customer's identity fields
type UpdateCustomerRequest struct {
	GivenName   string     `json:"given_name"`
	MiddleName  string     `json:"middle_name,omitempty"`
	Surname     string     `json:"surname"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Type        string     `json:"type"`
}

// AddressRequest is the wholesale replacement payload for the address slot
type AddressRequest struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	Region      string `json:"region,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Country     string `json:"country,omitempty"`
}

// ToDomain converts the request to the domain value object
func (r AddressRequest) ToDomain() customer.Address {
	return customer.Address{
		Street:      r.Street,
		City:        r.City,
		Region:      r.Region,
		PostalCode:  r.PostalCode,
		CountryCode: r.CountryCode,
		Country:     r.Country,
	}
}

// IdentificationCardRequest is the wholesale replacement payload for the card slot
type IdentificationCardRequest struct {
	Type           string     `json:"type"`
	Number         string     `json:"number"`
	Issuer         string     `json:"issuer,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// ToDomain converts the request to the domain value object
func (r IdentificationCardRequest) ToDomain() customer.IdentificationCard {
	return customer.IdentificationCard{
		Type:           r.Type,
		Number:         r.Number,
		Issuer:         r.Issuer,
		ExpirationDate: r.ExpirationDate,
	}
}

// ContactDetailRequest is one entry of the contact list replacement payload
type ContactDetailRequest struct {
	Type            string `json:"type"`
	Group           string `json:"group"`
	Value           string `json:"value"`
	Validated       bool   `json:"validated"`
	PreferenceLevel int    `json:"preference_level"`
}

// ToDomain converts the request to the domain value object
func (r ContactDetailRequest) ToDomain() customer.ContactDetail {
	return customer.ContactDetail{
		Type:            customer.ContactType(r.Type),
		Group:           customer.ContactGroup(r.Group),
		Value:           r.Value,
		Validated:       r.Validated,
		PreferenceLevel: r.PreferenceLevel,
	}
}

// ContactDetailsToDomain converts a replacement payload to domain values
func ContactDetailsToDomain(reqs []ContactDetailRequest) []customer.ContactDetail {
	details := make([]customer.ContactDetail, len(reqs))
	for i, r := range reqs {
		details[i] = r.ToDomain()
	}
	return details
}

// CommandRequest is the input for applying a state-changing command
type CommandRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

// ListFilter holds the listing parameters: an identifier term and an
// optional activity flag.
type ListFilter struct {
	Term       string
	OnlyActive *bool
	Page       int
	PageSize   int
}

// CustomerResponse is the outward view of a customer projection
type CustomerResponse struct {
	ID                 string                       `json:"id"`
	Identifier         string                       `json:"identifier"`
	GivenName          string                       `json:"given_name"`
	MiddleName         string                       `json:"middle_name,omitempty"`
	Surname            string                       `json:"surname"`
	DateOfBirth        *time.Time                   `json:"date_of_birth,omitempty"`
	Type               string                       `json:"type"`
	CurrentState       string                       `json:"current_state"`
	Address            *customer.Address            `json:"address,omitempty"`
	IdentificationCard *customer.IdentificationCard `json:"identification_card,omitempty"`
	ContactDetails     []customer.ContactDetail     `json:"contact_details"`
	Version            int                          `json:"version"`
	CreatedBy          string                       `json:"created_by"`
	CreatedAt          time.Time                    `json:"created_at"`
	LastModifiedBy     string                       `json:"last_modified_by"`
	LastModifiedAt     time.Time                    `json:"last_modified_at"`
}

// ToCustomerResponse converts a domain customer to its response form
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                 c.ID.String(),
		Identifier:         c.Identifier,
		GivenName:          c.GivenName,
		MiddleName:         c.MiddleName,
		Surname:            c.Surname,
		DateOfBirth:        c.DateOfBirth,
		Type:               string(c.Type),
		CurrentState:       string(c.CurrentState),
		Address:            c.Address,
		IdentificationCard: c.IdentificationCard,
		ContactDetails:     c.ContactDetails,
		Version:            c.Version,
		CreatedBy:          c.CreatedBy,
		CreatedAt:          c.CreatedAt,
		LastModifiedBy:     c.LastModifiedBy,
		LastModifiedAt:     c.UpdatedAt,
	}
}

// ToCustomerPage converts a paginated domain result to responses
func ToCustomerPage(page shared.Paginated[customer.Customer]) shared.Paginated[CustomerResponse] {
	items := make([]CustomerResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToCustomerResponse(&page.Items[i])
	}
	return shared.Paginated[CustomerResponse]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

// CommandResponse is the outward view of one audit record
type CommandResponse struct {
	Position  int       `json:"position"`
	Action    string    `json:"action"`
	Comment   string    `json:"comment,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ToCommandResponses converts an audit history to its response form
func ToCommandResponses(commands []customer.Command) []CommandResponse {
	responses := make([]CommandResponse, len(commands))
	for i, cmd := range commands {
		responses[i] = CommandResponse{
			Position:  cmd.Position,
			Action:    string(cmd.Action),
			Comment:   cmd.Comment,
			CreatedBy: cmd.CreatedBy,
			CreatedAt: cmd.CreatedAt,
		}
	}
	return responses
}
