package models

import (
	"time"

	"github.com/fincore/customer/internal/domain/customer"
)

// CustomerModel is the persistence model for the customer aggregate. The
// single-slot sub-resources and the contact list are stored as jsonb columns;
// they are replaced wholesale and never queried field by field.
// The (tenant_id, identifier) pair is unique, enforced by migration.
type CustomerModel struct {
	TenantAggregateModel
	Identifier         string                         `gorm:"type:varchar(32);not null;index"`
	GivenName          string                         `gorm:"type:varchar(255)"`
	MiddleName         string                         `gorm:"type:varchar(255)"`
	Surname            string                         `gorm:"type:varchar(255);not null"`
	DateOfBirth        *time.Time                     `gorm:"type:date"`
	Type               customer.CustomerType          `gorm:"type:varchar(20);not null"`
	CurrentState       customer.State                 `gorm:"type:varchar(20);not null;index"`
	Address            *customer.Address              `gorm:"type:jsonb;serializer:json"`
	IdentificationCard *customer.IdentificationCard   `gorm:"type:jsonb;serializer:json"`
	ContactDetails     []customer.ContactDetail       `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	c := &customer.Customer{
		Identifier:         m.Identifier,
		GivenName:          m.GivenName,
		MiddleName:         m.MiddleName,
		Surname:            m.Surname,
		DateOfBirth:        m.DateOfBirth,
		Type:               m.Type,
		CurrentState:       m.CurrentState,
		Address:            m.Address,
		IdentificationCard: m.IdentificationCard,
		ContactDetails:     m.ContactDetails,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Identifier = c.Identifier
	m.GivenName = c.GivenName
	m.MiddleName = c.MiddleName
	m.Surname = c.Surname
	m.DateOfBirth = c.DateOfBirth
	m.Type = c.Type
	m.CurrentState = c.CurrentState
	m.Address = c.Address
	m.IdentificationCard = c.IdentificationCard
	m.ContactDetails = c.ContactDetails
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
