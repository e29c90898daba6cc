package customer

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() *Customer {
	c := NewCustomer(uuid.New(), "cust-001", CustomerTypePerson, "tester")
	c.GivenName = "Jane"
	c.Surname = "Doe"
	c.ContactDetails = []ContactDetail{
		{Type: ContactTypeEmail, Group: ContactGroupPrivate, Value: "jane@example.org"},
	}
	return c
}

func fieldsOf(violations []Violation) []string {
	fields := make([]string, len(violations))
	for i, v := range violations {
		fields[i] = v.Field
	}
	return fields
}

func TestValidateNew_ValidDraft(t *testing.T) {
	assert.Empty(t, ValidateNew(validDraft()))
}

func TestValidateDraft_Identifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantValid  bool
	}{
		{"simple", "cust-001", true},
		{"underscores", "my_customer_1", true},
		{"max length", strings.Repeat("a", 32), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 33), false},
		{"whitespace", "cust 001", false},
		{"slash", "cust/001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validDraft()
			c.Identifier = tt.identifier
			violations := ValidateDraft(c)
			if tt.wantValid {
				assert.Empty(t, violations)
			} else {
				assert.Contains(t, fieldsOf(violations), "identifier")
			}
		})
	}
}

func TestValidateDraft_Surname(t *testing.T) {
	c := validDraft()
	c.Surname = "  "
	assert.Contains(t, fieldsOf(ValidateDraft(c)), "surname")
}

func TestValidateDraft_Type(t *testing.T) {
	c := validDraft()
	c.Type = "ALIEN"
	assert.Contains(t, fieldsOf(ValidateDraft(c)), "type")
}

func TestValidateDraft_AddressStreet(t *testing.T) {
	c := validDraft()
	c.Address = &Address{City: "Springfield"}
	assert.Contains(t, fieldsOf(ValidateDraft(c)), "address.street")

	c.Address.Street = "1 Main St"
	assert.Empty(t, ValidateDraft(c))
}

func TestValidateDraft_ContactDetails(t *testing.T) {
	t.Run("empty value", func(t *testing.T) {
		c := validDraft()
		c.ContactDetails[0].Value = ""
		assert.Contains(t, fieldsOf(ValidateDraft(c)), "contact_details[0].value")
	})

	t.Run("unrecognized type", func(t *testing.T) {
		c := validDraft()
		c.ContactDetails[0].Type = "FAX"
		assert.Contains(t, fieldsOf(ValidateDraft(c)), "contact_details[0].type")
	})

	t.Run("unrecognized group", func(t *testing.T) {
		c := validDraft()
		c.ContactDetails[0].Group = "OTHER"
		assert.Contains(t, fieldsOf(ValidateDraft(c)), "contact_details[0].group")
	})

	t.Run("negative preference level", func(t *testing.T) {
		c := validDraft()
		c.ContactDetails[0].PreferenceLevel = -1
		assert.Contains(t, fieldsOf(ValidateDraft(c)), "contact_details[0].preference_level")
	})

	t.Run("duplicate type and value pair", func(t *testing.T) {
		c := validDraft()
		c.ContactDetails = append(c.ContactDetails, ContactDetail{
			Type: ContactTypeEmail, Group: ContactGroupBusiness, Value: "jane@example.org",
		})
		assert.Contains(t, fieldsOf(ValidateDraft(c)), "contact_details[1]")
	})

	t.Run("same value under different type is allowed", func(t *testing.T) {
		c := validDraft()
		c.ContactDetails = append(c.ContactDetails, ContactDetail{
			Type: ContactTypePhone, Group: ContactGroupBusiness, Value: "jane@example.org",
		})
		assert.Empty(t, ValidateDraft(c))
	})
}

func TestValidateNew_RequiresContactDetail(t *testing.T) {
	c := validDraft()
	c.ContactDetails = nil

	assert.Contains(t, fieldsOf(ValidateNew(c)), "contact_details")
	// The creation-only rule does not apply to later updates.
	assert.Empty(t, ValidateDraft(c))
}

func TestValidateDraft_CollectsAllViolations(t *testing.T) {
	c := validDraft()
	c.Identifier = ""
	c.Surname = ""
	c.ContactDetails[0].Value = ""

	violations := ValidateDraft(c)
	require.Len(t, violations, 3)
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError([]Violation{
		{Field: "surname", Message: "surname must not be empty"},
		{Field: "identifier", Message: "identifier must not be empty"},
	})
	assert.Contains(t, err.Error(), "surname")
	assert.Contains(t, err.Error(), "identifier")
}
