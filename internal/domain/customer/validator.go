package customer

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern is the opaque external-id format: 1 to 32 characters of
// letters, digits, underscores, and hyphens.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// Violation is one field-level validation failure
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full set of violations found in a draft.
// The service rejects fully on any violation; there are no partial writes.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fmt.Sprintf("validation failed for fields: %s", strings.Join(fields, ", "))
}

// NewValidationError wraps violations into an error
func NewValidationError(violations []Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// ValidateDraft checks a customer draft against the structural and business
// rules. It is side-effect-free and returns every violation found, not just
// the first.
func ValidateDraft(c *Customer) []Violation {
	var violations []Violation

	if c.Identifier == "" {
		violations = append(violations, Violation{Field: "identifier", Message: "identifier must not be empty"})
	} else if !identifierPattern.MatchString(c.Identifier) {
		violations = append(violations, Violation{Field: "identifier", Message: "identifier must be 1-32 characters of letters, digits, underscores, or hyphens"})
	}

	if strings.TrimSpace(c.Surname) == "" {
		violations = append(violations, Violation{Field: "surname", Message: "surname must not be empty"})
	}

	if !c.Type.IsValid() {
		violations = append(violations, Violation{Field: "type", Message: "type must be PERSON or BUSINESS"})
	}

	if c.Address != nil && strings.TrimSpace(c.Address.Street) == "" {
		violations = append(violations, Violation{Field: "address.street", Message: "street must not be empty"})
	}

	violations = append(violations, validateContactDetails(c.ContactDetails)...)

	return violations
}

// ValidateNew applies the draft rules plus the creation-only rule that at
// least one contact detail must be present.
func ValidateNew(c *Customer) []Violation {
	violations := ValidateDraft(c)
	if len(c.ContactDetails) == 0 {
		violations = append(violations, Violation{Field: "contact_details", Message: "at least one contact detail is required"})
	}
	return violations
}

// validateContactDetails checks each entry and the uniqueness of the
// (type, value) pairs across the list.
func validateContactDetails(details []ContactDetail) []Violation {
	var violations []Violation

	type pair struct {
		t ContactType
		v string
	}
	seen := make(map[pair]bool, len(details))

	for i, d := range details {
		field := fmt.Sprintf("contact_details[%d]", i)

		if strings.TrimSpace(d.Value) == "" {
			violations = append(violations, Violation{Field: field + ".value", Message: "value must not be empty"})
		}
		if !d.Type.IsValid() {
			violations = append(violations, Violation{Field: field + ".type", Message: "type must be EMAIL, PHONE, or MOBILE"})
		}
		if !d.Group.IsValid() {
			violations = append(violations, Violation{Field: field + ".group", Message: "group must be BUSINESS or PRIVATE"})
		}
		if d.PreferenceLevel < 0 {
			violations = append(violations, Violation{Field: field + ".preference_level", Message: "preference level must not be negative"})
		}

		key := pair{d.Type, d.Value}
		if seen[key] {
			violations = append(violations, Violation{Field: field, Message: "duplicate (type, value) pair"})
		}
		seen[key] = true
	}

	return violations
}
