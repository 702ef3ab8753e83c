package entity

import "strings"

// Customer is a payee record owned by the pharmacy API.
// CustomerID is the human-facing display code, ID the API identifier.
type Customer struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// HasPhone reports whether a phone number is on file
func (c Customer) HasPhone() bool {
	return strings.TrimSpace(c.Phone) != ""
}

// Label returns "Name (CODE)" when a display code exists
func (c Customer) Label() string {
	if c.CustomerID == "" {
		return c.Name
	}
	return c.Name + " (" + c.CustomerID + ")"
}

// Matches reports whether q is a case-insensitive substring of the name, phone or display code
func (c Customer) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Phone, c.CustomerID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// CreateCustomerInput is the body of a create-customer request
type CreateCustomerInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone,omitempty" validate:"omitempty,phone"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
