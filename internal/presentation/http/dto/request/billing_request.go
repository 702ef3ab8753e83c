package request

import (
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MedicineRequest is the medicine a batch allocation is made for, as shown
// in the medicine browser
type MedicineRequest struct {
	ID              string          `json:"id" binding:"required"`
	Name            string          `json:"name" binding:"required,max=255"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// ToEntity converts the request into a medicine
func (r MedicineRequest) ToEntity() entity.Medicine {
	return entity.Medicine{
		ID:              r.ID,
		Name:            r.Name,
		GSTPercent:      r.GSTPercent,
		DiscountPercent: r.DiscountPercent,
	}
}

// AllocateRequest sets the per-batch quantities of one medicine
type AllocateRequest struct {
	Medicine   MedicineRequest `json:"medicine" binding:"required"`
	Quantities map[string]int  `json:"quantities" binding:"required"`
}

// SelectCustomerRequest picks an existing customer as the payee
type SelectCustomerRequest struct {
	Customer struct {
		ID         string `json:"id" binding:"required"`
		CustomerID string `json:"customer_id"`
		Name       string `json:"name" binding:"required"`
		Phone      string `json:"phone"`
		Email      string `json:"email"`
	} `json:"customer" binding:"required"`
}

// ToEntity converts the request into a customer
func (r SelectCustomerRequest) ToEntity() entity.Customer {
	return entity.Customer{
		ID:         r.Customer.ID,
		CustomerID: r.Customer.CustomerID,
		Name:       r.Customer.Name,
		Phone:      r.Customer.Phone,
		Email:      r.Customer.Email,
	}
}

// CreateCustomerRequest registers a new customer
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required,max=120"`
	Phone string `json:"phone"`
	Email string `json:"email" binding:"omitempty,email"`
}

// ToInput converts the request into a create-customer input
func (r CreateCustomerRequest) ToInput() *entity.CreateCustomerInput {
	return &entity.CreateCustomerInput{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

// CustomerQueryRequest is one keystroke of the customer picker
type CustomerQueryRequest struct {
	Q string `json:"q" binding:"max=100"`
}

// NotifyRequest turns the customer notification on or off
type NotifyRequest struct {
	Enabled *bool  `json:"enabled" binding:"required"`
	Phone   string `json:"phone"`
}

// SubmitBillRequest confirms the bill
type SubmitBillRequest struct {
	Print bool   `json:"print"`
	Email bool   `json:"email"`
	Notes string `json:"notes" binding:"max=500"`
}
