package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillItem is a persisted bill line with the server-computed LineAmount
type BillItem struct {
	MedicineID  string          `json:"medicine_id,omitempty"`
	BatchID     string          `json:"batch_id,omitempty"`
	ProductName string          `json:"product_name"`
	BatchNo     string          `json:"batch_no,omitempty"`
	MRP         decimal.Decimal `json:"mrp"`
	Quantity    int             `json:"quantity"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	GSTPct      decimal.Decimal `json:"gst_pct"`
	LineAmount  decimal.Decimal `json:"line_amount"`
}

// BillTotals are the aggregate figures computed by the server for a persisted bill.
// They are never re-derived on the desk.
type BillTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalGst      decimal.Decimal `json:"total_gst"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// Bill is the authoritative record of a completed sale
type Bill struct {
	ID          string     `json:"id"`
	BillNumber  string     `json:"bill_number"`
	CustomerID  string     `json:"customer_id,omitempty"`
	Customer    *Customer  `json:"customer,omitempty"`
	Items       []BillItem `json:"items"`
	Totals      BillTotals `json:"totals"`
	Notes       string     `json:"notes,omitempty"`
	BillingDate *time.Time `json:"billing_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IssuedAt returns the billing date when present, else the creation time
func (b *Bill) IssuedAt() time.Time {
	if b.BillingDate != nil && !b.BillingDate.IsZero() {
		return *b.BillingDate
	}
	return b.CreatedAt
}

// DisplayNumber returns the bill number, falling back to the API identifier
func (b *Bill) DisplayNumber() string {
	if b.BillNumber != "" {
		return b.BillNumber
	}
	return b.ID
}

// BillItemInput is the wire shape of one line in a create-bill request
type BillItemInput struct {
	MedicineID  string          `json:"medicine_id"`
	BatchID     string          `json:"batch_id"`
	ProductName string          `json:"product_name"`
	BatchNo     string          `json:"batch_no"`
	MRP         decimal.Decimal `json:"mrp"`
	Quantity    int             `json:"quantity"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	GSTPct      decimal.Decimal `json:"gst_pct"`
}

// CreateBillInput is the body of a create-bill request
type CreateBillInput struct {
	CustomerID string          `json:"customer_id,omitempty"`
	Items      []BillItemInput `json:"items"`
	Notes      string          `json:"notes"`
	// RequestKey is forwarded as the Idempotency-Key header of the create call.
	RequestKey string `json:"-"`
}

// BillFilter narrows a bill listing
type BillFilter struct {
	Page       int
	Limit      int
	BillNumber string
	CustomerID string
}
