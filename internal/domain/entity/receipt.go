package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptCustomer is the customer block of a receipt
type ReceiptCustomer struct {
	Name  string `json:"name"`
	Code  string `json:"code,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
// Amount is copied from the bill's server-computed LineAmount.
type ReceiptItem struct {
	Index       int             `json:"index"`
	Name        string          `json:"name"`
	BatchNo     string          `json:"batch_no,omitempty"`
	MRP         decimal.Decimal `json:"mrp"`
	Quantity    int             `json:"quantity"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	GSTPct      decimal.Decimal `json:"gst_pct"`
	Amount      decimal.Decimal `json:"amount"`
}

// Receipt is a value object representing a printable receipt.
// It is composed from a persisted bill at render time and never stored.
type Receipt struct {
	Header     StoreProfile    `json:"header"`
	BillID     string          `json:"bill_id"`
	BillNumber string          `json:"bill_number"`
	Date       time.Time       `json:"date"`
	Customer   ReceiptCustomer `json:"customer"`
	Items      []ReceiptItem   `json:"items"`
	Totals     BillTotals      `json:"totals"`
	Footer     string          `json:"footer"`
}
