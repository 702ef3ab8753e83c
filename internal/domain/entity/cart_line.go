package entity

import "github.com/shopspring/decimal"

// CartLine is one medicine batch allocated into a billing cart.
type CartLine struct {
	MedicineID      string          `json:"medicine_id"`
	MedicineName    string          `json:"medicine_name"`
	BatchID         string          `json:"batch_id"`
	BatchNo         string          `json:"batch_no"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Key identifies the line within a cart
func (l CartLine) Key() string {
	return l.MedicineID + "/" + l.BatchID
}
