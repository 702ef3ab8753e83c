package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a catalog entry as served by the pharmacy API.
// GSTPercent and DiscountPercent are the default rates applied to new cart lines.
type Medicine struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	GenericName     string          `json:"generic_name,omitempty"`
	Manufacturer    string          `json:"manufacturer,omitempty"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Batch is a stocked lot of a medicine. It is read-only to the desk.
type Batch struct {
	ID         string          `json:"id"`
	MedicineID string          `json:"medicine_id,omitempty"`
	BatchNo    string          `json:"batch_no"`
	Quantity   int             `json:"quantity"`
	MRP        decimal.Decimal `json:"mrp"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
}

// InStock reports whether the batch has any available quantity
func (b Batch) InStock() bool {
	return b.Quantity > 0
}

// StockLevel is one row of the inventory stock summary
type StockLevel struct {
	MedicineID string `json:"medicine_id"`
	TotalQty   int    `json:"total_qty"`
}

// MedicineStats summarizes batches and expiry for one medicine
type MedicineStats struct {
	MedicineID        string `json:"medicine_id"`
	TotalBatches      int    `json:"total_batches"`
	ExpiringSoonCount int    `json:"expiring_soon_count"`
	TotalInStock      int    `json:"total_in_stock"`
}

// CatalogEntry is a medicine joined with its stock figures for the billing browser
type CatalogEntry struct {
	Medicine
	InStock int            `json:"in_stock"`
	Stats   *MedicineStats `json:"stats,omitempty"`
}
