package repository

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// MedicineQuery filters the medicine listing
type MedicineQuery struct {
	Search string
	Page   int
	Limit  int
}

// CatalogRepository reads medicines and inventory from the pharmacy API
type CatalogRepository interface {
	// ListMedicines returns one page and the total reported upstream
	ListMedicines(ctx context.Context, q MedicineQuery) ([]entity.Medicine, int64, error)
	// ListBatches returns every batch of a medicine, including empty ones
	ListBatches(ctx context.Context, medicineID string) ([]entity.Batch, error)
	StockSummary(ctx context.Context) ([]entity.StockLevel, error)
	MedicineStats(ctx context.Context, expDays int) ([]entity.MedicineStats, error)
}
