package repository

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// ReportRepository reads the dashboard reports computed by the pharmacy API
type ReportRepository interface {
	Sales(ctx context.Context, filter entity.SalesReportFilter) (*entity.SalesReport, error)
	// ExpiringBatches returns one page of batches expiring within days, and the total
	ExpiringBatches(ctx context.Context, days, page, limit int) ([]entity.ExpiringBatch, int64, error)
	LowStock(ctx context.Context, page, limit int) ([]entity.LowStockItem, int64, error)
}
