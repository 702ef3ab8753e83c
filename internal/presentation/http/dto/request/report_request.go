package request

import "github.com/sangkips/pharmadesk/pkg/pagination"

// SalesReportRequest selects the sales period as YYYY-MM-DD dates
type SalesReportRequest struct {
	From          string `form:"from"`
	To            string `form:"to"`
	DailyPage     int    `form:"daily_page" binding:"omitempty,min=1"`
	CustomersPage int    `form:"customers_page" binding:"omitempty,min=1"`
	ProductsPage  int    `form:"products_page" binding:"omitempty,min=1"`
}

// ExpiringBatchesRequest pages the batches expiring within Days
type ExpiringBatchesRequest struct {
	pagination.PaginationParams
	Days int `form:"days"`
}
