package request

import "github.com/sangkips/pharmadesk/pkg/pagination"

// ReceiptQuery selects the receipt print surface
type ReceiptQuery struct {
	AutoPrint bool `form:"autoprint"`
}

// BillListRequest filters the bill history
type BillListRequest struct {
	pagination.PaginationParams
	BillNumber string `form:"bill_number"`
	CustomerID string `form:"customer_id"`
}

// MedicineListRequest filters the medicine browser
type MedicineListRequest struct {
	pagination.PaginationParams
	Search string `form:"search"`
}

// CustomerSearchRequest is a one-off customer lookup
type CustomerSearchRequest struct {
	Q string `form:"q"`
}
