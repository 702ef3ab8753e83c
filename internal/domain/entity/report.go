package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary totals the bills of a sales report period
type SalesSummary struct {
	Orders        int             `json:"orders"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalGst      decimal.Decimal `json:"total_gst"`
}

// SalesDay is one day of the sales report
type SalesDay struct {
	Date     time.Time       `json:"date"`
	Orders   int             `json:"orders"`
	Sales    decimal.Decimal `json:"sales"`
	Discount decimal.Decimal `json:"discount"`
	Gst      decimal.Decimal `json:"gst"`
	Net      decimal.Decimal `json:"net"`
	Profit   decimal.Decimal `json:"profit"`
}

// TopCustomer ranks a customer by billed amount
type TopCustomer struct {
	CustomerID string          `json:"customer_id"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone,omitempty"`
	Orders     int             `json:"orders"`
	Total      decimal.Decimal `json:"total"`
}

// TopProduct ranks a product by quantity sold
type TopProduct struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Sales decimal.Decimal `json:"sales"`
}

// ReportPage is one page of a report table as paged by the pharmacy API
type ReportPage[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
}

// SalesReport covers the bills between From and To, both inclusive
type SalesReport struct {
	From         time.Time               `json:"from"`
	To           time.Time               `json:"to"`
	Summary      SalesSummary            `json:"summary"`
	Daily        ReportPage[SalesDay]    `json:"daily"`
	TopCustomers ReportPage[TopCustomer] `json:"top_customers"`
	TopProducts  ReportPage[TopProduct]  `json:"top_products"`
}

// SalesReportFilter selects the period and the page of each sales table
type SalesReportFilter struct {
	From          time.Time
	To            time.Time
	DailyPage     int
	CustomersPage int
	ProductsPage  int
}

// ExpiringBatch is a stocked batch that expires within the report window
type ExpiringBatch struct {
	BatchID      string     `json:"batch_id"`
	MedicineID   string     `json:"medicine_id"`
	MedicineName string     `json:"medicine_name"`
	BatchNo      string     `json:"batch_no"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	Quantity     int        `json:"quantity"`
}

// LowStockItem is a medicine at or below its reorder threshold
type LowStockItem struct {
	MedicineID string `json:"medicine_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	Threshold  int    `json:"threshold"`
}
