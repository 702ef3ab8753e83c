package pharmacyapi

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const reportDateLayout = "2006-01-02"

type reportRepository struct {
	c *Client
}

// NewReportRepository reads dashboard reports through c
func NewReportRepository(c *Client) repository.ReportRepository {
	return &reportRepository{c: c}
}

func (r *reportRepository) Sales(ctx context.Context, filter entity.SalesReportFilter) (*entity.SalesReport, error) {
	params := url.Values{
		"from": {filter.From.Format(reportDateLayout)},
		"to":   {filter.To.Format(reportDateLayout)},
	}
	setPage(params, "dailyPage", filter.DailyPage)
	setPage(params, "customersPage", filter.CustomersPage)
	setPage(params, "productsPage", filter.ProductsPage)

	var dto salesReportDTO
	if err := r.c.get(ctx, "/reports/sales", params, &dto); err != nil {
		return nil, err
	}
	report := dto.toEntity()
	report.From, report.To = filter.From, filter.To
	return &report, nil
}

func (r *reportRepository) ExpiringBatches(ctx context.Context, days, page, limit int) ([]entity.ExpiringBatch, int64, error) {
	params := url.Values{"days": {strconv.Itoa(days)}}
	setPage(params, "page", page)
	setPage(params, "limit", limit)

	var env listEnvelope[expiringBatchDTO]
	if err := r.c.get(ctx, "/reports/expiring-batches", params, &env); err != nil {
		return nil, 0, err
	}
	out := make([]entity.ExpiringBatch, 0, len(env.Items))
	for _, b := range env.Items {
		out = append(out, b.toEntity())
	}
	return out, env.Total, nil
}

func (r *reportRepository) LowStock(ctx context.Context, page, limit int) ([]entity.LowStockItem, int64, error) {
	params := url.Values{}
	setPage(params, "page", page)
	setPage(params, "limit", limit)

	var env listEnvelope[lowStockDTO]
	if err := r.c.get(ctx, "/reports/low-stock", params, &env); err != nil {
		return nil, 0, err
	}
	out := make([]entity.LowStockItem, 0, len(env.Items))
	for _, it := range env.Items {
		id := it.ID
		if id == "" {
			id = it.MongoID
		}
		out = append(out, entity.LowStockItem{MedicineID: id, Name: it.Name, Qty: it.Qty, Threshold: it.Threshold})
	}
	return out, env.Total, nil
}

func setPage(params url.Values, key string, v int) {
	if v > 0 {
		params.Set(key, strconv.Itoa(v))
	}
}

// pageDTO is a report table nested in a larger report
type pageDTO[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
}

func convertPage[T, U any](p pageDTO[T], fn func(T) U) entity.ReportPage[U] {
	out := entity.ReportPage[U]{Items: make([]U, 0, len(p.Items)), Total: p.Total, Page: p.Page}
	for _, it := range p.Items {
		out.Items = append(out.Items, fn(it))
	}
	if out.Page == 0 {
		out.Page = 1
	}
	return out
}

type salesReportDTO struct {
	Summary struct {
		Orders        int             `json:"orders"`
		TotalSales    decimal.Decimal `json:"totalSales"`
		TotalProfit   decimal.Decimal `json:"totalProfit"`
		TotalDiscount decimal.Decimal `json:"totalDiscount"`
		TotalGst      decimal.Decimal `json:"totalGst"`
	} `json:"summary"`
	Daily        pageDTO[salesDayDTO]    `json:"daily"`
	TopCustomers pageDTO[topCustomerDTO] `json:"topCustomers"`
	TopProducts  pageDTO[topProductDTO]  `json:"topProducts"`
}

type salesDayDTO struct {
	Date     apiTime         `json:"date"`
	Orders   int             `json:"orders"`
	Sales    decimal.Decimal `json:"sales"`
	Discount decimal.Decimal `json:"discount"`
	Gst      decimal.Decimal `json:"gst"`
	Net      decimal.Decimal `json:"net"`
	Profit   decimal.Decimal `json:"profit"`
}

type topCustomerDTO struct {
	CustomerID string          `json:"customerId"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Orders     int             `json:"orders"`
	Total      decimal.Decimal `json:"total"`
}

type topProductDTO struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Sales decimal.Decimal `json:"sales"`
}

func (d salesReportDTO) toEntity() entity.SalesReport {
	return entity.SalesReport{
		Summary: entity.SalesSummary{
			Orders:        d.Summary.Orders,
			TotalSales:    d.Summary.TotalSales,
			TotalProfit:   d.Summary.TotalProfit,
			TotalDiscount: d.Summary.TotalDiscount,
			TotalGst:      d.Summary.TotalGst,
		},
		Daily: convertPage(d.Daily, func(s salesDayDTO) entity.SalesDay {
			return entity.SalesDay{
				Date:     s.Date.Time,
				Orders:   s.Orders,
				Sales:    s.Sales,
				Discount: s.Discount,
				Gst:      s.Gst,
				Net:      s.Net,
				Profit:   s.Profit,
			}
		}),
		TopCustomers: convertPage(d.TopCustomers, func(c topCustomerDTO) entity.TopCustomer {
			return entity.TopCustomer(c)
		}),
		TopProducts: convertPage(d.TopProducts, func(p topProductDTO) entity.TopProduct {
			return entity.TopProduct(p)
		}),
	}
}

// expiringBatchDTO tolerates both field spellings the API has used
type expiringBatchDTO struct {
	ID           string   `json:"_id"`
	MedicineID   ref      `json:"medicineId"`
	MedicineName string   `json:"medicineName"`
	Name         string   `json:"name"`
	BatchNo      string   `json:"batchNo"`
	Batch        string   `json:"batch"`
	ExpiryDate   *apiTime `json:"expiryDate"`
	Expiry       *apiTime `json:"expiry"`
	Quantity     *int     `json:"quantity"`
	Qty          int      `json:"qty"`
}

func (d expiringBatchDTO) toEntity() entity.ExpiringBatch {
	out := entity.ExpiringBatch{
		BatchID:      d.ID,
		MedicineID:   d.MedicineID.ID,
		MedicineName: d.MedicineName,
		BatchNo:      d.BatchNo,
		ExpiryDate:   d.ExpiryDate.ptr(),
		Quantity:     d.Qty,
	}
	if len(d.MedicineID.Raw) > 0 {
		var m struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(d.MedicineID.Raw, &m) == nil && m.Name != "" {
			out.MedicineName = m.Name
		}
	}
	if out.MedicineName == "" {
		out.MedicineName = d.Name
	}
	if out.BatchNo == "" {
		out.BatchNo = d.Batch
	}
	if out.ExpiryDate == nil {
		out.ExpiryDate = d.Expiry.ptr()
	}
	if d.Quantity != nil {
		out.Quantity = *d.Quantity
	}
	return out
}

type lowStockDTO struct {
	ID        string `json:"id"`
	MongoID   string `json:"_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	Threshold int    `json:"threshold"`
}
