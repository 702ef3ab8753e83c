package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/pagination"
	"github.com/sangkips/pharmadesk/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	stockSheet = "Stock"
	// maxReportPages bounds the medicine walk of a stock report
	maxReportPages = 200

	reportDateLayout = "2006-01-02"
	// DefaultSalesDays is the sales period when no range is given
	DefaultSalesDays = 30
	maxSalesDays     = 366
	maxExpiryDays    = 365
)

// ReportService builds stock reports from the catalog and reads the
// sales and inventory reports of the pharmacy API
type ReportService struct {
	catalog  *CatalogService
	receipts *ReceiptService
	reports  repository.ReportRepository
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewReportService creates a new report service
func NewReportService(catalog *CatalogService, receipts *ReceiptService, reports repository.ReportRepository, logger logrus.FieldLogger) *ReportService {
	return &ReportService{
		catalog:  catalog,
		receipts: receipts,
		reports:  reports,
		logger:   logger.WithField("module", "reports"),
		now:      time.Now,
	}
}

// SalesReportInput is the requested period as YYYY-MM-DD dates and the page
// of each sales table. Empty dates default to the last DefaultSalesDays days.
type SalesReportInput struct {
	From          string
	To            string
	DailyPage     int
	CustomersPage int
	ProductsPage  int
}

// SalesReport returns sales totals, daily figures and the top customers and
// products for a period
func (s *ReportService) SalesReport(ctx context.Context, in SalesReportInput) (*entity.SalesReport, error) {
	today := s.now()
	to, err := parseReportDate("to", in.To, time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	from, err := parseReportDate("from", in.From, to.AddDate(0, 0, -DefaultSalesDays))
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, apperror.NewValidationError("Start date must not be after end date",
			apperror.FieldError{Field: "from", Message: "must be on or before to"})
	}
	if to.Sub(from) > maxSalesDays*24*time.Hour {
		return nil, apperror.NewValidationError(fmt.Sprintf("Sales reports cover at most %d days", maxSalesDays),
			apperror.FieldError{Field: "from", Message: "range too long"})
	}

	report, err := s.reports.Sales(ctx, entity.SalesReportFilter{
		From:          from,
		To:            to,
		DailyPage:     in.DailyPage,
		CustomersPage: in.CustomersPage,
		ProductsPage:  in.ProductsPage,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"from":   from.Format(reportDateLayout),
		"to":     to.Format(reportDateLayout),
		"orders": report.Summary.Orders,
	}).Info("sales report read")
	return report, nil
}

// ExpiringBatches lists stocked batches that expire within days. Zero days
// means ExpiringSoonDays.
func (s *ReportService) ExpiringBatches(ctx context.Context, days int, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.ExpiringBatch], error) {
	if days == 0 {
		days = ExpiringSoonDays
	}
	if days < 0 || days > maxExpiryDays {
		return nil, apperror.NewValidationError(fmt.Sprintf("Days must be between 1 and %d", maxExpiryDays),
			apperror.FieldError{Field: "days", Message: "out of range"})
	}
	params.Validate()

	items, total, err := s.reports.ExpiringBatches(ctx, days, params.Page, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(items, pagination.NewPagination(params.Page, params.Limit, total)), nil
}

// LowStock lists medicines at or below their reorder threshold
func (s *ReportService) LowStock(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.LowStockItem], error) {
	params.Validate()

	items, total, err := s.reports.LowStock(ctx, params.Page, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(items, pagination.NewPagination(params.Page, params.Limit, total)), nil
}

func parseReportDate(field, raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(reportDateLayout, raw)
	if err != nil {
		return time.Time{}, apperror.NewValidationError("Dates must be in YYYY-MM-DD format",
			apperror.FieldError{Field: field, Message: "invalid date"})
	}
	return t, nil
}

// StockReport is every medicine with its stock and expiry figures
type StockReport struct {
	GeneratedAt  time.Time             `json:"generated_at"`
	Store        string                `json:"store"`
	Rows         []entity.CatalogEntry `json:"rows"`
	TotalInStock int                   `json:"total_in_stock"`
	OutOfStock   int                   `json:"out_of_stock"`
	ExpiringSoon int                   `json:"expiring_soon"`
}

// Stock walks every page of the catalog and joins the stock figures
func (s *ReportService) Stock(ctx context.Context) (*StockReport, error) {
	var medicines []entity.Medicine
	params := &pagination.PaginationParams{Page: 1, Limit: pagination.MaxLimit}
	for ; params.Page <= maxReportPages; params.Page++ {
		page, total, err := s.catalog.catalogRepo.ListMedicines(ctx, repository.MedicineQuery{Page: params.Page, Limit: params.Limit})
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, page...)
		if len(page) == 0 || int64(len(medicines)) >= total {
			break
		}
	}

	stock, stats := s.catalog.stockFigures(ctx)
	report := &StockReport{
		GeneratedAt: s.now(),
		Store:       s.receipts.StoreProfile(ctx).Name,
		Rows:        joinStock(medicines, stock, stats),
	}
	for _, r := range report.Rows {
		report.TotalInStock += r.InStock
		if r.InStock <= 0 {
			report.OutOfStock++
		}
		if r.Stats != nil {
			report.ExpiringSoon += r.Stats.ExpiringSoonCount
		}
	}

	s.logger.WithField("medicines", len(report.Rows)).Info("stock report built")
	return report, nil
}

// StockXLSX renders the stock report as a spreadsheet and suggests a file name
func (s *ReportService) StockXLSX(ctx context.Context) ([]byte, string, error) {
	report, err := s.Stock(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return nil, "", err
	}

	headings := []string{"Medicine", "Generic Name", "Manufacturer", "GST %", "Discount %", "In Stock", "Batches", fmt.Sprintf("Expiring in %d days", ExpiringSoonDays)}
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(stockSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headings), 1)
		f.SetCellStyle(stockSheet, "A1", last, style)
	}

	for i, r := range report.Rows {
		row := i + 2
		batches, expiring := 0, 0
		if r.Stats != nil {
			batches, expiring = r.Stats.TotalBatches, r.Stats.ExpiringSoonCount
		}
		values := []interface{}{
			r.Name,
			r.GenericName,
			r.Manufacturer,
			r.GSTPercent.InexactFloat64(),
			r.DiscountPercent.InexactFloat64(),
			r.InStock,
			batches,
			expiring,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(stockSheet, cell, v)
		}
	}
	f.SetColWidth(stockSheet, "A", "C", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write stock report: %w", err)
	}

	name := fmt.Sprintf("%s-stock-%s.xlsx", utils.Slugify(report.Store), report.GeneratedAt.Format("2006-01-02"))
	return buf.Bytes(), name, nil
}
