package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/application/service"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/request"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
	"github.com/sangkips/pharmadesk/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves stock, sales and inventory reports
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Stock returns the stock report as JSON
func (h *ReportHandler) Stock(c *gin.Context) {
	report, err := h.reportService.Stock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock report generated", report)
}

// StockXLSX downloads the stock report as a spreadsheet
func (h *ReportHandler) StockXLSX(c *gin.Context) {
	data, name, err := h.reportService.StockXLSX(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, xlsxContentType, name, data)
}

// Sales returns the sales report for a period
func (h *ReportHandler) Sales(c *gin.Context) {
	var req request.SalesReportRequest
	if !bindQuery(c, &req) {
		return
	}
	report, err := h.reportService.SalesReport(c.Request.Context(), service.SalesReportInput{
		From:          req.From,
		To:            req.To,
		DailyPage:     req.DailyPage,
		CustomersPage: req.CustomersPage,
		ProductsPage:  req.ProductsPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sales report retrieved successfully", report)
}

// ExpiringBatches lists batches close to expiry
func (h *ReportHandler) ExpiringBatches(c *gin.Context) {
	var req request.ExpiringBatchesRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.reportService.ExpiringBatches(c.Request.Context(), req.Days, &req.PaginationParams)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Expiring batches retrieved successfully", result)
}

// LowStock lists medicines that need reordering
func (h *ReportHandler) LowStock(c *gin.Context) {
	var req pagination.PaginationParams
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.reportService.LowStock(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Low stock items retrieved successfully", result)
}
