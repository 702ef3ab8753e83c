package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/application/service"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/request"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
)

// BillHandler handles bill history and receipts
type BillHandler struct {
	billService    *service.BillService
	receiptService *service.ReceiptService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billService *service.BillService, receiptService *service.ReceiptService) *BillHandler {
	return &BillHandler{billService: billService, receiptService: receiptService}
}

// List handles listing bills
func (h *BillHandler) List(c *gin.Context) {
	var req request.BillListRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.billService.List(c.Request.Context(), &req.PaginationParams, service.BillListInput{
		BillNumber: req.BillNumber,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Bills retrieved successfully", result)
}

// Get handles fetching a bill
func (h *BillHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "Bill ID")
	if !ok {
		return
	}
	bill, err := h.billService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bill retrieved successfully", bill)
}

// Delete handles deleting a bill
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "Bill ID")
	if !ok {
		return
	}
	if err := h.billService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bill deleted successfully", nil)
}

// Receipt serves the printable HTML receipt
func (h *BillHandler) Receipt(c *gin.Context) {
	id, ok := pathID(c, "id", "Bill ID")
	if !ok {
		return
	}
	var q request.ReceiptQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.receiptService.HTML(c.Request.Context(), id, q.AutoPrint)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ReceiptPDF downloads the receipt as PDF
func (h *BillHandler) ReceiptPDF(c *gin.Context) {
	id, ok := pathID(c, "id", "Bill ID")
	if !ok {
		return
	}
	doc, name, err := h.receiptService.PDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "application/pdf", name, doc)
}

// Print sends the receipt to the thermal printer
func (h *BillHandler) Print(c *gin.Context) {
	id, ok := pathID(c, "id", "Bill ID")
	if !ok {
		return
	}
	res, err := h.receiptService.Print(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !res.Printed {
		// the receipt is returned anyway so the browser can print it
		response.OK(c, "Receipt not sent to a printer", res)
		return
	}
	response.OK(c, "Receipt sent to printer", res)
}

// Email mails the receipt to the customer
func (h *BillHandler) Email(c *gin.Context) {
	id, ok := pathID(c, "id", "Bill ID")
	if !ok {
		return
	}
	if err := h.receiptService.Email(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Email sent successfully", nil)
}
