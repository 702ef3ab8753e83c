package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/application/service"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/request"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
	"github.com/sangkips/pharmadesk/internal/presentation/http/middleware"
)

// BillingHandler handles billing session requests
type BillingHandler struct {
	billingService *service.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// Open starts a billing session
func (h *BillingHandler) Open(c *gin.Context) {
	response.Created(c, "Billing session opened", h.billingService.Open())
}

// Get returns a billing session
func (h *BillingHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.billingService.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Billing session retrieved", view)
}

// Close discards a billing session
func (h *BillingHandler) Close(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.billingService.Close(id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Billing session closed", nil)
}

// OpenAllocation lists the batches a medicine can be allocated from
func (h *BillingHandler) OpenAllocation(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	medicineID, ok := pathID(c, "medicineId", "Medicine ID")
	if !ok {
		return
	}
	alloc, err := h.billingService.OpenAllocation(c.Request.Context(), id, medicineID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Batches retrieved", alloc)
}

// Allocate sets the cart lines of one medicine
func (h *BillingHandler) Allocate(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	medicineID, ok := pathID(c, "medicineId", "Medicine ID")
	if !ok {
		return
	}
	var req request.AllocateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Medicine.ID != medicineID {
		response.BadRequest(c, "Medicine does not match the route")
		return
	}

	view, err := h.billingService.Allocate(c.Request.Context(), id, req.Medicine.ToEntity(), req.Quantities)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart updated", view)
}

// RemoveLine drops one cart line
func (h *BillingHandler) RemoveLine(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "Invalid line index")
		return
	}
	view, err := h.billingService.RemoveLine(id, index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line removed", view)
}

// ClearCart empties the cart
func (h *BillingHandler) ClearCart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.billingService.ClearCart(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart cleared", view)
}

// SelectCustomer picks the payee
func (h *BillingHandler) SelectCustomer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req request.SelectCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.billingService.SelectCustomer(id, req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer selected", view)
}

// ClearCustomer returns to the walk-in default
func (h *BillingHandler) ClearCustomer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.billingService.ClearCustomer(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer cleared", view)
}

// CreateCustomer registers a customer and selects it
func (h *BillingHandler) CreateCustomer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req request.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.billingService.CreateAndSelectCustomer(c.Request.Context(), id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Customer created", view)
}

// QueryCustomers schedules a debounced customer lookup
func (h *BillingHandler) QueryCustomers(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req request.CustomerQueryRequest
	if !bindJSON(c, &req) {
		return
	}
	seq, err := h.billingService.QueryCustomers(id, req.Q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Search scheduled", gin.H{"seq": seq})
}

// CustomerMatches returns the latest customer lookup
func (h *BillingHandler) CustomerMatches(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	res, err := h.billingService.CustomerMatches(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer matches retrieved", res)
}

// SetNotification turns the customer notification on or off
func (h *BillingHandler) SetNotification(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req request.NotifyRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.billingService.SetNotification(id, *req.Enabled, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Notification updated", view)
}

// Preview returns the confirmation draft
func (h *BillingHandler) Preview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	draft, err := h.billingService.Preview(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bill preview", draft)
}

// Submit creates the bill
func (h *BillingHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req request.SubmitBillRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.billingService.Submit(c.Request.Context(), id, service.SubmitOptions{
		Print:      req.Print,
		Email:      req.Email,
		Notes:      req.Notes,
		RequestKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Bill created successfully", result)
}
