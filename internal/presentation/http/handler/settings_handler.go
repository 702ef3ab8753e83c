package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/application/service"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
)

// SettingsHandler exposes the store profile printed on receipts
type SettingsHandler struct {
	receiptService *service.ReceiptService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(receiptService *service.ReceiptService) *SettingsHandler {
	return &SettingsHandler{receiptService: receiptService}
}

// GetStoreProfile returns the store settings, or the configured defaults
// when the pharmacy API has none
func (h *SettingsHandler) GetStoreProfile(c *gin.Context) {
	response.OK(c, "Settings retrieved successfully", h.receiptService.StoreProfile(c.Request.Context()))
}
