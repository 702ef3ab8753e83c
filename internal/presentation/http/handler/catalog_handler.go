package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/application/service"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/request"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
)

// CatalogHandler handles the medicine browser
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// List handles listing medicines with stock
func (h *CatalogHandler) List(c *gin.Context) {
	var req request.MedicineListRequest
	if !bindQuery(c, &req) {
		return
	}
	result, err := h.catalogService.Browse(c.Request.Context(), req.Search, &req.PaginationParams)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Medicines retrieved successfully", result)
}

// Batches handles listing the batches of a medicine
func (h *CatalogHandler) Batches(c *gin.Context) {
	id, ok := pathID(c, "id", "Medicine ID")
	if !ok {
		return
	}
	batches, err := h.catalogService.Batches(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Batches retrieved successfully", batches)
}
