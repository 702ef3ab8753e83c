package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/infrastructure/pharmacyapi"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
)

// HealthHandler answers liveness checks
type HealthHandler struct {
	name    string
	session *pharmacyapi.Session
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(name string, session *pharmacyapi.Session) *HealthHandler {
	return &HealthHandler{name: name, session: session, started: time.Now()}
}

// Check reports the service status
func (h *HealthHandler) Check(c *gin.Context) {
	response.OK(c, "Service is healthy", gin.H{
		"status":  "ok",
		"service": h.name,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"session": h.session.Status(),
	})
}
