package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/infrastructure/pharmacyapi"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/request"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
)

// SessionHandler manages the bearer token used against the pharmacy API
type SessionHandler struct {
	session *pharmacyapi.Session
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session *pharmacyapi.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

// Status reports whether a token is installed
func (h *SessionHandler) Status(c *gin.Context) {
	response.OK(c, "Session status retrieved", h.session.Status())
}

// SetToken installs a token obtained from the pharmacy login
func (h *SessionHandler) SetToken(c *gin.Context) {
	var req request.SetTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.session.Set(c.Request.Context(), req.Token); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session started", h.session.Status())
}

// Clear logs the desk out
func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.session.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session cleared", nil)
}
