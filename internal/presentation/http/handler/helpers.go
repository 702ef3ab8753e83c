package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/utils"
)

// sessionID parses the :id path parameter of a billing session route
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid billing session ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into req and answers 400/422 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// bindQuery decodes the query string into req
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.Error(c, apperror.FromValidator(err))
		return
	}
	if errors.Is(err, io.EOF) {
		response.BadRequest(c, "Request body is required")
		return
	}
	response.BadRequest(c, "Invalid request: "+err.Error())
}

// pathID returns a non-empty path parameter
func pathID(c *gin.Context, name, label string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		response.BadRequest(c, label+" is required")
		return "", false
	}
	return id, true
}
