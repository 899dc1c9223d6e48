package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/interfaces/http/dto"
	"github.com/halo-extras/backend/internal/interfaces/http/middleware"
)

// BaseHandler is embedded by every handler for the shared response envelope.
type BaseHandler struct{}

// getRequestID prefers the id set by the RequestID middleware and falls
// back to the inbound header.
func getRequestID(c *gin.Context) string {
	id := c.GetString(middleware.RequestIDKey)
	if id == "" {
		id = c.GetHeader(middleware.RequestIDHeader)
	}
	return id
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta attaches pagination meta to a list response
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the error envelope with the request id filled in
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnauthorized, code, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError answers a failed ShouldBind call. Validator failures carry
// per-field details; anything else is a malformed body.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if verrs := (validator.ValidationErrors)(nil); errors.As(err, &verrs) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
}

// HandleError maps a service error to a response. Domain errors keep their
// code and message; anything else is recorded on the gin context and hidden
// behind a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var derr *shared.DomainError
	switch {
	case err == nil:
	case errors.As(err, &derr):
		code := dto.NormalizeErrorCode(derr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, derr.Message)
	default:
		_ = c.Error(err)
		h.InternalError(c, "An unexpected error occurred")
	}
}
