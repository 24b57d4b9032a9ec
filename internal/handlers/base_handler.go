package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// BaseHandler carries the shared handler plumbing: request-scoped logging
// and the service error -> HTTP status mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Business outcomes get 4xx with the sentinel text; anything else is a
// storage or infrastructure failure and gets an opaque 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Details: validationErrs,
		})
		return
	}

	if services.IsPermissionError(err) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrRoleRequestNotFound),
		errors.Is(err, services.ErrTrustEdgeNotFound),
		errors.Is(err, services.ErrContentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvitationConsumed),
		errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrUserNameTaken),
		errors.Is(err, services.ErrDuplicateRoleRequest),
		errors.Is(err, services.ErrRequestAlreadyDecided):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		})
	default:
		h.LogError(c, err, "Internal service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// currentUserName returns the authenticated user's name, or aborts with
// 401 when the auth middleware did not run.
func (h *BaseHandler) currentUserName(c *gin.Context) (string, bool) {
	userName, exists := c.Get("user_name")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return "", false
	}
	name, ok := userName.(string)
	if !ok || name == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid user identity in context",
		})
		return "", false
	}
	return name, true
}
