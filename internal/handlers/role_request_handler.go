package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type RoleRequestHandler struct {
	BaseHandler
	roleRequestService services.RoleRequestService
}

func NewRoleRequestHandler(roleRequestService services.RoleRequestService, logger utils.Logger) *RoleRequestHandler {
	return &RoleRequestHandler{
		BaseHandler:        NewBaseHandler(logger),
		roleRequestService: roleRequestService,
	}
}

// SubmitRequest files a petition for additional roles.
// @Summary Submit a role request
// @Tags role-requests
// @Accept json
// @Produce json
// @Param request body services.SubmitRoleRequestRequest true "Requested roles"
// @Success 201 {object} models.RoleRequest
// @Failure 409 {object} ErrorResponse "Duplicate request"
// @Router /role-requests [post]
func (h *RoleRequestHandler) SubmitRequest(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.SubmitRoleRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting role request", "roles", req.Roles)

	request, err := h.roleRequestService.Submit(c.Request.Context(), userName, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListMyRequests returns the caller's own requests.
// @Summary List my role requests
// @Tags role-requests
// @Produce json
// @Success 200 {array} models.RoleRequestSummary
// @Router /role-requests/mine [get]
func (h *RoleRequestHandler) ListMyRequests(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	summaries, err := h.roleRequestService.ListByUser(c.Request.Context(), userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// ListRequests lists requests for review, filterable by status.
// @Summary List role requests
// @Tags role-requests
// @Produce json
// @Param status query string false "Filter by status (Pending, Approved, Denied)"
// @Param user query string false "Filter by user name"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.RoleRequestListResponse
// @Failure 403 {object} ErrorResponse "Admin or instructor role required"
// @Router /role-requests [get]
func (h *RoleRequestHandler) ListRequests(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	filters := repositories.RoleRequestFilters{
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	filters.Limit, filters.Offset = parsePagination(c)
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.RequestStatus(statusStr)
		filters.Status = &status
	}
	if user := c.Query("user"); user != "" {
		filters.UserName = &user
	}

	response, err := h.roleRequestService.List(c.Request.Context(), filters, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ApproveRequest grants the requested roles.
// @Summary Approve a role request
// @Tags role-requests
// @Param id path int true "Request ID"
// @Success 204 "Approved"
// @Failure 403 {object} ErrorResponse "Admin or instructor role required"
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 409 {object} ErrorResponse "Already denied"
// @Router /role-requests/{id}/approve [post]
func (h *RoleRequestHandler) ApproveRequest(c *gin.Context) {
	h.decide(c, h.roleRequestService.Approve, "Approving role request")
}

// DenyRequest rejects the request without granting roles.
// @Summary Deny a role request
// @Tags role-requests
// @Param id path int true "Request ID"
// @Success 204 "Denied"
// @Failure 403 {object} ErrorResponse "Admin or instructor role required"
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 409 {object} ErrorResponse "Already approved"
// @Router /role-requests/{id}/deny [post]
func (h *RoleRequestHandler) DenyRequest(c *gin.Context) {
	h.decide(c, h.roleRequestService.Deny, "Denying role request")
}

func (h *RoleRequestHandler) decide(c *gin.Context, decideFn func(ctx context.Context, requestID uint, deciderName string) error, msg string) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request ID",
		})
		return
	}

	h.LogRequest(c, msg, "request_id", id)

	if err := decideFn(c.Request.Context(), uint(id), userName); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
