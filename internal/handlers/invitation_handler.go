package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type InvitationHandler struct {
	BaseHandler
	invitationService services.InvitationService
}

func NewInvitationHandler(invitationService services.InvitationService, logger utils.Logger) *InvitationHandler {
	return &InvitationHandler{
		BaseHandler:       NewBaseHandler(logger),
		invitationService: invitationService,
	}
}

// IssueInvitation creates a new invitation code.
// @Summary Issue an invitation code
// @Tags invitations
// @Accept json
// @Produce json
// @Param request body services.IssueInvitationRequest true "Invitation request"
// @Success 201 {object} models.InvitationCode
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 403 {object} ErrorResponse "Admin role required"
// @Router /invitations [post]
func (h *InvitationHandler) IssueInvitation(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.IssueInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Issuing invitation", "email", req.Email)

	invitation, err := h.invitationService.Issue(c.Request.Context(), &req, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// PeekInvitation reports a code's state without consuming it; the
// registration form uses it to pre-validate.
// @Summary Check an invitation code
// @Tags invitations
// @Produce json
// @Param code path string true "Invitation code"
// @Success 200 {object} services.InvitationResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /invitations/{code} [get]
func (h *InvitationHandler) PeekInvitation(c *gin.Context) {
	code := c.Param("code")

	invitation, err := h.invitationService.Peek(c.Request.Context(), code)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.InvitationResponse{
		InvitationCode: invitation,
		IsExpired:      invitation.ExpiresBefore(time.Now()),
	})
}

// ListInvitations lists issued codes with optional filtering.
// @Summary List invitation codes
// @Tags invitations
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param email query string false "Filter by email"
// @Param used query bool false "Filter by used state"
// @Success 200 {object} services.InvitationListResponse
// @Failure 403 {object} ErrorResponse "Admin or staff role required"
// @Router /invitations [get]
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	filters := repositories.InvitationFilters{}
	filters.Limit, filters.Offset = parsePagination(c)
	if email := c.Query("email"); email != "" {
		filters.Email = &email
	}
	if usedStr := c.Query("used"); usedStr != "" {
		if used, err := strconv.ParseBool(usedStr); err == nil {
			filters.IsUsed = &used
		}
	}

	response, err := h.invitationService.List(c.Request.Context(), filters, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// RevokeInvitation deletes an unused code.
// @Summary Revoke an invitation code
// @Tags invitations
// @Param code path string true "Invitation code"
// @Success 204 "Revoked"
// @Failure 403 {object} ErrorResponse "Admin role required"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /invitations/{code} [delete]
func (h *InvitationHandler) RevokeInvitation(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}
	code := c.Param("code")

	h.LogRequest(c, "Revoking invitation", "code", code)

	if err := h.invitationService.Revoke(c.Request.Context(), code, userName); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parsePagination reads page/size query params into limit and offset.
func parsePagination(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return size, (page - 1) * size
}
