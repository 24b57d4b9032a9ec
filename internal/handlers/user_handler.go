package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (admin, student, reviewer, instructor, staff)"
// @Param muted query bool false "Filter by muted state"
// @Success 200 {object} map[string]interface{} "User list response"
// @Failure 403 {object} ErrorResponse "Admin, staff or instructor role required"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing users")

	filters := repositories.UserFilters{Query: c.Query("q")}
	filters.Limit, filters.Offset = parsePagination(c)
	if roleStr := c.Query("role"); roleStr != "" {
		role := models.Role(roleStr)
		filters.Role = &role
	}
	if mutedStr := c.Query("muted"); mutedStr != "" {
		muted := mutedStr == "true"
		filters.IsMuted = &muted
	}

	users, total, err := h.userService.List(c.Request.Context(), filters, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	page := (filters.Offset / max(filters.Limit, 1)) + 1
	c.JSON(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
		"size":  filters.Limit,
	})
}

// GetUser retrieves a user by name
// @Summary Get user
// @Tags users
// @Produce json
// @Param user_name path string true "User name"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /users/{user_name} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	if _, ok := h.currentUserName(c); !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), c.Param("user_name"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
