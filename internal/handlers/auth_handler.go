package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	userService services.UserService
	auth        *JWTAuthMiddleware
}

func NewAuthHandler(userService services.UserService, auth *JWTAuthMiddleware, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
		auth:        auth,
	}
}

// Register creates an account from an invitation code.
// @Summary Register with an invitation code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 404 {object} ErrorResponse "Invitation not found"
// @Failure 409 {object} ErrorResponse "Code used, expired, or name taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Registering user", "user_name", req.UserName)

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login checks credentials and issues a bearer token.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login request"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, expiresAt, err := h.auth.IssueToken(user.UserName)
	if err != nil {
		h.LogError(c, err, "Failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:     token,
		UserName:  user.UserName,
		Roles:     user.Roles,
		ExpiresIn: int(time.Until(expiresAt).Seconds()),
	})
}

// Me returns the authenticated user's profile.
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
