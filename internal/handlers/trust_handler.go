package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type TrustHandler struct {
	BaseHandler
	trustService services.TrustService
}

func NewTrustHandler(trustService services.TrustService, logger utils.Logger) *TrustHandler {
	return &TrustHandler{
		BaseHandler:  NewBaseHandler(logger),
		trustService: trustService,
	}
}

// AddTrustedReviewer creates or re-weights a trust edge from the caller.
// @Summary Trust a reviewer
// @Tags trust
// @Accept json
// @Produce json
// @Param request body services.TrustAddRequest true "Reviewer and weight"
// @Success 204 "Edge stored"
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 403 {object} ErrorResponse "Target is not a reviewer"
// @Failure 404 {object} ErrorResponse "Reviewer not found"
// @Router /trust [post]
func (h *TrustHandler) AddTrustedReviewer(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.TrustAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Adding trusted reviewer", "reviewer", req.ReviewerUserName)

	if err := h.trustService.Add(c.Request.Context(), userName, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveTrustedReviewer deletes the caller's edge to a reviewer.
// @Summary Untrust a reviewer
// @Tags trust
// @Param reviewer path string true "Reviewer user name"
// @Success 204 "Edge removed"
// @Failure 404 {object} ErrorResponse "Edge not found"
// @Router /trust/{reviewer} [delete]
func (h *TrustHandler) RemoveTrustedReviewer(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}
	reviewer := c.Param("reviewer")

	if err := h.trustService.Remove(c.Request.Context(), userName, reviewer); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetWeight updates the weight on an existing edge.
// @Summary Re-weight a trust edge
// @Tags trust
// @Accept json
// @Param reviewer path string true "Reviewer user name"
// @Param request body object{weight=int} true "New weight"
// @Success 204 "Weight updated"
// @Failure 404 {object} ErrorResponse "Edge not found"
// @Router /trust/{reviewer}/weight [put]
func (h *TrustHandler) SetWeight(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}
	reviewer := c.Param("reviewer")

	var body struct {
		Weight int `json:"weight"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.trustService.SetWeight(c.Request.Context(), userName, reviewer, body.Weight); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTrustedReviewers lists the caller's edges, heaviest first.
// @Summary List trusted reviewers
// @Tags trust
// @Produce json
// @Success 200 {array} models.TrustEdgeResponse
// @Router /trust [get]
func (h *TrustHandler) ListTrustedReviewers(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	edges, err := h.trustService.List(c.Request.Context(), userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, edges)
}
