package handlers

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type ModerationHandler struct {
	BaseHandler
	moderationService services.ModerationService
}

func NewModerationHandler(moderationService services.ModerationService, logger utils.Logger) *ModerationHandler {
	return &ModerationHandler{
		BaseHandler:       NewBaseHandler(logger),
		moderationService: moderationService,
	}
}

// FlagContent marks an item for staff attention.
// @Summary Flag a content item
// @Tags moderation
// @Accept json
// @Param kind path string true "Content kind (question, answer, reply, review)"
// @Param id path int true "Item ID"
// @Param request body services.FlagRequest true "Flag reason"
// @Success 204 "Flagged"
// @Failure 403 {object} ErrorResponse "Staff or instructor role required"
// @Failure 404 {object} ErrorResponse "Item not found"
// @Router /moderation/{kind}/{id}/flag [post]
func (h *ModerationHandler) FlagContent(c *gin.Context) {
	userName, kind, itemID, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	var req services.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Flagging content", "kind", kind, "item_id", itemID)

	if err := h.moderationService.Flag(c.Request.Context(), kind, itemID, &req, userName); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearFlag resets the flag on an item.
// @Summary Clear a content flag
// @Tags moderation
// @Param kind path string true "Content kind"
// @Param id path int true "Item ID"
// @Success 204 "Cleared"
// @Router /moderation/{kind}/{id}/flag [delete]
func (h *ModerationHandler) ClearFlag(c *gin.Context) {
	userName, kind, itemID, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	if err := h.moderationService.ClearFlag(c.Request.Context(), kind, itemID, userName); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HideContent removes an item from public view.
// @Summary Hide a content item
// @Tags moderation
// @Param kind path string true "Content kind"
// @Param id path int true "Item ID"
// @Success 204 "Hidden"
// @Router /moderation/{kind}/{id}/hide [post]
func (h *ModerationHandler) HideContent(c *gin.Context) {
	userName, kind, itemID, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Hiding content", "kind", kind, "item_id", itemID)

	if err := h.moderationService.Hide(c.Request.Context(), kind, itemID, userName); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnhideContent restores an item to public view.
// @Summary Unhide a content item
// @Tags moderation
// @Param kind path string true "Content kind"
// @Param id path int true "Item ID"
// @Success 204 "Restored"
// @Router /moderation/{kind}/{id}/hide [delete]
func (h *ModerationHandler) UnhideContent(c *gin.Context) {
	userName, kind, itemID, ok := h.moderationTarget(c)
	if !ok {
		return
	}

	if err := h.moderationService.Unhide(c.Request.Context(), kind, itemID, userName); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MuteUser mutes a user and hides all their content.
// @Summary Mute a user
// @Tags moderation
// @Produce json
// @Param user_name path string true "User to mute"
// @Success 200 {object} services.MuteResult
// @Failure 403 {object} ErrorResponse "Staff or instructor role required"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /moderation/users/{user_name}/mute [post]
func (h *ModerationHandler) MuteUser(c *gin.Context) {
	actorName, ok := h.currentUserName(c)
	if !ok {
		return
	}
	target := c.Param("user_name")

	h.LogRequest(c, "Muting user", "target", target)

	result, err := h.moderationService.Mute(c.Request.Context(), target, actorName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UnmuteUser unmutes a user and restores the content the mute hid.
// @Summary Unmute a user
// @Tags moderation
// @Produce json
// @Param user_name path string true "User to unmute"
// @Success 200 {object} services.MuteResult
// @Router /moderation/users/{user_name}/mute [delete]
func (h *ModerationHandler) UnmuteUser(c *gin.Context) {
	actorName, ok := h.currentUserName(c)
	if !ok {
		return
	}
	target := c.Param("user_name")

	h.LogRequest(c, "Unmuting user", "target", target)

	result, err := h.moderationService.Unmute(c.Request.Context(), target, actorName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ModerationHandler) moderationTarget(c *gin.Context) (userName string, kind models.ContentKind, itemID uint, ok bool) {
	userName, ok = h.currentUserName(c)
	if !ok {
		return "", "", 0, false
	}

	kind = models.ContentKind(c.Param("kind"))
	if !slices.Contains(models.AllContentKinds, kind) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Unknown content kind",
		})
		return "", "", 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid item ID",
		})
		return "", "", 0, false
	}

	return userName, kind, uint(id), true
}
