package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportExportHandler struct {
	BaseHandler
	importExportService services.ImportExportService
}

func NewImportExportHandler(importExportService services.ImportExportService, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
	}
}

// ImportRoster issues invitations in bulk from an uploaded xlsx roster.
// @Summary Bulk issue invitations from a roster
// @Tags import-export
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster xlsx (columns: email, roles, deadline)"
// @Success 200 {object} services.BulkIssueResult
// @Failure 403 {object} ErrorResponse "Admin role required"
// @Router /admin/invitations/import [post]
func (h *ImportExportHandler) ImportRoster(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Roster file is required",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Failed to open roster file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing invitation roster", "file", fileHeader.Filename)

	result, err := h.importExportService.BulkIssueInvitations(c.Request.Context(), file, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportFlagged downloads the flagged-content report as xlsx.
// @Summary Export flagged content
// @Tags import-export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "Flagged content report"
// @Failure 403 {object} ErrorResponse "Staff or instructor role required"
// @Router /admin/moderation/export [get]
func (h *ImportExportHandler) ExportFlagged(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting flagged content")

	report, err := h.importExportService.ExportFlaggedContent(c.Request.Context(), userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("flagged-content-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, xlsxContentType, report)
}
