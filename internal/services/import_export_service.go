package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

// rosterDateLayout is the deadline format expected in roster spreadsheets.
const rosterDateLayout = "2006-01-02"

type importExportService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	validator   *validator.Validator
	invitations InvitationService
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, invitations InvitationService) ImportExportService {
	return &importExportService{
		repo:        repo,
		db:          db,
		logger:      logger,
		validator:   validator,
		invitations: invitations,
	}
}

// BulkIssueInvitations reads an xlsx roster (columns: email, roles,
// deadline) and issues one code per row. Rows are independent: a bad row
// is reported in the result and the rest proceed.
func (s *importExportService) BulkIssueInvitations(ctx context.Context, roster io.Reader, issuedBy string) (*BulkIssueResult, error) {
	f, err := excelize.OpenReader(roster)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("roster has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster rows: %w", err)
	}

	result := &BulkIssueResult{}
	for i, row := range rows {
		if i == 0 {
			// header row
			continue
		}
		if len(row) < 3 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: expected email, roles, deadline", i+1))
			continue
		}

		deadline, err := time.Parse(rosterDateLayout, strings.TrimSpace(row[2]))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: bad deadline %q", i+1, row[2]))
			continue
		}

		req := &IssueInvitationRequest{
			Email:    strings.TrimSpace(row[0]),
			Roles:    splitRoles(row[1]),
			Deadline: deadline,
		}
		invitation, err := s.invitations.Issue(ctx, req, issuedBy)
		if err != nil {
			// The first permission failure will repeat for every row;
			// stop early instead of reporting it dozens of times.
			if IsPermissionError(err) {
				return nil, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Issued = append(result.Issued, invitation)
	}

	s.logger.Info("Bulk invitation issue finished",
		"issued", len(result.Issued), "errors", len(result.Errors), "issued_by", issuedBy)
	return result, nil
}

// ExportFlaggedContent builds an xlsx report with one sheet per content
// kind listing every flagged item, for offline staff review.
func (s *importExportService) ExportFlaggedContent(ctx context.Context, requesterName string) ([]byte, error) {
	requesterRoles, err := s.repo.User().GetRoleSet(ctx, nil, requesterName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load requester roles: %w", err)
	}
	if !requesterRoles.IsStaff() && !requesterRoles.IsInstructor() {
		return nil, NewPermissionError(requesterName, 0, "content", "export_flagged", "staff or instructor role required")
	}

	f := excelize.NewFile()
	defer f.Close()

	filters := repositories.ContentFilters{
		Mode:        repositories.ViewModeration,
		FlaggedOnly: true,
		Limit:       exportPageLimit,
	}

	questions, _, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged questions: %w", err)
	}
	if err := writeFlaggedSheet(f, "Questions", questions, func(q *models.Question) flaggedRow {
		return flaggedRow{q.ID, q.AuthorUserName, q.Title, q.FlagReason, q.IsHidden, q.CreatedAt}
	}); err != nil {
		return nil, err
	}

	answers, _, err := s.repo.Answer().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged answers: %w", err)
	}
	if err := writeFlaggedSheet(f, "Answers", answers, func(a *models.Answer) flaggedRow {
		return flaggedRow{a.ID, a.AuthorUserName, snippet(a.Body), a.FlagReason, a.IsHidden, a.CreatedAt}
	}); err != nil {
		return nil, err
	}

	replies, _, err := s.repo.Reply().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged replies: %w", err)
	}
	if err := writeFlaggedSheet(f, "Replies", replies, func(r *models.Reply) flaggedRow {
		return flaggedRow{r.ID, r.AuthorUserName, snippet(r.Body), r.FlagReason, r.IsHidden, r.CreatedAt}
	}); err != nil {
		return nil, err
	}

	reviews, _, err := s.repo.Review().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged reviews: %w", err)
	}
	if err := writeFlaggedSheet(f, "Reviews", reviews, func(r *models.Review) flaggedRow {
		return flaggedRow{r.ID, r.AuthorUserName, snippet(r.Body), r.FlagReason, r.IsHidden, r.CreatedAt}
	}); err != nil {
		return nil, err
	}

	// excelize always creates "Sheet1"; drop it once real sheets exist.
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

const exportPageLimit = 10000

type flaggedRow struct {
	ID         uint
	Author     string
	Text       string
	FlagReason string
	IsHidden   bool
	CreatedAt  time.Time
}

func writeFlaggedSheet[T any](f *excelize.File, name string, items []*T, toRow func(*T) flaggedRow) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}

	headers := []interface{}{"ID", "Author", "Text", "Flag Reason", "Hidden", "Created At"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, item := range items {
		row := toRow(item)
		cells := []interface{}{row.ID, row.Author, row.Text, row.FlagReason, row.IsHidden, row.CreatedAt.Format(time.RFC3339)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func splitRoles(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' })
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}

func snippet(body string) string {
	const limit = 120
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "…"
}
