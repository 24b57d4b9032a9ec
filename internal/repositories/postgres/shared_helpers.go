package postgres

import (
	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

const defaultPageSize = 20

// applyPagination clamps and applies limit/offset.
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

// applyContentFilters applies the shared visibility and moderation filters
// to a content query. Public mode excludes hidden rows; flag state never
// affects public inclusion. Moderation mode sees everything and may narrow
// to flagged-only or hidden-only slices.
func applyContentFilters(query *gorm.DB, filters repositories.ContentFilters) *gorm.DB {
	switch filters.Mode {
	case repositories.ViewModeration:
		if filters.FlaggedOnly {
			query = query.Where("is_flagged = ?", true)
		}
		if filters.HiddenOnly {
			query = query.Where("is_hidden = ?", true)
		}
	default:
		query = query.Where("is_hidden = ?", false)
	}

	if filters.Author != nil {
		query = query.Where("author_user_name = ?", *filters.Author)
	}
	if filters.QuestionID != nil {
		query = query.Where("question_id = ?", *filters.QuestionID)
	}
	if filters.AnswerID != nil {
		query = query.Where("answer_id = ?", *filters.AnswerID)
	}
	return query
}

// Whitelisted sort columns per listing; sort inputs come straight from
// query parameters and must never reach the ORDER BY clause raw.
var (
	contentSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
	}
	roleRequestSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"status":     true,
	}
)

// sortClause builds an ORDER BY expression from user-supplied sort inputs.
// Columns outside the whitelist fall back to created_at; anything but
// "asc" sorts descending.
func sortClause(sortBy, sortOrder string, allowed map[string]bool) string {
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return sortBy + " " + sortOrder
}

// applyContentOrder applies the shared sort options with a created_at
// default.
func applyContentOrder(query *gorm.DB, filters repositories.ContentFilters) *gorm.DB {
	return query.Order(sortClause(filters.SortBy, filters.SortOrder, contentSortColumns))
}
