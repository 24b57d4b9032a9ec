package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

type RoleRequestPostgreSQL struct {
	db *gorm.DB
}

func NewRoleRequestPostgreSQL(db *gorm.DB) repositories.RoleRequestRepository {
	return &RoleRequestPostgreSQL{db: db}
}

func (r *RoleRequestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *RoleRequestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, req *models.RoleRequest) error {
	if err := r.getDB(tx).WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create role request: %w", err)
	}
	return nil
}

func (r *RoleRequestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.RoleRequest, error) {
	var req models.RoleRequest
	if err := r.getDB(tx).WithContext(ctx).Preload("User").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RoleRequestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.RoleRequestFilters) ([]*models.RoleRequest, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.RoleRequest{})

	if filters.UserName != nil {
		query = query.Where("user_name = ?", *filters.UserName)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count role requests: %w", err)
	}

	var requests []*models.RoleRequest
	err := applyPagination(query, filters.Limit, filters.Offset).
		Preload("User").
		Order(sortClause(filters.SortBy, filters.SortOrder, roleRequestSortColumns)).
		Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list role requests: %w", err)
	}
	return requests, total, nil
}

func (r *RoleRequestPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userName string) ([]*models.RoleRequest, error) {
	var requests []*models.RoleRequest
	err := r.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("user_name = ?", userName).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list role requests by user: %w", err)
	}
	return requests, nil
}

// FindBlocking loads the user's requests in the given statuses and filters
// by role-bit intersection in memory; the CSV role encoding keeps the bit
// test out of SQL's reach.
func (r *RoleRequestPostgreSQL) FindBlocking(ctx context.Context, tx *gorm.DB, userName string, requested models.RoleSet, statuses []models.RequestStatus) ([]*models.RoleRequest, error) {
	var rows []*models.RoleRequest
	err := r.getDB(tx).WithContext(ctx).
		Where("user_name = ? AND status IN ?", userName, statuses).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query blocking role requests: %w", err)
	}

	blocking := rows[:0]
	for _, row := range rows {
		if row.Requested.Intersects(requested) {
			blocking = append(blocking, row)
		}
	}
	return blocking, nil
}

func (r *RoleRequestPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus, decidedBy string) error {
	now := time.Now()
	result := r.getDB(tx).WithContext(ctx).Model(&models.RoleRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"decided_by": decidedBy,
			"decided_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update role request status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
