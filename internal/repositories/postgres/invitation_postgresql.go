package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/cache"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

type InvitationPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewInvitationPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.InvitationRepository {
	return &InvitationPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (i *InvitationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return i.db
}

func (i *InvitationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, code *models.InvitationCode) error {
	if err := i.getDB(tx).WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to create invitation code: %w", err)
	}
	return nil
}

// cachedInvitation is the cache image of an invitation row. The deadline
// is stored as a plain time.Time because datatypes.Date does not survive
// a JSON round trip.
type cachedInvitation struct {
	Code      string         `json:"code"`
	Email     string         `json:"email"`
	Roles     models.RoleSet `json:"roles"`
	IsUsed    bool           `json:"is_used"`
	Deadline  time.Time      `json:"deadline"`
	IssuedBy  string         `json:"issued_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newCachedInvitation(c *models.InvitationCode) *cachedInvitation {
	return &cachedInvitation{
		Code:      c.Code,
		Email:     c.Email,
		Roles:     c.Roles,
		IsUsed:    c.IsUsed,
		Deadline:  time.Time(c.Deadline),
		IssuedBy:  c.IssuedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (c *cachedInvitation) toModel() *models.InvitationCode {
	return &models.InvitationCode{
		Code:      c.Code,
		Email:     c.Email,
		Roles:     c.Roles,
		IsUsed:    c.IsUsed,
		Deadline:  datatypes.Date(c.Deadline),
		IssuedBy:  c.IssuedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// GetByCode retrieves an invitation by code with caching; the public peek
// endpoint makes this the hottest invitation lookup. MarkUsed and Delete
// invalidate the entry, and the consume CAS still decides on the live row,
// so a stale hit can never double-spend a code.
func (i *InvitationPostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.InvitationCode, error) {
	cacheKey := fmt.Sprintf("code:%s", code)
	var cached cachedInvitation

	err := i.cacheManager.Invitation.CacheOrExecute(ctx, cacheKey, &cached, cache.InvitationCacheConfig.TTL, func() (interface{}, error) {
		var invitation models.InvitationCode
		if err := i.getDB(tx).WithContext(ctx).First(&invitation, "code = ?", code).Error; err != nil {
			return nil, err
		}
		return newCachedInvitation(&invitation), nil
	})
	if err != nil {
		return nil, err
	}
	return cached.toModel(), nil
}

// GetByEmailAndCode disambiguates the case where several pending
// invitations share one email; lookups beyond best-effort convenience must
// go through the (email, code) pair.
func (i *InvitationPostgreSQL) GetByEmailAndCode(ctx context.Context, tx *gorm.DB, email, code string) (*models.InvitationCode, error) {
	var invitation models.InvitationCode
	err := i.getDB(tx).WithContext(ctx).
		First(&invitation, "email = ? AND code = ?", email, code).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (i *InvitationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.InvitationFilters) ([]*models.InvitationCode, int64, error) {
	query := i.getDB(tx).WithContext(ctx).Model(&models.InvitationCode{})

	if filters.Email != nil {
		query = query.Where("email = ?", *filters.Email)
	}
	if filters.IsUsed != nil {
		query = query.Where("is_used = ?", *filters.IsUsed)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invitation codes: %w", err)
	}

	var codes []*models.InvitationCode
	if err := applyPagination(query, filters.Limit, filters.Offset).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invitation codes: %w", err)
	}
	return codes, total, nil
}

func (i *InvitationPostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var count int64
	err := i.getDB(tx).WithContext(ctx).Model(&models.InvitationCode{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check invitation code existence: %w", err)
	}
	return count > 0, nil
}

// MarkUsed is a compare-and-swap on is_used: the WHERE clause only matches
// an unconsumed row, so exactly one caller ever wins the flip.
func (i *InvitationPostgreSQL) MarkUsed(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	result := i.getDB(tx).WithContext(ctx).Model(&models.InvitationCode{}).
		Where("code = ? AND is_used = ?", code, false).
		Update("is_used", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume invitation code: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		cache.SafeDelete(ctx, i.cacheManager.Invitation, fmt.Sprintf("code:%s", code))
	}
	return result.RowsAffected == 1, nil
}

func (i *InvitationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, code string) error {
	result := i.getDB(tx).WithContext(ctx).Delete(&models.InvitationCode{}, "code = ?", code)
	if result.Error != nil {
		return fmt.Errorf("failed to delete invitation code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, i.cacheManager.Invitation, fmt.Sprintf("code:%s", code))
	return nil
}
