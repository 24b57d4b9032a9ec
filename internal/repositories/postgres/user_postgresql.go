package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/cache"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise the default DB.
func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := u.getDB(tx).WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	cache.SafeDelete(ctx, u.cacheManager.User, fmt.Sprintf("name:%s", user.UserName))
	return nil
}

// cachedUser is the cache image of a user row. The model hides
// PasswordHash (and soft-delete state) from JSON, so caching models.User
// directly would strip the hash and break credential checks; the cache
// stores this fully-tagged mirror instead.
type cachedUser struct {
	UserName     string         `json:"user_name"`
	PasswordHash string         `json:"password_hash"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Email        string         `json:"email"`
	Roles        models.RoleSet `json:"roles"`
	IsMuted      bool           `json:"is_muted"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func newCachedUser(u *models.User) *cachedUser {
	return &cachedUser{
		UserName:     u.UserName,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Roles:        u.Roles,
		IsMuted:      u.IsMuted,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c *cachedUser) toModel() *models.User {
	return &models.User{
		UserName:     c.UserName,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		Roles:        c.Roles,
		IsMuted:      c.IsMuted,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// GetByUserName retrieves a user by user name with caching.
func (u *UserPostgreSQL) GetByUserName(ctx context.Context, tx *gorm.DB, userName string) (*models.User, error) {
	cacheKey := fmt.Sprintf("name:%s", userName)
	var cached cachedUser

	err := u.cacheManager.User.CacheOrExecute(ctx, cacheKey, &cached, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := u.getDB(tx).WithContext(ctx).First(&dbUser, "user_name = ?", userName).Error; err != nil {
			return nil, err
		}
		return newCachedUser(&dbUser), nil
	})
	if err != nil {
		return nil, err
	}
	return cached.toModel(), nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := u.getDB(tx).WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.getDB(tx).WithContext(ctx).Model(&models.User{})

	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("user_name ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			like, like, like, like)
	}
	if filters.Role != nil {
		// RoleSet is stored as a comma-joined list of role names.
		query = query.Where("roles LIKE ?", "%"+string(*filters.Role)+"%")
	}
	if filters.IsMuted != nil {
		query = query.Where("is_muted = ?", *filters.IsMuted)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []*models.User
	if err := applyPagination(query, filters.Limit, filters.Offset).
		Order("user_name ASC").
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByUserName(ctx context.Context, tx *gorm.DB, userName string) (bool, error) {
	var count int64
	err := u.getDB(tx).WithContext(ctx).Model(&models.User{}).
		Where("user_name = ?", userName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := u.getDB(tx).WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) GetRoleSet(ctx context.Context, tx *gorm.DB, userName string) (models.RoleSet, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).
		Select("user_name, roles").
		First(&user, "user_name = ?", userName).Error
	if err != nil {
		return 0, err
	}
	return user.Roles, nil
}

func (u *UserPostgreSQL) UpdateRoles(ctx context.Context, tx *gorm.DB, userName string, roles models.RoleSet) error {
	result := u.getDB(tx).WithContext(ctx).Model(&models.User{}).
		Where("user_name = ?", userName).
		Update("roles", roles)
	if result.Error != nil {
		return fmt.Errorf("failed to update roles: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, userName)
	return nil
}

func (u *UserPostgreSQL) SetMuted(ctx context.Context, tx *gorm.DB, userName string, muted bool) error {
	result := u.getDB(tx).WithContext(ctx).Model(&models.User{}).
		Where("user_name = ?", userName).
		Update("is_muted", muted)
	if result.Error != nil {
		return fmt.Errorf("failed to update mute state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, userName)
	return nil
}
