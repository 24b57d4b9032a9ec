package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campus-hub/helpdesk-service/internal/cache"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

type TrustPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTrustPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TrustRepository {
	return &TrustPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (t *TrustPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

// Upsert inserts the edge or, on conflict of the composite key, updates
// the weight in place. Re-adding never produces a second row.
func (t *TrustPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, edge *models.TrustedReviewer) error {
	err := t.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_user_name"}, {Name: "reviewer_user_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"weight", "updated_at"}),
		}).
		Create(edge).Error
	if err != nil {
		return fmt.Errorf("failed to upsert trust edge: %w", err)
	}
	cache.InvalidateTrustCache(ctx, t.cacheManager, edge.StudentUserName)
	return nil
}

func (t *TrustPostgreSQL) Remove(ctx context.Context, tx *gorm.DB, student, reviewer string) error {
	result := t.getDB(tx).WithContext(ctx).
		Delete(&models.TrustedReviewer{}, "student_user_name = ? AND reviewer_user_name = ?", student, reviewer)
	if result.Error != nil {
		return fmt.Errorf("failed to remove trust edge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateTrustCache(ctx, t.cacheManager, student)
	return nil
}

func (t *TrustPostgreSQL) UpdateWeight(ctx context.Context, tx *gorm.DB, student, reviewer string, weight int) error {
	result := t.getDB(tx).WithContext(ctx).Model(&models.TrustedReviewer{}).
		Where("student_user_name = ? AND reviewer_user_name = ?", student, reviewer).
		Update("weight", weight)
	if result.Error != nil {
		return fmt.Errorf("failed to update trust edge weight: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateTrustCache(ctx, t.cacheManager, student)
	return nil
}

// cachedTrustEdge is the cache image of an edge plus the preloaded
// reviewer's display name. The Reviewer relation is hidden from JSON on
// the model, so caching the model directly would drop the name the
// presentation layer shows.
type cachedTrustEdge struct {
	StudentUserName   string    `json:"student_user_name"`
	ReviewerUserName  string    `json:"reviewer_user_name"`
	Weight            int       `json:"weight"`
	ReviewerFirstName string    `json:"reviewer_first_name"`
	ReviewerLastName  string    `json:"reviewer_last_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newCachedTrustEdge(e *models.TrustedReviewer) cachedTrustEdge {
	return cachedTrustEdge{
		StudentUserName:   e.StudentUserName,
		ReviewerUserName:  e.ReviewerUserName,
		Weight:            e.Weight,
		ReviewerFirstName: e.Reviewer.FirstName,
		ReviewerLastName:  e.Reviewer.LastName,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func (c cachedTrustEdge) toModel() *models.TrustedReviewer {
	return &models.TrustedReviewer{
		StudentUserName:  c.StudentUserName,
		ReviewerUserName: c.ReviewerUserName,
		Weight:           c.Weight,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		Reviewer: models.User{
			UserName:  c.ReviewerUserName,
			FirstName: c.ReviewerFirstName,
			LastName:  c.ReviewerLastName,
		},
	}
}

// ListByStudent returns the student's edges ordered by weight descending,
// with caching; the resolver leans on this ordering.
func (t *TrustPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, student string) ([]*models.TrustedReviewer, error) {
	cacheKey := fmt.Sprintf("student:%s", student)
	var cached []cachedTrustEdge

	err := t.cacheManager.Trust.CacheOrExecute(ctx, cacheKey, &cached, cache.TrustCacheConfig.TTL, func() (interface{}, error) {
		var dbEdges []*models.TrustedReviewer
		err := t.getDB(tx).WithContext(ctx).
			Preload("Reviewer").
			Where("student_user_name = ?", student).
			Order("weight DESC, reviewer_user_name ASC").
			Find(&dbEdges).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list trust edges: %w", err)
		}
		out := make([]cachedTrustEdge, len(dbEdges))
		for i, e := range dbEdges {
			out[i] = newCachedTrustEdge(e)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	edges := make([]*models.TrustedReviewer, len(cached))
	for i, c := range cached {
		edges[i] = c.toModel()
	}
	return edges, nil
}

func (t *TrustPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, student, reviewer string) (bool, error) {
	var count int64
	err := t.getDB(tx).WithContext(ctx).Model(&models.TrustedReviewer{}).
		Where("student_user_name = ? AND reviewer_user_name = ?", student, reviewer).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check trust edge existence: %w", err)
	}
	return count > 0, nil
}

// ReviewerExists checks the whole edge set, not one student's slice of it.
func (t *TrustPostgreSQL) ReviewerExists(ctx context.Context, tx *gorm.DB, reviewer string) (bool, error) {
	var count int64
	err := t.getDB(tx).WithContext(ctx).Model(&models.TrustedReviewer{}).
		Where("reviewer_user_name = ?", reviewer).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reviewer existence: %w", err)
	}
	return count > 0, nil
}
