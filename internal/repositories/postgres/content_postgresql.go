package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

// contentModeration implements the uniform flag/hide operations for one
// content table. All four kinds share the same moderation columns, so the
// implementation is generic over the model type.
type contentModeration[T any] struct {
	db *gorm.DB
}

func (c *contentModeration[T]) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *contentModeration[T]) model(tx *gorm.DB, ctx context.Context) *gorm.DB {
	var zero T
	return c.getDB(tx).WithContext(ctx).Model(&zero)
}

func (c *contentModeration[T]) SetFlag(ctx context.Context, tx *gorm.DB, id uint, reason string) error {
	result := c.model(tx, ctx).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_flagged":  true,
			"flag_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to flag content: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearFlag resets the reason to the empty string, never NULL.
func (c *contentModeration[T]) ClearFlag(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.model(tx, ctx).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_flagged":  false,
			"flag_reason": "",
		})
	if result.Error != nil {
		return fmt.Errorf("failed to clear flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *contentModeration[T]) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool, reason models.HideReason) error {
	if !hidden {
		reason = models.HideReasonNone
	}
	result := c.model(tx, ctx).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_hidden":   hidden,
			"hide_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update hidden state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HideAllByAuthor only touches rows that are not already hidden, so a hide
// placed earlier by an independent moderation action keeps its own reason
// tag through a later mute.
func (c *contentModeration[T]) HideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, reason models.HideReason) (int64, error) {
	result := c.model(tx, ctx).
		Where("author_user_name = ? AND is_hidden = ?", author, false).
		Updates(map[string]interface{}{
			"is_hidden":   true,
			"hide_reason": reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to hide content by author: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UnhideAllByAuthor restores the author's hidden rows. With a non-empty
// onlyReason the restore is scoped to hides carrying that tag; the empty
// reason restores everything, which is the legacy unmute behavior.
func (c *contentModeration[T]) UnhideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, onlyReason models.HideReason) (int64, error) {
	query := c.model(tx, ctx).
		Where("author_user_name = ? AND is_hidden = ?", author, true)
	if onlyReason != models.HideReasonNone {
		query = query.Where("hide_reason = ?", onlyReason)
	}
	result := query.Updates(map[string]interface{}{
		"is_hidden":   false,
		"hide_reason": models.HideReasonNone,
	})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to unhide content by author: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ===== QUESTION =====

type QuestionPostgreSQL struct {
	contentModeration[models.Question]
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{contentModeration[models.Question]{db: db}}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.getDB(tx).WithContext(ctx).Preload("Author").First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Question, int64, error) {
	query := applyContentFilters(q.model(tx, ctx), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	var questions []*models.Question
	err := applyContentOrder(applyPagination(query, filters.Limit, filters.Offset), filters).
		Preload("Author").
		Find(&questions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

// ===== ANSWER =====

type AnswerPostgreSQL struct {
	contentModeration[models.Answer]
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{contentModeration[models.Answer]{db: db}}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	if err := a.getDB(tx).WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.getDB(tx).WithContext(ctx).Preload("Author").First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Answer, int64, error) {
	query := applyContentFilters(a.model(tx, ctx), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count answers: %w", err)
	}

	var answers []*models.Answer
	err := applyContentOrder(applyPagination(query, filters.Limit, filters.Offset), filters).
		Preload("Author").
		Find(&answers).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, total, nil
}

// ===== REPLY =====

type ReplyPostgreSQL struct {
	contentModeration[models.Reply]
}

func NewReplyPostgreSQL(db *gorm.DB) repositories.ReplyRepository {
	return &ReplyPostgreSQL{contentModeration[models.Reply]{db: db}}
}

func (r *ReplyPostgreSQL) Create(ctx context.Context, tx *gorm.DB, reply *models.Reply) error {
	if err := r.getDB(tx).WithContext(ctx).Create(reply).Error; err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}
	return nil
}

func (r *ReplyPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.getDB(tx).WithContext(ctx).Preload("Author").First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *ReplyPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Reply, int64, error) {
	query := applyContentFilters(r.model(tx, ctx), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count replies: %w", err)
	}

	var replies []*models.Reply
	err := applyContentOrder(applyPagination(query, filters.Limit, filters.Offset), filters).
		Preload("Author").
		Find(&replies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, total, nil
}

// ===== REVIEW =====

type ReviewPostgreSQL struct {
	contentModeration[models.Review]
}

func NewReviewPostgreSQL(db *gorm.DB) repositories.ReviewRepository {
	return &ReviewPostgreSQL{contentModeration[models.Review]{db: db}}
}

func (r *ReviewPostgreSQL) Create(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	if err := r.getDB(tx).WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *ReviewPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.getDB(tx).WithContext(ctx).Preload("Author").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Review, int64, error) {
	query := applyContentFilters(r.model(tx, ctx), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []*models.Review
	err := applyContentOrder(applyPagination(query, filters.Limit, filters.Offset), filters).
		Preload("Author").
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

// ListByTrustedReviewers joins visible reviews against the viewer's trust
// edges and surfaces them in edge-weight order, heaviest first.
func (r *ReviewPostgreSQL) ListByTrustedReviewers(ctx context.Context, tx *gorm.DB, student string) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Review{}).
		Joins("JOIN trusted_reviewers tr ON tr.reviewer_user_name = reviews.author_user_name").
		Where("tr.student_user_name = ? AND reviews.is_hidden = ?", student, false).
		Order("tr.weight DESC, reviews.created_at DESC").
		Preload("Author").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by trusted reviewers: %w", err)
	}
	return reviews, nil
}
