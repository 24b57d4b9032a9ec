package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

type visibilityService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewVisibilityService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) VisibilityService {
	return &visibilityService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *visibilityService) ListQuestions(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Question], error) {
	filters, err := s.resolveMode(ctx, filters, viewerName, "question")
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return listResponse(items, total, filters), nil
}

func (s *visibilityService) ListAnswers(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Answer], error) {
	filters, err := s.resolveMode(ctx, filters, viewerName, "answer")
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.Answer().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return listResponse(items, total, filters), nil
}

func (s *visibilityService) ListReplies(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Reply], error) {
	filters, err := s.resolveMode(ctx, filters, viewerName, "reply")
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.Reply().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return listResponse(items, total, filters), nil
}

func (s *visibilityService) ListReviews(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Review], error) {
	filters, err := s.resolveMode(ctx, filters, viewerName, "review")
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.Review().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return listResponse(items, total, filters), nil
}

// VisibleReviewsForTrusted resolves the student's trust graph against the
// public review set: only reviews by trusted reviewers, hidden ones
// excluded, heaviest trust edge first.
func (s *visibilityService) VisibleReviewsForTrusted(ctx context.Context, student string) ([]*models.Review, error) {
	exists, err := s.repo.User().ExistsByUserName(ctx, nil, student)
	if err != nil {
		return nil, fmt.Errorf("failed to check student: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	reviews, err := s.repo.Review().ListByTrustedReviewers(ctx, nil, student)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted reviews: %w", err)
	}
	return reviews, nil
}

// resolveMode enforces the mode boundary: moderation mode requires the
// staff or instructor role; everyone else is forced onto the public
// slice. Anonymous viewers (empty name) always get the public slice.
func (s *visibilityService) resolveMode(ctx context.Context, filters repositories.ContentFilters, viewerName, resource string) (repositories.ContentFilters, error) {
	if filters.Mode != repositories.ViewModeration {
		filters.Mode = repositories.ViewPublic
		return filters, nil
	}

	if viewerName == "" {
		return filters, NewPermissionError(viewerName, 0, resource, "list_moderation", "authentication required")
	}
	viewerRoles, err := s.repo.User().GetRoleSet(ctx, nil, viewerName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return filters, ErrUserNotFound
		}
		return filters, fmt.Errorf("failed to load viewer roles: %w", err)
	}
	if !viewerRoles.IsStaff() && !viewerRoles.IsInstructor() {
		return filters, NewPermissionError(viewerName, 0, resource, "list_moderation", "staff or instructor role required")
	}
	return filters, nil
}

func listResponse[T any](items []*T, total int64, filters repositories.ContentFilters) *ContentListResponse[T] {
	return &ContentListResponse[T]{
		Items: items,
		Total: total,
		Page:  (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:  filters.Limit,
	}
}
