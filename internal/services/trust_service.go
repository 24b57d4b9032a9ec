package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

type trustService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTrustService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) TrustService {
	return &trustService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// Add creates or re-weights the (student, reviewer) edge. Re-adding an
// existing pair updates the weight instead of duplicating; the weight is
// an unbounded ranking signal, negative values included.
func (s *trustService) Add(ctx context.Context, student string, req *TrustAddRequest) error {
	s.logger.Info("Adding trusted reviewer", "student", student, "reviewer", req.ReviewerUserName)

	if errs := s.validator.GetBusinessValidator().ValidateTrustAdd(student, req); len(errs) > 0 {
		return errs
	}

	reviewerRoles, err := s.repo.User().GetRoleSet(ctx, nil, req.ReviewerUserName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load reviewer: %w", err)
	}
	if !reviewerRoles.IsReviewer() {
		return NewPermissionError(student, 0, "trust", "add", "target user does not hold the reviewer role")
	}

	edge := &models.TrustedReviewer{
		StudentUserName:  student,
		ReviewerUserName: req.ReviewerUserName,
		Weight:           req.Weight,
	}
	if err := s.repo.Trust().Upsert(ctx, nil, edge); err != nil {
		return fmt.Errorf("failed to store trust edge: %w", err)
	}
	return nil
}

func (s *trustService) Remove(ctx context.Context, student, reviewer string) error {
	if err := s.repo.Trust().Remove(ctx, nil, student, reviewer); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTrustEdgeNotFound
		}
		return fmt.Errorf("failed to remove trust edge: %w", err)
	}

	s.logger.Info("Trusted reviewer removed", "student", student, "reviewer", reviewer)
	return nil
}

func (s *trustService) SetWeight(ctx context.Context, student, reviewer string, weight int) error {
	if err := s.repo.Trust().UpdateWeight(ctx, nil, student, reviewer, weight); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTrustEdgeNotFound
		}
		return fmt.Errorf("failed to update trust weight: %w", err)
	}
	return nil
}

// List returns the student's edges heaviest first, ties broken by
// reviewer name so the order is stable.
func (s *trustService) List(ctx context.Context, student string) ([]*models.TrustEdgeResponse, error) {
	edges, err := s.repo.Trust().ListByStudent(ctx, nil, student)
	if err != nil {
		return nil, fmt.Errorf("failed to list trust edges: %w", err)
	}

	responses := make([]*models.TrustEdgeResponse, len(edges))
	for i, edge := range edges {
		responses[i] = &models.TrustEdgeResponse{
			ReviewerUserName: edge.ReviewerUserName,
			ReviewerName:     edge.Reviewer.FullName(),
			Weight:           edge.Weight,
		}
	}
	return responses, nil
}

func (s *trustService) ReviewerExists(ctx context.Context, reviewer string) (bool, error) {
	exists, err := s.repo.Trust().ReviewerExists(ctx, nil, reviewer)
	if err != nil {
		return false, fmt.Errorf("failed to check reviewer membership: %w", err)
	}
	return exists, nil
}

func (s *trustService) IsTrusted(ctx context.Context, student, reviewer string) (bool, error) {
	exists, err := s.repo.Trust().Exists(ctx, nil, student, reviewer)
	if err != nil {
		return false, fmt.Errorf("failed to check trust edge: %w", err)
	}
	return exists, nil
}
