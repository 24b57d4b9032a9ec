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

type contentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewContentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ContentService {
	return &contentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *contentService) CreateQuestion(ctx context.Context, req *CreateQuestionRequest, authorName string) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	state, err := s.initialState(ctx, authorName)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		AuthorUserName:  authorName,
		Title:           req.Title,
		Body:            req.Body,
		ModerationState: state,
	}
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "id", question.ID, "author", authorName)
	return question, nil
}

func (s *contentService) CreateAnswer(ctx context.Context, req *CreateAnswerRequest, authorName string) (*models.Answer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	state, err := s.initialState(ctx, authorName)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		QuestionID:      req.QuestionID,
		AuthorUserName:  authorName,
		Body:            req.Body,
		ModerationState: state,
	}
	if err := s.repo.Answer().Create(ctx, nil, answer); err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	return answer, nil
}

func (s *contentService) CreateReply(ctx context.Context, req *CreateReplyRequest, authorName string) (*models.Reply, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	state, err := s.initialState(ctx, authorName)
	if err != nil {
		return nil, err
	}

	reply := &models.Reply{
		QuestionID:      req.QuestionID,
		AuthorUserName:  authorName,
		Body:            req.Body,
		ModerationState: state,
	}
	if err := s.repo.Reply().Create(ctx, nil, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	return reply, nil
}

// CreateReview requires the reviewer role; reviews from users without it
// would poison the trust resolver.
func (s *contentService) CreateReview(ctx context.Context, req *CreateReviewRequest, authorName string) (*models.Review, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	authorRoles, err := s.repo.User().GetRoleSet(ctx, nil, authorName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load author roles: %w", err)
	}
	if !authorRoles.IsReviewer() {
		return nil, NewPermissionError(authorName, req.AnswerID, "review", "create", "reviewer role required")
	}

	if _, err := s.repo.Answer().GetByID(ctx, nil, req.AnswerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}
	state, err := s.initialState(ctx, authorName)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		AnswerID:        req.AnswerID,
		AuthorUserName:  authorName,
		Body:            req.Body,
		ModerationState: state,
	}
	if err := s.repo.Review().Create(ctx, nil, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// initialState makes content from a muted author start hidden with the
// mute tag, so unmuting restores it along with the rest of the cascade.
func (s *contentService) initialState(ctx context.Context, authorName string) (models.ModerationState, error) {
	author, err := s.repo.User().GetByUserName(ctx, nil, authorName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return models.ModerationState{}, ErrUserNotFound
		}
		return models.ModerationState{}, fmt.Errorf("failed to load author: %w", err)
	}

	state := models.ModerationState{}
	if author.IsMuted {
		state.IsHidden = true
		state.HideReason = models.HideReasonMute
	}
	return state, nil
}
