package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/events"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

type roleRequestService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewRoleRequestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) RoleRequestService {
	return &roleRequestService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Submit files a petition for additional role bits. The dedup check and
// the insert run in one transaction: a Pending or Approved request whose
// bits overlap the new one blocks it, while a Denied request never does.
func (s *roleRequestService) Submit(ctx context.Context, userName string, req *SubmitRoleRequestRequest) (*models.RoleRequest, error) {
	s.logger.Info("Submitting role request", "user_name", userName, "roles", req.Roles)

	if errs := s.validator.GetBusinessValidator().ValidateRoleRequestSubmit(req); len(errs) > 0 {
		return nil, errs
	}

	requested, err := models.ParseRoleSet(req.Roles)
	if err != nil {
		return nil, fmt.Errorf("invalid role set: %w", err)
	}

	request := &models.RoleRequest{
		UserName:  userName,
		Requested: requested,
		Status:    models.StatusPending,
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.User().ExistsByUserName(ctx, tx, userName)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return ErrUserNotFound
		}

		blocking, err := s.repo.RoleRequest().FindBlocking(ctx, tx, userName, requested,
			[]models.RequestStatus{models.StatusPending, models.StatusApproved})
		if err != nil {
			return fmt.Errorf("failed to check existing requests: %w", err)
		}
		if len(blocking) > 0 {
			return ErrDuplicateRoleRequest
		}

		if err := s.repo.RoleRequest().Create(ctx, tx, request); err != nil {
			return fmt.Errorf("failed to create role request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventRoleRequestSubmitted, userName, userName,
		events.RoleGrantPayload(request.ID, requested)))
	return request, nil
}

// Exists reports whether a Pending or Approved request already covers any
// of the requested bits.
func (s *roleRequestService) Exists(ctx context.Context, userName string, requested models.RoleSet) (bool, error) {
	blocking, err := s.repo.RoleRequest().FindBlocking(ctx, nil, userName, requested,
		[]models.RequestStatus{models.StatusPending, models.StatusApproved})
	if err != nil {
		return false, fmt.Errorf("failed to check existing requests: %w", err)
	}
	return len(blocking) > 0, nil
}

// Approve grants the requested bits and marks the request Approved. The
// status write and the role grant share a transaction. Re-approving an
// already approved request is a no-op; approving a denied one is an error.
func (s *roleRequestService) Approve(ctx context.Context, requestID uint, deciderName string) error {
	if err := s.checkDecider(ctx, deciderName, requestID); err != nil {
		return err
	}

	var request *models.RoleRequest
	var alreadyApproved bool
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		req, err := s.repo.RoleRequest().GetByID(ctx, tx, requestID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrRoleRequestNotFound
			}
			return fmt.Errorf("failed to load role request: %w", err)
		}
		if req.Status == models.StatusApproved {
			alreadyApproved = true
			return nil
		}
		if req.Status.Terminal() {
			return ErrRequestAlreadyDecided
		}

		current, err := s.repo.User().GetRoleSet(ctx, tx, req.UserName)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load user roles: %w", err)
		}

		if err := s.repo.User().UpdateRoles(ctx, tx, req.UserName, current.Union(req.Requested)); err != nil {
			return fmt.Errorf("failed to grant roles: %w", err)
		}
		if err := s.repo.RoleRequest().UpdateStatus(ctx, tx, requestID, models.StatusApproved, deciderName); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}

		request = req
		return nil
	})
	if err != nil {
		return err
	}
	if alreadyApproved {
		return nil
	}

	s.publishEvent(ctx, events.NewEvent(events.EventRoleRequestApproved, deciderName, request.UserName,
		events.RoleGrantPayload(requestID, request.Requested)))

	s.logger.Info("Role request approved", "request_id", requestID, "user_name", request.UserName, "decided_by", deciderName)
	return nil
}

// Deny marks the request Denied without touching the user's roles. A
// denied request never blocks resubmission.
func (s *roleRequestService) Deny(ctx context.Context, requestID uint, deciderName string) error {
	if err := s.checkDecider(ctx, deciderName, requestID); err != nil {
		return err
	}

	var request *models.RoleRequest
	var alreadyDenied bool
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		req, err := s.repo.RoleRequest().GetByID(ctx, tx, requestID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrRoleRequestNotFound
			}
			return fmt.Errorf("failed to load role request: %w", err)
		}
		if req.Status == models.StatusDenied {
			alreadyDenied = true
			return nil
		}
		if req.Status.Terminal() {
			return ErrRequestAlreadyDecided
		}

		if err := s.repo.RoleRequest().UpdateStatus(ctx, tx, requestID, models.StatusDenied, deciderName); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}

		request = req
		return nil
	})
	if err != nil {
		return err
	}
	if alreadyDenied {
		return nil
	}

	s.publishEvent(ctx, events.NewEvent(events.EventRoleRequestDenied, deciderName, request.UserName,
		events.RoleGrantPayload(requestID, request.Requested)))

	s.logger.Info("Role request denied", "request_id", requestID, "user_name", request.UserName, "decided_by", deciderName)
	return nil
}

func (s *roleRequestService) ListByUser(ctx context.Context, userName string) ([]*models.RoleRequestSummary, error) {
	requests, err := s.repo.RoleRequest().ListByUser(ctx, nil, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to list role requests: %w", err)
	}

	summaries := make([]*models.RoleRequestSummary, len(requests))
	for i, req := range requests {
		summaries[i] = &models.RoleRequestSummary{
			ID:        req.ID,
			UserName:  req.UserName,
			FullName:  req.User.FullName(),
			Requested: req.Requested,
			Status:    req.Status,
		}
	}
	return summaries, nil
}

func (s *roleRequestService) List(ctx context.Context, filters repositories.RoleRequestFilters, requesterName string) (*RoleRequestListResponse, error) {
	requesterRoles, err := s.repo.User().GetRoleSet(ctx, nil, requesterName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load requester roles: %w", err)
	}
	if !requesterRoles.IsAdmin() && !requesterRoles.IsInstructor() {
		return nil, NewPermissionError(requesterName, 0, "role_request", "list", "admin or instructor role required")
	}

	requests, total, err := s.repo.RoleRequest().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list role requests: %w", err)
	}

	response := &RoleRequestListResponse{
		Requests: make([]*RoleRequestResponse, len(requests)),
		Total:    total,
		Page:     (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:     filters.Limit,
	}
	for i, req := range requests {
		response.Requests[i] = &RoleRequestResponse{
			RoleRequest: req,
			FullName:    req.User.FullName(),
		}
	}
	return response, nil
}

func (s *roleRequestService) checkDecider(ctx context.Context, deciderName string, requestID uint) error {
	deciderRoles, err := s.repo.User().GetRoleSet(ctx, nil, deciderName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load decider roles: %w", err)
	}
	if !deciderRoles.IsAdmin() && !deciderRoles.IsInstructor() {
		return NewPermissionError(deciderName, requestID, "role_request", "decide", "admin or instructor role required")
	}
	return nil
}

func (s *roleRequestService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "type", event.Type)
	}
}
