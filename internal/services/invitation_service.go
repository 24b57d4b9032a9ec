package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/events"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

// codeAlphabet omits ambiguous characters (0/O, 1/I) because codes are
// read out loud. Four characters is a product decision; collisions are
// handled by retrying.
const (
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength       = 4
	codeIssueRetries = 5
)

type invitationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewInvitationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) InvitationService {
	return &invitationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Issue generates a short unique code bound to an email, a proposed role
// set, and a deadline. Only admins issue codes.
func (s *invitationService) Issue(ctx context.Context, req *IssueInvitationRequest, issuedBy string) (*models.InvitationCode, error) {
	s.logger.Info("Issuing invitation code", "email", req.Email, "issued_by", issuedBy)

	if errs := s.validator.GetBusinessValidator().ValidateInvitationIssue(req); len(errs) > 0 {
		return nil, errs
	}

	roles, err := models.ParseRoleSet(req.Roles)
	if err != nil {
		return nil, fmt.Errorf("invalid role set: %w", err)
	}

	issuerRoles, err := s.repo.User().GetRoleSet(ctx, nil, issuedBy)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load issuer roles: %w", err)
	}
	if !issuerRoles.IsAdmin() {
		return nil, NewPermissionError(issuedBy, 0, "invitation", "issue", "admin role required")
	}

	invitation := &models.InvitationCode{
		Email:    req.Email,
		Roles:    roles,
		Deadline: datatypes.Date(req.Deadline),
		IssuedBy: issuedBy,
	}

	// The four-character code space is small; retry on collision.
	for attempt := 0; attempt < codeIssueRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		taken, err := s.repo.Invitation().ExistsByCode(ctx, nil, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if taken {
			continue
		}

		invitation.Code = code
		if err := s.repo.Invitation().Create(ctx, nil, invitation); err != nil {
			return nil, fmt.Errorf("failed to store invitation code: %w", err)
		}

		s.publishEvent(ctx, events.NewEvent(events.EventInvitationIssued, issuedBy, req.Email, map[string]interface{}{
			"code":  code,
			"roles": roles.Roles(),
		}))

		s.logger.Info("Invitation code issued", "code", code, "email", req.Email)
		return invitation, nil
	}

	return nil, fmt.Errorf("failed to generate a unique invitation code after %d attempts", codeIssueRetries)
}

// Peek is the non-destructive check: it reports the code's state without
// consuming it.
func (s *invitationService) Peek(ctx context.Context, code string) (*models.InvitationCode, error) {
	invitation, err := s.repo.Invitation().GetByCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to look up invitation code: %w", err)
	}
	return invitation, nil
}

// Consume performs the one-way used flip. It fails with a business denial
// when the code is missing, already consumed, or past its deadline; the
// flip itself is a compare-and-swap so two concurrent registrations cannot
// both win.
func (s *invitationService) Consume(ctx context.Context, code string) (*models.InvitationCode, error) {
	var invitation *models.InvitationCode
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		inv, err := s.repo.Invitation().GetByCode(ctx, tx, code)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrInvitationNotFound
			}
			return fmt.Errorf("failed to look up invitation code: %w", err)
		}
		if inv.IsUsed {
			return ErrInvitationConsumed
		}
		if inv.ExpiresBefore(time.Now()) {
			return ErrInvitationExpired
		}

		won, err := s.repo.Invitation().MarkUsed(ctx, tx, code)
		if err != nil {
			return err
		}
		if !won {
			return ErrInvitationConsumed
		}

		inv.IsUsed = true
		invitation = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventInvitationConsumed, "", invitation.Email, map[string]interface{}{
		"code": code,
	}))
	return invitation, nil
}

// IsExpired reports whether the stored deadline falls strictly before
// today. A code whose deadline is today is still usable.
func (s *invitationService) IsExpired(ctx context.Context, code string) (bool, error) {
	invitation, err := s.Peek(ctx, code)
	if err != nil {
		return false, err
	}
	return invitation.ExpiresBefore(time.Now()), nil
}

// LookupByEmail resolves by the (email, code) pair; email alone is
// ambiguous when several pending invitations share it.
func (s *invitationService) LookupByEmail(ctx context.Context, email, code string) (*models.InvitationCode, error) {
	invitation, err := s.repo.Invitation().GetByEmailAndCode(ctx, nil, email, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to look up invitation by email: %w", err)
	}
	return invitation, nil
}

func (s *invitationService) List(ctx context.Context, filters repositories.InvitationFilters, requesterName string) (*InvitationListResponse, error) {
	requesterRoles, err := s.repo.User().GetRoleSet(ctx, nil, requesterName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load requester roles: %w", err)
	}
	if !requesterRoles.IsAdmin() && !requesterRoles.IsStaff() {
		return nil, NewPermissionError(requesterName, 0, "invitation", "list", "admin or staff role required")
	}

	invitations, total, err := s.repo.Invitation().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitation codes: %w", err)
	}

	now := time.Now()
	response := &InvitationListResponse{
		Invitations: make([]*InvitationResponse, len(invitations)),
		Total:       total,
		Page:        (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:        filters.Limit,
	}
	for i, inv := range invitations {
		response.Invitations[i] = &InvitationResponse{
			InvitationCode: inv,
			IsExpired:      inv.ExpiresBefore(now),
		}
	}
	return response, nil
}

func (s *invitationService) Revoke(ctx context.Context, code, requesterName string) error {
	requesterRoles, err := s.repo.User().GetRoleSet(ctx, nil, requesterName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load requester roles: %w", err)
	}
	if !requesterRoles.IsAdmin() {
		return NewPermissionError(requesterName, 0, "invitation", "revoke", "admin role required")
	}

	if err := s.repo.Invitation().Delete(ctx, nil, code); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("failed to revoke invitation code: %w", err)
	}

	s.logger.Info("Invitation code revoked", "code", code, "revoked_by", requesterName)
	return nil
}

func (s *invitationService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "type", event.Type)
	}
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}
