package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/events"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Register creates an account from an invitation code. The code lookup,
// the used flip, and the user insert run in one transaction so a code is
// consumed if and only if the account exists afterwards.
func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	s.logger.Info("Registering user", "user_name", req.UserName, "code", req.Code)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var user *models.User
	var invitation *models.InvitationCode
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		// The (email, code) pair identifies the invitation; email alone is
		// ambiguous when one address holds several pending codes.
		inv, err := s.repo.Invitation().GetByEmailAndCode(ctx, tx, req.Email, req.Code)
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

		taken, err := s.repo.User().ExistsByUserName(ctx, tx, req.UserName)
		if err != nil {
			return fmt.Errorf("failed to check user name: %w", err)
		}
		if taken {
			return ErrUserNameTaken
		}

		won, err := s.repo.Invitation().MarkUsed(ctx, tx, req.Code)
		if err != nil {
			return err
		}
		if !won {
			return ErrInvitationConsumed
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		u := &models.User{
			UserName:     req.UserName,
			PasswordHash: string(hash),
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Roles:        inv.Roles,
		}
		if err := s.repo.User().Create(ctx, tx, u); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		user = u
		invitation = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventUserRegistered, req.UserName, req.UserName, map[string]interface{}{
		"code":  invitation.Code,
		"roles": user.Roles.Roles(),
	}))
	s.publishEvent(ctx, events.NewEvent(events.EventInvitationConsumed, req.UserName, invitation.Email, map[string]interface{}{
		"code": invitation.Code,
	}))

	s.logger.Info("User registered", "user_name", user.UserName, "roles", user.Roles.String())
	return user, nil
}

// Authenticate checks credentials. Both unknown user and wrong password
// return ErrInvalidCredentials so callers cannot probe for account names.
func (s *userService) Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUserName(ctx, nil, req.UserName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userName string) (*models.User, error) {
	user, err := s.repo.User().GetByUserName(ctx, nil, userName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *userService) GetRoleSet(ctx context.Context, userName string) (models.RoleSet, error) {
	roles, err := s.repo.User().GetRoleSet(ctx, nil, userName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to load role set: %w", err)
	}
	return roles, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, requesterName string) ([]*models.User, int64, error) {
	requesterRoles, err := s.repo.User().GetRoleSet(ctx, nil, requesterName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to load requester roles: %w", err)
	}
	if !requesterRoles.IsAdmin() && !requesterRoles.IsStaff() && !requesterRoles.IsInstructor() {
		return nil, 0, NewPermissionError(requesterName, 0, "user", "list", "admin, staff or instructor role required")
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "type", event.Type)
	}
}
