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

type moderationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewModerationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ModerationService {
	return &moderationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Flag marks an item for staff attention. Flagging never hides; the two
// booleans are independent axes.
func (s *moderationService) Flag(ctx context.Context, kind models.ContentKind, itemID uint, req *FlagRequest, actorName string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if err := s.checkModerator(ctx, actorName, itemID, string(kind), "flag"); err != nil {
		return err
	}

	ops, err := s.opsFor(kind)
	if err != nil {
		return err
	}
	if err := ops.SetFlag(ctx, nil, itemID, req.Reason); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to flag %s: %w", kind, err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventContentFlagged, actorName, "",
		events.ModerationPayload(kind, itemID, req.Reason)))

	s.logger.Info("Content flagged", "kind", kind, "item_id", itemID, "actor", actorName)
	return nil
}

// ClearFlag resets the flag and empties the reason. Idempotent: clearing
// an unflagged item succeeds.
func (s *moderationService) ClearFlag(ctx context.Context, kind models.ContentKind, itemID uint, actorName string) error {
	if err := s.checkModerator(ctx, actorName, itemID, string(kind), "clear_flag"); err != nil {
		return err
	}

	ops, err := s.opsFor(kind)
	if err != nil {
		return err
	}
	if err := ops.ClearFlag(ctx, nil, itemID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to clear flag on %s: %w", kind, err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventContentFlagCleared, actorName, "",
		events.ModerationPayload(kind, itemID, "")))
	return nil
}

// Hide removes an item from public view and tags the hide as a direct
// moderation action, so a later unmute of its author leaves it hidden.
func (s *moderationService) Hide(ctx context.Context, kind models.ContentKind, itemID uint, actorName string) error {
	if err := s.checkModerator(ctx, actorName, itemID, string(kind), "hide"); err != nil {
		return err
	}

	ops, err := s.opsFor(kind)
	if err != nil {
		return err
	}
	if err := ops.SetHidden(ctx, nil, itemID, true, models.HideReasonModeration); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to hide %s: %w", kind, err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventContentHidden, actorName, "",
		events.ModerationPayload(kind, itemID, "")))

	s.logger.Info("Content hidden", "kind", kind, "item_id", itemID, "actor", actorName)
	return nil
}

func (s *moderationService) Unhide(ctx context.Context, kind models.ContentKind, itemID uint, actorName string) error {
	if err := s.checkModerator(ctx, actorName, itemID, string(kind), "unhide"); err != nil {
		return err
	}

	ops, err := s.opsFor(kind)
	if err != nil {
		return err
	}
	if err := ops.SetHidden(ctx, nil, itemID, false, models.HideReasonNone); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to unhide %s: %w", kind, err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventContentUnhidden, actorName, "",
		events.ModerationPayload(kind, itemID, "")))
	return nil
}

// Mute sets the user's muted flag and hides all their content across every
// kind, in one transaction. The hides are tagged with the mute reason so
// Unmute can restore exactly this set. Muting an already muted user
// re-runs the cascade, which is harmless: already hidden rows are skipped.
func (s *moderationService) Mute(ctx context.Context, userName, actorName string) (*MuteResult, error) {
	if err := s.checkModerator(ctx, actorName, 0, "user", "mute"); err != nil {
		return nil, err
	}

	result := &MuteResult{
		UserName:    userName,
		Muted:       true,
		HiddenItems: make(map[string]int64),
	}
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.User().SetMuted(ctx, tx, userName, true); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to mute user: %w", err)
		}

		for _, kind := range s.repo.ContentOps() {
			hidden, err := kind.Ops.HideAllByAuthor(ctx, tx, userName, models.HideReasonMute)
			if err != nil {
				return fmt.Errorf("failed to hide %s items: %w", kind.Kind, err)
			}
			result.HiddenItems[kind.Kind] = hidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventUserMuted, actorName, userName, map[string]interface{}{
		"hidden_items": result.HiddenItems,
	}))

	s.logger.Info("User muted", "user_name", userName, "actor", actorName, "hidden", result.HiddenItems)
	return result, nil
}

// Unmute clears the muted flag and restores only the hides the mute
// cascade created. Items hidden by a direct moderation action keep their
// tag and stay hidden.
func (s *moderationService) Unmute(ctx context.Context, userName, actorName string) (*MuteResult, error) {
	if err := s.checkModerator(ctx, actorName, 0, "user", "unmute"); err != nil {
		return nil, err
	}

	result := &MuteResult{
		UserName:    userName,
		Muted:       false,
		HiddenItems: make(map[string]int64),
	}
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.User().SetMuted(ctx, tx, userName, false); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to unmute user: %w", err)
		}

		for _, kind := range s.repo.ContentOps() {
			restored, err := kind.Ops.UnhideAllByAuthor(ctx, tx, userName, models.HideReasonMute)
			if err != nil {
				return fmt.Errorf("failed to restore %s items: %w", kind.Kind, err)
			}
			result.HiddenItems[kind.Kind] = restored
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventUserUnmuted, actorName, userName, map[string]interface{}{
		"restored_items": result.HiddenItems,
	}))

	s.logger.Info("User unmuted", "user_name", userName, "actor", actorName, "restored", result.HiddenItems)
	return result, nil
}

func (s *moderationService) opsFor(kind models.ContentKind) (repositories.ModerationOps, error) {
	switch kind {
	case models.KindQuestion:
		return s.repo.Question(), nil
	case models.KindAnswer:
		return s.repo.Answer(), nil
	case models.KindReply:
		return s.repo.Reply(), nil
	case models.KindReview:
		return s.repo.Review(), nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}

func (s *moderationService) checkModerator(ctx context.Context, actorName string, resourceID uint, resource, action string) error {
	actorRoles, err := s.repo.User().GetRoleSet(ctx, nil, actorName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load actor roles: %w", err)
	}
	if !actorRoles.IsStaff() && !actorRoles.IsInstructor() {
		return NewPermissionError(actorName, resourceID, resource, action, "staff or instructor role required")
	}
	return nil
}

func (s *moderationService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "error", err, "type", event.Type)
	}
}
