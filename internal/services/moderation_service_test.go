package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campus-hub/helpdesk-service/internal/events"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

func newModerationFixture(t *testing.T) (*memoryRepository, ModerationService, *events.MockEventPublisher) {
	t.Helper()
	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewModerationService(repo, nil, testLogger(), validator.New(), publisher)
	return repo, svc, publisher
}

func seedQuestion(t *testing.T, repo *memoryRepository, author string) *models.Question {
	t.Helper()
	q := &models.Question{
		AuthorUserName: author,
		Title:          "How do I reset my lab account?",
		Body:           "The terminal rejects my password after the migration.",
	}
	if err := repo.Question().Create(context.Background(), nil, q); err != nil {
		t.Fatalf("Failed to seed question: %v", err)
	}
	return q
}

func seedAnswer(t *testing.T, repo *memoryRepository, author string, questionID uint) *models.Answer {
	t.Helper()
	a := &models.Answer{
		QuestionID:     questionID,
		AuthorUserName: author,
		Body:           "Ask the lab admin to re-sync your credentials.",
	}
	if err := repo.Answer().Create(context.Background(), nil, a); err != nil {
		t.Fatalf("Failed to seed answer: %v", err)
	}
	return a
}

func TestModerationService_FlagRoundTrip(t *testing.T) {
	repo, svc, publisher := newModerationFixture(t)
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))
	q := seedQuestion(t, repo, "author1")
	ctx := context.Background()

	if err := svc.Flag(ctx, models.KindQuestion, q.ID, &FlagRequest{Reason: "spam link"}, "staffer"); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	if !q.IsFlagged || q.FlagReason != "spam link" {
		t.Errorf("Expected flagged with reason, got flagged=%v reason=%q", q.IsFlagged, q.FlagReason)
	}
	if q.IsHidden {
		t.Error("Flagging must not hide the item")
	}

	if err := svc.ClearFlag(ctx, models.KindQuestion, q.ID, "staffer"); err != nil {
		t.Fatalf("ClearFlag failed: %v", err)
	}
	if q.IsFlagged || q.FlagReason != "" {
		t.Errorf("Expected flag cleared, got flagged=%v reason=%q", q.IsFlagged, q.FlagReason)
	}

	// Clearing an unflagged item is a no-op, not an error.
	if err := svc.ClearFlag(ctx, models.KindQuestion, q.ID, "staffer"); err != nil {
		t.Fatalf("ClearFlag should be idempotent: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) == 0 || published[0].Type != events.EventContentFlagged {
		t.Errorf("Expected a %s event, got %v", events.EventContentFlagged, published)
	}
}

func TestModerationService_FlagPermissions(t *testing.T) {
	repo, svc, _ := newModerationFixture(t)
	repo.addUser("plain", models.NewRoleSet(models.RoleStudent))
	repo.addUser("prof", models.NewRoleSet(models.RoleInstructor))
	q := seedQuestion(t, repo, "author1")
	ctx := context.Background()

	err := svc.Flag(ctx, models.KindQuestion, q.ID, &FlagRequest{Reason: "off topic"}, "plain")
	if !IsPermissionError(err) {
		t.Fatalf("Expected permission error for student actor, got %v", err)
	}
	if q.IsFlagged {
		t.Error("Denied flag must not alter the item")
	}

	if err := svc.Flag(ctx, models.KindQuestion, q.ID, &FlagRequest{Reason: "off topic"}, "prof"); err != nil {
		t.Fatalf("Instructor should be allowed to flag: %v", err)
	}

	err = svc.Flag(ctx, models.KindQuestion, 9999, &FlagRequest{Reason: "x"}, "prof")
	if !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("Expected ErrContentNotFound, got %v", err)
	}
}

func TestModerationService_HideUnhide(t *testing.T) {
	repo, svc, _ := newModerationFixture(t)
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))
	q := seedQuestion(t, repo, "author1")
	ctx := context.Background()

	if err := svc.Hide(ctx, models.KindQuestion, q.ID, "staffer"); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if !q.IsHidden || q.HideReason != models.HideReasonModeration {
		t.Errorf("Expected hidden with moderation tag, got hidden=%v reason=%q", q.IsHidden, q.HideReason)
	}

	if err := svc.Unhide(ctx, models.KindQuestion, q.ID, "staffer"); err != nil {
		t.Fatalf("Unhide failed: %v", err)
	}
	if q.IsHidden || q.HideReason != models.HideReasonNone {
		t.Errorf("Expected fully unhidden, got hidden=%v reason=%q", q.IsHidden, q.HideReason)
	}
}

func TestModerationService_MuteCascade(t *testing.T) {
	repo, svc, _ := newModerationFixture(t)
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))
	repo.addUser("noisy", models.NewRoleSet(models.RoleStudent))
	ctx := context.Background()

	q1 := seedQuestion(t, repo, "noisy")
	q2 := seedQuestion(t, repo, "noisy")
	a1 := seedAnswer(t, repo, "noisy", q1.ID)
	other := seedQuestion(t, repo, "bystander")

	// One item was already hidden by a direct moderation action.
	if err := svc.Hide(ctx, models.KindQuestion, q2.ID, "staffer"); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}

	result, err := svc.Mute(ctx, "noisy", "staffer")
	if err != nil {
		t.Fatalf("Mute failed: %v", err)
	}
	if result.HiddenItems[string(models.KindQuestion)] != 1 {
		t.Errorf("Expected 1 newly hidden question (q2 already hidden), got %d", result.HiddenItems[string(models.KindQuestion)])
	}
	if result.HiddenItems[string(models.KindAnswer)] != 1 {
		t.Errorf("Expected 1 hidden answer, got %d", result.HiddenItems[string(models.KindAnswer)])
	}
	if !q1.IsHidden || q1.HideReason != models.HideReasonMute {
		t.Errorf("Expected q1 hidden by mute, got hidden=%v reason=%q", q1.IsHidden, q1.HideReason)
	}
	if !a1.IsHidden {
		t.Error("Expected the answer hidden by mute")
	}
	if other.IsHidden {
		t.Error("Mute must not touch other authors' content")
	}

	user, err := repo.User().GetByUserName(ctx, nil, "noisy")
	if err != nil || !user.IsMuted {
		t.Fatalf("Expected user marked muted, got user=%+v err=%v", user, err)
	}
}

func TestModerationService_UnmuteRestoresOnlyMuteHides(t *testing.T) {
	repo, svc, _ := newModerationFixture(t)
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))
	repo.addUser("noisy", models.NewRoleSet(models.RoleStudent))
	ctx := context.Background()

	q1 := seedQuestion(t, repo, "noisy")
	q2 := seedQuestion(t, repo, "noisy")
	if err := svc.Hide(ctx, models.KindQuestion, q2.ID, "staffer"); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if _, err := svc.Mute(ctx, "noisy", "staffer"); err != nil {
		t.Fatalf("Mute failed: %v", err)
	}

	result, err := svc.Unmute(ctx, "noisy", "staffer")
	if err != nil {
		t.Fatalf("Unmute failed: %v", err)
	}
	if result.HiddenItems[string(models.KindQuestion)] != 1 {
		t.Errorf("Expected 1 restored question, got %d", result.HiddenItems[string(models.KindQuestion)])
	}
	if q1.IsHidden {
		t.Error("Mute-hidden item should be restored on unmute")
	}
	if !q2.IsHidden || q2.HideReason != models.HideReasonModeration {
		t.Errorf("Moderation-hidden item must survive unmute, got hidden=%v reason=%q", q2.IsHidden, q2.HideReason)
	}

	user, err := repo.User().GetByUserName(ctx, nil, "noisy")
	if err != nil || user.IsMuted {
		t.Fatalf("Expected user unmuted, got user=%+v err=%v", user, err)
	}
}

func TestModerationService_MuteUnknownUser(t *testing.T) {
	repo, svc, _ := newModerationFixture(t)
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))

	_, err := svc.Mute(context.Background(), "ghost1", "staffer")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}
