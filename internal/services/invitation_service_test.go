package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/campus-hub/helpdesk-service/internal/events"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newInvitationFixture(t *testing.T) (*memoryRepository, InvitationService, *events.MockEventPublisher) {
	t.Helper()
	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewInvitationService(repo, nil, testLogger(), validator.New(), publisher)
	return repo, svc, publisher
}

func seedInvitation(repo *memoryRepository, code string, deadline time.Time) *models.InvitationCode {
	inv := &models.InvitationCode{
		Code:     code,
		Email:    "newcomer@example.edu",
		Roles:    models.NewRoleSet(models.RoleStudent),
		Deadline: datatypes.Date(deadline),
		IssuedBy: "root",
	}
	repo.invitations[code] = inv
	return inv
}

func TestInvitationService_Issue(t *testing.T) {
	repo, svc, publisher := newInvitationFixture(t)
	repo.addUser("root", models.NewRoleSet(models.RoleAdmin))
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))
	ctx := context.Background()

	t.Run("admin issues a code", func(t *testing.T) {
		inv, err := svc.Issue(ctx, &IssueInvitationRequest{
			Email:    "newcomer@example.edu",
			Roles:    []string{"student", "reviewer"},
			Deadline: time.Now().AddDate(0, 0, 7),
		}, "root")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if len(inv.Code) != 4 {
			t.Errorf("Expected 4-character code, got %q", inv.Code)
		}
		if !inv.Roles.IsStudent() || !inv.Roles.IsReviewer() {
			t.Errorf("Issued roles wrong: %s", inv.Roles)
		}
		if inv.IsUsed {
			t.Error("Fresh code must not be used")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventInvitationIssued {
			t.Errorf("Expected one invitation.issued event, got %v", published)
		}
	})

	t.Run("non-admin is denied", func(t *testing.T) {
		_, err := svc.Issue(ctx, &IssueInvitationRequest{
			Email:    "friend@example.edu",
			Roles:    []string{"student"},
			Deadline: time.Now().AddDate(0, 0, 7),
		}, "sam")
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})

	t.Run("past deadline rejected", func(t *testing.T) {
		_, err := svc.Issue(ctx, &IssueInvitationRequest{
			Email:    "late@example.edu",
			Roles:    []string{"student"},
			Deadline: time.Now().AddDate(0, 0, -1),
		}, "root")
		if err == nil {
			t.Fatal("Expected validation error for past deadline")
		}
	})
}

func TestInvitationService_ConsumeOnce(t *testing.T) {
	repo, svc, _ := newInvitationFixture(t)
	seedInvitation(repo, "AB12", time.Now().AddDate(0, 0, 3))
	ctx := context.Background()

	inv, err := svc.Consume(ctx, "AB12")
	if err != nil {
		t.Fatalf("First consume failed: %v", err)
	}
	if !inv.IsUsed {
		t.Error("Consumed code should report used")
	}

	// The flip is one-way; a second consume loses.
	if _, err := svc.Consume(ctx, "AB12"); !errors.Is(err, ErrInvitationConsumed) {
		t.Fatalf("Expected ErrInvitationConsumed, got %v", err)
	}

	// Peek still sees the consumed code.
	peeked, err := svc.Peek(ctx, "AB12")
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if !peeked.IsUsed {
		t.Error("Peek after consume should report used")
	}
}

func TestInvitationService_ConsumeExpired(t *testing.T) {
	repo, svc, _ := newInvitationFixture(t)
	seedInvitation(repo, "OLD1", time.Now().AddDate(0, 0, -2))
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "OLD1"); !errors.Is(err, ErrInvitationExpired) {
		t.Fatalf("Expected ErrInvitationExpired, got %v", err)
	}

	// Expiry does not consume: the code is still unused.
	inv, err := svc.Peek(ctx, "OLD1")
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if inv.IsUsed {
		t.Error("Expired consume attempt must not mark the code used")
	}
}

func TestInvitationService_IsExpired(t *testing.T) {
	repo, svc, _ := newInvitationFixture(t)
	ctx := context.Background()

	// Deadline today: usable through end of day.
	seedInvitation(repo, "TDAY", time.Now())
	expired, err := svc.IsExpired(ctx, "TDAY")
	if err != nil {
		t.Fatalf("IsExpired failed: %v", err)
	}
	if expired {
		t.Error("Code with today's deadline must not be expired")
	}

	seedInvitation(repo, "YEST", time.Now().AddDate(0, 0, -1))
	expired, err = svc.IsExpired(ctx, "YEST")
	if err != nil {
		t.Fatalf("IsExpired failed: %v", err)
	}
	if !expired {
		t.Error("Code with yesterday's deadline must be expired")
	}

	if _, err := svc.IsExpired(ctx, "NONE"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("Expected ErrInvitationNotFound, got %v", err)
	}
}

func TestInvitationService_LookupByEmail(t *testing.T) {
	repo, svc, _ := newInvitationFixture(t)
	seedInvitation(repo, "AB12", time.Now().AddDate(0, 0, 3))
	ctx := context.Background()

	inv, err := svc.LookupByEmail(ctx, "newcomer@example.edu", "AB12")
	if err != nil {
		t.Fatalf("LookupByEmail failed: %v", err)
	}
	if inv.Code != "AB12" {
		t.Errorf("Wrong invitation returned: %s", inv.Code)
	}

	// The pair must match; the right code with the wrong email misses.
	if _, err := svc.LookupByEmail(ctx, "other@example.edu", "AB12"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("Expected ErrInvitationNotFound, got %v", err)
	}
}

func TestInvitationService_Revoke(t *testing.T) {
	repo, svc, _ := newInvitationFixture(t)
	repo.addUser("root", models.NewRoleSet(models.RoleAdmin))
	repo.addUser("stu", models.NewRoleSet(models.RoleStudent))
	seedInvitation(repo, "GONE", time.Now().AddDate(0, 0, 3))
	ctx := context.Background()

	if err := svc.Revoke(ctx, "GONE", "stu"); !IsPermissionError(err) {
		t.Fatalf("Expected permission error for non-admin, got %v", err)
	}
	if err := svc.Revoke(ctx, "GONE", "root"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.Peek(ctx, "GONE"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("Expected revoked code to be gone, got %v", err)
	}
}
