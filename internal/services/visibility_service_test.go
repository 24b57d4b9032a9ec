package services

import (
	"context"
	"testing"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

func newVisibilityFixture(t *testing.T) (*memoryRepository, VisibilityService) {
	t.Helper()
	repo := newMemoryRepository()
	svc := NewVisibilityService(repo, nil, testLogger())
	return repo, svc
}

func TestVisibilityService_PublicExcludesHidden(t *testing.T) {
	repo, svc := newVisibilityFixture(t)
	ctx := context.Background()

	visible := seedQuestion(t, repo, "asker1")
	hidden := seedQuestion(t, repo, "asker1")
	hidden.IsHidden = true
	hidden.HideReason = models.HideReasonModeration

	resp, err := svc.ListQuestions(ctx, repositories.ContentFilters{}, "")
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("Expected exactly the visible question, got total=%d items=%d", resp.Total, len(resp.Items))
	}
	if resp.Items[0].ID != visible.ID {
		t.Errorf("Expected question %d, got %d", visible.ID, resp.Items[0].ID)
	}
}

func TestVisibilityService_ModerationModeRequiresRole(t *testing.T) {
	repo, svc := newVisibilityFixture(t)
	repo.addUser("plain", models.NewRoleSet(models.RoleStudent))
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))
	ctx := context.Background()

	hidden := seedQuestion(t, repo, "asker1")
	hidden.IsHidden = true
	hidden.HideReason = models.HideReasonModeration

	filters := repositories.ContentFilters{Mode: repositories.ViewModeration}

	if _, err := svc.ListQuestions(ctx, filters, ""); !IsPermissionError(err) {
		t.Fatalf("Anonymous moderation view should be denied, got %v", err)
	}
	if _, err := svc.ListQuestions(ctx, filters, "plain"); !IsPermissionError(err) {
		t.Fatalf("Student moderation view should be denied, got %v", err)
	}

	resp, err := svc.ListQuestions(ctx, filters, "staffer")
	if err != nil {
		t.Fatalf("Staff moderation view failed: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Moderation view should include hidden content, got total=%d", resp.Total)
	}
}

func TestVisibilityService_ModerationModeNotSticky(t *testing.T) {
	repo, svc := newVisibilityFixture(t)
	ctx := context.Background()

	hidden := seedQuestion(t, repo, "asker1")
	hidden.IsHidden = true

	// A caller cannot smuggle hidden rows out by passing an unknown mode.
	resp, err := svc.ListQuestions(ctx, repositories.ContentFilters{Mode: repositories.ViewMode("backstage")}, "")
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("Unknown mode must fall back to public, got total=%d", resp.Total)
	}
}

func TestVisibilityService_FlaggedOnlyFilter(t *testing.T) {
	repo, svc := newVisibilityFixture(t)
	repo.addUser("staffer", models.NewRoleSet(models.RoleStaff))
	ctx := context.Background()

	seedQuestion(t, repo, "asker1")
	flagged := seedQuestion(t, repo, "asker1")
	flagged.IsFlagged = true
	flagged.FlagReason = "duplicate"

	resp, err := svc.ListQuestions(ctx, repositories.ContentFilters{
		Mode:        repositories.ViewModeration,
		FlaggedOnly: true,
	}, "staffer")
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ID != flagged.ID {
		t.Fatalf("Expected only the flagged question, got total=%d", resp.Total)
	}
}

func TestVisibilityService_TrustedReviews(t *testing.T) {
	repo, svc := newVisibilityFixture(t)
	repo.addUser("sally", models.NewRoleSet(models.RoleStudent))
	repo.addUser("heavy", models.NewRoleSet(models.RoleReviewer))
	repo.addUser("light", models.NewRoleSet(models.RoleReviewer))
	ctx := context.Background()

	trustSvc := NewTrustService(repo, nil, testLogger(), validator.New())
	if err := trustSvc.Add(ctx, "sally", &TrustAddRequest{ReviewerUserName: "light", Weight: 1}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := trustSvc.Add(ctx, "sally", &TrustAddRequest{ReviewerUserName: "heavy", Weight: 10}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	q := seedQuestion(t, repo, "asker1")
	a := seedAnswer(t, repo, "helper", q.ID)

	seedReview := func(author string, hidden bool) *models.Review {
		rv := &models.Review{AnswerID: a.ID, AuthorUserName: author, Body: "Looks right."}
		if hidden {
			rv.IsHidden = true
			rv.HideReason = models.HideReasonModeration
		}
		if err := repo.Review().Create(ctx, nil, rv); err != nil {
			t.Fatalf("Failed to seed review: %v", err)
		}
		return rv
	}
	lightReview := seedReview("light", false)
	heavyReview := seedReview("heavy", false)
	seedReview("heavy", true)      // hidden, excluded
	seedReview("stranger1", false) // untrusted author, excluded

	reviews, err := svc.VisibleReviewsForTrusted(ctx, "sally")
	if err != nil {
		t.Fatalf("VisibleReviewsForTrusted failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("Expected 2 trusted visible reviews, got %d", len(reviews))
	}
	if reviews[0].ID != heavyReview.ID || reviews[1].ID != lightReview.ID {
		t.Errorf("Expected heaviest trust edge first, got [%d %d]", reviews[0].ID, reviews[1].ID)
	}

	if _, err := svc.VisibleReviewsForTrusted(ctx, "nobody1"); err == nil {
		t.Fatal("Expected an error for an unknown student")
	}
}
