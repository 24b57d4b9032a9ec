package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campus-hub/helpdesk-service/internal/events"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

func newRoleRequestFixture(t *testing.T) (*memoryRepository, RoleRequestService) {
	t.Helper()
	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewRoleRequestService(repo, nil, testLogger(), validator.New(), publisher)
	return repo, svc
}

func TestRoleRequestService_SubmitDedup(t *testing.T) {
	repo, svc := newRoleRequestFixture(t)
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))
	ctx := context.Background()

	first, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if first.Status != models.StatusPending {
		t.Errorf("New request should be pending, got %s", first.Status)
	}

	// A pending request with overlapping bits blocks a duplicate.
	if _, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}}); !errors.Is(err, ErrDuplicateRoleRequest) {
		t.Fatalf("Expected ErrDuplicateRoleRequest, got %v", err)
	}

	// Overlap on any bit blocks, not just identical sets.
	if _, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer", "staff"}}); !errors.Is(err, ErrDuplicateRoleRequest) {
		t.Fatalf("Expected ErrDuplicateRoleRequest on partial overlap, got %v", err)
	}

	// Disjoint bits are a separate petition.
	if _, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"staff"}}); err != nil {
		t.Fatalf("Disjoint submit failed: %v", err)
	}
}

func TestRoleRequestService_AdminRoleNotRequestable(t *testing.T) {
	repo, svc := newRoleRequestFixture(t)
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))

	if _, err := svc.Submit(context.Background(), "sam", &SubmitRoleRequestRequest{Roles: []string{"admin"}}); err == nil {
		t.Fatal("Expected admin role request to be rejected")
	}
}

func TestRoleRequestService_ApproveGrantsRoles(t *testing.T) {
	repo, svc := newRoleRequestFixture(t)
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))
	repo.addUser("prof", models.NewRoleSet(models.RoleInstructor))
	ctx := context.Background()

	req, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := svc.Approve(ctx, req.ID, "prof"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	roles := repo.users["sam"].Roles
	if !roles.IsStudent() || !roles.IsReviewer() {
		t.Errorf("Approval must merge the requested bits, got %s", roles)
	}
	if repo.requests[req.ID].Status != models.StatusApproved {
		t.Errorf("Request should be approved, got %s", repo.requests[req.ID].Status)
	}

	// Re-approving an approved request is a no-op, not an error.
	if err := svc.Approve(ctx, req.ID, "prof"); err != nil {
		t.Fatalf("Idempotent re-approve failed: %v", err)
	}

	// But flipping an approved request to denied is refused.
	if err := svc.Deny(ctx, req.ID, "prof"); !errors.Is(err, ErrRequestAlreadyDecided) {
		t.Fatalf("Expected ErrRequestAlreadyDecided, got %v", err)
	}
}

func TestRoleRequestService_DenyAllowsResubmission(t *testing.T) {
	repo, svc := newRoleRequestFixture(t)
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))
	repo.addUser("prof", models.NewRoleSet(models.RoleInstructor))
	ctx := context.Background()

	req, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Deny(ctx, req.ID, "prof"); err != nil {
		t.Fatalf("Deny failed: %v", err)
	}

	if repo.users["sam"].Roles.IsReviewer() {
		t.Error("Deny must not grant roles")
	}

	// A denied request never blocks a fresh petition for the same bits.
	if _, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}}); err != nil {
		t.Fatalf("Resubmission after denial failed: %v", err)
	}
}

func TestRoleRequestService_DeciderPermission(t *testing.T) {
	repo, svc := newRoleRequestFixture(t)
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))
	repo.addUser("pal", models.NewRoleSet(models.RoleStudent))
	ctx := context.Background()

	req, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := svc.Approve(ctx, req.ID, "pal"); !IsPermissionError(err) {
		t.Fatalf("Expected permission error for student decider, got %v", err)
	}
	if repo.requests[req.ID].Status != models.StatusPending {
		t.Error("Denied decision attempt must leave the request untouched")
	}
}

func TestRoleRequestService_Exists(t *testing.T) {
	repo, svc := newRoleRequestFixture(t)
	repo.addUser("sam", models.NewRoleSet(models.RoleStudent))
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "sam", &SubmitRoleRequestRequest{Roles: []string{"reviewer"}}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	exists, err := svc.Exists(ctx, "sam", models.NewRoleSet(models.RoleReviewer, models.RoleStaff))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Overlapping pending request should report exists")
	}

	exists, err = svc.Exists(ctx, "sam", models.NewRoleSet(models.RoleStaff))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Disjoint bits should not report exists")
	}
}
