package services

import (
	"context"
	"io"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type IssueInvitationRequest = validator.InvitationIssueRequest
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type SubmitRoleRequestRequest = validator.RoleRequestSubmitRequest
type TrustAddRequest = validator.TrustAddRequest
type FlagRequest = validator.FlagRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type CreateAnswerRequest = validator.AnswerCreateRequest
type CreateReplyRequest = validator.ReplyCreateRequest
type CreateReviewRequest = validator.ReviewCreateRequest

type InvitationResponse struct {
	*models.InvitationCode
	IsExpired bool `json:"is_expired"`
}

type InvitationListResponse struct {
	Invitations []*InvitationResponse `json:"invitations"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

type RoleRequestResponse struct {
	*models.RoleRequest
	FullName string `json:"full_name"`
}

type RoleRequestListResponse struct {
	Requests []*RoleRequestResponse `json:"requests"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	Size     int                    `json:"size"`
}

type MuteResult struct {
	UserName    string           `json:"user_name"`
	Muted       bool             `json:"muted"`
	HiddenItems map[string]int64 `json:"hidden_items"` // rows touched per content kind
}

type ContentListResponse[T any] struct {
	Items []*T  `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

type BulkIssueResult struct {
	Issued []*models.InvitationCode `json:"issued"`
	Errors []string                 `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

// UserService is the identity & role store surface: registration (which
// consumes an invitation code), credential checks, and role lookups.
type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error)

	GetUser(ctx context.Context, userName string) (*models.User, error)
	GetRoleSet(ctx context.Context, userName string) (models.RoleSet, error)
	List(ctx context.Context, filters repositories.UserFilters, requesterName string) ([]*models.User, int64, error)
}

// InvitationService is the invitation ledger. Peek is read-only; Consume
// performs the one-way used flip. The legacy single validate-and-consume
// call is deliberately split in two.
type InvitationService interface {
	Issue(ctx context.Context, req *IssueInvitationRequest, issuedBy string) (*models.InvitationCode, error)
	Peek(ctx context.Context, code string) (*models.InvitationCode, error)
	Consume(ctx context.Context, code string) (*models.InvitationCode, error)
	IsExpired(ctx context.Context, code string) (bool, error)

	// LookupByEmail requires the (email, code) pair; several pending
	// invitations may share one email.
	LookupByEmail(ctx context.Context, email, code string) (*models.InvitationCode, error)

	List(ctx context.Context, filters repositories.InvitationFilters, requesterName string) (*InvitationListResponse, error)
	Revoke(ctx context.Context, code, requesterName string) error
}

// RoleRequestService runs the Pending -> Approved/Denied workflow.
type RoleRequestService interface {
	Submit(ctx context.Context, userName string, req *SubmitRoleRequestRequest) (*models.RoleRequest, error)
	Exists(ctx context.Context, userName string, requested models.RoleSet) (bool, error)

	Approve(ctx context.Context, requestID uint, deciderName string) error
	Deny(ctx context.Context, requestID uint, deciderName string) error

	ListByUser(ctx context.Context, userName string) ([]*models.RoleRequestSummary, error)
	List(ctx context.Context, filters repositories.RoleRequestFilters, requesterName string) (*RoleRequestListResponse, error)
}

// TrustService manages a student's weighted reviewer endorsements.
type TrustService interface {
	Add(ctx context.Context, student string, req *TrustAddRequest) error
	Remove(ctx context.Context, student, reviewer string) error
	SetWeight(ctx context.Context, student, reviewer string, weight int) error
	List(ctx context.Context, student string) ([]*models.TrustEdgeResponse, error)

	// ReviewerExists is the global membership check over the edge set.
	ReviewerExists(ctx context.Context, reviewer string) (bool, error)
	IsTrusted(ctx context.Context, student, reviewer string) (bool, error)
}

// ModerationService owns the flag/hide mutators and the mute cascade.
// Every mutator requires the Staff or Instructor role.
type ModerationService interface {
	Flag(ctx context.Context, kind models.ContentKind, itemID uint, req *FlagRequest, actorName string) error
	ClearFlag(ctx context.Context, kind models.ContentKind, itemID uint, actorName string) error
	Hide(ctx context.Context, kind models.ContentKind, itemID uint, actorName string) error
	Unhide(ctx context.Context, kind models.ContentKind, itemID uint, actorName string) error

	Mute(ctx context.Context, userName, actorName string) (*MuteResult, error)
	Unmute(ctx context.Context, userName, actorName string) (*MuteResult, error)
}

// ContentService creates content items. Bodies are opaque prose; the
// moderation state starts clear.
type ContentService interface {
	CreateQuestion(ctx context.Context, req *CreateQuestionRequest, authorName string) (*models.Question, error)
	CreateAnswer(ctx context.Context, req *CreateAnswerRequest, authorName string) (*models.Answer, error)
	CreateReply(ctx context.Context, req *CreateReplyRequest, authorName string) (*models.Reply, error)
	CreateReview(ctx context.Context, req *CreateReviewRequest, authorName string) (*models.Review, error)
}

// VisibilityService composes role, trust, and moderation state into the
// two view modes every content query needs. Moderation mode requires the
// Staff or Instructor role; it is the same tables unfiltered, not a
// separate store.
type VisibilityService interface {
	ListQuestions(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Question], error)
	ListAnswers(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Answer], error)
	ListReplies(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Reply], error)
	ListReviews(ctx context.Context, filters repositories.ContentFilters, viewerName string) (*ContentListResponse[models.Review], error)

	// VisibleReviewsForTrusted returns public reviews authored by reviewers
	// the student trusts, heaviest trust edge first.
	VisibleReviewsForTrusted(ctx context.Context, student string) ([]*models.Review, error)
}

// ImportExportService handles the admin spreadsheet workflows: bulk
// invitation issue from a roster and the flagged-content report.
type ImportExportService interface {
	BulkIssueInvitations(ctx context.Context, roster io.Reader, issuedBy string) (*BulkIssueResult, error)
	ExportFlaggedContent(ctx context.Context, requesterName string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	User() UserService
	Invitation() InvitationService
	RoleRequest() RoleRequestService
	Trust() TrustService
	Moderation() ModerationService
	Content() ContentService
	Visibility() VisibilityService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
