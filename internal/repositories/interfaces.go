package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// ViewMode selects which visibility slice a content listing returns.
// Public excludes hidden items; Moderation returns everything with the
// flag/hide fields exposed so staff screens can filter further.
type ViewMode string

const (
	ViewPublic     ViewMode = "public"
	ViewModeration ViewMode = "moderation"
)

type UserFilters struct {
	Query   string // search query for name or email
	Role    *models.Role
	IsMuted *bool
	Limit   int
	Offset  int
}

type InvitationFilters struct {
	Email    *string
	IsUsed   *bool
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

type RoleRequestFilters struct {
	UserName  *string
	Status    *models.RequestStatus
	Limit     int
	Offset    int
	SortBy    string // "created_at", "user_name"
	SortOrder string // "asc", "desc"
}

type ContentFilters struct {
	Mode        ViewMode
	Author      *string
	QuestionID  *uint // answers and replies only
	AnswerID    *uint // reviews only
	FlaggedOnly bool  // moderation mode only
	HiddenOnly  bool  // moderation mode only
	Limit       int
	Offset      int
	SortBy      string
	SortOrder   string
}

// ===== REPOSITORY INTERFACES =====

// UserRepository is the identity & role store. Role mutations go through
// UpdateRoles so the request workflow and registration share one write path.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByUserName(ctx context.Context, tx *gorm.DB, userName string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	ExistsByUserName(ctx context.Context, tx *gorm.DB, userName string) (bool, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)

	GetRoleSet(ctx context.Context, tx *gorm.DB, userName string) (models.RoleSet, error)
	UpdateRoles(ctx context.Context, tx *gorm.DB, userName string, roles models.RoleSet) error
	SetMuted(ctx context.Context, tx *gorm.DB, userName string, muted bool) error
}

// InvitationRepository is the invitation ledger.
type InvitationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, code *models.InvitationCode) error
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.InvitationCode, error)
	GetByEmailAndCode(ctx context.Context, tx *gorm.DB, email, code string) (*models.InvitationCode, error)
	List(ctx context.Context, tx *gorm.DB, filters InvitationFilters) ([]*models.InvitationCode, int64, error)

	ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error)

	// MarkUsed flips is_used false -> true and reports whether this call won
	// the flip. A false return with nil error means the code was already
	// consumed (or does not exist); the flip never reverses.
	MarkUsed(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, code string) error
}

type RoleRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, req *models.RoleRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.RoleRequest, error)
	List(ctx context.Context, tx *gorm.DB, filters RoleRequestFilters) ([]*models.RoleRequest, int64, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userName string) ([]*models.RoleRequest, error)

	// FindBlocking returns the requests for userName whose requested bits
	// intersect the given set and whose status is in statuses. The dedup
	// rule queries for Pending/Approved rows.
	FindBlocking(ctx context.Context, tx *gorm.DB, userName string, requested models.RoleSet, statuses []models.RequestStatus) ([]*models.RoleRequest, error)

	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus, decidedBy string) error
}

type TrustRepository interface {
	// Upsert creates the (student, reviewer) edge or updates its weight;
	// the pair is unique so re-adding never duplicates.
	Upsert(ctx context.Context, tx *gorm.DB, edge *models.TrustedReviewer) error
	Remove(ctx context.Context, tx *gorm.DB, student, reviewer string) error
	UpdateWeight(ctx context.Context, tx *gorm.DB, student, reviewer string, weight int) error

	ListByStudent(ctx context.Context, tx *gorm.DB, student string) ([]*models.TrustedReviewer, error)
	Exists(ctx context.Context, tx *gorm.DB, student, reviewer string) (bool, error)

	// ReviewerExists is a global membership check over the whole edge set,
	// not scoped to one student.
	ReviewerExists(ctx context.Context, tx *gorm.DB, reviewer string) (bool, error)
}

// ModerationOps is the uniform flag/hide surface every content repository
// carries. The two booleans are independent axes.
type ModerationOps interface {
	SetFlag(ctx context.Context, tx *gorm.DB, id uint, reason string) error
	ClearFlag(ctx context.Context, tx *gorm.DB, id uint) error
	SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool, reason models.HideReason) error

	// HideAllByAuthor hides every non-hidden item owned by author, tagging
	// the hide with reason. Returns the number of rows hidden.
	HideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, reason models.HideReason) (int64, error)

	// UnhideAllByAuthor unhides the author's items whose hide reason matches
	// onlyReason. Returns the number of rows restored.
	UnhideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, onlyReason models.HideReason) (int64, error)
}

type QuestionRepository interface {
	ModerationOps
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	List(ctx context.Context, tx *gorm.DB, filters ContentFilters) ([]*models.Question, int64, error)
}

type AnswerRepository interface {
	ModerationOps
	Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error)
	List(ctx context.Context, tx *gorm.DB, filters ContentFilters) ([]*models.Answer, int64, error)
}

type ReplyRepository interface {
	ModerationOps
	Create(ctx context.Context, tx *gorm.DB, reply *models.Reply) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Reply, error)
	List(ctx context.Context, tx *gorm.DB, filters ContentFilters) ([]*models.Reply, int64, error)
}

type ReviewRepository interface {
	ModerationOps
	Create(ctx context.Context, tx *gorm.DB, review *models.Review) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Review, error)
	List(ctx context.Context, tx *gorm.DB, filters ContentFilters) ([]*models.Review, int64, error)

	// ListByTrustedReviewers returns visible reviews authored by reviewers
	// the given student trusts, ordered by edge weight descending.
	ListByTrustedReviewers(ctx context.Context, tx *gorm.DB, student string) ([]*models.Review, error)
}
