package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every entity repository behind one interface so
// services take a single dependency.
type Repository interface {
	// Identity domain
	User() UserRepository
	Invitation() InvitationRepository
	RoleRequest() RoleRequestRepository

	// Trust domain
	Trust() TrustRepository

	// Content domain (moderation state lives on each kind)
	Question() QuestionRepository
	Answer() AnswerRepository
	Reply() ReplyRepository
	Review() ReviewRepository

	// ContentOps returns the moderation surface for a content kind so the
	// mute cascade can iterate the four kinds uniformly.
	ContentOps() []KindOps

	// Transaction support
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// KindOps pairs a content kind with its moderation operations.
type KindOps struct {
	Kind string
	Ops  ModerationOps
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err is the storage layer's not-found
// condition. Services translate it into their own sentinel errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
