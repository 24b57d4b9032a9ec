package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/cache"
	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

// PostgreSQLRepository implements the aggregate Repository interface.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user        repositories.UserRepository
	invitation  repositories.InvitationRepository
	roleRequest repositories.RoleRequestRepository
	trust       repositories.TrustRepository
	question    repositories.QuestionRepository
	answer      repositories.AnswerRepository
	reply       repositories.ReplyRepository
	review      repositories.ReviewRepository
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates the repository aggregate with all
// sub-repositories wired to the same database handle.
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.user = NewUserPostgreSQL(config.DB, cacheManager)
	repo.invitation = NewInvitationPostgreSQL(config.DB, cacheManager)
	repo.roleRequest = NewRoleRequestPostgreSQL(config.DB)
	repo.trust = NewTrustPostgreSQL(config.DB, cacheManager)
	repo.question = NewQuestionPostgreSQL(config.DB)
	repo.answer = NewAnswerPostgreSQL(config.DB)
	repo.reply = NewReplyPostgreSQL(config.DB)
	repo.review = NewReviewPostgreSQL(config.DB)

	return repo
}

func (r *PostgreSQLRepository) User() repositories.UserRepository               { return r.user }
func (r *PostgreSQLRepository) Invitation() repositories.InvitationRepository   { return r.invitation }
func (r *PostgreSQLRepository) RoleRequest() repositories.RoleRequestRepository { return r.roleRequest }
func (r *PostgreSQLRepository) Trust() repositories.TrustRepository             { return r.trust }
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository       { return r.question }
func (r *PostgreSQLRepository) Answer() repositories.AnswerRepository           { return r.answer }
func (r *PostgreSQLRepository) Reply() repositories.ReplyRepository             { return r.reply }
func (r *PostgreSQLRepository) Review() repositories.ReviewRepository           { return r.review }

// ContentOps lists the moderation surfaces of the four content kinds in
// cascade order.
func (r *PostgreSQLRepository) ContentOps() []repositories.KindOps {
	return []repositories.KindOps{
		{Kind: string(models.KindQuestion), Ops: r.question},
		{Kind: string(models.KindAnswer), Ops: r.answer},
		{Kind: string(models.KindReply), Ops: r.reply},
		{Kind: string(models.KindReview), Ops: r.review},
	}
}

// WithTransaction runs fn inside a single database transaction. Multi-table
// sequences (the mute cascade, submit-with-dedup) go through here so a
// mid-sequence failure rolls everything back.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// ===== REPOSITORY MANAGER =====

type postgresRepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &postgresRepositoryManager{config: config}
}

func (m *postgresRepositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	m.repo = NewPostgreSQLRepository(m.config)
	return nil
}

func (m *postgresRepositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *postgresRepositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repositories not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *postgresRepositoryManager) Shutdown(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
