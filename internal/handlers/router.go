package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type HandlerManager struct {
	authHandler         *AuthHandler
	userHandler         *UserHandler
	invitationHandler   *InvitationHandler
	roleRequestHandler  *RoleRequestHandler
	trustHandler        *TrustHandler
	moderationHandler   *ModerationHandler
	contentHandler      *ContentHandler
	importExportHandler *ImportExportHandler
	authMiddleware      *JWTAuthMiddleware
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authConfig AuthConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewJWTAuthMiddleware(authConfig.Secret, authConfig.Issuer, authConfig.TokenTTL, userRepo)

	return &HandlerManager{
		authHandler:         NewAuthHandler(serviceManager.User(), authMiddleware, logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		invitationHandler:   NewInvitationHandler(serviceManager.Invitation(), logger),
		roleRequestHandler:  NewRoleRequestHandler(serviceManager.RoleRequest(), logger),
		trustHandler:        NewTrustHandler(serviceManager.Trust(), logger),
		moderationHandler:   NewModerationHandler(serviceManager.Moderation(), logger),
		contentHandler:      NewContentHandler(serviceManager.Content(), serviceManager.Visibility(), logger),
		importExportHandler: NewImportExportHandler(serviceManager.ImportExport(), logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")

	// Public routes: registration, login, and the invitation peek the
	// registration form needs before the user has an account.
	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.authHandler.Register)
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/me", hm.authMiddleware.AuthMiddleware(), hm.authHandler.Me)
	}
	v1.GET("/invitations/:code", hm.invitationHandler.PeekInvitation)

	// Content listings: anonymous viewers get the public slice; staff with
	// a token can ask for moderation mode.
	content := v1.Group("")
	content.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		content.GET("/questions", hm.contentHandler.ListQuestions)
		content.GET("/answers", hm.contentHandler.ListAnswers)
		content.GET("/replies", hm.contentHandler.ListReplies)
		content.GET("/reviews", hm.contentHandler.ListReviews)
	}

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Content creation - any authenticated user; reviews additionally
		// check the reviewer role in the service
		authed.POST("/questions", hm.contentHandler.CreateQuestion)
		authed.POST("/answers", hm.contentHandler.CreateAnswer)
		authed.POST("/replies", hm.contentHandler.CreateReply)
		authed.POST("/reviews", hm.authMiddleware.RequireRoleMiddleware(models.RoleReviewer), hm.contentHandler.CreateReview)
		authed.GET("/reviews/trusted", hm.contentHandler.ListTrustedReviews)

		// Role requests
		authed.POST("/role-requests", hm.roleRequestHandler.SubmitRequest)
		authed.GET("/role-requests/mine", hm.roleRequestHandler.ListMyRequests)
		authed.GET("/role-requests", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.roleRequestHandler.ListRequests)
		authed.POST("/role-requests/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.roleRequestHandler.ApproveRequest)
		authed.POST("/role-requests/:id/deny", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.roleRequestHandler.DenyRequest)

		// Trust graph - students manage their own edges
		trust := authed.Group("/trust")
		trust.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			trust.POST("", hm.trustHandler.AddTrustedReviewer)
			trust.GET("", hm.trustHandler.ListTrustedReviewers)
			trust.DELETE("/:reviewer", hm.trustHandler.RemoveTrustedReviewer)
			trust.PUT("/:reviewer/weight", hm.trustHandler.SetWeight)
		}

		// Invitations - staff can list; issue and revoke require admin,
		// enforced in the service
		invitations := authed.Group("/invitations")
		invitations.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff))
		{
			invitations.POST("", hm.invitationHandler.IssueInvitation)
			invitations.GET("", hm.invitationHandler.ListInvitations)
			invitations.DELETE("/:code", hm.invitationHandler.RevokeInvitation)
		}

		// Moderation - staff and instructors
		moderation := authed.Group("/moderation")
		moderation.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleInstructor))
		{
			moderation.POST("/:kind/:id/flag", hm.moderationHandler.FlagContent)
			moderation.DELETE("/:kind/:id/flag", hm.moderationHandler.ClearFlag)
			moderation.POST("/:kind/:id/hide", hm.moderationHandler.HideContent)
			moderation.DELETE("/:kind/:id/hide", hm.moderationHandler.UnhideContent)
			moderation.POST("/users/:user_name/mute", hm.moderationHandler.MuteUser)
			moderation.DELETE("/users/:user_name/mute", hm.moderationHandler.UnmuteUser)
		}

		// Users
		users := authed.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:user_name", hm.userHandler.GetUser)
		}

		// Admin spreadsheet workflows
		admin := authed.Group("/admin")
		{
			admin.POST("/invitations/import", hm.authMiddleware.RequireRoleMiddleware(), hm.importExportHandler.ImportRoster)
			admin.GET("/moderation/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleInstructor), hm.importExportHandler.ExportFlagged)
		}
	}
}
