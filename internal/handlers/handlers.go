package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"classhub/api/internal/ability"
	"classhub/api/internal/config"
	"classhub/api/internal/guard"
	"classhub/api/internal/middleware"
	"classhub/api/internal/models"
	"classhub/api/internal/ratelimit"
	"classhub/api/internal/repository"
	"classhub/api/internal/service"
	"classhub/api/internal/session"
	"classhub/api/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *pgxpool.Pool
	cache       *redis.Client
	store       *storage.ObjectStore
	limiter     *ratelimit.Limiter
	sessions    *session.Manager
	authService *service.AuthService
	users       *repository.UserRepository
	groups      *repository.GroupRepository
	assignments *repository.AssignmentRepository
	sessionRepo *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	sessions := session.NewManager(sessionRepo, userRepo, cfg.Auth.SessionLifetime, log)
	auth := service.NewAuthService(userRepo, sessions, cache, cfg, log)
	limiter := ratelimit.NewLimiter(cache, cfg.RateLimit.Window, cfg.RateLimit.FailOpen, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          db,
		cache:       cache,
		store:       store,
		limiter:     limiter,
		sessions:    sessions,
		authService: auth,
		users:       userRepo,
		groups:      groupRepo,
		assignments: assignmentRepo,
		sessionRepo: sessionRepo,
	}
}

// SessionRepo exposes the session repository for the sweep job.
func (h HandlerSet) SessionRepo() *repository.SessionRepository {
	return h.sessionRepo
}

// Register wires the route tree. Health probes sit outside every limiter;
// credential routes carry the strict origin-keyed limiter and run before
// session resolution; everything else resolves the session first and is
// limited per identity.
func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	credentials := v1.Group("/auth")
	credentials.Use(middleware.RateLimitAuth(h.cfg, h.limiter))
	credentials.POST("/register", h.RegisterUser)
	credentials.POST("/login", h.Login)
	credentials.POST("/verify", h.VerifyEmail)

	authed := v1.Group("")
	authed.Use(
		middleware.Session(h.cfg, h.sessions, h.groups, h.log),
		middleware.RateLimitGeneral(h.cfg, h.limiter),
	)

	authed.POST("/auth/logout", h.Logout)

	account := authed.Group("/auth")
	account.Use(guard.Chain(guard.Authenticated(), guard.ActiveAccount()))
	account.POST("/logout-all", h.LogoutAll)
	account.PATCH("/password", h.ChangePassword)
	account.GET("/me", h.Me)
	account.GET("/sessions", h.ListSessions)
	account.DELETE("/sessions/:sessionId", h.RevokeSession)

	groups := authed.Group("/groups/:groupId")
	groups.Use(guard.Chain(guard.Authenticated(), guard.ActiveAccount()))
	groups.GET("", guard.Chain(guard.GroupMemberFromParam("groupId")), h.GetGroup)
	groups.GET("/members", guard.Chain(
		guard.GroupMemberFromParam("groupId"),
		guard.RoleInGroup(models.RoleGroupAdmin, models.RoleTeacher),
	), h.ListGroupMembers)
	groups.GET("/assignments", guard.Chain(guard.GroupMemberFromParam("groupId")), h.ListAssignments)
	groups.POST("/assignments", guard.Chain(
		guard.GroupMemberFromParam("groupId"),
		guard.RoleInGroup(models.RoleGroupAdmin, models.RoleTeacher),
		guard.RequireAbility(ability.ActionCreate, ability.ResourceAssignment),
	), h.CreateAssignment)
	groups.GET("/manage", h.ManageGroup)

	assignments := authed.Group("/assignments/:assignmentId")
	assignments.Use(guard.Chain(guard.Authenticated(), guard.ActiveAccount()))
	assignments.DELETE("", h.DeleteAssignment)
	assignments.POST("/submissions", h.UploadSubmission)

	admin := authed.Group("/admin")
	admin.Use(guard.Chain(
		guard.Authenticated(),
		guard.ActiveAccount(),
		guard.RequireRole(models.RoleSystemAdmin),
	))
	admin.GET("/users", h.AdminListUsers)
	admin.PATCH("/users/:userId/status", h.AdminUpdateUserStatus)
}
