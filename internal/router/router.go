package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/handler"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/storage"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Course       *handler.CourseHandler
	Assignment   *handler.AssignmentHandler
	Material     *handler.MaterialHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
	System       *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by the router, such as rate limiter cleanup.
func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	authService *service.AuthService,
	users service.UserStore,
	blobs storage.BlobStore,
	handlers *Handlers,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	// Upload keys carry a random UUID, so a URL never changes content.
	if local, ok := blobs.(*storage.LocalStore); ok {
		uploadsGroup := router.Group("/uploads")
		uploadsGroup.Use(middleware.CacheControl(31536000))
		{
			uploadsGroup.Static("/", local.Dir())
		}
	}

	router.GET("/health", middleware.NoStore(), handlers.System.Health)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimitPerMin, time.Minute)

	public := router.Group("/api/v1")
	public.Use(middleware.NoStore(), authLimiter.Middleware())
	{
		public.POST("/login", handlers.Auth.Login)
		public.POST("/refresh", handlers.Auth.Refresh)
	}

	// ─── 2. Authenticated API ──────────────────────────────────────────
	// Role and ownership checks happen in the services.
	api := router.Group("/api/v1")
	api.Use(
		middleware.NoStore(),
		middleware.RequireAuth(authService),
		middleware.RequireActiveUser(users, log),
	)
	{
		api.POST("/logout", handlers.Auth.Logout)
		api.POST("/register", handlers.User.Register)

		api.GET("/users", handlers.User.ListUsers)
		api.GET("/users/me", handlers.User.Me)
		api.GET("/users/:id", handlers.User.GetUser)
		api.PUT("/users/:id", handlers.User.UpdateUser)
		api.POST("/users/:id/disable", handlers.User.DisableUser)
		api.POST("/users/:id/enable", handlers.User.EnableUser)
		api.POST("/users/:id/reset-password", handlers.User.ResetPassword)
		api.GET("/users/:id/profile", handlers.User.GetProfile)
		api.PUT("/users/:id/profile", handlers.User.UpdateProfile)

		api.POST("/courses", handlers.Course.CreateCourse)
		api.GET("/courses", handlers.Course.ListCourses)
		api.GET("/courses/:id", handlers.Course.GetCourse)
		api.PATCH("/courses/:id", handlers.Course.UpdateCourse)
		api.PATCH("/courses/:id/archive", handlers.Course.ArchiveCourse)
		api.POST("/courses/:id/enroll", handlers.Course.Enroll)
		api.POST("/courses/:id/opt-out", handlers.Course.OptOut)
		api.GET("/courses/:id/assignments", handlers.Course.ListAssignments)
		api.GET("/courses/:id/materials", handlers.Course.ListMaterials)

		api.POST("/assignments", handlers.Assignment.CreateAssignment)
		api.GET("/assignments/:id", handlers.Assignment.GetAssignment)
		api.PUT("/assignments/:id", handlers.Assignment.UpdateAssignment)
		api.DELETE("/assignments/:id", handlers.Assignment.DeleteAssignment)
		api.PATCH("/assignments/:id/complete", handlers.Assignment.CompleteAssignment)

		api.POST("/materials", handlers.Material.UploadMaterial)
		api.GET("/materials/:id", handlers.Material.GetMaterial)
		api.PUT("/materials/:id", handlers.Material.UpdateMaterial)
		api.DELETE("/materials/:id", handlers.Material.DeleteMaterial)

		api.POST("/create-notification", handlers.Notification.CreateNotification)
		api.GET("/notifications", handlers.Notification.ListNotifications)
		api.PATCH("/notifications/:id/read", handlers.Notification.MarkRead)
		api.POST("/send-email", handlers.Notification.SendEmail)
		api.GET("/mail", handlers.Notification.ListEmails)
	}

	// ─── 3. WebSocket Group (query token auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.RequireActiveUser(users, log),
	)
	{
		ws.GET("/notifications/stream", handlers.WS.NotificationStream)
	}

	return router
}
