// Package server contains the HTTP handlers and route table for the social graph API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"socialgraph/internal/bootstrap"
	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/notifications"
	"socialgraph/internal/repository"
	"socialgraph/internal/service"
	"socialgraph/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          storage.Storage
	notifier       *notifications.Notifier

	userRepo    repository.UserRepository
	friendRepo  repository.FriendRepository
	blockRepo   repository.BlockRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository

	friendService  *service.FriendService
	blockService   *service.BlockService
	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// A nil Redis client degrades cache, notifications and rate limiting to no-ops.
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient, nil)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil store falls back to local disk storage under cfg.UploadDir.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Storage) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if cache.GetClient() != redisClient {
		cache.SetClient(redisClient)
	}
	if store == nil {
		store = storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL, int64(cfg.MaxUploadSizeMB)<<20)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialgraph-api"),
		store:          store,
		notifier:       notifications.NewNotifier(redisClient),
		userRepo:       repository.NewUserRepository(db),
		friendRepo:     repository.NewFriendRepository(db),
		blockRepo:      repository.NewBlockRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
	}

	s.friendService = service.NewFriendService(s.friendRepo, s.userRepo, s.notifier)
	s.blockService = service.NewBlockService(s.blockRepo, s.userRepo)
	s.postService = service.NewPostService(s.postRepo, s.userRepo, s.blockService, s.store)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, s.blockService)
	s.userService = service.NewUserService(s.userRepo, s.store,
		time.Duration(cfg.VerifyCodeTTLMinutes)*time.Minute)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request ID and trace ID into the user context.
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Local uploads are served under the path of PUBLIC_BASE_URL.
	if s.config.UploadDir != "" {
		app.Static(mediaMountPath(s.config.PublicBaseURL), s.config.UploadDir)
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Social Graph Metrics Dashboard",
	}))

	// Verification is used before the account can sign in.
	api.Post("/users/verify", middleware.RateLimit(s.redis, 10, 10*time.Minute, "verify"), s.CheckVerifyCode)
	api.Post("/users/verify/code", middleware.RateLimit(s.redis, 3, 10*time.Minute, "verify_code"), s.ResendVerifyCode)

	protected := api.Group("", s.AuthRequired())

	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Get("/requests", s.GetFriendRequests)
	friends.Get("/requests/sent", s.GetSentFriendRequests)
	friends.Post("/requests/:userId", middleware.RateLimit(
		s.redis, 20, time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Post("/requests/:userId/accept", s.AcceptFriendRequest)
	friends.Post("/requests/:userId/refuse", s.RefuseFriendRequest)
	friends.Delete("/requests/:userId", s.CancelFriendRequest)
	friends.Get("/users/:userId", s.GetUserFriends)
	friends.Get("/status/:userId", s.GetFriendshipStatus)
	friends.Delete("/:userId", s.RemoveFriend)

	// Define specific /users/... routes BEFORE the generic /users/:id route
	users := protected.Group("/users")
	users.Get("/blocks", s.GetBlockList)
	users.Post("/blocks", s.SetBlock)
	users.Get("/blocks/:userId", s.CheckIsBlock)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUserProfile)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", s.EditPost)
	posts.Delete("/:id", s.DeletePost)
	posts.Post("/:id/like", s.LikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
}

// AuthRequired returns the bearer token middleware configured for this server.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(middleware.AuthConfig{
		Secret:      s.config.JWTSecret,
		Issuer:      s.config.JWTIssuer,
		Audience:    s.config.JWTAudience,
		Revocations: s.redis,
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional; only the
// database gates readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// newApp builds the fiber app with middleware and routes installed.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Social Graph API",
		BodyLimit: maxBodyBytes(s.config.MaxUploadSizeMB),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// mediaMountPath returns the path component of baseURL, defaulting to /media.
func mediaMountPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/media"
	}
	return strings.TrimRight(u.Path, "/")
}

// maxBodyBytes leaves room for several attachments per multipart request.
func maxBodyBytes(maxUploadMB int) int {
	if maxUploadMB <= 0 {
		return fiber.DefaultBodyLimit
	}
	return (models.MaxPostImages + 1) * maxUploadMB << 20
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.newApp()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
