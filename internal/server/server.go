// Package server contains the HTTP handlers for the event and content API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/notifications"
	"eventhub/internal/repository"
	"eventhub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
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
	store          *repository.Store
	promMiddleware *fiberprometheus.FiberPrometheus
	dispatcher     *notifications.Dispatcher

	eventService        *service.EventService
	registrationService *service.RegistrationService
	postService         *service.PostService
	commentService      *service.CommentService
	likeService         *service.LikeService
}

// Options carries the optional collaborators of a Server.
type Options struct {
	// Metrics is registered on the default Prometheus registry, so it is
	// built once by the caller.
	Metrics *fiberprometheus.FiberPrometheus
	// Pusher overrides the web-push transport chosen from the VAPID config.
	Pusher notifications.Pusher
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The bootstrap layer establishes DB and Redis; redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts Options) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}

	store := repository.NewStore(db)

	pusher := opts.Pusher
	if pusher == nil {
		if cfg.PushEnabled() {
			pusher = notifications.NewWebPusher(notifications.VAPIDConfig{
				PublicKey:  cfg.VAPIDPublicKey,
				PrivateKey: cfg.VAPIDPrivateKey,
				Subject:    cfg.VAPIDSubject,
				TTLSeconds: cfg.PushTTLSeconds,
			}, nil)
		} else {
			pusher = notifications.NoopPusher{}
		}
	}

	dispatcher := notifications.NewDispatcher(store, pusher, notifications.NewPublisher(redisClient), notifications.Options{
		Workers:   cfg.PushWorkers,
		QueueSize: cfg.PushQueueSize,
		Title:     cfg.PushTitle,
	})

	return &Server{
		config:              cfg,
		db:                  db,
		redis:               redisClient,
		store:               store,
		promMiddleware:      opts.Metrics,
		dispatcher:          dispatcher,
		eventService:        service.NewEventService(store, dispatcher, cfg.NotifyAdminsOnCreate),
		registrationService: service.NewRegistrationService(store, dispatcher),
		postService:         service.NewPostService(store, dispatcher),
		commentService:      service.NewCommentService(store),
		likeService:         service.NewLikeService(store, dispatcher),
	}, nil
}

// Start launches the background push workers.
func (s *Server) Start(ctx context.Context) {
	s.dispatcher.Start(ctx)
}

// Shutdown drains the push queue. In-flight deliveries finish or are
// abandoned when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.dispatcher.Shutdown(ctx)
}

// Stop closes app to new requests and then drains the push queue, so
// notifications written by the last requests are still delivered.
func (s *Server) Stop(ctx context.Context, app *fiber.App) error {
	var errs []error
	if app != nil {
		if err := app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := s.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("push dispatcher shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
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

	maxPerMinute := s.config.RateLimitPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 100
	}
	app.Use(limiter.New(limiter.Config{
		Max:        maxPerMinute,
		Expiration: time.Minute,
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
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	auth := middleware.AuthRequired(s.config.JWTSecret, s.resolvePrincipal)

	// Specific /events routes before the public /events/:id
	api.Get("/events/pending", auth, middleware.AdminRequired(), s.ListPendingEvents)

	// Public reads
	api.Get("/events", s.ListEvents)
	api.Get("/events/hosted/:userId", s.ListHostedEvents)
	api.Get("/events/:id", s.GetEvent)
	api.Get("/feed/global", s.GlobalFeed)
	api.Get("/posts/:id", s.GetPost)

	protected := api.Group("", auth)

	events := protected.Group("/events")
	events.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_event"), s.CreateEvent)
	events.Post("/:id/register", middleware.RateLimit(s.redis, 20, time.Minute, "register"), s.RegisterForEvent)
	events.Post("/:id/leave", s.LeaveEvent)
	events.Get("/:id/participants", s.ListParticipants)
	events.Get("/:id/status", s.RegistrationStatus)
	events.Get("/:id/posts", s.ListEventPosts)
	events.Patch("/:id/accept", middleware.AdminRequired(), s.AcceptEvent)
	events.Put("/:id", s.UpdateEvent)
	events.Delete("/:id", s.DeleteEvent)

	registrations := protected.Group("/registrations")
	registrations.Patch("/:id/accept", s.AcceptRegistration)
	registrations.Patch("/:id/attendance", s.MarkAttendance)
	registrations.Delete("/:id", s.DenyRegistration)

	users := protected.Group("/users")
	users.Get("/:userId/registrations", s.ListUserRegistrations)
	users.Get("/:userId/posts", s.ListUserPosts)

	protected.Get("/feed", s.NewsFeed)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/like", s.ToggleLikePost)
	posts.Get("/:id/like", s.PostLikeStatus)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Get("/:id/replies", s.ListReplies)
	comments.Post("/:id/like", s.ToggleLikeComment)
	comments.Get("/:id/like", s.CommentLikeStatus)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	notes := protected.Group("/notifications")
	notes.Get("/", s.ListNotifications)
	notes.Get("/unread-count", s.UnreadCount)
	notes.Put("/read-all", s.MarkAllNotificationsRead)
	notes.Post("/subscribe", s.SubscribePush)
	notes.Delete("/subscribe", s.UnsubscribePush)
	notes.Post("/", middleware.AdminRequired(),
		middleware.RateLimitWithPolicy(s.redis, 30, time.Minute, middleware.FailClosed, "admin_notify"),
		s.SendNotification)
	notes.Put("/:id/read", s.MarkNotificationRead)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so a
// missing client degrades the report without failing the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
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

// resolvePrincipal loads the caller's role for AuthRequired.
func (s *Server) resolvePrincipal(ctx context.Context, userID uint) (models.Principal, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return models.Principal{}, err
	}
	return models.Principal{ID: user.ID, Role: user.Role}, nil
}
