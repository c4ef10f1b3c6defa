// api/routes/router.go
package routes

import (
	"fmt"
	"net/http"
	"time"

	"seatline/internal/auth"
	"seatline/internal/confirmations"
	"seatline/internal/events"
	"seatline/internal/notifications"
	"seatline/internal/reservations"
	"seatline/internal/seats"
	"seatline/internal/shared/config"
	"seatline/internal/shared/database"
	"seatline/internal/shared/middleware"
	"seatline/internal/tokens"
	"seatline/internal/users"
	"seatline/pkg/cache"
	"seatline/pkg/datefmt"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher notifications.Publisher
	mailer    notifications.Mailer

	cache      cache.Service
	dates      datefmt.Options
	requireJWT gin.HandlerFunc

	userRepo        users.Repository
	eventRepo       events.Repository
	seatRepo        seats.Repository
	reservationRepo reservations.Repository

	seatService        seats.Service
	reservationService reservations.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher, mailer notifications.Mailer) *Router {
	r := &Router{
		config:     cfg,
		db:         db,
		publisher:  publisher,
		mailer:     mailer,
		dates:      datefmt.NewOptions(cfg.Locale.TimeZone, cfg.Locale.Language),
		requireJWT: middleware.JWTAuthWithConfig(cfg),

		userRepo:        users.NewRepository(db.SQL),
		eventRepo:       events.NewRepository(db.SQL),
		seatRepo:        seats.NewRepository(db.SQL),
		reservationRepo: reservations.NewRepository(db.SQL),
	}
	if db.Redis != nil {
		r.cache = cache.NewService(db.Redis)
	}
	return r
}

// Reservations exposes the reservation service once SetupRoutes has run, so
// the reaper shares it with the handlers.
func (r *Router) Reservations() reservations.Service {
	return r.reservationService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupUserRoutes(api)
		r.setupEventRoutes(api)
		r.setupSeatRoutes(api)
		r.setupReservationRoutes(api)
		r.setupTokenRoutes(api)
		if err := r.setupConfirmationRoutes(api); err != nil {
			return err
		}
	}
	return nil
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatline-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatline-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		cacheReachable := r.cache != nil && r.cache.Ping(c.Request.Context()) == nil
		c.JSON(http.StatusOK, gin.H{
			"status":         "operational",
			"api_version":    r.config.APIVersion,
			"session_ttl":    r.config.Reservation.SessionTTL.String(),
			"events_broker":  r.config.Broker.Kind,
			"database":       r.config.Database.Driver,
			"redis_attached": r.db.Redis != nil,
			"cache_healthy":  cacheReachable,
			"timestamp":      time.Now(),
		})
	})
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authService := auth.NewService(r.userRepo, r.config)
	authController := auth.NewController(authService)
	auth.NewRouter(authController, r.requireJWT).SetupRoutes(rg)
}

func (r *Router) setupUserRoutes(rg *gin.RouterGroup) {
	userController := users.NewController(users.NewService(r.userRepo))
	users.SetupUserRoutes(rg, userController, r.requireJWT, middleware.RequireAdmin())
}

func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	eventService := events.NewService(r.eventRepo, r.cache, r.dates)
	events.SetupEventRoutes(rg, events.NewController(eventService), r.requireJWT)
}

func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) {
	r.seatService = seats.NewService(r.seatRepo, r.eventRepo, r.cache)
	seats.SetupSeatRoutes(rg, seats.NewController(r.seatService))
}

func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	var locker reservations.ClaimLocker
	if r.db.Redis != nil {
		locker = reservations.NewRedisClaimLocker(r.db.Redis, r.config.Redis.ClaimLockTTL)
	}

	r.reservationService = reservations.NewService(
		r.reservationRepo,
		r.config.Reservation.SessionTTL,
		locker,
		r.seatService,
		r.publisher,
	)
	reservations.SetupReservationRoutes(rg, reservations.NewController(r.reservationService), r.requireJWT)
}

func (r *Router) setupTokenRoutes(rg *gin.RouterGroup) {
	tokenService := tokens.NewService(tokens.NewRepository(r.db.SQL))
	tokens.SetupTokenRoutes(rg, tokens.NewController(tokenService), r.requireJWT)
}

func (r *Router) setupConfirmationRoutes(rg *gin.RouterGroup) error {
	service, err := NewConfirmationService(r.reservationRepo, r.userRepo, r.eventRepo, r.seatRepo, r.dates, r.mailer)
	if err != nil {
		return err
	}
	confirmations.SetupConfirmationRoutes(rg, confirmations.NewController(service), r.requireJWT)
	return nil
}

// NewConfirmationService wires the confirmation builder and renderers. The
// notifier binary shares it with the HTTP API.
func NewConfirmationService(
	reservationRepo reservations.Repository,
	userRepo users.Repository,
	eventRepo events.Repository,
	seatRepo seats.Repository,
	dates datefmt.Options,
	mailer notifications.Mailer,
) (confirmations.Service, error) {
	renderer, err := confirmations.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmation templates: %w", err)
	}
	builder := confirmations.NewBuilder(reservationRepo, userRepo, eventRepo, seatRepo, dates)
	return confirmations.NewService(builder, renderer, confirmations.NewPDFRenderer(), mailer), nil
}
