package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seatline/api/routes"
	_ "seatline/docs"
	"seatline/internal/notifications"
	"seatline/internal/reservations"
	"seatline/internal/shared/config"
	"seatline/internal/shared/database"
	"seatline/internal/shared/middleware"
	"seatline/pkg/logger"
	"seatline/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title Seatline API
// @version 1.0
// @description Seat reservation sessions for a single venue.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}
	// LOG_LEVEL may come from .env
	logger.SetDefault(logger.New())
	appLogger = logger.GetDefault()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, ratelimit.ConfigFrom(cfg.RateLimit))
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
			slog.Int("claim_requests", cfg.RateLimit.ClaimRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	publisher, err := newPublisher(cfg.Broker)
	if err != nil {
		appLogger.Error("Failed to initialize event publisher, lifecycle events will be dropped", slog.Any("error", err))
		publisher = notifications.NoopPublisher{}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing event publisher", slog.Any("error", err))
		}
	}()

	mailer, err := notifications.NewMailer(cfg.Email)
	if err != nil {
		appLogger.Error("Invalid mail configuration", slog.Any("error", err))
		os.Exit(1)
	}

	appRouter := routes.NewRouter(cfg, db, publisher, mailer)
	engine, err := setupRouter(cfg, appRouter, rateLimiter)
	if err != nil {
		appLogger.Error("Failed to set up routes", slog.Any("error", err))
		os.Exit(1)
	}

	var reaper *reservations.Reaper
	if cfg.Reservation.ReaperEnabled {
		reaper = reservations.NewReaper(appRouter.Reservations(), &reservations.ReaperConfig{
			Interval:  cfg.Reservation.ReaperInterval,
			BatchSize: cfg.Reservation.ReaperBatch,
		})
		reaper.Start(context.Background())
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.String("database", cfg.Database.Driver),
			slog.String("events_broker", cfg.Broker.Kind),
			slog.Duration("session_ttl", cfg.Reservation.SessionTTL),
			slog.Bool("reaper", reaper != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	if reaper != nil {
		reaper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

// newPublisher picks the lifecycle event transport
func newPublisher(cfg config.BrokerConfig) (notifications.Publisher, error) {
	switch cfg.Kind {
	case "", "none":
		return notifications.NoopPublisher{}, nil
	case "kafka":
		publisher, err := notifications.NewKafkaPublisher(notifications.DefaultKafkaProducerConfig(cfg.KafkaBrokers, cfg.KafkaTopic))
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "rabbitmq":
		return notifications.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue), nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Kind)
	}
}

func setupRouter(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) (*gin.Engine, error) {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return originAllowed(cfg.CORSOrigins, origin)
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	registerDocs(engine, cfg)

	if err := appRouter.SetupRoutes(engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// registerDocs serves the Swagger UI outside release mode
func registerDocs(engine *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction() {
		return
	}
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

const requestIDHeader = "X-Request-ID"

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		requestLogger := l.WithRequestID(requestID)
		if userID, ok := middleware.CurrentUserID(c); ok {
			requestLogger = requestLogger.WithUserID(userID.String())
		}
		requestLogger.LogHTTPRequest(c, time.Since(start))
	}
}
