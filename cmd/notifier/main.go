package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"seatline/api/routes"
	"seatline/internal/confirmations"
	"seatline/internal/events"
	"seatline/internal/notifications"
	"seatline/internal/reservations"
	"seatline/internal/seats"
	"seatline/internal/shared/apperr"
	"seatline/internal/shared/config"
	"seatline/internal/shared/database"
	"seatline/internal/users"
	"seatline/pkg/datefmt"
	"seatline/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// The notifier consumes reservation lifecycle events from Kafka and mails the
// confirmation once a reservation is paid.
func main() {
	appLogger := logger.GetDefault()
	if err := godotenv.Load(); err != nil {
		appLogger.Info("No .env file found, using system environment variables")
	}
	logger.SetDefault(logger.New())
	appLogger = logger.GetDefault()

	cfg := config.Load()
	if cfg.Broker.Kind != "kafka" {
		appLogger.Error("the notifier needs EVENTS_BROKER=kafka", slog.String("events_broker", cfg.Broker.Kind))
		os.Exit(1)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	mailer, err := notifications.NewMailer(cfg.Email)
	if err != nil {
		appLogger.Error("Invalid mail configuration", slog.Any("error", err))
		os.Exit(1)
	}

	service, err := routes.NewConfirmationService(
		reservations.NewRepository(db.SQL),
		users.NewRepository(db.SQL),
		events.NewRepository(db.SQL),
		seats.NewRepository(db.SQL),
		datefmt.NewOptions(cfg.Locale.TimeZone, cfg.Locale.Language),
		mailer,
	)
	if err != nil {
		appLogger.Error("Failed to build confirmation service", slog.Any("error", err))
		os.Exit(1)
	}

	consumerConfig := notifications.DefaultConsumerConfig(cfg.Broker.KafkaBrokers, cfg.Broker.KafkaConsumerGroup, cfg.Broker.KafkaTopic)
	consumerConfig.Types = []notifications.EventType{notifications.EventReservationPaid}

	consumerLogger := appLogger.WithFields(map[string]interface{}{
		"topic": cfg.Broker.KafkaTopic,
		"group": cfg.Broker.KafkaConsumerGroup,
	})
	consumer, err := notifications.NewKafkaConsumer(consumerConfig, confirmationHandler(service, consumerLogger))
	if err != nil {
		appLogger.Error("Failed to create Kafka consumer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return consumer.Errors(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return consumer.Close()
	})

	consumerLogger.Info("Notifier running", slog.Any("brokers", cfg.Broker.KafkaBrokers))
	if err := g.Wait(); err != nil {
		appLogger.Error("Notifier stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("Notifier exited gracefully")
}

// confirmationHandler sends the confirmation of a paid reservation. Failures
// that a retry cannot fix are logged and swallowed.
func confirmationHandler(service confirmations.Service, l *logger.Logger) notifications.Handler {
	return func(ctx context.Context, event *notifications.ReservationEvent) error {
		recipient, err := service.Send(ctx, event.ReservationID)
		if err == nil {
			l.InfoWithContext(ctx, "Confirmation mailed", map[string]interface{}{
				"reservation_id": event.ReservationID.String(),
				"recipient":      recipient,
			})
			return nil
		}

		var delivery *notifications.DeliveryError
		if errors.As(err, &delivery) || apperr.KindOf(err) == apperr.Internal {
			return err
		}
		l.WithError(err).WarnContext(ctx, "confirmation skipped",
			"reservation_id", event.ReservationID.String())
		return nil
	}
}
