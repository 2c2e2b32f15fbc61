package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/orentclinic/booking-bot/internal/api/router"
	"github.com/orentclinic/booking-bot/internal/appointments"
	"github.com/orentclinic/booking-bot/internal/booking"
	appconfig "github.com/orentclinic/booking-bot/internal/config"
	"github.com/orentclinic/booking-bot/internal/http/handlers"
	"github.com/orentclinic/booking-bot/internal/messaging"
	"github.com/orentclinic/booking-bot/internal/observability/metrics"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting booking-bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	repo := appointments.NewRepository(pool)
	store := appointments.NewBookingStore(repo)

	var reservations booking.ReservationStore
	switch cfg.ReservationBackend {
	case "redis":
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		reservations = booking.NewRedisReservationStore(client, cfg.ReservationTTL)
		logger.Info("using redis reservation store", "addr", cfg.RedisAddr)
	default:
		reservations = booking.NewMemoryReservationStore(cfg.ReservationTTL)
		logger.Info("using in-memory reservation store")
	}

	sessions := booking.NewMemorySessionStore()
	calc := booking.NewCalculator(store, reservations, cfg.AdvanceBookingWeekdays)
	sender := messaging.NewWhatsAppSender(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, logger)

	flow := booking.NewFlow(booking.FlowConfig{
		Sessions:     sessions,
		Reservations: reservations,
		Store:        store,
		Calculator:   calc,
		Messenger:    sender,
		Metrics:      bookingMetrics,
		Logger:       logger,
		ClinicPhone:  cfg.ClinicPhone,
	})

	sweeper := booking.NewSweeper(sessions, reservations, bookingMetrics, logger, cfg.SessionTTL, cfg.SweepInterval)
	go sweeper.Run(ctx)

	webhookHandler := handlers.NewWhatsAppWebhookHandler(handlers.WhatsAppWebhookConfig{
		Flow:        flow,
		VerifyToken: cfg.WhatsAppVerifyToken,
		AppSecret:   cfg.WhatsAppAppSecret,
		Logger:      logger,
		Metrics:     bookingMetrics,
	})
	adminHandler := handlers.NewAdminAppointmentsHandler(repo, logger)

	r := router.New(&router.Config{
		Logger:            logger,
		WhatsAppWebhook:   webhookHandler,
		AdminAppointments: adminHandler,
		AdminAuthSecret:   cfg.AdminJWTSecret,
		MetricsHandler:    promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
