package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/andesfit/whatsapp-scheduler/internal/api/router"
	"github.com/andesfit/whatsapp-scheduler/internal/booking"
	"github.com/andesfit/whatsapp-scheduler/internal/calendar"
	appconfig "github.com/andesfit/whatsapp-scheduler/internal/config"
	"github.com/andesfit/whatsapp-scheduler/internal/conversation"
	"github.com/andesfit/whatsapp-scheduler/internal/http/handlers"
	"github.com/andesfit/whatsapp-scheduler/internal/messaging"
	"github.com/andesfit/whatsapp-scheduler/internal/observability/metrics"
	"github.com/andesfit/whatsapp-scheduler/internal/schedule"
	"github.com/andesfit/whatsapp-scheduler/internal/scheduling"
	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting whatsapp-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.DefaultTimezone,
	)

	schedulerMetrics := metrics.NewSchedulerMetrics(nil)

	// Booking store: Redis when configured, in-process memory otherwise.
	var store booking.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store = booking.NewRedisStore(redis.NewClient(opts))
		logger.Info("using redis booking store", "addr", cfg.RedisAddr)
	} else {
		store = booking.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, bookings are held in process memory")
	}
	ledger := booking.NewLedger(store)

	// Calendar backend is optional; without it bookings carry no calendar
	// link and availability sees no busy intervals.
	var cal calendar.Backend
	if cfg.CalendarCredentialsPath != "" {
		backend, err := calendar.NewGoogleBackend(context.Background(), cfg.CalendarCredentialsPath, cfg.CalendarID, logger)
		if err != nil {
			logger.Error("failed to initialize calendar backend, continuing without it", "error", err)
		} else {
			cal = backend
		}
	} else {
		logger.Warn("CALENDAR_CREDENTIALS_PATH not set, running without calendar integration")
	}

	orchestrator := scheduling.NewOrchestrator(scheduling.Config{
		Engine: schedule.NewEngine(schedule.HourWindow{
			Start: cfg.BusinessHoursStart,
			End:   cfg.BusinessHoursEnd,
		}),
		Ledger:   ledger,
		Calendar: cal,
		Metrics:  schedulerMetrics,
		Logger:   logger,
		Timezone: cfg.DefaultTimezone,
	})

	var replyMessenger conversation.ReplyMessenger
	if cfg.WhatsAppAPIKey != "" && cfg.WhatsAppPhoneID != "" {
		replyMessenger = messaging.NewWhatsAppSender(cfg.WhatsAppAPIKey, cfg.WhatsAppPhoneID, cfg.WhatsAppBaseURL, logger)
	} else {
		logger.Warn("WhatsApp credentials not set, replies will be logged and dropped")
	}
	convHandler := conversation.NewHandler(conversation.GuideResponder{}, replyMessenger, logger)

	r := router.New(&router.Config{
		Logger: logger,
		WhatsAppWebhooks: handlers.NewWhatsAppWebhookHandler(
			convHandler,
			schedulerMetrics,
			logger,
			cfg.WhatsAppWebhookToken,
			cfg.WhatsAppWebhookSecret,
			cfg.IsDevelopment(),
		),
		AdminBookings:      handlers.NewAdminBookingsHandler(orchestrator, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
