package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/smilepoint/clinic-api/internal/api/router"
	"github.com/smilepoint/clinic-api/internal/appointments"
	"github.com/smilepoint/clinic-api/internal/calendar"
	appconfig "github.com/smilepoint/clinic-api/internal/config"
	"github.com/smilepoint/clinic-api/internal/dashboard"
	"github.com/smilepoint/clinic-api/internal/drafts"
	"github.com/smilepoint/clinic-api/internal/notifications"
	"github.com/smilepoint/clinic-api/internal/notify"
	"github.com/smilepoint/clinic-api/internal/observability/metrics"
	"github.com/smilepoint/clinic-api/internal/patients"
	"github.com/smilepoint/clinic-api/internal/procedures"
	"github.com/smilepoint/clinic-api/internal/qrtokens"
	"github.com/smilepoint/clinic-api/internal/registration"
	"github.com/smilepoint/clinic-api/internal/reminders"
	"github.com/smilepoint/clinic-api/internal/treatments"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}

	// Initialize repositories
	var (
		patientsRepo      patients.Repository
		appointmentsRepo  appointments.Repository
		proceduresRepo    procedures.Repository
		treatmentsRepo    treatments.Repository
		qrTokensRepo      qrtokens.Repository
		remindersRepo     reminders.Repository
		notificationsRepo notifications.Repository
		statsProvider     dashboard.StatsProvider
	)
	if pool != nil {
		patientsRepo = patients.NewPostgresRepository(pool)
		appointmentsRepo = appointments.NewPostgresRepository(pool)
		proceduresRepo = procedures.NewPostgresRepository(pool)
		treatmentsRepo = treatments.NewPostgresRepository(pool)
		qrTokensRepo = qrtokens.NewPostgresRepository(pool)
		remindersRepo = reminders.NewPostgresRepository(pool)
		notificationsRepo = notifications.NewPostgresRepository(pool)
		statsProvider = dashboard.NewStatsRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		patientsRepo = patients.NewInMemoryRepository()
		appointmentsRepo = appointments.NewInMemoryRepository()
		memProcedures := procedures.NewInMemoryRepository()
		proceduresRepo = memProcedures
		treatmentsRepo = treatments.NewInMemoryRepository(memProcedures)
		qrTokensRepo = qrtokens.NewInMemoryRepository()
		remindersRepo = reminders.NewInMemoryRepository()
		notificationsRepo = notifications.NewInMemoryRepository()
		statsProvider = dashboard.NewMemoryStats(patientsRepo, appointmentsRepo, treatmentsRepo)
	}

	draftKV := setupDraftStore(cfg, logger)
	draftStore := drafts.NewStore(draftKV, cfg.DraftTTL)

	reg, apiMetrics := setupMetrics()

	emailSender := setupEmailSender(cfg, logger)

	tokenService := qrtokens.NewService(qrTokensRepo, cfg.PublicBaseURL)
	calendarService := calendar.NewService(appointmentsRepo, cfg.CalendarFetchLimit, apiMetrics, logger)

	// Initialize handlers
	routerCfg := &router.Config{
		Logger:               logger,
		PatientsHandler:      patients.NewHandler(patientsRepo, logger),
		AppointmentsHandler:  appointments.NewHandler(appointmentsRepo, logger),
		CalendarHandler:      calendar.NewHandler(calendarService, logger),
		ProceduresHandler:    procedures.NewHandler(proceduresRepo, logger),
		TreatmentsHandler:    treatments.NewHandler(treatmentsRepo, logger),
		QRTokensHandler:      qrtokens.NewHandler(tokenService, qrTokensRepo, logger),
		RegistrationHandler:  registration.NewHandler(tokenService, draftStore, patientsRepo, logger),
		NotificationsHandler: notifications.NewHandler(notificationsRepo, logger),
		RemindersHandler:     reminders.NewHandler(remindersRepo, emailSender, cfg.ClinicName, logger),
		DashboardHandler:     dashboard.NewHandler(statsProvider, logger),
		Metrics:              apiMetrics,
		MetricsHandler:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// connectPostgresPool opens a pgx pool when a database URL is configured.
// Returns nil when the URL is empty or the connection cannot be verified.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}

	logger.Info("connected to postgres")
	return pool
}

// setupDraftStore picks the draft backend: Redis when configured, otherwise
// an in-process map suitable for a single instance.
func setupDraftStore(cfg *appconfig.Config, logger *logging.Logger) drafts.KV {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory draft storage")
		return drafts.NewMemoryKV()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	logger.Info("using redis draft storage", "addr", cfg.RedisAddr)
	return drafts.NewRedisKV(redis.NewClient(opts))
}

// setupMetrics builds the prometheus registry with the standard process and
// Go collectors plus the API metrics.
func setupMetrics() (*prometheus.Registry, *metrics.APIMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewAPIMetrics(reg)
}

// setupEmailSender returns the SendGrid sender when an API key is configured,
// otherwise a stub that logs instead of sending.
func setupEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if sender == nil {
		logger.Warn("SENDGRID_API_KEY not set, reminder emails will be logged only")
		return notify.NewStubEmailSender(logger)
	}
	return sender
}
