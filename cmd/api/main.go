package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/config"
	_ "portfolio-backend/docs" // Important for Swagger
	v1 "portfolio-backend/internal/delivery/http/v1"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/repository/auditlog"
	"portfolio-backend/internal/usecase"
	"portfolio-backend/pkg/email"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/security"
	"portfolio-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Portfolio Contact API
// @version         1.0
// @description     Contact form backend: validation, per-client rate limiting and email delivery.
// @host            localhost:8080
// @BasePath        /api
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logCloser := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer logCloser.Close()
	secLog := security.InitSecurityLogger("portfolio-backend", cfg.Environment)
	defer secLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Log.Info("Starting portfolio backend", "port", cfg.Port, "store", cfg.RateLimitStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Rate Limit Store
	store, closeStore, err := newRateLimitStore(ctx, cfg)
	if err != nil {
		logger.Log.Error("Failed to open rate limit store", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	limiter := ratelimit.New(store, ratelimit.WithFailClosed(cfg.RateLimitFailClosed))

	// 4. Setup Email Service
	emailService := email.NewEmailService(cfg)
	if !emailService.Configured() {
		logger.Log.Warn("SMTP relay not configured - contact emails will go to the fallback relay", "addr", cfg.MailFallbackAddr)
	}

	// 5. Setup UseCases
	contactUC := usecase.NewContactUsecase(
		limiter,
		validation.NewContactValidator(cfg.MaxMessageLength),
		emailService,
		auditlog.NewFileLog(cfg.AuditLogDir, cfg.Location()),
		usecase.ContactConfig{
			Recipient:   cfg.ContactEmailTo,
			Limit:       cfg.RateLimit,
			Window:      cfg.RateLimitWindow(),
			SendTimeout: cfg.SendTimeout,
			Location:    cfg.Location(),
		},
	)
	healthUC := usecase.NewHealthUsecase(cfg.APIVersion, limiter)

	// 6. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  healthUC,
		Security:  secLog,
		Config:    cfg,
	})

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Leaves room for a full SMTP send
		WriteTimeout: cfg.SendTimeout + 10*time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SendTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	stats := emailService.Stats()
	logger.Log.Info("Server exiting", "emails_sent", stats.Sent, "emails_failed", stats.Failed, "fallback_used", stats.Fallback)
}
