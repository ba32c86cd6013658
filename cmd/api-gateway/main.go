package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/upstander-api/api/swagger"
	"github.com/noah-isme/upstander-api/internal/realtime"
	"github.com/noah-isme/upstander-api/internal/repository"
	"github.com/noah-isme/upstander-api/internal/service"
	"github.com/noah-isme/upstander-api/internal/validation"
	"github.com/noah-isme/upstander-api/pkg/cache"
	"github.com/noah-isme/upstander-api/pkg/config"
	"github.com/noah-isme/upstander-api/pkg/database"
	"github.com/noah-isme/upstander-api/pkg/jobs"
	"github.com/noah-isme/upstander-api/pkg/logger"
	"github.com/noah-isme/upstander-api/pkg/mailer"
	"github.com/noah-isme/upstander-api/pkg/tracker"
)

// @title Upstander API
// @version 1.0.0
// @description Anonymous bullying reports for schools: intake, reference-code follow-up and the admin dashboard.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if enabled, err := tracker.Init(cfg); err != nil {
		logr.Warn("sentry init failed", zap.Error(err))
	} else if enabled {
		defer tracker.Flush()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	sender, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		logr.Fatal("failed to configure mailer", zap.Error(err))
	}

	reportRepo := repository.NewReportRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	var broker realtime.Broker = realtime.NewLocalBroker()
	if redisClient != nil {
		broker = realtime.NewRedisBroker(redisClient, logr)
	}

	validate := validation.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Schools.CacheTTL, logr, cacheRepo.Enabled())

	notifier := service.NewNotificationService(adminRepo, sender, logr.Named("notifier"), metrics, cfg.PublicBaseURL)
	queue := jobs.NewQueue("notifications", notifier.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notifier.AttachQueue(queue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)

	svcs := services{
		intake:   service.NewIntakeService(reportRepo, notifier, validate, logr, metrics, service.IntakeConfig{MaxCodeAttempts: cfg.Intake.MaxCodeAttempts}),
		reports:  service.NewReportService(reportRepo, noteRepo, conversationRepo, broker, notifier, validate, logr, metrics),
		auth:     service.NewAuthService(adminRepo, auditRepo, validate, logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, AccessTokenExpiry: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer}),
		settings: service.NewSettingsService(adminRepo),
		schools:  service.NewSchoolService(schoolRepo, cacheSvc, cfg.Schools.CacheTTL),
		metrics:  metrics,
	}
	svcs.export = service.NewExportService(svcs.reports)

	router := newRouter(cfg, logr, db, svcs, broker, auditRepo, cacheRepo)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "redis", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
}
