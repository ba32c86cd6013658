package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/handler"
	"github.com/noah-isme/upstander-api/internal/middleware"
	"github.com/noah-isme/upstander-api/internal/models"
	"github.com/noah-isme/upstander-api/internal/realtime"
	"github.com/noah-isme/upstander-api/internal/service"
	"github.com/noah-isme/upstander-api/pkg/config"
	"github.com/noah-isme/upstander-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/upstander-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/upstander-api/pkg/middleware/requestid"
	"github.com/noah-isme/upstander-api/pkg/tracker"
)

type services struct {
	intake   *service.IntakeService
	reports  *service.ReportService
	auth     *service.AuthService
	settings *service.SettingsService
	schools  *service.SchoolService
	export   *service.ExportService
	metrics  *service.MetricsService
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, svcs services, broker realtime.Broker, audit middleware.AuditRecorder, limiter middleware.WindowCounter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(tracker.Middleware())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.metrics))

	metricsHandler := handler.NewMetricsHandler(svcs.metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	followUp := handler.NewFollowUpHandler(svcs.intake, svcs.reports, broker, svcs.metrics, logr, cfg.CORS.AllowedOrigins)
	messages := handler.NewMessageHandler(svcs.reports)
	schools := handler.NewSchoolHandler(svcs.schools)
	auth := handler.NewAuthHandler(svcs.auth)
	adminReports := handler.NewAdminReportHandler(svcs.reports, svcs.export)
	settings := handler.NewSettingsHandler(svcs.settings)

	followUpLimit := middleware.RateLimit(limiter, svcs.metrics, logr, middleware.RateLimitConfig{
		Scope:  "follow_up",
		Limit:  cfg.FollowUp.RateLimit,
		Window: cfg.FollowUp.RateWindow,
	})
	requireAdmin := middleware.JWT(svcs.auth)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	{
		api.GET("/schools", schools.Search)
		api.GET("/schools/:schoolId", schools.Get)
		api.POST("/schools/:schoolId/reports", submissionLimit(cfg, limiter, svcs.metrics, logr), followUp.Submit)

		api.POST("/messages", middleware.OptionalJWT(svcs.auth), messages.Post)

		fu := api.Group("/follow-up", followUpLimit)
		fu.POST("/resolve", followUp.Resolve)
		fu.GET("/:code", followUp.View)
		fu.GET("/:code/messages", followUp.ListMessages)
		fu.POST("/:code/messages", followUp.PostMessage)
		fu.GET("/:code/stream", followUp.Stream)

		api.POST("/auth/login", middleware.RateLimit(limiter, svcs.metrics, logr, middleware.RateLimitConfig{
			Scope:  "login",
			Limit:  cfg.FollowUp.RateLimit,
			Window: cfg.FollowUp.RateWindow,
		}), auth.Login)
		api.GET("/auth/me", requireAdmin, auth.Me)

		admin := api.Group("/admin", requireAdmin)
		admin.GET("/settings/notifications", settings.GetNotifications)
		admin.PUT("/settings/notifications", middleware.Audit(audit, logr, models.AuditActionSettings, "settings"), settings.UpdateNotifications)

		reports := admin.Group("/reports", middleware.RequireSchool())
		reports.GET("", adminReports.List)
		reports.GET("/export", middleware.Audit(audit, logr, models.AuditActionExport, "report"), adminReports.Export)
		reports.GET("/:id", adminReports.Get)
		reports.PATCH("/:id/status", middleware.Audit(audit, logr, models.AuditActionStatusChange, "report"), adminReports.UpdateStatus)
		reports.POST("/:id/notes", middleware.Audit(audit, logr, models.AuditActionNoteAppend, "report"), adminReports.AddNote)
		reports.GET("/:id/messages", adminReports.ListMessages)
		reports.POST("/:id/messages", middleware.Audit(audit, logr, models.AuditActionReply, "report"), adminReports.Reply)
	}

	return r
}

// submissionLimit throttles report intake per IP with a looser budget than
// follow-up lookups.
func submissionLimit(cfg *config.Config, limiter middleware.WindowCounter, metrics *service.MetricsService, logr *zap.Logger) gin.HandlerFunc {
	return middleware.RateLimit(limiter, metrics, logr, middleware.RateLimitConfig{
		Scope:  "intake",
		Limit:  cfg.FollowUp.RateLimit * 2,
		Window: cfg.FollowUp.RateWindow,
	})
}
