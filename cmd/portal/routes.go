package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/thesis-portal/api/swagger"
	"github.com/noah-isme/thesis-portal/internal/handler"
	"github.com/noah-isme/thesis-portal/internal/middleware"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	"github.com/noah-isme/thesis-portal/pkg/config"
	"github.com/noah-isme/thesis-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/thesis-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/thesis-portal/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(middleware.BackendRequestID())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(app.metrics, app.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Swagger && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(app.sessions, app.permissions)
	dashboardHandler := handler.NewDashboardHandler(app.dashboard, app.views)
	projectHandler := handler.NewProjectHandler(app.workflow, app.views, app.audit, app.permissions)
	invitationHandler := handler.NewInvitationHandler(app.invitations, app.views)
	meetingHandler := handler.NewMeetingHandler(app.meetings)
	notificationHandler := handler.NewNotificationHandler(app.notifications, 0)
	catalogHandler := handler.NewCatalogHandler(app.catalogs)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", middleware.OptionalSession(app.sessions), authHandler.Login)

	// The event stream authenticates from the query string since EventSource
	// cannot send headers.
	api.GET("/notifications/stream", middleware.Session(app.sessions, middleware.AllowQueryToken()), notificationHandler.Stream)

	secured := api.Group("")
	secured.Use(middleware.Session(app.sessions))
	secured.Use(middleware.AuditDenied(app.audit))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("", dashboardHandler.Get)
	dashboard.POST("/reload", dashboardHandler.Reload)
	dashboard.POST("/modal", dashboardHandler.Modal)

	projects := secured.Group("/projects")
	projects.GET("/actions", projectHandler.Actions)
	projects.POST("", middleware.RequirePermission(app.permissions, service.PermCreateProject), projectHandler.Create)
	projects.GET("/:id", projectHandler.Get)
	projects.GET("/:id/history", middleware.RequirePermission(app.permissions, service.PermViewHistory), projectHandler.History)
	projects.POST("/:id/status", middleware.RequirePermission(app.permissions, service.PermChangeStatus), projectHandler.ChangeStatus)
	projects.GET("/:id/audit", middleware.RequireRoles(models.RoleAdmin), projectHandler.AuditTrail)
	projects.POST("/:id/meetings", middleware.RequirePermission(app.permissions, service.PermScheduleMeeting), meetingHandler.Request)

	invitations := secured.Group("/invitations")
	invitations.POST("/director", middleware.RequireRoles(models.RoleStudent), invitationHandler.InviteDirector)
	invitations.DELETE("/director", middleware.RequireRoles(models.RoleStudent), invitationHandler.CancelDirectorInvite)
	invitations.POST("/peer", middleware.RequireRoles(models.RoleStudent), invitationHandler.InvitePeer)

	secured.GET("/students/lookup", middleware.RequireRoles(models.RoleStudent), invitationHandler.LookupStudent)
	secured.GET("/directors", middleware.RequireRoles(models.RoleStudent), invitationHandler.SearchDirectors)

	notifications := secured.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.GET("/current", notificationHandler.Current)
	notifications.POST("/:id/respond", invitationHandler.Respond)
	notifications.POST("/:id/read", invitationHandler.MarkRead)

	meetings := secured.Group("/meetings")
	meetings.GET("", meetingHandler.List)
	meetings.POST("/:id/details", middleware.RequireRoles(models.RoleDirector), meetingHandler.RegisterDetails)

	catalogs := secured.Group("/catalogs")
	catalogs.GET("/modalities", catalogHandler.Modalities)
	catalogs.GET("/research-lines", catalogHandler.ResearchLines)
	catalogs.GET("/areas", catalogHandler.Areas)
	catalogs.GET("/areas/:id/research-lines", catalogHandler.LinesByArea)
	catalogs.GET("/status-events", catalogHandler.StatusEvents)
	catalogs.GET("/statuses", catalogHandler.Statuses)
	catalogs.DELETE("/cache", middleware.RequireRoles(models.RoleAdmin), catalogHandler.Invalidate)

	if app.exports != nil {
		exportHandler := handler.NewExportHandler(app.exports)
		// Download links carry their own signature and are opened outside the
		// session, e.g. by the browser's download manager.
		api.GET("/exports/download/:token", exportHandler.Download)

		exports := secured.Group("/exports")
		exports.Use(middleware.RequirePermission(app.permissions, service.PermViewAllProjects))
		exports.POST("", exportHandler.Create)
		exports.GET("", exportHandler.List)
		exports.GET("/:id", exportHandler.Status)
	}

	return r
}
