package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/backend"
	"github.com/noah-isme/thesis-portal/internal/handler"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/repository"
	"github.com/noah-isme/thesis-portal/internal/service"
	"github.com/noah-isme/thesis-portal/pkg/cache"
	"github.com/noah-isme/thesis-portal/pkg/config"
	"github.com/noah-isme/thesis-portal/pkg/database"
	"github.com/noah-isme/thesis-portal/pkg/jobs"
	"github.com/noah-isme/thesis-portal/pkg/logger"
	"github.com/noah-isme/thesis-portal/pkg/storage"
)

// @title Thesis Portal API
// @version 1.0.0
// @description Backend-for-frontend of the thesis project portal
// @BasePath /api/v1
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sqlx.DB
	if cfg.RequiresDatabase() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect database", "error", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to prepare schema", "error", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RequiresRedis() {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close()
	}

	app, err := buildApp(ctx, cfg, logr, db, redisClient)
	if err != nil {
		logr.Sugar().Fatalw("failed to build application", "error", err)
	}
	defer app.close()

	r := newRouter(cfg, logr, app)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	metrics       *service.MetricsService
	permissions   *service.PermissionTable
	sessions      *service.SessionService
	audit         *service.AuditService
	catalogs      *service.CatalogService
	dashboard     *service.DashboardRouter
	views         *service.ViewService
	workflow      *service.WorkflowService
	invitations   *service.InvitationService
	meetings      *service.MeetingService
	notifications *service.NotificationService
	exports       *service.ExportJobService
	checks        map[string]handler.ReadinessCheck

	exportQueue *jobs.Queue
}

func (a *application) close() {
	if a.exportQueue != nil {
		a.exportQueue.Stop()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()
	permissions := service.DefaultPermissionTable()

	client, err := backend.New(backend.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.RequestTimeout,
		Observer: metrics,
		Logger:   logr.Named("backend"),
	})
	if err != nil {
		return nil, err
	}

	audit := service.NewAuditService(nil, logr)
	if cfg.Audit.Enabled && db != nil {
		audit = service.NewAuditService(repository.NewAuditRepository(db), logr.Named("audit"))
	}

	sessions, err := service.NewSessionService(ctx, service.SessionServiceParams{
		Store:       newSessionStore(cfg, db, redisClient, logr),
		Auth:        client,
		Permissions: permissions,
		Auditor:     audit,
		Validator:   validate,
		Config: service.SessionConfig{
			Secret:   cfg.Session.Secret,
			TokenTTL: cfg.Session.TokenTTL,
			Issuer:   cfg.Session.Issuer,
		},
		Logger: logr.Named("session"),
	})
	if err != nil {
		return nil, err
	}

	var catalogCache service.CatalogCache
	if redisClient != nil {
		catalogCache = repository.NewCacheRepository(redisClient, logr)
	}
	catalogs := service.NewCatalogService(client, catalogCache, metrics, cfg.Catalogs.CacheTTL, logr.Named("catalog"), cfg.Catalogs.CacheEnabled && catalogCache != nil)

	dashboard := service.NewDashboardRouter(service.DashboardRouterParams{
		Backend: client,
		Events:  catalogs,
		Metrics: metrics,
		Logger:  logr.Named("dashboard"),
	})
	sessions.AddListener(dashboard)

	app := &application{
		metrics:     metrics,
		permissions: permissions,
		sessions:    sessions,
		audit:       audit,
		catalogs:    catalogs,
		dashboard:   dashboard,
		workflow: service.NewWorkflowService(service.WorkflowServiceParams{
			Backend:     client,
			Dashboard:   dashboard,
			Permissions: permissions,
			Auditor:     audit,
			Validator:   validate,
			Logger:      logr.Named("workflow"),
		}),
		invitations: service.NewInvitationService(service.InvitationServiceParams{
			Backend:   client,
			Dashboard: dashboard,
			Auditor:   audit,
			Validator: validate,
			Logger:    logr.Named("invitation"),
		}),
		meetings: service.NewMeetingService(service.MeetingServiceParams{
			Backend:     client,
			Dashboard:   dashboard,
			Permissions: permissions,
			Auditor:     audit,
			Validator:   validate,
			Logger:      logr.Named("meeting"),
		}),
		notifications: service.NewNotificationService(client, cfg.Notifications.PollInterval, metrics, logr.Named("notification")),
		checks: map[string]handler.ReadinessCheck{
			"backend": func(ctx context.Context) error {
				_, err := client.Statuses(ctx)
				return err
			},
		},
	}
	if db != nil {
		app.checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		app.checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	exportEndpoint := ""
	var exportFormats []string
	if cfg.Exports.Enabled {
		if err := app.startExports(ctx, cfg, logr, db, client, validate); err != nil {
			return nil, err
		}
		exportEndpoint = cfg.APIPrefix + "/exports"
		exportFormats = []string{"csv", "pdf"}
	}
	app.views = service.NewViewService(permissions, exportEndpoint, exportFormats)
	return app, nil
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Session, error)
}

func newSessionStore(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) sessionStore {
	switch cfg.Session.Store {
	case config.SessionStorePostgres:
		return repository.NewSessionRepository(db, cfg.Session.TokenTTL, logr)
	case config.SessionStoreRedis:
		return repository.NewSessionCacheRepository(redisClient, cfg.Session.TokenTTL, logr)
	default:
		return service.NewMemorySessionStore()
	}
}

func (a *application) startExports(ctx context.Context, cfg *config.Config, logr *zap.Logger, db *sqlx.DB, client *backend.Client, validate *validator.Validate) error {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(client, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr.Named("export"), nil, nil)

	repo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(repo, exporter, cfg.Exports.WorkerRetries, logr.Named("export_worker"))
	a.exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Observer:   a.metrics,
		Logger:     logr.Named("export_queue"),
	})
	a.exportQueue.Start(ctx)

	a.exports = service.NewExportJobService(service.ExportJobServiceParams{
		Repo:        repo,
		Queue:       a.exportQueue,
		Files:       exporter,
		Permissions: a.permissions,
		Auditor:     a.audit,
		Validator:   validate,
		Config: service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		},
		Logger: logr.Named("export_jobs"),
	})
	a.exports.RecoverPendingJobs(ctx)
	a.exports.StartCleanup(ctx)
	return nil
}
