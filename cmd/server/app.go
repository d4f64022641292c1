package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/api"
	apiMiddleware "github.com/srujana-egov/pgr-on-digit3.0/internal/api/middleware"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/config"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/events"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/cache"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/metrics"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/postgres"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/service"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/task"
)

// digitClients are the platform service clients shared by the orchestrator,
// the notification tasks and the diagnostics.
type digitClients struct {
	idgen        *digit.IDGenClient
	boundary     *digit.BoundaryClient
	filestore    *digit.FileStoreClient
	workflow     *digit.WorkflowClient
	notification *digit.NotificationClient
	account      *digit.AccountClient
}

func newDigitClients(cfg config.ServicesConfig, logger *slog.Logger, opts ...digit.Option) digitClients {
	client := func(name, host string) *digit.Client {
		return digit.NewClient(name, host, cfg.Timeout, logger, opts...)
	}
	return digitClients{
		idgen:        digit.NewIDGenClient(client("idgen", cfg.IDGenHost)),
		boundary:     digit.NewBoundaryClient(client("boundary", cfg.BoundaryHost)),
		filestore:    digit.NewFileStoreClient(client("filestore", cfg.FileStoreHost)),
		workflow:     digit.NewWorkflowClient(client("workflow", cfg.WorkflowHost)),
		notification: digit.NewNotificationClient(client("notification", cfg.NotificationHost)),
		account:      digit.NewAccountClient(client("account", cfg.AccountHost)),
	}
}

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	metrics      *metrics.Metrics
	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner

	claims                *apiMiddleware.ClaimsMiddleware
	serviceRequestHandler *api.ServiceRequestHandler
	libraryCheckHandler   *api.LibraryCheckHandler
}

// newApplication wires the stores, clients, background runner and handlers.
// The task runner is started before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	claims, err := apiMiddleware.NewClaimsMiddleware(apiMiddleware.Verification{
		HMACSecret:   cfg.Auth.JWTSecret,
		RSAPublicKey: cfg.Auth.PublicKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure token verification: %w", err)
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		claims: claims,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.New(registry)

	clients := newDigitClients(cfg.Services, logger,
		digit.WithObserver(app.metrics),
		digit.WithRetryOn5xx(cfg.Services.RetryOn5xx))

	var processCache service.ProcessCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("process cache unavailable, resolving process ids on every call",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()))
		} else {
			app.redis = rc
			processCache = cache.NewProcessCache(rc, cfg.Redis.ProcessCacheTTL, logger)
		}
	}

	app.taskRunner = task.NewTaskRunner(postgres.NewPostgresTaskStore(db, logger), task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
		TaskTimeout: task.DefaultTaskRunnerConfig().TaskTimeout,
	}, logger)
	app.taskRunner.SetErrorHandler(func(t task.Task, err error) {
		logger.Warn("notification task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("error", err.Error()))
	})

	emitter := events.NewInMemoryEventEmitter(logger)
	factory := task.NewNotificationTaskFactory(task.NotificationSettings{
		EmailTemplateID: cfg.Notification.EmailTemplateID,
		SMSTemplateID:   cfg.Notification.SMSTemplateID,
		Version:         cfg.Notification.Version,
		TrackURLBase:    cfg.Notification.TrackURLBase,
		SMSEnabled:      cfg.Notification.SMSEnabled,
	}, clients.notification, app.metrics, logger)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))
	app.eventEmitter = emitter

	svc, err := service.NewServiceRequestService(service.Dependencies{
		DB:              db,
		Requests:        postgres.NewPostgresServiceRequestStore(db, logger),
		Addresses:       postgres.NewPostgresAddressStore(db, logger),
		Documents:       postgres.NewPostgresDocumentStore(db, logger),
		Audits:          postgres.NewPostgresAuditStore(db, logger),
		WorkflowHistory: postgres.NewPostgresWorkflowHistoryStore(db, logger),
		IDGen:           clients.idgen,
		Validator: service.NewRequestValidator(clients.boundary, clients.filestore,
			service.ParsePolicy(cfg.Validation.Policy), logger),
		Processes: service.NewProcessResolver(clients.workflow, processCache, app.metrics, logger),
		Workflow:  clients.workflow,
		Events:    app.eventEmitter,
		Observer:  app.metrics,
	}, service.Settings{
		IDGenTemplateCode:   cfg.IDGen.TemplateCode,
		OrgCode:             cfg.IDGen.OrgCode,
		WorkflowProcessCode: cfg.Workflow.ProcessCode,
		CreateAction:        cfg.Workflow.CreateAction,
		CreateComment:       cfg.Workflow.CreateComment,
		UpdateComment:       cfg.Workflow.UpdateComment,
	}, logger)
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to create service request service: %w", err)
	}

	app.serviceRequestHandler = api.NewServiceRequestHandler(svc, logger)
	app.libraryCheckHandler = api.NewLibraryCheckHandler(api.LibraryCheckClients{
		Boundary:     clients.boundary,
		Account:      clients.account,
		Workflow:     clients.workflow,
		IDGen:        clients.idgen,
		Notification: clients.notification,
	}, logger)

	if err := app.taskRunner.Start(); err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) closeRedis() {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error("error closing redis connection", slog.String("error", err.Error()))
	}
	app.redis = nil
}

// cleanup drains background work and closes connections.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	app.closeRedis()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
