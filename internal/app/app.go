package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/db"
	"github.com/yungbote/missions-backend/internal/data/repos"
	"github.com/yungbote/missions-backend/internal/data/seed"
	apphttp "github.com/yungbote/missions-backend/internal/http"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/services"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Cfg        *Config
	Metrics    *observability.Metrics
	Repos      repos.Set
	Aggregates Aggregates
	Services   Services
	Clients    Clients
	Router     *gin.Engine
	Server     *apphttp.Server

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger and, when a token is configured,
// forwards Error and Fatal records to Rollbar.
func NewLogger(cfg *Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	env := cfg.Rollbar.Environment
	if env == "" {
		env = cfg.Observability.Environment
	}
	if rep := logger.NewRollbarReporter(logger.RollbarConfig{
		Token:       cfg.Rollbar.Token,
		Environment: env,
		CodeVersion: cfg.Observability.Version,
	}); rep != nil {
		log = log.WithReporter(rep)
	}
	return log, nil
}

// OpenDatabase connects to Postgres without wiring anything else. The
// migrate and seed commands use it directly.
func OpenDatabase(log *logger.Logger, cfg *Config) (*db.PostgresService, error) {
	pg, err := db.NewPostgresService(log, cfg.Postgres())
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	return pg, nil
}

func New(ctx context.Context, cfg *Config) (*App, error) {
	log, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	metrics := observability.Init(log, observability.Config{
		Enabled:        cfg.Observability.MetricsEnabled,
		ScrapeInterval: cfg.Observability.ScrapeInterval,
	})
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Observability.OtelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Observability.Environment,
		Version:     cfg.Observability.Version,
		Endpoint:    cfg.Observability.OtelEndpoint,
		Headers:     cfg.Observability.OtelHeaders,
		Insecure:    cfg.Observability.OtelInsecure,
		SampleRatio: cfg.Observability.OtelSampleRatio,
	})

	pg, err := OpenDatabase(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	aggs := wireAggregates(theDB, log, metrics, reposet)
	serviceset := wireServices(log, cfg, metrics, reposet, aggs, clients)

	sqlDB, err := theDB.DB()
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	handlerset := wireHandlers(log, serviceset, sqlDB)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)
	server := apphttp.NewServer(log, router, apphttp.ServerConfig{
		Addr:            cfg.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Repos:        reposet,
		Aggregates:   aggs,
		Services:     serviceset,
		Clients:      clients,
		Router:       router,
		Server:       server,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Run starts background work and serves HTTP until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Observability.MetricsAddr)
	a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}
	if err := a.Services.Reconciler.Start(ctx); err != nil {
		return fmt.Errorf("start certificate reconciler: %w", err)
	}
	return a.Server.Run(ctx)
}

// Reconcile runs a single certificate reconciliation pass.
func (a *App) Reconcile(ctx context.Context) services.ReconcileResult {
	return a.Services.Reconciler.RunOnce(ctx)
}

// Seed loads the curriculum from path, or the embedded default when empty.
func Seed(ctx context.Context, log *logger.Logger, theDB *gorm.DB, path string) (seed.Result, error) {
	var (
		c   *seed.Curriculum
		err error
	)
	if path == "" {
		c, err = seed.Default()
	} else {
		c, err = seed.LoadFile(path)
	}
	if err != nil {
		return seed.Result{}, fmt.Errorf("load curriculum: %w", err)
	}
	return seed.Apply(ctx, theDB, log, c)
}

// Close waits briefly for queued emails, flushes traces and error reports,
// then releases clients and the database pool.
func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Services.Notifier != nil {
		if err := a.Services.Notifier.Wait(ctx); err != nil {
			a.Log.Warn("pending notifications dropped on shutdown", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	logger.FlushReporter()
	if a.Log != nil {
		a.Log.Sync()
	}
}
