// Package app wires configuration, storage and use cases together for the
// API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/adapter/chromedp_render"
	"github.com/user/site-auditor/internal/adapter/dnscheck"
	"github.com/user/site-auditor/internal/adapter/httpcheck"
	"github.com/user/site-auditor/internal/adapter/postgres"
	redis_adapter "github.com/user/site-auditor/internal/adapter/redis"
	"github.com/user/site-auditor/internal/adapter/tlsprobe"
	"github.com/user/site-auditor/internal/adapter/xlsx"
	"github.com/user/site-auditor/internal/usecase"
	"github.com/user/site-auditor/pkg/config"
	"github.com/user/site-auditor/pkg/metrics"
)

// App holds the long-lived connections and the use cases built on them.
type App struct {
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Metrics    *metrics.Metrics
	Runner     usecase.BatchRunner
	Controller usecase.Controller
}

// NewAnalyzer builds the check pipeline. It needs no storage, so the CLI can
// use it on its own.
func NewAnalyzer(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) usecase.Analyzer {
	id := httpcheck.Identity{UserAgent: cfg.UserAgent, AcceptLanguage: cfg.AcceptLanguage}
	stages := usecase.Stages{
		Tech:    httpcheck.NewTechDetector(cfg.TechTimeout, id, logger.Named("tech")),
		TLS:     tlsprobe.NewProber(cfg.TLSTimeout, logger.Named("tls")),
		Headers: httpcheck.NewHeaderAuditor(cfg.HeaderTimeout, logger.Named("headers")),
		Auth:    dnscheck.NewChecker(dnscheck.NewResolver(cfg.DNSTimeout, cfg.Nameservers()), logger.Named("dns")),
		Render:  chromedp_render.NewChromedpRenderer(cfg.RenderTimeout, cfg.UserAgent, cfg.AcceptLanguage, logger.Named("render")),
	}
	return usecase.NewAnalyzer(stages, cfg.ParallelStages, m, logger.Named("analyzer"))
}

// New connects to PostgreSQL and Redis, ensures the schema and builds the
// use cases. Background runs started by the controller live as long as baseCtx.
func New(baseCtx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*App, error) {
	m := metrics.New(reg)

	// PostgreSQL
	dbpool, err := pgxpool.New(baseCtx, cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := dbpool.Ping(baseCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := postgres.EnsureSchema(baseCtx, dbpool); err != nil {
		dbpool.Close()
		return nil, err
	}
	logger.Info("PostgreSQL connection pool established")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(baseCtx).Err(); err != nil {
		dbpool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("Redis connection established")

	// --- Repositories ---
	siteRepo := postgres.NewSiteRepo(dbpool)
	resultRepo := postgres.NewResultRepo(dbpool)
	lockRepo := redis_adapter.NewLockRepo(rdb)
	eventRepo := redis_adapter.NewEventRepo(rdb, cfg.EventHistory)

	// --- Use Cases ---
	analyzer := NewAnalyzer(cfg, m, logger)
	processor := usecase.NewSiteProcessor(analyzer, siteRepo, resultRepo, logger.Named("processor"))
	runner := usecase.NewBatchRunner(
		usecase.BatchRunnerConfig{BatchSize: cfg.BatchSize, SitesPerSecond: cfg.SitesPerSecond},
		siteRepo, processor, eventRepo, m, logger.Named("runner"),
	)
	ctrl := usecase.NewController(baseCtx, usecase.ControlConfig{LockTTL: cfg.RunLockTTL},
		runner, processor, siteRepo, resultRepo, lockRepo, eventRepo, xlsx.NewExporter(), logger.Named("control"))

	return &App{
		DB:         dbpool,
		Redis:      rdb,
		Metrics:    m,
		Runner:     runner,
		Controller: ctrl,
	}, nil
}

// Close releases the connections.
func (a *App) Close() {
	a.DB.Close()
	_ = a.Redis.Close()
}
