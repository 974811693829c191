// Package app assembles the services shared by the applyd and applyworker
// binaries from one Config.
package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/export"
	"github.com/joseph-ayodele/jobapply/internal/generation"
	"github.com/joseph-ayodele/jobapply/internal/llm"
	"github.com/joseph-ayodele/jobapply/internal/llm/providers"
	"github.com/joseph-ayodele/jobapply/internal/matching"
	"github.com/joseph-ayodele/jobapply/internal/prompt"
	"github.com/joseph-ayodele/jobapply/internal/repository"
	"github.com/joseph-ayodele/jobapply/internal/sources"
	"github.com/joseph-ayodele/jobapply/internal/storage"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Repos     *repository.Repositories
	Templates *templates.Resolver
	Ledger    *credits.Ledger
	LLM       *llm.Registry
	Runner    *async.Runner

	Generation *generation.Service
	Matching   *matching.Service
	Export     *export.Service

	queue async.Queue
	redis *redis.Client
	rq    *async.RedisQueue
}

// New opens the database, applies migrations when configured and builds
// every service. Workers are not started.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.Connect(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, DB: db}
	if err := a.build(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	if cfg.Database.AutoMigrate {
		if err := a.DB.Migrate(ctx); err != nil {
			return err
		}
	}
	a.Repos = repository.NewRepositories(a.DB, logger)

	catalog, err := templates.LoadCatalog(cfg.Generation.PromptsFile)
	if err != nil {
		return err
	}
	defaults := templates.Defaults{Provider: cfg.LLM.DefaultProvider, Model: cfg.LLM.DefaultModel}
	resolver := templates.NewResolver(a.Repos.Templates, catalog, defaults, logger)
	a.Templates = resolver

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	src := sources.New(a.Repos.Users, a.Repos.Documents, a.Repos.JobOffers, logger)
	builder := prompt.NewBuilder(src, prompt.Options{
		DefaultLanguage: cfg.Generation.DefaultLanguage,
		SummaryChars:    cfg.Generation.CVSummaryChars,
	}, logger)
	a.Ledger = credits.NewLedger(a.DB, a.Repos.Users, logger)
	a.LLM = providers.NewRegistry(cfg.LLM, logger)

	genOrch := generation.NewOrchestrator(logger, a.DB, a.Repos, resolver, builder, a.LLM, src, store)
	matchOrch := matching.NewOrchestrator(logger, a.DB, a.Repos, a.LLM, matching.Model{
		Provider: "openai",
		Name:     cfg.LLM.ScoringModel,
	}, src)

	a.Runner = async.NewRunner(logger,
		async.WithAttempts(cfg.Queue.MaxAttempts),
		async.WithRetryDelay(cfg.Queue.RetryDelay),
	)
	a.Runner.Handle(async.KindGeneration, genOrch)
	a.Runner.Handle(async.KindMatching, matchOrch)

	switch cfg.Queue.Backend {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return common.NewAppError("REDIS_UNAVAILABLE", "ping redis at "+cfg.Queue.RedisAddr, err)
		}
		a.rq = async.NewRedisQueue(a.redis, cfg.Queue.RedisPrefix, logger,
			async.WithRedisWorkers(cfg.Queue.Workers),
			async.WithRedisProcessTimeout(cfg.Queue.ProcessTimeout),
		)
		a.queue = a.rq
	default:
		a.queue = async.NewProcessorQueue(a.Runner, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		)
	}

	a.Generation = generation.NewService(logger, a.DB, a.Repos, resolver, a.Ledger, src, a.queue, store)
	a.Matching = matching.NewService(logger, a.Repos, src, a.queue)
	a.Export = export.NewService(a.Repos, logger)

	logger.Info("app.ready",
		"db_driver", cfg.Database.Driver,
		"queue", cfg.Queue.Backend,
		"storage", cfg.Storage.Backend,
		"providers", a.LLM.Providers(),
	)
	return nil
}

// StartConsumers starts the redis consumers; jobs a previous process left in
// flight are requeued first. The in-process queue runs from construction, so
// this is a no-op there.
func (a *App) StartConsumers(ctx context.Context) error {
	if a.rq == nil {
		return nil
	}
	return a.rq.Start(ctx, a.Runner)
}

// Close drains the queue then releases connections.
func (a *App) Close(ctx context.Context) {
	if a.queue != nil {
		a.queue.Shutdown(ctx)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("redis.close_error", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
