package commands

import (
	"context"
	"fmt"

	"github.com/sv650s/springboard/internal/external/quandl"
	"github.com/sv650s/springboard/internal/scheduler/jobs"
	"github.com/sv650s/springboard/internal/service"
	"github.com/sv650s/springboard/internal/store"
	"github.com/sv650s/springboard/internal/watchlist"
	"github.com/sv650s/springboard/pkg/config"
	"github.com/sv650s/springboard/pkg/database"
	"github.com/sv650s/springboard/pkg/httputil"
	"github.com/sv650s/springboard/pkg/logger"
	"github.com/sv650s/springboard/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	fetcher quandl.Fetcher
	redis   *redis.Client
	db      *database.DB
	repo    *store.Repository
}

// loadConfig reads the environment and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if env != "" {
		cfg.Env = env
	}
	return cfg, nil
}

// newApp wires config, logging, the Quandl client, the Redis cache and, when
// withDB is set, the database repository
func newApp(ctx context.Context, withDB bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc

	httpClient := httputil.New(cfg.Quandl.Timeout, log)
	if rc.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "quandl"), redis.QuandlRateLimit(cfg.Quandl.RateLimit))
	}

	client := quandl.NewClient(httpClient, cfg.Quandl, log)
	a.fetcher = quandl.NewCachedFetcher(client, redis.NewCache(rc, "quandl"), cfg.Redis.CacheTTL, log)

	if withDB {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.repo = store.NewRepository(db.Pool)

		if err := a.repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		log.Info("Connected to database")
	}

	return a, nil
}

// analyzer returns an analyzer that persists only when a repository is wired
func (a *app) analyzer() *service.Analyzer {
	if a.repo != nil {
		return service.NewAnalyzer(a.fetcher, a.repo, a.log)
	}
	return service.NewAnalyzer(a.fetcher, nil, a.log)
}

// storedAnalyzer computes over rows already in the database without saving anything
func (a *app) storedAnalyzer() *service.Analyzer {
	return service.NewAnalyzer(store.NewStoredFetcher(a.repo), nil, a.log)
}

// Close releases the database pool and Redis connection
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// refreshJob builds the stats-refresh job, loading SCHEDULE_WATCHLIST when set
func (a *app) refreshJob(publisher jobs.Publisher) (*jobs.StatsRefreshJob, error) {
	job := jobs.NewStatsRefreshJob(a.analyzer(), publisher, a.cfg, a.log)
	if a.cfg.Schedule.Watchlist == "" {
		return job, nil
	}

	wl, err := watchlist.Load(a.cfg.Schedule.Watchlist)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	hash, err := watchlist.Hash(wl)
	if err != nil {
		return nil, fmt.Errorf("hash watchlist: %w", err)
	}

	a.log.WithFields(map[string]interface{}{
		"path":     a.cfg.Schedule.Watchlist,
		"datasets": len(wl.Datasets),
		"hash":     hash[:12],
	}).Info("Watchlist loaded")

	return job.WithWatchlist(wl), nil
}
