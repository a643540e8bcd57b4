package main

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/taixiu-ai/internal/config"
	"github.com/yourusername/taixiu-ai/internal/database"
	"github.com/yourusername/taixiu-ai/internal/datasource"
	"github.com/yourusername/taixiu-ai/internal/ensemble"
	"github.com/yourusername/taixiu-ai/internal/history"
	"github.com/yourusername/taixiu-ai/internal/service"
)

// app holds the wired components shared by the commands.
type app struct {
	store   *history.Store
	source  *datasource.HTTPSource
	client  *datasource.RateLimitedHTTPClient
	service *service.PredictionService
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newHistoryStore opens the configured backend and restores the history.
func newHistoryStore(ctx context.Context, cfg *config.Config) (*history.Store, []func(), error) {
	var (
		backend history.Backend
		closers []func()
	)

	switch cfg.History.Backend {
	case config.BackendMemory:
		backend = history.NewMemoryBackend()
	case config.BackendFile:
		backend = history.NewFileBackend(cfg.History.Path)
	case config.BackendRedis:
		opts := []history.RedisOption{history.WithRedisTTL(cfg.HistoryTTL())}
		if cfg.History.Key != "" {
			opts = append(opts, history.WithRedisKey(cfg.History.Key))
		}
		rb := history.NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		closers = append(closers, func() { _ = rb.Close() })
		backend = rb
	case config.BackendPostgres:
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)

		pb := history.NewPostgresBackend(db, cfg.History.Key)
		if err := pb.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to prepare history table: %w", err)
		}
		backend = pb
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}

	store := history.NewStore(backend, cfg.History.Capacity, appLog)
	store.Load(ctx)
	return store, closers, nil
}

// newApp wires the prediction service from configuration.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, closers, err := newHistoryStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, closers: closers}

	engine, err := ensemble.NewEngine(ensemble.TotalRange{Min: cfg.Predictor.TotalMin, Max: cfg.Predictor.TotalMax})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create ensemble engine: %w", err)
	}

	a.client = datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfig{
		Timeout:           cfg.SourceTimeout(),
		MaxRetries:        cfg.Source.MaxRetries,
		RetryWaitMin:      time.Duration(cfg.Source.RetryWaitMinMillis) * time.Millisecond,
		RetryWaitMax:      time.Duration(cfg.Source.RetryWaitMaxMillis) * time.Millisecond,
		RateLimit:         cfg.Source.RateLimit,
		CircuitBreakerMax: cfg.Source.CircuitBreakerMax,
		CircuitCooldown:   time.Duration(cfg.Source.CircuitCooldownSeconds) * time.Second,
	}, appLog)
	a.closers = append(a.closers, func() { _ = a.client.Close() })

	a.source = datasource.NewHTTPSource(a.client, cfg.Source.Name, cfg.Source.URL, cfg.SourceTimeout(), appLog)

	a.service = service.NewPredictionService(
		a.source,
		store,
		engine,
		service.NewReportCache(cfg.CacheTTL(), cfg.Cache.MaxSize),
		service.PredictionConfig{
			Tag:                cfg.App.Tag,
			RecentTotalsWindow: cfg.Source.RecentTotalsWindow,
		},
		appLog,
	)

	return a, nil
}
