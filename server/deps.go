package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dinerozz/tracking-backend/config"
	"github.com/dinerozz/tracking-backend/internal/metrics"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/dinerozz/tracking-backend/internal/repository/memory"
	"github.com/dinerozz/tracking-backend/internal/service/memstore"
	"github.com/dinerozz/tracking-backend/internal/service/redis"
)

// Dependencies is every piece of shared state the HTTP layer needs. It is
// built once at startup and passed down explicitly.
type Dependencies struct {
	DB    *sqlx.DB
	Store redis.ServiceInterface

	Visits      repository.VisitRepository
	Content     repository.ContentRepository
	Events      repository.EventRepository
	Experiments repository.ExperimentRepository

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Clock    quartz.Clock
	Logger   *slog.Logger
}

// NewDependencies connects the storage backends selected by cfg.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Clock: quartz.NewReal(), Logger: logger}

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		db, err := repository.NewRepository(cfg.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.DB = db
		deps.Visits = repository.NewVisitRepository(db)
		deps.Content = repository.NewContentRepository(db)
		deps.Events = repository.NewEventRepository(db)
		deps.Experiments = repository.NewExperimentRepository(db)
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		deps.Visits = memory.NewVisitRepository()
		deps.Content = memory.NewContentRepository()
		deps.Events = memory.NewEventRepository()
		deps.Experiments = memory.NewExperimentRepository()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.DB.Driver)
	}

	if cfg.Redis.Enabled() {
		store, err := redis.NewRedisService(cfg.Redis, logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Store = store
	} else {
		logger.Warn("REDIS_HOST not set, rate limits and dedup are per process")
		deps.Store = memstore.New(deps.Clock)
	}

	if err := deps.initMetrics(); err != nil {
		deps.Close()
		return nil, err
	}

	return deps, nil
}

// NewMemoryDependencies wires in-process backends only.
func NewMemoryDependencies(clock quartz.Clock) (*Dependencies, error) {
	if clock == nil {
		clock = quartz.NewReal()
	}
	deps := &Dependencies{
		Store:       memstore.New(clock),
		Visits:      memory.NewVisitRepository(),
		Content:     memory.NewContentRepository(),
		Events:      memory.NewEventRepository(),
		Experiments: memory.NewExperimentRepository(),
		Clock:       clock,
		Logger:      slog.Default(),
	}
	if err := deps.initMetrics(); err != nil {
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) initMetrics() error {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := metrics.NewMetrics(d.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	d.Metrics = m
	return nil
}

// Health pings the database and the key/value store concurrently. Failure
// details go to the log; callers only see "unavailable".
func (d *Dependencies) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	statuses := map[string]string{"database": "ok", "store": "ok"}
	var dbErr, storeErr error

	var g errgroup.Group
	if d.DB != nil {
		g.Go(func() error {
			dbErr = d.DB.PingContext(ctx)
			return dbErr
		})
	}
	if d.Store != nil {
		g.Go(func() error {
			storeErr = d.Store.Health(ctx)
			return storeErr
		})
	}
	_ = g.Wait()

	if dbErr != nil {
		d.Logger.Error("database health check failed", slog.Any("error", dbErr))
		statuses["database"] = "unavailable"
	}
	if storeErr != nil {
		d.Logger.Error("store health check failed", slog.Any("error", storeErr))
		statuses["store"] = "unavailable"
	}
	return statuses
}

func (d *Dependencies) Close() {
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
