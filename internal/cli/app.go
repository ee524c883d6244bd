package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/adapter/memstatus"
	"github.com/user/tariffs-service/internal/adapter/postgres"
	"github.com/user/tariffs-service/internal/adapter/rawfs"
	redisadapter "github.com/user/tariffs-service/internal/adapter/redis"
	"github.com/user/tariffs-service/internal/adapter/sheets"
	"github.com/user/tariffs-service/internal/adapter/sqlite"
	"github.com/user/tariffs-service/internal/adapter/wbapi"
	"github.com/user/tariffs-service/internal/normalizer"
	"github.com/user/tariffs-service/internal/repository"
	"github.com/user/tariffs-service/internal/usecase"
	"github.com/user/tariffs-service/pkg/config"
	"github.com/user/tariffs-service/pkg/logger"
	"github.com/user/tariffs-service/pkg/metrics"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	rawRepo     repository.RawSnapshotRepository
	boxRepo     repository.TariffsBoxRepository
	sheetRepo   repository.SpreadsheetRepository
	runStatus   repository.RunStatusRepository
	archive     repository.RawArchive
	pingStorage func(ctx context.Context) error
	migrate     func(ctx context.Context) error

	closers []func()
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		metrics:  metrics.New(reg),
		archive:  rawfs.NewArchive(cfg.RawStorageDir, log),
	}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openRunStatus(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	switch a.cfg.StorageDriver {
	case config.StorageDriverSQLite:
		store, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.rawRepo = sqlite.NewRawSnapshotRepo(store)
		a.boxRepo = sqlite.NewTariffsBoxRepo(store)
		a.sheetRepo = sqlite.NewSpreadsheetRepo(store)
		a.pingStorage = store.Ping
		a.migrate = store.Migrate
		a.logger.Info("SQLite storage opened", zap.String("path", a.cfg.SQLitePath))
	default:
		pool, err := postgres.NewPool(ctx, a.cfg.PostgresURL(), a.cfg.PostgresMaxConns)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		a.rawRepo = postgres.NewRawSnapshotRepo(pool)
		a.boxRepo = postgres.NewTariffsBoxRepo(pool)
		a.sheetRepo = postgres.NewSpreadsheetRepo(pool)
		a.pingStorage = pool.Ping
		a.migrate = func(ctx context.Context) error { return postgres.Migrate(ctx, pool) }
		a.logger.Info("PostgreSQL connection pool established")
	}
	return nil
}

func (a *app) openRunStatus(ctx context.Context) error {
	if a.cfg.RedisAddr == "" {
		a.runStatus = memstatus.NewRunStatusRepo(redisadapter.DefaultHistorySize)
		a.logger.Info("REDIS_ADDR not set, keeping run status in memory")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("unable to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	a.runStatus = redisadapter.NewRunStatusRepo(rdb, redisadapter.DefaultHistorySize)
	a.logger.Info("Redis connection established")
	return nil
}

// Migrate applies the schema and seeds the configured spreadsheet ids.
func (a *app) Migrate(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return err
	}
	ids := a.cfg.SeedSpreadsheetIDs()
	if err := a.sheetRepo.EnsureIDs(ctx, ids); err != nil {
		return fmt.Errorf("seed spreadsheets: %w", err)
	}
	a.logger.Info("migrations and seeds applied", zap.Int("spreadsheets", len(ids)))
	return nil
}

func (a *app) sheetWriter(ctx context.Context) repository.SheetWriter {
	w, err := sheets.NewWriter(ctx, sheets.Credentials{
		Email:      a.cfg.ServiceAccountEmail,
		PrivateKey: a.cfg.ServiceAccountKey,
	}, a.logger)
	if err != nil {
		a.logger.Warn("spreadsheet export disabled", zap.Error(err))
		return sheets.Disabled{}
	}
	return w
}

func (a *app) targets() usecase.TargetLister {
	if a.cfg.ExportMode == config.ExportModeSingle {
		return usecase.StaticTargets{a.cfg.SpreadsheetID}
	}
	return usecase.NewStoredTargets(a.sheetRepo)
}

func (a *app) Pipeline(ctx context.Context) usecase.Pipeline {
	api := wbapi.NewClient(wbapi.Config{
		BaseURL:      a.cfg.APIURL,
		Endpoint:     a.cfg.APIEndpoint,
		PingEndpoint: a.cfg.APIPingEndpoint,
		Token:        a.cfg.APIToken,
		Timeout:      a.cfg.APITimeout(),
		RequestGap:   a.cfg.APIRequestGap(),
	}, a.logger)

	return usecase.NewPipeline(usecase.PipelineDeps{
		API:        api,
		Archive:    a.archive,
		RawRepo:    a.rawRepo,
		BoxRepo:    a.boxRepo,
		Parser:     normalizer.New(),
		Exporter:   usecase.NewExporter(a.sheetWriter(ctx), a.cfg.SheetRange),
		Targets:    a.targets(),
		RunStatus:  a.runStatus,
		Metrics:    a.metrics,
		Logger:     a.logger,
		Concurrent: a.cfg.ExportConcurrency,
	})
}

func (a *app) Retention() usecase.Retention {
	return usecase.NewRetention(a.archive, a.rawRepo, a.boxRepo, usecase.RetentionConfig{
		RawFileDays:     a.cfg.RawFileRetentionDays,
		RawSnapshotDays: a.cfg.RawSnapshotRetentionDays,
	}, a.metrics, a.logger)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// errPipelineFailed marks a run command that finished with a failed pipeline.
var errPipelineFailed = errors.New("pipeline run failed")
