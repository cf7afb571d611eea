package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NordicDataFlow/internal/config"
	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/infrastructure/httpapi"
	"NordicDataFlow/internal/infrastructure/objectstore"
	"NordicDataFlow/internal/infrastructure/opendata"
	"NordicDataFlow/internal/infrastructure/scheduler"
	"NordicDataFlow/internal/infrastructure/storage"
	"NordicDataFlow/internal/infrastructure/telegram"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
	"NordicDataFlow/internal/source"
	"NordicDataFlow/internal/usecase"
)

// ErrDatabaseNotConfigured is returned by commands that need the warehouse.
var ErrDatabaseNotConfigured = domain.ErrWarehouseNotConfigured

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     ports.ObjectStore
	warehouse ports.Warehouse
	closers   []func() error

	pipeline *usecase.Pipeline
	exporter *usecase.Exporter
}

// New builds the object store, warehouse, sources and use cases from cfg.
// The warehouse is nil when the database is not configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	a.store = store

	warehouse, closer, err := newWarehouse(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("warehouse: %w", err)
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.warehouse = warehouse
	if warehouse == nil {
		baseLogger.Warn("database not configured; load phase will fail until it is")
	} else {
		baseLogger.Info("warehouse configured", "driver", cfg.Database.Driver, "dsn", logging.RedactConnectionString(cfg.Database.DSN()))
	}

	client := opendata.NewClient(
		&http.Client{Timeout: cfg.Sources.Timeout},
		cfg.Sources.UserAgent,
		baseLogger.With("component", "opendata"),
	)
	registry := source.NewRegistry(
		opendata.NewStatFin(client, cfg.Sources.StatFin.BaseURL),
		opendata.NewPRH(client, cfg.Sources.PRH.BaseURL),
		opendata.NewEurostat(client, cfg.Sources.Eurostat.BaseURL),
		opendata.NewFingrid(client, cfg.Sources.Fingrid.BaseURL, cfg.Sources.Fingrid.APIKey),
	)

	jobs := make([]usecase.Job, 0, len(cfg.Jobs))
	for _, job := range cfg.Jobs {
		jobs = append(jobs, usecase.Job{Name: job.Name, Source: job.Source, Params: job.Params})
	}

	var notifier ports.Notifier = telegram.Noop{}
	if cfg.Notifications.Telegram.Enabled() {
		tg := cfg.Notifications.Telegram
		notifier = telegram.NewNotifier(tg.APIBase, tg.BotToken, tg.ChatID)
	}

	deps := usecase.PipelineDeps{
		Ingester: usecase.NewIngester(usecase.IngesterDeps{
			Registry: registry,
			Store:    store,
			Jobs:     jobs,
			Logger:   baseLogger.With("component", "ingest"),
		}),
		Transformer: usecase.NewTransformer(usecase.TransformerDeps{
			Store:  store,
			Logger: baseLogger.With("component", "transform"),
		}),
		Targets:  usecase.Targets(registry, jobs),
		Notifier: notifier,
		Logger:   baseLogger.With("component", "pipeline"),
	}
	if warehouse != nil {
		deps.Loader = usecase.NewLoader(usecase.LoaderDeps{
			Store:     store,
			Warehouse: warehouse,
			Logger:    baseLogger.With("component", "load"),
		})
		a.exporter = usecase.NewExporter(usecase.ExporterDeps{
			Store:     store,
			Warehouse: warehouse,
			Logger:    baseLogger.With("component", "export"),
		})
	}
	a.pipeline = usecase.NewPipeline(deps)

	return a, nil
}

// Run executes one pipeline run.
func (a *Application) Run(ctx context.Context, opts usecase.RunOptions) domain.RunReport {
	return a.pipeline.Run(ctx, opts)
}

// Setup creates the tier buckets and the warehouse schema.
func (a *Application) Setup(ctx context.Context) error {
	if ensurer, ok := a.store.(ports.BucketEnsurer); ok {
		if err := ensurer.EnsureBuckets(ctx); err != nil {
			return fmt.Errorf("ensure buckets: %w", err)
		}
		a.logger.Info("buckets ready")
	}

	if a.warehouse == nil {
		return ErrDatabaseNotConfigured
	}
	if err := a.warehouse.EnsureSchema(ctx); err != nil {
		return err
	}
	a.logger.Info("schema ready")
	return nil
}

// Export snapshots the gold tables into the gold tier.
func (a *Application) Export(ctx context.Context) (map[string]string, error) {
	if a.exporter == nil {
		return nil, ErrDatabaseNotConfigured
	}
	return a.exporter.Export(ctx)
}

// Serve runs the read API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.API.Addr
	}

	server := &http.Server{
		Addr: addr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Warehouse: a.warehouse,
			Source:    sourceLabel(a.cfg.Database.Driver),
			Logger:    a.logger.With("component", "api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("read API listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Schedule runs the pipeline on the configured cron expression until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases the database pool.
func (a *Application) Close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (ports.ObjectStore, error) {
	storeCfg := objectstore.Config{
		Endpoint:     cfg.Endpoint,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		Region:       cfg.Region,
		UseSSL:       cfg.UseSSL,
		UsePathStyle: cfg.UsePathStyle,
		Buckets: objectstore.Buckets{
			Bronze: cfg.Buckets.Bronze,
			Silver: cfg.Buckets.Silver,
			Gold:   cfg.Buckets.Gold,
		},
	}

	switch cfg.Driver {
	case config.DriverMinIO, "":
		return objectstore.NewMinioStore(storeCfg)
	case config.DriverS3:
		return objectstore.NewS3Store(ctx, storeCfg)
	case config.DriverMemory:
		return objectstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func newWarehouse(cfg config.DatabaseConfig) (ports.Warehouse, func() error, error) {
	if !cfg.Configured() {
		return nil, nil, nil
	}
	if cfg.Driver == config.DriverMemory {
		return storage.NewMemoryWarehouse(nil), nil, nil
	}

	dialect, err := storage.DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	openCfg := storage.OpenConfig{
		DSN:          cfg.DSN(),
		PingTimeout:  cfg.PingTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}
	if err := openCfg.Validate(); err != nil {
		return nil, nil, err
	}

	wh := newLazyWarehouse(dialect, openCfg)
	return wh, wh.Close, nil
}

func sourceLabel(driver string) string {
	switch driver {
	case config.DriverPostgres:
		return "PostgreSQL"
	case config.DriverMemory:
		return "In-memory warehouse"
	default:
		return "Azure SQL Database"
	}
}
