package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/rxnguard/internal/application/catalog"
	"github.com/turtacn/rxnguard/internal/application/maintenance"
	"github.com/turtacn/rxnguard/internal/application/pipeline"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/config"
	"github.com/turtacn/rxnguard/internal/infrastructure/database/postgres"
	"github.com/turtacn/rxnguard/internal/infrastructure/database/redis"
	"github.com/turtacn/rxnguard/internal/infrastructure/database/sqlite"
	"github.com/turtacn/rxnguard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/internal/infrastructure/storage/minio"
	"github.com/turtacn/rxnguard/internal/intelligence/embedding"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
	"github.com/turtacn/rxnguard/internal/interfaces/http/handlers"
)

const topicSetupTimeout = 15 * time.Second

// appNeeds selects the optional parts of the App a command builds.  The
// telemetry sink and the catalog are always present.
type appNeeds struct {
	// Serving builds metrics, the embedding provider, the scorer, the
	// rejection publisher, the catalog watcher and the pipeline.
	Serving bool
	// Archive connects the remote backup archive when MinIO is enabled.
	Archive bool
}

// App holds the wired components of one process.  Close releases them in
// reverse order of construction.
type App struct {
	Config *config.Config
	Logger logging.Logger

	Collector  prometheus.MetricsCollector
	AppMetrics *prometheus.AppMetrics

	Sink      *telemetry.Sink
	Catalog   *catalog.Catalog
	Watcher   *catalog.Watcher
	Embedding *embedding.Provider
	Scorer    *plausibility.Scorer
	Pipeline  pipeline.Service
	Archive   minio.BackupArchive
	Redis     *redis.Client

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Close releases every component, logging failures.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.Logger.Warn("Failed to close component", logging.String("component", c.name), logging.Err(err))
		}
	}
	a.closers = nil
}

// buildApp wires the components selected by needs.  On error everything
// built so far is released.
func buildApp(ctx context.Context, cc *CLIContext, needs appNeeds) (*App, error) {
	app := &App{Config: cc.Config, Logger: cc.Logger}
	if err := app.wire(ctx, needs); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, needs appNeeds) (err error) {
	cfg := a.Config

	if needs.Serving && cfg.Metrics.Enabled {
		a.Collector, err = prometheus.NewMetricsCollector(cfg.Metrics.CollectorConfig, a.Logger)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		a.AppMetrics = prometheus.NewAppMetrics(a.Collector)
	}

	sinkOpts := []telemetry.Option{
		telemetry.WithMaxFailures(cfg.Telemetry.MaxFailures),
		telemetry.WithObserver(func(op string, opErr error) {
			prometheus.RecordTelemetryWrite(a.AppMetrics, op, opErr)
		}),
	}
	if needs.Serving && cfg.Kafka.Enabled {
		publisher, kerr := a.initKafka(ctx)
		if kerr != nil {
			return kerr
		}
		if publisher != nil {
			sinkOpts = append(sinkOpts, telemetry.WithPublisher(publisher))
		}
	}

	store, err := openStore(cfg, a.Logger)
	if err != nil {
		return err
	}
	a.Sink = telemetry.NewSink(store, a.Logger.Named("telemetry"), sinkOpts...)
	a.onClose("telemetry_store", a.Sink.Close)

	a.Catalog, err = catalog.Load(cfg.Catalog.Path,
		catalog.WithMetrics(a.AppMetrics),
		catalog.WithLogger(a.Logger.Named("catalog")),
	)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	if needs.Archive && cfg.MinIO.Enabled {
		client, merr := minio.NewMinIOClient(&cfg.MinIO, a.Logger)
		if merr != nil {
			return fmt.Errorf("minio: %w", merr)
		}
		a.onClose("minio", client.Close)
		a.Archive = minio.NewBackupArchive(client, a.Logger)
	}

	if !needs.Serving {
		return nil
	}

	if cfg.Catalog.Watch && a.Catalog.Source() == cfg.Catalog.Path {
		a.Watcher, err = catalog.NewWatcher(a.Catalog, cfg.Catalog.Path, a.Logger.Named("catalog"))
		if err != nil {
			return fmt.Errorf("catalog watcher: %w", err)
		}
		a.onClose("catalog_watcher", a.Watcher.Close)
	}

	a.Embedding = embedding.NewProviderFromConfig(cfg.Embedding, a.embeddingCache(), a.Logger.Named("embedding"))
	if cfg.Pipeline.ScoringEnabled && a.Embedding.Enabled() {
		a.Scorer, err = plausibility.NewScorer(a.Embedding, cfg.Pipeline.Thresholds, a.Logger.Named("plausibility"))
		if err != nil {
			return fmt.Errorf("plausibility scorer: %w", err)
		}
	} else {
		a.Logger.Info("Plausibility scoring disabled")
	}

	a.Pipeline = pipeline.NewService(pipeline.Config{
		Limits:             cfg.Pipeline.Limits,
		ScoringConcurrency: cfg.Pipeline.ScoringConcurrency,
		Timeout:            cfg.Pipeline.Timeout,
	}, pipeline.Deps{
		Scorer:   a.Scorer,
		Recorder: a.Sink,
		Catalog:  a.Catalog,
		Metrics:  a.AppMetrics,
		Logger:   a.Logger.Named("pipeline"),
	})
	return nil
}

// openStore selects the document store for the configured backend.
func openStore(cfg *config.Config, log logging.Logger) (telemetry.DocumentStore, error) {
	switch cfg.Telemetry.Backend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Telemetry.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		conn, err := postgres.NewConnection(cfg.Database, log.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := conn.Migrate(); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		return postgres.NewDocumentStore(conn), nil
	default:
		store, err := telemetry.NewFileStore(cfg.Telemetry.DataDir)
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		return store, nil
	}
}

// embeddingCache connects Redis when both the cache and Redis are enabled.
// An unreachable Redis disables caching instead of failing startup.
func (a *App) embeddingCache() redis.Cache {
	cfg := a.Config
	if !cfg.Embedding.CacheEnabled || !cfg.Redis.Enabled {
		return nil
	}
	client, err := redis.NewClient(&cfg.Redis.RedisConfig, a.Logger.Named("redis"))
	if err != nil {
		a.Logger.Warn("Redis unavailable, embedding cache disabled", logging.Err(err))
		return nil
	}
	a.Redis = client
	a.onClose("redis", client.Close)
	return redis.NewRedisCache(client, a.Logger.Named("redis"), redis.WithPrefix(cfg.Redis.KeyPrefix))
}

// initKafka creates the topics when asked to and returns the rejection
// publisher, or nil when publishing is off.
func (a *App) initKafka(ctx context.Context) (telemetry.Publisher, error) {
	cfg := a.Config
	if cfg.Kafka.EnsureTopics {
		tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, a.Logger.Named("kafka"))
		if err != nil {
			return nil, fmt.Errorf("kafka topics: %w", err)
		}
		tctx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
		err = tm.EnsureTopics(tctx, kafka.DefaultTopics(cfg.Kafka.ReplicationFactor))
		cancel()
		_ = tm.Close()
		if err != nil {
			return nil, fmt.Errorf("kafka topics: %w", err)
		}
	}
	if !cfg.Telemetry.PublishRejections {
		return nil, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka.ProducerConfig, a.Logger.Named("kafka"))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	a.onClose("kafka_producer", producer.Close)
	return telemetry.NewRejectionPublisher(producer, cfg.Kafka.Topic, a.AppMetrics), nil
}

// HealthCheckers lists the readiness probes of the wired components.
func (a *App) HealthCheckers() []handlers.HealthChecker {
	checkers := []handlers.HealthChecker{
		handlers.NewChecker("telemetry_store", a.Sink.Ping),
	}
	if a.Embedding.Enabled() {
		checkers = append(checkers, handlers.NewChecker("embedding", func(ctx context.Context) error {
			_, err := a.Embedding.Get(ctx)
			return err
		}))
	}
	if a.Redis != nil {
		checkers = append(checkers, handlers.NewChecker("redis", a.Redis.Ping))
	}
	return checkers
}

// Maintenance builds the maintenance service over the app's sink.
func (a *App) Maintenance() (*maintenance.Service, error) {
	return maintenance.NewService(maintenance.Deps{
		Sink:             a.Sink,
		Catalog:          a.Catalog,
		Archive:          a.Archive,
		BackupDir:        a.Config.Telemetry.BackupDir,
		TrainingDataPath: a.Config.Telemetry.TrainingDataPath,
		Logger:           a.Logger.Named("maintenance"),
	})
}

//Personal.AI order the ending
