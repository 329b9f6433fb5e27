package config

import (
	"math"
	"path/filepath"
	"time"

	"github.com/turtacn/rxnguard/internal/application/pipeline"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/domain/reaction"
	"github.com/turtacn/rxnguard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rxnguard/internal/intelligence/embedding"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const (
	DefaultServerPort      = 5000
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodySize     = 1 << 20
	DefaultSlowRequest     = 2 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultDataDir          = "."
	DefaultBackupDir        = "backups"
	DefaultSQLiteFile       = "telemetry.db"
	DefaultTrainingDataFile = "training_data.jsonl"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "rxnguard:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "rxnguard-tail"

	DefaultCatalogPath = "reactions.yaml"

	DefaultMetricsNamespace = "rxnguard"
	DefaultMetricsPath      = "/metrics"
)

// Default returns a Config with every default applied, including the
// boolean switches that default to on.
func Default() *Config {
	cfg := &Config{}
	cfg.Pipeline.ScoringEnabled = true
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg.  Booleans are left
// alone; the loader seeds those through viper.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.SlowRequest == 0 {
		cfg.Server.SlowRequest = DefaultSlowRequest
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = int(math.Ceil(cfg.Server.RateLimitRPS * 2))
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.Thresholds == (plausibility.Thresholds{}) {
		cfg.Pipeline.Thresholds = plausibility.DefaultThresholds
	}
	if cfg.Pipeline.Limits == (reaction.Limits{}) {
		cfg.Pipeline.Limits = reaction.DefaultLimits
	}
	if cfg.Pipeline.ScoringConcurrency == 0 {
		cfg.Pipeline.ScoringConcurrency = pipeline.DefaultScoringConcurrency
	}

	// ── Embedding ─────────────────────────────────────────────────────────────
	def := embedding.DefaultConfig()
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = def.Provider
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Model
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = def.Dimension
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = def.MaxTokens
	}
	if cfg.Embedding.MorganRadius == 0 {
		cfg.Embedding.MorganRadius = def.MorganRadius
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = def.Timeout
	}
	if cfg.Embedding.CacheTTL == 0 {
		cfg.Embedding.CacheTTL = def.CacheTTL
	}

	// ── Telemetry ─────────────────────────────────────────────────────────────
	if cfg.Telemetry.Backend == "" {
		cfg.Telemetry.Backend = BackendFile
	}
	if cfg.Telemetry.DataDir == "" {
		cfg.Telemetry.DataDir = DefaultDataDir
	}
	if cfg.Telemetry.MaxFailures == 0 {
		cfg.Telemetry.MaxFailures = telemetry.DefaultMaxFailures
	}
	if cfg.Telemetry.SQLitePath == "" {
		cfg.Telemetry.SQLitePath = filepath.Join(cfg.Telemetry.DataDir, DefaultSQLiteFile)
	}
	if cfg.Telemetry.BackupDir == "" {
		cfg.Telemetry.BackupDir = filepath.Join(cfg.Telemetry.DataDir, DefaultBackupDir)
	}
	if cfg.Telemetry.TrainingDataPath == "" {
		cfg.Telemetry.TrainingDataPath = filepath.Join(cfg.Telemetry.DataDir, DefaultTrainingDataFile)
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = kafka.TopicRejections
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── Catalog ───────────────────────────────────────────────────────────────
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = DefaultCatalogPath
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

//Personal.AI order the ending
