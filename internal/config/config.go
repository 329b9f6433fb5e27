// Package config defines the configuration structures of the RxnGuard
// service.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/rxnguard/internal/domain/reaction"
	"github.com/turtacn/rxnguard/internal/infrastructure/database/postgres"
	"github.com/turtacn/rxnguard/internal/infrastructure/database/redis"
	"github.com/turtacn/rxnguard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/internal/infrastructure/storage/minio"
	"github.com/turtacn/rxnguard/internal/intelligence/embedding"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	Mode            string        `mapstructure:"mode" yaml:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	SlowRequest     time.Duration `mapstructure:"slow_request" yaml:"slow_request"`
	StaticDir       string        `mapstructure:"static_dir" yaml:"static_dir"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	// Per-client limit on POST /api/react; zero disables it.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PipelineConfig tunes the reaction pipeline and the plausibility policy.
type PipelineConfig struct {
	Thresholds         plausibility.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Limits             reaction.Limits         `mapstructure:"limits" yaml:"limits"`
	ScoringEnabled     bool                    `mapstructure:"scoring_enabled" yaml:"scoring_enabled"`
	ScoringConcurrency int                     `mapstructure:"scoring_concurrency" yaml:"scoring_concurrency"`
	Timeout            time.Duration           `mapstructure:"timeout" yaml:"timeout"`
}

// TelemetryConfig selects where failure logs and template stats live.
type TelemetryConfig struct {
	Backend           string `mapstructure:"backend" yaml:"backend"` // "file" | "sqlite" | "postgres"
	DataDir           string `mapstructure:"data_dir" yaml:"data_dir"`
	SQLitePath        string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MaxFailures       int    `mapstructure:"max_failures" yaml:"max_failures"`
	BackupDir         string `mapstructure:"backup_dir" yaml:"backup_dir"`
	TrainingDataPath  string `mapstructure:"training_data_path" yaml:"training_data_path"`
	PublishRejections bool   `mapstructure:"publish_rejections" yaml:"publish_rejections"`
}

// RedisConfig enables the embedding cache.
type RedisConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	KeyPrefix         string `mapstructure:"key_prefix" yaml:"key_prefix"`
	redis.RedisConfig `mapstructure:",squash" yaml:",inline"`
}

// KafkaConfig configures rejection-event publishing and tailing.
type KafkaConfig struct {
	Enabled              bool   `mapstructure:"enabled" yaml:"enabled"`
	Topic                string `mapstructure:"topic" yaml:"topic"`
	GroupID              string `mapstructure:"group_id" yaml:"group_id"`
	ReplicationFactor    int    `mapstructure:"replication_factor" yaml:"replication_factor"`
	EnsureTopics         bool   `mapstructure:"ensure_topics" yaml:"ensure_topics"`
	kafka.ProducerConfig `mapstructure:",squash" yaml:",inline"`
}

// CatalogConfig points at the reaction catalog file.
type CatalogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Watch bool   `mapstructure:"watch" yaml:"watch"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled                    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path                       string `mapstructure:"path" yaml:"path"`
	prometheus.CollectorConfig `mapstructure:",squash" yaml:",inline"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig            `mapstructure:"server" yaml:"server"`
	Log       logging.LogConfig       `mapstructure:"log" yaml:"log"`
	Pipeline  PipelineConfig          `mapstructure:"pipeline" yaml:"pipeline"`
	Embedding embedding.Config        `mapstructure:"embedding" yaml:"embedding"`
	Telemetry TelemetryConfig         `mapstructure:"telemetry" yaml:"telemetry"`
	Database  postgres.PostgresConfig `mapstructure:"database" yaml:"database"`
	Redis     RedisConfig             `mapstructure:"redis" yaml:"redis"`
	Kafka     KafkaConfig             `mapstructure:"kafka" yaml:"kafka"`
	MinIO     minio.MinIOConfig       `mapstructure:"minio" yaml:"minio"`
	Catalog   CatalogConfig           `mapstructure:"catalog" yaml:"catalog"`
	Metrics   MetricsConfig           `mapstructure:"metrics" yaml:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

var (
	validModes     = map[string]bool{"debug": true, "release": true, "test": true}
	validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validBackends  = map[string]bool{BackendFile: true, BackendSQLite: true, BackendPostgres: true}
	validProviders = map[string]bool{
		embedding.ProviderHash:     true,
		embedding.ProviderMorgan:   true,
		embedding.ProviderHTTP:     true,
		embedding.ProviderDisabled: true,
	}
)

// Validate checks the cross-field invariants ApplyDefaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("config: server.rate_limit_rps and rate_limit_burst must not be negative")
	}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("config: server.mode %q must be one of debug, release, test", c.Server.Mode)
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("config: log.level %q is not a valid level", c.Log.Level)
	}

	if err := c.Pipeline.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config: pipeline.thresholds: %w", err)
	}
	if c.Pipeline.Limits.MaxCanonicalLength < 0 || c.Pipeline.Limits.MaxAtoms < 0 {
		return fmt.Errorf("config: pipeline.limits must not be negative")
	}
	if c.Pipeline.ScoringConcurrency < 1 {
		return fmt.Errorf("config: pipeline.scoring_concurrency must be at least 1")
	}

	provider := strings.ToLower(c.Embedding.Provider)
	if !validProviders[provider] {
		return fmt.Errorf("config: embedding.provider %q is not supported", c.Embedding.Provider)
	}
	if provider == embedding.ProviderHTTP && c.Embedding.Endpoint == "" {
		return fmt.Errorf("config: embedding.endpoint is required for the http provider")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("config: embedding.dimension must be positive")
	}

	if !validBackends[c.Telemetry.Backend] {
		return fmt.Errorf("config: telemetry.backend %q must be one of file, sqlite, postgres", c.Telemetry.Backend)
	}
	if c.Telemetry.MaxFailures < 1 {
		return fmt.Errorf("config: telemetry.max_failures must be at least 1")
	}
	if c.Telemetry.Backend == BackendPostgres && c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("config: database.dsn or database.host is required for the postgres backend")
	}
	if c.Telemetry.PublishRejections && !c.Kafka.Enabled {
		return fmt.Errorf("config: telemetry.publish_rejections requires kafka.enabled")
	}

	if c.Kafka.Enabled {
		if err := kafka.ValidateProducerConfig(c.Kafka.ProducerConfig); err != nil {
			return fmt.Errorf("config: kafka: %w", err)
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 && len(c.Redis.SentinelAddrs) == 0 {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}
	return nil
}

//Personal.AI order the ending
