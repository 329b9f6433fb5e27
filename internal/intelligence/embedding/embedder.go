// Package embedding turns structure text into fixed-length vectors for the
// plausibility scorer.  Providers are interchangeable behind Embedder; the
// process-wide instance is built lazily by Provider.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/rxnguard/internal/infrastructure/database/redis"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Embedder maps structure text to a vector of length Dimension().
// Implementations must be safe for concurrent use and must not mutate shared
// state on Embed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// Provider kinds accepted by Config.Provider.
const (
	ProviderHash     = "hash"
	ProviderMorgan   = "morgan"
	ProviderHTTP     = "http"
	ProviderDisabled = "disabled"
)

// Config selects and tunes the embedding provider.
type Config struct {
	Provider     string        `mapstructure:"provider" yaml:"provider"`
	Endpoint     string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model        string        `mapstructure:"model" yaml:"model"`
	Dimension    int           `mapstructure:"dimension" yaml:"dimension"`
	MaxTokens    int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	MorganRadius int           `mapstructure:"morgan_radius" yaml:"morgan_radius"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheEnabled bool          `mapstructure:"cache_enabled" yaml:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultConfig is the local, dependency-free setup.
func DefaultConfig() Config {
	return Config{
		Provider:     ProviderHash,
		Model:        "seyonec/ChemBERTa-zinc-base-v1",
		Dimension:    DefaultHashDimension,
		MaxTokens:    DefaultMaxTokens,
		MorganRadius: 2,
		Timeout:      30 * time.Second,
		CacheTTL:     24 * time.Hour,
	}
}

// Enabled reports whether scoring should run at all.
func (c Config) Enabled() bool {
	return normalizeProvider(c.Provider) != ProviderDisabled
}

func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return ProviderHash
	}
	return p
}

// New builds the configured embedder.  cache may be nil; when it is set and
// CacheEnabled is true the embedder is wrapped in a CachedEmbedder.
func New(cfg Config, cache redis.Cache, log logging.Logger) (Embedder, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	var (
		emb Embedder
		err error
	)
	switch normalizeProvider(cfg.Provider) {
	case ProviderHash:
		emb = NewHashEmbedder(cfg.Dimension, cfg.MaxTokens)
	case ProviderMorgan:
		emb = NewMorganEmbedder(cfg.MorganRadius, cfg.Dimension)
	case ProviderHTTP:
		emb, err = NewRemoteEmbedder(cfg.Endpoint,
			WithModel(cfg.Model),
			WithDimension(cfg.Dimension),
			WithTimeout(cfg.Timeout),
			WithLogger(log),
		)
	case ProviderDisabled:
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "embedding provider disabled")
	default:
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, fmt.Sprintf("unknown embedding provider %q", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheEnabled && cache != nil {
		emb = NewCachedEmbedder(emb, cache, cfg.CacheTTL, log)
	}
	return emb, nil
}

// MeanPool averages token vectors.  All rows must share one length.
func MeanPool(rows [][]float32) ([]float32, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeAIInferenceFailed, "no token vectors to pool")
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, errors.New(errors.ErrCodeAIInferenceFailed, "empty token vector")
	}
	out := make([]float32, dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, errors.Newf(errors.ErrCodeAIInferenceFailed, "token %d has dimension %d, want %d", i, len(row), dim)
		}
		for j, v := range row {
			out[j] += v
		}
	}
	n := float32(len(rows))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}

//Personal.AI order the ending
