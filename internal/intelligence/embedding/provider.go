package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turtacn/rxnguard/internal/infrastructure/database/redis"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Factory builds the embedder on first use.
type Factory func(ctx context.Context) (Embedder, error)

// Provider owns the process-wide embedder.  The factory runs on the first
// Embed (or Get) call; a successful result is kept for the life of the
// process, a failed one is retried on the next call.  After initialization
// Embed takes no lock.
type Provider struct {
	factory Factory
	enabled bool
	logger  logging.Logger

	mu          sync.Mutex
	embedder    atomic.Pointer[embedderBox]
	initialized atomic.Bool
}

type embedderBox struct{ Embedder }

// NewProvider wraps a factory.
func NewProvider(factory Factory, log logging.Logger) *Provider {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Provider{factory: factory, enabled: factory != nil, logger: log}
}

// NewProviderFromConfig builds a provider around New(cfg, cache, log).  A
// "disabled" provider reports Enabled() == false and never initializes.
func NewProviderFromConfig(cfg Config, cache redis.Cache, log logging.Logger) *Provider {
	if !cfg.Enabled() {
		return NewProvider(nil, log)
	}
	return NewProvider(func(ctx context.Context) (Embedder, error) {
		return New(cfg, cache, log)
	}, log)
}

// NewStaticProvider returns an already-initialized provider.
func NewStaticProvider(e Embedder) *Provider {
	p := NewProvider(func(context.Context) (Embedder, error) { return e, nil }, nil)
	p.embedder.Store(&embedderBox{e})
	p.initialized.Store(true)
	return p
}

// Enabled reports whether a factory is configured.
func (p *Provider) Enabled() bool { return p != nil && p.enabled }

// Initialized reports whether the embedder has been built.
func (p *Provider) Initialized() bool { return p != nil && p.initialized.Load() }

// Get returns the embedder, building it on first use.
func (p *Provider) Get(ctx context.Context) (Embedder, error) {
	if !p.Enabled() {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "embedding provider disabled")
	}
	if box := p.embedder.Load(); box != nil {
		return box.Embedder, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if box := p.embedder.Load(); box != nil {
		return box.Embedder, nil
	}

	start := time.Now()
	p.logger.Info("Initializing embedding provider")
	e, err := p.factory(ctx)
	if err != nil {
		p.logger.Error("Embedding provider initialization failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeAIModelNotAvailable, "embedding provider unavailable")
	}
	if e == nil {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "embedding factory returned nil")
	}
	p.embedder.Store(&embedderBox{e})
	p.initialized.Store(true)
	p.logger.Info("Embedding provider ready",
		logging.String("embedder", e.Name()),
		logging.Int("dimension", e.Dimension()),
		logging.Duration("took", time.Since(start)),
	)
	return e, nil
}

// Embed initializes if needed and delegates.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := p.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

// Name is the embedder's name, or "uninitialized".
func (p *Provider) Name() string {
	if box := p.embedder.Load(); box != nil {
		return box.Name()
	}
	return "uninitialized"
}

// Dimension is the embedder's dimension, or 0 before initialization.
func (p *Provider) Dimension() int {
	if box := p.embedder.Load(); box != nil {
		return box.Dimension()
	}
	return 0
}

//Personal.AI order the ending
