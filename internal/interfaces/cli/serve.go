package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/turtacn/rxnguard/internal/config"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/rxnguard/internal/interfaces/http"
	"github.com/turtacn/rxnguard/internal/interfaces/http/handlers"
	"github.com/turtacn/rxnguard/internal/interfaces/http/middleware"
)

const rateLimitCleanup = time.Minute

type serveOptions struct {
	host      string
	port      int
	staticDir string
	warmup    bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Run the HTTP service",
		Long:        "Serve POST /api/react, the telemetry and catalog views, health probes and metrics.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationServer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, cc.Config)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cc, opts.warmup)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "listen host (overrides server.host)")
	f.IntVarP(&opts.port, "port", "p", 0, "listen port (overrides server.port)")
	f.StringVar(&opts.staticDir, "static-dir", "", "serve the front end from this directory")
	f.BoolVar(&opts.warmup, "warmup", false, "initialize the embedding provider before accepting requests")
	return cmd
}

func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = o.host
	}
	if o.port > 0 {
		cfg.Server.Port = o.port
	}
	if o.staticDir != "" {
		cfg.Server.StaticDir = o.staticDir
	}
}

// runServe wires the application and serves until ctx is cancelled.
func runServe(ctx context.Context, cc *CLIContext, warmup bool) error {
	cfg := cc.Config
	logger := cc.Logger
	gin.SetMode(cfg.Server.Mode)

	app, err := buildApp(ctx, cc, appNeeds{Serving: true})
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Watcher != nil {
		if err := app.Watcher.Start(ctx); err != nil {
			return err
		}
	}
	watchConfig(cc)

	if warmup && app.Embedding.Enabled() {
		_, werr := app.Embedding.Get(ctx)
		prometheus.RecordProviderInitialized(app.AppMetrics, werr == nil)
		if werr != nil {
			logger.Warn("Embedding warmup failed, scoring will fail open until it recovers", logging.Err(werr))
		}
	}

	router, limiter := newRouter(cc, app)
	if limiter != nil {
		defer limiter.Stop()
	}

	server := httpserver.NewServer(cfg.Server, router, logger)
	logger.Info("Starting RxnGuard",
		logging.String("version", Version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("telemetry_backend", app.Sink.Backend()),
		logging.String("catalog", app.Catalog.Source()),
		logging.Bool("scoring", app.Pipeline.ScoringEnabled()),
	)
	return server.Run(ctx)
}

// newRouter assembles the route tree for app.  The returned limiter, when
// non-nil, must be stopped by the caller.
func newRouter(cc *CLIContext, app *App) (*gin.Engine, *middleware.TokenBucketLimiter) {
	cfg := cc.Config

	var telemetryReader handlers.TelemetryReader
	if app.Sink != nil {
		telemetryReader = app.Sink
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.Server.CORSOrigins

	loggingCfg := middleware.DefaultLoggingConfig()
	loggingCfg.SlowThreshold = cfg.Server.SlowRequest
	if cfg.Metrics.Path != "" {
		loggingCfg.SkipPaths = append(loggingCfg.SkipPaths, cfg.Metrics.Path)
	}

	rc := httpserver.RouterConfig{
		ReactionHandler:  handlers.NewReactionHandler(app.Pipeline, cfg.Server.MaxBodySize, cc.Logger),
		TelemetryHandler: handlers.NewTelemetryHandler(telemetryReader, cc.Logger),
		CatalogHandler:   handlers.NewCatalogHandler(app.Catalog),
		HealthHandler:    handlers.NewHealthHandler(Version, app.AppMetrics, app.HealthCheckers()...),
		CORS:             corsCfg,
		Logging:          loggingCfg,
		Logger:           cc.Logger,
		MetricsCollector: app.Collector,
		AppMetrics:       app.AppMetrics,
		MetricsPath:      cfg.Metrics.Path,
		StaticDir:        cfg.Server.StaticDir,
	}

	var limiter *middleware.TokenBucketLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, rateLimitCleanup)
		rc.RateLimiter = limiter
	}
	return httpserver.NewRouter(rc), limiter
}

// watchConfig applies log level changes from the config file at runtime.
// Other settings need a restart.
func watchConfig(cc *CLIContext) {
	if cc.ConfigPath == "" {
		return
	}
	setter, ok := cc.Logger.(logging.LevelSetter)
	if !ok {
		return
	}
	err := config.Watch(cc.ConfigPath, func(next *config.Config) {
		setter.SetLevel(next.Log.Level)
		cc.Logger.Info("Configuration reloaded", logging.String("log_level", next.Log.Level))
	}, func(err error) {
		cc.Logger.Warn("Ignoring invalid configuration change", logging.Err(err))
	})
	if err != nil {
		cc.Logger.Warn("Configuration watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
