// Package http assembles the RxnGuard HTTP surface: the gin route tree and
// the server that runs it.
package http

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/internal/interfaces/http/handlers"
	"github.com/turtacn/rxnguard/internal/interfaces/http/middleware"
)

const (
	// DefaultMetricsPath is where the Prometheus handler is mounted.
	DefaultMetricsPath = "/metrics"
	// DefaultIndexFile is served for "/" when static files are enabled.
	DefaultIndexFile = "index.html"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.  Nil handlers leave their routes
// unregistered.
type RouterConfig struct {
	// Handlers
	ReactionHandler  *handlers.ReactionHandler
	TelemetryHandler *handlers.TelemetryHandler
	CatalogHandler   *handlers.CatalogHandler
	HealthHandler    *handlers.HealthHandler

	// Middleware
	CORS        middleware.CORSConfig
	Logging     middleware.LoggingConfig
	RateLimiter middleware.RateLimiter

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	AppMetrics       *prometheus.AppMetrics
	MetricsPath      string

	// StaticDir, when set, serves the browser front end for every path that
	// no route matches.
	StaticDir string
	IndexFile string
}

// NewRouter constructs the route tree.  Global middleware runs in the order
// RequestID, RequestLogging, Metrics, Recovery, CORS so that a recovered
// panic is still logged and counted with its 500.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	logger := cfg.Logger.Named("http")

	r := gin.New()
	r.HandleMethodNotAllowed = false

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging(logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.AppMetrics))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// --- Probes and metrics ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API ---
	api := r.Group("/api")
	if cfg.ReactionHandler != nil {
		react := api.Group("")
		if cfg.RateLimiter != nil {
			react.Use(middleware.RateLimit(cfg.RateLimiter, middleware.ClientIPKey))
		}
		cfg.ReactionHandler.RegisterRoutes(react)
	}
	if cfg.TelemetryHandler != nil {
		cfg.TelemetryHandler.RegisterRoutes(api)
	}
	if cfg.CatalogHandler != nil {
		cfg.CatalogHandler.RegisterRoutes(api)
	}

	if cfg.StaticDir != "" {
		index := cfg.IndexFile
		if index == "" {
			index = DefaultIndexFile
		}
		r.NoRoute(staticFiles(cfg.StaticDir, index))
	} else {
		r.NoRoute(notFound)
	}
	return r
}

// staticFiles serves dir for GET and HEAD requests outside /api.
func staticFiles(dir, index string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFound(c)
			return
		}
		if c.Request.URL.Path == "/" {
			c.File(filepath.Join(dir, index))
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, handlers.Envelope{Error: "not found"})
}

//Personal.AI order the ending
