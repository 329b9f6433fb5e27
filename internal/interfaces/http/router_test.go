package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/application/catalog"
	"github.com/turtacn/rxnguard/internal/application/pipeline"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/internal/interfaces/http/handlers"
	"github.com/turtacn/rxnguard/internal/interfaces/http/middleware"
	"github.com/turtacn/rxnguard/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	sink   *telemetry.Sink
	log    *testutil.MockLogger
}

func newFixture(t *testing.T, mutate func(*RouterConfig)) *fixture {
	t.Helper()
	log := testutil.NewMockLogger()
	sink := telemetry.NewSink(telemetry.NewMemoryStore(), log)
	cat := catalog.Default()
	svc := pipeline.NewService(pipeline.DefaultConfig(), pipeline.Deps{
		Recorder: sink,
		Catalog:  cat,
		Logger:   log,
	})

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "rxnguard_test"}, log)
	require.NoError(t, err)

	cfg := RouterConfig{
		ReactionHandler:  handlers.NewReactionHandler(svc, 0, log),
		TelemetryHandler: handlers.NewTelemetryHandler(sink, log),
		CatalogHandler:   handlers.NewCatalogHandler(cat),
		HealthHandler:    handlers.NewHealthHandler("test", nil, handlers.NewChecker("telemetry_store", sink.Ping)),
		CORS:             middleware.DefaultCORSConfig(),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           log,
		MetricsCollector: collector,
		AppMetrics:       prometheus.NewAppMetrics(collector),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &fixture{router: NewRouter(cfg), sink: sink, log: log}
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestNewRouter_ReactionEndToEnd(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/react", `{"reaction_id":"alkene_gen_1","reactants":["C=C","BrBr"]}`,
		map[string]string{"Origin": "http://localhost:3000", middleware.RequestIDHeader: "rid-7"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "rid-7", w.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"products":[`)

	msg, ok := f.log.Find("info", "HTTP request completed")
	require.True(t, ok)
	path, _ := msg.Field("path")
	assert.Equal(t, "/api/react", path)
}

func TestNewRouter_Preflight(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodOptions, "/api/react", "", map[string]string{"Origin": "https://x.test"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(http.MethodOptions, "/api/stats", "", map[string]string{"Origin": "https://x.test"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_ReadEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/api/stats", "/api/failures?limit=3", "/api/reactions", "/api/reactions/alkene_gen_1", "/healthz", "/readyz"} {
		w := f.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNewRouter_Metrics(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodPost, "/api/react", `{"smarts":"[#6:1].[#6:2]>>[#6:1][#6:2]","reactants":["C"]}`, nil)

	w := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rxnguard_test_")
}

func TestNewRouter_RecoveredPanicIsLogged(t *testing.T) {
	f := newFixture(t, nil)
	f.router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := f.do(http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","products":[]}`, w.Body.String())
	assert.True(t, f.log.HasMessage("error", "Panic recovered"))
	assert.True(t, f.log.HasMessage("error", "HTTP request completed with server error"))
}

func TestNewRouter_RateLimitOnlyOnReact(t *testing.T) {
	limiter := middleware.NewTokenBucketLimiter(0.001, 1, 0)
	defer limiter.Stop()
	f := newFixture(t, func(cfg *RouterConfig) { cfg.RateLimiter = limiter })

	body := `{"smarts":"[#6:1].[#6:2]>>[#6:1][#6:2]","reactants":["C"]}`
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/react", body, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodPost, "/api/react", body, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/stats", "", nil).Code)
}

func TestNewRouter_NilHandlers(t *testing.T) {
	r := NewRouter(RouterConfig{CORS: middleware.DefaultCORSConfig()})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"not found"}`, w.Body.String())
}

func TestNewRouter_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>rxn</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reactions.js"), []byte("var x = 1;"), 0o644))

	f := newFixture(t, func(cfg *RouterConfig) { cfg.StaticDir = dir })

	w := f.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rxn")

	w = f.do(http.MethodGet, "/reactions.js", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "var x")

	w = f.do(http.MethodGet, "/missing.css", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/api/react", `{"smarts":"[#6:1].[#6:2]>>[#6:1][#6:2]","reactants":["C"]}`, nil)
	assert.JSONEq(t, `{"products":["CC"]}`, w.Body.String(), "api routes win over static files")
}

func TestNewRouter_ReadinessReflectsStore(t *testing.T) {
	f := newFixture(t, func(cfg *RouterConfig) {
		cfg.HealthHandler = handlers.NewHealthHandler("test", nil,
			handlers.NewChecker("telemetry_store", func(context.Context) error { return context.DeadlineExceeded }))
	})
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/readyz", "", nil).Code)
}

//Personal.AI order the ending
