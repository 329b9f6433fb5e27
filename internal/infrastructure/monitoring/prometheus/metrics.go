package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Pipeline
	PipelineInvocationsTotal CounterVec
	PipelineStageDuration    HistogramVec
	PipelineCandidates       HistogramVec
	PipelineVerdictsTotal    CounterVec
	PipelineDroppedReactants CounterVec

	// Embedding
	EmbeddingRequestsTotal  CounterVec
	EmbeddingDuration       HistogramVec
	EmbeddingProviderStatus GaugeVec

	// Telemetry
	TelemetryWritesTotal  CounterVec
	RejectionEventsTotal  CounterVec
	CatalogTemplatesTotal GaugeVec

	// System Health
	HealthCheckStatus GaugeVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultStageDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30}
	DefaultCandidateBuckets     = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Pipeline
	m.PipelineInvocationsTotal = collector.RegisterCounter("pipeline_invocations_total", "Pipeline invocations by terminal stage and outcome", "stage", "outcome")
	m.PipelineStageDuration = collector.RegisterHistogram("pipeline_stage_duration_seconds", "Time spent per pipeline stage", DefaultStageDurationBuckets, "stage")
	m.PipelineCandidates = collector.RegisterHistogram("pipeline_candidates", "Candidates per invocation after each stage", DefaultCandidateBuckets, "stage")
	m.PipelineVerdictsTotal = collector.RegisterCounter("pipeline_verdicts_total", "Scored candidates by verdict", "verdict")
	m.PipelineDroppedReactants = collector.RegisterCounter("pipeline_dropped_reactants_total", "Reactants dropped because they failed to parse")

	// Embedding
	m.EmbeddingRequestsTotal = collector.RegisterCounter("embedding_requests_total", "Embedding calls", "embedder", "status")
	m.EmbeddingDuration = collector.RegisterHistogram("embedding_duration_seconds", "Embedding call duration", DefaultHTTPDurationBuckets, "embedder")
	m.EmbeddingProviderStatus = collector.RegisterGauge("embedding_provider_initialized", "Embedding provider initialized (1) or not (0)")

	// Telemetry
	m.TelemetryWritesTotal = collector.RegisterCounter("telemetry_writes_total", "Telemetry document writes", "op", "status")
	m.RejectionEventsTotal = collector.RegisterCounter("rejection_events_total", "Rejection events published to the broker", "status")
	m.CatalogTemplatesTotal = collector.RegisterGauge("catalog_templates", "Templates in the loaded reaction catalog")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers.  All accept a nil *AppMetrics so callers need no guards.
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordInvocation counts one pipeline run by the stage it ended in.
func RecordInvocation(metrics *AppMetrics, stage string, failed bool) {
	if metrics == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	metrics.PipelineInvocationsTotal.WithLabelValues(stage, outcome).Inc()
}

func RecordStage(metrics *AppMetrics, stage string, duration time.Duration, candidates int) {
	if metrics == nil {
		return
	}
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if candidates >= 0 {
		metrics.PipelineCandidates.WithLabelValues(stage).Observe(float64(candidates))
	}
}

// RecordVerdict counts accepted, rejected and degraded verdicts.
func RecordVerdict(metrics *AppMetrics, verdict string) {
	if metrics == nil {
		return
	}
	metrics.PipelineVerdictsTotal.WithLabelValues(verdict).Inc()
}

func RecordDroppedReactants(metrics *AppMetrics, n int) {
	if metrics == nil || n <= 0 {
		return
	}
	metrics.PipelineDroppedReactants.WithLabelValues().Add(float64(n))
}

func RecordEmbedding(metrics *AppMetrics, embedder string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(embedder, statusOf(err)).Inc()
	metrics.EmbeddingDuration.WithLabelValues(embedder).Observe(duration.Seconds())
}

func RecordProviderInitialized(metrics *AppMetrics, initialized bool) {
	if metrics == nil {
		return
	}
	metrics.EmbeddingProviderStatus.WithLabelValues().Set(boolGauge(initialized))
}

func RecordTelemetryWrite(metrics *AppMetrics, op string, err error) {
	if metrics == nil {
		return
	}
	metrics.TelemetryWritesTotal.WithLabelValues(op, statusOf(err)).Inc()
}

func RecordRejectionEvent(metrics *AppMetrics, err error) {
	if metrics == nil {
		return
	}
	metrics.RejectionEventsTotal.WithLabelValues(statusOf(err)).Inc()
}

func RecordCatalogSize(metrics *AppMetrics, n int) {
	if metrics == nil {
		return
	}
	metrics.CatalogTemplatesTotal.WithLabelValues().Set(float64(n))
}

func RecordHealth(metrics *AppMetrics, component string, up bool) {
	if metrics == nil {
		return
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(boolGauge(up))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

//Personal.AI order the ending
