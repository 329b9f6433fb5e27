package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)
	return m, c
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "POST", "/api/react", 200, 100*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/api/react",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/api/react"} 1`)
}

func TestRecordPipeline(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordInvocation(m, "reported", false)
	RecordInvocation(m, "generated", true)
	RecordStage(m, "normalized", 2*time.Millisecond, 3)
	RecordStage(m, "parsed", time.Millisecond, -1)
	RecordVerdict(m, "accepted")
	RecordVerdict(m, "rejected")
	RecordVerdict(m, "rejected")
	RecordDroppedReactants(m, 2)
	RecordDroppedReactants(m, 0)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_pipeline_invocations_total{outcome="success",stage="reported"} 1`)
	assert.Contains(t, output, `test_unit_pipeline_invocations_total{outcome="failure",stage="generated"} 1`)
	assert.Contains(t, output, `test_unit_pipeline_candidates_sum{stage="normalized"} 3`)
	assert.NotContains(t, output, `test_unit_pipeline_candidates_sum{stage="parsed"}`)
	assert.Contains(t, output, `test_unit_pipeline_verdicts_total{verdict="rejected"} 2`)
	assert.Contains(t, output, `test_unit_pipeline_dropped_reactants_total 2`)
}

func TestRecordEmbeddingAndTelemetry(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordEmbedding(m, "hash-768", time.Millisecond, nil)
	RecordEmbedding(m, "hash-768", time.Millisecond, errors.New("boom"))
	RecordProviderInitialized(m, true)
	RecordTelemetryWrite(m, "append_failure", nil)
	RecordRejectionEvent(m, errors.New("broker down"))
	RecordCatalogSize(m, 42)
	RecordHealth(m, "telemetry", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_embedding_requests_total{embedder="hash-768",status="error"} 1`)
	assert.Contains(t, output, `test_unit_embedding_provider_initialized 1`)
	assert.Contains(t, output, `test_unit_telemetry_writes_total{op="append_failure",status="ok"} 1`)
	assert.Contains(t, output, `test_unit_rejection_events_total{status="error"} 1`)
	assert.Contains(t, output, `test_unit_catalog_templates 42`)
	assert.Contains(t, output, `test_unit_health_check_status{component="telemetry"} 0`)
}

func TestHelpers_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest(nil, "GET", "/", 200, 0)
		RecordInvocation(nil, "reported", false)
		RecordStage(nil, "scored", 0, 1)
		RecordVerdict(nil, "accepted")
		RecordDroppedReactants(nil, 1)
		RecordEmbedding(nil, "x", 0, nil)
		RecordProviderInitialized(nil, true)
		RecordTelemetryWrite(nil, "clear", nil)
		RecordRejectionEvent(nil, nil)
		RecordCatalogSize(nil, 1)
		RecordHealth(nil, "x", true)
	})
}

//Personal.AI order the ending
