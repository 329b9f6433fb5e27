package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
	"github.com/turtacn/rxnguard/pkg/errors"
)

func decodeJSON(w *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

func telemetryEngine(reader TelemetryReader) *gin.Engine {
	r := gin.New()
	NewTelemetryHandler(reader, logging.NewNopLogger()).RegisterRoutes(r.Group("/api"))
	return r
}

func seededSink(t *testing.T, n int) *telemetry.Sink {
	t.Helper()
	ctx := context.Background()
	sink := telemetry.NewSink(telemetry.NewMemoryStore(), logging.NewNopLogger())
	for i := 0; i < n; i++ {
		sim := 0.1
		entry := telemetry.NewFailureEntry([]string{"CCO"}, "[O:1]>>[O:1]", "Identity", plausibility.VerdictRecord{
			Product:    fmt.Sprintf("C%d", i),
			Similarity: &sim,
			Reason:     "too dissimilar",
		})
		_, err := sink.AppendFailure(ctx, entry)
		require.NoError(t, err)
	}
	require.NoError(t, sink.UpdateStats(ctx, "Identity", 3, 1, 2))
	return sink
}

func TestTelemetryHandler_Stats(t *testing.T) {
	w := doRequest(telemetryEngine(seededSink(t, 2)), http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool              `json:"success"`
		Data    telemetry.Summary `json:"data"`
	}
	require.NoError(t, decodeJSON(w, &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Data.TotalFailedLogged)
	assert.Equal(t, "memory", body.Data.Backend)
	assert.Equal(t, int64(3), body.Data.ReactionStats["Identity"].TotalProducts)
	assert.Len(t, body.Data.FailureReasons, 3)
}

func TestTelemetryHandler_Unavailable(t *testing.T) {
	r := telemetryEngine(nil)
	for _, path := range []string{"/api/stats", "/api/failures"} {
		w := doRequest(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Reaction logger not available"}`, w.Body.String())
	}
}

type brokenReader struct{}

func (brokenReader) Summarize(context.Context) (telemetry.Summary, error) {
	return telemetry.Summary{}, errors.New(errors.ErrCodeTelemetryLoad, "failed_reactions is corrupt")
}

func (brokenReader) FailedReactions(context.Context, int) ([]telemetry.FailureEntry, error) {
	return nil, errors.New(errors.ErrCodeTelemetryLoad, "failed_reactions is corrupt")
}

func (brokenReader) MaxFailures() int { return telemetry.DefaultMaxFailures }

func TestTelemetryHandler_LoadErrors(t *testing.T) {
	r := telemetryEngine(brokenReader{})

	w := doRequest(r, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"failed_reactions is corrupt"}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/failures", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"failed to load telemetry"}`, w.Body.String())
}

func TestTelemetryHandler_Failures(t *testing.T) {
	r := telemetryEngine(seededSink(t, 5))

	tests := []struct {
		query    string
		status   int
		products []string
	}{
		{"", http.StatusOK, []string{"C0", "C1", "C2", "C3", "C4"}},
		{"?limit=2", http.StatusOK, []string{"C3", "C4"}},
		{"?limit=5000", http.StatusOK, []string{"C0", "C1", "C2", "C3", "C4"}},
		{"?limit=0", http.StatusBadRequest, nil},
		{"?limit=abc", http.StatusBadRequest, nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.query, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/api/failures"+tc.query, "")
			require.Equal(t, tc.status, w.Code)

			var body struct {
				Success bool                     `json:"success"`
				Data    []telemetry.FailureEntry `json:"data"`
				Error   string                   `json:"error"`
			}
			require.NoError(t, decodeJSON(w, &body))
			if tc.status != http.StatusOK {
				assert.False(t, body.Success)
				assert.Equal(t, "limit must be a positive integer", body.Error)
				return
			}
			var products []string
			for _, e := range body.Data {
				products = append(products, e.Product)
			}
			assert.Equal(t, tc.products, products)
		})
	}
}

func TestTelemetryHandler_EmptyFailuresIsList(t *testing.T) {
	sink := telemetry.NewSink(telemetry.NewMemoryStore(), logging.NewNopLogger())
	w := doRequest(telemetryEngine(sink), http.MethodGet, "/api/failures", "")
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

//Personal.AI order the ending
