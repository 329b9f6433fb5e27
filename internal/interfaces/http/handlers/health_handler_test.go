package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthEngine(checkers ...HealthChecker) *gin.Engine {
	r := gin.New()
	NewHealthHandler("v1.2.3", nil, checkers...).RegisterRoutes(r)
	return r
}

func okChecker(name string) HealthChecker {
	return NewChecker(name, func(context.Context) error { return nil })
}

func TestHealthHandler_Liveness(t *testing.T) {
	w := doRequest(healthEngine(NewChecker("store", func(context.Context) error {
		return errors.New("down")
	})), http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, decodeJSON(w, &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		checkers []HealthChecker
		status   int
		want     string
	}{
		{"no checkers", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{okChecker("telemetry_store"), okChecker("embedding")}, http.StatusOK, "ready"},
		{"one failing", []HealthChecker{
			okChecker("telemetry_store"),
			NewChecker("embedding", func(context.Context) error { return errors.New("endpoint unreachable") }),
		}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(healthEngine(tc.checkers...), http.MethodGet, "/readyz", "")
			require.Equal(t, tc.status, w.Code)
			var resp ReadinessResponse
			require.NoError(t, decodeJSON(w, &resp))
			assert.Equal(t, tc.want, resp.Status)
			assert.Len(t, resp.Components, len(tc.checkers))
			if tc.status != http.StatusOK {
				assert.Equal(t, "unhealthy", resp.Components["embedding"].Status)
				assert.Equal(t, "endpoint unreachable", resp.Components["embedding"].Error)
				assert.Equal(t, "healthy", resp.Components["telemetry_store"].Status)
			}
		})
	}
}

func TestHealthHandler_Detailed(t *testing.T) {
	w := doRequest(healthEngine(okChecker("telemetry_store")), http.MethodGet, "/healthz/detail", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp DetailedResponse
	require.NoError(t, decodeJSON(w, &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Components["telemetry_store"].Latency)

	w = doRequest(healthEngine(NewChecker("x", func(context.Context) error { return errors.New("no") })),
		http.MethodGet, "/healthz/detail", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, decodeJSON(w, &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestHealthHandler_ChecksHonourTimeout(t *testing.T) {
	slow := NewChecker("slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		return nil
	})
	w := doRequest(healthEngine(slow), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

//Personal.AI order the ending
