package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// DefaultFailureLimit is used when /api/failures has no limit parameter.
const DefaultFailureLimit = 100

// MsgTelemetryUnavailable is reported when no sink is configured.
const MsgTelemetryUnavailable = "Reaction logger not available"

// TelemetryReader is the read side of the telemetry sink.
type TelemetryReader interface {
	Summarize(ctx context.Context) (telemetry.Summary, error)
	FailedReactions(ctx context.Context, limit int) ([]telemetry.FailureEntry, error)
	MaxFailures() int
}

// TelemetryHandler serves the statistics endpoints.
type TelemetryHandler struct {
	reader TelemetryReader
	logger logging.Logger
}

// NewTelemetryHandler builds the handler.  reader may be nil when telemetry
// is disabled; the endpoints then report an unavailable logger.
func NewTelemetryHandler(reader TelemetryReader, logger logging.Logger) *TelemetryHandler {
	return &TelemetryHandler{reader: reader, logger: logger}
}

// RegisterRoutes mounts the endpoints on rg.
func (h *TelemetryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)
	rg.GET("/failures", h.Failures)
}

// Stats handles GET /api/stats.
func (h *TelemetryHandler) Stats(c *gin.Context) {
	if h.reader == nil {
		c.JSON(http.StatusOK, Envelope{Error: MsgTelemetryUnavailable})
		return
	}
	summary, err := h.reader.Summarize(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to summarize telemetry", logging.Err(err))
		c.JSON(http.StatusOK, Envelope{Error: errors.UserMessage(err)})
		return
	}
	writeData(c, summary)
}

// Failures handles GET /api/failures?limit=N and returns the newest entries
// oldest first.
func (h *TelemetryHandler) Failures(c *gin.Context) {
	if h.reader == nil {
		c.JSON(http.StatusOK, Envelope{Error: MsgTelemetryUnavailable})
		return
	}
	limit, err := parseLimit(c, "limit", DefaultFailureLimit, h.reader.MaxFailures())
	if err != nil {
		writeAppError(c, err)
		return
	}
	entries, err := h.reader.FailedReactions(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load failure log", logging.Err(err))
		writeAppError(c, err)
		return
	}
	if entries == nil {
		entries = []telemetry.FailureEntry{}
	}
	writeData(c, entries)
}

//Personal.AI order the ending
