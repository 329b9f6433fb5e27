package handlers

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rxnguard/internal/application/pipeline"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
)

// DefaultMaxBodySize bounds a reaction request body.
const DefaultMaxBodySize int64 = 1 << 20

const (
	MsgEmptyBody    = "Request body is empty or not JSON"
	MsgInvalidJSON  = "Invalid JSON: "
	MsgBodyTooLarge = "Request body too large"
)

// ReactionHandler exposes the pipeline at POST /api/react.
type ReactionHandler struct {
	svc         pipeline.Service
	maxBodySize int64
	logger      logging.Logger
}

// NewReactionHandler builds the handler.  A non-positive maxBodySize uses
// DefaultMaxBodySize.
func NewReactionHandler(svc pipeline.Service, maxBodySize int64, logger logging.Logger) *ReactionHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &ReactionHandler{svc: svc, maxBodySize: maxBodySize, logger: logger}
}

// RegisterRoutes mounts the reaction endpoint on rg.
func (h *ReactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/react", h.React)
	rg.OPTIONS("/react", h.Preflight)
}

// Preflight answers a browser preflight.  CORS headers are set by the
// middleware.
func (h *ReactionHandler) Preflight(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// React runs one pipeline invocation.  Every outcome except an oversized
// body is reported with HTTP 200.
func (h *ReactionHandler) React(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, failureBody(MsgBodyTooLarge))
			return
		}
		c.JSON(http.StatusOK, failureBody(MsgInvalidJSON+err.Error()))
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		c.JSON(http.StatusOK, failureBody(MsgEmptyBody))
		return
	}

	var req pipeline.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Debug("Reaction request rejected", logging.Err(err))
		c.JSON(http.StatusOK, failureBody(MsgInvalidJSON+err.Error()))
		return
	}

	resp := h.svc.Run(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

func failureBody(msg string) *pipeline.Response {
	return &pipeline.Response{Products: []string{}, Error: msg}
}

//Personal.AI order the ending
