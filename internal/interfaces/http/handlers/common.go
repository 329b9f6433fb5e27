// Package handlers implements the HTTP endpoints of RxnGuard on gin.
//
// Two response shapes are in use.  The reaction endpoint answers with the
// pipeline Response ({products, validation?, ai_validated?, error?}) and keeps
// HTTP 200 for every application-level failure.  The read endpoints answer
// with an envelope {success, data} or {success:false, error}.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// Envelope is the body of the read endpoints.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// writeFailure reports a failure with an explicit status.
func writeFailure(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: msg})
}

// writeAppError maps application errors to HTTP status codes.  Internal
// faults are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if errors.IsServerError(code) {
		_ = c.Error(err)
		writeFailure(c, status, errors.DefaultMessageForCode(code))
		return
	}
	writeFailure(c, status, errors.UserMessage(err))
}

// parseLimit reads a positive integer query parameter.  An absent parameter
// yields def.
func parseLimit(c *gin.Context, name string, def, max int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New(errors.ErrCodeBadRequest, name+" must be a positive integer")
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

//Personal.AI order the ending
