package http

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/config"
	"github.com/turtacn/rxnguard/internal/testutil"
)

func TestNewServer(t *testing.T) {
	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, http.NewServeMux(), nil)
	require.NotNil(t, server)
	assert.Equal(t, "127.0.0.1:8080", server.Addr())
	assert.Equal(t, defaultShutdownTimeout, server.shutdownTimeout)
}

func TestServer_RunServesUntilCancelled(t *testing.T) {
	r := gin.New()
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	log := testutil.NewMockLogger()
	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, r, log)
	require.NoError(t, server.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	resp, err := http.Get("http://" + server.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, log.HasMessage("info", "HTTP server stopped"))
}

func TestServer_StopBeforeStart(t *testing.T) {
	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0}, http.NewServeMux(), nil)
	assert.NoError(t, server.Stop(context.Background()))
}

//Personal.AI order the ending
