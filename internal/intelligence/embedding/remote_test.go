package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/pkg/errors"
)

func newEmbeddingServer(t *testing.T, status int, body string) (*httptest.Server, *remoteRequest) {
	t.Helper()
	var got remoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestRemoteEmbedder_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []float32
	}{
		{"vector", `[1, 2, 3]`, []float32{1, 2, 3}},
		{"batch of vectors", `[[1, 2, 3]]`, []float32{1, 2, 3}},
		{"token matrix", `[[1, 2], [3, 4]]`, []float32{2, 3}},
		{"batch of token matrix", `[[[1, 0], [0, 1]]]`, []float32{0.5, 0.5}},
		{"openai style", `{"data": [{"embedding": [0.5, 0.25]}]}`, []float32{0.5, 0.25}},
		{"embeddings field", `{"embeddings": [[2, 2], [4, 4]]}`, []float32{3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newEmbeddingServer(t, http.StatusOK, tt.body)
			e, err := NewRemoteEmbedder(srv.URL, WithModel("chem"))
			require.NoError(t, err)

			vec, err := e.Embed(context.Background(), "CCO")
			require.NoError(t, err)
			assert.Equal(t, tt.want, vec)
			assert.Equal(t, "CCO", got.Inputs)
			assert.True(t, got.Truncate)
			assert.Equal(t, "chem", got.Model)
		})
	}
}

func TestRemoteEmbedder_Errors(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		srv, _ := newEmbeddingServer(t, http.StatusServiceUnavailable, `{"error":"loading"}`)
		e, err := NewRemoteEmbedder(srv.URL)
		require.NoError(t, err)
		_, err = e.Embed(context.Background(), "C")
		assert.True(t, errors.IsCode(err, errors.ErrCodeAIInferenceFailed))
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("garbage", func(t *testing.T) {
		srv, _ := newEmbeddingServer(t, http.StatusOK, `"hello"`)
		e, _ := NewRemoteEmbedder(srv.URL)
		_, err := e.Embed(context.Background(), "C")
		assert.True(t, errors.IsCode(err, errors.ErrCodeAIInferenceFailed))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		srv, _ := newEmbeddingServer(t, http.StatusOK, `[1, 2]`)
		e, _ := NewRemoteEmbedder(srv.URL, WithDimension(3))
		_, err := e.Embed(context.Background(), "C")
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		e, _ := NewRemoteEmbedder("http://127.0.0.1:1/embed", WithTimeout(time.Second))
		_, err := e.Embed(context.Background(), "C")
		assert.True(t, errors.IsCode(err, errors.ErrCodeAIModelNotAvailable))
	})

	t.Run("empty endpoint", func(t *testing.T) {
		_, err := NewRemoteEmbedder("  ")
		assert.True(t, errors.IsCode(err, errors.ErrCodeAIModelNotAvailable))
	})
}

func TestRemoteEmbedder_Name(t *testing.T) {
	e, _ := NewRemoteEmbedder("http://x")
	assert.Equal(t, "http", e.Name())
	e, _ = NewRemoteEmbedder("http://x", WithModel("m"), WithDimension(8))
	assert.Equal(t, "http-m", e.Name())
	assert.Equal(t, 8, e.Dimension())
}

//Personal.AI order the ending
