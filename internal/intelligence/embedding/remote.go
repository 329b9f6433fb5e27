package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// ---------------------------------------------------------------------------
// Remote (HTTP) embedder
// ---------------------------------------------------------------------------

// RemoteEmbedder calls a text-embeddings inference endpoint.  The request is
// {"inputs": text, "truncate": true}; the response may be a single vector, a
// batch of one vector, a token matrix, or a batch holding one token matrix.
// Token matrices are mean-pooled.
type RemoteEmbedder struct {
	endpoint string
	model    string
	dim      int
	client   *http.Client
	logger   logging.Logger
}

type RemoteOption func(*RemoteEmbedder)

func WithModel(model string) RemoteOption {
	return func(r *RemoteEmbedder) { r.model = model }
}

// WithDimension makes Embed reject vectors of any other length.  Zero
// accepts whatever the endpoint returns.
func WithDimension(dim int) RemoteOption {
	return func(r *RemoteEmbedder) { r.dim = dim }
}

func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteEmbedder) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteEmbedder) {
		if c != nil {
			r.client = c
		}
	}
}

func WithLogger(log logging.Logger) RemoteOption {
	return func(r *RemoteEmbedder) {
		if log != nil {
			r.logger = log
		}
	}
}

// NewRemoteEmbedder validates the endpoint and applies options.
func NewRemoteEmbedder(endpoint string, opts ...RemoteOption) (*RemoteEmbedder, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "embedding endpoint cannot be empty")
	}
	r := &RemoteEmbedder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dimension is the configured dimension, or 0 when unchecked.
func (r *RemoteEmbedder) Dimension() int { return r.dim }

func (r *RemoteEmbedder) Name() string {
	if r.model != "" {
		return "http-" + r.model
	}
	return "http"
}

type remoteRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
	Model    string `json:"model,omitempty"`
}

func (r *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(remoteRequest{Inputs: text, Truncate: true, Model: r.model})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode embedding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAIModelNotAvailable, "invalid embedding endpoint")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAIModelNotAvailable, "embedding endpoint unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAIInferenceFailed, "failed to read embedding response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(payload)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, errors.Newf(errors.ErrCodeAIInferenceFailed, "embedding endpoint returned %d", resp.StatusCode).
			WithDetail(snippet)
	}

	vec, err := decodeEmbedding(payload)
	if err != nil {
		return nil, err
	}
	if r.dim > 0 && len(vec) != r.dim {
		return nil, errors.Newf(errors.ErrCodeAIInferenceFailed, "embedding has dimension %d, want %d", len(vec), r.dim)
	}
	r.logger.Debug("Remote embedding computed",
		logging.String("model", r.model),
		logging.Int("dimension", len(vec)),
		logging.Duration("latency", time.Since(start)),
	)
	return vec, nil
}

// decodeEmbedding accepts the response shapes served by common inference
// servers, tried from the deepest nesting down.
func decodeEmbedding(payload []byte) ([]float32, error) {
	var batchMatrix [][][]float32
	if err := json.Unmarshal(payload, &batchMatrix); err == nil && len(batchMatrix) > 0 {
		return MeanPool(batchMatrix[0])
	}
	var matrix [][]float32
	if err := json.Unmarshal(payload, &matrix); err == nil && len(matrix) > 0 {
		return MeanPool(matrix)
	}
	var vector []float32
	if err := json.Unmarshal(payload, &vector); err == nil && len(vector) > 0 {
		return vector, nil
	}
	var wrapped struct {
		Embeddings [][]float32 `json:"embeddings"`
		Data       []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil {
		if len(wrapped.Embeddings) > 0 {
			return MeanPool(wrapped.Embeddings)
		}
		if len(wrapped.Data) > 0 && len(wrapped.Data[0].Embedding) > 0 {
			return wrapped.Data[0].Embedding, nil
		}
	}
	return nil, errors.New(errors.ErrCodeAIInferenceFailed, "unrecognised embedding response")
}

//Personal.AI order the ending
