package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/domain/molecule"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/internal/intelligence/embedding"
	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
	"github.com/turtacn/rxnguard/pkg/errors"
)

const (
	brominationSmarts = "[C:1]=[C:2].[Br][Br]>>[C:1]([Br])-[C:2]([Br])"
	couplingSmarts    = "[#6:1].[#6:2]>>[#6:1][#6:2]"
	splitSmarts       = "[C:1]-[O:2]>>[C:1].[O:2]"
)

// stubEmbedder returns fixed vectors by text and fails for anything else.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return nil, errors.New(errors.ErrCodeAIInferenceFailed, "no vector").WithDetail(text)
}

func (s *stubEmbedder) Dimension() int { return 2 }
func (s *stubEmbedder) Name() string   { return "stub" }

// MockRecorder is a testify mock for FailureRecorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) AppendFailure(ctx context.Context, entry telemetry.FailureEntry) (telemetry.FailureEntry, error) {
	args := m.Called(ctx, entry)
	return entry, args.Error(1)
}

func (m *MockRecorder) UpdateStats(ctx context.Context, label string, total, accepted, rejected int) error {
	return m.Called(ctx, label, total, accepted, rejected).Error(0)
}

type stubCatalog map[string][2]string

func (c stubCatalog) Resolve(id string) (string, string, error) {
	e, ok := c[id]
	if !ok {
		return "", "", errors.New(errors.ErrCodeCatalogEntryNotFound, "reaction not in catalog").WithDetail(id)
	}
	return e[0], e[1], nil
}

func canonical(t *testing.T, s string) string {
	t.Helper()
	c, err := molecule.Canonicalize(s)
	require.NoError(t, err)
	return c
}

func newScorer(t *testing.T, e embedding.Embedder) *plausibility.Scorer {
	t.Helper()
	s, err := plausibility.NewScorer(e, plausibility.DefaultThresholds, nil)
	require.NoError(t, err)
	return s
}

func newSink() *telemetry.Sink {
	return telemetry.NewSink(telemetry.NewMemoryStore(), logging.NewNopLogger())
}

func newMetrics(t *testing.T) *prometheus.AppMetrics {
	t.Helper()
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)
	return prometheus.NewAppMetrics(c)
}

// ----------------------------------------------------------------------------
// Scenarios
// ----------------------------------------------------------------------------

func TestRun_ScenarioA_BrominationAccepted(t *testing.T) {
	ctx := context.Background()
	product := canonical(t, "BrCCBr")
	e := &stubEmbedder{vectors: map[string][]float32{
		"C=C.BrBr": {1, 0},
		product:    {0.5, 0.8660254},
	}}
	sink := newSink()
	svc := NewService(DefaultConfig(), Deps{Scorer: newScorer(t, e), Recorder: sink, Metrics: newMetrics(t)})

	resp := svc.Run(ctx, &Request{Smarts: brominationSmarts, Reactants: Reactants{"C=C", "BrBr"}, ReactionName: "Bromination"})

	require.Empty(t, resp.Error)
	assert.Equal(t, []string{product}, resp.Products)
	assert.True(t, resp.AIValidated)
	require.Len(t, resp.Validation, 1)
	assert.Equal(t, 0.5, *resp.Validation[0].Similarity)
	assert.Equal(t, plausibility.ReasonPlausible, resp.Validation[0].Reason)

	stats, err := sink.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["Bromination"].TotalRuns)
	assert.Equal(t, int64(1), stats["Bromination"].ValidProducts)
	assert.Equal(t, 100.0, stats["Bromination"].SuccessRate)
}

func TestRun_ScenarioB_PaddingByDuplication(t *testing.T) {
	svc := NewService(DefaultConfig(), Deps{})

	resp := svc.Run(context.Background(), &Request{Smarts: couplingSmarts, Reactants: Reactants{"C"}})

	require.Empty(t, resp.Error)
	assert.Equal(t, []string{"CC"}, resp.Products)
	assert.Nil(t, resp.Validation, "scoring disabled")
	assert.False(t, resp.AIValidated)
}

func TestRun_ScenarioC_TemplateParseError(t *testing.T) {
	rec := new(MockRecorder)
	svc := NewService(DefaultConfig(), Deps{Scorer: newScorer(t, &stubEmbedder{}), Recorder: rec})

	resp := svc.Run(context.Background(), &Request{Smarts: "[C:1=>>", Reactants: Reactants{"CCO"}})

	assert.Equal(t, []string{}, resp.Products)
	assert.True(t, strings.HasPrefix(resp.Error, "SMARTS parse error: "), resp.Error)
	rec.AssertNotCalled(t, "AppendFailure", mock.Anything, mock.Anything)
	rec.AssertNotCalled(t, "UpdateStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ScenarioD_IdenticalProductRejected(t *testing.T) {
	ctx := context.Background()
	ethanol := canonical(t, "OCC")
	sink := newSink()
	svc := NewService(DefaultConfig(), Deps{
		Scorer:   newScorer(t, embedding.NewHashEmbedder(768, 512)),
		Recorder: sink,
	})

	resp := svc.Run(ctx, &Request{Smarts: "[O:1]>>[O:1]", Reactants: Reactants{ethanol}, ReactionName: "Identity"})

	require.Empty(t, resp.Error)
	assert.Empty(t, resp.Products)
	require.Len(t, resp.Validation, 1)
	assert.False(t, resp.Validation[0].Accepted)
	assert.Equal(t, plausibility.ReasonTooSimilar, resp.Validation[0].Reason)

	failures, err := sink.FailedReactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, ethanol, failures[0].Product)
	assert.Equal(t, "[O:1]>>[O:1]", failures[0].Smarts)
	require.NotNil(t, failures[0].ReactionName)
	assert.Equal(t, "Identity", *failures[0].ReactionName)
	assert.Equal(t, []string{ethanol}, failures[0].Reactants)

	sum, err := sink.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FailureReasons["too_similar"])
	assert.Equal(t, int64(1), sum.ReactionStats["Identity"].FailedProducts)
}

// ----------------------------------------------------------------------------
// Fail-open
// ----------------------------------------------------------------------------

func TestRun_FailOpenWhenEmbedderUnavailable(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("UpdateStats", mock.Anything, telemetry.UnknownReaction, 2, 2, 0).Return(nil)
	svc := NewService(DefaultConfig(), Deps{Scorer: newScorer(t, &stubEmbedder{}), Recorder: rec, Metrics: newMetrics(t)})

	resp := svc.Run(context.Background(), &Request{Smarts: splitSmarts, Reactants: Reactants{"CCO"}})

	require.Empty(t, resp.Error)
	assert.ElementsMatch(t, []string{"CC", "O"}, resp.Products)
	require.Len(t, resp.Validation, 2)
	for _, v := range resp.Validation {
		assert.True(t, v.Accepted)
		assert.Nil(t, v.Similarity)
		assert.True(t, strings.HasPrefix(v.Reason, "validation skipped: "), v.Reason)
	}
	rec.AssertNotCalled(t, "AppendFailure", mock.Anything, mock.Anything)
	rec.AssertExpectations(t)
}

func TestRun_PartialDegradation(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("AppendFailure", mock.Anything, mock.MatchedBy(func(e telemetry.FailureEntry) bool {
		return e.Product == "CC" && e.Reason == plausibility.ReasonTooDissimilar && e.Similarity != nil && *e.Similarity == 0
	})).Return(telemetry.FailureEntry{}, nil).Once()
	rec.On("UpdateStats", mock.Anything, "Split", 2, 1, 1).Return(nil).Once()

	e := &stubEmbedder{vectors: map[string][]float32{
		"CCO": {1, 0},
		"CC":  {0, 1},
	}}
	svc := NewService(DefaultConfig(), Deps{Scorer: newScorer(t, e), Recorder: rec})

	resp := svc.Run(context.Background(), &Request{Smarts: splitSmarts, Reactants: Reactants{"CCO"}, ReactionName: "Split"})

	require.Empty(t, resp.Error)
	assert.Equal(t, []string{"O"}, resp.Products)
	require.Len(t, resp.Rejected(), 1)
	require.Len(t, resp.Accepted(), 1)
	assert.True(t, resp.Accepted()[0].Degraded())
	rec.AssertExpectations(t)
}

func TestRun_RecorderErrorsDoNotFailRequest(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("AppendFailure", mock.Anything, mock.Anything).Return(telemetry.FailureEntry{}, errors.New(errors.ErrCodeTelemetryPersist, "disk full"))
	rec.On("UpdateStats", mock.Anything, mock.Anything, 1, 0, 1).Return(errors.New(errors.ErrCodeTelemetryPersist, "disk full"))

	svc := NewService(DefaultConfig(), Deps{Scorer: newScorer(t, embedding.NewHashEmbedder(64, 512)), Recorder: rec})
	resp := svc.Run(context.Background(), &Request{Smarts: "[O:1]>>[O:1]", Reactants: Reactants{canonical(t, "OCC")}})

	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{}, resp.Products)
	rec.AssertExpectations(t)
}

func TestRun_ZeroCandidatesStillUpdatesStats(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("UpdateStats", mock.Anything, "Bromination", 0, 0, 0).Return(nil)
	svc := NewService(DefaultConfig(), Deps{Scorer: newScorer(t, &stubEmbedder{}), Recorder: rec})

	resp := svc.Run(context.Background(), &Request{Smarts: brominationSmarts, Reactants: Reactants{"CCO", "BrBr"}, ReactionName: "Bromination"})

	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{}, resp.Products)
	assert.Nil(t, resp.Validation)
	assert.False(t, resp.AIValidated)
	rec.AssertExpectations(t)
}

// ----------------------------------------------------------------------------
// Request handling
// ----------------------------------------------------------------------------

func TestRun_RequestErrors(t *testing.T) {
	svc := NewService(DefaultConfig(), Deps{Catalog: stubCatalog{}})
	tests := []struct {
		name    string
		req     *Request
		wantErr string
	}{
		{"nil request", nil, MsgMissingSmarts},
		{"missing smarts", &Request{Reactants: Reactants{"C"}}, MsgMissingSmarts},
		{"missing reactants", &Request{Smarts: couplingSmarts}, MsgMissingReactants},
		{"no valid reactants", &Request{Smarts: couplingSmarts, Reactants: Reactants{"C1CC", "", "xyz"}}, MsgNoValidReactants},
		{"unknown reaction id", &Request{ReactionID: "nope", Reactants: Reactants{"C"}}, "Unknown reaction id: nope"},
		{"too many reactants", &Request{Smarts: "[C:1]=[C:2]>>[C:1][C:2]", Reactants: Reactants{"C=C", "C=C"}}, "Reaction execution failed: template expects 1 reactants, got 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := svc.Run(context.Background(), tt.req)
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.NotNil(t, resp.Products)
			assert.Empty(t, resp.Products)
		})
	}
}

func TestRun_DropsBadReactants(t *testing.T) {
	svc := NewService(DefaultConfig(), Deps{})
	resp := svc.Run(context.Background(), &Request{Smarts: brominationSmarts, Reactants: Reactants{"C=C", "not-a-smiles(", "BrBr"}})

	// The bad reactant is dropped, so BrBr fills the second role.
	require.Empty(t, resp.Error)
	assert.Equal(t, []string{canonical(t, "BrCCBr")}, resp.Products)
}

func TestRun_ResolvesCatalogReaction(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("UpdateStats", mock.Anything, "Alkene bromination", 1, 1, 0).Return(nil)
	product := canonical(t, "BrCCBr")
	e := &stubEmbedder{vectors: map[string][]float32{"C=C.BrBr": {1, 0}, product: {0.6, 0.8}}}

	svc := NewService(DefaultConfig(), Deps{
		Scorer:   newScorer(t, e),
		Recorder: rec,
		Catalog:  stubCatalog{"bromination": {brominationSmarts, "Alkene bromination"}},
	})
	resp := svc.Run(context.Background(), &Request{ReactionID: "bromination", Reactants: Reactants{"C=C", "BrBr"}})

	require.Empty(t, resp.Error)
	assert.Equal(t, []string{product}, resp.Products)
	rec.AssertExpectations(t)
}

func TestRun_ExplicitSmartsWinsOverReactionID(t *testing.T) {
	svc := NewService(DefaultConfig(), Deps{Catalog: stubCatalog{}})
	resp := svc.Run(context.Background(), &Request{Smarts: couplingSmarts, ReactionID: "missing", Reactants: Reactants{"C"}})
	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{"CC"}, resp.Products)
}

func TestRun_ComplexityCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxAtoms = 3
	svc := NewService(cfg, Deps{})

	resp := svc.Run(context.Background(), &Request{Smarts: couplingSmarts, Reactants: Reactants{"CC", "CC"}})
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Products, "four-atom products exceed the ceiling")
}

func TestRun_ConcurrentInvocationsShareSink(t *testing.T) {
	ctx := context.Background()
	sink := newSink()
	svc := NewService(DefaultConfig(), Deps{
		Scorer:   newScorer(t, embedding.NewHashEmbedder(128, 512)),
		Recorder: sink,
	})
	ethanol := canonical(t, "OCC")

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := svc.Run(ctx, &Request{Smarts: "[O:1]>>[O:1]", Reactants: Reactants{ethanol}, ReactionName: fmt.Sprintf("r%d", i%5)})
			assert.Empty(t, resp.Error)
		}(i)
	}
	wg.Wait()

	sum, err := sink.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, sum.TotalFailedLogged)
	assert.Len(t, sum.ReactionStats, 5)
	for _, st := range sum.ReactionStats {
		assert.Equal(t, int64(5), st.TotalRuns)
	}
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

func TestReactants_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Reactants
	}{
		{`{"reactants":"CCO"}`, Reactants{"CCO"}},
		{`{"reactants":["C=C","BrBr"]}`, Reactants{"C=C", "BrBr"}},
		{`{"reactants":["C",42,null]}`, Reactants{"C", "", ""}},
		{`{"reactants":""}`, nil},
		{`{"reactants":null}`, nil},
		{`{}`, nil},
	}
	for _, tt := range tests {
		var req Request
		require.NoError(t, json.Unmarshal([]byte(tt.in), &req), tt.in)
		assert.Equal(t, tt.want, req.Reactants, tt.in)
	}

	var req Request
	assert.Error(t, json.Unmarshal([]byte(`{"reactants":7}`), &req))
}

func TestResponse_JSONShape(t *testing.T) {
	data, err := json.Marshal(failure(MsgMissingSmarts))
	require.NoError(t, err)
	assert.JSONEq(t, `{"products":[],"error":"Missing smarts"}`, string(data))

	sim := 0.5
	data, err = json.Marshal(&Response{
		Products:    []string{"CC"},
		Validation:  []plausibility.VerdictRecord{{Product: "CC", Similarity: &sim, Accepted: true, Reason: plausibility.ReasonPlausible}},
		AIValidated: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"products":["CC"],"validation":[{"product":"CC","similarity":0.5,"is_valid":true,"reason":"within plausible range"}],"ai_validated":true}`, string(data))
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "received", StageReceived.String())
	assert.Equal(t, "reported", StageReported.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}

func TestPadReactants(t *testing.T) {
	a, b := molecule.MustParse("C"), molecule.MustParse("O")
	assert.Len(t, padReactants([]*molecule.Molecule{a}, 3), 3)
	padded := padReactants([]*molecule.Molecule{a, b}, 3)
	assert.Same(t, a, padded[2])
	assert.Len(t, padReactants([]*molecule.Molecule{a, b}, 1), 2)
	assert.Empty(t, padReactants(nil, 2))
}

//Personal.AI order the ending
