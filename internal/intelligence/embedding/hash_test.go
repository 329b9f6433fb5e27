package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/domain/molecule"
)

func cosine(t *testing.T, e Embedder, a, b string) float64 {
	t.Helper()
	va, err := e.Embed(context.Background(), a)
	require.NoError(t, err)
	vb, err := e.Embed(context.Background(), b)
	require.NoError(t, err)
	sim, err := molecule.CosineSimilarity(va, vb)
	require.NoError(t, err)
	return sim
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(0, 0)
	assert.Equal(t, DefaultHashDimension, e.Dimension())
	assert.Equal(t, "hash-768", e.Name())

	v1, err := e.Embed(context.Background(), "CC(=O)O")
	require.NoError(t, err)
	v2, err := NewHashEmbedder(0, 0).Embed(context.Background(), "CC(=O)O")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 768)
}

func TestHashEmbedder_SimilarityBands(t *testing.T) {
	e := NewHashEmbedder(0, 0)

	assert.InDelta(t, 1.0, cosine(t, e, "CCO", "CCO"), 1e-6)

	// alkene bromination: shares most tokens with the reactants
	mid := cosine(t, e, "C=C.BrBr", "BrCCBr")
	assert.Greater(t, mid, 0.30)
	assert.Less(t, mid, 0.95)

	// unrelated structures share only the sequence markers
	far := cosine(t, e, "[Na+].[Cl-]", "c1ccccc1")
	assert.Less(t, far, mid)
}

func TestHashEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashEmbedder(16, 0).Embed(ctx, "C")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMorganEmbedder(t *testing.T) {
	e := NewMorganEmbedder(0, 0)
	assert.Equal(t, molecule.DefaultMorganBits, e.Dimension())
	assert.Equal(t, "morgan-r2-2048", e.Name())

	assert.InDelta(t, 1.0, cosine(t, e, "OCC", "CCO"), 1e-6)
	mid := cosine(t, e, "C=C.BrBr", "BrCCBr")
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1.0)

	_, err := e.Embed(context.Background(), "C1CC")
	assert.Error(t, err)
}

//Personal.AI order the ending
