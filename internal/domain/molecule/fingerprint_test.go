package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMorganFingerprint_Deterministic(t *testing.T) {
	a, err := MorganFingerprint(MustParse("CCO"), 2, 1024)
	require.NoError(t, err)
	b, err := MorganFingerprint(MustParse("OCC"), 2, 1024)
	require.NoError(t, err)

	assert.Equal(t, FingerprintMorgan, a.Type)
	assert.Equal(t, 1024, a.Length)
	assert.Equal(t, a.Counts, b.Counts)
	assert.Greater(t, a.OnBits(), 0)

	cos, err := a.Cosine(b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cos, 1e-9)

	tan, err := a.Tanimoto(b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tan, 1e-9)
}

func TestMorganFingerprint_Defaults(t *testing.T) {
	fp, err := MorganFingerprint(MustParse("c1ccccc1"), -1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMorganRadius, fp.Radius)
	assert.Equal(t, DefaultMorganBits, fp.Length)
	assert.Len(t, fp.Vector(), DefaultMorganBits)
}

func TestMorganFingerprint_DifferentMolecules(t *testing.T) {
	a, err := MorganFingerprint(MustParse("CCO"), 2, 2048)
	require.NoError(t, err)
	b, err := MorganFingerprint(MustParse("c1ccccc1Cl"), 2, 2048)
	require.NoError(t, err)

	cos, err := a.Cosine(b)
	require.NoError(t, err)
	assert.Less(t, cos, 0.9)
	assert.GreaterOrEqual(t, cos, 0.0)
}

func TestMorganFingerprint_RequiresSanitized(t *testing.T) {
	raw, err := ParseUnsanitized("CCO")
	require.NoError(t, err)
	_, err = MorganFingerprint(raw, 2, 64)
	assert.Error(t, err)

	_, err = MorganFingerprint(nil, 2, 64)
	assert.Error(t, err)
}

func TestFingerprint_Merge(t *testing.T) {
	a, _ := MorganFingerprint(MustParse("C"), 0, 64)
	b, _ := MorganFingerprint(MustParse("C"), 0, 64)
	m, err := a.Merge(b)
	require.NoError(t, err)

	total := 0
	for _, c := range m.Counts {
		total += int(c)
	}
	assert.Equal(t, 2, total)

	c, _ := MorganFingerprint(MustParse("C"), 0, 32)
	_, err = a.Merge(c)
	assert.Error(t, err)
	_, err = a.Tanimoto(c)
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	got, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-9)

	got, err = CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

//Personal.AI order the ending
