package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/pkg/errors"
)

func TestParse_ImplicitHydrogens(t *testing.T) {
	tests := []struct {
		smiles string
		atom   int
		want   int
	}{
		{"C", 0, 4},
		{"CC", 0, 3},
		{"C=O", 0, 2},
		{"C=O", 1, 0},
		{"N", 0, 3},
		{"O", 0, 2},
		{"CS(=O)(=O)C", 1, 0},
		{"[NH4+]", 0, 4},
		{"[CH2]", 0, 2},
		{"c1ccccc1", 0, 1},
		{"c1cc[nH]c1", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			m, err := Parse(tt.smiles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Atom(tt.atom).TotalH())
		})
	}
}

func TestParse_MergesExplicitHydrogens(t *testing.T) {
	m, err := Parse("[H]OC")
	require.NoError(t, err)
	assert.Equal(t, 2, m.AtomCount())
	assert.Equal(t, "CO", m.Canonical())

	m, err = Parse("[H]C([H])([H])[H]")
	require.NoError(t, err)
	assert.Equal(t, 1, m.AtomCount())
	assert.Equal(t, 4, m.Atom(0).TotalH())

	// molecular hydrogen keeps its atoms
	m, err = Parse("[H][H]")
	require.NoError(t, err)
	assert.Equal(t, 2, m.AtomCount())
}

func TestParse_Aromaticity(t *testing.T) {
	tests := []struct {
		name     string
		smiles   string
		aromatic bool
	}{
		{"kekule benzene", "C1=CC=CC=C1", true},
		{"pyridine", "n1ccccc1", true},
		{"pyrrole", "c1cc[nH]c1", true},
		{"furan", "c1ccoc1", true},
		{"thiophene", "c1ccsc1", true},
		{"naphthalene", "c1ccc2ccccc2c1", true},
		{"pyridone", "O=c1cccc[nH]1", true},
		{"cyclohexene", "C1=CCCCC1", false},
		{"cyclooctatetraene", "C1=CC=CC=CC=C1", false},
		{"cyclohexane", "C1CCCCC1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.smiles)
			require.NoError(t, err)
			for i := 0; i < m.NumAtoms(); i++ {
				if m.Atom(i).Element == ZOxygen && m.RingMembership(i) == 0 {
					continue
				}
				assert.Equal(t, tt.aromatic, m.Atom(i).Aromatic, "atom %d", i)
			}
		})
	}
}

func TestParse_KekuleValences(t *testing.T) {
	m, err := Parse("c1ccccc1")
	require.NoError(t, err)
	for i := 0; i < m.NumAtoms(); i++ {
		assert.Equal(t, 3, m.ExplicitValence(i))
		assert.Equal(t, 4, m.TotalValence(i))
	}
}

func TestParse_Rings(t *testing.T) {
	m, err := Parse("c1ccc2ccccc2c1")
	require.NoError(t, err)
	assert.Len(t, m.Rings(), 2)
	for _, r := range m.Rings() {
		assert.Len(t, r, 6)
	}
	assert.Equal(t, 2, m.RingMembership(3))
	assert.Equal(t, 1, m.RingMembership(0))

	m, err = Parse("C1CC2CC1C2")
	require.NoError(t, err)
	assert.Len(t, m.Rings(), 2)

	m, err = Parse("CCC")
	require.NoError(t, err)
	assert.Empty(t, m.Rings())
	assert.False(t, m.IsRingBond(0))
	assert.Equal(t, 0, m.SmallestRingSize(1))

	m, err = Parse("C1CC1CCCC")
	require.NoError(t, err)
	assert.Equal(t, 3, m.SmallestRingSize(0))
	assert.Equal(t, 2, m.RingBondCount(2))
}

func TestParse_SanitizeFailures(t *testing.T) {
	tests := []struct {
		name   string
		smiles string
	}{
		{"pentavalent carbon", "C(C)(C)(C)(C)C"},
		{"trivalent oxygen", "CO(C)C"},
		{"odd aromatic ring", "c1cccc1"},
		{"pyrrole without H", "n1cccc1"},
		{"acyclic aromatic", "cc"},
		{"overfull bracket", "[CH5]"},
		{"divalent chlorine", "C1CC[Cl]1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.smiles)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.IsCode(err, errors.ErrCodeSanitize), "got %v", err)
		})
	}
}

func TestSanitize_DoesNotModifyReceiver(t *testing.T) {
	raw, err := ParseUnsanitized("c1ccccc1")
	require.NoError(t, err)
	m, err := raw.Sanitize()
	require.NoError(t, err)
	assert.True(t, m.Sanitized())
	assert.False(t, raw.Sanitized())
	assert.Nil(t, raw.Rings())
}

func TestAllowedValences(t *testing.T) {
	assert.Equal(t, []int{4}, AllowedValences(ZCarbon, 0))
	assert.Equal(t, []int{4}, AllowedValences(ZNitrogen, 1))
	assert.Equal(t, []int{1}, AllowedValences(ZOxygen, -1))
	assert.Equal(t, []int{3}, AllowedValences(ZCarbon, -1))
	assert.Equal(t, []int{0}, AllowedValences(11, 1))
	assert.Nil(t, AllowedValences(26, 0))
}

//Personal.AI order the ending
