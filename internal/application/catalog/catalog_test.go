package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/turtacn/rxnguard/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const smallCatalog = `
reactions:
  - id: hydro
    category: alkene
    name: Hydrogenation
    difficulty: 1
    smarts: "[C:1]=[C:2]>>[C:1]-[C:2]"
  - id: dehydration
    category: alcohol
    smarts: "[C:1][C:2][O:3]>>[C:1]=[C:2].[O:3]"
`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "reactions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_BuiltinCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 40, c.Len())
	assert.Equal(t, "builtin", c.Source())
	assert.Equal(t,
		[]string{"acid", "alcohol", "alkene", "alkyne", "benzene", "carbonyl", "cycloalkane", "ether"},
		c.Categories())
	assert.Len(t, c.List("alkene"), 12)
	assert.Len(t, c.List("ALKENE"), 12)
	assert.Empty(t, c.List("peptide"))
}

func TestDefault_EveryTemplateParses(t *testing.T) {
	assert.Empty(t, Default().Validate())
}

func TestResolve(t *testing.T) {
	c := Default()

	smarts, name, err := c.Resolve("alkene_gen_1")
	require.NoError(t, err)
	assert.Equal(t, "[C:1]=[C:2].[Br][Br]>>[C:1]([Br])-[C:2]([Br])", smarts)
	assert.Equal(t, "Bromine addition to alkene", name)

	_, _, err = c.Resolve("nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogEntryNotFound))
}

func TestParse_FillsDefaults(t *testing.T) {
	entries, err := Parse([]byte(smallCatalog))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "dehydration", entries[1].Name)
	assert.Equal(t, DifficultyEasy, entries[1].Difficulty)
	assert.Equal(t, "easy", entries[1].Difficulty.String())
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]struct {
		body string
		code errors.ErrorCode
	}{
		"missing id":     {"reactions:\n  - smarts: \"[C:1]>>[C:1]\"\n", errors.ErrCodeValidation},
		"missing smarts": {"reactions:\n  - id: a\n", errors.ErrCodeValidation},
		"duplicate id": {
			"reactions:\n  - id: a\n    smarts: \"[C:1]>>[C:1]\"\n  - id: a\n    smarts: \"[O:1]>>[O:1]\"\n",
			errors.ErrCodeConflict,
		},
		"bad difficulty": {"reactions:\n  - id: a\n    difficulty: 7\n    smarts: \"[C:1]>>[C:1]\"\n", errors.ErrCodeValidation},
		"not yaml":       {"reactions: [", errors.ErrCodeSerialization},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := writeCatalog(t, t.TempDir(), smallCatalog)
		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, path, c.Source())
		e, ok := c.Get("hydro")
		require.True(t, ok)
		assert.Equal(t, "Hydrogenation", e.Name)
	})

	t.Run("missing file falls back", func(t *testing.T) {
		c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "builtin", c.Source())
	})

	t.Run("empty path", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 40, c.Len())
	})

	t.Run("invalid file", func(t *testing.T) {
		_, err := Load(writeCatalog(t, t.TempDir(), "reactions:\n  - id: x\n"))
		assert.Error(t, err)
	})
}

func TestReload_KeepsEntriesOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, smallCatalog)
	c, err := Load(path)
	require.NoError(t, err)

	writeCatalog(t, dir, "reactions: [")
	assert.Error(t, c.Reload(path))
	assert.Equal(t, 2, c.Len())
}

func TestValidate_ReportsBadTemplate(t *testing.T) {
	body := smallCatalog + "  - id: broken\n    category: misc\n    smarts: \"[C:1]=[C:2]\"\n"
	c, err := Load(writeCatalog(t, t.TempDir(), body))
	require.NoError(t, err)

	issues := c.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "broken", issues[0].ID)
	assert.NotEmpty(t, issues[0].Error)
}

//Personal.AI order the ending
