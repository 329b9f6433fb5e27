package tui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rxnguard/internal/application/annotation"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
)

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newModel(t *testing.T, n int) (AnnotateModel, *annotation.Session, string) {
	t.Helper()
	name := "Bromine addition"
	sim := 0.12
	var log []telemetry.FailureEntry
	for i := 0; i < n; i++ {
		log = append(log, telemetry.FailureEntry{
			ID: string(rune('a' + i)), Reactants: []string{"C=C", "BrBr"}, Product: "BrCCBr",
			Smarts: "[C:1]=[C:2].[Br][Br]>>[C:1]([Br])-[C:2]([Br])", ReactionName: &name,
			Similarity: &sim, Reason: "too dissimilar",
		})
	}
	path := filepath.Join(t.TempDir(), "training_data.jsonl")
	w, err := annotation.NewJSONLWriter(path)
	require.NoError(t, err)
	s := annotation.NewSession(log, w, nil)
	return NewAnnotateModel(s, DefaultStyles()), s, path
}

func TestAnnotateModel_ViewShowsEntry(t *testing.T) {
	m, _, _ := newModel(t, 2)
	view := m.View()
	assert.Contains(t, view, "Rejected candidate 1/2")
	assert.Contains(t, view, "C=C.BrBr")
	assert.Contains(t, view, "Bromine addition")
	assert.Contains(t, view, "0.1200 (too dissimilar)")
}

func TestAnnotateModel_KeysDriveSession(t *testing.T) {
	m, s, path := newModel(t, 2)

	next, cmd := m.Update(key('y'))
	assert.Nil(t, cmd)
	assert.Contains(t, next.View(), "Rejected candidate 2/2")

	next, cmd = next.Update(key('n'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, s.Done())
	assert.Contains(t, next.View(), "Labelled 2")

	examples, err := annotation.ReadExamples(path)
	require.NoError(t, err)
	assert.Len(t, examples, 2)
}

func TestAnnotateModel_InvalidKey(t *testing.T) {
	m, s, _ := newModel(t, 1)
	next, cmd := m.Update(key('x'))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, s.Position())
	assert.Contains(t, next.View(), "press y, n, s or q")
}

func TestAnnotateModel_CtrlCQuits(t *testing.T) {
	m, s, _ := newModel(t, 3)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, s.Done())
	assert.Equal(t, 3, s.Result().Remaining)
}

func TestAnnotateModel_EmptyLogQuitsImmediately(t *testing.T) {
	m, _, _ := newModel(t, 0)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Labelled 0")
}

//Personal.AI order the ending
