// Package tui holds the terminal front ends.
package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/turtacn/rxnguard/internal/application/annotation"
	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Styles used by the annotation screen.
type Styles struct {
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Reason  lipgloss.Style
	Help    lipgloss.Style
	Error   lipgloss.Style
	Summary lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(12),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		Reason:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).MarginTop(1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		Summary: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// AnnotateModel drives an annotation.Session from key presses.
type AnnotateModel struct {
	session *annotation.Session
	styles  Styles
	err     error
	width   int
}

func NewAnnotateModel(s *annotation.Session, styles Styles) AnnotateModel {
	return AnnotateModel{session: s, styles: styles}
}

func (m AnnotateModel) Init() tea.Cmd {
	if m.session.Done() {
		return tea.Quit
	}
	return nil
}

func (m AnnotateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			_ = m.session.Apply(annotation.ActionQuit)
			return m, tea.Quit
		}
		action, ok := annotation.ParseAction(msg.String())
		if !ok {
			m.err = errors.New(errors.ErrCodeValidation, "press y, n, s or q")
			return m, nil
		}
		m.err = m.session.Apply(action)
		if m.session.Done() {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m AnnotateModel) View() string {
	entry, ok := m.session.Current()
	if !ok {
		return m.summary()
	}
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(fmt.Sprintf("Rejected candidate %d/%d",
		m.session.Position()+1, m.session.Total())))
	b.WriteString("\n")
	b.WriteString(m.row("Reactants", strings.Join(entry.Reactants, ".")))
	b.WriteString(m.row("Product", entry.Product))
	if entry.ReactionName != nil {
		b.WriteString(m.row("Reaction", *entry.ReactionName))
	}
	b.WriteString(m.row("Template", entry.Smarts))
	b.WriteString(m.styles.Label.Render("Score") + m.styles.Reason.Render(scoreText(entry)) + "\n")
	if m.err != nil {
		b.WriteString("\n" + m.styles.Error.Render(errors.UserMessage(m.err)) + "\n")
	}
	b.WriteString(m.styles.Help.Render("Is this reaction plausible?  [y] yes  [n] no  [s] skip  [q] quit"))
	b.WriteString("\n")
	return b.String()
}

func (m AnnotateModel) row(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n"
}

func (m AnnotateModel) summary() string {
	r := m.session.Result()
	return m.styles.Summary.Render(fmt.Sprintf("Labelled %d (%d plausible), skipped %d, %d left in the log",
		r.Labelled, r.Plausible, r.Skipped, r.Remaining)) + "\n"
}

func scoreText(e telemetry.FailureEntry) string {
	if e.Similarity == nil {
		return e.Reason
	}
	return fmt.Sprintf("%.4f (%s)", *e.Similarity, e.Reason)
}

// RunAnnotate runs the TUI until the session ends.  in and out default to
// the terminal when nil.
func RunAnnotate(s *annotation.Session, in io.Reader, out io.Writer) error {
	var opts []tea.ProgramOption
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	_, err := tea.NewProgram(NewAnnotateModel(s, DefaultStyles()), opts...).Run()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "annotation ui")
	}
	return nil
}

//Personal.AI order the ending
