// Package annotation turns rejected candidates into labelled training
// examples.  A reviewer walks the failure log and marks each entry as
// plausible, implausible or skipped; labelled entries leave the log.
package annotation

import (
	"context"
	"strings"

	"github.com/turtacn/rxnguard/internal/application/telemetry"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// Action is a reviewer decision for the current entry.
type Action string

const (
	ActionPlausible   Action = "y"
	ActionImplausible Action = "n"
	ActionSkip        Action = "s"
	ActionQuit        Action = "q"
)

// ParseAction accepts y/n/s/q in either case.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionPlausible, ActionImplausible, ActionSkip, ActionQuit:
		return a, true
	default:
		return "", false
	}
}

// Label values written to the training file.
const (
	LabelImplausible = 0
	LabelPlausible   = 1
)

// Example is one line of the training file.
type Example struct {
	Reactants string `json:"reactants"`
	Product   string `json:"product"`
	Label     int    `json:"label"`
	Smarts    string `json:"smarts"`
}

// ExampleFrom joins the reactants with "." the way reaction SMILES does.
func ExampleFrom(e telemetry.FailureEntry, label int) Example {
	return Example{
		Reactants: strings.Join(e.Reactants, "."),
		Product:   e.Product,
		Label:     label,
		Smarts:    e.Smarts,
	}
}

// ExampleWriter persists labelled examples.
type ExampleWriter interface {
	Write(ex Example) error
}

// FailureRemover drops labelled entries from the failure log.
type FailureRemover interface {
	RemoveFailures(ctx context.Context, ids []string) (int, error)
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Result summarises a finished session.
type Result struct {
	Labelled  int `json:"labelled"`
	Plausible int `json:"plausible"`
	Skipped   int `json:"skipped"`
	Remaining int `json:"remaining"`
	Removed   int `json:"removed"`
}

// Session is the annotation state machine.  It is not safe for concurrent
// use; the TUI drives it from a single goroutine.
type Session struct {
	entries  []telemetry.FailureEntry
	pos      int
	quit     bool
	writer   ExampleWriter
	labelled []string
	result   Result
	logger   logging.Logger
}

func NewSession(entries []telemetry.FailureEntry, w ExampleWriter, log logging.Logger) *Session {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Session{entries: entries, writer: w, logger: log}
}

// Total is the number of entries in the session.
func (s *Session) Total() int { return len(s.entries) }

// Position is the zero-based index of the current entry.
func (s *Session) Position() int { return s.pos }

// Done reports whether every entry was visited or the reviewer quit.
func (s *Session) Done() bool { return s.quit || s.pos >= len(s.entries) }

// Current returns the entry awaiting a decision.
func (s *Session) Current() (telemetry.FailureEntry, bool) {
	if s.Done() {
		return telemetry.FailureEntry{}, false
	}
	return s.entries[s.pos], true
}

// Apply records a decision and advances.  A failed write leaves the session
// on the same entry.
func (s *Session) Apply(a Action) error {
	entry, ok := s.Current()
	if !ok {
		return errors.New(errors.ErrCodeValidation, "annotation session is finished")
	}
	switch a {
	case ActionPlausible, ActionImplausible:
		label := LabelImplausible
		if a == ActionPlausible {
			label = LabelPlausible
		}
		if err := s.writer.Write(ExampleFrom(entry, label)); err != nil {
			return err
		}
		if entry.ID != "" {
			s.labelled = append(s.labelled, entry.ID)
		}
		s.result.Labelled++
		if label == LabelPlausible {
			s.result.Plausible++
		}
		s.pos++
	case ActionSkip:
		s.result.Skipped++
		s.pos++
	case ActionQuit:
		s.quit = true
	default:
		return errors.New(errors.ErrCodeValidation, "unknown annotation action").WithDetail(string(a))
	}
	return nil
}

// Labelled returns the ids of entries that received a label.
func (s *Session) Labelled() []string {
	return append([]string(nil), s.labelled...)
}

// Result reports the counts so far.  Remaining counts everything that stays
// in the failure log.
func (s *Session) Result() Result {
	r := s.result
	r.Remaining = len(s.entries) - len(s.labelled)
	return r
}

// Commit removes the labelled entries from the failure log.  Entries
// appended to the log while the session ran are untouched.
func (s *Session) Commit(ctx context.Context, r FailureRemover) (Result, error) {
	res := s.Result()
	if len(s.labelled) == 0 {
		return res, nil
	}
	n, err := r.RemoveFailures(ctx, s.labelled)
	if err != nil {
		return res, err
	}
	res.Removed = n
	s.logger.Info("Annotation session committed",
		logging.Int("labelled", res.Labelled),
		logging.Int("skipped", res.Skipped),
		logging.Int("removed", n))
	return res, nil
}

//Personal.AI order the ending
