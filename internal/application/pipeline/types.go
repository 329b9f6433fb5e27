package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
)

// Stage is a step of one pipeline invocation.  Stages are strictly ordered;
// an invocation stops in the stage where it ended.
type Stage int

const (
	StageReceived Stage = iota
	StageParsed
	StageGenerated
	StageNormalized
	StageScored
	StageReported
)

var stageNames = [...]string{"received", "parsed", "generated", "normalized", "scored", "reported"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ----------------------------------------------------------------------------
// Request / Response
// ----------------------------------------------------------------------------

// Reactants is the caller's reactant list.  A bare JSON string decodes to a
// one-element list; non-string list items decode to "" and are dropped at
// parse time.
type Reactants []string

// UnmarshalJSON accepts a string, a list or null.
func (r *Reactants) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = nil
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*r = nil
		} else {
			*r = Reactants{s}
		}
		return nil
	case data[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Reactants, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				s = ""
			}
			out = append(out, s)
		}
		*r = out
		return nil
	default:
		return fmt.Errorf("reactants must be a string or a list of strings")
	}
}

// Request is one pipeline invocation.  ReactionID names a catalog entry and
// is only consulted when Smarts is empty.
type Request struct {
	Smarts       string    `json:"smarts"`
	Reactants    Reactants `json:"reactants"`
	ReactionName string    `json:"reaction_name,omitempty"`
	ReactionID   string    `json:"reaction_id,omitempty"`
}

// Response is the caller-visible outcome.  Products is never nil.
type Response struct {
	Products    []string                     `json:"products"`
	Validation  []plausibility.VerdictRecord `json:"validation,omitempty"`
	AIValidated bool                         `json:"ai_validated,omitempty"`
	Error       string                       `json:"error,omitempty"`
}

// Failed reports whether the invocation ended with an error message.
func (r *Response) Failed() bool { return r.Error != "" }

// Accepted returns the verdicts that kept their candidate.
func (r *Response) Accepted() []plausibility.VerdictRecord {
	var out []plausibility.VerdictRecord
	for _, v := range r.Validation {
		if v.Accepted {
			out = append(out, v)
		}
	}
	return out
}

// Rejected returns the verdicts that dropped their candidate.
func (r *Response) Rejected() []plausibility.VerdictRecord {
	var out []plausibility.VerdictRecord
	for _, v := range r.Validation {
		if !v.Accepted {
			out = append(out, v)
		}
	}
	return out
}

func failure(msg string) *Response {
	return &Response{Products: []string{}, Error: msg}
}

//Personal.AI order the ending
