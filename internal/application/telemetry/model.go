package telemetry

import (
	"time"

	"github.com/turtacn/rxnguard/internal/intelligence/plausibility"
)

// Document names shared by every DocumentStore.
const (
	DocFailures = "failed_reactions"
	DocStats    = "reaction_stats"
)

// DefaultMaxFailures bounds the failure log; older entries are evicted first.
const DefaultMaxFailures = 1000

// DefaultFailureQueryLimit is used when FailedReactions gets a non-positive limit.
const DefaultFailureQueryLimit = 100

// ValidationTypeEmbedding tags entries produced by the embedding scorer.
const ValidationTypeEmbedding = "embedding"

// UnknownReaction labels stats when a request carries no reaction name.
const UnknownReaction = "unknown"

// FailureEntry records one rejected candidate.
type FailureEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Reactants      []string  `json:"reactants"`
	Product        string    `json:"product"`
	Smarts         string    `json:"smarts"`
	ReactionName   *string   `json:"reaction_name"`
	Similarity     *float64  `json:"similarity"`
	Reason         string    `json:"reason"`
	ValidationType string    `json:"validation_type"`
}

// NewFailureEntry builds an entry from a rejected verdict.  reactionName may
// be empty.
func NewFailureEntry(reactants []string, smarts, reactionName string, v plausibility.VerdictRecord) FailureEntry {
	e := FailureEntry{
		Reactants:      append([]string(nil), reactants...),
		Product:        v.Product,
		Smarts:         smarts,
		Reason:         v.Reason,
		ValidationType: ValidationTypeEmbedding,
	}
	if reactionName != "" {
		name := reactionName
		e.ReactionName = &name
	}
	if v.Similarity != nil {
		sim := *v.Similarity
		e.Similarity = &sim
	}
	return e
}

// TemplateStats aggregates runs of one reaction label.
type TemplateStats struct {
	TotalRuns      int64      `json:"total_runs"`
	TotalProducts  int64      `json:"total_products"`
	ValidProducts  int64      `json:"valid_products"`
	FailedProducts int64      `json:"failed_products"`
	LastRun        *time.Time `json:"last_run"`
	SuccessRate    float64    `json:"success_rate"`
}

// recomputeRate sets SuccessRate as a percentage with two decimals.
func (s *TemplateStats) recomputeRate() {
	if s.TotalProducts <= 0 {
		s.SuccessRate = 0
		return
	}
	pct := float64(s.ValidProducts) / float64(s.TotalProducts) * 100
	s.SuccessRate = float64(int64(pct*100+0.5)) / 100
}

// Summary is the read model served by the stats endpoint.
type Summary struct {
	TotalFailedLogged int                      `json:"total_failed_logged"`
	FailureReasons    map[string]int           `json:"failure_reasons"`
	ReactionStats     map[string]TemplateStats `json:"reaction_stats"`
	Backend           string                   `json:"backend"`
}

// Snapshot is a consistent copy of both documents.
type Snapshot struct {
	Failures []FailureEntry           `json:"failed_reactions"`
	Stats    map[string]TemplateStats `json:"reaction_stats"`
}

func emptyReasons() map[string]int {
	return map[string]int{
		string(plausibility.BucketTooDissimilar): 0,
		string(plausibility.BucketTooSimilar):    0,
		string(plausibility.BucketOther):         0,
	}
}

//Personal.AI order the ending
