// Package plausibility scores candidate products against their reactants by
// embedding similarity and turns the score into an accept/reject verdict.
package plausibility

import (
	"fmt"
	"math"
	"strings"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// Verdict reasons.  Telemetry buckets logged failures by these texts.
const (
	ReasonTooDissimilar = "too dissimilar from reactants"
	ReasonTooSimilar    = "too similar — no effective transformation"
	ReasonPlausible     = "within plausible range"
	reasonSkipped       = "validation skipped: "
)

// Thresholds bound the acceptance interval (Low, High).  Both ends reject.
type Thresholds struct {
	Low  float64 `mapstructure:"low" yaml:"low" json:"low"`
	High float64 `mapstructure:"high" yaml:"high" json:"high"`
}

// DefaultThresholds accepts similarities strictly between 0.30 and 0.95.
var DefaultThresholds = Thresholds{Low: 0.30, High: 0.95}

// Validate checks -1 <= Low < High <= 1.
func (t Thresholds) Validate() error {
	if t.Low < -1 || t.High > 1 || t.Low >= t.High {
		return errors.InvalidParam(fmt.Sprintf("invalid plausibility thresholds low=%v high=%v", t.Low, t.High))
	}
	return nil
}

// Verdict applies the thresholds to a similarity.
func (t Thresholds) Verdict(similarity float64) (bool, string) {
	switch {
	case similarity <= t.Low:
		return false, ReasonTooDissimilar
	case similarity >= t.High:
		return false, ReasonTooSimilar
	default:
		return true, ReasonPlausible
	}
}

// VerdictRecord is the outcome for one candidate.  Similarity is nil when
// scoring was skipped.
type VerdictRecord struct {
	Product    string   `json:"product"`
	Similarity *float64 `json:"similarity"`
	Accepted   bool     `json:"is_valid"`
	Reason     string   `json:"reason"`
}

// Degraded reports whether the record was produced without a score.
func (v VerdictRecord) Degraded() bool { return v.Similarity == nil }

// SkippedVerdict is the fail-open record for a candidate whose scoring
// failed: accepted, without a similarity.
func SkippedVerdict(product string, cause error) VerdictRecord {
	msg := "unknown error"
	if cause != nil {
		msg = errors.UserMessage(cause)
	}
	return VerdictRecord{Product: product, Accepted: true, Reason: reasonSkipped + msg}
}

// Round4 rounds to four decimals, the precision similarities are reported at.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Bucket groups failure reasons for summaries.
type Bucket string

const (
	BucketTooDissimilar Bucket = "too_dissimilar"
	BucketTooSimilar    Bucket = "too_similar"
	BucketOther         Bucket = "other"
)

// Classify maps a free-text reason to its bucket.  Older log entries used
// "differs too much" wording, which is recognised as well.
func Classify(reason string) Bucket {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "dissimilar") || strings.Contains(r, "differs") || strings.Contains(r, "too much"):
		return BucketTooDissimilar
	case strings.Contains(r, "too similar") || strings.Contains(r, "no effective"):
		return BucketTooSimilar
	default:
		return BucketOther
	}
}

//Personal.AI order the ending
