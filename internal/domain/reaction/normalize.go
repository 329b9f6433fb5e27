package reaction

import (
	"sort"

	"github.com/turtacn/rxnguard/internal/domain/molecule"
)

// Limits is the complexity ceiling applied to normalized products.
type Limits struct {
	MaxCanonicalLength int `mapstructure:"max_canonical_length" yaml:"max_canonical_length" json:"max_canonical_length"`
	MaxAtoms           int `mapstructure:"max_atoms" yaml:"max_atoms" json:"max_atoms"`
}

// DefaultLimits rejects products longer than 80 canonical characters or with
// more than 30 atoms.
var DefaultLimits = Limits{MaxCanonicalLength: 80, MaxAtoms: 30}

// Admits reports whether a canonical form and atom count fit the ceiling.
// Non-positive limits disable the corresponding check.
func (l Limits) Admits(canonical string, atoms int) bool {
	if l.MaxCanonicalLength > 0 && len(canonical) > l.MaxCanonicalLength {
		return false
	}
	if l.MaxAtoms > 0 && atoms > l.MaxAtoms {
		return false
	}
	return true
}

// NormalizeReport counts what happened to the raw structures of one pass.
type NormalizeReport struct {
	Raw            int
	SanitizeFailed int
	ReparseFailed  int
	OverCeiling    int
	Duplicates     int
	Unique         int
}

// Normalize sanitizes, canonicalizes, bounds and deduplicates every raw
// product of every set.  The result is sorted; callers should treat it as a
// set.  An empty result is a normal outcome.
func Normalize(candidateSets [][]*molecule.Molecule, limits Limits) []string {
	out, _ := NormalizeWithReport(candidateSets, limits)
	return out
}

// NormalizeWithReport is Normalize plus drop counters.
func NormalizeWithReport(candidateSets [][]*molecule.Molecule, limits Limits) ([]string, NormalizeReport) {
	var rep NormalizeReport
	seen := map[string]struct{}{}
	for _, set := range candidateSets {
		for _, raw := range set {
			rep.Raw++
			if raw == nil {
				rep.SanitizeFailed++
				continue
			}
			m, err := raw.Sanitize()
			if err != nil {
				rep.SanitizeFailed++
				continue
			}
			canonical := m.Canonical()
			again, err := molecule.Parse(canonical)
			if err != nil {
				rep.ReparseFailed++
				continue
			}
			if !limits.Admits(canonical, again.AtomCount()) {
				rep.OverCeiling++
				continue
			}
			if _, dup := seen[canonical]; dup {
				rep.Duplicates++
				continue
			}
			seen[canonical] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	rep.Unique = len(out)
	return out, rep
}

//Personal.AI order the ending
