package molecule

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// FingerprintType identifies a fingerprint algorithm.
type FingerprintType string

const (
	// FingerprintMorgan is a circular (ECFP-like) count fingerprint.
	FingerprintMorgan FingerprintType = "morgan"
)

// Defaults for MorganFingerprint.
const (
	DefaultMorganRadius = 2
	DefaultMorganBits   = 2048
)

// Fingerprint is a folded count vector.  Counts[i] is the number of atom
// environments that hashed to position i.
type Fingerprint struct {
	Type   FingerprintType `json:"type"`
	Radius int             `json:"radius"`
	Length int             `json:"length"`
	Counts []uint16        `json:"counts"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Morgan
// ─────────────────────────────────────────────────────────────────────────────

// MorganFingerprint computes a circular fingerprint of a sanitized molecule.
// Every atom contributes one identifier per radius 0..radius; identifier r+1
// hashes identifier r with the sorted (bond, neighbour identifier) pairs.
func MorganFingerprint(m *Molecule, radius, nBits int) (*Fingerprint, error) {
	if m == nil || len(m.atoms) == 0 {
		return nil, errors.InvalidParam("fingerprint requires a non-empty molecule")
	}
	if !m.sanitized {
		return nil, errors.New(errors.ErrCodeSanitize, "fingerprint requires a sanitized molecule")
	}
	if radius < 0 {
		radius = DefaultMorganRadius
	}
	if nBits <= 0 {
		nBits = DefaultMorganBits
	}

	fp := &Fingerprint{Type: FingerprintMorgan, Radius: radius, Length: nBits, Counts: make([]uint16, nBits)}

	ids := make([]uint64, len(m.atoms))
	for i, a := range m.atoms {
		ids[i] = hashInts(
			a.Element, len(m.adj[i]), a.TotalH(), a.Charge,
			boolInt(a.Isotope > 0), boolInt(a.Aromatic), boolInt(m.RingBondCount(i) > 0),
		)
		fp.add(ids[i])
	}

	next := make([]uint64, len(ids))
	for r := 1; r <= radius; r++ {
		for i := range m.atoms {
			pairs := make([]uint64, 0, len(m.adj[i]))
			for _, nb := range m.adj[i] {
				pairs = append(pairs, ids[nb.Atom]^uint64(m.bonds[nb.Bond].Order)<<58)
			}
			sort.Slice(pairs, func(a, b int) bool { return pairs[a] < pairs[b] })
			h := fnv.New64a()
			writeUint64(h, uint64(r))
			writeUint64(h, ids[i])
			for _, p := range pairs {
				writeUint64(h, p)
			}
			next[i] = h.Sum64()
			fp.add(next[i])
		}
		ids, next = next, ids
	}
	return fp, nil
}

func (fp *Fingerprint) add(id uint64) {
	idx := id % uint64(fp.Length)
	if fp.Counts[idx] < math.MaxUint16 {
		fp.Counts[idx]++
	}
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func writeUint64(h hashWriter, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashInts(vals ...int) uint64 {
	h := fnv.New64a()
	for _, v := range vals {
		writeUint64(h, uint64(int64(v)))
	}
	return h.Sum64()
}

// ─────────────────────────────────────────────────────────────────────────────
// Vector operations
// ─────────────────────────────────────────────────────────────────────────────

// OnBits returns the number of non-zero positions.
func (fp *Fingerprint) OnBits() int {
	n := 0
	for _, c := range fp.Counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Vector returns the counts as float32, the shape embedders produce.
func (fp *Fingerprint) Vector() []float32 {
	out := make([]float32, len(fp.Counts))
	for i, c := range fp.Counts {
		out[i] = float32(c)
	}
	return out
}

// Merge adds other's counts into a copy of fp.  Both must share a length.
func (fp *Fingerprint) Merge(other *Fingerprint) (*Fingerprint, error) {
	if other == nil || fp.Length != other.Length {
		return nil, errors.InvalidParam("fingerprints must have the same length")
	}
	out := &Fingerprint{Type: fp.Type, Radius: fp.Radius, Length: fp.Length, Counts: make([]uint16, fp.Length)}
	for i := range fp.Counts {
		sum := int(fp.Counts[i]) + int(other.Counts[i])
		if sum > math.MaxUint16 {
			sum = math.MaxUint16
		}
		out.Counts[i] = uint16(sum)
	}
	return out, nil
}

// Tanimoto returns the count-based Tanimoto (sum of minima over sum of
// maxima).  Two empty fingerprints score 0.
func (fp *Fingerprint) Tanimoto(other *Fingerprint) (float64, error) {
	if other == nil || fp.Length != other.Length {
		return 0, errors.InvalidParam("fingerprints must have the same length")
	}
	var sumMin, sumMax float64
	for i := range fp.Counts {
		a, b := float64(fp.Counts[i]), float64(other.Counts[i])
		sumMin += math.Min(a, b)
		sumMax += math.Max(a, b)
	}
	if sumMax == 0 {
		return 0, nil
	}
	return sumMin / sumMax, nil
}

// Cosine returns the cosine of the angle between the two count vectors.
func (fp *Fingerprint) Cosine(other *Fingerprint) (float64, error) {
	if other == nil || fp.Length != other.Length {
		return 0, errors.InvalidParam("fingerprints must have the same length")
	}
	return CosineSimilarity(fp.Vector(), other.Vector())
}

// CosineSimilarity computes a·b / (|a||b|).  Zero vectors yield 0; length
// mismatches are an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Newf(errors.CodeInvalidParam, "vector dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

//Personal.AI order the ending
