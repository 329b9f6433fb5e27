// Package molecule implements the molecule representation used by the
// reaction pipeline: SMILES parsing, sanitization (explicit-hydrogen merging,
// ring perception, kekulization, valence checking, aromaticity perception) and
// canonical SMILES generation.
//
// A *Molecule returned by Parse is sanitized and immutable.  Invalid input never
// yields a degraded instance: Parse returns a nil molecule and an
// *errors.AppError with code RXN_001 (syntax) or RXN_008 (chemistry).
package molecule

import (
	"github.com/turtacn/rxnguard/pkg/errors"
)

// BondOrder enumerates the bond types the package understands.
type BondOrder int

const (
	BondSingle BondOrder = iota + 1
	BondDouble
	BondTriple
	BondQuadruple
	BondAromatic
)

// Valence returns the integer valence contribution of a kekulized bond.
// Aromatic bonds count as one; callers that need kekulé orders must
// kekulize first.
func (o BondOrder) Valence() int {
	switch o {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondQuadruple:
		return 4
	default:
		return 1
	}
}

// Symbol returns the SMILES bond symbol; single and aromatic bonds are "".
func (o BondOrder) Symbol() string {
	switch o {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondQuadruple:
		return "$"
	default:
		return ""
	}
}

// Atom is a node of the molecular graph.
type Atom struct {
	// Element is the atomic number; 0 denotes the "*" dummy atom.
	Element  int
	Aromatic bool
	Charge   int
	Isotope  int
	// HCount is the number of hydrogens written on a bracket atom.
	HCount int
	// NoImplicit marks bracket atoms whose hydrogen count is fixed.
	NoImplicit bool
	// MapNum is the atom-map class (":n"), 0 when absent.
	MapNum int

	implicitH int
}

// TotalH returns explicit plus implicit hydrogens.  The implicit count is
// only meaningful on sanitized molecules.
func (a Atom) TotalH() int { return a.HCount + a.implicitH }

// ImplicitH returns the implicit hydrogen count computed by sanitization.
func (a Atom) ImplicitH() int { return a.implicitH }

// Bond is an edge of the molecular graph.
type Bond struct {
	Begin int
	End   int
	Order BondOrder
}

// Other returns the atom at the opposite end of the bond from idx.
func (b Bond) Other(idx int) int {
	if b.Begin == idx {
		return b.End
	}
	return b.Begin
}

// Neighbor is an adjacency entry: the neighbouring atom and the bond index.
type Neighbor struct {
	Atom int
	Bond int
}

// Molecule is an atom/bond graph plus the derived ring and canonical data.
type Molecule struct {
	atoms []Atom
	bonds []Bond
	adj   [][]Neighbor

	sanitized bool
	kekule    []BondOrder
	rings     [][]int
	ringEdges [][]int
	ringBonds []bool
	canonical string
}

// Parse parses and sanitizes a SMILES string.  It is the contract used by
// every pipeline stage: a nil molecule always comes with a non-nil error.
func Parse(text string) (*Molecule, error) {
	m, err := ParseUnsanitized(text)
	if err != nil {
		return nil, err
	}
	return m.Sanitize()
}

// MustParse is Parse for fixtures and tests.
func MustParse(text string) *Molecule {
	m, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return m
}

// Canonicalize parses text and returns its canonical SMILES.
func Canonicalize(text string) (string, error) {
	m, err := Parse(text)
	if err != nil {
		return "", err
	}
	return m.Canonical(), nil
}

// NumAtoms returns the number of atoms in the graph.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// AtomCount returns the number of graph atoms.  Hydrogens merged during
// sanitization are not counted.
func (m *Molecule) AtomCount() int { return len(m.atoms) }

// NumBonds returns the number of bonds.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// Atom returns a copy of atom i.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns a copy of bond i.
func (m *Molecule) Bond(i int) Bond { return m.bonds[i] }

// Neighbors returns the adjacency list of atom i.  The slice must not be
// modified.
func (m *Molecule) Neighbors(i int) []Neighbor { return m.adj[i] }

// Degree returns the number of explicit connections of atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// BondBetween returns the index of the bond joining a and b, or -1.
func (m *Molecule) BondBetween(a, b int) int {
	for _, nb := range m.adj[a] {
		if nb.Atom == b {
			return nb.Bond
		}
	}
	return -1
}

// Sanitized reports whether the molecule passed sanitization.
func (m *Molecule) Sanitized() bool { return m.sanitized }

// Canonical returns the canonical SMILES.  Two sanitized molecules are the
// same structure iff their canonical strings are equal.
func (m *Molecule) Canonical() string {
	if m.canonical == "" && len(m.atoms) > 0 {
		m.canonical = writeCanonical(m)
	}
	return m.canonical
}

// String implements fmt.Stringer.
func (m *Molecule) String() string { return m.Canonical() }

// ExplicitValence returns the sum of kekulé bond valences of atom i.
func (m *Molecule) ExplicitValence(i int) int {
	v := 0
	for _, nb := range m.adj[i] {
		v += m.kekuleOrder(nb.Bond).Valence()
	}
	return v
}

// TotalValence returns explicit valence plus all hydrogens.
func (m *Molecule) TotalValence(i int) int {
	return m.ExplicitValence(i) + m.atoms[i].TotalH()
}

func (m *Molecule) kekuleOrder(b int) BondOrder {
	if m.kekule != nil {
		return m.kekule[b]
	}
	return m.bonds[b].Order
}

// ─────────────────────────────────────────────────────────────────────────────
// Ring queries (sanitized molecules only)
// ─────────────────────────────────────────────────────────────────────────────

// Rings returns the smallest set of smallest rings as atom index cycles.
func (m *Molecule) Rings() [][]int { return m.rings }

// IsRingBond reports whether bond b lies on a cycle.
func (m *Molecule) IsRingBond(b int) bool {
	return m.ringBonds != nil && m.ringBonds[b]
}

// RingMembership returns how many SSSR rings contain atom i.
func (m *Molecule) RingMembership(i int) int {
	n := 0
	for _, r := range m.rings {
		for _, a := range r {
			if a == i {
				n++
				break
			}
		}
	}
	return n
}

// SmallestRingSize returns the size of the smallest SSSR ring containing
// atom i, or 0 when the atom is acyclic.
func (m *Molecule) SmallestRingSize(i int) int {
	best := 0
	for _, r := range m.rings {
		for _, a := range r {
			if a == i && (best == 0 || len(r) < best) {
				best = len(r)
			}
		}
	}
	return best
}

// RingBondCount returns the number of ring bonds at atom i.
func (m *Molecule) RingBondCount(i int) int {
	n := 0
	for _, nb := range m.adj[i] {
		if m.IsRingBond(nb.Bond) {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// Builder assembles an unsanitized molecule atom by atom.  The reaction
// engine uses it to emit raw products.
type Builder struct {
	mol *Molecule
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{mol: &Molecule{}}
}

// AddAtom appends an atom and returns its index.
func (b *Builder) AddAtom(a Atom) int {
	a.implicitH = 0
	b.mol.atoms = append(b.mol.atoms, a)
	b.mol.adj = append(b.mol.adj, nil)
	return len(b.mol.atoms) - 1
}

// AddBond joins two atoms.  Self-bonds and duplicate bonds are rejected.
func (b *Builder) AddBond(begin, end int, order BondOrder) error {
	m := b.mol
	if begin == end || begin < 0 || end < 0 || begin >= len(m.atoms) || end >= len(m.atoms) {
		return errors.Newf(errors.ErrCodeStructureParse, "invalid bond %d-%d", begin, end)
	}
	if m.BondBetween(begin, end) >= 0 {
		return errors.Newf(errors.ErrCodeStructureParse, "duplicate bond %d-%d", begin, end)
	}
	idx := len(m.bonds)
	m.bonds = append(m.bonds, Bond{Begin: begin, End: end, Order: order})
	m.adj[begin] = append(m.adj[begin], Neighbor{Atom: end, Bond: idx})
	m.adj[end] = append(m.adj[end], Neighbor{Atom: begin, Bond: idx})
	return nil
}

// NumAtoms returns the number of atoms added so far.
func (b *Builder) NumAtoms() int { return len(b.mol.atoms) }

// Molecule returns the built, unsanitized molecule.  The Builder must not be
// reused afterwards.
func (b *Builder) Molecule() *Molecule { return b.mol }

// clone returns a deep copy without derived data.
func (m *Molecule) clone() *Molecule {
	c := &Molecule{
		atoms: make([]Atom, len(m.atoms)),
		bonds: make([]Bond, len(m.bonds)),
		adj:   make([][]Neighbor, len(m.adj)),
	}
	copy(c.atoms, m.atoms)
	copy(c.bonds, m.bonds)
	for i, nbs := range m.adj {
		c.adj[i] = append([]Neighbor(nil), nbs...)
	}
	return c
}

//Personal.AI order the ending
