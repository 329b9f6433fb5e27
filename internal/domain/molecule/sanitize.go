package molecule

import (
	"fmt"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// maxKekuleSteps bounds the perfect-matching search on pathological inputs.
const maxKekuleSteps = 200000

// Sanitize validates chemical consistency and returns a sanitized copy:
//
//  1. hydrogens written as atoms with a single heavy neighbour are folded into
//     that neighbour's hydrogen count;
//  2. rings are perceived;
//  3. aromatic input is kekulized;
//  4. valences are checked and implicit hydrogens assigned;
//  5. aromaticity is perceived from scratch (Hückel 4n+2).
//
// The receiver is not modified.  Errors carry code RXN_008.
func (m *Molecule) Sanitize() (*Molecule, error) {
	if m == nil || len(m.atoms) == 0 {
		return nil, errors.New(errors.ErrCodeSanitize, "molecule has no atoms")
	}
	c := m.clone().withoutExplicitHydrogens()
	for i, a := range c.atoms {
		if a.Aromatic && !IsAromaticCapable(a.Element) && a.Element != 0 {
			return nil, sanitizeError("atom %d (%s) cannot be aromatic", i, Symbol(a.Element))
		}
	}
	c.perceiveRings()
	if err := c.kekulize(); err != nil {
		return nil, err
	}
	if err := c.assignImplicitHydrogens(); err != nil {
		return nil, err
	}
	c.perceiveAromaticity()
	c.sanitized = true
	return c, nil
}

func sanitizeError(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeSanitize, "molecule failed sanitization").
		WithDetail(fmt.Sprintf(format, args...))
}

// withoutExplicitHydrogens removes plain hydrogen atoms bonded to exactly one
// heavy atom and adds them to the neighbour's hydrogen count.
func (m *Molecule) withoutExplicitHydrogens() *Molecule {
	remove := make([]bool, len(m.atoms))
	found := false
	for i, a := range m.atoms {
		if a.Element != ZHydrogen || a.Isotope != 0 || a.Charge != 0 || a.MapNum != 0 || a.HCount != 0 {
			continue
		}
		if len(m.adj[i]) != 1 {
			continue
		}
		nb := m.adj[i][0]
		if m.atoms[nb.Atom].Element == ZHydrogen || m.bonds[nb.Bond].Order != BondSingle {
			continue
		}
		remove[i] = true
		found = true
	}
	if !found {
		return m
	}

	out := NewBuilder()
	remap := make([]int, len(m.atoms))
	for i, a := range m.atoms {
		if remove[i] {
			remap[i] = -1
			continue
		}
		for _, nb := range m.adj[i] {
			if remove[nb.Atom] {
				a.HCount++
			}
		}
		remap[i] = out.AddAtom(a)
	}
	for _, b := range m.bonds {
		if remap[b.Begin] < 0 || remap[b.End] < 0 {
			continue
		}
		_ = out.AddBond(remap[b.Begin], remap[b.End], b.Order)
	}
	return out.Molecule()
}

// ─────────────────────────────────────────────────────────────────────────────
// Kekulization
// ─────────────────────────────────────────────────────────────────────────────

// kekulize assigns alternating single/double orders to aromatic bonds.  Every
// aromatic atom that still has spare valence must receive exactly one double
// bond; this is a perfect matching over those atoms.
func (m *Molecule) kekulize() error {
	m.kekule = make([]BondOrder, len(m.bonds))
	hasAromatic := false
	for i, b := range m.bonds {
		m.kekule[i] = b.Order
		if b.Order == BondAromatic {
			m.kekule[i] = BondSingle
			hasAromatic = true
		}
	}
	for i, a := range m.atoms {
		if a.Aromatic && m.RingBondCount(i) == 0 {
			return sanitizeError("non-ring atom %d marked aromatic", i)
		}
	}
	if !hasAromatic {
		return nil
	}

	needs := make([]bool, len(m.atoms))
	for i := range m.atoms {
		needs[i] = m.needsDoubleBond(i)
	}

	matched := make([]bool, len(m.atoms))
	steps := 0
	var solve func() bool
	solve = func() bool {
		steps++
		if steps > maxKekuleSteps {
			return false
		}
		best, bestOptions := -1, 0
		for i := range m.atoms {
			if !needs[i] || matched[i] {
				continue
			}
			n := 0
			for _, nb := range m.adj[i] {
				if m.bonds[nb.Bond].Order == BondAromatic && needs[nb.Atom] && !matched[nb.Atom] {
					n++
				}
			}
			if n == 0 {
				return false
			}
			if best < 0 || n < bestOptions {
				best, bestOptions = i, n
			}
		}
		if best < 0 {
			return true
		}
		for _, nb := range m.adj[best] {
			if m.bonds[nb.Bond].Order != BondAromatic || !needs[nb.Atom] || matched[nb.Atom] {
				continue
			}
			matched[best], matched[nb.Atom] = true, true
			m.kekule[nb.Bond] = BondDouble
			if solve() {
				return true
			}
			matched[best], matched[nb.Atom] = false, false
			m.kekule[nb.Bond] = BondSingle
		}
		return false
	}
	if !solve() {
		return sanitizeError("can't kekulize aromatic system")
	}
	return nil
}

// needsDoubleBond reports whether an aromatic atom must take a double bond in
// the kekulé form: it has aromatic bonds, no existing double bond, and its
// first permitted valence leaves room for one more.
func (m *Molecule) needsDoubleBond(i int) bool {
	a := m.atoms[i]
	if !a.Aromatic || a.Element == 0 {
		return false
	}
	explicit := a.HCount
	aromaticBonds := 0
	for _, nb := range m.adj[i] {
		o := m.bonds[nb.Bond].Order
		switch o {
		case BondAromatic:
			aromaticBonds++
			explicit++
		case BondDouble, BondTriple, BondQuadruple:
			return false
		default:
			explicit += o.Valence()
		}
	}
	if aromaticBonds == 0 {
		return false
	}
	allowed := AllowedValences(a.Element, a.Charge)
	for _, v := range allowed {
		if v >= explicit {
			return v-explicit >= 1
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Valence
// ─────────────────────────────────────────────────────────────────────────────

func (m *Molecule) assignImplicitHydrogens() error {
	for i := range m.atoms {
		a := &m.atoms[i]
		a.implicitH = 0
		if a.Element == 0 {
			continue
		}
		explicit := m.ExplicitValence(i) + a.HCount
		allowed := AllowedValences(a.Element, a.Charge)
		if allowed == nil {
			continue
		}
		if a.NoImplicit {
			if explicit > allowed[len(allowed)-1] {
				return sanitizeError("explicit valence %d for atom %d (%s) exceeds permitted %d",
					explicit, i, Symbol(a.Element), allowed[len(allowed)-1])
			}
			continue
		}
		h, ok := defaultHydrogens(allowed, explicit)
		if !ok {
			return sanitizeError("explicit valence %d for atom %d (%s) exceeds permitted %d",
				explicit, i, Symbol(a.Element), allowed[len(allowed)-1])
		}
		a.implicitH = h
	}
	return nil
}

// defaultHydrogens returns the hydrogens needed to reach the smallest
// permitted valence not below explicit.
func defaultHydrogens(allowed []int, explicit int) (int, bool) {
	for _, v := range allowed {
		if v >= explicit {
			return v - explicit, true
		}
	}
	return 0, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Aromaticity perception
// ─────────────────────────────────────────────────────────────────────────────

// perceiveAromaticity clears input aromatic flags and marks every SSSR ring
// (or fused ring pair) whose pi-electron count satisfies 4n+2.
func (m *Molecule) perceiveAromaticity() {
	for i := range m.atoms {
		m.atoms[i].Aromatic = false
	}
	for b := range m.bonds {
		m.bonds[b].Order = m.kekule[b]
	}
	if len(m.rings) == 0 {
		return
	}

	electrons := make([]int, len(m.atoms))
	for i := range m.atoms {
		electrons[i] = m.piElectrons(i)
	}

	aromaticRing := make([]bool, len(m.rings))
	for r, atoms := range m.rings {
		aromaticRing[r] = huckel(atoms, electrons)
	}
	for r := range m.rings {
		if aromaticRing[r] {
			m.markAromatic(m.rings[r], m.ringEdges[r])
		}
	}

	for i := 0; i < len(m.rings); i++ {
		for j := i + 1; j < len(m.rings); j++ {
			if aromaticRing[i] && aromaticRing[j] {
				continue
			}
			if !sharesBond(m.ringEdges[i], m.ringEdges[j]) {
				continue
			}
			union := unionAtoms(m.rings[i], m.rings[j])
			if huckel(union, electrons) {
				m.markAromatic(m.rings[i], m.ringEdges[i])
				m.markAromatic(m.rings[j], m.ringEdges[j])
			}
		}
	}
}

func (m *Molecule) markAromatic(atoms, bonds []int) {
	for _, a := range atoms {
		m.atoms[a].Aromatic = true
	}
	for _, b := range bonds {
		m.bonds[b].Order = BondAromatic
	}
}

// huckel reports whether every atom is a candidate and the electron total is
// 4n+2.
func huckel(atoms []int, electrons []int) bool {
	total := 0
	for _, a := range atoms {
		if electrons[a] < 0 {
			return false
		}
		total += electrons[a]
	}
	return total >= 2 && (total-2)%4 == 0
}

// piElectrons returns the pi-electron contribution of a ring atom, or -1 if
// the atom cannot take part in an aromatic ring.
func (m *Molecule) piElectrons(i int) int {
	a := m.atoms[i]
	if !IsAromaticCapable(a.Element) || m.RingBondCount(i) < 2 {
		return -1
	}
	if len(m.adj[i])+a.TotalH() > 3 {
		return -1
	}

	doubles := 0
	electrons := -1
	for _, nb := range m.adj[i] {
		switch m.kekule[nb.Bond] {
		case BondDouble:
			doubles++
			switch {
			case m.IsRingBond(nb.Bond):
				electrons = 1
			case a.Element == ZCarbon && isElectronegative(m.atoms[nb.Atom].Element):
				electrons = 0
			default:
				return -1
			}
		case BondTriple, BondQuadruple:
			return -1
		}
	}
	if doubles > 1 {
		return -1
	}
	if doubles == 1 {
		return electrons
	}

	connections := len(m.adj[i]) + a.TotalH()
	switch a.Element {
	case ZNitrogen, ZPhosphorus, ZArsenic:
		if a.Charge == 0 && connections == 3 {
			return 2
		}
		if a.Charge == -1 && connections == 2 {
			return 2
		}
	case ZOxygen, ZSulfur, ZSelenium, ZTellurium:
		if a.Charge == 0 && connections == 2 {
			return 2
		}
	case ZCarbon:
		switch a.Charge {
		case -1:
			return 2
		case 1:
			return 0
		}
	case ZBoron:
		if a.Charge == 0 && connections == 3 {
			return 0
		}
	}
	return -1
}

func sharesBond(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func unionAtoms(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, list := range [][]int{a, b} {
		for _, x := range list {
			if !seen[x] {
				seen[x] = true
				out = append(out, x)
			}
		}
	}
	return out
}

//Personal.AI order the ending
