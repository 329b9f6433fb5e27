package reaction

import (
	"github.com/turtacn/rxnguard/internal/domain/molecule"
)

// Match maps every pattern atom (by index) to a molecule atom.
type Match []int

// matcher enumerates subgraph monomorphisms by backtracking.  Pattern atoms
// are visited in depth-first order so that every atom after a component root
// has an already-mapped neighbour, which restricts candidates to that
// neighbour's adjacency list.
type matcher struct {
	p *Pattern
	m *molecule.Molecule

	order  []int
	anchor []int // already-ordered neighbour of order[k], -1 for roots

	mapping []int
	used    []bool
	limit   int
	results []Match
}

func newMatcher(p *Pattern, m *molecule.Molecule, root int) *matcher {
	mt := &matcher{
		p:       p,
		m:       m,
		mapping: make([]int, len(p.atoms)),
		used:    make([]bool, m.NumAtoms()),
	}
	for i := range mt.mapping {
		mt.mapping[i] = -1
	}

	seen := make([]bool, len(p.atoms))
	var visit func(a, from int)
	visit = func(a, from int) {
		seen[a] = true
		mt.order = append(mt.order, a)
		mt.anchor = append(mt.anchor, from)
		for _, nb := range p.adj[a] {
			if !seen[nb.Atom] {
				visit(nb.Atom, a)
			}
		}
	}
	if root >= 0 && root < len(p.atoms) {
		visit(root, -1)
	}
	for a := range p.atoms {
		if !seen[a] {
			visit(a, -1)
		}
	}
	return mt
}

// MatchAll returns every mapping of the pattern onto m, including mappings
// that differ only by symmetry.  limit <= 0 means unlimited.
func (p *Pattern) MatchAll(m *molecule.Molecule, limit int) []Match {
	if m == nil || len(p.atoms) == 0 || len(p.atoms) > m.NumAtoms() {
		return nil
	}
	mt := newMatcher(p, m, 0)
	mt.limit = limit
	mt.extend(0, -1)
	return mt.results
}

// HasMatch reports whether the pattern occurs in m at all.
func (p *Pattern) HasMatch(m *molecule.Molecule) bool {
	return len(p.MatchAll(m, 1)) > 0
}

// matchesRootedAt reports whether some mapping sends pattern atom 0 to atom i.
// It backs recursive "$(...)" primitives.
func (p *Pattern) matchesRootedAt(m *molecule.Molecule, i int) bool {
	if len(p.atoms) == 0 || len(p.atoms) > m.NumAtoms() {
		return false
	}
	mt := newMatcher(p, m, 0)
	mt.limit = 1
	mt.extend(0, i)
	return len(mt.results) > 0
}

func (mt *matcher) done() bool {
	return mt.limit > 0 && len(mt.results) >= mt.limit
}

// extend maps order[k]; rootAtom pins the first pattern atom when >= 0.
func (mt *matcher) extend(k, rootAtom int) {
	if mt.done() {
		return
	}
	if k == len(mt.order) {
		mt.results = append(mt.results, append(Match(nil), mt.mapping...))
		return
	}
	pa := mt.order[k]

	try := func(c int) {
		if mt.used[c] || !mt.feasible(pa, c) {
			return
		}
		mt.mapping[pa] = c
		mt.used[c] = true
		mt.extend(k+1, rootAtom)
		mt.used[c] = false
		mt.mapping[pa] = -1
	}

	switch {
	case k == 0 && rootAtom >= 0:
		try(rootAtom)
	case mt.anchor[k] >= 0:
		for _, nb := range mt.m.Neighbors(mt.mapping[mt.anchor[k]]) {
			try(nb.Atom)
			if mt.done() {
				return
			}
		}
	default:
		for c := 0; c < mt.m.NumAtoms(); c++ {
			try(c)
			if mt.done() {
				return
			}
		}
	}
}

// feasible checks the atom query and every query bond to an already-mapped
// pattern atom.
func (mt *matcher) feasible(pa, c int) bool {
	if !mt.p.atoms[pa].expr.match(mt.m, c) {
		return false
	}
	for _, nb := range mt.p.adj[pa] {
		other := mt.mapping[nb.Atom]
		if other < 0 {
			continue
		}
		b := mt.m.BondBetween(c, other)
		if b < 0 || !mt.p.bonds[nb.Bond].expr.match(mt.m, b) {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
