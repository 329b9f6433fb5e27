package molecule

import "sort"

// ring is one cycle of the smallest set of smallest rings, atoms in path order.
type ring struct {
	atoms []int
	bonds []int
}

// perceiveRings fills ringBonds, rings and ringEdges.  Ring bonds are the
// non-bridge bonds; the ring set is chosen greedily by size from candidate
// cycles until it spans the cycle space (rank E - V + C).
func (m *Molecule) perceiveRings() {
	m.ringBonds = findRingBonds(m)
	m.rings, m.ringEdges = nil, nil

	rank := len(m.bonds) - len(m.atoms) + countComponents(m)
	if rank <= 0 {
		return
	}

	candidates := make(map[string]ring)
	for b := range m.bonds {
		if !m.ringBonds[b] {
			continue
		}
		if r, ok := shortestCycleThrough(m, b); ok {
			candidates[ringKey(r)] = r
		}
	}
	for _, r := range fundamentalCycles(m) {
		candidates[ringKey(r)] = r
	}

	ordered := make([]ring, 0, len(candidates))
	for _, r := range candidates {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].bonds) != len(ordered[j].bonds) {
			return len(ordered[i].bonds) < len(ordered[j].bonds)
		}
		return ringKey(ordered[i]) < ringKey(ordered[j])
	})

	basis := newGF2Basis(len(m.bonds))
	for _, r := range ordered {
		if len(m.rings) == rank {
			break
		}
		if basis.add(r.bonds) {
			m.rings = append(m.rings, r.atoms)
			m.ringEdges = append(m.ringEdges, r.bonds)
		}
	}
}

func ringKey(r ring) string {
	bs := append([]int(nil), r.bonds...)
	sort.Ints(bs)
	key := make([]byte, 0, len(bs)*3)
	for _, b := range bs {
		key = append(key, byte(b>>8), byte(b), ',')
	}
	return string(key)
}

// findRingBonds marks every bond that is not a bridge (Tarjan low-link).
func findRingBonds(m *Molecule) []bool {
	n := len(m.atoms)
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	isBridge := make([]bool, len(m.bonds))
	timer := 0

	type frame struct {
		atom, parentBond, next int
	}
	for root := 0; root < n; root++ {
		if disc[root] >= 0 {
			continue
		}
		stack := []frame{{atom: root, parentBond: -1}}
		disc[root], low[root] = timer, timer
		timer++
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(m.adj[top.atom]) {
				nb := m.adj[top.atom][top.next]
				top.next++
				if nb.Bond == top.parentBond {
					continue
				}
				if disc[nb.Atom] < 0 {
					disc[nb.Atom], low[nb.Atom] = timer, timer
					timer++
					stack = append(stack, frame{atom: nb.Atom, parentBond: nb.Bond})
				} else if disc[nb.Atom] < low[top.atom] {
					low[top.atom] = disc[nb.Atom]
				}
				continue
			}
			done := *top
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				if low[done.atom] < low[parent.atom] {
					low[parent.atom] = low[done.atom]
				}
				if low[done.atom] > disc[parent.atom] {
					isBridge[done.parentBond] = true
				}
			}
		}
	}

	ringBonds := make([]bool, len(m.bonds))
	for b := range ringBonds {
		ringBonds[b] = !isBridge[b]
	}
	return ringBonds
}

func countComponents(m *Molecule) int {
	seen := make([]bool, len(m.atoms))
	count := 0
	for start := range m.atoms {
		if seen[start] {
			continue
		}
		count++
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			a := queue[0]
			queue = queue[1:]
			for _, nb := range m.adj[a] {
				if !seen[nb.Atom] {
					seen[nb.Atom] = true
					queue = append(queue, nb.Atom)
				}
			}
		}
	}
	return count
}

// shortestCycleThrough finds the smallest cycle containing bond b by a BFS
// from one end to the other that avoids b itself.
func shortestCycleThrough(m *Molecule, b int) (ring, bool) {
	src, dst := m.bonds[b].Begin, m.bonds[b].End
	prevAtom := make([]int, len(m.atoms))
	prevBond := make([]int, len(m.atoms))
	for i := range prevAtom {
		prevAtom[i] = -2
	}
	prevAtom[src] = -1
	queue := []int{src}
	for len(queue) > 0 && prevAtom[dst] == -2 {
		a := queue[0]
		queue = queue[1:]
		for _, nb := range m.adj[a] {
			if nb.Bond == b || !m.ringBonds[nb.Bond] || prevAtom[nb.Atom] != -2 {
				continue
			}
			prevAtom[nb.Atom] = a
			prevBond[nb.Atom] = nb.Bond
			queue = append(queue, nb.Atom)
		}
	}
	if prevAtom[dst] == -2 {
		return ring{}, false
	}
	r := ring{bonds: []int{b}}
	for a := dst; a != src; a = prevAtom[a] {
		r.atoms = append(r.atoms, a)
		r.bonds = append(r.bonds, prevBond[a])
	}
	r.atoms = append(r.atoms, src)
	return r, true
}

// fundamentalCycles returns one cycle per non-tree bond of a BFS forest.
// They always span the cycle space, so the basis never comes up short.
func fundamentalCycles(m *Molecule) []ring {
	parent := make([]int, len(m.atoms))
	parentBond := make([]int, len(m.atoms))
	depth := make([]int, len(m.atoms))
	for i := range parent {
		parent[i] = -2
	}
	treeBond := make([]bool, len(m.bonds))
	for root := range m.atoms {
		if parent[root] != -2 {
			continue
		}
		parent[root] = -1
		queue := []int{root}
		for len(queue) > 0 {
			a := queue[0]
			queue = queue[1:]
			for _, nb := range m.adj[a] {
				if parent[nb.Atom] != -2 {
					continue
				}
				parent[nb.Atom] = a
				parentBond[nb.Atom] = nb.Bond
				depth[nb.Atom] = depth[a] + 1
				treeBond[nb.Bond] = true
				queue = append(queue, nb.Atom)
			}
		}
	}

	var out []ring
	for b, bond := range m.bonds {
		if treeBond[b] {
			continue
		}
		u, v := bond.Begin, bond.End
		var left, right []int
		var bonds []int
		for u != v {
			if depth[u] >= depth[v] {
				left = append(left, u)
				bonds = append(bonds, parentBond[u])
				u = parent[u]
			} else {
				right = append(right, v)
				bonds = append(bonds, parentBond[v])
				v = parent[v]
			}
		}
		atoms := append(left, u)
		for i := len(right) - 1; i >= 0; i-- {
			atoms = append(atoms, right[i])
		}
		out = append(out, ring{atoms: atoms, bonds: append(bonds, b)})
	}
	return out
}

// gf2Basis keeps an echelon basis of bond-incidence vectors over GF(2).
type gf2Basis struct {
	words int
	rows  map[int][]uint64 // pivot bit -> row
}

func newGF2Basis(nbits int) *gf2Basis {
	return &gf2Basis{words: (nbits + 63) / 64, rows: make(map[int][]uint64)}
}

// add reduces the vector against the basis and inserts it when it is
// independent.
func (g *gf2Basis) add(bits []int) bool {
	v := make([]uint64, g.words)
	for _, b := range bits {
		v[b/64] ^= 1 << uint(b%64)
	}
	for {
		pivot := highestBit(v)
		if pivot < 0 {
			return false
		}
		row, ok := g.rows[pivot]
		if !ok {
			g.rows[pivot] = v
			return true
		}
		for i := range v {
			v[i] ^= row[i]
		}
	}
}

func highestBit(v []uint64) int {
	for w := len(v) - 1; w >= 0; w-- {
		if v[w] == 0 {
			continue
		}
		for bit := 63; bit >= 0; bit-- {
			if v[w]&(1<<uint(bit)) != 0 {
				return w*64 + bit
			}
		}
	}
	return -1
}

//Personal.AI order the ending
