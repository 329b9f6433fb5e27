package molecule

import (
	"sort"
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Canonical ranking
// ─────────────────────────────────────────────────────────────────────────────

// maxCanonicalLeaves bounds the tie-breaking search.  Once it is spent the
// remaining ties are broken by the first tied atom.
const maxCanonicalLeaves = 4096

// atomInvariants are the local properties that split atoms before
// refinement.
func atomInvariants(m *Molecule) [][]int {
	keys := make([][]int, len(m.atoms))
	for i, a := range m.atoms {
		keys[i] = []int{
			len(m.adj[i]),
			a.Element,
			a.Isotope,
			a.Charge,
			a.TotalH(),
			boolInt(a.Aromatic),
			boolInt(m.RingBondCount(i) > 0),
			a.MapNum,
		}
	}
	return keys
}

// searchCanonical returns the smallest SMILES of one fragment over every way
// of breaking the ties that survive refinement.  Atoms of the fragment's
// smallest tied class are individualized in turn and the search recurses, so
// the result depends only on the graph even when refinement cannot separate
// non-equivalent atoms.
func searchCanonical(m *Molecule, ranks []int, members []int, budget *int) string {
	tied, start := -1, members[0]
	count := make(map[int]int, len(members))
	for _, i := range members {
		count[ranks[i]]++
		if ranks[i] < ranks[start] {
			start = i
		}
	}
	for _, i := range members {
		if count[ranks[i]] > 1 && (tied < 0 || ranks[i] < tied) {
			tied = ranks[i]
		}
	}
	if tied < 0 {
		*budget--
		return renderFragment(m, ranks, start)
	}
	best := ""
	for _, i := range members {
		if ranks[i] != tied {
			continue
		}
		if best != "" && *budget <= 0 {
			break
		}
		if s := searchCanonical(m, individualize(m, ranks, i), members, budget); best == "" || s < best {
			best = s
		}
	}
	return best
}

// individualize moves chosen ahead of the rest of its class and refines.
func individualize(m *Molecule, ranks []int, chosen int) []int {
	tied := ranks[chosen]
	keys := make([][]int, len(ranks))
	for i := range keys {
		keys[i] = []int{ranks[i], boolInt(ranks[i] == tied && i != chosen)}
	}
	return refineRanks(m, denseRank(keys))
}

func refineRanks(m *Molecule, ranks []int) []int {
	keys := make([][]int, len(ranks))
	for {
		for i := range m.atoms {
			nbs := make([]int, 0, len(m.adj[i]))
			for _, nb := range m.adj[i] {
				nbs = append(nbs, ranks[nb.Atom]*8+int(m.bonds[nb.Bond].Order))
			}
			sort.Ints(nbs)
			keys[i] = append([]int{ranks[i]}, nbs...)
		}
		next := denseRank(keys)
		if classCount(next) == classCount(ranks) {
			return next
		}
		ranks = next
	}
}

// denseRank maps keys to 0..k-1 in lexicographic key order.
func denseRank(keys [][]int) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return compareKeys(keys[idx[a]], keys[idx[b]]) < 0 })
	ranks := make([]int, len(keys))
	r := 0
	for k, i := range idx {
		if k > 0 && compareKeys(keys[idx[k-1]], keys[i]) != 0 {
			r++
		}
		ranks[i] = r
	}
	return ranks
}

func compareKeys(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func classCount(ranks []int) int {
	seen := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Writer
// ─────────────────────────────────────────────────────────────────────────────

type smilesWriter struct {
	m     *Molecule
	ranks []int

	visited     []bool
	parentBond  []int
	children    [][]int
	closures    [][]int
	closureSeen []bool

	digitOf map[int]int
	inUse   [100]bool
	sb      strings.Builder
}

// writeCanonical renders the molecule as canonical SMILES.
func writeCanonical(m *Molecule) string {
	ranks := refineRanks(m, denseRank(atomInvariants(m)))
	var fragments []string
	for _, members := range fragmentAtoms(m) {
		budget := maxCanonicalLeaves
		fragments = append(fragments, searchCanonical(m, ranks, members, &budget))
	}
	sort.Strings(fragments)
	return strings.Join(fragments, ".")
}

// fragmentAtoms groups atom indices by connected component.
func fragmentAtoms(m *Molecule) [][]int {
	seen := make([]bool, len(m.atoms))
	var out [][]int
	for start := range m.atoms {
		if seen[start] {
			continue
		}
		seen[start] = true
		members := []int{start}
		for q := 0; q < len(members); q++ {
			for _, nb := range m.adj[members[q]] {
				if !seen[nb.Atom] {
					seen[nb.Atom] = true
					members = append(members, nb.Atom)
				}
			}
		}
		out = append(out, members)
	}
	return out
}

// renderFragment writes a depth-first traversal of start's fragment,
// neighbours in rank order.  ranks must be distinct within the fragment.
func renderFragment(m *Molecule, ranks []int, start int) string {
	w := &smilesWriter{
		m:           m,
		ranks:       ranks,
		visited:     make([]bool, len(m.atoms)),
		parentBond:  make([]int, len(m.atoms)),
		children:    make([][]int, len(m.atoms)),
		closures:    make([][]int, len(m.atoms)),
		closureSeen: make([]bool, len(m.bonds)),
		digitOf:     make(map[int]int),
	}
	w.explore(start, -1)
	w.emit(start)
	return w.sb.String()
}

func (w *smilesWriter) sortedNeighbors(a int) []Neighbor {
	nbs := append([]Neighbor(nil), w.m.adj[a]...)
	sort.Slice(nbs, func(i, j int) bool { return w.ranks[nbs[i].Atom] < w.ranks[nbs[j].Atom] })
	return nbs
}

// explore builds the spanning tree and records ring-closure bonds.
func (w *smilesWriter) explore(a, fromBond int) {
	w.visited[a] = true
	w.parentBond[a] = fromBond
	for _, nb := range w.sortedNeighbors(a) {
		if nb.Bond == fromBond {
			continue
		}
		if w.visited[nb.Atom] {
			if !w.closureSeen[nb.Bond] {
				w.closureSeen[nb.Bond] = true
				w.closures[a] = append(w.closures[a], nb.Bond)
				w.closures[nb.Atom] = append(w.closures[nb.Atom], nb.Bond)
			}
			continue
		}
		w.children[a] = append(w.children[a], nb.Atom)
		w.explore(nb.Atom, nb.Bond)
	}
}

func (w *smilesWriter) emit(a int) {
	w.sb.WriteString(w.atomSymbol(a))

	var opening []int
	var closing []int
	for _, b := range w.closures[a] {
		if _, ok := w.digitOf[b]; ok {
			closing = append(closing, b)
		} else {
			opening = append(opening, b)
		}
	}
	sort.Slice(closing, func(i, j int) bool { return w.digitOf[closing[i]] < w.digitOf[closing[j]] })
	for _, b := range closing {
		d := w.digitOf[b]
		w.sb.WriteString(ringDigit(d))
		w.inUse[d] = false
		delete(w.digitOf, b)
	}
	for _, b := range opening {
		d := w.freeDigit()
		w.inUse[d] = true
		w.digitOf[b] = d
		w.sb.WriteString(w.bondSymbol(b))
		w.sb.WriteString(ringDigit(d))
	}

	kids := w.children[a]
	for k, child := range kids {
		if k < len(kids)-1 {
			w.sb.WriteByte('(')
			w.sb.WriteString(w.bondSymbol(w.parentBond[child]))
			w.emit(child)
			w.sb.WriteByte(')')
			continue
		}
		w.sb.WriteString(w.bondSymbol(w.parentBond[child]))
		w.emit(child)
	}
}

func (w *smilesWriter) freeDigit() int {
	for d := 1; d < len(w.inUse); d++ {
		if !w.inUse[d] {
			return d
		}
	}
	return len(w.inUse) - 1
}

func ringDigit(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

func (w *smilesWriter) bondSymbol(b int) string {
	bond := w.m.bonds[b]
	switch bond.Order {
	case BondAromatic:
		return ""
	case BondSingle:
		if w.m.atoms[bond.Begin].Aromatic && w.m.atoms[bond.End].Aromatic {
			return "-"
		}
		return ""
	default:
		return bond.Order.Symbol()
	}
}

func (w *smilesWriter) atomSymbol(i int) string {
	a := w.m.atoms[i]
	sym := Symbol(a.Element)
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	if !w.m.needsBracket(i) {
		return sym
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(sym)
	if h := a.TotalH(); h > 0 {
		sb.WriteByte('H')
		if h > 1 {
			sb.WriteString(strconv.Itoa(h))
		}
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteString(strconv.Itoa(a.Charge))
	}
	if a.MapNum > 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(a.MapNum))
	}
	sb.WriteByte(']')
	return sb.String()
}

// needsBracket reports whether an unbracketed symbol would be read back with
// different charge, isotope, map number or hydrogen count.
func (m *Molecule) needsBracket(i int) bool {
	a := m.atoms[i]
	if a.Element == 0 {
		return a.Charge != 0 || a.Isotope != 0 || a.MapNum != 0 || a.TotalH() != 0
	}
	if !IsOrganicSubset(a.Element) || a.Charge != 0 || a.Isotope != 0 || a.MapNum != 0 {
		return true
	}
	allowed := AllowedValences(a.Element, 0)

	explicit, aromaticBonds := 0, 0
	hasMultiple, kekuleDouble := false, false
	for _, nb := range m.adj[i] {
		o := m.bonds[nb.Bond].Order
		if o == BondAromatic {
			aromaticBonds++
			explicit++
			if m.kekuleOrder(nb.Bond) == BondDouble {
				kekuleDouble = true
			}
			continue
		}
		explicit += o.Valence()
		if o != BondSingle {
			hasMultiple = true
		}
	}

	if a.Aromatic && aromaticBonds > 0 && !hasMultiple {
		h, ok := defaultHydrogens(allowed, explicit)
		if !ok {
			return true
		}
		readerDouble := h >= 1
		if readerDouble != kekuleDouble {
			return true
		}
		if readerDouble {
			explicit++
		}
	}
	h, ok := defaultHydrogens(allowed, explicit)
	return !ok || h != a.TotalH()
}

//Personal.AI order the ending
