// Package reaction implements reaction templates: a SMARTS query language for
// atoms and bonds, subgraph matching against sanitized molecules, application
// of a mapped reaction template to an ordered reactant list, and the product
// normalizer that turns raw products into a bounded set of canonical SMILES.
package reaction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/rxnguard/internal/domain/molecule"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Query expressions
// ─────────────────────────────────────────────────────────────────────────────

type primKind int

const (
	primAny primKind = iota
	primAromatic
	primAliphatic
	primElement
	primAtomicNum
	primTotalH
	primImplicitH
	primDegree
	primConnectivity
	primValence
	primRingCount
	primRingSize
	primRingConnectivity
	primCharge
	primIsotope
	primRecursive
)

type exprOp int

const (
	opLeaf exprOp = iota
	opNot
	opAnd
	opOr
)

// atomExpr is a boolean tree over atom primitives.
type atomExpr struct {
	op          exprOp
	kind        primKind
	value       int
	aromatic    int // primElement: 0 either, 1 aromatic, 2 aliphatic
	recursive   *Pattern
	left, right *atomExpr
}

func (e *atomExpr) match(m *molecule.Molecule, i int) bool {
	switch e.op {
	case opNot:
		return !e.left.match(m, i)
	case opAnd:
		return e.left.match(m, i) && e.right.match(m, i)
	case opOr:
		return e.left.match(m, i) || e.right.match(m, i)
	}
	a := m.Atom(i)
	switch e.kind {
	case primAny:
		return true
	case primAromatic:
		return a.Aromatic
	case primAliphatic:
		return !a.Aromatic
	case primElement:
		if a.Element != e.value {
			return false
		}
		switch e.aromatic {
		case 1:
			return a.Aromatic
		case 2:
			return !a.Aromatic
		}
		return true
	case primAtomicNum:
		return a.Element == e.value
	case primTotalH:
		return a.TotalH() == e.value
	case primImplicitH:
		if e.value < 0 {
			return a.ImplicitH() > 0
		}
		return a.ImplicitH() == e.value
	case primDegree:
		return m.Degree(i) == e.value
	case primConnectivity:
		return m.Degree(i)+a.TotalH() == e.value
	case primValence:
		return m.TotalValence(i) == e.value
	case primRingCount:
		if e.value < 0 {
			return m.RingMembership(i) > 0
		}
		return m.RingMembership(i) == e.value
	case primRingSize:
		if e.value < 0 {
			return m.RingMembership(i) > 0
		}
		for _, r := range m.Rings() {
			if len(r) != e.value {
				continue
			}
			for _, x := range r {
				if x == i {
					return true
				}
			}
		}
		return false
	case primRingConnectivity:
		if e.value < 0 {
			return m.RingBondCount(i) > 0
		}
		return m.RingBondCount(i) == e.value
	case primCharge:
		return a.Charge == e.value
	case primIsotope:
		return a.Isotope == e.value
	case primRecursive:
		return e.recursive.matchesRootedAt(m, i)
	}
	return false
}

// leaves returns the primitives of a pure conjunction, or nil when the
// expression contains a negation or disjunction.
func (e *atomExpr) leaves() []*atomExpr {
	switch e.op {
	case opLeaf:
		return []*atomExpr{e}
	case opAnd:
		l, r := e.left.leaves(), e.right.leaves()
		if l == nil || r == nil {
			return nil
		}
		return append(l, r...)
	}
	return nil
}

type bondKind int

const (
	bondDefault bondKind = iota
	bondSingle
	bondDouble
	bondTriple
	bondQuadruple
	bondAromatic
	bondAny
	bondRing
)

type bondExpr struct {
	op          exprOp
	kind        bondKind
	left, right *bondExpr
}

func (e *bondExpr) match(m *molecule.Molecule, b int) bool {
	switch e.op {
	case opNot:
		return !e.left.match(m, b)
	case opAnd:
		return e.left.match(m, b) && e.right.match(m, b)
	case opOr:
		return e.left.match(m, b) || e.right.match(m, b)
	}
	order := m.Bond(b).Order
	switch e.kind {
	case bondDefault:
		return order == molecule.BondSingle || order == molecule.BondAromatic
	case bondSingle:
		return order == molecule.BondSingle
	case bondDouble:
		return order == molecule.BondDouble
	case bondTriple:
		return order == molecule.BondTriple
	case bondQuadruple:
		return order == molecule.BondQuadruple
	case bondAromatic:
		return order == molecule.BondAromatic
	case bondAny:
		return true
	case bondRing:
		return m.IsRingBond(b)
	}
	return false
}

// order returns the definite bond order the expression describes, or 0.
func (e *bondExpr) order() molecule.BondOrder {
	if e == nil || e.op != opLeaf {
		return 0
	}
	switch e.kind {
	case bondSingle:
		return molecule.BondSingle
	case bondDouble:
		return molecule.BondDouble
	case bondTriple:
		return molecule.BondTriple
	case bondQuadruple:
		return molecule.BondQuadruple
	case bondAromatic:
		return molecule.BondAromatic
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Pattern
// ─────────────────────────────────────────────────────────────────────────────

// AtomSpec is what a query atom states definitely: the properties a product
// template atom imposes on the atom it creates or modifies.
type AtomSpec struct {
	Element    int
	HasElement bool
	Aromatic   bool
	Charge     int
	HasCharge  bool
	HCount     int
	HasH       bool
	Isotope    int
	HasIsotope bool
}

// PatternAtom is one query atom.
type PatternAtom struct {
	MapNum int
	Spec   AtomSpec
	expr   *atomExpr
}

// PatternBond is one query bond.
type PatternBond struct {
	Begin, End int
	// Order is the definite order written in the query, 0 when the query
	// leaves it open (default, "~", lists).
	Order molecule.BondOrder
	expr  *bondExpr
}

// Pattern is a parsed SMARTS query graph.
type Pattern struct {
	Source string
	atoms  []PatternAtom
	bonds  []PatternBond
	adj    [][]molecule.Neighbor
	// group[i] is the component-level grouping id of atom i: atoms inside one
	// top-level "( ... )" share a group even when not bonded.
	group []int
}

// ParsePattern parses a SMARTS string.
func ParsePattern(text string) (*Pattern, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrCodeTemplateParse, "empty SMARTS pattern")
	}
	p := &smartsParser{src: text, pat: &Pattern{Source: text}, prev: -1, openRings: map[int]smartsRing{}, groupOpen: -1}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.pat, nil
}

// NumAtoms returns the number of query atoms.
func (p *Pattern) NumAtoms() int { return len(p.atoms) }

// NumBonds returns the number of query bonds.
func (p *Pattern) NumBonds() int { return len(p.bonds) }

// Atom returns query atom i.
func (p *Pattern) Atom(i int) PatternAtom { return p.atoms[i] }

// Bond returns query bond i.
func (p *Pattern) Bond(i int) PatternBond { return p.bonds[i] }

// BondBetween returns the query bond joining a and b, or -1.
func (p *Pattern) BondBetween(a, b int) int {
	for _, nb := range p.adj[a] {
		if nb.Atom == b {
			return nb.Bond
		}
	}
	return -1
}

func (p *Pattern) addAtom(a PatternAtom, group int) int {
	p.atoms = append(p.atoms, a)
	p.adj = append(p.adj, nil)
	p.group = append(p.group, group)
	return len(p.atoms) - 1
}

func (p *Pattern) addBond(begin, end int, e *bondExpr) error {
	if begin == end || p.BondBetween(begin, end) >= 0 {
		return fmt.Errorf("duplicate or self bond %d-%d", begin, end)
	}
	idx := len(p.bonds)
	p.bonds = append(p.bonds, PatternBond{Begin: begin, End: end, Order: e.order(), expr: e})
	p.adj[begin] = append(p.adj[begin], molecule.Neighbor{Atom: end, Bond: idx})
	p.adj[end] = append(p.adj[end], molecule.Neighbor{Atom: begin, Bond: idx})
	return nil
}

// Components splits the pattern into its disconnected parts, keeping atoms of
// one top-level group together.  Each part is re-indexed from zero.
func (p *Pattern) Components() []*Pattern {
	n := len(p.atoms)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}
	for _, b := range p.bonds {
		union(b.Begin, b.End)
	}
	firstInGroup := map[int]int{}
	for i, g := range p.group {
		if g < 0 {
			continue
		}
		if f, ok := firstInGroup[g]; ok {
			union(f, i)
		} else {
			firstInGroup[g] = i
		}
	}

	var roots []int
	members := map[int][]int{}
	for i := 0; i < n; i++ {
		r := find(i)
		if _, ok := members[r]; !ok {
			roots = append(roots, r)
		}
		members[r] = append(members[r], i)
	}

	out := make([]*Pattern, 0, len(roots))
	for _, r := range roots {
		sub := &Pattern{}
		remap := map[int]int{}
		for _, i := range members[r] {
			remap[i] = sub.addAtom(p.atoms[i], -1)
		}
		for _, b := range p.bonds {
			bi, okB := remap[b.Begin]
			ei, okE := remap[b.End]
			if okB && okE {
				_ = sub.addBond(bi, ei, b.expr)
			}
		}
		out = append(out, sub)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Parser
// ─────────────────────────────────────────────────────────────────────────────

type smartsRing struct {
	atom int
	expr *bondExpr
}

type smartsParser struct {
	src string
	pos int
	pat *Pattern

	prev      int
	pending   *bondExpr
	branches  []int
	openRings map[int]smartsRing

	groupOpen  int // position of the open component group, -1 when none
	groupCount int
	group      int
}

func (p *smartsParser) fail(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeTemplateParse, "invalid SMARTS").
		WithDetail(fmt.Sprintf(format, args...) + fmt.Sprintf(" (position %d in %q)", p.pos, p.src))
}

func (p *smartsParser) currentGroup() int {
	if p.groupOpen >= 0 {
		return p.group
	}
	return -1
}

func (p *smartsParser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(' && p.prev < 0:
			if p.groupOpen >= 0 {
				return p.fail("nested component group")
			}
			p.groupOpen = p.pos
			p.group = p.groupCount
			p.groupCount++
			p.pos++
		case c == '(':
			if p.pending != nil {
				return p.fail("bond before branch")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if p.pending != nil {
				return p.fail("dangling bond")
			}
			if len(p.branches) > 0 {
				p.prev = p.branches[len(p.branches)-1]
				p.branches = p.branches[:len(p.branches)-1]
			} else if p.groupOpen >= 0 {
				p.groupOpen = -1
				p.prev = -1
			} else {
				return p.fail("unbalanced ')'")
			}
			p.pos++
		case c == '.':
			if p.pending != nil || p.prev < 0 {
				return p.fail("misplaced '.'")
			}
			if len(p.branches) > 0 {
				return p.fail("'.' inside a branch")
			}
			p.prev = -1
			p.pos++
		case c >= '0' && c <= '9' || c == '%':
			if err := p.ringClosure(); err != nil {
				return err
			}
		case strings.IndexByte("-=#$:~@/\\!", c) >= 0:
			if p.prev < 0 {
				return p.fail("bond without a preceding atom")
			}
			if p.pending != nil {
				return p.fail("two consecutive bond expressions")
			}
			e, err := p.bondExpression()
			if err != nil {
				return err
			}
			p.pending = e
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		default:
			a, err := p.bareAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		}
	}
	if len(p.branches) > 0 || p.groupOpen >= 0 {
		return p.fail("unclosed parenthesis")
	}
	if len(p.openRings) > 0 {
		return p.fail("unclosed ring bond")
	}
	if p.pending != nil {
		return p.fail("dangling bond at end of pattern")
	}
	if len(p.pat.atoms) == 0 {
		return p.fail("pattern has no atoms")
	}
	return nil
}

func (p *smartsParser) attach(a PatternAtom) error {
	idx := p.pat.addAtom(a, p.currentGroup())
	if p.prev >= 0 {
		e := p.pending
		if e == nil {
			e = &bondExpr{kind: bondDefault}
		}
		if err := p.pat.addBond(p.prev, idx, e); err != nil {
			return p.fail("%v", err)
		}
	}
	p.pending = nil
	p.prev = idx
	return nil
}

func (p *smartsParser) ringClosure() error {
	if p.prev < 0 {
		return p.fail("ring closure without a preceding atom")
	}
	var num int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return p.fail("'%%' must be followed by two digits")
		}
		num = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		num = int(p.src[p.pos] - '0')
		p.pos++
	}
	open, ok := p.openRings[num]
	if !ok {
		p.openRings[num] = smartsRing{atom: p.prev, expr: p.pending}
		p.pending = nil
		return nil
	}
	delete(p.openRings, num)
	e := open.expr
	if p.pending != nil {
		e = p.pending
	}
	if e == nil {
		e = &bondExpr{kind: bondDefault}
	}
	p.pending = nil
	if err := p.pat.addBond(open.atom, p.prev, e); err != nil {
		return p.fail("ring closure %d: %v", num, err)
	}
	return nil
}

// bareAtom reads an atom written outside brackets.
func (p *smartsParser) bareAtom() (PatternAtom, error) {
	c := p.src[p.pos]
	leaf := func(e *atomExpr) PatternAtom {
		return PatternAtom{expr: e, Spec: specFromExpr(e)}
	}
	switch c {
	case '*':
		p.pos++
		return leaf(&atomExpr{kind: primAny}), nil
	case 'a':
		p.pos++
		return leaf(&atomExpr{kind: primAromatic}), nil
	case 'A':
		p.pos++
		return leaf(&atomExpr{kind: primAliphatic}), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "Cl") || strings.HasPrefix(p.src[p.pos:], "Br") {
		z, _ := molecule.AtomicNumber(p.src[p.pos : p.pos+2])
		p.pos += 2
		return leaf(&atomExpr{kind: primElement, value: z, aromatic: 2}), nil
	}
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		z, _ := molecule.AtomicNumber(string(c))
		p.pos++
		return leaf(&atomExpr{kind: primElement, value: z, aromatic: 2}), nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		z, _ := molecule.AtomicNumber(strings.ToUpper(string(c)))
		p.pos++
		return leaf(&atomExpr{kind: primElement, value: z, aromatic: 1}), nil
	}
	return PatternAtom{}, p.fail("unexpected character %q", string(c))
}

func (p *smartsParser) bracketAtom() (PatternAtom, error) {
	p.pos++ // '['
	start := p.pos
	depth := 0
	end := -1
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ']':
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return PatternAtom{}, p.fail("unterminated bracket atom")
	}
	body := p.src[start:end]

	mapNum := 0
	if i := strings.LastIndexByte(body, ':'); i >= 0 && i < len(body)-1 && allDigits(body[i+1:]) && !strings.Contains(body[i:], ")") {
		n, err := strconv.Atoi(body[i+1:])
		if err != nil {
			return PatternAtom{}, p.fail("bad atom map %q", body[i+1:])
		}
		mapNum = n
		body = body[:i]
	}
	if body == "" {
		return PatternAtom{}, p.fail("empty bracket atom")
	}
	if body == "H" {
		// a lone H in brackets is a hydrogen atom, not an H-count primitive
		e := &atomExpr{kind: primElement, value: molecule.ZHydrogen}
		p.pos = end + 1
		return PatternAtom{MapNum: mapNum, expr: e, Spec: specFromExpr(e)}, nil
	}

	ep := &exprParser{src: body, outer: p, offset: start}
	e, err := ep.parseLowAnd()
	if err != nil {
		return PatternAtom{}, err
	}
	if ep.pos != len(body) {
		return PatternAtom{}, p.fail("unexpected %q in bracket atom", body[ep.pos:])
	}
	p.pos = end + 1
	return PatternAtom{MapNum: mapNum, expr: e, Spec: specFromExpr(e)}, nil
}

func (p *smartsParser) bondExpression() (*bondExpr, error) {
	bp := &bondParser{src: p.src, pos: p.pos}
	e, err := bp.parseLowAnd()
	if err != nil {
		return nil, p.fail("%v", err)
	}
	p.pos = bp.pos
	return e, nil
}

// specFromExpr extracts definite properties from a pure conjunction.
func specFromExpr(e *atomExpr) AtomSpec {
	var s AtomSpec
	for _, l := range e.leaves() {
		switch l.kind {
		case primElement:
			s.Element, s.HasElement, s.Aromatic = l.value, true, l.aromatic == 1
		case primAtomicNum:
			if !s.HasElement {
				s.Element, s.HasElement = l.value, true
			}
		case primAromatic:
			s.Aromatic = true
		case primCharge:
			s.Charge, s.HasCharge = l.value, true
		case primTotalH:
			s.HCount, s.HasH = l.value, true
		case primIsotope:
			s.Isotope, s.HasIsotope = l.value, true
		}
	}
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom expression grammar (precedence: ';' < ',' < '&'/implicit < '!')
// ─────────────────────────────────────────────────────────────────────────────

type exprParser struct {
	src    string
	pos    int
	outer  *smartsParser
	offset int
}

func (ep *exprParser) fail(format string, args ...interface{}) error {
	ep.outer.pos = ep.offset + ep.pos
	return ep.outer.fail(format, args...)
}

func (ep *exprParser) peek() byte {
	if ep.pos < len(ep.src) {
		return ep.src[ep.pos]
	}
	return 0
}

func (ep *exprParser) parseLowAnd() (*atomExpr, error) {
	left, err := ep.parseOr()
	if err != nil {
		return nil, err
	}
	for ep.peek() == ';' {
		ep.pos++
		right, err := ep.parseOr()
		if err != nil {
			return nil, err
		}
		left = &atomExpr{op: opAnd, left: left, right: right}
	}
	return left, nil
}

func (ep *exprParser) parseOr() (*atomExpr, error) {
	left, err := ep.parseHighAnd()
	if err != nil {
		return nil, err
	}
	for ep.peek() == ',' {
		ep.pos++
		right, err := ep.parseHighAnd()
		if err != nil {
			return nil, err
		}
		left = &atomExpr{op: opOr, left: left, right: right}
	}
	return left, nil
}

func (ep *exprParser) parseHighAnd() (*atomExpr, error) {
	left, err := ep.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		c := ep.peek()
		if c == '&' {
			ep.pos++
		} else if c == 0 || c == ';' || c == ',' || c == ')' {
			return left, nil
		}
		right, err := ep.parseNot()
		if err != nil {
			return nil, err
		}
		left = &atomExpr{op: opAnd, left: left, right: right}
	}
}

func (ep *exprParser) parseNot() (*atomExpr, error) {
	if ep.peek() == '!' {
		ep.pos++
		inner, err := ep.parseNot()
		if err != nil {
			return nil, err
		}
		return &atomExpr{op: opNot, left: inner}, nil
	}
	return ep.primitive()
}

// number reads an optional unsigned integer; ok is false when absent.
func (ep *exprParser) number() (int, bool) {
	start := ep.pos
	n := 0
	for ep.pos < len(ep.src) && isDigit(ep.src[ep.pos]) {
		n = n*10 + int(ep.src[ep.pos]-'0')
		ep.pos++
	}
	return n, ep.pos > start
}

func (ep *exprParser) primitive() (*atomExpr, error) {
	if ep.pos >= len(ep.src) {
		return nil, ep.fail("incomplete atom expression")
	}
	rest := ep.src[ep.pos:]
	c := rest[0]

	if isDigit(c) {
		n, _ := ep.number()
		return &atomExpr{kind: primIsotope, value: n}, nil
	}

	switch c {
	case '$':
		if len(rest) < 2 || rest[1] != '(' {
			return nil, ep.fail("'$' must be followed by '('")
		}
		depth, end := 0, -1
		for i := 1; i < len(rest); i++ {
			if rest[i] == '(' {
				depth++
			} else if rest[i] == ')' {
				depth--
				if depth == 0 {
					end = i
					break
				}
			}
		}
		if end < 0 {
			return nil, ep.fail("unterminated recursive SMARTS")
		}
		inner, err := ParsePattern(rest[2:end])
		if err != nil {
			return nil, err
		}
		ep.pos += end + 1
		return &atomExpr{kind: primRecursive, recursive: inner}, nil
	case '*':
		ep.pos++
		return &atomExpr{kind: primAny}, nil
	case '#':
		ep.pos++
		n, ok := ep.number()
		if !ok {
			return nil, ep.fail("'#' requires an atomic number")
		}
		return &atomExpr{kind: primAtomicNum, value: n}, nil
	case '+', '-':
		ep.pos++
		sign := 1
		if c == '-' {
			sign = -1
		}
		n, ok := ep.number()
		if !ok {
			n = 1
			for ep.peek() == c {
				n++
				ep.pos++
			}
		}
		return &atomExpr{kind: primCharge, value: sign * n}, nil
	case '@':
		// chirality is accepted and ignored
		ep.pos++
		if ep.peek() == '@' {
			ep.pos++
		}
		return &atomExpr{kind: primAny}, nil
	}

	// Two-letter element symbols take precedence over one-letter primitives.
	if c >= 'A' && c <= 'Z' && len(rest) > 1 && rest[1] >= 'a' && rest[1] <= 'z' {
		if z, ok := molecule.AtomicNumber(rest[:2]); ok {
			ep.pos += 2
			return &atomExpr{kind: primElement, value: z, aromatic: 2}, nil
		}
	}
	for _, arom := range []string{"se", "as", "te"} {
		if strings.HasPrefix(rest, arom) {
			z, _ := molecule.AtomicNumber(strings.ToUpper(arom[:1]) + arom[1:])
			ep.pos += 2
			return &atomExpr{kind: primElement, value: z, aromatic: 1}, nil
		}
	}

	ep.pos++
	switch c {
	case 'a':
		return &atomExpr{kind: primAromatic}, nil
	case 'A':
		return &atomExpr{kind: primAliphatic}, nil
	case 'H':
		n, ok := ep.number()
		if !ok {
			n = 1
		}
		return &atomExpr{kind: primTotalH, value: n}, nil
	case 'h':
		n, ok := ep.number()
		if !ok {
			n = -1
		}
		return &atomExpr{kind: primImplicitH, value: n}, nil
	case 'D':
		n, ok := ep.number()
		if !ok {
			n = 1
		}
		return &atomExpr{kind: primDegree, value: n}, nil
	case 'X':
		n, ok := ep.number()
		if !ok {
			n = 1
		}
		return &atomExpr{kind: primConnectivity, value: n}, nil
	case 'v':
		n, ok := ep.number()
		if !ok {
			n = 1
		}
		return &atomExpr{kind: primValence, value: n}, nil
	case 'R':
		n, ok := ep.number()
		if !ok {
			n = -1
		}
		return &atomExpr{kind: primRingCount, value: n}, nil
	case 'r':
		n, ok := ep.number()
		if !ok {
			n = -1
		}
		return &atomExpr{kind: primRingSize, value: n}, nil
	case 'x':
		n, ok := ep.number()
		if !ok {
			n = -1
		}
		return &atomExpr{kind: primRingConnectivity, value: n}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		z, _ := molecule.AtomicNumber(strings.ToUpper(string(c)))
		return &atomExpr{kind: primElement, value: z, aromatic: 1}, nil
	}
	if c >= 'A' && c <= 'Z' {
		if z, ok := molecule.AtomicNumber(string(c)); ok {
			return &atomExpr{kind: primElement, value: z, aromatic: 2}, nil
		}
	}
	ep.pos--
	return nil, ep.fail("unknown atom primitive %q", string(c))
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond expression grammar
// ─────────────────────────────────────────────────────────────────────────────

type bondParser struct {
	src string
	pos int
}

func (bp *bondParser) peek() byte {
	if bp.pos < len(bp.src) {
		return bp.src[bp.pos]
	}
	return 0
}

func (bp *bondParser) parseLowAnd() (*bondExpr, error) {
	left, err := bp.parseOr()
	if err != nil {
		return nil, err
	}
	for bp.peek() == ';' {
		bp.pos++
		right, err := bp.parseOr()
		if err != nil {
			return nil, err
		}
		left = &bondExpr{op: opAnd, left: left, right: right}
	}
	return left, nil
}

func (bp *bondParser) parseOr() (*bondExpr, error) {
	left, err := bp.parseHighAnd()
	if err != nil {
		return nil, err
	}
	for bp.peek() == ',' {
		bp.pos++
		right, err := bp.parseHighAnd()
		if err != nil {
			return nil, err
		}
		left = &bondExpr{op: opOr, left: left, right: right}
	}
	return left, nil
}

func (bp *bondParser) parseHighAnd() (*bondExpr, error) {
	left, err := bp.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		c := bp.peek()
		if c == '&' {
			bp.pos++
		} else if !isBondPrimitive(c) && c != '!' {
			return left, nil
		}
		right, err := bp.parseNot()
		if err != nil {
			return nil, err
		}
		left = &bondExpr{op: opAnd, left: left, right: right}
	}
}

func (bp *bondParser) parseNot() (*bondExpr, error) {
	if bp.peek() == '!' {
		bp.pos++
		inner, err := bp.parseNot()
		if err != nil {
			return nil, err
		}
		return &bondExpr{op: opNot, left: inner}, nil
	}
	c := bp.peek()
	if !isBondPrimitive(c) {
		return nil, fmt.Errorf("expected bond primitive")
	}
	bp.pos++
	switch c {
	case '-', '/', '\\':
		return &bondExpr{kind: bondSingle}, nil
	case '=':
		return &bondExpr{kind: bondDouble}, nil
	case '#':
		return &bondExpr{kind: bondTriple}, nil
	case '$':
		return &bondExpr{kind: bondQuadruple}, nil
	case ':':
		return &bondExpr{kind: bondAromatic}, nil
	case '~':
		return &bondExpr{kind: bondAny}, nil
	default:
		return &bondExpr{kind: bondRing}, nil
	}
}

func isBondPrimitive(c byte) bool {
	return c != 0 && strings.IndexByte("-=#$:~@/\\", c) >= 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

//Personal.AI order the ending
