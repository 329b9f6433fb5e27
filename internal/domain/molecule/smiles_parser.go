package molecule

import (
	"fmt"
	"strings"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// ringOpening is a pending ring-closure digit.
type ringOpening struct {
	atom  int
	order BondOrder
}

// smilesParser is a single-pass recursive-descent-free SMILES reader: branches
// are tracked with an explicit stack and ring closures with a digit table.
type smilesParser struct {
	src  string
	pos  int
	b    *Builder
	prev int

	pending    BondOrder
	branches   []int
	openRings  map[int]ringOpening
	lastWasDot bool
}

// ParseUnsanitized reads SMILES syntax into a molecular graph without any
// chemistry checks.  Stereo descriptors are accepted and discarded.
func ParseUnsanitized(text string) (*Molecule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrCodeStructureParse, "empty SMILES")
	}
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		// Anything after whitespace is a title, as in SMILES files.
		text = text[:i]
	}
	p := &smilesParser{
		src:       text,
		b:         NewBuilder(),
		prev:      -1,
		openRings: make(map[int]ringOpening),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.b.Molecule(), nil
}

func (p *smilesParser) fail(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeStructureParse, "invalid SMILES").
		WithDetail(fmt.Sprintf(format, args...) + fmt.Sprintf(" (position %d in %q)", p.pos, p.src))
}

func (p *smilesParser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.fail("branch opened before any atom")
			}
			if p.pending != 0 {
				return p.fail("bond symbol before branch")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return p.fail("unbalanced ')'")
			}
			if p.pending != 0 {
				return p.fail("dangling bond at end of branch")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '.':
			if p.pending != 0 {
				return p.fail("bond symbol before '.'")
			}
			if p.prev < 0 {
				return p.fail("'.' before any atom")
			}
			p.prev = -1
			p.lastWasDot = true
			p.pos++
		case strings.IndexByte("-=#$:/\\", c) >= 0:
			if p.pending != 0 {
				return p.fail("two consecutive bond symbols")
			}
			if p.prev < 0 {
				return p.fail("bond symbol without a preceding atom")
			}
			p.pending = bondFromSymbol(c)
			p.pos++
		case c >= '0' && c <= '9' || c == '%':
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		}
	}
	if len(p.branches) > 0 {
		return p.fail("unclosed branch")
	}
	if len(p.openRings) > 0 {
		return p.fail("unclosed ring bond")
	}
	if p.pending != 0 {
		return p.fail("dangling bond at end of input")
	}
	if p.lastWasDot && p.prev < 0 {
		return p.fail("trailing '.'")
	}
	return nil
}

func bondFromSymbol(c byte) BondOrder {
	switch c {
	case '=':
		return BondDouble
	case '#':
		return BondTriple
	case '$':
		return BondQuadruple
	case ':':
		return BondAromatic
	default:
		return BondSingle
	}
}

// attach adds the atom and bonds it to the previous atom of the chain.
func (p *smilesParser) attach(a Atom) error {
	idx := p.b.AddAtom(a)
	if p.prev >= 0 {
		order := p.pending
		if order == 0 {
			order = p.defaultOrder(p.prev, idx)
		}
		if err := p.b.AddBond(p.prev, idx, order); err != nil {
			return p.fail("%v", err)
		}
	}
	p.pending = 0
	p.prev = idx
	p.lastWasDot = false
	return nil
}

func (p *smilesParser) defaultOrder(a, b int) BondOrder {
	atoms := p.b.mol.atoms
	if atoms[a].Aromatic && atoms[b].Aromatic {
		return BondAromatic
	}
	return BondSingle
}

func (p *smilesParser) ringClosure() error {
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
		p.openRings[num] = ringOpening{atom: p.prev, order: p.pending}
		p.pending = 0
		return nil
	}
	delete(p.openRings, num)
	if open.atom == p.prev {
		return p.fail("ring closure %d bonds an atom to itself", num)
	}
	order := open.order
	if p.pending != 0 {
		if order != 0 && order != p.pending {
			return p.fail("conflicting bond symbols on ring closure %d", num)
		}
		order = p.pending
	}
	if order == 0 {
		order = p.defaultOrder(open.atom, p.prev)
	}
	p.pending = 0
	if err := p.b.AddBond(open.atom, p.prev, order); err != nil {
		return p.fail("ring closure %d: %v", num, err)
	}
	return nil
}

func (p *smilesParser) organicAtom() (Atom, error) {
	c := p.src[p.pos]
	if c == '*' {
		p.pos++
		return Atom{Element: 0}, nil
	}
	if p.pos+1 < len(p.src) {
		two := p.src[p.pos : p.pos+2]
		if two == "Cl" || two == "Br" {
			z, _ := AtomicNumber(two)
			p.pos += 2
			return Atom{Element: z}, nil
		}
	}
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		z, _ := AtomicNumber(string(c))
		p.pos++
		return Atom{Element: z}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		z, _ := AtomicNumber(strings.ToUpper(string(c)))
		p.pos++
		return Atom{Element: z, Aromatic: true}, nil
	}
	return Atom{}, p.fail("unexpected character %q", string(c))
}

func (p *smilesParser) bracketAtom() (Atom, error) {
	p.pos++ // '['
	var a Atom
	a.NoImplicit = true

	a.Isotope = p.readNumber(0)

	if p.pos >= len(p.src) {
		return a, p.fail("unterminated bracket atom")
	}
	if err := p.bracketSymbol(&a); err != nil {
		return a, err
	}

	// chirality, discarded
	if p.peek() == '@' {
		p.pos++
		if p.peek() == '@' {
			p.pos++
		} else if p.pos+1 < len(p.src) {
			switch p.src[p.pos : p.pos+2] {
			case "TH", "AL", "SP", "TB", "OH":
				p.pos += 2
				p.readNumber(0)
			}
		}
	}

	if p.peek() == 'H' {
		p.pos++
		a.HCount = p.readNumber(1)
	}

	if c := p.peek(); c == '+' || c == '-' {
		sign := 1
		if c == '-' {
			sign = -1
		}
		p.pos++
		n := 1
		if isDigit(p.peek()) {
			n = p.readNumber(1)
		} else {
			for p.peek() == c {
				n++
				p.pos++
			}
		}
		a.Charge = sign * n
	}

	if p.peek() == ':' {
		p.pos++
		if !isDigit(p.peek()) {
			return a, p.fail("atom class requires digits")
		}
		a.MapNum = p.readNumber(0)
	}

	if p.peek() != ']' {
		return a, p.fail("unexpected %q in bracket atom", string(p.peek()))
	}
	p.pos++
	return a, nil
}

func (p *smilesParser) bracketSymbol(a *Atom) error {
	rest := p.src[p.pos:]
	if strings.HasPrefix(rest, "*") {
		p.pos++
		return nil
	}
	for _, arom := range []string{"se", "as", "te"} {
		if strings.HasPrefix(rest, arom) {
			z, _ := AtomicNumber(strings.ToUpper(arom[:1]) + arom[1:])
			a.Element, a.Aromatic = z, true
			p.pos += 2
			return nil
		}
	}
	c := rest[0]
	if c >= 'a' && c <= 'z' {
		z, ok := AtomicNumber(strings.ToUpper(string(c)))
		if !ok || !IsAromaticCapable(z) {
			return p.fail("unknown aromatic symbol %q", string(c))
		}
		a.Element, a.Aromatic = z, true
		p.pos++
		return nil
	}
	if c < 'A' || c > 'Z' {
		return p.fail("expected element symbol")
	}
	if len(rest) > 1 && rest[1] >= 'a' && rest[1] <= 'z' {
		if z, ok := AtomicNumber(rest[:2]); ok {
			a.Element = z
			p.pos += 2
			return nil
		}
	}
	z, ok := AtomicNumber(rest[:1])
	if !ok {
		return p.fail("unknown element %q", rest[:1])
	}
	a.Element = z
	p.pos++
	return nil
}

func (p *smilesParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

// readNumber consumes a run of digits, returning def when none are present.
func (p *smilesParser) readNumber(def int) int {
	start := p.pos
	n := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) && p.pos-start < 6 {
		n = n*10 + int(p.src[p.pos]-'0')
		p.pos++
	}
	if p.pos == start {
		return def
	}
	return n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

//Personal.AI order the ending
