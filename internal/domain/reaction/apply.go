package reaction

import (
	"github.com/turtacn/rxnguard/internal/domain/molecule"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// MaxProducts bounds the number of product sets one Apply call emits, and
// the number of matches collected per reactant role.
const MaxProducts = 1000

// sourceAtom locates an atom in the reactant list.
type sourceAtom struct {
	reactant int
	atom     int
}

// mappedAtom is a reactant atom bound to a template map number by one match.
type mappedAtom struct {
	src          sourceAtom
	templateAtom int
}

// Apply runs the template on an ordered reactant list.  Reactant role i is
// matched against reactants[i]; every combination of matches yields one
// product set with ProducedRoleCount raw (unsanitized) molecules.  Distinct
// matches may yield chemically identical products.
//
// Structural faults (arity mismatch, duplicate reactant map numbers) fail the
// whole call with code RXN_004; no partial results are returned.
func (t *Template) Apply(reactants []*molecule.Molecule) ([][]*molecule.Molecule, error) {
	if len(reactants) != len(t.reactants) {
		return nil, errors.Newf(errors.ErrCodeRunFailure,
			"template expects %d reactants, got %d", len(t.reactants), len(reactants))
	}
	for i, r := range reactants {
		if r == nil || !r.Sanitized() {
			return nil, errors.Newf(errors.ErrCodeRunFailure, "reactant %d is not a sanitized molecule", i)
		}
	}
	seen := map[int]bool{}
	for _, rp := range t.reactants {
		for _, a := range rp.atoms {
			if a.MapNum == 0 {
				continue
			}
			if seen[a.MapNum] {
				return nil, errors.Newf(errors.ErrCodeRunFailure, "atom map %d appears more than once in reactant templates", a.MapNum)
			}
			seen[a.MapNum] = true
		}
	}

	perRole := make([][]Match, len(reactants))
	for i, rp := range t.reactants {
		perRole[i] = rp.MatchAll(reactants[i], MaxProducts)
		if len(perRole[i]) == 0 {
			return nil, nil
		}
	}

	var out [][]*molecule.Molecule
	combo := make([]Match, len(perRole))
	var walk func(role int) error
	walk = func(role int) error {
		if len(out) >= MaxProducts {
			return nil
		}
		if role == len(perRole) {
			set, err := t.build(reactants, combo)
			if err != nil {
				return err
			}
			out = append(out, set)
			return nil
		}
		for _, m := range perRole[role] {
			combo[role] = m
			if err := walk(role + 1); err != nil {
				return err
			}
			if len(out) >= MaxProducts {
				return nil
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}
	return out, nil
}

// build assembles one product set from one combination of matches.
func (t *Template) build(reactants []*molecule.Molecule, combo []Match) ([]*molecule.Molecule, error) {
	mapped := map[int]mappedAtom{}
	matched := make([]map[int]int, len(reactants)) // molecule atom -> template atom
	for r, m := range combo {
		matched[r] = make(map[int]int, len(m))
		for ta, ma := range m {
			matched[r][ma] = ta
			if mn := t.reactants[r].atoms[ta].MapNum; mn > 0 {
				mapped[mn] = mappedAtom{src: sourceAtom{reactant: r, atom: ma}, templateAtom: ta}
			}
		}
	}

	set := make([]*molecule.Molecule, 0, len(t.products))
	for _, prod := range t.products {
		mol, err := t.buildProduct(prod, reactants, mapped, matched)
		if err != nil {
			return nil, err
		}
		set = append(set, mol)
	}
	return set, nil
}

func (t *Template) buildProduct(
	prod *Pattern,
	reactants []*molecule.Molecule,
	mapped map[int]mappedAtom,
	matched []map[int]int,
) (*molecule.Molecule, error) {
	b := molecule.NewBuilder()
	carried := map[sourceAtom]int{}
	productIdx := make([]int, len(prod.atoms))
	origin := make([]*mappedAtom, len(prod.atoms))

	for i, pa := range prod.atoms {
		ma, ok := mapped[pa.MapNum]
		if pa.MapNum == 0 || !ok {
			productIdx[i] = b.AddAtom(freshAtom(pa.Spec))
			continue
		}
		if _, dup := carried[ma.src]; dup {
			return nil, errors.Newf(errors.ErrCodeRunFailure, "atom map %d used twice in one product", pa.MapNum)
		}
		src := reactants[ma.src.reactant].Atom(ma.src.atom)
		rspec := t.reactants[ma.src.reactant].atoms[ma.templateAtom].Spec
		productIdx[i] = b.AddAtom(transformAtom(src, rspec, pa.Spec))
		carried[ma.src] = productIdx[i]
		m := ma
		origin[i] = &m
	}

	// Bonds written in the product template.
	for _, pb := range prod.bonds {
		order := pb.Order
		if order == 0 {
			order = molecule.BondSingle
			if o1, o2 := origin[pb.Begin], origin[pb.End]; o1 != nil && o2 != nil && o1.src.reactant == o2.src.reactant {
				r := reactants[o1.src.reactant]
				if rb := r.BondBetween(o1.src.atom, o2.src.atom); rb >= 0 {
					order = r.Bond(rb).Order
				}
			}
		}
		if err := b.AddBond(productIdx[pb.Begin], productIdx[pb.End], order); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRunFailure, "invalid product bond")
		}
	}

	// Carry the unmatched remainder of each reactant attached to a mapped atom.
	var queue []sourceAtom
	for src := range carried {
		queue = append(queue, src)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		r := reactants[cur.reactant]
		for _, nb := range r.Neighbors(cur.atom) {
			next := sourceAtom{reactant: cur.reactant, atom: nb.Atom}
			if _, done := carried[next]; done {
				continue
			}
			if _, isMatched := matched[cur.reactant][nb.Atom]; isMatched {
				continue
			}
			a := r.Atom(nb.Atom)
			a.MapNum = 0
			carried[next] = b.AddAtom(a)
			queue = append(queue, next)
		}
	}

	// Reactant bonds among carried atoms that the template does not govern.
	for src, idx := range carried {
		r := reactants[src.reactant]
		for _, nb := range r.Neighbors(src.atom) {
			if nb.Atom < src.atom {
				continue
			}
			otherIdx, ok := carried[sourceAtom{reactant: src.reactant, atom: nb.Atom}]
			if !ok {
				continue
			}
			ta, aMatched := matched[src.reactant][src.atom]
			tb, bMatched := matched[src.reactant][nb.Atom]
			if aMatched && bMatched && t.reactants[src.reactant].BondBetween(ta, tb) >= 0 {
				// template bond: kept only if the product template wrote it
				continue
			}
			if b.Molecule().BondBetween(idx, otherIdx) >= 0 {
				continue
			}
			if err := b.AddBond(idx, otherIdx, r.Bond(nb.Bond).Order); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeRunFailure, "invalid carried bond")
			}
		}
	}
	return b.Molecule(), nil
}

// freshAtom creates an atom the product template introduces.
func freshAtom(spec AtomSpec) molecule.Atom {
	a := molecule.Atom{
		Element:  spec.Element,
		Aromatic: spec.Aromatic,
		Charge:   spec.Charge,
		Isotope:  spec.Isotope,
	}
	if spec.HasH {
		a.HCount = spec.HCount
		a.NoImplicit = true
	}
	return a
}

// transformAtom copies a matched reactant atom and applies what the product
// template states about it.
func transformAtom(src molecule.Atom, reactantSpec, productSpec AtomSpec) molecule.Atom {
	a := src
	a.MapNum = 0
	if productSpec.HasElement && (!reactantSpec.HasElement || productSpec.Element != reactantSpec.Element) {
		a.Element = productSpec.Element
		a.Aromatic = productSpec.Aromatic
	}
	if productSpec.HasCharge {
		a.Charge = productSpec.Charge
	}
	if productSpec.HasIsotope {
		a.Isotope = productSpec.Isotope
	}
	switch {
	case productSpec.HasH:
		a.HCount = productSpec.HCount
		a.NoImplicit = true
	case reactantSpec.HasH:
		a.HCount = 0
		a.NoImplicit = false
	}
	return a
}

//Personal.AI order the ending
