package reaction

import (
	"strings"

	"github.com/turtacn/rxnguard/pkg/errors"
)

// Template is a parsed reaction SMARTS "reactants>agents>products".  Each
// '.'-separated component on the reactant side is one reactant role; each on
// the product side is one product role.  Agents are accepted and ignored.
// A Template is immutable and safe for concurrent use.
type Template struct {
	source    string
	reactants []*Pattern
	products  []*Pattern
}

// ParseTemplate parses a reaction SMARTS.  Failures carry code RXN_002.
func ParseTemplate(text string) (*Template, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrCodeTemplateParse, "empty reaction template")
	}
	parts, err := splitReaction(text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(parts[0]) == "" {
		return nil, errors.New(errors.ErrCodeTemplateParse, "reaction template has no reactants").WithDetail(text)
	}
	if strings.TrimSpace(parts[2]) == "" {
		return nil, errors.New(errors.ErrCodeTemplateParse, "reaction template has no products").WithDetail(text)
	}

	rp, err := ParsePattern(parts[0])
	if err != nil {
		return nil, err
	}
	pp, err := ParsePattern(parts[2])
	if err != nil {
		return nil, err
	}
	t := &Template{source: text, reactants: rp.Components(), products: pp.Components()}

	reactantMaps := map[int]bool{}
	for _, rt := range t.reactants {
		for _, a := range rt.atoms {
			if a.MapNum > 0 {
				reactantMaps[a.MapNum] = true
			}
		}
	}
	for _, prod := range t.products {
		for _, a := range prod.atoms {
			if !reactantMaps[a.MapNum] && !a.Spec.HasElement {
				return nil, errors.New(errors.ErrCodeTemplateParse, "unmapped product atom must name an element").
					WithDetail(text)
			}
		}
	}
	return t, nil
}

// splitReaction splits on the two top-level '>' separators.
func splitReaction(text string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '>':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, text[start:])
	if len(parts) != 3 {
		return nil, errors.New(errors.ErrCodeTemplateParse, "reaction template must have the form reactants>agents>products").
			WithDetail(text)
	}
	return parts, nil
}

// String returns the template text as given.
func (t *Template) String() string { return t.source }

// RequiredReactantCount is the number of reactant roles.
func (t *Template) RequiredReactantCount() int { return len(t.reactants) }

// ProducedRoleCount is the number of molecules in every product set.
func (t *Template) ProducedRoleCount() int { return len(t.products) }

// Reactant returns the query for reactant role i.
func (t *Template) Reactant(i int) *Pattern { return t.reactants[i] }

// Product returns the query for product role i.
func (t *Template) Product(i int) *Pattern { return t.products[i] }

//Personal.AI order the ending
