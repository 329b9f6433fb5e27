package molecule

// elementSymbols is indexed by atomic number; index 0 is the dummy atom "*".
var elementSymbols = []string{
	"*",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb", "Lu",
	"Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra", "Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm", "Md", "No", "Lr",
	"Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds", "Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var symbolToNumber = func() map[string]int {
	m := make(map[string]int, len(elementSymbols))
	for z, s := range elementSymbols {
		m[s] = z
	}
	return m
}()

// Atomic numbers referenced by name in the sanitizer and writer.
const (
	ZHydrogen   = 1
	ZBoron      = 5
	ZCarbon     = 6
	ZNitrogen   = 7
	ZOxygen     = 8
	ZFluorine   = 9
	ZPhosphorus = 15
	ZSulfur     = 16
	ZChlorine   = 17
	ZArsenic    = 33
	ZSelenium   = 34
	ZBromine    = 35
	ZTellurium  = 52
	ZIodine     = 53
)

// Symbol returns the element symbol for atomic number z, or "" when z is out
// of range.
func Symbol(z int) string {
	if z < 0 || z >= len(elementSymbols) {
		return ""
	}
	return elementSymbols[z]
}

// AtomicNumber returns the atomic number for a capitalised element symbol.
func AtomicNumber(symbol string) (int, bool) {
	z, ok := symbolToNumber[symbol]
	return z, ok
}

// organicSubset lists the elements that may be written without brackets.
var organicSubset = map[int]bool{
	ZBoron: true, ZCarbon: true, ZNitrogen: true, ZOxygen: true, ZPhosphorus: true,
	ZSulfur: true, ZFluorine: true, ZChlorine: true, ZBromine: true, ZIodine: true,
}

// aromaticCapable lists the elements that may carry a lowercase symbol.
var aromaticCapable = map[int]bool{
	ZBoron: true, ZCarbon: true, ZNitrogen: true, ZOxygen: true, ZPhosphorus: true,
	ZSulfur: true, ZArsenic: true, ZSelenium: true, ZTellurium: true,
}

// IsOrganicSubset reports whether z may appear unbracketed in SMILES.
func IsOrganicSubset(z int) bool { return organicSubset[z] }

// IsAromaticCapable reports whether z has a lowercase aromatic symbol.
func IsAromaticCapable(z int) bool { return aromaticCapable[z] }

// neutralValences holds the allowed total valences of neutral main-group
// atoms, smallest first.  Elements absent from the table are unconstrained.
var neutralValences = map[int][]int{
	1:  {1},
	2:  {0},
	3:  {1},
	4:  {2},
	5:  {3},
	6:  {4},
	7:  {3},
	8:  {2},
	9:  {1},
	10: {0},
	11: {1},
	12: {2},
	13: {3},
	14: {4},
	15: {3, 5, 7},
	16: {2, 4, 6},
	17: {1},
	18: {0},
	19: {1},
	20: {2},
	30: {2},
	31: {3},
	32: {4},
	33: {3, 5, 7},
	34: {2, 4, 6},
	35: {1},
	36: {0},
	37: {1},
	38: {2},
	50: {2, 4},
	51: {3, 5},
	52: {2, 4, 6},
	53: {1, 3, 5},
	54: {0},
	55: {1},
	56: {2},
	86: {0},
}

// AllowedValences returns the permitted total valences for an atom with
// atomic number z and formal charge.  Charged main-group atoms take the
// valences of their isoelectronic neutral neighbour (N+ behaves like C, O-
// like F).  A nil result means the element is unconstrained.
func AllowedValences(z, charge int) []int {
	base, ok := neutralValences[z]
	if !ok {
		return nil
	}
	if charge == 0 {
		return base
	}
	iso := z - charge
	if iso <= 0 {
		return []int{0}
	}
	if v, ok := neutralValences[iso]; ok {
		return v
	}
	return nil
}

// isElectronegative reports whether an exocyclic double bond to z leaves a
// ring atom's pi electrons outside the ring (C=O, C=N, C=S).
func isElectronegative(z int) bool {
	switch z {
	case ZNitrogen, ZOxygen, ZSulfur, ZSelenium:
		return true
	}
	return false
}

//Personal.AI order the ending
