package structure

import (
	"strconv"
	"strings"
)

// element holds the per-element data used by bond perception.
type element struct {
	symbol  string
	radius  float64 // single-bond covalent radius in Angstrom
	valence int     // typical valence for multiple-bond assignment; 0 = no assignment
}

// elements is indexed by atomic number. Radii from Cordero et al.,
// Dalton Trans. 2008.
var elements = []element{
	{"X", 0.0, 0},
	{"H", 0.31, 1}, {"He", 0.28, 0}, {"Li", 1.28, 0}, {"Be", 0.96, 0}, {"B", 0.84, 3},
	{"C", 0.76, 4}, {"N", 0.71, 3}, {"O", 0.66, 2}, {"F", 0.57, 1}, {"Ne", 0.58, 0},
	{"Na", 1.66, 0}, {"Mg", 1.41, 0}, {"Al", 1.21, 0}, {"Si", 1.11, 4}, {"P", 1.07, 3},
	{"S", 1.05, 2}, {"Cl", 1.02, 1}, {"Ar", 1.06, 0}, {"K", 2.03, 0}, {"Ca", 1.76, 0},
	{"Sc", 1.70, 0}, {"Ti", 1.60, 0}, {"V", 1.53, 0}, {"Cr", 1.39, 0}, {"Mn", 1.39, 0},
	{"Fe", 1.32, 0}, {"Co", 1.26, 0}, {"Ni", 1.24, 0}, {"Cu", 1.32, 0}, {"Zn", 1.22, 0},
	{"Ga", 1.22, 0}, {"Ge", 1.20, 4}, {"As", 1.19, 3}, {"Se", 1.20, 2}, {"Br", 1.20, 1},
	{"Kr", 1.16, 0}, {"Rb", 2.20, 0}, {"Sr", 1.95, 0}, {"Y", 1.90, 0}, {"Zr", 1.75, 0},
	{"Nb", 1.64, 0}, {"Mo", 1.54, 0}, {"Tc", 1.47, 0}, {"Ru", 1.46, 0}, {"Rh", 1.42, 0},
	{"Pd", 1.39, 0}, {"Ag", 1.45, 0}, {"Cd", 1.44, 0}, {"In", 1.42, 0}, {"Sn", 1.39, 0},
	{"Sb", 1.39, 0}, {"Te", 1.38, 2}, {"I", 1.39, 1}, {"Xe", 1.40, 0}, {"Cs", 2.44, 0},
	{"Ba", 2.15, 0}, {"La", 2.07, 0}, {"Ce", 2.04, 0}, {"Pr", 2.03, 0}, {"Nd", 2.01, 0},
	{"Pm", 1.99, 0}, {"Sm", 1.98, 0}, {"Eu", 1.98, 0}, {"Gd", 1.96, 0}, {"Tb", 1.94, 0},
	{"Dy", 1.92, 0}, {"Ho", 1.92, 0}, {"Er", 1.89, 0}, {"Tm", 1.90, 0}, {"Yb", 1.87, 0},
	{"Lu", 1.87, 0}, {"Hf", 1.75, 0}, {"Ta", 1.70, 0}, {"W", 1.62, 0}, {"Re", 1.51, 0},
	{"Os", 1.44, 0}, {"Ir", 1.41, 0}, {"Pt", 1.36, 0}, {"Au", 1.36, 0}, {"Hg", 1.32, 0},
	{"Tl", 1.45, 0}, {"Pb", 1.46, 0}, {"Bi", 1.48, 0}, {"Po", 1.40, 0}, {"At", 1.50, 0},
	{"Rn", 1.50, 0}, {"Fr", 2.60, 0}, {"Ra", 2.21, 0}, {"Ac", 2.15, 0}, {"Th", 2.06, 0},
	{"Pa", 2.00, 0}, {"U", 1.96, 0}, {"Np", 1.90, 0}, {"Pu", 1.87, 0}, {"Am", 1.80, 0},
	{"Cm", 1.69, 0},
}

var bySymbol = func() map[string]int {
	m := make(map[string]int, len(elements))
	for z, e := range elements {
		m[e.symbol] = z
	}
	return m
}()

// CanonicalSymbol normalizes capitalization ("CL" -> "Cl", " n" -> "N").
func CanonicalSymbol(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// IsElement reports whether s (any capitalization) is a known element symbol.
func IsElement(s string) bool {
	z, ok := bySymbol[CanonicalSymbol(s)]
	return ok && z > 0
}

// AtomicNumber returns the atomic number of symbol, or 0 if unknown.
func AtomicNumber(symbol string) int {
	return bySymbol[CanonicalSymbol(symbol)]
}

// SymbolFor returns the symbol of atomic number z, or "" when out of range.
func SymbolFor(z int) string {
	if z <= 0 || z >= len(elements) {
		return ""
	}
	return elements[z].symbol
}

// ParseElement accepts a symbol or an atomic number ("6" -> "C").
func ParseElement(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if z, err := strconv.Atoi(s); err == nil {
		sym := SymbolFor(z)
		return sym, sym != ""
	}
	if IsElement(s) {
		return CanonicalSymbol(s), true
	}
	return "", false
}

func covalentRadius(symbol string) (float64, bool) {
	z := AtomicNumber(symbol)
	if z == 0 {
		return 0, false
	}
	return elements[z].radius, true
}

func typicalValence(symbol string) int {
	return elements[AtomicNumber(symbol)].valence
}
