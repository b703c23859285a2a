package structure

import "strings"

// BondOrder labels a bond. Values are the lowercase names used in the
// serialized record.
type BondOrder string

const (
	BondSingle       BondOrder = "single"
	BondDouble       BondOrder = "double"
	BondTriple       BondOrder = "triple"
	BondAromatic     BondOrder = "aromatic"
	BondAmide        BondOrder = "amide"
	BondDummy        BondOrder = "dummy"
	BondUnknown      BondOrder = "unknown"
	BondNotConnected BondOrder = "not connected"
)

// ParseBondOrder maps the labels and codes used across formats (MDL 1-4,
// Tripos 1/2/3/ar/am/du/un/nc, plain names) onto a BondOrder. Unrecognized
// input yields BondUnknown.
func ParseBondOrder(s string) BondOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "single", "s":
		return BondSingle
	case "2", "double", "d":
		return BondDouble
	case "3", "triple", "t":
		return BondTriple
	case "4", "ar", "aromatic", "a", "1.5":
		return BondAromatic
	case "am", "amide":
		return BondAmide
	case "du", "dummy":
		return BondDummy
	case "nc", "not connected":
		return BondNotConnected
	default:
		return BondUnknown
	}
}

// Multiplicity is the number of electron pairs the order stands for, used by
// writers that only know integer orders. Aromatic counts as 1.
func (o BondOrder) Multiplicity() int {
	switch o {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	default:
		return 1
	}
}

// Bond joins atoms I and J (1-based indices into Record.Atoms).
type Bond struct {
	I     int       `json:"i" yaml:"i"`
	J     int       `json:"j" yaml:"j"`
	Order BondOrder `json:"order" yaml:"order"`
}

// Pair returns the endpoints with the smaller index first.
func (b Bond) Pair() (int, int) {
	if b.I > b.J {
		return b.J, b.I
	}
	return b.I, b.J
}
