package structure

import (
	"strings"

	"github.com/teranos/structix/errors"
)

// Normalize brings a reader's record into canonical shape in place:
// canonical element capitalization, bond endpoints ordered i<j, known order
// labels, duplicate pairs dropped (first wins). It then validates the record.
func Normalize(r *Record) error {
	if r == nil {
		return errors.New("nil record")
	}
	for i := range r.Atoms {
		r.Atoms[i].Element = CanonicalSymbol(r.Atoms[i].Element)
	}

	seen := make(map[[2]int]struct{}, len(r.Bonds))
	bonds := r.Bonds[:0]
	for _, b := range r.Bonds {
		i, j := b.Pair()
		key := [2]int{i, j}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		order := BondOrder(strings.ToLower(strings.TrimSpace(string(b.Order))))
		switch order {
		case BondSingle, BondDouble, BondTriple, BondAromatic, BondAmide, BondDummy, BondUnknown, BondNotConnected:
		case "":
			order = BondSingle
		default:
			order = ParseBondOrder(string(order))
		}
		bonds = append(bonds, Bond{I: i, J: j, Order: order})
	}
	r.Bonds = bonds

	return r.Validate()
}
