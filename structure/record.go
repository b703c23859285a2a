package structure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/structix/errors"
)

// Atom is one atom of a record. Coordinates are Cartesian, in Angstrom.
type Atom struct {
	Element     string     `json:"element" yaml:"element"`
	Coordinates [3]float64 `json:"coordinates" yaml:"coordinates,flow"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Charge      float64    `json:"charge,omitempty" yaml:"charge,omitempty"`
}

// Cell is the periodic cell: lengths in Angstrom, angles in degrees.
type Cell struct {
	A          float64 `json:"a" yaml:"a"`
	B          float64 `json:"b" yaml:"b"`
	C          float64 `json:"c" yaml:"c"`
	Alpha      float64 `json:"alpha" yaml:"alpha"`
	Beta       float64 `json:"beta" yaml:"beta"`
	Gamma      float64 `json:"gamma" yaml:"gamma"`
	SpaceGroup string  `json:"space_group,omitempty" yaml:"space_group,omitempty"`
}

// Metadata carries the optional descriptive fields of a record.
type Metadata struct {
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	Comment      string            `json:"comment,omitempty" yaml:"comment,omitempty"`
	Charge       *int              `json:"charge,omitempty" yaml:"charge,omitempty"`
	Multiplicity *int              `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`
	Source       string            `json:"source,omitempty" yaml:"source,omitempty"`
	Format       string            `json:"format,omitempty" yaml:"format,omitempty"`
	Properties   map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Record is the canonical decoded structure.
type Record struct {
	Atoms    []Atom   `json:"atoms" yaml:"atoms"`
	Bonds    []Bond   `json:"bonds" yaml:"bonds"`
	Cell     *Cell    `json:"cell,omitempty" yaml:"cell,omitempty"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// NAtoms returns the number of atoms.
func (r *Record) NAtoms() int { return len(r.Atoms) }

// Elements returns the element symbols in atom order.
func (r *Record) Elements() []string {
	out := make([]string, len(r.Atoms))
	for i, a := range r.Atoms {
		out[i] = a.Element
	}
	return out
}

// Coordinates returns the coordinates in atom order.
func (r *Record) Coordinates() [][3]float64 {
	out := make([][3]float64, len(r.Atoms))
	for i, a := range r.Atoms {
		out[i] = a.Coordinates
	}
	return out
}

// AddBond appends a bond between 1-based atoms i and j.
func (r *Record) AddBond(i, j int, order BondOrder) {
	r.Bonds = append(r.Bonds, Bond{I: i, J: j, Order: order})
}

// HasBond reports whether atoms i and j are bonded with the given order,
// regardless of endpoint order. An empty order matches any order.
func (r *Record) HasBond(i, j int, order BondOrder) bool {
	if i > j {
		i, j = j, i
	}
	for _, b := range r.Bonds {
		bi, bj := b.Pair()
		if bi == i && bj == j && (order == "" || b.Order == order) {
			return true
		}
	}
	return false
}

// Formula returns the Hill formula ("C2H6O"): carbon first, hydrogen second,
// the rest alphabetical; without carbon, everything alphabetical.
func (r *Record) Formula() string {
	counts := make(map[string]int)
	for _, a := range r.Atoms {
		counts[a.Element]++
	}
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	_, hasCarbon := counts["C"]
	sort.Slice(symbols, func(i, j int) bool {
		if hasCarbon {
			rank := func(s string) int {
				switch s {
				case "C":
					return 0
				case "H":
					return 1
				}
				return 2
			}
			ri, rj := rank(symbols[i]), rank(symbols[j])
			if ri != rj {
				return ri < rj
			}
		}
		return symbols[i] < symbols[j]
	})

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		if n := counts[s]; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

// Validate checks the record invariants: non-empty elements, bond endpoints
// inside 1..NAtoms, no self bonds, no duplicate pairs.
func (r *Record) Validate() error {
	for i, a := range r.Atoms {
		if strings.TrimSpace(a.Element) == "" {
			return errors.Newf("atom %d has no element", i+1)
		}
	}
	seen := make(map[[2]int]struct{}, len(r.Bonds))
	for n, b := range r.Bonds {
		i, j := b.Pair()
		if i < 1 || j > len(r.Atoms) {
			return errors.Newf("bond %d (%d-%d) references an atom outside 1..%d", n+1, b.I, b.J, len(r.Atoms))
		}
		if i == j {
			return errors.Newf("bond %d bonds atom %d to itself", n+1, i)
		}
		key := [2]int{i, j}
		if _, dup := seen[key]; dup {
			return errors.Newf("bond %d-%d listed twice", i, j)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := &Record{
		Atoms:    append([]Atom(nil), r.Atoms...),
		Bonds:    append([]Bond(nil), r.Bonds...),
		Metadata: r.Metadata,
	}
	if r.Cell != nil {
		cell := *r.Cell
		c.Cell = &cell
	}
	if r.Metadata.Charge != nil {
		v := *r.Metadata.Charge
		c.Metadata.Charge = &v
	}
	if r.Metadata.Multiplicity != nil {
		v := *r.Metadata.Multiplicity
		c.Metadata.Multiplicity = &v
	}
	if r.Metadata.Properties != nil {
		c.Metadata.Properties = make(map[string]string, len(r.Metadata.Properties))
		for k, v := range r.Metadata.Properties {
			c.Metadata.Properties[k] = v
		}
	}
	return c
}

// String summarizes the record for logs.
func (r *Record) String() string {
	name := r.Metadata.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s %s: %d atoms, %d bonds", name, r.Formula(), len(r.Atoms), len(r.Bonds))
}
