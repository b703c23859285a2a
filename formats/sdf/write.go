package sdf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/structure"
)

// mdlBondType maps bond orders onto V2000 bond types.
func mdlBondType(o structure.BondOrder) int {
	switch o {
	case structure.BondDouble:
		return 2
	case structure.BondTriple:
		return 3
	case structure.BondAromatic:
		return 4
	case structure.BondUnknown:
		return 8
	default:
		return 1
	}
}

// Write encodes records as an SD file. Atom charges are rounded to integer
// formal charges and written as "M  CHG" lines; metadata properties become
// data items.
func Write(w io.Writer, records []*structure.Record) error {
	bw := bufio.NewWriter(w)
	for n, rec := range records {
		if len(rec.Atoms) > 999 || len(rec.Bonds) > 999 {
			return errors.Newf("structure %d is too large for a V2000 molfile", n+1)
		}
		writeRecord(bw, rec)
	}
	return errors.Wrap(bw.Flush(), "write sdf")
}

func writeRecord(w *bufio.Writer, rec *structure.Record) {
	fmt.Fprintf(w, "%s\n", firstLine(rec.Metadata.Name))
	fmt.Fprintf(w, "  structix          3D\n")
	fmt.Fprintf(w, "%s\n", firstLine(rec.Metadata.Comment))
	fmt.Fprintf(w, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(rec.Atoms), len(rec.Bonds))

	type charge struct{ atom, value int }
	var charges []charge
	for i, a := range rec.Atoms {
		fmt.Fprintf(w, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			a.Coordinates[0], a.Coordinates[1], a.Coordinates[2], a.Element)
		if q := int(math.Round(a.Charge)); q != 0 {
			charges = append(charges, charge{i + 1, q})
		}
	}
	for _, b := range rec.Bonds {
		fmt.Fprintf(w, "%3d%3d%3d  0  0  0  0\n", b.I, b.J, mdlBondType(b.Order))
	}
	for start := 0; start < len(charges); start += 8 {
		end := start + 8
		if end > len(charges) {
			end = len(charges)
		}
		fmt.Fprintf(w, "M  CHG%3d", end-start)
		for _, c := range charges[start:end] {
			fmt.Fprintf(w, " %3d %3d", c.atom, c.value)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, endBlock)

	keys := make([]string, 0, len(rec.Metadata.Properties))
	for k := range rec.Metadata.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "> <%s>\n%s\n\n", k, rec.Metadata.Properties[k])
	}
	fmt.Fprintln(w, separator)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
