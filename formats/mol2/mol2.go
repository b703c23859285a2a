// Package mol2 reads Tripos MOL2 files. A file holds one or more molecules,
// each introduced by a @<TRIPOS>MOLECULE record and followed by ATOM, BOND
// and optional CRYSIN records.
package mol2

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/internal/lines"
	"github.com/teranos/structix/structure"
)

// ID is the format id.
const ID = ".mol2"

const recordMarker = "@<TRIPOS>"

// Reader decodes MOL2 files.
type Reader struct{}

// Descriptor returns the registry entry for MOL2.
func Descriptor() format.Descriptor {
	return format.Descriptor{
		ID:      ID,
		Reader:  Reader{},
		Checker: format.CheckerFunc(Check),
		Metadata: format.Metadata{
			Description: "Tripos MOL2",
		},
	}
}

// Read decodes every molecule of path.
func (Reader) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	ls, err := lines.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, ls)
}

type molecule struct {
	rec        *structure.Record
	atomCount  int
	bondCount  int
	headerLine int
}

// Decode parses MOL2 text already split into lines.
func Decode(ctx context.Context, ls []string) ([]*structure.Record, error) {
	var (
		mols    []*molecule
		cur     *molecule
		section string
		// position inside the MOLECULE record
		molLine int
	)

	for n, raw := range ls {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, recordMarker) {
			section = strings.ToUpper(strings.TrimPrefix(line, recordMarker))
			if section == "MOLECULE" {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				cur = &molecule{rec: &structure.Record{}, headerLine: n + 1}
				mols = append(mols, cur)
				molLine = 0
			} else if cur == nil {
				return nil, lines.Errorf(n+1, "%s record before any MOLECULE record", section)
			}
			continue
		}
		if cur == nil || line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch section {
		case "MOLECULE":
			molLine++
			switch molLine {
			case 1:
				cur.rec.Metadata.Name = line
			case 2:
				fields := strings.Fields(line)
				na, err := strconv.Atoi(fields[0])
				if err != nil {
					return nil, lines.Errorf(n+1, "bad atom count %q", fields[0])
				}
				cur.atomCount = na
				if len(fields) > 1 {
					if cur.bondCount, err = strconv.Atoi(fields[1]); err != nil {
						return nil, lines.Errorf(n+1, "bad bond count %q", fields[1])
					}
				}
			case 5, 6:
				// status bits may be "****"; the comment follows
				if line != "****" {
					cur.rec.Metadata.Comment = line
				}
			}
		case "ATOM":
			atom, err := parseAtom(line)
			if err != nil {
				return nil, lines.Errorf(n+1, "%v", err)
			}
			cur.rec.Atoms = append(cur.rec.Atoms, atom)
		case "BOND":
			bond, err := parseBond(line)
			if err != nil {
				return nil, lines.Errorf(n+1, "%v", err)
			}
			cur.rec.Bonds = append(cur.rec.Bonds, bond)
		case "CRYSIN":
			cell, err := parseCrysin(line)
			if err != nil {
				return nil, lines.Errorf(n+1, "%v", err)
			}
			cur.rec.Cell = cell
		}
	}

	records := make([]*structure.Record, 0, len(mols))
	for _, m := range mols {
		if len(m.rec.Atoms) != m.atomCount {
			return nil, lines.Errorf(m.headerLine, "molecule %q declares %d atoms but lists %d",
				m.rec.Metadata.Name, m.atomCount, len(m.rec.Atoms))
		}
		if m.bondCount > 0 && len(m.rec.Bonds) != m.bondCount {
			return nil, lines.Errorf(m.headerLine, "molecule %q declares %d bonds but lists %d",
				m.rec.Metadata.Name, m.bondCount, len(m.rec.Bonds))
		}
		records = append(records, m.rec)
	}
	return records, nil
}

// parseAtom reads "id name x y z type [subst_id subst_name [charge]]".
func parseAtom(line string) (structure.Atom, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return structure.Atom{}, errors.Newf("expected at least 6 fields in atom line %q", line)
	}
	xyz, err := lines.Floats(fields[2:5])
	if err != nil {
		return structure.Atom{}, err
	}
	el, ok := elementOf(fields[5], fields[1])
	if !ok {
		return structure.Atom{}, errors.Newf("cannot derive element from type %q or name %q", fields[5], fields[1])
	}
	atom := structure.Atom{Element: el, Coordinates: xyz, Name: fields[1]}
	if len(fields) > 8 {
		if q, err := strconv.ParseFloat(fields[8], 64); err == nil {
			atom.Charge = q
		}
	}
	return atom, nil
}

// elementOf takes the element from the SYBYL type ("N.pl3" -> "N"), falling
// back to the leading letters of the atom name ("CA12" -> "C").
func elementOf(sybyl, name string) (string, bool) {
	base := sybyl
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if el, ok := structure.ParseElement(base); ok {
		return el, true
	}
	letters := name
	if i := strings.IndexFunc(name, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		letters = name[:i]
	}
	for n := min(2, len(letters)); n > 0; n-- {
		if el, ok := structure.ParseElement(letters[:n]); ok {
			return el, true
		}
	}
	return "", false
}

// parseBond reads "id origin target type".
func parseBond(line string) (structure.Bond, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return structure.Bond{}, errors.Newf("expected 4 fields in bond line %q", line)
	}
	i, err1 := strconv.Atoi(fields[1])
	j, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return structure.Bond{}, errors.Newf("bad bond endpoints in %q", line)
	}
	return structure.Bond{I: i, J: j, Order: structure.ParseBondOrder(fields[3])}, nil
}

// parseCrysin reads "a b c alpha beta gamma space_group setting".
func parseCrysin(line string) (*structure.Cell, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return nil, errors.Newf("expected 6 cell parameters in %q", line)
	}
	var v [6]float64
	for k := 0; k < 6; k++ {
		f, err := strconv.ParseFloat(fields[k], 64)
		if err != nil {
			return nil, errors.Newf("bad cell parameter %q", fields[k])
		}
		v[k] = f
	}
	cell := &structure.Cell{A: v[0], B: v[1], C: v[2], Alpha: v[3], Beta: v[4], Gamma: v[5]}
	if len(fields) > 6 {
		cell.SpaceGroup = fields[6]
	}
	return cell, nil
}

// Check accepts samples containing a Tripos record marker.
func Check(sample []byte) bool {
	return bytes.Contains(sample, []byte(recordMarker))
}
