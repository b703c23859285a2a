// Package pdb reads Protein Data Bank files: ATOM/HETATM coordinate records,
// CONECT connectivity, MODEL/ENDMDL frames and the CRYST1 cell.
package pdb

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/internal/lines"
	"github.com/teranos/structix/structure"
)

const (
	// ID is the format id.
	ID = ".pdb"
	// EntID is the alternate suffix used by the PDB archive.
	EntID = ".ent"
)

// Options tunes the reader.
type Options struct {
	// BondTolerance is used when a frame has no CONECT records.
	BondTolerance float64
}

// Reader decodes PDB files.
type Reader struct {
	opts Options
}

// New creates a PDB reader.
func New(opts Options) *Reader {
	return &Reader{opts: opts}
}

// Descriptor returns the registry entry for .pdb.
func Descriptor(opts Options) format.Descriptor {
	return format.Descriptor{
		ID:      ID,
		Reader:  New(opts),
		Checker: format.CheckerFunc(Check),
		Metadata: format.Metadata{
			Description: "Protein Data Bank",
		},
	}
}

// EntDescriptor returns the registry entry for .ent, sharing the reader.
func EntDescriptor(opts Options) format.Descriptor {
	return format.Descriptor{
		ID:     EntID,
		Reader: New(opts),
		Metadata: format.Metadata{
			Description: "Protein Data Bank (archive entry)",
		},
	}
}

// Read decodes every model of path.
func (r *Reader) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	ls, err := lines.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.Decode(ctx, ls)
}

type frame struct {
	rec *structure.Record
	// serial number -> 1-based atom index
	serials map[int]int
}

func newFrame() *frame {
	return &frame{rec: &structure.Record{}, serials: make(map[int]int)}
}

// Decode parses PDB text already split into lines.
func (r *Reader) Decode(ctx context.Context, ls []string) ([]*structure.Record, error) {
	var (
		frames  []*frame
		cur     *frame
		name    string
		cell    *structure.Cell
		conect  = make(map[[2]int]int) // serial pair -> max directional count
		inModel bool
	)
	current := func() *frame {
		if cur == nil {
			cur = newFrame()
			frames = append(frames, cur)
		}
		return cur
	}

	for n, line := range ls {
		record := strings.ToUpper(lines.Column(line, 1, 6))
		switch record {
		case "MODEL":
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if cur == nil || len(cur.rec.Atoms) > 0 {
				cur = newFrame()
				frames = append(frames, cur)
			}
			inModel = true
		case "ENDMDL":
			if inModel {
				cur = nil
				inModel = false
			}
		case "ATOM", "HETATM":
			atom, serial, err := parseAtom(line)
			if err != nil {
				return nil, lines.Errorf(n+1, "%v", err)
			}
			f := current()
			f.rec.Atoms = append(f.rec.Atoms, atom)
			f.serials[serial] = len(f.rec.Atoms)
		case "CONECT":
			if err := parseConect(line, conect); err != nil {
				return nil, lines.Errorf(n+1, "%v", err)
			}
		case "CRYST1":
			c, err := parseCryst1(line)
			if err != nil {
				return nil, lines.Errorf(n+1, "%v", err)
			}
			cell = c
		case "COMPND", "TITLE":
			if name == "" {
				name = compoundName(line)
			}
		case "END":
			// END closes the file; anything after it is ignored
			if len(frames) > 0 {
				return r.finish(frames, name, cell, conect), nil
			}
		}
	}
	if len(frames) == 0 {
		return nil, errors.New("no ATOM or HETATM records")
	}
	return r.finish(frames, name, cell, conect), nil
}

func (r *Reader) finish(frames []*frame, name string, cell *structure.Cell, conect map[[2]int]int) []*structure.Record {
	out := make([]*structure.Record, 0, len(frames))
	for k, f := range frames {
		if len(f.rec.Atoms) == 0 {
			continue
		}
		rec := f.rec
		rec.Metadata.Name = name
		if len(frames) > 1 {
			rec.Metadata.Properties = map[string]string{"model": strconv.Itoa(k + 1)}
		}
		if cell != nil {
			c := *cell
			rec.Cell = &c
		}
		applyConect(f, conect)
		if len(rec.Bonds) == 0 {
			structure.PerceiveBonds(rec, r.opts.BondTolerance)
		}
		out = append(out, rec)
	}
	return out
}

// parseAtom reads the fixed-column ATOM/HETATM layout.
func parseAtom(line string) (structure.Atom, int, error) {
	serial, err := strconv.Atoi(lines.Column(line, 7, 11))
	if err != nil {
		return structure.Atom{}, 0, errors.Newf("bad atom serial %q", lines.Column(line, 7, 11))
	}
	xyz, err := lines.Floats([]string{
		lines.Column(line, 31, 38),
		lines.Column(line, 39, 46),
		lines.Column(line, 47, 54),
	})
	if err != nil {
		return structure.Atom{}, 0, err
	}
	name := lines.Column(line, 13, 16)
	el, ok := structure.ParseElement(lines.Column(line, 77, 78))
	if !ok {
		el, ok = elementFromName(line)
	}
	if !ok {
		return structure.Atom{}, 0, errors.Newf("cannot derive element of atom %q", name)
	}
	atom := structure.Atom{Element: el, Coordinates: xyz, Name: name}
	if q := lines.Column(line, 79, 80); q != "" {
		atom.Charge = formalCharge(q)
	}
	return atom, serial, nil
}

// elementFromName applies the PDB naming convention: the element occupies
// columns 13-14, right justified, so " CA " is carbon and "CA  " calcium.
func elementFromName(line string) (string, bool) {
	raw := line
	if len(raw) < 16 {
		raw += strings.Repeat(" ", 16-len(raw))
	}
	two := raw[12:14]
	if two[0] == ' ' || unicode.IsDigit(rune(two[0])) {
		return structure.ParseElement(strings.TrimSpace(two[1:]))
	}
	if el, ok := structure.ParseElement(strings.TrimSpace(two)); ok && !unicode.IsLetter(rune(raw[14])) {
		return el, true
	}
	return structure.ParseElement(two[:1])
}

// formalCharge reads the "2+" / "1-" charge field.
func formalCharge(s string) float64 {
	if len(s) != 2 {
		return 0
	}
	v, err := strconv.Atoi(s[:1])
	if err != nil {
		return 0
	}
	if s[1] == '-' {
		return -float64(v)
	}
	return float64(v)
}

// parseConect records each serial pair once per occurrence on this line.
// A pair listed k times in one direction is a bond of order k; the larger
// count of the two directions wins.
func parseConect(line string, conect map[[2]int]int) error {
	from, err := strconv.Atoi(lines.Column(line, 7, 11))
	if err != nil {
		return errors.Newf("bad CONECT serial %q", lines.Column(line, 7, 11))
	}
	counts := make(map[int]int)
	// columns 12-31 hold bonded partners; later columns are hydrogen bonds
	for col := 12; col <= 27; col += 5 {
		field := lines.Column(line, col, col+4)
		if field == "" {
			continue
		}
		to, err := strconv.Atoi(field)
		if err != nil {
			return errors.Newf("bad CONECT partner %q", field)
		}
		counts[to]++
	}
	for to, c := range counts {
		key := [2]int{min(from, to), max(from, to)}
		if c > conect[key] {
			conect[key] = c
		}
	}
	return nil
}

func applyConect(f *frame, conect map[[2]int]int) {
	for pair, count := range conect {
		i, iok := f.serials[pair[0]]
		j, jok := f.serials[pair[1]]
		if !iok || !jok || i == j {
			continue
		}
		order := structure.BondSingle
		switch {
		case count >= 3:
			order = structure.BondTriple
		case count == 2:
			order = structure.BondDouble
		}
		f.rec.AddBond(min(i, j), max(i, j), order)
	}
	sortBonds(f.rec.Bonds)
}

func parseCryst1(line string) (*structure.Cell, error) {
	var v [6]float64
	cols := [6][2]int{{7, 15}, {16, 24}, {25, 33}, {34, 40}, {41, 47}, {48, 54}}
	for k, c := range cols {
		f, err := strconv.ParseFloat(lines.Column(line, c[0], c[1]), 64)
		if err != nil {
			return nil, errors.Newf("bad CRYST1 field %q", lines.Column(line, c[0], c[1]))
		}
		v[k] = f
	}
	return &structure.Cell{
		A: v[0], B: v[1], C: v[2],
		Alpha: v[3], Beta: v[4], Gamma: v[5],
		SpaceGroup: lines.Column(line, 56, 66),
	}, nil
}

func compoundName(line string) string {
	text := strings.TrimSpace(lines.Column(line, 11, len(line)))
	if strings.HasPrefix(text, "MOL_ID") {
		return ""
	}
	text = strings.TrimPrefix(text, "MOLECULE:")
	return strings.TrimSpace(strings.TrimSuffix(text, ";"))
}

// Check accepts samples where most non-blank lines start with a PDB record
// name and at least one is an ATOM or HETATM record.
func Check(sample []byte) bool {
	ls := lines.Sample(sample, false)
	known, total, atoms := 0, 0, 0
	for _, line := range ls {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		record := strings.ToUpper(lines.Column(line, 1, 6))
		if _, ok := recordNames[record]; ok {
			known++
			if record == "ATOM" || record == "HETATM" {
				if _, _, err := parseAtom(line); err != nil {
					return false
				}
				atoms++
			}
		}
	}
	return atoms > 0 && known*10 >= total*9
}

var recordNames = map[string]struct{}{
	"HEADER": {}, "TITLE": {}, "COMPND": {}, "SOURCE": {}, "KEYWDS": {}, "EXPDTA": {},
	"AUTHOR": {}, "REVDAT": {}, "JRNL": {}, "REMARK": {}, "SEQRES": {}, "HET": {},
	"HETNAM": {}, "FORMUL": {}, "HELIX": {}, "SHEET": {}, "CRYST1": {}, "ORIGX1": {},
	"ORIGX2": {}, "ORIGX3": {}, "SCALE1": {}, "SCALE2": {}, "SCALE3": {}, "MODEL": {},
	"ATOM": {}, "HETATM": {}, "ANISOU": {}, "TER": {}, "ENDMDL": {}, "CONECT": {},
	"MASTER": {}, "END": {}, "LINK": {}, "SSBOND": {}, "CISPEP": {}, "SITE": {},
	"DBREF": {}, "SEQADV": {}, "MODRES": {}, "HETSYN": {}, "NUMMDL": {}, "SPLIT": {},
	"CAVEAT": {}, "OBSLTE": {}, "SPRSDE": {}, "MDLTYP": {},
}

func sortBonds(bonds []structure.Bond) {
	sort.Slice(bonds, func(a, b int) bool {
		if bonds[a].I != bonds[b].I {
			return bonds[a].I < bonds[b].I
		}
		return bonds[a].J < bonds[b].J
	})
}
