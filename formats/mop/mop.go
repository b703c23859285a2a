// Package mop reads MOPAC input files: keyword line(s), two description
// lines and the geometry, given either as Cartesian coordinates or as
// internal coordinates (a Z-matrix).
package mop

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/internal/lines"
	"github.com/teranos/structix/structure"
)

// ID is the format id.
const ID = ".mop"

// Options tunes the reader.
type Options struct {
	BondTolerance float64
}

// Reader decodes MOPAC input files.
type Reader struct {
	opts Options
}

// New creates a MOPAC reader.
func New(opts Options) *Reader {
	return &Reader{opts: opts}
}

// Descriptor returns the registry entry for MOPAC input.
func Descriptor(opts Options) format.Descriptor {
	return format.Descriptor{
		ID:      ID,
		Reader:  New(opts),
		Checker: format.CheckerFunc(Check),
		Metadata: format.Metadata{
			SingleStructure: true,
			Description:     "MOPAC input",
		},
	}
}

// Read decodes the structure of path.
func (r *Reader) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	ls, err := lines.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	rec, err := r.Decode(ls)
	if err != nil {
		return nil, err
	}
	return []*structure.Record{rec}, nil
}

// Decode parses MOPAC input already split into lines.
func (r *Reader) Decode(ls []string) (*structure.Record, error) {
	if len(ls) == 0 {
		return nil, errors.New("empty file")
	}

	keywords := tokens(ls[0])
	at := 1
	descLines := 2
	for at < len(ls) && len(keywords) > 0 {
		last := keywords[len(keywords)-1]
		if last != "&" && last != "+" {
			break
		}
		if last == "&" {
			descLines--
		}
		keywords = append(keywords[:len(keywords)-1], tokens(ls[at])...)
		at++
	}

	rec := &structure.Record{}
	applyKeywords(rec, keywords)

	var desc []string
	for k := 0; k < descLines && at < len(ls); k++ {
		desc = append(desc, strings.TrimSpace(ls[at]))
		at++
	}
	if len(desc) > 0 {
		rec.Metadata.Name = desc[0]
	}
	if len(desc) > 1 {
		rec.Metadata.Comment = desc[1]
	}

	var geometry []string
	geometryStart := at
	for ; at < len(ls); at++ {
		if strings.TrimSpace(ls[at]) == "" {
			break
		}
		geometry = append(geometry, ls[at])
	}
	if len(geometry) == 0 {
		return nil, lines.Errorf(geometryStart+1, "no geometry")
	}

	var err error
	if isInternal(geometry[0]) {
		rec.Atoms, err = decodeInternal(geometry, geometryStart)
	} else {
		rec.Atoms, err = decodeCartesian(geometry, geometryStart)
	}
	if err != nil {
		return nil, err
	}
	if len(rec.Atoms) == 0 {
		return nil, lines.Errorf(geometryStart+1, "geometry has only dummy atoms")
	}

	structure.PerceiveBonds(rec, r.opts.BondTolerance)
	return rec, nil
}

func tokens(line string) []string {
	return strings.Fields(line)
}

// stem reduces a keyword token to its name: "CHARGE=-1" -> "CHARGE".
func stem(token string) string {
	token = strings.ToUpper(token)
	if i := strings.IndexAny(token, "=("); i > 0 {
		token = token[:i]
	}
	return token
}

func applyKeywords(rec *structure.Record, keywords []string) {
	for _, kw := range keywords {
		upper := strings.ToUpper(kw)
		if strings.HasPrefix(upper, "CHARGE=") {
			if q, err := strconv.Atoi(strings.TrimPrefix(upper, "CHARGE=")); err == nil {
				rec.Metadata.Charge = &q
			}
			continue
		}
		if m, ok := multiplicities[upper]; ok {
			rec.Metadata.Multiplicity = &m
		}
	}
	if len(keywords) > 0 {
		if rec.Metadata.Properties == nil {
			rec.Metadata.Properties = make(map[string]string)
		}
		rec.Metadata.Properties["keywords"] = strings.Join(keywords, " ")
	}
}

// isInternal reports whether a geometry line is a Z-matrix line: ten
// fields ending in three integer connectivity indices.
func isInternal(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return false
	}
	for _, f := range fields[7:10] {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

// label maps an atom label ("C1", "H(methyl)", "XX") to an element; dummy
// atoms report ok=false with dummy=true.
func label(s string) (el string, dummy bool, ok bool) {
	letters := s
	if i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		letters = s[:i]
	}
	switch strings.ToUpper(letters) {
	case "X", "XX":
		return "", true, false
	case "TV":
		return "", true, false
	}
	if el, ok := structure.ParseElement(letters); ok {
		return el, false, true
	}
	if el, ok := structure.ParseElement(s); ok {
		return el, false, true
	}
	return "", false, false
}

func decodeCartesian(geometry []string, offset int) ([]structure.Atom, error) {
	atoms := make([]structure.Atom, 0, len(geometry))
	for k, line := range geometry {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, lines.Errorf(offset+k+1, "expected an atom and 3 coordinates, got %q", line)
		}
		coords := []string{fields[1], fields[2], fields[3]}
		if len(fields) >= 7 {
			coords = []string{fields[1], fields[3], fields[5]}
		}
		xyz, err := lines.Floats(coords)
		if err != nil {
			return nil, lines.Errorf(offset+k+1, "%v", err)
		}
		el, dummy, ok := label(fields[0])
		if dummy {
			continue
		}
		if !ok {
			return nil, lines.Errorf(offset+k+1, "unknown atom label %q", fields[0])
		}
		atoms = append(atoms, structure.Atom{Element: el, Coordinates: xyz})
	}
	return atoms, nil
}

// decodeInternal converts a Z-matrix to Cartesian coordinates. Each line is
// "label r flag theta flag phi flag na nb nc"; distances in Angstrom,
// angles in degrees. Zero references take the MOPAC defaults (the previous
// atoms). Dummy atoms take part in the construction and are dropped after.
func decodeInternal(geometry []string, offset int) ([]structure.Atom, error) {
	pos := make([][3]float64, 0, len(geometry))
	var atoms []structure.Atom
	for k, line := range geometry {
		n := k + 1
		fields := strings.Fields(line)
		if len(fields) < 10 {
			return nil, lines.Errorf(offset+n, "expected 10 fields in Z-matrix line %q", line)
		}
		var v [3]float64
		for i, f := range []string{fields[1], fields[3], fields[5]} {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, lines.Errorf(offset+n, "bad internal coordinate %q", f)
			}
			v[i] = x
		}
		var ref [3]int
		for i, f := range fields[7:10] {
			x, err := strconv.Atoi(f)
			if err != nil || x < 0 || x >= n {
				return nil, lines.Errorf(offset+n, "bad reference atom %q", f)
			}
			if x == 0 {
				x = n - 1 - i
			}
			ref[i] = x
		}

		var p [3]float64
		switch n {
		case 1:
		case 2:
			a := pos[ref[0]-1]
			p = [3]float64{a[0] + v[0], a[1], a[2]}
		case 3:
			p = place3(pos[ref[0]-1], pos[ref[1]-1], v[0], v[1])
		default:
			p = placeNeRF(pos[ref[0]-1], pos[ref[1]-1], pos[ref[2]-1], v[0], v[1], v[2])
		}
		pos = append(pos, p)

		el, dummy, ok := label(fields[0])
		if dummy {
			continue
		}
		if !ok {
			return nil, lines.Errorf(offset+n, "unknown atom label %q", fields[0])
		}
		atoms = append(atoms, structure.Atom{Element: el, Coordinates: p})
	}
	return atoms, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// place3 puts the third atom in the xy plane, bonded to a at distance r
// with angle theta to b.
func place3(a, b [3]float64, r, theta float64) [3]float64 {
	u := normalize(sub(b, a))
	v := [3]float64{-u[1], u[0], 0}
	if norm(v) < 1e-8 {
		v = [3]float64{0, 1, 0}
	}
	v = normalize(v)
	t := radians(theta)
	return add(a, add(scale(u, r*math.Cos(t)), scale(v, r*math.Sin(t))))
}

// placeNeRF places an atom bonded to a at distance r, with angle theta to b
// and dihedral phi to c.
func placeNeRF(a, b, c [3]float64, r, theta, phi float64) [3]float64 {
	bc := normalize(sub(a, b))
	n := normalize(cross(sub(b, c), bc))
	m := cross(n, bc)
	t, p := radians(theta), radians(phi)
	d := [3]float64{-r * math.Cos(t), r * math.Sin(t) * math.Cos(p), r * math.Sin(t) * math.Sin(p)}
	return add(a, add(scale(bc, d[0]), add(scale(m, d[1]), scale(n, d[2]))))
}

func add(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
func norm(a [3]float64) float64 { return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2]) }
func normalize(a [3]float64) [3]float64 {
	l := norm(a)
	if l == 0 {
		return a
	}
	return scale(a, 1/l)
}
func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

// Check accepts a sample whose first line consists only of MOPAC keywords.
func Check(sample []byte) bool {
	ls := lines.Sample(sample, false)
	if len(ls) == 0 {
		return false
	}
	toks := tokens(ls[0])
	if len(toks) == 0 {
		return false
	}
	for _, tok := range toks {
		if tok == "&" || tok == "+" {
			continue
		}
		if _, ok := keywordStems[stem(tok)]; !ok {
			return false
		}
	}
	return true
}
