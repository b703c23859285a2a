// Package xyz reads XMOL XYZ files: an atom count line, a comment line and
// one "element x y z" line per atom, repeated for every frame. XYZ carries
// no bonds; they are perceived from interatomic distances.
package xyz

import (
	"context"
	"strconv"
	"strings"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/internal/lines"
	"github.com/teranos/structix/structure"
)

// ID is the format id.
const ID = ".xyz"

// Options tunes the reader.
type Options struct {
	// BondTolerance scales covalent radii during bond perception;
	// 0 uses structure.DefaultBondTolerance.
	BondTolerance float64
	// SkipBonds leaves records without bonds.
	SkipBonds bool
}

// Reader decodes XYZ files.
type Reader struct {
	opts Options
}

// New creates an XYZ reader.
func New(opts Options) *Reader {
	return &Reader{opts: opts}
}

// Descriptor returns the registry entry for XYZ.
func Descriptor(opts Options) format.Descriptor {
	return format.Descriptor{
		ID:      ID,
		Reader:  New(opts),
		Checker: format.CheckerFunc(Check),
		Metadata: format.Metadata{
			Description: "XMOL XYZ coordinates",
		},
	}
}

// Read decodes every frame of path.
func (r *Reader) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	ls, err := lines.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.Decode(ctx, ls)
}

// Decode parses XYZ text already split into lines.
func (r *Reader) Decode(ctx context.Context, ls []string) ([]*structure.Record, error) {
	var records []*structure.Record
	i := lines.FirstNonBlank(ls, 0)
	for i < len(ls) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, next, err := decodeFrame(ls, i)
		if err != nil {
			return nil, err
		}
		if !r.opts.SkipBonds {
			structure.PerceiveBonds(rec, r.opts.BondTolerance)
		}
		records = append(records, rec)
		i = lines.FirstNonBlank(ls, next)
	}
	return records, nil
}

func decodeFrame(ls []string, start int) (*structure.Record, int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(ls[start]))
	if err != nil || n < 0 {
		return nil, 0, lines.Errorf(start+1, "expected atom count, got %q", strings.TrimSpace(ls[start]))
	}
	if start+1 >= len(ls) {
		return nil, 0, lines.Errorf(start+2, "missing comment line")
	}
	if avail := len(ls) - start - 2; n > avail {
		return nil, 0, lines.Errorf(start+1, "atom count %d exceeds the %d lines that follow", n, avail)
	}
	rec := &structure.Record{
		Atoms: make([]structure.Atom, 0, n),
	}
	rec.Metadata.Name = strings.TrimSpace(ls[start+1])

	for k := 0; k < n; k++ {
		at := start + 2 + k
		if at >= len(ls) {
			return nil, 0, lines.Errorf(at+1, "file ends after %d of %d atoms", k, n)
		}
		atom, err := parseAtom(ls[at])
		if err != nil {
			return nil, 0, lines.Errorf(at+1, "%v", err)
		}
		rec.Atoms = append(rec.Atoms, atom)
	}
	return rec, start + 2 + n, nil
}

func parseAtom(line string) (structure.Atom, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return structure.Atom{}, errors.Newf("expected element and 3 coordinates, got %q", line)
	}
	el, ok := structure.ParseElement(fields[0])
	if !ok {
		return structure.Atom{}, errors.Newf("unknown element %q", fields[0])
	}
	xyz, err := lines.Floats(fields[1:4])
	if err != nil {
		return structure.Atom{}, err
	}
	return structure.Atom{Element: el, Coordinates: xyz}, nil
}

// Check accepts a sample whose first non-blank line is a positive atom
// count followed by a comment line and at least one atom line.
func Check(sample []byte) bool {
	ls := lines.Sample(sample, false)
	i := lines.FirstNonBlank(ls, 0)
	if i >= len(ls) {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(ls[i]))
	if err != nil || n <= 0 {
		return false
	}
	checked := 0
	for k := i + 2; k < len(ls) && checked < n && checked < 5; k++ {
		if _, err := parseAtom(ls[k]); err != nil {
			return false
		}
		checked++
	}
	return checked > 0
}
