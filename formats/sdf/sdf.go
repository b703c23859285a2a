// Package sdf reads and writes MDL V2000 molfiles and SD files. An SD file
// is a sequence of molfiles, each followed by optional "> <name>" data
// items and a "$$$$" separator.
package sdf

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats/internal/lines"
	"github.com/teranos/structix/structure"
)

const (
	// ID is the SD file format id.
	ID = ".sdf"
	// MolID is the single-molfile format id.
	MolID = ".mol"

	separator = "$$$$"
	endBlock  = "M  END"
)

// ErrV3000 is returned for extended (V3000) molfiles.
var ErrV3000 = errors.New("V3000 molfiles are not supported")

// Reader decodes SD files and molfiles.
type Reader struct{}

// Descriptor returns the registry entry for SD files.
func Descriptor() format.Descriptor {
	return format.Descriptor{
		ID:      ID,
		Reader:  Reader{},
		Checker: format.CheckerFunc(Check),
		Metadata: format.Metadata{
			Description: "MDL structure data file",
		},
	}
}

// MolDescriptor returns the registry entry for single molfiles. It has no
// checker: sniffed MDL content resolves to .sdf, which reads both.
func MolDescriptor() format.Descriptor {
	return format.Descriptor{
		ID:     MolID,
		Reader: Reader{},
		Metadata: format.Metadata{
			SingleStructure: true,
			Description:     "MDL molfile",
		},
	}
}

// Read decodes every record of path.
func (Reader) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	ls, err := lines.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, ls)
}

// Decode parses SD text already split into lines.
func Decode(ctx context.Context, ls []string) ([]*structure.Record, error) {
	var records []*structure.Record
	i := 0
	for {
		// skip blank lines between records, but not the (possibly blank) header
		for i < len(ls) && strings.TrimSpace(ls[i]) == "" && !looksLikeHeader(ls, i) {
			i++
		}
		if i >= len(ls) {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, next, err := decodeRecord(ls, i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		i = next
	}
	return records, nil
}

// looksLikeHeader reports whether line i starts a molfile with a blank name
// line, i.e. the counts line sits three lines further down.
func looksLikeHeader(ls []string, i int) bool {
	return i+3 < len(ls) && isCountsLine(ls[i+3])
}

func isCountsLine(line string) bool {
	return strings.Contains(line, "V2000") || strings.Contains(line, "V3000")
}

func decodeRecord(ls []string, start int) (*structure.Record, int, error) {
	if start+3 >= len(ls) {
		return nil, 0, lines.Errorf(start+1, "molfile header is truncated")
	}
	rec := &structure.Record{}
	rec.Metadata.Name = strings.TrimSpace(ls[start])
	rec.Metadata.Comment = strings.TrimSpace(ls[start+2])

	countsAt := start + 3
	counts := ls[countsAt]
	if strings.Contains(counts, "V3000") {
		return nil, 0, errors.Wrapf(ErrV3000, "line %d", countsAt+1)
	}
	na, nb, err := parseCounts(counts)
	if err != nil {
		return nil, 0, lines.Errorf(countsAt+1, "%v", err)
	}

	at := countsAt + 1
	if avail := len(ls) - at; na+nb > avail {
		return nil, 0, lines.Errorf(countsAt+1, "counts line announces %d atoms and %d bonds, only %d lines follow", na, nb, avail)
	}
	rec.Atoms = make([]structure.Atom, 0, na)
	for k := 0; k < na; k++ {
		if at >= len(ls) {
			return nil, 0, lines.Errorf(at+1, "file ends after %d of %d atoms", k, na)
		}
		atom, err := parseAtom(ls[at])
		if err != nil {
			return nil, 0, lines.Errorf(at+1, "%v", err)
		}
		rec.Atoms = append(rec.Atoms, atom)
		at++
	}
	for k := 0; k < nb; k++ {
		if at >= len(ls) {
			return nil, 0, lines.Errorf(at+1, "file ends after %d of %d bonds", k, nb)
		}
		bond, err := parseBond(ls[at])
		if err != nil {
			return nil, 0, lines.Errorf(at+1, "%v", err)
		}
		rec.Bonds = append(rec.Bonds, bond)
		at++
	}

	// properties block
	chargesSeen := false
	for ; at < len(ls); at++ {
		line := ls[at]
		if strings.HasPrefix(line, endBlock) {
			at++
			break
		}
		if strings.HasPrefix(line, separator) {
			break
		}
		if strings.HasPrefix(line, "M  CHG") {
			if !chargesSeen {
				// M  CHG supersedes the atom block charge field
				for i := range rec.Atoms {
					rec.Atoms[i].Charge = 0
				}
				chargesSeen = true
			}
			if err := applyCharges(rec, line); err != nil {
				return nil, 0, lines.Errorf(at+1, "%v", err)
			}
		}
	}

	// data items
	for at < len(ls) {
		line := ls[at]
		if strings.HasPrefix(line, separator) {
			at++
			break
		}
		if strings.HasPrefix(line, ">") {
			name := dataItemName(line)
			var value []string
			at++
			for at < len(ls) && strings.TrimSpace(ls[at]) != "" && !strings.HasPrefix(ls[at], separator) {
				value = append(value, ls[at])
				at++
			}
			if name != "" {
				if rec.Metadata.Properties == nil {
					rec.Metadata.Properties = make(map[string]string)
				}
				rec.Metadata.Properties[name] = strings.Join(value, "\n")
			}
			continue
		}
		at++
	}

	setTotalCharge(rec)
	return rec, at, nil
}

func parseCounts(line string) (int, int, error) {
	na, errA := strconv.Atoi(lines.Column(line, 1, 3))
	nb, errB := strconv.Atoi(lines.Column(line, 4, 6))
	if errA != nil || errB != nil {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, 0, errors.Newf("bad counts line %q", line)
		}
		var err error
		if na, err = strconv.Atoi(fields[0]); err != nil {
			return 0, 0, errors.Newf("bad atom count %q", fields[0])
		}
		if nb, err = strconv.Atoi(fields[1]); err != nil {
			return 0, 0, errors.Newf("bad bond count %q", fields[1])
		}
	}
	if na < 0 || nb < 0 {
		return 0, 0, errors.Newf("negative counts in %q", line)
	}
	return na, nb, nil
}

// chargeCodes maps the atom block charge field to formal charges.
var chargeCodes = map[int]float64{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func parseAtom(line string) (structure.Atom, error) {
	xyz, err := lines.Floats([]string{
		lines.Column(line, 1, 10),
		lines.Column(line, 11, 20),
		lines.Column(line, 21, 30),
	})
	symbol := lines.Column(line, 32, 34)
	chargeField := lines.Column(line, 37, 39)
	if err != nil {
		// not fixed width: fall back to whitespace fields
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return structure.Atom{}, errors.Newf("bad atom line %q", line)
		}
		if xyz, err = lines.Floats(fields[:3]); err != nil {
			return structure.Atom{}, err
		}
		symbol = fields[3]
		chargeField = ""
		if len(fields) > 5 {
			chargeField = fields[5]
		}
	}
	el, ok := structure.ParseElement(symbol)
	if !ok {
		return structure.Atom{}, errors.Newf("unknown element %q", symbol)
	}
	atom := structure.Atom{Element: el, Coordinates: xyz}
	if code, err := strconv.Atoi(chargeField); err == nil {
		atom.Charge = chargeCodes[code]
	}
	return atom, nil
}

func parseBond(line string) (structure.Bond, error) {
	i, errI := strconv.Atoi(lines.Column(line, 1, 3))
	j, errJ := strconv.Atoi(lines.Column(line, 4, 6))
	t, errT := strconv.Atoi(lines.Column(line, 7, 9))
	if errI != nil || errJ != nil || errT != nil {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return structure.Bond{}, errors.Newf("bad bond line %q", line)
		}
		var err error
		if i, err = strconv.Atoi(fields[0]); err != nil {
			return structure.Bond{}, errors.Newf("bad bond line %q", line)
		}
		if j, err = strconv.Atoi(fields[1]); err != nil {
			return structure.Bond{}, errors.Newf("bad bond line %q", line)
		}
		if t, err = strconv.Atoi(fields[2]); err != nil {
			return structure.Bond{}, errors.Newf("bad bond line %q", line)
		}
	}
	order := structure.BondUnknown
	if t >= 1 && t <= 4 {
		order = structure.ParseBondOrder(strconv.Itoa(t))
	}
	return structure.Bond{I: i, J: j, Order: order}, nil
}

// applyCharges reads "M  CHGnn8 aaa vvv ..." pairs.
func applyCharges(rec *structure.Record, line string) error {
	fields := strings.Fields(line[len("M  CHG"):])
	if len(fields) == 0 {
		return errors.Newf("empty charge line")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || len(fields) < 1+2*n {
		return errors.Newf("bad charge line %q", line)
	}
	for k := 0; k < n; k++ {
		idx, err1 := strconv.Atoi(fields[1+2*k])
		val, err2 := strconv.Atoi(fields[2+2*k])
		if err1 != nil || err2 != nil || idx < 1 || idx > len(rec.Atoms) {
			return errors.Newf("bad charge entry in %q", line)
		}
		rec.Atoms[idx-1].Charge = float64(val)
	}
	return nil
}

func setTotalCharge(rec *structure.Record) {
	total := 0.0
	charged := false
	for _, a := range rec.Atoms {
		if a.Charge != 0 {
			charged = true
			total += a.Charge
		}
	}
	if charged {
		q := int(math.Round(total))
		rec.Metadata.Charge = &q
	}
}

// dataItemName extracts NAME from a "> <NAME>" or ">  <NAME> (id)" header.
func dataItemName(line string) string {
	open := strings.Index(line, "<")
	if open < 0 {
		return ""
	}
	end := strings.Index(line[open:], ">")
	if end < 0 {
		return ""
	}
	return line[open+1 : open+end]
}

// Check accepts samples with a V2000/V3000 counts line on line four, an
// "M  END" line or a "$$$$" separator.
func Check(sample []byte) bool {
	ls := lines.Sample(sample, false)
	if len(ls) > 3 && isCountsLine(ls[3]) {
		return true
	}
	for _, line := range ls {
		if strings.HasPrefix(line, endBlock) || strings.TrimSpace(line) == separator {
			return true
		}
	}
	return false
}
