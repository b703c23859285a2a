package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/structix/errors"
)

// AllIndices selects every structure.
const AllIndices = "1:end"

// ErrInvalidIndices reports index text that does not follow the grammar.
var ErrInvalidIndices = errors.Wrap(errors.ErrInvalidRequest, "invalid indices")

// IndexRangeError reports a selection that matches none of the structures
// actually present.
type IndexRangeError struct {
	Indices string
	Count   int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("indices %q select none of the %d structures", e.Indices, e.Count)
}

func (e *IndexRangeError) Unwrap() error { return errors.ErrIndexRange }

// end marks an open upper bound.
const end = -1

type span struct {
	from, to, step int
}

// Selection is a parsed index expression: comma-separated items, each a
// 1-based index ("7"), an inclusive range ("3:4", "1:end") or a stepped range
// ("2:end:2"). "end" names the last structure.
type Selection struct {
	text  string
	spans []span
}

// ParseIndices parses an index expression. Blank text selects everything.
func ParseIndices(text string) (Selection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = AllIndices
	}
	sel := Selection{text: text}
	for _, item := range strings.Split(text, ",") {
		sp, err := parseSpan(strings.TrimSpace(item))
		if err != nil {
			return Selection{}, errors.Wrapf(ErrInvalidIndices, "%q: %s", text, err)
		}
		sel.spans = append(sel.spans, sp)
	}
	return sel, nil
}

// MustParseIndices is ParseIndices for literals; it panics on bad text.
func MustParseIndices(text string) Selection {
	sel, err := ParseIndices(text)
	if err != nil {
		panic(err)
	}
	return sel
}

func parseSpan(item string) (span, error) {
	if item == "" {
		return span{}, errors.New("empty item")
	}
	parts := strings.Split(item, ":")
	switch len(parts) {
	case 1:
		n, err := bound(parts[0], 0)
		if err != nil {
			return span{}, err
		}
		return span{from: n, to: n, step: 1}, nil
	case 2, 3:
		from, err := bound(parts[0], 1)
		if err != nil {
			return span{}, err
		}
		to, err := bound(parts[1], end)
		if err != nil {
			return span{}, err
		}
		step := 1
		if len(parts) == 3 {
			step, err = strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil || step < 1 {
				return span{}, errors.Newf("bad step %q", parts[2])
			}
		}
		if from != end && to != end && to < from {
			return span{}, errors.Newf("range %q runs backwards", item)
		}
		return span{from: from, to: to, step: step}, nil
	default:
		return span{}, errors.Newf("too many ':' in %q", item)
	}
}

// bound parses one side of a range; blank text yields def.
func bound(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" && def != 0:
		return def, nil
	case strings.EqualFold(s, "end"):
		return end, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.Newf("bad index %q", s)
	}
	return n, nil
}

// String returns the expression as given.
func (s Selection) String() string { return s.text }

// Resolve returns the selected 0-based positions among n structures, in
// expression order without repeats. Indices past n are ignored; when nothing
// remains the result is an *IndexRangeError.
func (s Selection) Resolve(n int) ([]int, error) {
	var out []int
	seen := make(map[int]bool)
	for _, sp := range s.spans {
		from, to := sp.from, sp.to
		if from == end {
			from = n
		}
		if to == end || to > n {
			to = n
		}
		for i := from; i <= to; i += sp.step {
			if i < 1 || seen[i] {
				continue
			}
			seen[i] = true
			out = append(out, i-1)
		}
	}
	if len(out) == 0 {
		return nil, &IndexRangeError{Indices: s.text, Count: n}
	}
	return out, nil
}

// All reports whether the selection is the default "1:end".
func (s Selection) All() bool {
	return len(s.spans) == 1 && s.spans[0] == span{from: 1, to: end, step: 1}
}
