// Package lines holds the line-oriented helpers shared by the text format
// readers.
package lines

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
)

const maxLine = 1 << 20

// Read returns the lines of path, decompressing it if needed. Line endings
// are stripped, including a trailing carriage return.
func Read(ctx context.Context, path string) ([]string, error) {
	rc, err := format.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []string
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		if len(out)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out = append(out, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return out, nil
}

// Sample splits a sniffing sample into lines. A final line without a
// newline is dropped when the sample was cut at the sniff limit, because it
// may be incomplete; pass complete=true when the sample is the whole file.
func Sample(sample []byte, complete bool) []string {
	text := string(sample)
	parts := strings.Split(text, "\n")
	if !complete && !strings.HasSuffix(text, "\n") && len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, "\r")
	}
	return parts
}

// FirstNonBlank returns the index of the first non-blank line at or after
// start, or len(ls).
func FirstNonBlank(ls []string, start int) int {
	for start < len(ls) && strings.TrimSpace(ls[start]) == "" {
		start++
	}
	return start
}

// Column returns the 1-based inclusive column range [from, to] of line,
// trimmed. Short lines yield what is there.
func Column(line string, from, to int) string {
	if from < 1 {
		from = 1
	}
	if from > len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from-1 : to])
}

// Floats parses three coordinates.
func Floats(fields []string) ([3]float64, error) {
	var xyz [3]float64
	if len(fields) < 3 {
		return xyz, errors.Newf("expected 3 coordinates, got %d", len(fields))
	}
	for k := 0; k < 3; k++ {
		v, err := strconv.ParseFloat(fields[k], 64)
		if err != nil {
			return xyz, errors.Newf("bad coordinate %q", fields[k])
		}
		xyz[k] = v
	}
	return xyz, nil
}

// IsFloat reports whether s parses as a float.
func IsFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Errorf builds a decode error tagged with a 1-based line number.
func Errorf(line int, format string, args ...interface{}) error {
	return errors.Newf("line %d: %s", line, fmt.Sprintf(format, args...))
}
