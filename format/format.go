// Package format maps structure files to the reader that decodes them.
//
// A Registry holds one Descriptor per format id (a lowercase, dot-prefixed
// extension such as ".xyz"). A Resolver picks the id for a file: an explicit
// caller choice wins, then the file suffix (compression markers unwrapped),
// then content sniffing through the registered checkers. A Dispatcher runs
// the chosen reader and normalizes what it returns.
package format

import (
	"context"
	"io"
	"strings"

	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/internal/util"
	"github.com/teranos/structix/structure"
)

// FromExtension is the explicit-format sentinel meaning "decide from the
// file name", matched case-insensitively.
const FromExtension = "from extension"

// Reader decodes one file into zero or more structure records.
type Reader interface {
	Read(ctx context.Context, path string) ([]*structure.Record, error)
}

// Checker reports whether a leading sample of a file looks like its format.
type Checker interface {
	Check(sample []byte) bool
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, path string) ([]*structure.Record, error)

func (f ReaderFunc) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	return f(ctx, path)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(sample []byte) bool

func (f CheckerFunc) Check(sample []byte) bool { return f(sample) }

// Metadata describes a format to callers.
type Metadata struct {
	// SingleStructure is true when files of this format hold one structure.
	SingleStructure bool
	Description     string
	// Requires is a semver constraint on the host version ("" = any).
	Requires string
}

// Descriptor binds a format id to its capabilities. Checker may be nil.
type Descriptor struct {
	ID       string
	Reader   Reader
	Checker  Checker
	Metadata Metadata
}

// NormalizeID brings a caller-supplied format label into id form: first
// whitespace field, lowercased, with a leading dot. ".XYZ (XMOL)" -> ".xyz".
func NormalizeID(label string) string {
	id := strings.ToLower(util.FirstField(label))
	if id == "" {
		return ""
	}
	if !strings.HasPrefix(id, ".") {
		id = "." + id
	}
	return id
}

// IsFromExtension reports whether an explicit label is empty or the
// from-extension sentinel.
func IsFromExtension(label string) bool {
	label = strings.TrimSpace(label)
	return label == "" || strings.EqualFold(label, FromExtension)
}

// Open opens path for a reader, decompressing it when the name ends in a
// compression marker.
func Open(path string) (io.ReadCloser, error) {
	rc, _, err := compress.Open(path)
	return rc, err
}
