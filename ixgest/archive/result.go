package archive

import (
	"fmt"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/structure"
)

// MemberError reports one archive member that could not be materialized,
// resolved, decoded or assembled.
type MemberError struct {
	Member string
	Cause  error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("archive member %s: %v", e.Member, e.Cause)
}

func (e *MemberError) Unwrap() error { return e.Cause }

// Is matches errors.ErrArchiveMember; the cause stays reachable through
// Unwrap.
func (e *MemberError) Is(target error) bool { return target == errors.ErrArchiveMember }

// Outcome is the result for one eligible member.
type Outcome struct {
	Member     string               `json:"member"`
	Format     string               `json:"format,omitempty"`
	Provenance format.Provenance    `json:"-"`
	Records    []*structure.Record  `json:"-"`
	Placements []assemble.Placement `json:"placements,omitempty"`
	Err        *MemberError         `json:"-"`
}

// OK reports whether the member was read and assembled.
func (o Outcome) OK() bool { return o.Err == nil }

// Skip names a member left out before reading, with the reason.
type Skip struct {
	Member string `json:"member"`
	Reason string `json:"reason"`
}

// BatchResult aggregates one archive ingestion. Outcomes are in archive
// order; Succeeded never exceeds Scanned.
type BatchResult struct {
	Archive     string         `json:"archive"`
	Compression compress.Codec `json:"compression,omitempty"`
	Scanned     int            `json:"scanned"`
	Succeeded   int            `json:"succeeded"`
	Outcomes    []Outcome      `json:"outcomes"`
	Skipped     []Skip         `json:"skipped,omitempty"`
}

// Failures returns the member errors in archive order.
func (r *BatchResult) Failures() []*MemberError {
	var out []*MemberError
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o.Err)
		}
	}
	return out
}

// Records returns the assembled records of all successful members.
func (r *BatchResult) Records() []*structure.Record {
	var out []*structure.Record
	for _, o := range r.Outcomes {
		out = append(out, o.Records...)
	}
	return out
}

// Atoms returns the total atom count over all assembled records.
func (r *BatchResult) Atoms() int {
	n := 0
	for _, rec := range r.Records() {
		n += rec.NAtoms()
	}
	return n
}
