package format

import (
	"fmt"

	"github.com/teranos/structix/errors"
)

// UnknownFormatError reports a format id with no registered descriptor.
type UnknownFormatError struct {
	ID string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q", e.ID)
}

func (e *UnknownFormatError) Unwrap() error { return errors.ErrUnknownFormat }

// ResolutionError reports that no format could be determined for a path.
type ResolutionError struct {
	Path   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot determine format of %q: %s", e.Path, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return errors.ErrFormatResolution }

// ReaderFailure reports a reader that failed on, panicked on, or returned
// unusable records for a file.
type ReaderFailure struct {
	Format string
	Path   string
	Cause  error
}

func (e *ReaderFailure) Error() string {
	return fmt.Sprintf("%s reader failed on %q: %v", e.Format, e.Path, e.Cause)
}

func (e *ReaderFailure) Unwrap() error { return e.Cause }

// Is matches errors.ErrReaderFailure; the cause stays reachable via Unwrap.
func (e *ReaderFailure) Is(target error) bool { return target == errors.ErrReaderFailure }
