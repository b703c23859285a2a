// Package errors provides error handling for structix.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints ("pass --format to override the extension")
//
// Usage:
//
//	// Wrap with context
//	if err := reader.Read(ctx, path); err != nil {
//	    return errors.Wrap(err, "failed to read structure")
//	}
//
//	// Check the error kind
//	if errors.Is(err, errors.ErrUnknownFormat) {
//	    // suggest `structix formats`
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions and panics
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Error kinds of the structure reading pipeline.
// Typed errors in the format, assemble and archive packages unwrap to these,
// so callers can branch with errors.Is without importing those packages.
var (
	// ErrUnknownFormat indicates an explicit or resolved format id is not registered
	ErrUnknownFormat = New("unknown format")

	// ErrFormatResolution indicates neither the extension nor any checker identified the file
	ErrFormatResolution = New("format resolution failed")

	// ErrDuplicateFormat indicates a format id was registered twice during startup
	ErrDuplicateFormat = New("duplicate format")

	// ErrReaderFailure indicates a format reader rejected the file content
	ErrReaderFailure = New("reader failure")

	// ErrIndexRange indicates a structure index selection matched nothing
	ErrIndexRange = New("index range selects no structures")

	// ErrArchiveMember indicates one archive member could not be materialized or decoded
	ErrArchiveMember = New("archive member failed")

	// ErrInvalidRequest indicates caller parameters were malformed
	ErrInvalidRequest = New("invalid request")
)

// IsUserError reports whether err stems from caller input rather than from
// the environment: an unknown or unresolvable format, or a bad parameter.
func IsUserError(err error) bool {
	return err != nil && IsAny(err, ErrUnknownFormat, ErrFormatResolution, ErrIndexRange, ErrInvalidRequest)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
