package db

import (
	"strings"

	"github.com/teranos/structix/errors"
)

// ErrDatabaseClosed is returned when the catalog is used after Close.
// This typically happens when a watch loop is still recording while the
// command shuts down.
var ErrDatabaseClosed = errors.New("database is closed")

// ErrRunNotFound is returned for operations on an unknown run id.
var ErrRunNotFound = errors.New("ingest run not found")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// This handles both:
// - Wrapped ErrDatabaseClosed errors from this package
// - Raw SQLite/sql driver errors that contain "database is closed" in their message
//
// The string matching fallback is necessary because the underlying sql driver
// returns its own error types that we cannot wrap at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	return strings.Contains(err.Error(), "database is closed")
}
