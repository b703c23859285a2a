// Package structure defines the canonical in-memory molecular structure
// record produced by every format reader: ordered atoms with coordinates,
// 1-based bonds with order labels, optional periodic cell and metadata.
//
// Records are created by readers, normalized once by the dispatcher, and
// owned by the caller afterwards.
package structure
