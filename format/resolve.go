package format

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/logger"
)

// DefaultSniffBytes bounds how much of a file content sniffing reads.
const DefaultSniffBytes = 64 * 1024

// Provenance records how a format id was chosen.
type Provenance int

const (
	ProvenanceExplicit Provenance = iota + 1
	ProvenanceExtension
	ProvenanceContent
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceExplicit:
		return "explicit"
	case ProvenanceExtension:
		return "extension"
	case ProvenanceContent:
		return "content"
	}
	return "unknown"
}

// Resolved is the outcome of resolution: a registered id, how it was found,
// and the compression wrapper peeled off the file name, if any.
type Resolved struct {
	ID          string
	Provenance  Provenance
	Compression compress.Codec
}

// Resolver chooses the format of a file.
type Resolver struct {
	registry   *Registry
	sniffBytes int
	log        *zap.SugaredLogger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSniffBytes bounds the sample read for content sniffing.
func WithSniffBytes(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.sniffBytes = n
		}
	}
}

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(l *zap.SugaredLogger) ResolverOption {
	return func(r *Resolver) { r.log = logger.OrNop(l) }
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry:   reg,
		sniffBytes: DefaultSniffBytes,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the format id for path. An explicit label other than the
// from-extension sentinel is authoritative and the file is not opened; an
// unregistered explicit id fails with *UnknownFormatError. Otherwise the
// suffix of the base name decides, with one compression marker unwrapped
// (".xyz.gz" -> ".xyz"). A missing or unregistered suffix falls back to
// content sniffing; when no checker accepts the sample the result is a
// *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, path, explicit string) (Resolved, error) {
	log := logger.FromContext(ctx, r.log)

	base := filepath.Base(path)
	if path == "" || base == "." || base == string(filepath.Separator) {
		return Resolved{}, &ResolutionError{Path: path, Reason: "empty file name"}
	}
	inner, codec := compress.SplitSuffix(base)

	if !IsFromExtension(explicit) {
		id := NormalizeID(explicit)
		if !r.registry.Has(id) {
			return Resolved{}, &UnknownFormatError{ID: explicit}
		}
		log.Debugw("Format chosen by caller",
			logger.FieldPath, path,
			logger.FieldFormat, id,
		)
		return Resolved{ID: id, Provenance: ProvenanceExplicit, Compression: codec}, nil
	}

	if ext := strings.ToLower(filepath.Ext(inner)); ext != "" && r.registry.Has(ext) {
		log.Debugw("Format chosen by extension",
			logger.FieldPath, path,
			logger.FieldFormat, ext,
			logger.FieldCompression, codec.String(),
		)
		return Resolved{ID: ext, Provenance: ProvenanceExtension, Compression: codec}, nil
	}

	if err := ctx.Err(); err != nil {
		return Resolved{}, err
	}

	sample, sniffed, err := compress.ReadHead(path, r.sniffBytes)
	if err != nil {
		return Resolved{}, &ResolutionError{Path: path, Reason: "cannot read sample: " + err.Error()}
	}
	codec = sniffed

	id, ok := Sniff(r.registry, sample)
	if !ok {
		return Resolved{}, &ResolutionError{Path: path, Reason: "no extension match and no checker accepted the content"}
	}
	log.Debugw("Format chosen by content",
		logger.FieldPath, path,
		logger.FieldFormat, id,
		logger.FieldCompression, codec.String(),
	)
	return Resolved{ID: id, Provenance: ProvenanceContent, Compression: codec}, nil
}
