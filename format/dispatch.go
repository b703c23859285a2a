package format

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/logger"
	"github.com/teranos/structix/structure"
)

// Dispatcher runs the reader of a resolved format and normalizes its output.
type Dispatcher struct {
	registry *Registry
	resolver *Resolver
	log      *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher. A nil resolver gets a default one over
// reg; it is only used by ReadFile.
func NewDispatcher(reg *Registry, resolver *Resolver, log *zap.SugaredLogger) *Dispatcher {
	if resolver == nil {
		resolver = NewResolver(reg, WithResolverLogger(log))
	}
	return &Dispatcher{
		registry: reg,
		resolver: resolver,
		log:      logger.OrNop(log),
	}
}

// Resolver returns the resolver used by ReadFile.
func (d *Dispatcher) Resolver() *Resolver { return d.resolver }

// Registry returns the registry formats are looked up in.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch decodes path with the reader registered for res.ID. Reader
// errors, panics, empty results and records that fail validation all come
// back as *ReaderFailure. Returned records are normalized and carry the
// source path and format id in their metadata.
func (d *Dispatcher) Dispatch(ctx context.Context, res Resolved, path string) ([]*structure.Record, error) {
	desc, err := d.registry.Lookup(res.ID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, d.log)
	start := time.Now()

	records, err := invoke(ctx, desc.Reader, path)
	if err != nil {
		return nil, &ReaderFailure{Format: desc.ID, Path: path, Cause: err}
	}
	if len(records) == 0 {
		return nil, &ReaderFailure{Format: desc.ID, Path: path, Cause: errors.New("no structures decoded")}
	}

	for i, rec := range records {
		if rec == nil {
			return nil, &ReaderFailure{Format: desc.ID, Path: path, Cause: errors.Newf("structure %d is nil", i+1)}
		}
		if err := structure.Normalize(rec); err != nil {
			return nil, &ReaderFailure{Format: desc.ID, Path: path, Cause: errors.Wrapf(err, "structure %d", i+1)}
		}
		if rec.Metadata.Source == "" {
			rec.Metadata.Source = path
		}
		rec.Metadata.Format = desc.ID
	}

	log.Debugw("Decoded structures",
		logger.FieldPath, path,
		logger.FieldFormat, desc.ID,
		logger.FieldProvenance, res.Provenance.String(),
		logger.FieldStructures, len(records),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return records, nil
}

// ReadFile resolves path (honoring an explicit format label) and dispatches
// it. User-facing hints are attached to resolution failures.
func (d *Dispatcher) ReadFile(ctx context.Context, path, explicit string) (Resolved, []*structure.Record, error) {
	res, err := d.resolver.Resolve(ctx, path, explicit)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrUnknownFormat):
			err = errors.WithHint(err, "run `structix formats` to list the registered formats")
		case errors.Is(err, errors.ErrFormatResolution):
			err = errors.WithHint(err, "pass --format to choose a reader")
		}
		return Resolved{}, nil, err
	}
	records, err := d.Dispatch(ctx, res, path)
	return res, records, err
}

// invoke calls the reader, turning a panic into an error.
func invoke(ctx context.Context, r Reader, path string) (records []*structure.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			records = nil
			err = errors.Newf("reader panicked: %s", fmt.Sprint(p))
		}
	}()
	return r.Read(ctx, path)
}
