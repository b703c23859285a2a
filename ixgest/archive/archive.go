// Package archive reads every structure file in a tar archive, one member
// at a time, without letting a bad member stop the batch.
package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/ixgest/progress"
	"github.com/teranos/structix/logger"
)

// aliases are single suffixes naming a compressed tar.
var aliases = map[string]compress.Codec{
	".tgz":  compress.Gzip,
	".taz":  compress.Gzip,
	".tbz":  compress.Bzip2,
	".tbz2": compress.Bzip2,
	".txz":  compress.XZ,
	".tzst": compress.Zstd,
	".tlz4": compress.LZ4,
}

// skipDirs are directory names whose contents are never structures.
var skipDirs = map[string]bool{
	"__MACOSX": true,
}

// IsArchive reports whether path names a tar archive: ".tar" appears among
// its suffixes ("batch.tar", "batch.tar.gz") or it ends in a compressed-tar
// alias such as ".tgz".
func IsArchive(p string) bool {
	base := strings.ToLower(filepath.Base(p))
	if _, ok := aliases[filepath.Ext(base)]; ok {
		return true
	}
	parts := strings.Split(base, ".")
	for _, s := range parts[1:] {
		if s == "tar" {
			return true
		}
	}
	return false
}

// Options control one Ingest call.
type Options struct {
	// ExplicitFormat, when set, reads every member with this format and
	// skips members whose own suffix names a different one.
	ExplicitFormat string

	Policy assemble.Policy

	// Target receives the assembled structures; nil skips placement.
	Target *assemble.Target
}

// Ingestor streams archives through a dispatcher and an assembler.
type Ingestor struct {
	dispatcher *format.Dispatcher
	assembler  *assemble.Assembler
	progress   progress.Emitter
	tempDir    string
	log        *zap.SugaredLogger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithProgress reports per-member progress to e.
func WithProgress(e progress.Emitter) Option {
	return func(i *Ingestor) { i.progress = progress.OrNop(e) }
}

// WithTempDir sets the parent of the per-call workspace; empty means the
// system default.
func WithTempDir(dir string) Option {
	return func(i *Ingestor) { i.tempDir = dir }
}

// NewIngestor creates an ingestor. A nil assembler keeps every structure
// without placement.
func NewIngestor(d *format.Dispatcher, a *assemble.Assembler, log *zap.SugaredLogger, opts ...Option) *Ingestor {
	if a == nil {
		a = assemble.NewAssembler(nil, log)
	}
	i := &Ingestor{
		dispatcher: d,
		assembler:  a,
		progress:   progress.Nop{},
		log:        logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest reads the archive at archivePath member by member. Failures of a
// member are recorded in the result and do not stop the batch. The error is
// non-nil only when the archive cannot be opened, the workspace cannot be
// created, the tar stream itself is corrupt, or ctx is done; in the last two
// cases the result so far is returned with it. A member interrupted by ctx
// is neither scanned nor recorded.
func (i *Ingestor) Ingest(ctx context.Context, archivePath string, opts Options) (*BatchResult, error) {
	log := logger.FromContext(ctx, i.log).With(logger.FieldArchive, archivePath)
	start := time.Now()

	rc, codec, err := open(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", archivePath)
	}
	defer rc.Close()

	workspace, err := os.MkdirTemp(i.tempDir, "structix-archive-*")
	if err != nil {
		return nil, errors.Wrap(err, "create archive workspace")
	}
	defer os.RemoveAll(workspace)

	explicit := ""
	if !format.IsFromExtension(opts.ExplicitFormat) {
		explicit = format.NormalizeID(opts.ExplicitFormat)
	}

	result := &BatchResult{Archive: archivePath, Compression: codec}
	i.progress.EmitStage("archive", filepath.Base(archivePath))

	tr := tar.NewReader(rc)
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, errors.Wrapf(err, "read archive %s after %d members", archivePath, result.Scanned)
		}

		if reason := skipReason(hdr, explicit); reason != "" {
			if hdr.Typeflag != tar.TypeDir {
				result.Skipped = append(result.Skipped, Skip{Member: hdr.Name, Reason: reason})
				log.Debugw("Skipping archive member", logger.FieldMember, hdr.Name, "reason", reason)
			}
			continue
		}

		outcome := i.member(ctx, workspace, hdr.Name, tr, explicit, opts)
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.OK() {
			result.Succeeded++
			i.progress.EmitStructures(len(outcome.Records), hdr.Name, outcome.Format)
		} else {
			i.progress.EmitError("member "+hdr.Name, outcome.Err.Cause)
			log.Warnw("Archive member failed",
				logger.FieldMember, hdr.Name,
				logger.FieldError, outcome.Err.Cause,
			)
		}
	}

	i.progress.EmitProgress(result.Scanned, map[string]interface{}{"type": "archive members", "succeeded": result.Succeeded})
	log.Infow("Archive ingested",
		logger.FieldCount, result.Scanned,
		logger.FieldSucceeded, result.Succeeded,
		logger.FieldFailed, result.Scanned-result.Succeeded,
		logger.FieldSkipped, len(result.Skipped),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// member materializes one member, reads it and removes the temporary file.
func (i *Ingestor) member(ctx context.Context, workspace, name string, r io.Reader, explicit string, opts Options) Outcome {
	out := Outcome{Member: name}
	fail := func(err error) Outcome {
		out.Err = &MemberError{Member: name, Cause: err}
		return out
	}

	tmp := filepath.Join(workspace, path.Base(name))
	if err := materialize(tmp, r); err != nil {
		return fail(err)
	}
	defer os.Remove(tmp)

	res, err := i.dispatcher.Resolver().Resolve(ctx, tmp, explicit)
	if err != nil {
		return fail(err)
	}
	out.Format, out.Provenance = res.ID, res.Provenance

	records, err := i.dispatcher.Dispatch(ctx, res, tmp)
	if err != nil {
		return fail(err)
	}
	for _, rec := range records {
		if rec.Metadata.Source == tmp {
			rec.Metadata.Source = name
		}
	}

	assembly, err := i.assembler.Assemble(ctx, records, opts.Target, opts.Policy)
	if err != nil {
		return fail(err)
	}
	out.Records = assembly.Records
	out.Placements = assembly.Placements
	return out
}

func materialize(dst string, r io.Reader) error {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrap(err, "materialize member")
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return errors.Wrap(err, "materialize member")
	}
	return f.Close()
}

// skipReason returns why a member is left out, or "" to read it.
func skipReason(hdr *tar.Header, explicit string) string {
	if !hdr.FileInfo().Mode().IsRegular() {
		return "not a regular file"
	}
	name := strings.TrimPrefix(path.Clean(hdr.Name), "./")
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return "hidden"
		}
		if skipDirs[part] {
			return "metadata directory " + part
		}
	}
	if explicit != "" {
		inner, _ := compress.SplitSuffix(path.Base(name))
		if ext := strings.ToLower(path.Ext(inner)); ext != explicit {
			return "suffix does not match " + explicit
		}
	}
	return ""
}

// open returns the decompressed tar stream of path.
func open(p string) (io.ReadCloser, compress.Codec, error) {
	if codec, ok := aliases[strings.ToLower(filepath.Ext(p))]; ok {
		rc, err := compress.OpenAs(p, codec)
		return rc, codec, err
	}
	return compress.Open(p)
}
