package ixgest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/db"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/ixgest/archive"
	"github.com/teranos/structix/ixgest/progress"
	"github.com/teranos/structix/logger"
	"github.com/teranos/structix/source"
	"github.com/teranos/structix/structure"
)

// Step reads one input per Run: a single structure file or an archive of
// them, local or remote.
type Step struct {
	dispatcher *format.Dispatcher
	assembler  *assemble.Assembler
	ingestor   *archive.Ingestor
	fetcher    *source.Fetcher
	catalog    *db.Catalog
	progress   progress.Emitter
	tempDir    string
	log        *zap.SugaredLogger
}

// Option configures a Step.
type Option func(*Step)

// WithCatalog records every run in c.
func WithCatalog(c *db.Catalog) Option {
	return func(s *Step) { s.catalog = c }
}

// WithFetcher replaces the default source fetcher.
func WithFetcher(f *source.Fetcher) Option {
	return func(s *Step) { s.fetcher = f }
}

// WithProgress reports progress of single files and archive members to e.
func WithProgress(e progress.Emitter) Option {
	return func(s *Step) { s.progress = progress.OrNop(e) }
}

// WithTempDir sets the parent directory for downloads and archive
// workspaces.
func WithTempDir(dir string) Option {
	return func(s *Step) { s.tempDir = dir }
}

// NewStep creates a read step. A nil assembler places structures without
// adding hydrogens.
func NewStep(d *format.Dispatcher, a *assemble.Assembler, log *zap.SugaredLogger, opts ...Option) *Step {
	log = logger.OrNop(log)
	if a == nil {
		a = assemble.NewAssembler(nil, log)
	}
	s := &Step{
		dispatcher: d,
		assembler:  a,
		progress:   progress.Nop{},
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = source.NewFetcher(log.Named("source"), source.WithTempDir(s.tempDir))
	}
	s.ingestor = archive.NewIngestor(d, a, log.Named("archive"),
		archive.WithProgress(s.progress),
		archive.WithTempDir(s.tempDir),
	)
	return s
}

// Registry returns the registry the step resolves formats against.
func (s *Step) Registry() *format.Registry { return s.dispatcher.Registry() }

// Summary is the result of one Run.
type Summary struct {
	RunID      string `json:"run_id"`
	Input      string `json:"input"`
	LocalPath  string `json:"local_path"`
	Remote     bool   `json:"remote"`
	Archive    bool   `json:"archive"`
	Format     string `json:"format,omitempty"`
	Provenance string `json:"provenance,omitempty"`

	Structures        int                  `json:"structures"`
	Atoms             int                  `json:"atoms"`
	SystemName        string               `json:"system_name,omitempty"`
	ConfigurationName string               `json:"configuration_name,omitempty"`
	Placements        []assemble.Placement `json:"placements,omitempty"`
	Batch             *archive.BatchResult `json:"batch,omitempty"`

	Records []*structure.Record `json:"-"`
	Target  *assemble.Target    `json:"-"`

	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Text renders the summary the way the step reports it when done.
func (s *Summary) Text() string {
	return fmt.Sprintf("Created a molecular structure with %d atoms.\n"+
		"       System name = %s\n"+
		"Configuration name = %s", s.Atoms, s.SystemName, s.ConfigurationName)
}

// Run executes the step. Params must be free of expressions; use
// Params.Expand first. A nil target starts a fresh system database. Archive
// member failures are reported in Summary.Batch and do not fail the run.
func (s *Step) Run(ctx context.Context, p Params, target *assemble.Target) (*Summary, error) {
	summary := &Summary{Input: p.File, StartTime: time.Now()}
	finish := func(err error) (*Summary, error) {
		summary.EndTime = time.Now()
		summary.Success = err == nil
		if err != nil {
			summary.Message = err.Error()
		} else {
			summary.Message = fmt.Sprintf("read %d structures (%d atoms)", summary.Structures, summary.Atoms)
		}
		return summary, err
	}

	if p.HasExpressions() {
		return finish(errors.NewInvalidRequestError("parameters contain unresolved expressions"))
	}
	if err := p.Validate(s.Registry()); err != nil {
		return finish(err)
	}
	policy, err := p.Policy()
	if err != nil {
		return finish(err)
	}
	if target == nil {
		target = assemble.NewTarget(assemble.NewSystemDB())
	}
	summary.Target = target
	summary.Archive = archive.IsArchive(p.File)

	summary.RunID = s.beginRun(ctx, p, summary.Archive)
	ctx = logger.WithRunID(ctx, summary.RunID)
	log := logger.FromContext(ctx, s.log).With(logger.FieldSource, p.File)

	s.progress.EmitStage("read", Describe(p, s.Registry()))

	src, err := s.fetcher.Resolve(ctx, p.File)
	if err != nil {
		s.progress.EmitError("fetch", err)
		return s.done(ctx, summary, finish, err)
	}
	defer src.Cleanup()
	summary.LocalPath, summary.Remote = src.LocalPath, src.Remote

	if summary.Archive || archive.IsArchive(src.LocalPath) {
		summary.Archive = true
		err = s.readArchive(ctx, src, p, policy, target, summary)
	} else {
		err = s.readFile(ctx, src, p, policy, target, summary)
	}
	if err != nil {
		s.progress.EmitError("read", err)
		log.Warnw("Read step failed", logger.FieldError, err)
		return s.done(ctx, summary, finish, err)
	}

	if n := len(summary.Placements); n > 0 {
		last := summary.Placements[n-1]
		summary.SystemName, summary.ConfigurationName = last.SystemName, last.ConfigurationName
	}
	s.progress.EmitComplete(map[string]interface{}{
		"structures":         summary.Structures,
		"atoms":              summary.Atoms,
		"system_name":        summary.SystemName,
		"configuration_name": summary.ConfigurationName,
	})
	log.Infow("Read step complete",
		logger.FieldStructures, summary.Structures,
		logger.FieldAtoms, summary.Atoms,
		logger.FieldSystem, summary.SystemName,
		logger.FieldConfiguration, summary.ConfigurationName,
		logger.FieldDurationMS, time.Since(summary.StartTime).Milliseconds(),
	)
	return s.done(ctx, summary, finish, nil)
}

func (s *Step) readFile(ctx context.Context, src *source.Source, p Params, policy assemble.Policy, target *assemble.Target, summary *Summary) error {
	res, records, err := s.dispatcher.ReadFile(ctx, src.LocalPath, p.Explicit())
	if err != nil {
		s.recordMember(ctx, summary.RunID, db.Member{Position: 1, Member: p.File, Format: res.ID, Error: err.Error()})
		return err
	}
	summary.Format, summary.Provenance = res.ID, res.Provenance.String()
	if src.Remote {
		for _, rec := range records {
			rec.Metadata.Source = src.Input
		}
	}
	s.progress.EmitStructures(len(records), p.File, res.ID)

	assembly, err := s.assembler.Assemble(ctx, records, target, policy)
	if err != nil {
		s.recordMember(ctx, summary.RunID, db.Member{Position: 1, Member: p.File, Format: res.ID, Provenance: summary.Provenance, Error: err.Error()})
		return err
	}
	summary.Records = assembly.Records
	summary.Placements = assembly.Placements
	summary.Structures = len(assembly.Records)
	summary.Atoms = countAtoms(assembly.Records)
	s.recordMember(ctx, summary.RunID, db.Member{
		Position:   1,
		Member:     p.File,
		Format:     res.ID,
		Provenance: summary.Provenance,
		Structures: summary.Structures,
		Atoms:      summary.Atoms,
	})
	return nil
}

func (s *Step) readArchive(ctx context.Context, src *source.Source, p Params, policy assemble.Policy, target *assemble.Target, summary *Summary) error {
	batch, err := s.ingestor.Ingest(ctx, src.LocalPath, archive.Options{
		ExplicitFormat: p.Explicit(),
		Policy:         policy,
		Target:         target,
	})
	if batch == nil {
		return err
	}
	summary.Batch = batch
	for i, o := range batch.Outcomes {
		m := db.Member{Position: i + 1, Member: o.Member, Format: o.Format, Structures: len(o.Records), Atoms: countAtoms(o.Records)}
		if o.Format != "" {
			m.Provenance = o.Provenance.String()
		}
		if !o.OK() {
			m.Error = o.Err.Cause.Error()
		}
		s.recordMember(ctx, summary.RunID, m)
		summary.Placements = append(summary.Placements, o.Placements...)
	}
	summary.Records = batch.Records()
	summary.Structures = len(summary.Records)
	summary.Atoms = batch.Atoms()
	return err
}

func countAtoms(records []*structure.Record) int {
	n := 0
	for _, r := range records {
		n += r.NAtoms()
	}
	return n
}

// beginRun opens a catalog run. Catalog failures are logged and the step
// continues without it.
func (s *Step) beginRun(ctx context.Context, p Params, isArchive bool) string {
	if s.catalog == nil {
		return uuid.New().String()
	}
	run, err := s.catalog.BeginRun(ctx, db.Run{
		Input:   p.File,
		Archive: isArchive,
		Format:  p.Explicit(),
		Indices: p.Indices,
	})
	if err != nil {
		s.log.Warnw("Failed to record run in catalog", logger.FieldError, err)
		return uuid.New().String()
	}
	return run.ID
}

func (s *Step) recordMember(ctx context.Context, runID string, m db.Member) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.RecordMember(ctx, runID, m); err != nil {
		logger.FromContext(ctx, s.log).Debugw("Failed to record member", logger.FieldMember, m.Member, logger.FieldError, err)
	}
}

func (s *Step) done(ctx context.Context, summary *Summary, finish func(error) (*Summary, error), err error) (*Summary, error) {
	if s.catalog != nil {
		stats := db.RunStats{Scanned: 1, Structures: summary.Structures, Atoms: summary.Atoms}
		if summary.Batch != nil {
			stats.Scanned, stats.Succeeded = summary.Batch.Scanned, summary.Batch.Succeeded
		} else if err == nil {
			stats.Succeeded = 1
		}
		// the run is finished even when ctx was canceled
		if ferr := s.catalog.FinishRun(context.WithoutCancel(ctx), summary.RunID, stats, err); ferr != nil {
			logger.FromContext(ctx, s.log).Debugw("Failed to finish run in catalog", logger.FieldError, ferr)
		}
	}
	return finish(err)
}
