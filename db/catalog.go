package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/logger"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	// StatusPartial marks an archive run where some members failed.
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Run is one read-step invocation.
type Run struct {
	ID         string     `json:"id" yaml:"id"`
	Input      string     `json:"input" yaml:"input"`
	LocalPath  string     `json:"local_path,omitempty" yaml:"local_path,omitempty"`
	Archive    bool       `json:"archive" yaml:"archive"`
	Format     string     `json:"format,omitempty" yaml:"format,omitempty"`
	Indices    string     `json:"indices,omitempty" yaml:"indices,omitempty"`
	Status     string     `json:"status" yaml:"status"`
	Scanned    int        `json:"scanned" yaml:"scanned"`
	Succeeded  int        `json:"succeeded" yaml:"succeeded"`
	Structures int        `json:"structures" yaml:"structures"`
	Atoms      int        `json:"atoms" yaml:"atoms"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Member is the outcome for one file of a run: the single input, or one
// archive member.
type Member struct {
	Position   int       `json:"position" yaml:"position"`
	Member     string    `json:"member" yaml:"member"`
	Format     string    `json:"format,omitempty" yaml:"format,omitempty"`
	Provenance string    `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Structures int       `json:"structures" yaml:"structures"`
	Atoms      int       `json:"atoms" yaml:"atoms"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// RunStats are the totals written when a run finishes.
type RunStats struct {
	Scanned    int
	Succeeded  int
	Structures int
	Atoms      int
}

// Catalog records ingest runs and their members.
type Catalog struct {
	db  *sql.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// NewCatalog creates a catalog over a migrated database.
func NewCatalog(db *sql.DB, log *zap.SugaredLogger) *Catalog {
	return &Catalog{db: db, log: logger.OrNop(log), now: func() time.Time { return time.Now().UTC() }}
}

// BeginRun inserts a running run and returns it with a fresh id.
func (c *Catalog) BeginRun(ctx context.Context, run Run) (*Run, error) {
	run.ID = uuid.New().String()
	run.Status = StatusRunning
	run.StartedAt = c.now()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, input, local_path, archive, format, indices, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.LocalPath, run.Archive, run.Format, run.Indices, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, c.wrap(err, "begin run")
	}
	c.log.Debugw("Run started", logger.FieldRunID, run.ID, logger.FieldSource, run.Input)
	return &run, nil
}

// RecordMember appends a member outcome to a run.
func (c *Catalog) RecordMember(ctx context.Context, runID string, m Member) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = c.now()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ingest_members (run_id, position, member, format, provenance, structures, atoms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, m.Position, m.Member, m.Format, m.Provenance, m.Structures, m.Atoms, m.Error, m.CreatedAt,
	)
	if err != nil {
		return c.wrap(err, "record member "+m.Member)
	}
	return nil
}

// FinishRun stores the totals and the final status. runErr, when set, marks
// the run failed; a run with fewer successes than scanned files is partial.
func (c *Catalog) FinishRun(ctx context.Context, runID string, stats RunStats, runErr error) error {
	status := StatusSucceeded
	msg := ""
	switch {
	case runErr != nil:
		status, msg = StatusFailed, runErr.Error()
	case stats.Succeeded < stats.Scanned:
		status = StatusPartial
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE ingest_runs
		SET status = ?, scanned = ?, succeeded = ?, structures = ?, atoms = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		status, stats.Scanned, stats.Succeeded, stats.Structures, stats.Atoms, msg, c.now(), runID,
	)
	if err != nil {
		return c.wrap(err, "finish run")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return c.wrap(err, "finish run")
	}
	if n == 0 {
		return errors.Wrapf(ErrRunNotFound, "finish run %s", runID)
	}
	c.log.Debugw("Run finished",
		logger.FieldRunID, runID,
		"status", status,
		logger.FieldSucceeded, stats.Succeeded,
	)
	return nil
}

const runColumns = `id, input, local_path, archive, format, indices, status, scanned, succeeded,
	structures, atoms, error, started_at, finished_at`

// Runs lists the most recent runs first. limit <= 0 lists all.
func (c *Catalog) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.wrap(err, "list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, c.wrap(err, "scan run")
		}
		runs = append(runs, *run)
	}
	return runs, c.wrap(rows.Err(), "list runs")
}

// Run returns one run.
func (c *Catalog) Run(ctx context.Context, id string) (*Run, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM ingest_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrRunNotFound, "run %s", id)
	}
	if err != nil {
		return nil, c.wrap(err, "get run")
	}
	return run, nil
}

// Members returns the member outcomes of a run in archive order.
func (c *Catalog) Members(ctx context.Context, runID string) ([]Member, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT position, member, format, provenance, structures, atoms, error, created_at
		FROM ingest_members WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, c.wrap(err, "list members")
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.Position, &m.Member, &m.Format, &m.Provenance, &m.Structures, &m.Atoms, &m.Error, &m.CreatedAt); err != nil {
			return nil, c.wrap(err, "scan member")
		}
		members = append(members, m)
	}
	return members, c.wrap(rows.Err(), "list members")
}

// Prune deletes runs started before cutoff and returns how many went.
func (c *Catalog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM ingest_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, c.wrap(err, "prune runs")
	}
	n, err := res.RowsAffected()
	return n, c.wrap(err, "prune runs")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	err := s.Scan(&run.ID, &run.Input, &run.LocalPath, &run.Archive, &run.Format, &run.Indices, &run.Status,
		&run.Scanned, &run.Succeeded, &run.Structures, &run.Atoms, &run.Error, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func (c *Catalog) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if IsDatabaseClosed(err) {
		return errors.Wrap(ErrDatabaseClosed, op)
	}
	return errors.Wrap(err, op)
}
