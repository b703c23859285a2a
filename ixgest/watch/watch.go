// Package watch reads structure files as they appear in a drop directory.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/ixgest"
	"github.com/teranos/structix/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is read.
const DefaultDebounce = 500 * time.Millisecond

// Runner runs one read step. *ixgest.Step implements it.
type Runner interface {
	Run(ctx context.Context, p ixgest.Params, target *assemble.Target) (*ixgest.Summary, error)
}

// Result is the outcome for one file.
type Result struct {
	Path    string
	Summary *ixgest.Summary
	Err     error
}

// Config controls a Watcher.
type Config struct {
	// Dir is the drop directory. Subdirectories are not watched.
	Dir string

	// Params is the template for every read; File is replaced by the path
	// of the new file.
	Params ixgest.Params

	// Target receives every structure when set; otherwise each file starts
	// a fresh system database.
	Target *assemble.Target

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// MaxPerMinute limits reads; zero means unlimited.
	MaxPerMinute int

	// Existing reads the files already in Dir at start.
	Existing bool

	// OnResult is called after each read, from the reading goroutine.
	OnResult func(Result)
}

// Watcher feeds new files of a directory to a Runner, one at a time.
type Watcher struct {
	runner  Runner
	cfg     Config
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New checks cfg and creates a watcher. Nothing is watched until Run.
func New(runner Runner, cfg Config, log *zap.SugaredLogger) (*Watcher, error) {
	if runner == nil {
		return nil, errors.New("watch: nil runner")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "watch directory %s", cfg.Dir)
	}
	if !info.IsDir() {
		return nil, errors.NewInvalidRequestError("%s is not a directory", cfg.Dir)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxPerMinute < 0 {
		return nil, errors.NewInvalidRequestError("max per minute must not be negative")
	}

	w := &Watcher{
		runner: runner,
		cfg:    cfg,
		log:    logger.OrNop(log),
		timers: make(map[string]*time.Timer),
	}
	if cfg.MaxPerMinute > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(float64(cfg.MaxPerMinute)/60.0), 1)
	}
	return w, nil
}

// Run watches until ctx is done and returns nil then. Read failures are
// reported through OnResult and the log; they do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return errors.Wrapf(err, "watch directory %s", w.cfg.Dir)
	}
	w.log.Infow("Watching for structure files",
		logger.FieldPath, w.cfg.Dir,
		"debounce_ms", w.cfg.Debounce.Milliseconds(),
		"max_per_minute", w.cfg.MaxPerMinute,
	)

	ready := make(chan string, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.work(ctx, ready)
	}()

	if w.cfg.Existing {
		if err := w.scheduleExisting(ctx, ready); err != nil {
			w.log.Warnw("Failed to list existing files", logger.FieldError, err)
		}
	}

	watchErrs := fw.Errors
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			<-done
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				w.stopTimers()
				<-done
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !eligible(event.Name) {
				continue
			}
			w.log.Debugw("Watcher detected change",
				logger.FieldPath, event.Name,
				"op", event.Op.String(),
			)
			w.schedule(ctx, event.Name, ready)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			w.log.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// schedule (re)starts the quiet period of path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) scheduleExisting(ctx context.Context, ready chan<- string) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if p := filepath.Join(w.cfg.Dir, name); eligible(p) {
			w.schedule(ctx, p, ready)
		}
	}
	return nil
}

func (w *Watcher) work(ctx context.Context, ready <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-ready:
			if w.limiter != nil {
				if err := w.limiter.Wait(ctx); err != nil {
					return
				}
			}
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		w.log.Debugw("Skipping vanished file", logger.FieldPath, path)
		return
	}

	p := w.cfg.Params
	p.File = path
	summary, err := w.runner.Run(ctx, p, w.cfg.Target)
	if err != nil {
		w.log.Warnw("Failed to read dropped file",
			logger.FieldPath, path,
			logger.FieldError, err,
		)
	} else {
		w.log.Infow("Read dropped file",
			logger.FieldPath, path,
			logger.FieldStructures, summary.Structures,
			logger.FieldAtoms, summary.Atoms,
		)
	}
	if w.cfg.OnResult != nil {
		w.cfg.OnResult(Result{Path: path, Summary: summary, Err: err})
	}
}

// eligible rejects hidden files and the partial files of downloads and
// editors.
func eligible(path string) bool {
	base := filepath.Base(path)
	if base == "" || strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".part", ".crdownload", ".tmp", ".swp":
		return false
	}
	return true
}
