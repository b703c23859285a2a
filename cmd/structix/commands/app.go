package commands

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/structix/am"
	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/db"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats"
	"github.com/teranos/structix/formats/obabel"
	"github.com/teranos/structix/internal/httpclient"
	"github.com/teranos/structix/ixgest"
	"github.com/teranos/structix/ixgest/progress"
	"github.com/teranos/structix/logger"
	"github.com/teranos/structix/source"
	"github.com/teranos/structix/version"
)

// app is what the reading commands share: the registry and dispatcher built
// from configuration, the assembler and the optional catalog.
type app struct {
	cfg        *am.Config
	registry   *format.Registry
	dispatcher *format.Dispatcher
	assembler  *assemble.Assembler
	database   *sql.DB
	catalog    *db.Catalog
}

// newRegistry builds the format registry from configuration. It is split out
// for commands that never read files.
func newRegistry(cfg *am.Config) (*format.Registry, *obabel.Manifest, error) {
	opts := formats.Options{BondTolerance: cfg.GetBondTolerance()}
	var manifest *obabel.Manifest
	if cfg.Formats.Converters != "" {
		m, err := obabel.LoadManifest(expandHome(cfg.Formats.Converters))
		if err != nil {
			return nil, nil, errors.WithHint(err, "fix or unset formats.converters in structix.toml")
		}
		manifest = m
		opts.Converters = m
	}
	reg, err := formats.NewRegistry(version.VersionTag, opts)
	if err != nil {
		return nil, nil, err
	}
	return reg, manifest, nil
}

// newApp loads configuration and wires the read pipeline. withCatalog opens
// the catalog when configuration enables it; a catalog that cannot be opened
// is reported and skipped.
func newApp(withCatalog bool) (*app, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	log := logger.ComponentLogger("app")

	reg, manifest, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	resolver := format.NewResolver(reg,
		format.WithSniffBytes(cfg.GetSniffBytes()),
		format.WithResolverLogger(logger.ComponentLogger("resolve")),
	)

	var adder assemble.HydrogenAdder
	if manifest != nil {
		adder = obabel.NewHydrogenAdder(manifest.Executable, nil)
	}

	a := &app{
		cfg:        cfg,
		registry:   reg,
		dispatcher: format.NewDispatcher(reg, resolver, logger.ComponentLogger("dispatch")),
		assembler:  assemble.NewAssembler(adder, logger.ComponentLogger("assemble")),
	}

	if withCatalog && cfg.Catalog.Enabled {
		if err := a.openCatalog(); err != nil {
			log.Warnw("Catalog unavailable, runs will not be recorded", logger.FieldError, err)
		}
	}
	return a, nil
}

func (a *app) openCatalog() error {
	path := expandHome(a.cfg.GetCatalogPath())
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "create catalog directory for %s", path)
	}
	database, err := db.OpenWithMigrations(path, logger.ComponentLogger("db"))
	if err != nil {
		return err
	}
	a.database = database
	a.catalog = db.NewCatalog(database, logger.ComponentLogger("catalog"))
	return nil
}

// step creates a read step reporting to emitter.
func (a *app) step(emitter progress.Emitter) *ixgest.Step {
	ws := a.cfg.Workspace
	client := httpclient.New(httpclient.Options{
		Timeout:      time.Duration(ws.FetchTimeoutSec) * time.Second,
		BlockPrivate: ws.BlockPrivateHosts,
	})
	opts := []ixgest.Option{
		ixgest.WithProgress(emitter),
		ixgest.WithTempDir(ws.TempDir),
		ixgest.WithFetcher(source.NewFetcher(logger.ComponentLogger("source"),
			source.WithTempDir(ws.TempDir),
			source.WithHTTPClient(client),
		)),
	}
	if a.catalog != nil {
		opts = append(opts, ixgest.WithCatalog(a.catalog))
	}
	return ixgest.NewStep(a.dispatcher, a.assembler, logger.ComponentLogger("ixgest"), opts...)
}

func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
}

// emitter picks the progress output for cmd: nothing unless -v, JSON lines
// on stderr in JSON mode, pterm otherwise.
func emitter(cmd *cobra.Command) progress.Emitter {
	verbosity := verbosityOf(cmd)
	if !logger.ShouldOutput(verbosity, logger.OutputProgress) {
		return progress.Nop{}
	}
	if display.ShouldOutputJSON(cmd) {
		return progress.NewJSONEmitterTo(cmd.ErrOrStderr())
	}
	return progress.NewCLIEmitter(verbosity)
}

func verbosityOf(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// signalContext is canceled on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
