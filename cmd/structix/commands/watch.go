package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/ixgest/watch"
	"github.com/teranos/structix/logger"
)

// WatchCmd reads structure files as they are dropped into a directory.
var WatchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Read structure files as they appear in a directory",
	Long: `Watch a directory and read every structure file written into it.

A file is read once it has been quiet for the debounce period. Files are
read one at a time; --max-per-minute throttles them. Hidden files and
partial downloads (.part, .crdownload, .tmp, .swp) are ignored. Stop with
Ctrl-C.

Examples:
  structix watch ./incoming
  structix watch ./incoming --existing --one-system --subsequent configuration`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFlags        readOptions
	watchExisting     bool
	watchOneSystem    bool
	watchDebounce     time.Duration
	watchMaxPerMinute int
)

func init() {
	watchFlags.register(WatchCmd)
	WatchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also read the files already in the directory")
	WatchCmd.Flags().BoolVar(&watchOneSystem, "one-system", false, "Place every file into one shared system database")
	WatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a file is read (default from watch.debounce_ms)")
	WatchCmd.Flags().IntVar(&watchMaxPerMinute, "max-per-minute", 0, "Read at most this many files per minute (default from watch.max_per_minute)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	// the file is filled in per event; expressions must be bound up front
	p, err := watchFlags.expand(watchFlags.params(cmd, a.cfg, args[0]))
	if err != nil {
		return err
	}
	if err := p.Validate(a.registry); err != nil {
		return err
	}

	cfg := watch.Config{
		Dir:          args[0],
		Params:       p,
		Debounce:     time.Duration(a.cfg.Watch.DebounceMS) * time.Millisecond,
		MaxPerMinute: a.cfg.Watch.MaxPerMinute,
		Existing:     watchExisting,
		OnResult:     watchReporter(cmd),
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Debounce = watchDebounce
	}
	if cmd.Flags().Changed("max-per-minute") {
		cfg.MaxPerMinute = watchMaxPerMinute
	}
	if watchOneSystem {
		cfg.Target = assemble.NewTarget(assemble.NewSystemDB())
	}

	w, err := watch.New(a.step(emitter(cmd)), cfg, logger.ComponentLogger("watch"))
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	if !display.ShouldOutputJSON(cmd) {
		pterm.Info.Printfln("Watching %s (Ctrl-C to stop)", args[0])
	}
	return w.Run(ctx)
}

// watchReporter prints one line or one JSON object per file.
func watchReporter(cmd *cobra.Command) func(watch.Result) {
	out := cmd.OutOrStdout()
	asJSON := display.ShouldOutputJSON(cmd)
	return func(r watch.Result) {
		if asJSON {
			entry := map[string]interface{}{"path": r.Path, "summary": r.Summary}
			if r.Err != nil {
				entry["error"] = r.Err.Error()
			}
			display.OutputJSON(out, entry)
			return
		}
		name := filepath.Base(r.Path)
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", pterm.Red("✗"), name, r.Err)
			return
		}
		fmt.Fprintf(out, "%s %s: %d structures, %d atoms (%s / %s)\n",
			pterm.Green("✓"), name, r.Summary.Structures, r.Summary.Atoms,
			r.Summary.SystemName, r.Summary.ConfigurationName)
	}
}
