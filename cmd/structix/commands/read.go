package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/structix/am"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/ixgest"
	"github.com/teranos/structix/logger"
	"github.com/teranos/structix/structure"
)

// ReadCmd reads one structure file, local or remote, or a tar archive of
// them.
var ReadCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Read molecular structures from a file",
	Long: `Read molecular structures from a file and place them into systems and configurations.

The format is taken from --format when given, else from the file suffix
(compression markers such as .gz are looked through), else from the file
content. Tar archives are read member by member; see 'structix batch'.

Any parameter may be an expression ($name or ${name}) bound with --var.

Examples:
  structix read 3TR_model.xyz
  structix read traj.xyz --indices 3:4 --subsequent configuration
  structix read model.txt --format "xyz -- XYZ"
  structix read https://example.org/ethanol.sdf.gz -o json
  structix read '$in' --var in=water.pdb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, args[0], &readFlags, false)
	},
}

var readFlags readOptions

func init() {
	readFlags.register(ReadCmd)
	ReadCmd.Flags().StringVarP(&readFlags.output, "output", "o", "", "Print the structures instead of the summary: json, yaml or cbor")
}

// readOptions are the step parameters accepted on the command line. Unset
// flags fall back to the [read] section of the configuration.
type readOptions struct {
	fileType          string
	indices           string
	subsequent        string
	systemName        string
	configurationName string
	noHydrogens       bool
	vars              []string
	output            string
}

func (o *readOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.fileType, "format", "f", "", `Format id or label ("from extension" to resolve)`)
	f.StringVarP(&o.indices, "indices", "i", "", `Structures to read, e.g. "1:end", "3:4", "1,5:7"`)
	f.StringVar(&o.subsequent, "subsequent", "", `Later structures: "system" (new system) or "configuration" (same system)`)
	f.StringVar(&o.systemName, "system-name", "", `System name, "from file" or "keep current name"`)
	f.StringVar(&o.configurationName, "configuration-name", "", `Configuration name, "from file" or "keep current name"`)
	f.BoolVar(&o.noHydrogens, "no-hydrogens", false, "Do not add hydrogens")
	f.StringArrayVar(&o.vars, "var", nil, "Bind an expression variable (name=value, repeatable)")
}

// params merges configuration and the flags set on cmd for file.
func (o *readOptions) params(cmd *cobra.Command, cfg *am.Config, file string) ixgest.Params {
	p := paramsFromConfig(cfg)
	p.File = file

	f := cmd.Flags()
	if f.Changed("format") {
		p.FileType = o.fileType
	}
	if f.Changed("indices") {
		p.Indices = o.indices
	}
	if f.Changed("subsequent") {
		p.Subsequent = o.subsequent
	}
	if f.Changed("system-name") {
		p.SystemName = o.systemName
	}
	if f.Changed("configuration-name") {
		p.ConfigurationName = o.configurationName
	}
	if o.noHydrogens {
		p.AddHydrogens = false
	}
	return p
}

// expand binds the --var variables into the expressions of p.
func (o *readOptions) expand(p ixgest.Params) (ixgest.Params, error) {
	vars, err := parseVars(o.vars)
	if err != nil {
		return p, err
	}
	if len(vars) == 0 && !p.HasExpressions() {
		return p, nil
	}
	expanded, err := p.Expand(vars)
	if err != nil {
		return p, errors.WithHint(err, "bind variables with --var name=value")
	}
	return expanded, nil
}

func paramsFromConfig(cfg *am.Config) ixgest.Params {
	p := ixgest.DefaultParams()
	r := cfg.Read
	if r.FileType != "" {
		p.FileType = r.FileType
	}
	if r.Indices != "" {
		p.Indices = r.Indices
	}
	if r.Subsequent != "" {
		p.Subsequent = r.Subsequent
	}
	if r.SystemName != "" {
		p.SystemName = r.SystemName
	}
	if r.ConfigurationName != "" {
		p.ConfigurationName = r.ConfigurationName
	}
	p.AddHydrogens = r.AddHydrogens
	return p
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.NewInvalidRequestError("--var wants name=value, got %q", pair)
		}
		vars[name] = value
	}
	return vars, nil
}

// runRead runs one step. requireArchive makes non-archive input an error.
func runRead(cmd *cobra.Command, file string, o *readOptions, requireArchive bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := o.expand(o.params(cmd, a.cfg, file))
	if err != nil {
		return err
	}
	if requireArchive && !isArchiveInput(p.File) {
		return errors.WithHint(
			errors.NewInvalidRequestError("%s is not a tar archive", p.File),
			"use 'structix read' for single structure files",
		)
	}

	var enc structure.Encoding
	if o.output != "" {
		if enc, err = structure.ParseEncoding(o.output); err != nil {
			return err
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	summary, err := a.step(emitter(cmd)).Run(ctx, p, nil)
	if err != nil {
		if summary != nil && summary.Batch != nil {
			printFailures(cmd.ErrOrStderr(), summary)
		}
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case enc != "":
		return structure.Encode(out, enc, summary.Records)
	case display.ShouldOutputJSON(cmd):
		return display.OutputJSON(out, summary)
	}
	return printSummary(cmd, out, summary)
}

func printSummary(cmd *cobra.Command, w io.Writer, s *ixgest.Summary) error {
	verbosity := verbosityOf(cmd)
	if s.Batch != nil {
		fmt.Fprintf(w, "Read %d of %d archive members (%d structures, %d atoms)\n",
			s.Batch.Succeeded, s.Batch.Scanned, s.Structures, s.Atoms)
		printFailures(w, s)
		if logger.ShouldOutput(verbosity, logger.OutputProgress) {
			for _, skip := range s.Batch.Skipped {
				fmt.Fprintf(w, "  skipped %s: %s\n", skip.Member, skip.Reason)
			}
		}
		if s.Structures == 0 {
			return nil
		}
	} else if logger.ShouldOutput(verbosity, logger.OutputFormats) {
		fmt.Fprintf(w, "Format %s (%s)\n", s.Format, s.Provenance)
	}
	fmt.Fprintln(w, s.Text())
	if logger.ShouldOutput(verbosity, logger.OutputTiming) {
		fmt.Fprintf(w, "Took %s\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
	}
	return nil
}

func printFailures(w io.Writer, s *ixgest.Summary) {
	failures := s.Batch.Failures()
	if len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Member, f.Cause.Error()})
	}
	fmt.Fprintln(w, pterm.Yellow(fmt.Sprintf("%d members failed:", len(failures))))
	if err := display.Table(w, []string{"Member", "Error"}, rows); err != nil {
		logger.Logger.Debugw("Failed to render failure table", logger.FieldError, err)
	}
}
