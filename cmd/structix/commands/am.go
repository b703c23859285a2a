package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/structix/am"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage structix configuration",
	Long: `am - Manage structix configuration ("I am")

Configuration sources (later overrides earlier):
  1. Built-in defaults
  2. System config  (/etc/structix/structix.toml)
  3. User config    (~/.structix/structix.toml)
  4. Project config (nearest ./structix.toml, searching up directories)
  5. Environment    (STRUCTIX_* variables, e.g. STRUCTIX_CATALOG_ENABLED=false)
  6. Command line flags

Examples:
  structix am show                  # Show effective configuration
  structix am show --sources        # Show where every value came from
  structix am get formats.sniff_bytes
  structix am init                  # Write ~/.structix/structix.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a configuration value using dot notation (e.g. read.indices, catalog.path)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file holding every default. The path defaults to
~/.structix/structix.toml. An existing file is kept unless --force is given;
with --force it is rotated into .back1..3 first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmInit,
}

var (
	configFormat string
	showSources  bool
	initForce    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format: yaml, toml, json")
	amShowCmd.Flags().BoolVar(&showSources, "sources", false, "Show the source of every setting")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if showSources {
		return runAmSources(cmd)
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	out := cmd.OutOrStdout()
	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}
	switch format {
	case "json":
		return display.OutputJSON(out, cfg)
	case "yaml":
		data, err := am.MarshalYAML(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# structix configuration\n%s", data)
	case "toml":
		data, err := am.MarshalTOML(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: yaml, toml, json)", format)
	}
	return nil
}

func runAmSources(cmd *cobra.Command) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(out, intro)
	}

	if len(intro.Files) == 0 {
		fmt.Fprintln(out, "No configuration files found; using defaults.")
	} else {
		fmt.Fprintln(out, "Configuration files (later overrides earlier):")
		for _, f := range intro.Files {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(intro.Settings))
	for _, s := range intro.Settings {
		source := string(s.Source)
		if s.Source != am.SourceDefault && s.SourcePath != "" {
			source = fmt.Sprintf("%s (%s)", s.Source, s.SourcePath)
		}
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), source})
	}
	return display.Table(out, []string{"Key", "Value", "Source"}, rows)
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.NewInvalidRequestError("configuration key %q not found", key),
			"run 'structix am show' to list the keys",
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	// Load validates
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), pterm.Green("✓")+" Configuration is valid")
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.UserConfigPath()
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("cannot determine the user config path; pass one explicitly")
	}
	path, err := filepath.Abs(expandHome(path))
	if err != nil {
		return errors.Wrap(err, "resolve config path")
	}
	if err := am.WriteDefault(path, initForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
