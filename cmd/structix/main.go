package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/structix/am"
	"github.com/teranos/structix/cmd/structix/commands"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/logger"
	"github.com/teranos/structix/version"
)

var rootCmd = &cobra.Command{
	Use:   "structix",
	Short: "structix - Read molecular structure files",
	Long: `structix - Read molecular structure files into systems and configurations.

Formats are chosen explicitly, by file suffix (looking through .gz, .bz2,
.xz, .zst and .lz4) or by content. Tar archives are read member by member,
and local paths, URLs and go-getter sources are accepted alike.

Available commands:
  read     - Read structures from a file or URL
  batch    - Read every structure file in a tar archive
  describe - Explain how a file would be read
  formats  - List the readable formats
  watch    - Read files as they appear in a directory
  runs     - Inspect the catalog of past reads
  am       - Manage structix configuration ("I am")

Examples:
  structix read 3TR_model.xyz
  structix read traj.xyz --indices 3:4 --subsequent configuration
  structix batch library.tgz -v
  structix formats`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		// log.json applies when the configuration loads; a broken config is
		// reported by the command itself
		jsonLogs := jsonOutput
		if cfg, err := am.Load(); err == nil {
			jsonLogs = jsonLogs || cfg.Log.JSON
		}
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if jsonOutput {
			pterm.DisableColor()
		}
		logger.Logger.Debugw("Starting structix",
			"version", version.VersionTag,
			"commit", version.Get().Short(),
			"verbosity", logger.LevelName(verbosity),
			"command", cmd.CommandPath(),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(commands.ReadCmd)
	rootCmd.AddCommand(commands.BatchCmd)
	rootCmd.AddCommand(commands.DescribeCmd)
	rootCmd.AddCommand(commands.FormatsCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.RunsCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		logger.Cleanup()
		os.Exit(1)
	}
}
