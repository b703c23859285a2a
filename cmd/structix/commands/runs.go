package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/structix/db"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/errors"
)

// RunsCmd inspects the ingestion catalog.
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the catalog of past reads",
	Long: `List the reads recorded in the catalog (catalog.path, default
~/.structix/catalog.db), show the members of one run, or prune old runs.

Examples:
  structix runs                     # Latest 20 runs
  structix runs members <run-id>    # Per-file outcome of a run
  structix runs prune --days 30     # Delete runs older than 30 days`,
	Args: cobra.NoArgs,
	RunE: runRunsList,
}

var runsMembersCmd = &cobra.Command{
	Use:   "members <run-id>",
	Short: "Show the files read by one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsMembers,
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old runs",
	Long:  "Delete runs started before the retention window. --days defaults to catalog.retention_days.",
	Args:  cobra.NoArgs,
	RunE:  runRunsPrune,
}

var (
	runsLimit int
	pruneDays int
)

func init() {
	RunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show")
	runsPruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Keep runs from the last N days")

	RunsCmd.AddCommand(runsMembersCmd)
	RunsCmd.AddCommand(runsPruneCmd)
}

// openCatalogApp loads configuration and opens the catalog even when reads
// do not record into it.
func openCatalogApp() (*app, error) {
	a, err := newApp(false)
	if err != nil {
		return nil, err
	}
	if err := a.openCatalog(); err != nil {
		return nil, errors.Wrap(err, "failed to open catalog")
	}
	return a, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	a, err := openCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.catalog.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		files := "1"
		if r.Archive {
			files = fmt.Sprintf("%d/%d", r.Succeeded, r.Scanned)
		}
		rows = append(rows, []string{
			r.ID[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			statusText(r.Status),
			r.Input,
			files,
			strconv.Itoa(r.Structures),
			strconv.Itoa(r.Atoms),
		})
	}
	return display.Table(out, []string{"Run", "Started", "Status", "Input", "Files", "Structures", "Atoms"}, rows)
}

func runRunsMembers(cmd *cobra.Command, args []string) error {
	a, err := openCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := findRun(cmd, a.catalog, args[0])
	if err != nil {
		return err
	}
	members, err := a.catalog.Members(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(out, map[string]interface{}{"run": run, "members": members})
	}

	fmt.Fprintf(out, "Run %s: %s (%s)\n", run.ID, run.Input, statusText(run.Status))
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			strconv.Itoa(m.Position),
			m.Member,
			m.Format,
			m.Provenance,
			strconv.Itoa(m.Structures),
			strconv.Itoa(m.Atoms),
			m.Error,
		})
	}
	return display.Table(out, []string{"#", "Member", "Format", "Provenance", "Structures", "Atoms", "Error"}, rows)
}

// findRun accepts a full id or the unique prefix shown by the run list.
func findRun(cmd *cobra.Command, c *db.Catalog, id string) (*db.Run, error) {
	if run, err := c.Run(cmd.Context(), id); err == nil {
		return run, nil
	} else if !errors.Is(err, db.ErrRunNotFound) {
		return nil, err
	}

	runs, err := c.Runs(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *db.Run
	for i := range runs {
		if len(id) >= 4 && strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, errors.NewInvalidRequestError("run prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, errors.WithHint(errors.Wrapf(db.ErrRunNotFound, "run %s", id), "run 'structix runs' to list run ids")
	}
	return match, nil
}

func runRunsPrune(cmd *cobra.Command, args []string) error {
	a, err := openCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	days := a.cfg.Catalog.RetentionDays
	if cmd.Flags().Changed("days") {
		days = pruneDays
	}
	if days <= 0 {
		return errors.WithHint(
			errors.NewInvalidRequestError("no retention window"),
			"pass --days or set catalog.retention_days",
		)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	n, err := a.catalog.Prune(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{"pruned": n, "cutoff": cutoff})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs started before %s\n", n, cutoff.Format("2006-01-02"))
	return nil
}

func statusText(status string) string {
	switch status {
	case db.StatusSucceeded:
		return pterm.Green(status)
	case db.StatusPartial:
		return pterm.Yellow(status)
	case db.StatusFailed:
		return pterm.Red(status)
	}
	return status
}
