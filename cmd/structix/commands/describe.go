package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/structix/am"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/ixgest"
)

// DescribeCmd explains what a read would do without reading anything.
var DescribeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Explain how a file would be read",
	Long: `Print the description of a read step for the given file and parameters.
The file is not opened; expressions are left as they stand unless bound
with --var.

Example:
  structix describe traj.xyz --indices 3:4 --subsequent configuration`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

var describeFlags readOptions

func init() {
	describeFlags.register(DescribeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	reg, _, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	// unbound expressions are described as they stand
	p := describeFlags.params(cmd, cfg, args[0])
	if len(describeFlags.vars) > 0 {
		if p, err = describeFlags.expand(p); err != nil {
			return err
		}
	}
	if err := p.Validate(reg); err != nil {
		return err
	}

	text := ixgest.Describe(p, reg)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
			"params":      p,
			"format":      p.Extension(),
			"description": text,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
