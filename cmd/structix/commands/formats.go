package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/structix/am"
	"github.com/teranos/structix/display"
	"github.com/teranos/structix/errors"
)

// FormatsCmd lists the registered formats.
var FormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the structure formats that can be read",
	Long: `List the registered structure formats in registration order.

Content sniffing tries the formats marked "sniff" in this order when neither
--format nor the file suffix decides. Converter formats from
formats.converters follow the built-in ones.`,
	Args: cobra.NoArgs,
	RunE: runFormats,
}

// formatInfo is one row of the formats listing.
type formatInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Single      bool   `json:"single_structure"`
	Sniff       bool   `json:"sniff"`
	Requires    string `json:"requires,omitempty"`
}

func runFormats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	reg, _, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	infos := make([]formatInfo, 0, reg.Len())
	for _, id := range reg.IDs() {
		d, err := reg.Lookup(id)
		if err != nil {
			return err
		}
		infos = append(infos, formatInfo{
			ID:          d.ID,
			Description: d.Metadata.Description,
			Single:      d.Metadata.SingleStructure,
			Sniff:       d.Checker != nil,
			Requires:    d.Metadata.Requires,
		})
	}

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(out, infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, f := range infos {
		structures := "multiple"
		if f.Single {
			structures = "single"
		}
		sniff := ""
		if f.Sniff {
			sniff = "sniff"
		}
		rows = append(rows, []string{f.ID, f.Description, structures, sniff})
	}
	if err := display.Table(out, []string{"ID", "Description", "Structures", "Content"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d formats\n", len(infos))
	return nil
}
