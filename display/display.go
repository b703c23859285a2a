// Package display renders command results for terminals and for scripts.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// JSONEnv forces JSON output when set to a true value.
const JSONEnv = "STRUCTIX_JSON"

// ShouldOutputJSON reports whether cmd should print JSON: the command's own
// --json flag wins, then the root's persistent --json, then JSONEnv.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			v, _ := strconv.ParseBool(f.Value.String())
			return v
		}
		if v, err := cmd.Root().PersistentFlags().GetBool("json"); err == nil && v {
			return true
		}
	}
	v, _ := strconv.ParseBool(os.Getenv(JSONEnv))
	return v
}

// OutputJSON writes v as indented JSON followed by a newline.
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Table prints rows under header with pterm. Nothing is printed for an
// empty table.
func Table(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	data := pterm.TableData{header}
	data = append(data, rows...)
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
