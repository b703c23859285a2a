package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/structix/ixgest/archive"
	"github.com/teranos/structix/source"
)

// BatchCmd reads every structure file in a tar archive.
var BatchCmd = &cobra.Command{
	Use:   "batch <archive>",
	Short: "Read every structure file in a tar archive",
	Long: `Read every structure file in a tar archive (.tar, .tar.gz, .tgz, .tar.bz2,
.tbz2, .tar.xz, .txz, .tar.zst, .tar.lz4).

Members are read one at a time. A member that cannot be read is listed with
its error and does not stop the batch. Hidden files and __MACOSX entries are
skipped; with --format, members with a different suffix are skipped too.

Examples:
  structix batch library.tgz
  structix batch library.tar.zst --format sdf
  structix batch https://example.org/conformers.tar.xz -v`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, args[0], &batchFlags, true)
	},
}

var batchFlags readOptions

func init() {
	batchFlags.register(BatchCmd)
}

func isArchiveInput(input string) bool {
	if source.IsRemote(input) {
		input = source.FileName(input)
	}
	return archive.IsArchive(input)
}
