package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List log files at the storage location",
	Long: `List the hook log files (.jsonl and .log by default) at the storage
location, newest first, with their size and an estimated entry count.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		files, err := engine.ListFiles(ctx)
		if err != nil {
			return err
		}

		return render(cmd, files, func(w io.Writer) {
			if len(files) == 0 {
				fmt.Fprintf(w, "No log files found at %s.\n", engine.Location())
				return
			}
			t := newTable("NAME", "TYPE", "SIZE", "MODIFIED", "EST. ENTRIES")
			for _, f := range files {
				t.Row(f.Name, f.Type, formatBytes(f.Size), f.Modified.In(engine.TimeLocation()).Format(displayTime), strconv.Itoa(f.EstimatedEntryCount))
			}
			fmt.Fprintln(w, t.Render())
			fmt.Fprintf(w, "%d file(s) at %s\n", len(files), engine.Location())
		})
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
