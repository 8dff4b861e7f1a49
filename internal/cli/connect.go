package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/storage"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Test that the storage location is reachable",
	Long: `Test the connection to the storage location without reading any logs.

The check lists or stats the location with the resolved credentials and
reports whether it is reachable. Configuration problems such as a missing
bucket name are reported the same way. The command exits non-zero when the
test fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := resolveStorage()
		if err != nil {
			return err
		}

		result := storage.TestConnection(commandContext(cmd), sc, storageOptions())
		if err := render(cmd, result, func(w io.Writer) { printConnection(w, result) }); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("connection test failed")
		}
		return nil
	},
}

func printConnection(w io.Writer, r models.ConnectionResult) {
	if r.Success {
		fmt.Fprintf(w, "OK    %s\n", r.Message)
		return
	}
	fmt.Fprintf(w, "FAIL  %s\n", r.Message)
	if r.Kind != "" {
		fmt.Fprintf(w, "      kind: %s\n", r.Kind)
	}
	if hint := storage.HintFor(storage.ErrorKind(r.Kind)); hint != "" {
		fmt.Fprintf(w, "      hint: %s\n", hint)
	}
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
