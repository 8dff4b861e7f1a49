package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show corpus health alerts",
	Long: `Evaluate corpus health conditions and display any triggered alerts.

Alerts check for unreadable files, a high share of malformed records, logs
that have stopped arriving, and actions that carry no session id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized")
		}

		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		alerts, err := evaluateAlerts(cmd, engine)
		if err != nil {
			return err
		}

		return render(cmd, alerts, func(w io.Writer) { printAlerts(w, alerts) })
	},
}

func evaluateAlerts(cmd *cobra.Command, engine *core.Engine) ([]observability.Alert, error) {
	health, err := engine.Health(commandContext(cmd), flagFiles)
	if err != nil {
		return nil, fmt.Errorf("evaluating alerts: %w", err)
	}
	return AlertEngine.Evaluate(health), nil
}

func printAlerts(w io.Writer, alerts []observability.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No active alerts.")
		return
	}

	fmt.Fprintf(w, "%d active alert(s):\n\n", len(alerts))
	for _, alert := range alerts {
		severity := strings.ToUpper(string(alert.Severity))
		fmt.Fprintf(w, "  [%s] %s\n", severity, alert.Message)
	}
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
