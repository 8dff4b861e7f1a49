package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// statusReport summarizes the state of the corpus.
type statusReport struct {
	Location      string                `json:"location" yaml:"location"`
	FilesLoaded   int                   `json:"files_loaded" yaml:"files_loaded"`
	FilesFailed   int                   `json:"files_failed" yaml:"files_failed"`
	ParseErrors   int                   `json:"parse_errors" yaml:"parse_errors"`
	Duplicates    int                   `json:"duplicates" yaml:"duplicates"`
	Events        int                   `json:"events" yaml:"events"`
	Sessions      int                   `json:"sessions" yaml:"sessions"`
	Unassigned    int                   `json:"unassigned_actions" yaml:"unassigned_actions"`
	Errors        []models.LoadError    `json:"errors,omitempty" yaml:"errors,omitempty"`
	Alerts        []observability.Alert `json:"alerts" yaml:"alerts"`
	SharedAnchors []models.SharedAnchor `json:"shared_anchors,omitempty" yaml:"shared_anchors,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the corpus: load health, alerts and shared prompts",
	Long: `Read every selected log file and summarize what was found: how many
files and events were loaded, which files or lines could not be read, the
triggered health alerts, and prompts that anchor actions in more than one
session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		health, err := engine.Health(ctx, flagFiles)
		if err != nil {
			return err
		}
		anchors, _, err := engine.SharedAnchors(ctx, flagFiles)
		if err != nil {
			return err
		}

		report := statusReport{
			Location:      engine.Location(),
			FilesLoaded:   health.Load.FilesLoaded,
			FilesFailed:   health.Load.FilesFailed,
			ParseErrors:   health.Load.ParseErrors,
			Duplicates:    health.Load.Duplicates,
			Events:        len(health.Load.Events),
			Sessions:      health.Metrics.SessionCount,
			Unassigned:    health.Unassigned,
			Errors:        health.Load.Errors,
			Alerts:        []observability.Alert{},
			SharedAnchors: anchors,
		}
		if AlertEngine != nil {
			report.Alerts = append(report.Alerts, AlertEngine.Evaluate(health)...)
		}

		return render(cmd, report, func(w io.Writer) { printStatus(w, report, engine) })
	},
}

func printStatus(w io.Writer, r statusReport, engine *core.Engine) {
	fmt.Fprintf(w, "Location: %s\n\n", r.Location)
	fmt.Fprintf(w, "  %-24s %d\n", "Files loaded:", r.FilesLoaded)
	fmt.Fprintf(w, "  %-24s %d\n", "Files unreadable:", r.FilesFailed)
	fmt.Fprintf(w, "  %-24s %d\n", "Malformed lines:", r.ParseErrors)
	fmt.Fprintf(w, "  %-24s %d\n", "Duplicate events:", r.Duplicates)
	fmt.Fprintf(w, "  %-24s %d\n", "Events:", r.Events)
	fmt.Fprintf(w, "  %-24s %d\n", "Sessions:", r.Sessions)
	fmt.Fprintf(w, "  %-24s %d\n", "Unassigned actions:", r.Unassigned)

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "\n  Read errors:")
		for _, e := range r.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "    %s:%d: %s\n", e.File, e.Line, e.Message)
			} else {
				fmt.Fprintf(w, "    %s: %s\n", e.File, e.Message)
			}
		}
	}

	fmt.Fprintln(w)
	printAlerts(w, r.Alerts)

	if len(r.SharedAnchors) > 0 {
		fmt.Fprintf(w, "\n%d prompt(s) anchor more than one session:\n", len(r.SharedAnchors))
		for _, a := range r.SharedAnchors {
			fmt.Fprintf(w, "  %s  %s\n", formatEventTime(a.Prompt, engine.TimeLocation()), core.Describe(a.Prompt))
			fmt.Fprintf(w, "    sessions: %v\n", a.Sessions)
		}
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
