package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const histogramWidth = 40

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display activity metrics for the corpus",
	Long: `Display aggregated metrics over every selected log file.

Metrics include event counts by category, hourly and weekday histograms,
the last seven days, the most written files, the most run commands and MCP
tools, and lines added and removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		snap, result, err := engine.Metrics(ctx, flagFiles)
		if err != nil {
			return err
		}
		printLoadSummary(cmd, result)

		return render(cmd, snap, func(w io.Writer) {
			printMetrics(w, snap, engine.TimeLocation())
		})
	},
}

func printMetrics(w io.Writer, m models.MetricsSnapshot, loc *time.Location) {
	if m.TotalEvents == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintf(w, "Metrics (%s)\n\n", loc)
	fmt.Fprintf(w, "  %-24s %d\n", "Events:", m.TotalEvents)
	fmt.Fprintf(w, "  %-24s %d\n", "Sessions:", m.SessionCount)
	fmt.Fprintf(w, "  %-24s %d\n", "Users:", m.UserCount)
	fmt.Fprintf(w, "  %-24s %.1f\n", "Events per session:", m.AvgEventsPerSession)
	fmt.Fprintf(w, "  %-24s +%d / -%d\n", "Lines added/removed:", m.LinesAdded, m.LinesRemoved)
	if m.DateRange.Start != nil {
		fmt.Fprintf(w, "  %-24s %s .. %s\n", "Date range:",
			formatTimePtr(m.DateRange.Start, loc), formatTimePtr(m.DateRange.End, loc))
	}

	fmt.Fprintln(w, "\n  By category:")
	for _, c := range models.AllCategories {
		if n := m.Categories[c]; n > 0 {
			fmt.Fprintf(w, "    %-20s %d\n", string(c)+":", n)
		}
	}

	printRanking(w, "Top files written", m.TopFiles)
	printRanking(w, "Top commands", m.TopCommands)
	printRanking(w, "Top MCP tools", m.TopMCPTools)

	fmt.Fprintln(w, "\n  Last seven days:")
	maxDay := 0
	for _, d := range m.LastSevenDays {
		maxDay = max(maxDay, d.Count)
	}
	for _, d := range m.LastSevenDays {
		fmt.Fprintf(w, "    %s %6d %s\n", d.Date, d.Count, bar(d.Count, maxDay, histogramWidth))
	}

	fmt.Fprintln(w, "\n  By hour:")
	maxHour := 0
	for _, n := range m.Hourly {
		maxHour = max(maxHour, n)
	}
	for h, n := range m.Hourly {
		if n > 0 {
			fmt.Fprintf(w, "    %02d:00 %6d %s\n", h, n, bar(n, maxHour, histogramWidth))
		}
	}

	fmt.Fprintln(w, "\n  By weekday:")
	maxWeekday := 0
	for _, n := range m.Weekday {
		maxWeekday = max(maxWeekday, n)
	}
	for i, n := range m.Weekday {
		fmt.Fprintf(w, "    %s %6d %s\n", weekdayNames[i], n, bar(n, maxWeekday, histogramWidth))
	}
}

func printRanking(w io.Writer, title string, ranked []models.RankedCount) {
	if len(ranked) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s:\n", title)
	for _, r := range ranked {
		fmt.Fprintf(w, "    %-40s %d\n", truncate(r.Name, 40), r.Count)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
