package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const displayTime = "2006-01-02 15:04:05"

var tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var tableCellStyle = lipgloss.NewStyle().Padding(0, 1)

// render writes v as JSON or YAML when --format asks for it, and otherwise
// calls printTable.
func render(cmd *cobra.Command, v any, printTable func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	switch flagFormat {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting output as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("formatting output as YAML: %w", err)
		}
		return enc.Close()
	default:
		printTable(w)
		return nil
	}
}

// newTable returns a bordered table with the given column headers.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// printLoadSummary reports absorbed soft errors on stderr so that piped
// output stays clean.
func printLoadSummary(cmd *cobra.Command, r *models.LoadResult) {
	if r == nil || !r.Partial() {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "warning: partial results: %d file(s) unreadable, %d malformed line(s)\n", r.FilesFailed, r.ParseErrors)
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "  %s:%d: %s\n", e.File, e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", e.File, e.Message)
		}
	}
	if omitted := r.FilesFailed + r.ParseErrors - len(r.Errors); omitted > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", omitted)
	}
}

func formatTimePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(displayTime)
}

func formatEventTime(e models.Event, loc *time.Location) string {
	if !e.TimestampKnown {
		if e.RawTimestamp != "" {
			return e.RawTimestamp
		}
		return "unknown"
	}
	return e.Timestamp.In(loc).Format(displayTime)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

// formatBytes renders a size in the largest whole binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// bar draws a proportional bar of at most width cells.
func bar(value, maxValue, width int) string {
	if maxValue <= 0 || value <= 0 {
		return ""
	}
	n := value * width / maxValue
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
