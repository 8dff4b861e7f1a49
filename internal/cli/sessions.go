package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

var (
	sessionsSort   string
	sessionsLimit  int
	sessionsEvents bool
)

// sessionSummary is the machine-readable form of one session row.
type sessionSummary struct {
	ID          string                  `json:"id" yaml:"id"`
	EventCount  int                     `json:"event_count" yaml:"event_count"`
	PromptCount int                     `json:"prompt_count" yaml:"prompt_count"`
	StartTime   *time.Time              `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime     *time.Time              `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Categories  map[models.Category]int `json:"categories" yaml:"categories"`
	Events      []models.Event          `json:"events,omitempty" yaml:"events,omitempty"`
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions grouped by trajectory id",
	Long: `Group hook events into sessions by trajectory id. Events without one
are collected in the no_session bucket.

Sessions are listed most recent first; use --sort prompts to rank them by
the number of user prompts instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionsSort != "recent" && sessionsSort != "prompts" {
			return fmt.Errorf("invalid --sort %q: must be recent or prompts", sessionsSort)
		}

		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		sessions, result, err := engine.Sessions(ctx, flagFiles)
		if err != nil {
			return err
		}
		printLoadSummary(cmd, result)

		if sessionsSort == "prompts" {
			core.SortSessionsByPrompts(sessions)
		}
		if sessionsLimit > 0 && len(sessions) > sessionsLimit {
			sessions = sessions[:sessionsLimit]
		}

		summaries := make([]sessionSummary, len(sessions))
		for i, s := range sessions {
			summaries[i] = sessionSummary{
				ID:          s.ID,
				EventCount:  s.EventCount,
				PromptCount: s.PromptCount(),
				StartTime:   s.StartTime,
				EndTime:     s.EndTime,
				Categories:  s.Categories,
			}
			if sessionsEvents {
				summaries[i].Events = s.Events
			}
		}

		loc := engine.TimeLocation()
		return render(cmd, summaries, func(w io.Writer) {
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions found.")
				return
			}
			t := newTable("SESSION", "EVENTS", "PROMPTS", "START", "END", "DURATION")
			for _, s := range sessions {
				t.Row(shortID(s.ID), strconv.Itoa(s.EventCount), strconv.Itoa(s.PromptCount()),
					formatTimePtr(s.StartTime, loc), formatTimePtr(s.EndTime, loc), formatDuration(s.Duration()))
			}
			fmt.Fprintln(w, t.Render())
			fmt.Fprintf(w, "%d session(s), %d event(s)\n", len(sessions), len(result.Events))
		})
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsSort, "sort", "recent", "Session order: recent or prompts")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 0, "Maximum number of sessions to list (0 lists all)")
	sessionsCmd.Flags().BoolVar(&sessionsEvents, "events", false, "Include every event in json/yaml output")
	_ = sessionsCmd.RegisterFlagCompletionFunc("sort", completeSessionSorts)
	rootCmd.AddCommand(sessionsCmd)
}
