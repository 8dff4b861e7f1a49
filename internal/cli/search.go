package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

var (
	searchText     string
	searchRegex    bool
	searchCategory string
	searchUser     string
	searchSession  string
	searchFrom     string
	searchTo       string
	searchExt      string
	searchCommand  string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search hook events",
	Long: `Search hook events by text with optional filters. Text matching is
case-insensitive and covers prompts, file paths, commands, MCP tool names,
edit contents and raw tool info. With --regex the text is a regular
expression.

Dates accept RFC 3339 or YYYY-MM-DD; a date-only --to includes the whole day.
Results are listed newest first.

  hooklens search "migration"
  hooklens search --category command --command git --from 2025-03-01
  hooklens search --regex 'TODO|FIXME' --ext go`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if searchText != "" {
				return fmt.Errorf("give the search text either as an argument or with --text, not both")
			}
			searchText = args[0]
		}

		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		q, err := buildSearchQuery(engine.TimeLocation())
		if err != nil {
			return err
		}

		page, result, err := engine.Search(ctx, flagFiles, q, searchLimit)
		if err != nil {
			return err
		}
		printLoadSummary(cmd, result)

		loc := engine.TimeLocation()
		return render(cmd, page, func(w io.Writer) {
			if page.Total == 0 {
				fmt.Fprintln(w, "No matching events.")
				return
			}
			t := newTable("TIME", "CATEGORY", "SESSION", "USER", "SUMMARY")
			for _, e := range page.Events {
				t.Row(formatEventTime(e, loc), string(e.Category), shortID(e.SessionKey()), e.User, core.Describe(e))
			}
			fmt.Fprintln(w, t.Render())
			fmt.Fprintf(w, "showing %d of %d match(es)\n", len(page.Events), page.Total)
		})
	},
}

func buildSearchQuery(loc *time.Location) (models.SearchQuery, error) {
	q := models.SearchQuery{
		Text:        searchText,
		Regex:       searchRegex,
		User:        searchUser,
		Session:     searchSession,
		FileExt:     searchExt,
		CommandName: searchCommand,
	}
	if searchCategory != "" {
		q.Category = models.Category(searchCategory)
		if !q.Category.Valid() {
			return q, fmt.Errorf("invalid --category %q", searchCategory)
		}
	}

	var err error
	if q.DateFrom, err = core.ParseDateBound(searchFrom, false, loc); err != nil {
		return q, fmt.Errorf("parsing --from: %w", err)
	}
	if q.DateTo, err = core.ParseDateBound(searchTo, true, loc); err != nil {
		return q, fmt.Errorf("parsing --to: %w", err)
	}
	return q, nil
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchText, "text", "", "Text to search for")
	f.BoolVar(&searchRegex, "regex", false, "Treat the text as a regular expression")
	f.StringVar(&searchCategory, "category", "", "Only events of this category")
	f.StringVar(&searchUser, "user", "", "Only events by this user")
	f.StringVar(&searchSession, "session", "", "Only events in this session (or no_session)")
	f.StringVar(&searchFrom, "from", "", "Earliest timestamp (RFC 3339 or YYYY-MM-DD)")
	f.StringVar(&searchTo, "to", "", "Latest timestamp (RFC 3339 or YYYY-MM-DD, inclusive)")
	f.StringVar(&searchExt, "ext", "", "Only file events with this extension, e.g. go")
	f.StringVar(&searchCommand, "command", "", "Only commands whose program is this, e.g. git")
	f.IntVar(&searchLimit, "limit", 0, "Maximum number of results (defaults to search.limit)")

	_ = searchCmd.RegisterFlagCompletionFunc("category", completeCategories)
	_ = searchCmd.RegisterFlagCompletionFunc("session", completeSessionIDs)
	rootCmd.AddCommand(searchCmd)
}
