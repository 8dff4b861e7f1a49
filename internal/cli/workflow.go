package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow [session-id]",
	Short: "Show which prompt triggered which actions",
	Long: `Attribute the actions of a session to the user prompts that most
plausibly triggered them.

Prompts often arrive without a trajectory id, so they are matched by time:
each action belongs to the nearest prompt before it. For a session, only
prompts in the five minutes before its first action are considered.

Without a session id, or with no_session, the whole corpus is correlated.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeSessionIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := models.NoSession
		if len(args) == 1 {
			target = args[0]
		}

		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		groups, result, err := engine.Workflow(ctx, flagFiles, target)
		if err != nil {
			return err
		}
		printLoadSummary(cmd, result)

		loc := engine.TimeLocation()
		return render(cmd, groups, func(w io.Writer) {
			if len(groups) == 0 {
				fmt.Fprintf(w, "No workflow found for session %s.\n", target)
				return
			}
			for i, g := range groups {
				if i > 0 {
					fmt.Fprintln(w)
				}
				if g.Prompt != nil {
					fmt.Fprintf(w, "PROMPT  %s  %s\n", formatEventTime(*g.Prompt, loc), core.Describe(*g.Prompt))
				} else {
					fmt.Fprintln(w, "PROMPT  (none: actions before any prompt)")
				}
				for _, a := range g.Actions {
					fmt.Fprintf(w, "  %s  %-10s  %s\n", formatEventTime(a, loc), a.Category, core.Describe(a))
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)
}
