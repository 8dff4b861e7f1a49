package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// completionTimeout bounds the storage reads done for dynamic completions.
const completionTimeout = 5 * time.Second

// completeSessionIDs lists session ids with their event counts.
func completeSessionIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), completionTimeout)
	defer cancel()

	engine, err := openEngine(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sessions, _, err := engine.Sessions(ctx, flagFiles)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, s := range sessions {
		if toComplete == "" || strings.HasPrefix(s.ID, toComplete) {
			ids = append(ids, s.ID+"\t"+strconv.Itoa(s.EventCount)+" events")
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeFileNames lists the paths of the log files at the storage location.
func completeFileNames(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ctx, cancel := context.WithTimeout(commandContext(cmd), completionTimeout)
	defer cancel()

	engine, err := openEngine(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	files, err := engine.ListFiles(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, f := range files {
		if toComplete == "" || strings.HasPrefix(f.Path, toComplete) {
			names = append(names, f.Path+"\t"+formatBytes(f.Size))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeCategories returns the event categories.
func completeCategories(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(models.AllCategories))
	for i, c := range models.AllCategories {
		out[i] = string(c)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"table\tHuman-readable tables",
		"json\tIndented JSON",
		"yaml\tYAML",
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeSessionSorts(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"recent\tMost recent activity first",
		"prompts\tMost user prompts first",
	}, cobra.ShellCompDirectiveNoFileComp
}
