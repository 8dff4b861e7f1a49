package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// Global flags.
var (
	flagLocation      string
	flagStorageConfig string
	flagFiles         []string
	flagFormat        string
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "hooklens",
	Short: "Query and correlate AI coding assistant hook logs",
	Long: `hooklens reads the JSONL hook logs an AI coding assistant writes for every
prompt, file access, command and MCP tool call, and answers questions about
them: which sessions ran, which prompt triggered which actions, what the
activity looks like over time, and which events match a search.

Logs can live in a local directory, an S3-compatible bucket or an Azure Blob
Storage container:

  hooklens sessions --location ~/.codeium/windsurf/logs
  hooklens metrics --location s3://team-logs/windsurf
  hooklens search --location azure://acct/logs --text "git push"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch flagFormat {
		case formatTable, formatJSON, formatYAML:
			return nil
		default:
			return fmt.Errorf("invalid --format %q: must be table, json or yaml", flagFormat)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hooklens %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagLocation, "location", "l", "", "Log location: a directory, s3://bucket/prefix or azure://account/container/path")
	pf.StringVar(&flagStorageConfig, "storage-config", "", "Path to a JSON storage config (type, bucket, container, credentials)")
	pf.StringArrayVarP(&flagFiles, "file", "f", nil, "Log file to read; repeatable. Defaults to every file at the location")
	pf.StringVarP(&flagFormat, "format", "o", formatTable, "Output format: table, json or yaml")
	rootCmd.MarkFlagsMutuallyExclusive("location", "storage-config")

	_ = rootCmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = rootCmd.RegisterFlagCompletionFunc("file", completeFileNames)

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. An interrupt cancels in-flight storage reads.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
