package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
)

const testCorpus = `{"event_id":"p1","timestamp":"2025-03-10T10:00:00Z","action":"pre_user_prompt","user":"ana","data":{"user_prompt":"add tests"}}
{"event_id":"w1","trajectory_id":"A","timestamp":"2025-03-10T10:01:00Z","action":"post_write_code","user":"ana","data":{"file_path":"/src/a_test.go","total_lines_added":12}}
{"event_id":"c1","trajectory_id":"A","timestamp":"2025-03-10T10:02:00Z","action":"post_run_command","user":"ana","data":{"command_line":"go test ./..."}}
{"event_id":"p2","timestamp":"2025-03-10T11:00:00Z","action":"pre_user_prompt","user":"ana","data":{"user_prompt":"ship it"}}
{"event_id":"c2","trajectory_id":"B","timestamp":"2025-03-10T11:01:00Z","action":"post_run_command","user":"ana","data":{"command_line":"git push"}}
`

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// setupCorpus writes corpus into a temp directory and points the package
// configuration at it. Globals are restored when the test ends.
func setupCorpus(t *testing.T, corpus string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "all_events.jsonl"), []byte(corpus), 0o644); err != nil {
		t.Fatalf("writing corpus: %v", err)
	}

	cfg, err := core.NewConfigurationManager(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.Storage.Path = dir
	cfg.Metrics.Timezone = "UTC"

	origConfig, origAlerts := Config, AlertEngine
	t.Cleanup(func() {
		Config, AlertEngine = origConfig, origAlerts
	})
	Config = cfg
	AlertEngine = observability.NewAlertEngine(cfg.Alerts, func() time.Time { return testNow })
	return dir
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag of cmd and its children to its default so
// that one invocation cannot leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
