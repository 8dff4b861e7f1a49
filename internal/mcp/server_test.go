package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/internal/storage"
)

const testCorpus = `{"event_id":"p1","timestamp":"2025-03-10T10:00:00Z","action":"pre_user_prompt","data":{"user_prompt":"add tests"}}
{"event_id":"w1","trajectory_id":"A","timestamp":"2025-03-10T10:01:00Z","action":"post_write_code","data":{"file_path":"/src/a_test.go","total_lines_added":12}}
{"event_id":"c1","trajectory_id":"A","timestamp":"2025-03-10T10:02:00Z","action":"post_run_command","data":{"command_line":"go test ./..."}}
{"event_id":"p2","timestamp":"2025-03-10T11:00:00Z","action":"pre_user_prompt","data":{"user_prompt":"ship it"}}
{"event_id":"c2","trajectory_id":"B","timestamp":"2025-03-10T11:01:00Z","action":"post_run_command","data":{"command_line":"git push"}}
`

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// --- Test helpers ---

// newTestServer writes corpus to a temp directory and serves it.
func newTestServer(t *testing.T, corpus string, alerts observability.AlertEngine) *Server {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "all_events.jsonl"), []byte(corpus), 0o644); err != nil {
		t.Fatalf("writing corpus: %v", err)
	}

	cfg, err := core.NewConfigurationManager(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.Metrics.Timezone = "UTC"

	engine, err := core.NewEngine(storage.NewLocalAdapter(dir, storage.Options{}), cfg, clock, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return NewServer(engine, alerts, nil, "test")
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	result, err := call(srv, toolName, args)
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

// callToolAllowError is like callTool but returns nil instead of failing when
// the tool call returns a protocol error (e.g. schema validation failure).
func callToolAllowError(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	result, err := call(srv, toolName, args)
	if err != nil {
		return nil
	}
	return result
}

func call(srv *Server, toolName string, args map[string]any) (*gomcp.CallToolResult, error) {
	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
}

// decode unmarshals a tool result into out, preferring the text content and
// falling back to the structured content.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()

	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	}
	if result.StructuredContent == nil {
		t.Fatalf("unmarshalling output (text was: %s)", text)
	}
	data, _ := json.Marshal(result.StructuredContent)
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling structured output: %v", err)
	}
}

func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestListFiles(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	var out listFilesOutput
	decode(t, callTool(t, srv, "list_files", map[string]any{}), &out)

	if out.Count != 1 || len(out.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", out.Count)
	}
	if out.Files[0].Name != "all_events.jsonl" || out.Files[0].Type != "jsonl" {
		t.Errorf("unexpected file %+v", out.Files[0])
	}
}

func TestListSessions(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	var out listSessionsOutput
	decode(t, callTool(t, srv, "list_sessions", map[string]any{}), &out)

	if out.Count != 3 {
		t.Fatalf("expected 3 sessions, got %d", out.Count)
	}
	if out.Load.FilesLoaded != 1 || out.Load.Partial {
		t.Errorf("unexpected load summary %+v", out.Load)
	}

	decode(t, callTool(t, srv, "list_sessions", map[string]any{"sort": "prompts", "limit": 1}), &out)
	if out.Count != 1 || out.Sessions[0].ID != "no_session" {
		t.Errorf("expected no_session first by prompt count, got %+v", out.Sessions)
	}
	if out.Sessions[0].PromptCount != 2 {
		t.Errorf("expected 2 prompts, got %d", out.Sessions[0].PromptCount)
	}
}

func TestListSessionsInvalidSort(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	result := callTool(t, srv, "list_sessions", map[string]any{"sort": "alphabetical"})
	if !result.IsError {
		t.Fatal("expected error result for invalid sort")
	}
}

func TestGetWorkflow(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	var out getWorkflowOutput
	decode(t, callTool(t, srv, "get_workflow", map[string]any{"session_id": "no_session"}), &out)

	if len(out.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out.Groups))
	}
	first := out.Groups[0]
	if first.Prompt == nil || first.Prompt.EventID != "p1" {
		t.Fatalf("expected first group anchored on p1, got %+v", first.Prompt)
	}
	if len(first.Actions) != 2 || first.Actions[0].EventID != "w1" || first.Actions[1].EventID != "c1" {
		t.Errorf("unexpected actions %+v", first.Actions)
	}
	if first.Prompt.Summary != "add tests" {
		t.Errorf("prompt summary = %q", first.Prompt.Summary)
	}
}

func TestGetWorkflowMissingSession(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	result := callToolAllowError(t, srv, "get_workflow", map[string]any{})
	// Either schema validation rejects it or the handler returns an error result.
	if result != nil && !result.IsError {
		t.Fatal("expected error for missing session_id")
	}
}

func TestGetMetrics(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	var out metricsOutput
	decode(t, callTool(t, srv, "get_metrics", map[string]any{}), &out)

	if out.TotalEvents != 5 {
		t.Errorf("expected 5 events, got %d", out.TotalEvents)
	}
	if out.LinesAdded != 12 {
		t.Errorf("expected 12 lines added, got %d", out.LinesAdded)
	}
	if out.Categories["command"] != 2 {
		t.Errorf("expected 2 commands, got %d", out.Categories["command"])
	}
	if len(out.Hourly) != 24 || out.Hourly[10] != 3 {
		t.Errorf("unexpected hourly histogram %v", out.Hourly)
	}
	if out.Weekday[0] != 5 {
		t.Errorf("expected all events on Monday, got %v", out.Weekday)
	}
	if len(out.LastSevenDays) != 7 || out.LastSevenDays[6].Count != 5 {
		t.Errorf("unexpected last seven days %+v", out.LastSevenDays)
	}
}

func TestSearchEvents(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	var out searchEventsOutput
	decode(t, callTool(t, srv, "search_events", map[string]any{"text": "GIT"}), &out)

	if out.Total != 1 || len(out.Events) != 1 || out.Events[0].EventID != "c2" {
		t.Fatalf("expected only c2, got %+v", out.Events)
	}

	decode(t, callTool(t, srv, "search_events", map[string]any{"category": "prompt", "limit": 1}), &out)
	if out.Total != 2 || len(out.Events) != 1 || out.Events[0].EventID != "p2" {
		t.Errorf("expected newest prompt p2 of 2, got %d %+v", out.Total, out.Events)
	}

	decode(t, callTool(t, srv, "search_events", map[string]any{"command": "go", "to": "2025-03-10"}), &out)
	if out.Total != 1 || out.Events[0].EventID != "c1" {
		t.Errorf("expected c1, got %+v", out.Events)
	}
}

func TestSearchEventsInvalid(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"bad regex", map[string]any{"text": "(", "regex": true}},
		{"bad category", map[string]any{"category": "thoughts"}},
		{"bad date", map[string]any{"from": "last tuesday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, srv, "search_events", tt.args)
			if !result.IsError {
				t.Fatalf("expected error result, got %s", extractText(result))
			}
		})
	}
}

func TestGetAlerts(t *testing.T) {
	alerts := observability.NewAlertEngine(observability.DefaultAlertThresholds(), clock)
	srv := newTestServer(t, testCorpus+"{broken\n", alerts)

	var out getAlertsOutput
	decode(t, callTool(t, srv, "get_alerts", map[string]any{}), &out)

	if out.Count != 1 {
		t.Fatalf("expected 1 alert, got %d: %+v", out.Count, out.Alerts)
	}
	if out.Alerts[0].Condition != "parse_error_ratio_exceeded" || out.Alerts[0].Severity != "medium" {
		t.Errorf("unexpected alert %+v", out.Alerts[0])
	}
}

func TestGetAlertsDisabled(t *testing.T) {
	srv := newTestServer(t, testCorpus, nil)

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when alert engine is nil")
	}
}

func TestStorageFailureCarriesHint(t *testing.T) {
	cfg, err := core.NewConfigurationManager(t.TempDir()).Load()
	if err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "missing")
	engine, err := core.NewEngine(storage.NewLocalAdapter(missing, storage.Options{}), cfg, clock, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(engine, nil, nil, "")

	result := callTool(t, srv, "list_files", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error for missing directory")
	}
	text := extractText(result)
	if want := "check the directory"; !strings.Contains(text, want) {
		t.Errorf("expected hint %q in %q", want, text)
	}
}
