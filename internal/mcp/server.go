// Package mcp provides an MCP (Model Context Protocol) server that exposes
// hooklens queries as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/internal/storage"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// Server wraps the query engine and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	engine      *core.Engine
	alertEngine observability.AlertEngine
	// files is the default file selection; empty means every file.
	files []string
}

// NewServer creates a new MCP server over engine. alertEngine may be nil,
// in which case get_alerts reports that alerting is unavailable.
func NewServer(engine *core.Engine, alertEngine observability.AlertEngine, files []string, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine:      engine,
		alertEngine: alertEngine,
		files:       files,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "hooklens", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listFilesInput struct{}

type fileOutput struct {
	Path             string `json:"path"`
	Name             string `json:"name"`
	Size             int64  `json:"size"`
	Modified         string `json:"modified"`
	Type             string `json:"type"`
	EstimatedEntries int    `json:"estimated_entries"`
}

type listFilesOutput struct {
	Location string       `json:"location"`
	Files    []fileOutput `json:"files"`
	Count    int          `json:"count"`
}

type listSessionsInput struct {
	Files []string `json:"files,omitempty" jsonschema:"log files to read; defaults to every file at the storage location"`
	Sort  string   `json:"sort,omitempty" jsonschema:"session order: recent (default) or prompts"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of sessions to return; 0 returns all"`
}

type sessionOutput struct {
	ID          string         `json:"id"`
	EventCount  int            `json:"event_count"`
	PromptCount int            `json:"prompt_count"`
	StartTime   string         `json:"start_time,omitempty"`
	EndTime     string         `json:"end_time,omitempty"`
	Categories  map[string]int `json:"categories"`
}

type listSessionsOutput struct {
	Sessions []sessionOutput `json:"sessions"`
	Count    int             `json:"count"`
	Load     loadOutput      `json:"load"`
}

type getWorkflowInput struct {
	SessionID string   `json:"session_id" jsonschema:"the trajectory id of a session, or no_session for unassigned events"`
	Files     []string `json:"files,omitempty" jsonschema:"log files to read; defaults to every file at the storage location"`
}

type eventOutput struct {
	EventID      string `json:"event_id"`
	TrajectoryID string `json:"trajectory_id,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Category     string `json:"category"`
	Action       string `json:"action,omitempty"`
	User         string `json:"user,omitempty"`
	Summary      string `json:"summary"`
}

type workflowGroupOutput struct {
	Prompt  *eventOutput  `json:"prompt,omitempty"`
	Actions []eventOutput `json:"actions"`
}

type getWorkflowOutput struct {
	SessionID string                `json:"session_id"`
	Groups    []workflowGroupOutput `json:"groups"`
	Load      loadOutput            `json:"load"`
}

type getMetricsInput struct {
	Files []string `json:"files,omitempty" jsonschema:"log files to read; defaults to every file at the storage location"`
}

type rankedOutput struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type dayOutput struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type metricsOutput struct {
	TotalEvents         int            `json:"total_events"`
	Categories          map[string]int `json:"categories"`
	Hourly              []int          `json:"hourly"`
	Weekday             []int          `json:"weekday"`
	LastSevenDays       []dayOutput    `json:"last_seven_days"`
	TopFiles            []rankedOutput `json:"top_files"`
	TopCommands         []rankedOutput `json:"top_commands"`
	TopMCPTools         []rankedOutput `json:"top_mcp_tools"`
	LinesAdded          int            `json:"lines_added"`
	LinesRemoved        int            `json:"lines_removed"`
	SessionCount        int            `json:"session_count"`
	UserCount           int            `json:"user_count"`
	AvgEventsPerSession float64        `json:"avg_events_per_session"`
	Start               string         `json:"start,omitempty"`
	End                 string         `json:"end,omitempty"`
	Load                loadOutput     `json:"load"`
}

type searchEventsInput struct {
	Text     string   `json:"text,omitempty" jsonschema:"text to look for; case-insensitive"`
	Regex    bool     `json:"regex,omitempty" jsonschema:"treat text as a regular expression"`
	Category string   `json:"category,omitempty" jsonschema:"prompt, file_read, file_write, command, mcp, response or unknown"`
	User     string   `json:"user,omitempty" jsonschema:"exact user name"`
	Session  string   `json:"session,omitempty" jsonschema:"trajectory id, or no_session"`
	From     string   `json:"from,omitempty" jsonschema:"earliest timestamp, RFC 3339 or YYYY-MM-DD"`
	To       string   `json:"to,omitempty" jsonschema:"latest timestamp, RFC 3339 or YYYY-MM-DD (inclusive through the day)"`
	Ext      string   `json:"ext,omitempty" jsonschema:"file extension of the touched file, e.g. go"`
	Command  string   `json:"command,omitempty" jsonschema:"first word of the executed command, e.g. git"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of events to return"`
	Files    []string `json:"files,omitempty" jsonschema:"log files to read; defaults to every file at the storage location"`
}

type searchEventsOutput struct {
	Events []eventOutput `json:"events"`
	Total  int           `json:"total"`
	Load   loadOutput    `json:"load"`
}

type getAlertsInput struct {
	Files []string `json:"files,omitempty" jsonschema:"log files to read; defaults to every file at the storage location"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// loadOutput tells the caller whether the answer is built on partial data.
type loadOutput struct {
	FilesLoaded int  `json:"files_loaded"`
	FilesFailed int  `json:"files_failed"`
	ParseErrors int  `json:"parse_errors"`
	Duplicates  int  `json:"duplicates"`
	Partial     bool `json:"partial"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_files",
		Description: "List the hook log files at the storage location, newest first, with size and estimated entry count.",
	}, s.handleListFiles)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_sessions",
		Description: "Group hook events into sessions by trajectory id. Unassigned events form the no_session bucket.",
	}, s.handleListSessions)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_workflow",
		Description: "Attribute actions in a session to the user prompts that most plausibly triggered them.",
	}, s.handleGetWorkflow)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Aggregate the corpus: category counts, hourly and weekday histograms, top files, commands and MCP tools, line deltas.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "search_events",
		Description: "Search hook events by text or regex with optional category, user, session, date, extension and command filters. Newest first.",
	}, s.handleSearchEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate corpus health alerts (unreadable files, malformed records, stale logs, unassigned actions).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListFiles(ctx context.Context, _ *gomcp.CallToolRequest, _ listFilesInput) (*gomcp.CallToolResult, listFilesOutput, error) {
	files, err := s.engine.ListFiles(ctx)
	if err != nil {
		return failure("listing files", err), listFilesOutput{}, nil
	}

	out := listFilesOutput{
		Location: s.engine.Location(),
		Files:    make([]fileOutput, len(files)),
		Count:    len(files),
	}
	for i, f := range files {
		out.Files[i] = fileOutput{
			Path:             f.Path,
			Name:             f.Name,
			Size:             f.Size,
			Modified:         formatTime(f.Modified),
			Type:             f.Type,
			EstimatedEntries: f.EstimatedEntryCount,
		}
	}
	return nil, out, nil
}

func (s *Server) handleListSessions(ctx context.Context, _ *gomcp.CallToolRequest, input listSessionsInput) (*gomcp.CallToolResult, listSessionsOutput, error) {
	if input.Sort != "" && input.Sort != "recent" && input.Sort != "prompts" {
		return errorResult(fmt.Sprintf("invalid sort %q: must be recent or prompts", input.Sort)), listSessionsOutput{}, nil
	}

	sessions, result, err := s.engine.Sessions(ctx, s.selectFiles(input.Files))
	if err != nil {
		return failure("loading sessions", err), listSessionsOutput{}, nil
	}
	if input.Sort == "prompts" {
		core.SortSessionsByPrompts(sessions)
	}
	if input.Limit > 0 && len(sessions) > input.Limit {
		sessions = sessions[:input.Limit]
	}

	out := listSessionsOutput{
		Sessions: make([]sessionOutput, len(sessions)),
		Count:    len(sessions),
		Load:     loadToOutput(result),
	}
	for i, sess := range sessions {
		out.Sessions[i] = sessionToOutput(sess)
	}
	return nil, out, nil
}

func (s *Server) handleGetWorkflow(ctx context.Context, _ *gomcp.CallToolRequest, input getWorkflowInput) (*gomcp.CallToolResult, getWorkflowOutput, error) {
	if input.SessionID == "" {
		return errorResult("session_id is required"), getWorkflowOutput{}, nil
	}

	groups, result, err := s.engine.Workflow(ctx, s.selectFiles(input.Files), input.SessionID)
	if err != nil {
		return failure("correlating workflow", err), getWorkflowOutput{}, nil
	}

	out := getWorkflowOutput{
		SessionID: input.SessionID,
		Groups:    make([]workflowGroupOutput, len(groups)),
		Load:      loadToOutput(result),
	}
	for i, g := range groups {
		group := workflowGroupOutput{Actions: make([]eventOutput, len(g.Actions))}
		if g.Prompt != nil {
			prompt := eventToOutput(*g.Prompt)
			group.Prompt = &prompt
		}
		for j, a := range g.Actions {
			group.Actions[j] = eventToOutput(a)
		}
		out.Groups[i] = group
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(ctx context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	snap, result, err := s.engine.Metrics(ctx, s.selectFiles(input.Files))
	if err != nil {
		return failure("aggregating metrics", err), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TotalEvents:         snap.TotalEvents,
		Categories:          categoriesToOutput(snap.Categories),
		Hourly:              snap.Hourly[:],
		Weekday:             snap.Weekday[:],
		LastSevenDays:       make([]dayOutput, len(snap.LastSevenDays)),
		TopFiles:            rankedToOutput(snap.TopFiles),
		TopCommands:         rankedToOutput(snap.TopCommands),
		TopMCPTools:         rankedToOutput(snap.TopMCPTools),
		LinesAdded:          snap.LinesAdded,
		LinesRemoved:        snap.LinesRemoved,
		SessionCount:        snap.SessionCount,
		UserCount:           snap.UserCount,
		AvgEventsPerSession: snap.AvgEventsPerSession,
		Load:                loadToOutput(result),
	}
	for i, d := range snap.LastSevenDays {
		out.LastSevenDays[i] = dayOutput{Date: d.Date, Count: d.Count}
	}
	if snap.DateRange.Start != nil {
		out.Start = formatTime(*snap.DateRange.Start)
	}
	if snap.DateRange.End != nil {
		out.End = formatTime(*snap.DateRange.End)
	}
	return nil, out, nil
}

func (s *Server) handleSearchEvents(ctx context.Context, _ *gomcp.CallToolRequest, input searchEventsInput) (*gomcp.CallToolResult, searchEventsOutput, error) {
	q, err := s.buildQuery(input)
	if err != nil {
		return errorResult(err.Error()), searchEventsOutput{}, nil
	}

	page, result, err := s.engine.Search(ctx, s.selectFiles(input.Files), q, input.Limit)
	if err != nil {
		var se *core.SearchError
		if errors.As(err, &se) {
			return errorResult(se.Error()), searchEventsOutput{}, nil
		}
		return failure("searching events", err), searchEventsOutput{}, nil
	}

	out := searchEventsOutput{
		Events: make([]eventOutput, len(page.Events)),
		Total:  page.Total,
		Load:   loadToOutput(result),
	}
	for i, e := range page.Events {
		out.Events[i] = eventToOutput(e)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(ctx context.Context, _ *gomcp.CallToolRequest, input getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	health, err := s.engine.Health(ctx, s.selectFiles(input.Files))
	if err != nil {
		return failure("evaluating alerts", err), getAlertsOutput{}, nil
	}
	alerts := s.alertEngine.Evaluate(health)

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: formatTime(a.TriggeredAt),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func (s *Server) selectFiles(files []string) []string {
	if len(files) > 0 {
		return files
	}
	return s.files
}

func (s *Server) buildQuery(input searchEventsInput) (models.SearchQuery, error) {
	q := models.SearchQuery{
		Text:        input.Text,
		Regex:       input.Regex,
		User:        input.User,
		Session:     input.Session,
		FileExt:     input.Ext,
		CommandName: input.Command,
	}
	if input.Category != "" {
		q.Category = models.Category(input.Category)
		if !q.Category.Valid() {
			return q, fmt.Errorf("invalid category %q", input.Category)
		}
	}

	var err error
	loc := s.engine.TimeLocation()
	if q.DateFrom, err = core.ParseDateBound(input.From, false, loc); err != nil {
		return q, fmt.Errorf("invalid from: %w", err)
	}
	if q.DateTo, err = core.ParseDateBound(input.To, true, loc); err != nil {
		return q, fmt.Errorf("invalid to: %w", err)
	}
	return q, nil
}

func eventToOutput(e models.Event) eventOutput {
	out := eventOutput{
		EventID:      e.EventID,
		TrajectoryID: e.TrajectoryID,
		Category:     string(e.Category),
		Action:       e.Action,
		User:         e.User,
		Summary:      core.Describe(e),
	}
	if e.TimestampKnown {
		out.Timestamp = formatTime(e.Timestamp)
	}
	return out
}

func sessionToOutput(sess models.Session) sessionOutput {
	out := sessionOutput{
		ID:          sess.ID,
		EventCount:  sess.EventCount,
		PromptCount: sess.PromptCount(),
		Categories:  categoriesToOutput(sess.Categories),
	}
	if sess.StartTime != nil {
		out.StartTime = formatTime(*sess.StartTime)
	}
	if sess.EndTime != nil {
		out.EndTime = formatTime(*sess.EndTime)
	}
	return out
}

func loadToOutput(r *models.LoadResult) loadOutput {
	if r == nil {
		return loadOutput{}
	}
	return loadOutput{
		FilesLoaded: r.FilesLoaded,
		FilesFailed: r.FilesFailed,
		ParseErrors: r.ParseErrors,
		Duplicates:  r.Duplicates,
		Partial:     r.Partial(),
	}
}

func categoriesToOutput(counts map[models.Category]int) map[string]int {
	out := make(map[string]int, len(counts))
	for c, n := range counts {
		out[string(c)] = n
	}
	return out
}

func rankedToOutput(ranked []models.RankedCount) []rankedOutput {
	out := make([]rankedOutput, len(ranked))
	for i, r := range ranked {
		out[i] = rankedOutput{Name: r.Name, Count: r.Count}
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		Categories: make(map[string]int),
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// failure builds an error result for a storage-backed operation, adding a
// remediation hint when the error carries a storage kind.
func failure(action string, err error) *gomcp.CallToolResult {
	msg := fmt.Sprintf("%s: %s", action, err)
	if hint := storage.Hint(err); hint != "" {
		msg += " (" + hint + ")"
	}
	return errorResult(msg)
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
