package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

func mixedEvents() []models.Event {
	return []models.Event{
		withData(ev("e1", "10:00", models.CategoryPrompt, ""), "user_prompt", "Refactor the parser"),
		withData(ev("e2", "10:01", models.CategoryFileRead, "A"), "file_path", "/src/parser.go", "file_extension", "go"),
		withData(ev("e3", "10:02", models.CategoryFileWrite, "A"), "file_path", "/src/parser.go"),
		withData(ev("e4", "10:03", models.CategoryCommand, "A"), "command_line", "go test ./..."),
		withData(ev("e5", "10:04", models.CategoryMCP, "A"), "mcp_server_name", "github", "mcp_tool_name", "search_code"),
		withData(ev("e6", "10:05", models.CategoryResponse, "A"), "content", "Done."),
		withData(ev("e7", "10:06", models.CategoryFileWrite, "B"), "file_path", "/web/index.ts"),
		withData(ev("e8", "10:07", models.CategoryFileRead, "B"), "file_path", "/web/app.ts"),
		withData(ev("e9", "10:08", models.CategoryCommand, "B"), "command_line", "npm run build"),
		ev("e10", "10:09", models.CategoryUnknown, ""),
	}
}

func TestSearch_RegexMatchesCategoryLabel(t *testing.T) {
	results, err := Search(mixedEvents(), models.SearchQuery{Text: "file_(read|write)", Regex: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := strings.Join(eventIDs(results), ","); got != "e2,e3,e7,e8" {
		t.Errorf("results = %s, want e2,e3,e7,e8", got)
	}

	_, err = Search(mixedEvents(), models.SearchQuery{Text: "file_(read", Regex: true})
	var se *SearchError
	if !errors.As(err, &se) || se.Kind != InvalidPattern {
		t.Fatalf("expected InvalidPattern, got %v", err)
	}
}

func TestSearch_PlainText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"case insensitive", "PARSER", "e1,e2,e3"},
		{"command line", "npm run", "e9"},
		{"mcp tool", "search_code", "e5"},
		{"regex metacharacters are literal", "file_(read", ""},
		{"no match", "kubernetes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(mixedEvents(), models.SearchQuery{Text: tt.text})
			if err != nil {
				t.Fatalf("plain text search should never fail: %v", err)
			}
			if results == nil {
				t.Fatal("results should be empty, not nil")
			}
			if got := strings.Join(eventIDs(results), ","); got != tt.want {
				t.Errorf("results = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearch_Filters(t *testing.T) {
	from := at("10:02")
	to := at("10:05")
	events := mixedEvents()
	events[3].User = "dev"
	events[8].User = "dev"

	tests := []struct {
		name  string
		query models.SearchQuery
		want  string
	}{
		{"category", models.SearchQuery{Category: models.CategoryCommand}, "e4,e9"},
		{"user", models.SearchQuery{User: "dev"}, "e4,e9"},
		{"session", models.SearchQuery{Session: "B"}, "e7,e8,e9"},
		{"no session", models.SearchQuery{Session: models.NoSession}, "e1,e10"},
		{"date range inclusive", models.SearchQuery{DateFrom: &from, DateTo: &to}, "e3,e4,e5,e6"},
		{"file extension from path", models.SearchQuery{FileExt: ".ts"}, "e7,e8"},
		{"file extension recorded", models.SearchQuery{FileExt: "go"}, "e2,e3"},
		{"command name", models.SearchQuery{CommandName: "go"}, "e4"},
		{"combined", models.SearchQuery{Session: "A", Text: "parser"}, "e2,e3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(events, tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got := strings.Join(eventIDs(results), ","); got != tt.want {
				t.Errorf("results = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearch_DateFilterExcludesUnknownTimestamps(t *testing.T) {
	from := at("00:00")
	events := []models.Event{{EventID: "u"}, ev("k", "10:00", models.CategoryPrompt, "")}
	results, _ := Search(events, models.SearchQuery{DateFrom: &from})
	if got := strings.Join(eventIDs(results), ","); got != "k" {
		t.Errorf("results = %q, want k", got)
	}
}

func TestSearchableText_IncludesEditsAndToolInfo(t *testing.T) {
	e := withData(ev("w", "10:00", models.CategoryFileWrite, "A"),
		"edits", []any{map[string]any{"old_string": "oldValue", "new_string": "newValue"}},
		"raw_tool_info", map[string]any{"cwd": "/workspace/hooklens"},
	)
	text := SearchableText(e)
	for _, want := range []string{"file_write", "oldValue", "newValue", "/workspace/hooklens"} {
		if !strings.Contains(text, want) {
			t.Errorf("searchable text missing %q: %s", want, text)
		}
	}
}

func TestParseDateBound(t *testing.T) {
	to, err := ParseDateBound("2025-03-10", true, time.UTC)
	if err != nil {
		t.Fatalf("ParseDateBound: %v", err)
	}
	if !to.Equal(testDay.Add(24*time.Hour - time.Nanosecond)) {
		t.Errorf("upper date bound = %v, want end of day", to)
	}

	from, err := ParseDateBound("2025-03-10", false, time.UTC)
	if err != nil || !from.Equal(testDay) {
		t.Errorf("lower date bound = %v, %v", from, err)
	}

	exact, err := ParseDateBound("2025-03-10T12:00:00Z", true, time.UTC)
	if err != nil || !exact.Equal(testDay.Add(12*time.Hour)) {
		t.Errorf("timestamp bound = %v, %v", exact, err)
	}

	if b, err := ParseDateBound("", true, time.UTC); b != nil || err != nil {
		t.Errorf("empty bound = %v, %v", b, err)
	}
	if _, err := ParseDateBound("next tuesday", false, time.UTC); err == nil {
		t.Error("expected error for unparsable date")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		event models.Event
		want  string
	}{
		{withData(ev("p", "10:00", models.CategoryPrompt, ""), "user_prompt", "fix\n  the   build"), "fix the build"},
		{withData(ev("c", "10:00", models.CategoryCommand, ""), "command_line", "go vet"), "go vet"},
		{withData(ev("m", "10:00", models.CategoryMCP, ""), "mcp_full_tool", "github.search"), "github.search"},
		{models.Event{Action: "post_cascade_response", Category: models.CategoryResponse}, "post_cascade_response"},
	}
	for _, tt := range tests {
		if got := Describe(tt.event); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.event.EventID, got, tt.want)
		}
	}

	long := withData(ev("l", "10:00", models.CategoryPrompt, ""), "user_prompt", strings.Repeat("x", 200))
	if got := Describe(long); len([]rune(got)) != 80 || !strings.HasSuffix(got, "...") {
		t.Errorf("long description = %q", got)
	}
}
