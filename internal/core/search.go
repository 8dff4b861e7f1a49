package core

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// SearchErrorKind classifies search failures.
type SearchErrorKind string

const (
	InvalidPattern SearchErrorKind = "invalid_pattern"
)

// SearchError reports a query that could not be evaluated. No partial
// results accompany it.
type SearchError struct {
	Kind    SearchErrorKind
	Pattern string
	Err     error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Pattern, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Search returns the events matching every predicate of q, in input order.
// Text is matched case-insensitively against SearchableText, either as a
// substring or, when q.Regex is set, as a regular expression.
func Search(events []models.Event, q models.SearchQuery) ([]models.Event, error) {
	match, err := textMatcher(q)
	if err != nil {
		return nil, err
	}

	results := []models.Event{}
	for _, e := range events {
		if !matchesFilters(e, q) {
			continue
		}
		if match != nil && !match(SearchableText(e)) {
			continue
		}
		results = append(results, e)
	}
	return results, nil
}

func textMatcher(q models.SearchQuery) (func(string) bool, error) {
	if q.Text == "" {
		return nil, nil
	}
	if q.Regex {
		re, err := regexp.Compile("(?i)" + q.Text)
		if err != nil {
			return nil, &SearchError{Kind: InvalidPattern, Pattern: q.Text, Err: err}
		}
		return re.MatchString, nil
	}
	needle := strings.ToLower(q.Text)
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}, nil
}

func matchesFilters(e models.Event, q models.SearchQuery) bool {
	if q.Category != "" && e.Category != q.Category {
		return false
	}
	if q.User != "" && e.User != q.User {
		return false
	}
	if q.Session != "" && e.SessionKey() != q.Session {
		return false
	}
	if q.DateFrom != nil || q.DateTo != nil {
		if !e.TimestampKnown {
			return false
		}
		if q.DateFrom != nil && e.Timestamp.Before(*q.DateFrom) {
			return false
		}
		if q.DateTo != nil && e.Timestamp.After(*q.DateTo) {
			return false
		}
	}
	if q.FileExt != "" && !strings.EqualFold(FileExtension(e), strings.TrimPrefix(q.FileExt, ".")) {
		return false
	}
	if q.CommandName != "" && CommandName(e) != q.CommandName {
		return false
	}
	return true
}

// FileExtension returns the extension of a file event's path without the dot.
func FileExtension(e models.Event) string {
	if ext := e.DataString("file_extension"); ext != "" {
		return strings.TrimPrefix(ext, ".")
	}
	fp := e.DataString("file_path")
	if fp == "" {
		return ""
	}
	return strings.TrimPrefix(filepath.Ext(baseName(fp)), ".")
}

// SearchableText renders the fields of an event that text search looks at.
func SearchableText(e models.Event) string {
	parts := []string{string(e.Category), e.Action}
	for _, key := range []string{
		"user_prompt", "content", "file_path", "command_line",
		"mcp_server_name", "mcp_tool_name", "raw",
	} {
		if v := e.DataString(key); v != "" {
			parts = append(parts, v)
		}
	}
	if edits, ok := e.Data["edits"].([]any); ok {
		for _, raw := range edits {
			edit, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"old_string", "new_string"} {
				if s, _ := edit[key].(string); s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	if info, ok := e.Data["raw_tool_info"]; ok && info != nil {
		if b, err := json.Marshal(info); err == nil {
			parts = append(parts, string(b))
		}
	}
	return strings.Join(parts, "\n")
}

// Describe returns a one-line summary of an event for tabular output.
func Describe(e models.Event) string {
	var s string
	switch e.Category {
	case models.CategoryPrompt:
		s = e.DataString("user_prompt")
		if s == "" {
			s = e.DataString("content")
		}
	case models.CategoryFileRead, models.CategoryFileWrite:
		s = e.DataString("file_path")
	case models.CategoryCommand:
		s = e.DataString("command_line")
	case models.CategoryMCP:
		s = e.DataString("mcp_full_tool")
		if s == "" {
			s = e.DataString("mcp_tool_name")
		}
	case models.CategoryResponse:
		s = e.DataString("content")
	}
	if s == "" {
		s = e.Action
	}
	s = strings.Join(strings.Fields(s), " ")
	const maxLen = 80
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen-3]) + "..."
	}
	return s
}

// ParseDateBound parses a search date. A date-only upper bound covers the
// whole day.
func ParseDateBound(raw string, upper bool, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(dayLayout, raw, loc); err == nil {
		if upper {
			d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &d, nil
	}
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", raw)
	}
	return &t, nil
}
