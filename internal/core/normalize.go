// Package core contains the analytics engine for hooklens: event loading and
// normalization, session grouping, prompt-to-action workflow correlation,
// corpus metrics and search.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// eventNamespace seeds the name-based ids given to records without event_id.
var eventNamespace = uuid.MustParse("3f6c1a52-9a57-4f0e-8c55-2b1f4e0d7a10")

// actionCategories maps hook action names, with any pre_/post_ prefix
// removed, to their event category.
var actionCategories = map[string]models.Category{
	"user_prompt":      models.CategoryPrompt,
	"read_code":        models.CategoryFileRead,
	"write_code":       models.CategoryFileWrite,
	"run_command":      models.CategoryCommand,
	"mcp_tool_use":     models.CategoryMCP,
	"cascade_response": models.CategoryResponse,
	"response":         models.CategoryResponse,
}

// knownFields are the top-level record keys that map onto Event fields.
// Anything else is carried in Event.Data.
var knownFields = map[string]bool{
	"event_id":      true,
	"trajectory_id": true,
	"execution_id":  true,
	"timestamp":     true,
	"action":        true,
	"category":      true,
	"type":          true,
	"phase":         true,
	"user":          true,
	"hostname":      true,
	"system":        true,
	"data":          true,
}

// naiveLayouts are ISO-8601 forms without a zone offset. They are read as
// local time.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an RFC 3339 or naive ISO-8601 timestamp.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SplitAction strips the pre_/post_ phase prefix from a hook action name.
func SplitAction(action string) (phase, base string) {
	for _, p := range []string{"pre", "post"} {
		if rest, ok := strings.CutPrefix(action, p+"_"); ok {
			return p, rest
		}
	}
	return "", action
}

// CategoryFor derives the category of an action name, falling back to the
// record's declared category.
func CategoryFor(action, declared string) models.Category {
	if action != "" {
		_, base := SplitAction(action)
		if c, ok := actionCategories[base]; ok {
			return c
		}
	}
	if declared != "" {
		if c := models.Category(declared); c.Valid() {
			return c
		}
		_, base := SplitAction(declared)
		if c, ok := actionCategories[base]; ok {
			return c
		}
	}
	return models.CategoryUnknown
}

// NormalizeRecord converts one decoded JSONL record into an Event.
// raw is the original line and seeds the id of records that carry none.
func NormalizeRecord(record map[string]any, raw, sourceFile string, loc *time.Location) models.Event {
	e := models.Event{
		EventID:      stringField(record, "event_id"),
		TrajectoryID: stringField(record, "trajectory_id"),
		ExecutionID:  stringField(record, "execution_id"),
		RawTimestamp: stringField(record, "timestamp"),
		Action:       stringField(record, "action"),
		Phase:        stringField(record, "phase"),
		User:         stringField(record, "user"),
		Hostname:     stringField(record, "hostname"),
		SourceFile:   sourceFile,
	}

	declared := stringField(record, "category")
	if declared == "" {
		declared = stringField(record, "type")
	}
	e.Category = CategoryFor(e.Action, declared)

	if e.Phase == "" || e.Phase == "unknown" {
		if phase, _ := SplitAction(e.Action); phase != "" {
			e.Phase = phase
		}
	}

	if system, ok := record["system"].(map[string]any); ok {
		if e.User == "" {
			e.User = stringField(system, "username")
		}
		if e.Hostname == "" {
			e.Hostname = stringField(system, "hostname")
		}
	}

	e.Timestamp, e.TimestampKnown = ParseTimestamp(e.RawTimestamp, loc)

	data := map[string]any{}
	if payload, ok := record["data"].(map[string]any); ok {
		for k, v := range payload {
			data[k] = v
		}
	}
	for k, v := range record {
		if knownFields[k] {
			continue
		}
		if _, exists := data[k]; !exists {
			data[k] = v
		}
	}
	if len(data) > 0 {
		e.Data = data
	}

	if e.EventID == "" {
		e.EventID = uuid.NewSHA1(eventNamespace, []byte(raw)).String()
	}
	return e
}

// ParseLine decodes one JSONL line into an Event.
func ParseLine(line, sourceFile string, loc *time.Location) (models.Event, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return models.Event{}, fmt.Errorf("decoding record: %w", err)
	}
	if record == nil {
		return models.Event{}, fmt.Errorf("decoding record: not a JSON object")
	}
	return NormalizeRecord(record, line, sourceFile, loc), nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
