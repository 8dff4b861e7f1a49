package models

import "time"

// Category classifies an event by the kind of activity it records.
type Category string

const (
	CategoryPrompt    Category = "prompt"
	CategoryFileRead  Category = "file_read"
	CategoryFileWrite Category = "file_write"
	CategoryCommand   Category = "command"
	CategoryMCP       Category = "mcp"
	CategoryResponse  Category = "response"
	CategoryUnknown   Category = "unknown"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryPrompt,
	CategoryFileRead,
	CategoryFileWrite,
	CategoryCommand,
	CategoryMCP,
	CategoryResponse,
	CategoryUnknown,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// NoSession is the bucket id for events that carry no trajectory id.
const NoSession = "no_session"

// Event is one normalized hook-log record.
type Event struct {
	EventID        string         `json:"event_id" yaml:"event_id"`
	TrajectoryID   string         `json:"trajectory_id,omitempty" yaml:"trajectory_id,omitempty"`
	ExecutionID    string         `json:"execution_id,omitempty" yaml:"execution_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp" yaml:"timestamp"`
	RawTimestamp   string         `json:"raw_timestamp,omitempty" yaml:"raw_timestamp,omitempty"`
	TimestampKnown bool           `json:"timestamp_known" yaml:"timestamp_known"`
	Action         string         `json:"action,omitempty" yaml:"action,omitempty"`
	Phase          string         `json:"phase,omitempty" yaml:"phase,omitempty"`
	Category       Category       `json:"category" yaml:"category"`
	User           string         `json:"user,omitempty" yaml:"user,omitempty"`
	Hostname       string         `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	SourceFile     string         `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	Data           map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// SessionKey returns the trajectory id, or NoSession when the event is unassigned.
func (e Event) SessionKey() string {
	if e.TrajectoryID == "" {
		return NoSession
	}
	return e.TrajectoryID
}

// IsPrompt reports whether the event is a user prompt.
func (e Event) IsPrompt() bool {
	return e.Category == CategoryPrompt
}

// DataString returns Data[key] when it is a string, or "".
func (e Event) DataString(key string) string {
	if e.Data == nil {
		return ""
	}
	s, _ := e.Data[key].(string)
	return s
}

// Before orders events chronologically. Events with an unknown timestamp sort
// after every event with a known one.
func (e Event) Before(other Event) bool {
	if e.TimestampKnown != other.TimestampKnown {
		return e.TimestampKnown
	}
	if !e.TimestampKnown {
		return false
	}
	return e.Timestamp.Before(other.Timestamp)
}

// LoadError describes one soft failure encountered while loading the corpus.
// Line is zero for whole-file failures.
type LoadError struct {
	File    string `json:"file" yaml:"file"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// LoadResult carries the events read from storage together with the soft
// errors that were absorbed while reading them.
type LoadResult struct {
	Events      []Event     `json:"events" yaml:"events"`
	FilesLoaded int         `json:"files_loaded" yaml:"files_loaded"`
	FilesFailed int         `json:"files_failed" yaml:"files_failed"`
	ParseErrors int         `json:"parse_errors" yaml:"parse_errors"`
	Duplicates  int         `json:"duplicates" yaml:"duplicates"`
	Errors      []LoadError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Partial reports whether some of the requested data could not be read.
func (r *LoadResult) Partial() bool {
	return r.FilesFailed > 0 || r.ParseErrors > 0
}
