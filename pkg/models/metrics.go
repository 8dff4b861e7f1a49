package models

import "time"

// RankedCount is one entry of a top-N ranking.
type RankedCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// DayCount is the number of events on one calendar day (YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

// DateRange spans the earliest and latest known timestamps of an event set.
// Both bounds are nil for an empty set.
type DateRange struct {
	Start *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// MetricsSnapshot is a corpus-wide aggregate over one event set.
// Weekday uses ISO ordering: index 0 is Monday, 6 is Sunday.
type MetricsSnapshot struct {
	TotalEvents         int              `json:"total_events" yaml:"total_events"`
	Categories          map[Category]int `json:"categories" yaml:"categories"`
	Hourly              [24]int          `json:"hourly" yaml:"hourly"`
	Weekday             [7]int           `json:"weekday" yaml:"weekday"`
	LastSevenDays       []DayCount       `json:"last_seven_days" yaml:"last_seven_days"`
	TopFiles            []RankedCount    `json:"top_files" yaml:"top_files"`
	TopCommands         []RankedCount    `json:"top_commands" yaml:"top_commands"`
	TopMCPTools         []RankedCount    `json:"top_mcp_tools" yaml:"top_mcp_tools"`
	LinesAdded          int              `json:"lines_added" yaml:"lines_added"`
	LinesRemoved        int              `json:"lines_removed" yaml:"lines_removed"`
	SessionCount        int              `json:"session_count" yaml:"session_count"`
	UserCount           int              `json:"user_count" yaml:"user_count"`
	AvgEventsPerSession float64          `json:"avg_events_per_session" yaml:"avg_events_per_session"`
	DateRange           DateRange        `json:"date_range" yaml:"date_range"`
}
