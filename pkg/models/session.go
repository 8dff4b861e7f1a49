package models

import "time"

// Session groups the events that share one trajectory id, or the synthetic
// NoSession bucket.
type Session struct {
	ID         string           `json:"id" yaml:"id"`
	Events     []Event          `json:"events" yaml:"events"`
	StartTime  *time.Time       `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime    *time.Time       `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	EventCount int              `json:"event_count" yaml:"event_count"`
	Categories map[Category]int `json:"categories" yaml:"categories"`
}

// PromptCount returns the number of prompt events in the session.
func (s Session) PromptCount() int {
	return s.Categories[CategoryPrompt]
}

// Duration returns the time between the first and last known timestamps.
func (s Session) Duration() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}

// WorkflowGroup is one prompt and the actions attributed to it. Prompt is nil
// for actions that no prompt could be attributed to.
type WorkflowGroup struct {
	Prompt  *Event  `json:"prompt" yaml:"prompt"`
	Actions []Event `json:"actions" yaml:"actions"`
}

// SharedAnchor is a prompt that anchors workflow groups in more than one session.
type SharedAnchor struct {
	Prompt   Event    `json:"prompt" yaml:"prompt"`
	Sessions []string `json:"sessions" yaml:"sessions"`
}
