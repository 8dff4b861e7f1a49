package models

import "time"

// SearchQuery holds the predicates applied by a search. Empty fields match
// everything.
type SearchQuery struct {
	Text        string     `json:"text,omitempty" yaml:"text,omitempty"`
	Regex       bool       `json:"regex,omitempty" yaml:"regex,omitempty"`
	Category    Category   `json:"category,omitempty" yaml:"category,omitempty"`
	User        string     `json:"user,omitempty" yaml:"user,omitempty"`
	Session     string     `json:"session,omitempty" yaml:"session,omitempty"`
	DateFrom    *time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	FileExt     string     `json:"file_ext,omitempty" yaml:"file_ext,omitempty"`
	CommandName string     `json:"command_name,omitempty" yaml:"command_name,omitempty"`
}

// SearchPage is one page of search results. Total counts every match before
// the page limit was applied.
type SearchPage struct {
	Events []Event `json:"events" yaml:"events"`
	Total  int     `json:"total" yaml:"total"`
}
