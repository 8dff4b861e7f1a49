package models

import "time"

// LoadConfig controls how the corpus is read from storage.
type LoadConfig struct {
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxLineBytes int `yaml:"max_line_bytes" mapstructure:"max_line_bytes"`
}

// WorkflowConfig tunes prompt-to-action correlation.
type WorkflowConfig struct {
	PromptWindow time.Duration `yaml:"prompt_window" mapstructure:"prompt_window"`
}

// MetricsConfig sets ranking sizes and the time zone used for histograms.
type MetricsConfig struct {
	TopFiles    int    `yaml:"top_files" mapstructure:"top_files"`
	TopCommands int    `yaml:"top_commands" mapstructure:"top_commands"`
	TopTools    int    `yaml:"top_tools" mapstructure:"top_tools"`
	Timezone    string `yaml:"timezone" mapstructure:"timezone"`
}

// SearchConfig bounds search result pages.
type SearchConfig struct {
	Limit    int `yaml:"limit" mapstructure:"limit"`
	MaxLimit int `yaml:"max_limit" mapstructure:"max_limit"`
}

// AlertConfig holds corpus health alert thresholds.
type AlertConfig struct {
	MaxParseErrorRatio float64 `yaml:"max_parse_error_ratio" mapstructure:"max_parse_error_ratio"`
	MaxUnassignedRatio float64 `yaml:"max_unassigned_ratio" mapstructure:"max_unassigned_ratio"`
	StaleDays          int     `yaml:"stale_days" mapstructure:"stale_days"`
}

// Config holds all settings read from .hooklens.yaml and the environment.
type Config struct {
	Storage        StorageConfig  `yaml:"storage" mapstructure:"storage"`
	StorageTimeout time.Duration  `yaml:"storage_timeout" mapstructure:"storage_timeout"`
	Load           LoadConfig     `yaml:"load" mapstructure:"load"`
	Workflow       WorkflowConfig `yaml:"workflow" mapstructure:"workflow"`
	Metrics        MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Search         SearchConfig   `yaml:"search" mapstructure:"search"`
	Alerts         AlertConfig    `yaml:"alerts" mapstructure:"alerts"`
	LogLevel       string         `yaml:"log_level" mapstructure:"log_level"`
}
