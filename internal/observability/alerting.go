package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered corpus health condition.
type Alert struct {
	ID          string        `json:"id" yaml:"id"`
	Condition   string        `json:"condition" yaml:"condition"`
	Severity    AlertSeverity `json:"severity" yaml:"severity"`
	Message     string        `json:"message" yaml:"message"`
	TriggeredAt time.Time     `json:"triggered_at" yaml:"triggered_at"`
}

// CorpusHealth is the input to alert evaluation: what a load absorbed and
// what the loaded events look like.
type CorpusHealth struct {
	Load    *models.LoadResult
	Metrics models.MetricsSnapshot
	// Unassigned counts non-prompt events without a trajectory id.
	Unassigned int
}

// DefaultAlertThresholds returns the default alert thresholds.
func DefaultAlertThresholds() models.AlertConfig {
	return models.AlertConfig{
		MaxParseErrorRatio: 0.05,
		MaxUnassignedRatio: 0.5,
		StaleDays:          7,
	}
}

// AlertEngine evaluates corpus health conditions.
type AlertEngine interface {
	Evaluate(health CorpusHealth) []Alert
}

// alertEngine implements AlertEngine by checking thresholds.
type alertEngine struct {
	thresholds models.AlertConfig
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine. A nil now uses time.Now.
func NewAlertEngine(thresholds models.AlertConfig, now func() time.Time) AlertEngine {
	if now == nil {
		now = time.Now
	}
	return &alertEngine{thresholds: thresholds, now: now}
}

// Evaluate checks all alert conditions, returning any triggered alerts in
// descending severity.
func (ae *alertEngine) Evaluate(health CorpusHealth) []Alert {
	now := ae.now().UTC()
	var alerts []Alert
	alerts = append(alerts, ae.checkUnreadableFiles(health, now)...)
	alerts = append(alerts, ae.checkParseErrors(health, now)...)
	alerts = append(alerts, ae.checkStaleCorpus(health, now)...)
	alerts = append(alerts, ae.checkUnassigned(health, now)...)
	return alerts
}

// checkUnreadableFiles fires when any selected file could not be read.
func (ae *alertEngine) checkUnreadableFiles(h CorpusHealth, now time.Time) []Alert {
	if h.Load == nil || h.Load.FilesFailed == 0 {
		return nil
	}
	return []Alert{{
		ID:          "unreadable-files",
		Condition:   "files_unreadable",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d of %d files could not be read; results are partial", h.Load.FilesFailed, h.Load.FilesFailed+h.Load.FilesLoaded),
		TriggeredAt: now,
	}}
}

// checkParseErrors fires when the share of malformed records is too high.
func (ae *alertEngine) checkParseErrors(h CorpusHealth, now time.Time) []Alert {
	if h.Load == nil || h.Load.ParseErrors == 0 {
		return nil
	}
	records := h.Load.ParseErrors + len(h.Load.Events) + h.Load.Duplicates
	ratio := float64(h.Load.ParseErrors) / float64(records)
	if ratio <= ae.thresholds.MaxParseErrorRatio {
		return nil
	}
	return []Alert{{
		ID:          "parse-errors",
		Condition:   "parse_error_ratio_exceeded",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d of %d records are malformed (%.1f%%, threshold %.1f%%)", h.Load.ParseErrors, records, ratio*100, ae.thresholds.MaxParseErrorRatio*100),
		TriggeredAt: now,
	}}
}

// checkStaleCorpus fires when the newest event is older than the threshold.
func (ae *alertEngine) checkStaleCorpus(h CorpusHealth, now time.Time) []Alert {
	end := h.Metrics.DateRange.End
	if ae.thresholds.StaleDays <= 0 || end == nil {
		return nil
	}
	threshold := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	if now.Sub(*end) <= threshold {
		return nil
	}
	return []Alert{{
		ID:          "stale-corpus",
		Condition:   "corpus_stale",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("newest event is from %s, more than %d days ago; is the hook logger still installed?", end.Format(time.DateOnly), ae.thresholds.StaleDays),
		TriggeredAt: now,
	}}
}

// checkUnassigned fires when too many actions carry no trajectory id, which
// makes session views sparse and leans on workflow correlation.
func (ae *alertEngine) checkUnassigned(h CorpusHealth, now time.Time) []Alert {
	actions := h.Metrics.TotalEvents - h.Metrics.Categories[models.CategoryPrompt]
	if actions <= 0 || h.Unassigned == 0 {
		return nil
	}
	ratio := float64(h.Unassigned) / float64(actions)
	if ratio <= ae.thresholds.MaxUnassignedRatio {
		return nil
	}
	return []Alert{{
		ID:          "unassigned-actions",
		Condition:   "unassigned_ratio_exceeded",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d of %d actions have no session (%.0f%%)", h.Unassigned, actions, ratio*100),
		TriggeredAt: now,
	}}
}
