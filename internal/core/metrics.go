package core

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// Default ranking sizes.
const (
	DefaultTopFiles    = 8
	DefaultTopCommands = 6
	DefaultTopTools    = 6
)

const dayLayout = "2006-01-02"

// Aggregator computes corpus metrics in a single pass.
type Aggregator struct {
	loc         *time.Location
	now         func() time.Time
	topFiles    int
	topCommands int
	topTools    int
}

// NewAggregator creates an Aggregator. Hour, weekday and calendar-day
// buckets are computed in loc; now anchors the last-seven-days window.
func NewAggregator(cfg models.MetricsConfig, loc *time.Location, now func() time.Time) *Aggregator {
	a := &Aggregator{
		loc:         loc,
		now:         now,
		topFiles:    cfg.TopFiles,
		topCommands: cfg.TopCommands,
		topTools:    cfg.TopTools,
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.topFiles <= 0 {
		a.topFiles = DefaultTopFiles
	}
	if a.topCommands <= 0 {
		a.topCommands = DefaultTopCommands
	}
	if a.topTools <= 0 {
		a.topTools = DefaultTopTools
	}
	return a
}

// Aggregate computes a MetricsSnapshot over events. Weekday buckets use the
// ISO convention, Monday = 0 through Sunday = 6.
func (a *Aggregator) Aggregate(events []models.Event) models.MetricsSnapshot {
	snap := models.MetricsSnapshot{Categories: make(map[models.Category]int)}

	today := a.now().In(a.loc)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, a.loc)
	dayIndex := make(map[string]int, 7)
	snap.LastSevenDays = make([]models.DayCount, 7)
	for i := range 7 {
		key := midnight.AddDate(0, 0, i-6).Format(dayLayout)
		snap.LastSevenDays[i] = models.DayCount{Date: key}
		dayIndex[key] = i
	}

	files := newRankCounter()
	commands := newRankCounter()
	tools := newRankCounter()
	sessions := make(map[string]bool)
	users := make(map[string]bool)

	for _, e := range events {
		snap.TotalEvents++
		snap.Categories[e.Category]++
		if e.TrajectoryID != "" {
			sessions[e.TrajectoryID] = true
		}
		if e.User != "" {
			users[e.User] = true
		}

		if e.TimestampKnown {
			t := e.Timestamp.In(a.loc)
			snap.Hourly[t.Hour()]++
			snap.Weekday[(int(t.Weekday())+6)%7]++
			if i, ok := dayIndex[t.Format(dayLayout)]; ok {
				snap.LastSevenDays[i].Count++
			}
			if snap.DateRange.Start == nil || t.Before(*snap.DateRange.Start) {
				snap.DateRange.Start = &t
			}
			if snap.DateRange.End == nil || t.After(*snap.DateRange.End) {
				snap.DateRange.End = &t
			}
		}

		switch e.Category {
		case models.CategoryFileWrite:
			if fp := e.DataString("file_path"); fp != "" {
				files.add(baseName(fp))
			}
			added, removed := lineDelta(e)
			snap.LinesAdded += added
			snap.LinesRemoved += removed
		case models.CategoryCommand:
			if name := CommandName(e); name != "" {
				commands.add(name)
			}
		case models.CategoryMCP:
			if tool := e.DataString("mcp_tool_name"); tool != "" {
				tools.add(tool)
			}
		}
	}

	snap.TopFiles = files.top(a.topFiles)
	snap.TopCommands = commands.top(a.topCommands)
	snap.TopMCPTools = tools.top(a.topTools)
	snap.SessionCount = len(sessions)
	snap.UserCount = len(users)
	snap.AvgEventsPerSession = float64(snap.TotalEvents) / float64(max(snap.SessionCount, 1))
	return snap
}

// CommandName returns the program name of a command event.
func CommandName(e models.Event) string {
	if name := e.DataString("command_name"); name != "" {
		return name
	}
	fields := strings.Fields(e.DataString("command_line"))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// lineDelta reads the recorded line totals of a file_write event, counting
// them from the edit list when the totals are absent.
func lineDelta(e models.Event) (added, removed int) {
	a, okA := numberField(e.Data, "total_lines_added")
	r, okR := numberField(e.Data, "total_lines_removed")
	if okA || okR {
		return a, r
	}

	edits, _ := e.Data["edits"].([]any)
	for _, raw := range edits {
		edit, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		oldStr, _ := edit["old_string"].(string)
		newStr, _ := edit["new_string"].(string)
		removed += countLines(oldStr)
		added += countLines(newStr)
	}
	return added, removed
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func numberField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// rankCounter counts names and ranks them by count, ties in first-seen order.
type rankCounter struct {
	counts map[string]int
	order  []string
}

func newRankCounter() *rankCounter {
	return &rankCounter{counts: make(map[string]int)}
}

func (c *rankCounter) add(name string) {
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *rankCounter) top(n int) []models.RankedCount {
	ranked := make([]models.RankedCount, 0, len(c.order))
	for _, name := range c.order {
		ranked = append(ranked, models.RankedCount{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
