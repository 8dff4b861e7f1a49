package core

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

func groupSummary(groups []models.WorkflowGroup) string {
	var parts []string
	for _, g := range groups {
		anchor := "nil"
		if g.Prompt != nil {
			anchor = g.Prompt.EventID
		}
		parts = append(parts, anchor+":"+strings.Join(eventIDs(g.Actions), "+"))
	}
	return strings.Join(parts, " ")
}

func TestCorrelate_UnassignedPromptsOwnCorpusWideActions(t *testing.T) {
	events := []models.Event{
		ev("p1", "10:00", models.CategoryPrompt, ""),
		ev("w1", "10:01", models.CategoryFileWrite, "A"),
		ev("p2", "10:05", models.CategoryPrompt, ""),
		ev("c1", "10:06", models.CategoryCommand, "A"),
	}

	groups := NewCorrelator(nil, 0).Correlate(events, models.NoSession)
	if got := groupSummary(groups); got != "p1:w1 p2:c1" {
		t.Errorf("groups = %q, want %q", got, "p1:w1 p2:c1")
	}
}

func TestCorrelate_NoSession_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		events []models.Event
		want   string
	}{
		{
			name: "empty prompt window kept",
			events: []models.Event{
				ev("p1", "10:00", models.CategoryPrompt, ""),
				ev("p2", "10:05", models.CategoryPrompt, ""),
				ev("a1", "10:06", models.CategoryCommand, "A"),
			},
			want: "p1: p2:a1",
		},
		{
			name: "actions before first prompt",
			events: []models.Event{
				ev("a0", "09:00", models.CategoryFileRead, "A"),
				ev("p1", "10:00", models.CategoryPrompt, ""),
				ev("a1", "10:01", models.CategoryFileRead, "A"),
			},
			want: "nil:a0 p1:a1",
		},
		{
			name: "action at prompt timestamp belongs to that prompt",
			events: []models.Event{
				ev("p1", "10:00", models.CategoryPrompt, ""),
				ev("p2", "10:05", models.CategoryPrompt, ""),
				ev("a1", "10:05", models.CategoryCommand, ""),
			},
			want: "p1: p2:a1",
		},
		{
			name: "unknown timestamps fall in the last window",
			events: []models.Event{
				{EventID: "u1", Category: models.CategoryCommand},
				ev("p1", "10:00", models.CategoryPrompt, ""),
				ev("p2", "10:05", models.CategoryPrompt, ""),
			},
			want: "p1: p2:u1",
		},
		{
			name: "no prompts",
			events: []models.Event{
				ev("a1", "10:00", models.CategoryCommand, "A"),
			},
			want: "nil:a1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := NewCorrelator(nil, 0).Correlate(tt.events, models.NoSession)
			if got := groupSummary(groups); got != tt.want {
				t.Errorf("groups = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorrelate_SessionWindow(t *testing.T) {
	events := []models.Event{
		ev("early", "09:50", models.CategoryPrompt, ""),
		ev("near", "10:06", models.CategoryPrompt, ""),
		ev("a1", "10:10", models.CategoryFileWrite, "S"),
		ev("a2", "10:12", models.CategoryCommand, "S"),
	}

	groups := NewCorrelator(nil, 0).Correlate(events, "S")
	if got := groupSummary(groups); got != "near:a1+a2" {
		t.Errorf("groups = %q, want prompt at 10:06 only", got)
	}
}

func TestCorrelate_SessionCases(t *testing.T) {
	tests := []struct {
		name   string
		events []models.Event
		target string
		want   string
	}{
		{
			name: "window boundary is inclusive",
			events: []models.Event{
				ev("p", "10:05", models.CategoryPrompt, ""),
				ev("a1", "10:10", models.CategoryCommand, "S"),
			},
			target: "S",
			want:   "p:a1",
		},
		{
			name: "prompt at t0 is not relevant",
			events: []models.Event{
				ev("p", "10:10", models.CategoryPrompt, ""),
				ev("a1", "10:10", models.CategoryCommand, "S"),
			},
			target: "S",
			want:   "nil:a1",
		},
		{
			name: "several relevant prompts keep only those with actions",
			events: []models.Event{
				ev("p1", "10:06", models.CategoryPrompt, ""),
				ev("p2", "10:08", models.CategoryPrompt, "S"),
				ev("a1", "10:10", models.CategoryCommand, "S"),
			},
			target: "S",
			want:   "p2:a1",
		},
		{
			name: "no relevant prompt gives pre-session group",
			events: []models.Event{
				ev("p1", "08:00", models.CategoryPrompt, ""),
				ev("a1", "10:10", models.CategoryCommand, "S"),
				ev("a2", "10:11", models.CategoryFileRead, "S"),
			},
			target: "S",
			want:   "nil:a1+a2",
		},
		{
			name: "unknown session",
			events: []models.Event{
				ev("a1", "10:10", models.CategoryCommand, "S"),
			},
			target: "missing",
			want:   "",
		},
		{
			name: "session with only prompts",
			events: []models.Event{
				ev("p1", "10:10", models.CategoryPrompt, "S"),
			},
			target: "S",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := NewCorrelator(nil, 0).Correlate(tt.events, tt.target)
			if got := groupSummary(groups); got != tt.want {
				t.Errorf("groups = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorrelate_Empty(t *testing.T) {
	c := NewCorrelator(nil, 0)
	if got := c.Correlate(nil, models.NoSession); len(got) != 0 {
		t.Errorf("empty corpus gave %d groups", len(got))
	}
	if got := c.Correlate(nil, "S"); len(got) != 0 {
		t.Errorf("empty corpus gave %d groups", len(got))
	}
}

func TestCorrelate_CustomWindow(t *testing.T) {
	events := []models.Event{
		ev("p", "09:50", models.CategoryPrompt, ""),
		ev("a1", "10:10", models.CategoryCommand, "S"),
	}
	groups := NewCorrelator(nil, 30*time.Minute).Correlate(events, "S")
	if got := groupSummary(groups); got != "p:a1" {
		t.Errorf("groups = %q, want the 20-minute-old prompt inside a 30-minute window", got)
	}
}

type everythingToFirst struct{}

func (everythingToFirst) Correlate(prompts, actions []models.Event) []models.WorkflowGroup {
	if len(prompts) == 0 {
		return nil
	}
	p := prompts[0]
	return []models.WorkflowGroup{{Prompt: &p, Actions: actions}}
}

func TestCorrelate_PluggableStrategy(t *testing.T) {
	events := []models.Event{
		ev("p1", "10:00", models.CategoryPrompt, ""),
		ev("p2", "10:05", models.CategoryPrompt, ""),
		ev("a1", "10:06", models.CategoryCommand, ""),
	}
	groups := NewCorrelator(everythingToFirst{}, 0).Correlate(events, models.NoSession)
	if got := groupSummary(groups); got != "p1:a1" {
		t.Errorf("groups = %q", got)
	}
}

func TestSharedAnchors(t *testing.T) {
	events := []models.Event{
		ev("shared", "10:08", models.CategoryPrompt, ""),
		ev("a1", "10:10", models.CategoryCommand, "A"),
		ev("b1", "10:11", models.CategoryCommand, "B"),
		ev("lonely", "12:00", models.CategoryPrompt, ""),
		ev("c1", "12:01", models.CategoryCommand, "C"),
	}

	anchors := NewCorrelator(nil, 0).SharedAnchors(events)
	if len(anchors) != 1 {
		t.Fatalf("got %d shared anchors, want 1", len(anchors))
	}
	if anchors[0].Prompt.EventID != "shared" || strings.Join(anchors[0].Sessions, ",") != "A,B" {
		t.Errorf("anchor = %+v", anchors[0])
	}
}

func TestUnassignedActions(t *testing.T) {
	events := []models.Event{
		ev("p", "10:00", models.CategoryPrompt, ""),
		ev("a", "10:01", models.CategoryCommand, ""),
		ev("b", "10:02", models.CategoryCommand, "S"),
	}
	if got := UnassignedActions(events); got != 1 {
		t.Errorf("UnassignedActions = %d, want 1", got)
	}
}
