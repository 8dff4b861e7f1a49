package core

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

func TestGroupSessions(t *testing.T) {
	unknown := models.Event{EventID: "u1", TrajectoryID: "A", Category: models.CategoryCommand}
	events := []models.Event{
		ev("a2", "10:05", models.CategoryFileWrite, "A"),
		ev("p1", "10:00", models.CategoryPrompt, ""),
		unknown,
		ev("a1", "10:01", models.CategoryFileRead, "A"),
		ev("b1", "11:00", models.CategoryCommand, "B"),
	}

	sessions := GroupSessions(events)
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}

	a, ok := FindSession(sessions, "A")
	if !ok {
		t.Fatal("session A missing")
	}
	if got := strings.Join(eventIDs(a.Events), ","); got != "a1,a2,u1" {
		t.Errorf("session A order = %s, want chronological with unknown last", got)
	}
	if a.EventCount != 3 {
		t.Errorf("EventCount = %d, want 3", a.EventCount)
	}
	if !a.StartTime.Equal(at("10:01")) || !a.EndTime.Equal(at("10:05")) {
		t.Errorf("range = %v..%v", a.StartTime, a.EndTime)
	}
	if a.Categories[models.CategoryCommand] != 1 || a.Categories[models.CategoryFileRead] != 1 {
		t.Errorf("Categories = %v", a.Categories)
	}

	none, ok := FindSession(sessions, models.NoSession)
	if !ok || none.PromptCount() != 1 {
		t.Errorf("no_session bucket = %+v", none)
	}
}

func TestGroupSessions_OnlyUnknownTimestamps(t *testing.T) {
	sessions := GroupSessions([]models.Event{{EventID: "x", TrajectoryID: "T"}})
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions", len(sessions))
	}
	if sessions[0].StartTime != nil || sessions[0].EndTime != nil {
		t.Error("range should be empty when no timestamp is known")
	}
	if sessions[0].Duration() != 0 {
		t.Error("duration should be zero without timestamps")
	}
}

func TestGroupSessions_Empty(t *testing.T) {
	if got := GroupSessions(nil); len(got) != 0 {
		t.Errorf("got %d sessions for empty input", len(got))
	}
}

func TestSortSessions(t *testing.T) {
	sessions := GroupSessions([]models.Event{
		ev("a1", "09:00", models.CategoryPrompt, "A"),
		ev("b1", "12:00", models.CategoryCommand, "B"),
		ev("c1", "10:00", models.CategoryPrompt, "C"),
		ev("c2", "10:01", models.CategoryPrompt, "C"),
		{EventID: "d1", TrajectoryID: "D"},
	})

	SortSessionsByRecency(sessions)
	var ids []string
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	if got := strings.Join(ids, ","); got != "B,C,A,D" {
		t.Errorf("by recency = %s, want B,C,A,D", got)
	}

	SortSessionsByPrompts(sessions)
	if sessions[0].ID != "C" {
		t.Errorf("by prompts first = %s, want C", sessions[0].ID)
	}
}

func TestSortNewestFirst(t *testing.T) {
	events := []models.Event{
		{EventID: "u"},
		ev("old", "09:00", models.CategoryPrompt, ""),
		ev("new", "11:00", models.CategoryPrompt, ""),
	}
	SortNewestFirst(events)
	if got := strings.Join(eventIDs(events), ","); got != "new,old,u" {
		t.Errorf("order = %s", got)
	}
}
