package core

import (
	"sort"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// GroupSessions partitions events by session key. Events inside each session
// are in chronological order, unknown timestamps last. The order of the
// returned sessions is unspecified; use SortSessionsByRecency or
// SortSessionsByPrompts for presentation.
func GroupSessions(events []models.Event) []models.Session {
	byKey := make(map[string]*models.Session)
	var order []string
	for _, e := range events {
		key := e.SessionKey()
		s, ok := byKey[key]
		if !ok {
			s = &models.Session{ID: key, Categories: make(map[models.Category]int)}
			byKey[key] = s
			order = append(order, key)
		}
		s.Events = append(s.Events, e)
	}

	sessions := make([]models.Session, 0, len(order))
	for _, key := range order {
		s := byKey[key]
		SortChronologically(s.Events)
		s.EventCount = len(s.Events)
		for _, e := range s.Events {
			s.Categories[e.Category]++
			if !e.TimestampKnown {
				continue
			}
			ts := e.Timestamp
			if s.StartTime == nil || ts.Before(*s.StartTime) {
				s.StartTime = &ts
			}
			if s.EndTime == nil || ts.After(*s.EndTime) {
				s.EndTime = &ts
			}
		}
		sessions = append(sessions, *s)
	}
	return sessions
}

// SortChronologically stable-sorts events by timestamp in place.
func SortChronologically(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Before(events[j])
	})
}

// SortNewestFirst stable-sorts events newest first in place. Events with an
// unknown timestamp stay last.
func SortNewestFirst(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.TimestampKnown != b.TimestampKnown {
			return a.TimestampKnown
		}
		return a.Timestamp.After(b.Timestamp)
	})
}

// SortSessionsByRecency orders sessions by most recent activity first.
// Sessions without any known timestamp go last.
func SortSessionsByRecency(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].EndTime, sessions[j].EndTime
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
}

// SortSessionsByPrompts orders sessions by prompt count, highest first.
func SortSessionsByPrompts(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].PromptCount() > sessions[j].PromptCount()
	})
}

// FindSession returns the session with the given id.
func FindSession(sessions []models.Session, id string) (models.Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return models.Session{}, false
}
