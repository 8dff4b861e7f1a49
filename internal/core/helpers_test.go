package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// testDay is a Monday.
var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// at returns testDay at the given "15:04" clock time.
func at(clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		panic(err)
	}
	return testDay.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

// ev builds an event at the given clock time. An empty trajectory means the
// event is unassigned.
func ev(id, clock string, cat models.Category, trajectory string) models.Event {
	return models.Event{
		EventID:        id,
		TrajectoryID:   trajectory,
		Timestamp:      at(clock),
		TimestampKnown: true,
		Category:       cat,
	}
}

func withData(e models.Event, kv ...any) models.Event {
	e.Data = make(map[string]any)
	for i := 0; i+1 < len(kv); i += 2 {
		e.Data[kv[i].(string)] = kv[i+1]
	}
	return e
}

func eventIDs(events []models.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.EventID
	}
	return ids
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
