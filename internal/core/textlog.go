package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// textLogSeparator divides blocks in the human-readable summary log.
var textLogSeparator = strings.Repeat("=", 80)

// textLogParser accumulates lines of a human-readable .log file and emits one
// Event per block. Blocks without a timestamp are dropped.
type textLogParser struct {
	sourceFile string
	loc        *time.Location
	block      []string
}

func newTextLogParser(sourceFile string, loc *time.Location) *textLogParser {
	return &textLogParser{sourceFile: sourceFile, loc: loc}
}

// Add feeds one line. It returns a completed event when line closes a block.
func (p *textLogParser) Add(line string) (models.Event, bool) {
	if strings.TrimSpace(line) == textLogSeparator {
		return p.Flush()
	}
	p.block = append(p.block, line)
	return models.Event{}, false
}

// Flush emits the pending block, if it holds an event.
func (p *textLogParser) Flush() (models.Event, bool) {
	block := strings.TrimSpace(strings.Join(p.block, "\n"))
	p.block = p.block[:0]
	if block == "" {
		return models.Event{}, false
	}
	return parseTextBlock(block, p.sourceFile, p.loc)
}

// parseTextBlock reads both header styles of the summary log:
// "Timestamp: ..." / "Action: ..." lines, and a leading "[ts] action" line.
// Headers end at the first other line, so body text such as a prompt that
// starts with "User:" is never taken for a header.
func parseTextBlock(block, sourceFile string, loc *time.Location) (models.Event, bool) {
	var rawTS, action, user, trajectory string
headers:
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Timestamp:"):
			rawTS = strings.TrimSpace(strings.TrimPrefix(line, "Timestamp:"))
		case strings.HasPrefix(line, "User:"):
			user = strings.TrimSpace(strings.TrimPrefix(line, "User:"))
		case strings.HasPrefix(line, "Trajectory ID:"):
			trajectory = strings.TrimSpace(strings.TrimPrefix(line, "Trajectory ID:"))
		case strings.HasPrefix(line, "Trajectory:"):
			trajectory = strings.TrimSpace(strings.TrimPrefix(line, "Trajectory:"))
		case strings.HasPrefix(line, "Action:"):
			action = strings.TrimSpace(strings.TrimPrefix(line, "Action:"))
		case rawTS == "" && strings.HasPrefix(line, "[") && strings.Contains(line, "]"):
			end := strings.Index(line, "]")
			rawTS = line[1:end]
			if action == "" {
				action = strings.TrimSpace(line[end+1:])
			}
		default:
			break headers
		}
	}
	if rawTS == "" {
		return models.Event{}, false
	}

	e := models.Event{
		EventID:      uuid.NewSHA1(eventNamespace, []byte(block)).String(),
		TrajectoryID: trajectory,
		RawTimestamp: rawTS,
		Action:       action,
		Category:     CategoryFor(action, ""),
		SourceFile:   sourceFile,
		Data:         map[string]any{"raw": block},
	}
	e.Phase, _ = SplitAction(action)
	if name, host, ok := strings.Cut(user, "@"); ok {
		e.User, e.Hostname = name, host
	} else {
		e.User = user
	}
	e.Timestamp, e.TimestampKnown = ParseTimestamp(rawTS, loc)
	return e, true
}
