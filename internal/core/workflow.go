package core

import (
	"sort"
	"time"

	"github.com/valter-silva-au/hooklens/pkg/models"
)

// DefaultPromptWindow is how far before a session's first action a prompt
// may be and still be attributed to that session.
const DefaultPromptWindow = 5 * time.Minute

// Strategy attributes actions to prompts. Both slices are in chronological
// order; the returned groups must be too.
type Strategy interface {
	Correlate(prompts, actions []models.Event) []models.WorkflowGroup
}

// NearestPrecedingPrompt gives each prompt the half-open window from its own
// timestamp up to the next prompt's, and assigns every action to the prompt
// whose window contains it. Actions with an unknown timestamp fall in the
// last window. Actions earlier than every prompt are returned in a leading
// group with a nil prompt.
type NearestPrecedingPrompt struct{}

func (NearestPrecedingPrompt) Correlate(prompts, actions []models.Event) []models.WorkflowGroup {
	if len(prompts) == 0 {
		if len(actions) == 0 {
			return nil
		}
		return []models.WorkflowGroup{{Actions: append([]models.Event(nil), actions...)}}
	}

	groups := make([]models.WorkflowGroup, len(prompts))
	for i, p := range prompts {
		groups[i] = models.WorkflowGroup{Prompt: &p, Actions: []models.Event{}}
	}

	var leading []models.Event
	for _, a := range actions {
		// Index of the first prompt strictly after a.
		next := sort.Search(len(prompts), func(k int) bool {
			return a.Before(prompts[k])
		})
		if next == 0 {
			leading = append(leading, a)
			continue
		}
		groups[next-1].Actions = append(groups[next-1].Actions, a)
	}

	if len(leading) > 0 {
		groups = append([]models.WorkflowGroup{{Actions: leading}}, groups...)
	}
	return groups
}

// Correlator builds prompt-to-action workflow views over a corpus.
type Correlator struct {
	strategy Strategy
	window   time.Duration
}

// NewCorrelator creates a Correlator. A nil strategy selects
// NearestPrecedingPrompt and a non-positive window selects DefaultPromptWindow.
func NewCorrelator(strategy Strategy, window time.Duration) *Correlator {
	if strategy == nil {
		strategy = NearestPrecedingPrompt{}
	}
	if window <= 0 {
		window = DefaultPromptWindow
	}
	return &Correlator{strategy: strategy, window: window}
}

// Correlate returns the workflow groups for target, which is either
// models.NoSession or a trajectory id.
//
// For NoSession every action in the corpus is attributed to the nearest
// preceding prompt anywhere in the corpus, because prompts are frequently
// logged without a trajectory id while their actions carry one.
//
// For a trajectory id the session's own actions are attributed to the
// corpus prompts that fall within the prompt window before its first action.
// When there is no such prompt, a single group with a nil prompt holds all of
// the session's actions. An unknown session yields no groups.
func (c *Correlator) Correlate(events []models.Event, target string) []models.WorkflowGroup {
	if len(events) == 0 {
		return nil
	}

	sorted := append([]models.Event(nil), events...)
	SortChronologically(sorted)
	prompts, actions := partitionPrompts(sorted)

	if target == models.NoSession {
		return c.strategy.Correlate(prompts, actions)
	}
	return c.correlateSession(prompts, sorted, target)
}

func (c *Correlator) correlateSession(prompts, sorted []models.Event, target string) []models.WorkflowGroup {
	var pool []models.Event
	for _, e := range sorted {
		if e.TrajectoryID == target && !e.IsPrompt() {
			pool = append(pool, e)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	relevant := c.relevantPrompts(prompts, pool[0])
	if len(relevant) == 0 {
		return []models.WorkflowGroup{{Actions: pool}}
	}

	var kept []models.WorkflowGroup
	for _, g := range c.strategy.Correlate(relevant, pool) {
		if len(g.Actions) > 0 || (g.Prompt != nil && len(relevant) == 1) {
			kept = append(kept, g)
		}
	}
	return kept
}

// relevantPrompts selects prompts in [t0-window, t0), where t0 is the
// timestamp of the session's earliest action.
func (c *Correlator) relevantPrompts(prompts []models.Event, first models.Event) []models.Event {
	if !first.TimestampKnown {
		return nil
	}
	t0 := first.Timestamp
	from := t0.Add(-c.window)

	var relevant []models.Event
	for _, p := range prompts {
		if !p.TimestampKnown {
			continue
		}
		if p.Timestamp.Before(t0) && !p.Timestamp.Before(from) {
			relevant = append(relevant, p)
		}
	}
	return relevant
}

// SharedAnchors reports prompts that anchor workflow groups in more than one
// session. Each session is correlated independently, so a prompt inside two
// sessions' windows is attributed to both; this surfaces those cases.
func (c *Correlator) SharedAnchors(events []models.Event) []models.SharedAnchor {
	sorted := append([]models.Event(nil), events...)
	SortChronologically(sorted)
	prompts, _ := partitionPrompts(sorted)

	var sessionIDs []string
	seen := make(map[string]bool)
	for _, e := range sorted {
		if e.TrajectoryID != "" && !seen[e.TrajectoryID] {
			seen[e.TrajectoryID] = true
			sessionIDs = append(sessionIDs, e.TrajectoryID)
		}
	}

	anchors := make(map[string][]string)
	byID := make(map[string]models.Event)
	var order []string
	for _, id := range sessionIDs {
		for _, g := range c.correlateSession(prompts, sorted, id) {
			if g.Prompt == nil {
				continue
			}
			pid := g.Prompt.EventID
			if _, ok := byID[pid]; !ok {
				byID[pid] = *g.Prompt
				order = append(order, pid)
			}
			anchors[pid] = append(anchors[pid], id)
		}
	}

	var shared []models.SharedAnchor
	for _, pid := range order {
		if len(anchors[pid]) > 1 {
			shared = append(shared, models.SharedAnchor{Prompt: byID[pid], Sessions: anchors[pid]})
		}
	}
	sort.SliceStable(shared, func(i, j int) bool {
		return shared[i].Prompt.Before(shared[j].Prompt)
	})
	return shared
}

// UnassignedActions counts the non-prompt events that carry no trajectory id.
func UnassignedActions(events []models.Event) int {
	n := 0
	for _, e := range events {
		if e.TrajectoryID == "" && !e.IsPrompt() {
			n++
		}
	}
	return n
}

func partitionPrompts(sorted []models.Event) (prompts, actions []models.Event) {
	for _, e := range sorted {
		if e.IsPrompt() {
			prompts = append(prompts, e)
		} else {
			actions = append(actions, e)
		}
	}
	return prompts, actions
}
