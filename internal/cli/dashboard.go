package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/hooklens/internal/core"
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// Panels, in tab order.
const (
	panelSessions = iota
	panelMetrics
	panelAlerts
	panelCount
)

// visibleSessions is how many sessions fit in the sessions panel.
const visibleSessions = 8

// wideLayoutMin is the terminal width from which panels sit side by side.
const wideLayoutMin = 120

type dashboardModel struct {
	focus  int
	cursor int
	width  int
	height int

	location string
	loc      *time.Location
	refresh  tea.Cmd

	sessions []models.Session
	metrics  *models.MetricsSnapshot
	alerts   []observability.Alert
	partial  bool

	loading bool
	err     error
}

// dataLoadedMsg is the result of one corpus read.
type dataLoadedMsg struct {
	sessions []models.Session
	metrics  *models.MetricsSnapshot
	alerts   []observability.Alert
	partial  bool
	err      error
}

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("37")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.BorderForeground(lipgloss.Color("37"))

	panelTitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("37")).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	partialStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	severityStyles = map[observability.AlertSeverity]lipgloss.Style{
		observability.SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		observability.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		observability.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
)

func newDashboardModel(location string, loc *time.Location, refresh tea.Cmd) dashboardModel {
	if loc == nil {
		loc = time.Local
	}
	return dashboardModel{
		focus:    panelSessions,
		location: location,
		loc:      loc,
		refresh:  refresh,
		loading:  true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.refresh
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case dataLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.sessions = msg.sessions
			m.metrics = msg.metrics
			m.alerts = msg.alerts
			m.partial = msg.partial
			m.cursor = min(m.cursor, max(len(m.sessions)-1, 0))
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right":
			m.focus = (m.focus + 1) % panelCount
		case "shift+tab", "left":
			m.focus = (m.focus + panelCount - 1) % panelCount
		case "j", "down":
			if m.focus == panelSessions && m.cursor < len(m.sessions)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.focus == panelSessions && m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.refresh
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := bannerStyle.Render("hooklens") + " " + m.location
	footer := dimStyle.Render("tab/←/→ panel · j/k session · r reload · q quit")

	var body string
	switch {
	case m.loading:
		body = "  Loading data..."
	case m.err != nil:
		body = "  Error: " + m.err.Error()
	default:
		if m.partial {
			header += " " + partialStyle.Render("[partial: some files or lines were unreadable]")
		}
		body = m.layout()
	}

	return strings.Join([]string{header, body, footer}, "\n\n")
}

// layout places the three panels in a row on wide terminals and stacks
// them otherwise.
func (m dashboardModel) layout() string {
	contents := [panelCount]string{
		panelSessions: m.sessionsPanel(),
		panelMetrics:  m.metricsPanel(),
		panelAlerts:   m.alertsPanel(),
	}

	usable := m.width - 2
	wide := usable > wideLayoutMin
	width := max(usable-4, 20)
	if wide {
		width = usable/panelCount - 4
	}

	boxes := make([]string, panelCount)
	for i, c := range contents {
		style := boxStyle
		if i == m.focus {
			style = focusedBoxStyle
		}
		boxes[i] = style.Width(width).Render(c)
	}

	if wide {
		return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func (m dashboardModel) sessionsPanel() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(fmt.Sprintf("Recent sessions (%d)", len(m.sessions))))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString("No sessions found.")
		return b.String()
	}

	// Scroll so the cursor stays visible.
	first := max(0, m.cursor-visibleSessions+1)
	last := min(len(m.sessions), first+visibleSessions)
	for i := first; i < last; i++ {
		s := m.sessions[i]
		row := fmt.Sprintf("%-12s %5d ev %3d pr", shortID(s.ID), s.EventCount, s.PromptCount())
		switch {
		case i == m.cursor && m.focus == panelSessions:
			row = cursorStyle.Render("› " + row)
		case s.ID == models.NoSession:
			row = "  " + dimStyle.Render(row)
		default:
			row = "  " + row
		}
		b.WriteString(row + "\n")
	}
	if rest := len(m.sessions) - last; rest > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  +%d more", rest)) + "\n")
	}

	sel := m.sessions[m.cursor]
	fmt.Fprintf(&b, "\n%s\nstarted %s, lasted %s",
		sel.ID, formatTimePtr(sel.StartTime, m.loc), formatDuration(sel.Duration()))
	return b.String()
}

func (m dashboardModel) metricsPanel() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Metrics"))
	b.WriteString("\n\n")

	s := m.metrics
	if s == nil {
		b.WriteString("No metrics available.")
		return b.String()
	}

	fmt.Fprintf(&b, "%-10s %d\n", "Events", s.TotalEvents)
	fmt.Fprintf(&b, "%-10s %d\n", "Sessions", s.SessionCount)
	fmt.Fprintf(&b, "%-10s %d\n", "Users", s.UserCount)
	fmt.Fprintf(&b, "%-10s %d\n", "Prompts", s.Categories[models.CategoryPrompt])
	fmt.Fprintf(&b, "%-10s %d\n", "Commands", s.Categories[models.CategoryCommand])
	fmt.Fprintf(&b, "%-10s +%d / -%d\n", "Lines", s.LinesAdded, s.LinesRemoved)

	if len(s.TopCommands) > 0 {
		top := s.TopCommands[0]
		fmt.Fprintf(&b, "\nTop command: %s (%d)", top.Name, top.Count)
	}
	if len(s.TopFiles) > 0 {
		top := s.TopFiles[0]
		fmt.Fprintf(&b, "\nTop file: %s (%d)", truncate(top.Name, 40), top.Count)
	}
	return b.String()
}

func (m dashboardModel) alertsPanel() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(fmt.Sprintf("Alerts (%d)", len(m.alerts))))
	b.WriteString("\n\n")

	if len(m.alerts) == 0 {
		b.WriteString("Corpus looks healthy.")
		return b.String()
	}

	for _, a := range m.alerts {
		tag := severityStyles[a.Severity].Render(strings.ToUpper(string(a.Severity)))
		fmt.Fprintf(&b, "%s %s\n", tag, a.Message)
	}
	return b.String()
}

func severityRank(s observability.AlertSeverity) int {
	switch s {
	case observability.SeverityHigh:
		return 0
	case observability.SeverityMedium:
		return 1
	case observability.SeverityLow:
		return 2
	}
	return 3
}

// dashboardLoader reads the corpus once per refresh and derives every panel
// from that read.
func dashboardLoader(ctx context.Context, engine *core.Engine, files []string) tea.Cmd {
	return func() tea.Msg {
		health, err := engine.Health(ctx, files)
		if err != nil {
			return dataLoadedMsg{err: fmt.Errorf("loading corpus: %w", err)}
		}

		sessions := core.GroupSessions(health.Load.Events)
		core.SortSessionsByRecency(sessions)
		// The panel only shows counts; drop the event slices.
		for i := range sessions {
			sessions[i].Events = nil
		}

		msg := dataLoadedMsg{
			sessions: sessions,
			metrics:  &health.Metrics,
			partial:  health.Load.Partial(),
		}
		if AlertEngine != nil {
			msg.alerts = AlertEngine.Evaluate(health)
			slices.SortStableFunc(msg.alerts, func(a, b observability.Alert) int {
				return cmp.Compare(severityRank(a.Severity), severityRank(b.Severity))
			})
		}
		return msg
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse sessions, metrics and alerts in a terminal UI",
	Long: `Open a full-screen terminal view of the corpus: recent sessions, headline
metrics and health alerts, all computed from a single read.

Keys: tab or arrows move between panels, j/k move through sessions,
r reloads from storage and q exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}

		model := newDashboardModel(engine.Location(), engine.TimeLocation(), dashboardLoader(ctx, engine, flagFiles))
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
