package report

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chessarbiter/chessarbiter/pkg/match"
	"github.com/chessarbiter/chessarbiter/pkg/pairing"
	"github.com/chessarbiter/chessarbiter/pkg/stats"
)

const recentGamesShown = 8

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	acceptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	rejectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// snapshotMsg and gameMsg are the tea.Msg values the Scheduler pushes into the program
// via Dashboard's Reporter methods.
type snapshotMsg stats.Snapshot
type gameMsg GameEvent

// dashboardModel is the bubbletea model backing Dashboard's View. It holds no mutable
// state beyond what a snapshot push gives it: every render is a pure function of the
// last snapshot plus a capped ring of recent games.
type dashboardModel struct {
	title   string
	snap    stats.Snapshot
	recent  []GameEvent
	width   int
	height  int
}

func newDashboardModel(title string) dashboardModel {
	return dashboardModel{title: title}
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = t.Width, t.Height
	case snapshotMsg:
		m.snap = stats.Snapshot(t)
	case gameMsg:
		m.recent = append(m.recent, GameEvent(t))
		if len(m.recent) > recentGamesShown {
			m.recent = m.recent[len(m.recent)-recentGamesShown:]
		}
	case tea.KeyMsg:
		if t.String() == "ctrl+c" || t.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("games: "))
	fmt.Fprintf(&b, "%d\n", m.snap.Games)

	b.WriteString(labelStyle.Render("score: "))
	fmt.Fprintf(&b, "%.3f  elo: %.1f\n", m.snap.Score, m.snap.Elo)

	b.WriteString(labelStyle.Render("trinomial (L/D/W): "))
	fmt.Fprintf(&b, "%d / %d / %d\n", m.snap.Trinomial[0], m.snap.Trinomial[1], m.snap.Trinomial[2])

	b.WriteString(labelStyle.Render("pentanomial (LL/LD/DD+LW/WD/WW): "))
	fmt.Fprintf(&b, "%d / %d / %d / %d / %d\n",
		m.snap.Pentanomial[0], m.snap.Pentanomial[1], m.snap.Pentanomial[2], m.snap.Pentanomial[3], m.snap.Pentanomial[4])

	b.WriteString(labelStyle.Render("sprt llr: "))
	fmt.Fprintf(&b, "%.3f  (bounds %.3f .. %.3f)  ", m.snap.LLR, m.snap.Lower, m.snap.Upper)
	switch m.snap.Verdict {
	case stats.AcceptH1:
		b.WriteString(acceptStyle.Render("accept H1"))
	case stats.AcceptH0:
		b.WriteString(rejectStyle.Render("accept H0"))
	default:
		b.WriteString(labelStyle.Render("continue"))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("recent games:\n"))
	for _, ev := range m.recent {
		if ev.Error != "" {
			fmt.Fprintf(&b, "  #%d %v vs %v: %v\n", ev.GameID, ev.White, ev.Black, errorStyle.Render(ev.Error))
			continue
		}
		fmt.Fprintf(&b, "  #%d %v vs %v: %v\n", ev.GameID, ev.White, ev.Black, ev.Result)
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("press q to detach (the tournament keeps running)"))
	return b.String()
}

// Dashboard is a live bubbletea-backed progress display implementing tournament.Reporter.
// Detaching the view (q / ctrl+c) only quits the tea.Program; the scheduler that owns the
// underlying Aggregator is unaffected.
type Dashboard struct {
	program *tea.Program
}

// NewDashboard constructs a Dashboard. Start must be called once before the scheduler
// begins pushing events, typically in its own goroutine since it blocks until the
// program quits.
func NewDashboard(title string) *Dashboard {
	p := tea.NewProgram(newDashboardModel(title))
	return &Dashboard{program: p}
}

// Start runs the bubbletea event loop until the user quits. Safe to call from its own
// goroutine, concurrently with the scheduler pushing GameFinished/Snapshot events.
func (d *Dashboard) Start() error {
	_, err := d.program.Run()
	return err
}

// GameFinished implements tournament.Reporter.
func (d *Dashboard) GameFinished(p pairing.Pairing, g *match.Game, err error) {
	d.program.Send(gameMsg(newGameEvent(p, g, err)))
}

// Snapshot implements tournament.Reporter.
func (d *Dashboard) Snapshot(snap stats.Snapshot) {
	d.program.Send(snapshotMsg(snap))
}
