package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/percolate/internal/event"
	"github.com/Iron-Ham/percolate/internal/stats"
	"github.com/Iron-Ham/percolate/internal/tui/styles"
	"github.com/Iron-Ham/percolate/internal/util"
)

const (
	minBarWidth = 10
	maxBarWidth = 60
)

// Messages delivered from the event bus.
type (
	startedMsg   event.RunStartedEvent
	roundMsg     event.RoundCompletedEvent
	failedMsg    event.TrialFailedEvent
	completedMsg event.RunCompletedEvent
)

// Model is the dashboard state. It only changes through Update.
type Model struct {
	bar    progress.Model
	width  int
	cancel func()

	runID   string
	config  event.RunConfig
	round   int // rounds completed
	rounds  int
	totals  stats.Snapshot
	elapsed time.Duration
	failed  int
	lastErr string

	stopping bool
	done     bool
	canceled bool
}

// NewModel creates a dashboard. cancel is called when the user asks to
// stop; the run then ends after its current round.
func NewModel(cancel func()) Model {
	return Model{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping {
				m.stopping = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(minBarWidth, min(maxBarWidth, msg.Width-12))
	case startedMsg:
		m.runID = msg.RunID
		m.config = msg.Config
		m.rounds = msg.Config.Rounds
	case roundMsg:
		m.round = msg.Round + 1
		m.rounds = msg.Rounds
		m.totals = msg.Totals
		m.elapsed = msg.Elapsed
	case failedMsg:
		m.failed++
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	case completedMsg:
		m.round = msg.Rounds
		m.totals = msg.Totals
		m.elapsed = msg.Elapsed
		m.canceled = msg.Canceled
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// Percent is the fraction of planned rounds completed.
func (m Model) Percent() float64 {
	if m.rounds <= 0 {
		return 0
	}
	return float64(m.round) / float64(m.rounds)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "percolate"
	if m.runID != "" {
		title += " · run " + m.runID
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")

	c := m.config
	b.WriteString(styles.Muted.Render(fmt.Sprintf("%d×%d  p=%.4f  workers=%d  slots=%d  seed=%d",
		c.Width, c.Height, c.PSite, c.Workers, c.Slots, c.Seed)))
	b.WriteString("\n\n")

	b.WriteString(styles.Status(m.status()))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(styles.Muted.Render(fmt.Sprintf("  %d/%d rounds", m.round, m.rounds)))
	b.WriteString("\n\n")

	f := m.totals.Frequencies()
	rows := []string{
		row("samples", util.FormatCount(m.totals.Samples)),
		row("percolates x", fmt.Sprintf("%.4f", f.X)),
		row("percolates y", fmt.Sprintf("%.4f", f.Y)),
		row("both", fmt.Sprintf("%.4f", f.Both)),
		row("elapsed", util.FormatDuration(m.elapsed)),
	}
	if m.failed > 0 {
		rows = append(rows, styles.Label.Render("failed")+styles.Error.Render(fmt.Sprint(m.failed)))
	}
	b.WriteString(strings.Join(rows, "\n"))

	if m.lastErr != "" {
		b.WriteString("\n")
		line := styles.Error.Render("last error: " + m.lastErr)
		if m.width > 0 {
			line = util.TruncateANSI(line, m.width)
		}
		b.WriteString(line)
	}

	help := styles.HelpKey.Render("q") + " stop after this round"
	if m.done {
		help = styles.HelpKey.Render("q") + " quit"
	}
	b.WriteString("\n")
	b.WriteString(styles.HelpBar.Render(help))
	b.WriteString("\n")
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.done && m.canceled:
		return styles.StatusCanceled
	case m.done:
		return styles.StatusComplete
	case m.stopping:
		return "stopping"
	default:
		return styles.StatusRunning
	}
}

func row(label, value string) string {
	return styles.Label.Render(label) + styles.Value.Render(value)
}
