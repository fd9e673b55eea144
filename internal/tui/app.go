// Package tui renders a live dashboard of a running simulation.
package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Iron-Ham/percolate/internal/event"
)

// Dashboard modes accepted by ShouldUse.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

// ShouldUse decides whether to show the dashboard on out. In auto mode the
// dashboard is used only when out is a terminal.
func ShouldUse(mode string, out *os.File) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return out != nil && term.IsTerminal(int(out.Fd()))
	}
}

// App wraps the Bubbletea program.
type App struct {
	program *tea.Program
	bus     *event.Bus
	subID   string
}

// New creates a dashboard and subscribes it to bus right away, so no event
// published before Run is lost. cancel is invoked when the user asks to
// stop the run.
func New(bus *event.Bus, cancel func(), opts ...tea.ProgramOption) *App {
	a := &App{
		program: tea.NewProgram(NewModel(cancel), opts...),
		bus:     bus,
	}
	a.subID = bus.SubscribeAll(a.forward)
	return a
}

// NewWithIO creates a dashboard bound to explicit streams, for tests and
// non-default terminals.
func NewWithIO(bus *event.Bus, cancel func(), in io.Reader, out io.Writer) *App {
	return New(bus, cancel, tea.WithInput(in), tea.WithOutput(out))
}

// Run shows the dashboard until the run completes and the program exits.
// The simulation must be running on another goroutine and publishing on the
// bus. Run returns the final model state.
func (a *App) Run() (Model, error) {
	defer a.bus.Unsubscribe(a.subID)

	final, err := a.program.Run()
	if m, ok := final.(Model); ok {
		return m, err
	}
	return Model{}, err
}

// forward converts bus events to program messages. Send blocks until the
// program receives the message and is a no-op once it has exited.
func (a *App) forward(e event.Event) {
	switch ev := e.(type) {
	case event.RunStartedEvent:
		a.program.Send(startedMsg(ev))
	case event.RoundCompletedEvent:
		a.program.Send(roundMsg(ev))
	case event.TrialFailedEvent:
		a.program.Send(failedMsg(ev))
	case event.RunCompletedEvent:
		a.program.Send(completedMsg(ev))
	}
}
