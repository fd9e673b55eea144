// Package styles holds the lipgloss palette and styles shared by the report
// printer and the live dashboard.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors every style is derived from.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	Border    lipgloss.Color
}

// DefaultPalette meets WCAG AA contrast on black and dark surfaces.
func DefaultPalette() Palette {
	return Palette{
		Primary:   lipgloss.Color("#A78BFA"), // violet-400
		Secondary: lipgloss.Color("#10B981"), // green
		Warning:   lipgloss.Color("#F59E0B"), // amber
		Error:     lipgloss.Color("#F87171"), // red-400
		Muted:     lipgloss.Color("#9CA3AF"),
		Text:      lipgloss.Color("#F9FAFB"),
		Border:    lipgloss.Color("#6B7280"),
	}
}

var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	WarningColor   lipgloss.Color
	ErrorColor     lipgloss.Color
	MutedColor     lipgloss.Color
	TextColor      lipgloss.Color
	BorderColor    lipgloss.Color

	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style

	// Title heads the dashboard and the summary block.
	Title lipgloss.Style
	// Label is the left column of key/value rows.
	Label lipgloss.Style
	// Value is the right column of key/value rows.
	Value lipgloss.Style
	// ContentBox frames the summary and the dashboard body.
	ContentBox lipgloss.Style
	// TableHeader is the header row of the sweep table.
	TableHeader lipgloss.Style
	HelpBar     lipgloss.Style
	HelpKey     lipgloss.Style
)

func init() {
	Apply(DefaultPalette())
}

// Apply rebuilds every style from p. It is not safe to call while another
// goroutine renders.
func Apply(p Palette) {
	PrimaryColor = p.Primary
	SecondaryColor = p.Secondary
	WarningColor = p.Warning
	ErrorColor = p.Error
	MutedColor = p.Muted
	TextColor = p.Text
	BorderColor = p.Border

	Primary = lipgloss.NewStyle().Foreground(p.Primary)
	Secondary = lipgloss.NewStyle().Foreground(p.Secondary)
	Warning = lipgloss.NewStyle().Foreground(p.Warning)
	Error = lipgloss.NewStyle().Foreground(p.Error)
	Muted = lipgloss.NewStyle().Foreground(p.Muted)
	Text = lipgloss.NewStyle().Foreground(p.Text)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		MarginBottom(1)

	Label = lipgloss.NewStyle().
		Foreground(p.Muted).
		Width(14)

	Value = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text)

	ContentBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 2)

	TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border)

	HelpBar = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Secondary)
}

// Run phases shown by StatusColor and StatusIcon.
const (
	StatusRunning  = "running"
	StatusComplete = "completed"
	StatusCanceled = "canceled"
	StatusFailed   = "failed"
)

// StatusColor returns the color for a run phase.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case StatusRunning:
		return SecondaryColor
	case StatusComplete:
		return PrimaryColor
	case StatusCanceled:
		return WarningColor
	case StatusFailed:
		return ErrorColor
	default:
		return MutedColor
	}
}

// StatusIcon returns the glyph for a run phase.
func StatusIcon(status string) string {
	switch status {
	case StatusRunning:
		return "●"
	case StatusComplete:
		return "✓"
	case StatusCanceled:
		return "⏸"
	case StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

// Status renders icon and label in the phase color.
func Status(status string) string {
	return lipgloss.NewStyle().
		Foreground(StatusColor(status)).
		Bold(true).
		Render(StatusIcon(status) + " " + status)
}
