package styles

import (
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/percolate/internal/errors"
)

// ThemeFile is a custom palette loaded from YAML.
//
//	name: Solarized
//	version: "1"
//	colors:
//	  primary: "#268BD2"
//	  ...
type ThemeFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Version     string      `yaml:"version"`
	Colors      ThemeColors `yaml:"colors"`
}

// ThemeColors lists hex colors (#RGB or #RRGGBB). Primary, Text and Muted
// are required; the rest fall back to a required color.
type ThemeColors struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary,omitempty"`
	Warning   string `yaml:"warning,omitempty"`
	Error     string `yaml:"error,omitempty"`
	Muted     string `yaml:"muted"`
	Text      string `yaml:"text"`
	Border    string `yaml:"border,omitempty"`
}

var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// LoadThemeFile reads and validates a theme.
func LoadThemeFile(path string) (*ThemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme file: %w", err)
	}

	var theme ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("parsing theme file: %w", err)
	}
	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}
	return &theme, nil
}

// Validate checks the version and every color that is set.
func (t *ThemeFile) Validate() error {
	if t.Name == "" {
		return errors.NewValidationError("theme name is required").WithField("name")
	}
	if t.Version != "1" {
		return errors.NewValidationError("unsupported theme version (supported: 1)").
			WithField("version").WithValue(t.Version)
	}

	colors := []struct {
		name     string
		value    string
		required bool
	}{
		{"primary", t.Colors.Primary, true},
		{"text", t.Colors.Text, true},
		{"muted", t.Colors.Muted, true},
		{"secondary", t.Colors.Secondary, false},
		{"warning", t.Colors.Warning, false},
		{"error", t.Colors.Error, false},
		{"border", t.Colors.Border, false},
	}
	for _, c := range colors {
		if c.value == "" {
			if c.required {
				return errors.NewValidationError("color is required").WithField("colors." + c.name)
			}
			continue
		}
		if !hexColorRegex.MatchString(c.value) {
			return errors.NewValidationError("expected #RGB or #RRGGBB").
				WithField("colors." + c.name).WithValue(c.value)
		}
	}
	return nil
}

// ToPalette resolves optional colors against the defaults.
func (t *ThemeFile) ToPalette() Palette {
	d := DefaultPalette()
	return Palette{
		Primary:   lipgloss.Color(t.Colors.Primary),
		Secondary: colorOr(t.Colors.Secondary, d.Secondary),
		Warning:   colorOr(t.Colors.Warning, d.Warning),
		Error:     colorOr(t.Colors.Error, d.Error),
		Muted:     lipgloss.Color(t.Colors.Muted),
		Text:      lipgloss.Color(t.Colors.Text),
		Border:    colorOr(t.Colors.Border, lipgloss.Color(t.Colors.Muted)),
	}
}

func colorOr(color string, fallback lipgloss.Color) lipgloss.Color {
	if color != "" {
		return lipgloss.Color(color)
	}
	return fallback
}
