package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "simulation.p_site")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Upper bounds that keep a misconfigured run from exhausting memory.
const (
	maxDimension = 1 << 14
	maxWorkers   = 4096
	maxLogSizeMB = 1000
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidReportFormats returns the console output formats
func ValidReportFormats() []string {
	return []string{FormatText, FormatJSON}
}

// ValidTUIModes returns the accepted report.tui values
func ValidTUIModes() []string {
	return []string{"auto", "always", "never"}
}

// ValidOutputExtensions returns the result file extensions WriteResult understands
func ValidOutputExtensions() []string {
	return []string{".json", ".yaml", ".yml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateSimulation()...)
	errors = append(errors, c.validateReport()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateSimulation() []ValidationError {
	var errors []ValidationError
	s := c.Simulation

	for _, dim := range []struct {
		field string
		value int
	}{
		{"simulation.width", s.Width},
		{"simulation.height", s.Height},
	} {
		if dim.value <= 0 {
			errors = append(errors, ValidationError{Field: dim.field, Value: dim.value, Message: "must be positive"})
		} else if dim.value > maxDimension {
			errors = append(errors, ValidationError{
				Field:   dim.field,
				Value:   dim.value,
				Message: fmt.Sprintf("exceeds maximum of %d", maxDimension),
			})
		}
	}

	if s.PSite < 0 || s.PSite > 1 {
		errors = append(errors, ValidationError{
			Field:   "simulation.p_site",
			Value:   s.PSite,
			Message: "must be within [0, 1]",
		})
	}

	// Zero means "derive"; only negatives are rejected.
	if s.Workers < 0 || s.Workers > maxWorkers {
		errors = append(errors, ValidationError{
			Field:   "simulation.workers",
			Value:   s.Workers,
			Message: fmt.Sprintf("must be between 0 and %d", maxWorkers),
		})
	}
	if s.Slots < 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.slots",
			Value:   s.Slots,
			Message: "must be non-negative",
		})
	}
	if s.Slots == 0 && s.ItemsPerWorker <= 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.items_per_worker",
			Value:   s.ItemsPerWorker,
			Message: "must be positive when slots is 0",
		})
	}

	if s.Rounds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.rounds",
			Value:   s.Rounds,
			Message: "must be positive",
		})
	}
	if s.ReportInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.report_interval",
			Value:   s.ReportInterval,
			Message: "must be non-negative (0 reports only at the end)",
		})
	}

	return errors
}

func (c *Config) validateReport() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidReportFormats(), c.Report.Format) {
		errors = append(errors, ValidationError{
			Field:   "report.format",
			Value:   c.Report.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidReportFormats(), ", ")),
		})
	}
	if !slices.Contains(ValidTUIModes(), c.Report.TUI) {
		errors = append(errors, ValidationError{
			Field:   "report.tui",
			Value:   c.Report.TUI,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidTUIModes(), ", ")),
		})
	}
	if c.Report.Output != "" {
		ext := strings.ToLower(filepath.Ext(c.Report.Output))
		if !slices.Contains(ValidOutputExtensions(), ext) {
			errors = append(errors, ValidationError{
				Field:   "report.output",
				Value:   c.Report.Output,
				Message: fmt.Sprintf("extension must be one of: %s", strings.Join(ValidOutputExtensions(), ", ")),
			})
		}
	}
	if c.Report.Theme != "" {
		ext := strings.ToLower(filepath.Ext(c.Report.Theme))
		if ext != ".yaml" && ext != ".yml" {
			errors = append(errors, ValidationError{
				Field:   "report.theme",
				Value:   c.Report.Theme,
				Message: "must be a .yaml or .yml file",
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	} else if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
