// Package config provides CLI commands for managing percolate configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/Iron-Ham/percolate/internal/config"
	"github.com/Iron-Ham/percolate/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify percolate configuration",
	Long: `View or modify percolate configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the active config file, or in the
default config file when none is loaded.

Keys use dot notation, e.g.:
  percolate config set simulation.p_site 0.6
  percolate config set simulation.workers 8
  percolate config set logging.dir ~/.cache/percolate

Valid keys:
  simulation.width            - Lattice width in sites
  simulation.height           - Lattice height in sites
  simulation.p_site           - Site occupation probability in [0, 1]
  simulation.workers          - Worker goroutines (0 = one per CPU)
  simulation.slots            - Trials per round (0 = workers * items_per_worker)
  simulation.items_per_worker - Sizes slots when slots is 0
  simulation.rounds           - Submit/wait rounds per run
  simulation.report_interval  - Rounds between progress reports (0 = end only)
  simulation.seed             - Base seed (0 = derive from the clock)
  report.format               - Console format: text, json
  report.tui                  - Dashboard: auto, always, never
  report.output               - Result file (.json, .yaml, .yml)
  report.theme                - Palette file (.yaml, .yml)
  logging.enabled             - Write a run log (true/false)
  logging.level               - debug, info, warn, error
  logging.dir                 - Log directory (empty = stderr)
  logging.max_size_mb         - Rotation threshold
  logging.max_backups         - Rotated files kept
  logging.compress            - Gzip rotated files (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/percolate/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// Register adds the config command tree to parent.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// validKeys maps every settable key to the kind of value it takes.
var validKeys = map[string]string{
	"simulation.width":            "int",
	"simulation.height":           "int",
	"simulation.p_site":           "float",
	"simulation.workers":          "int",
	"simulation.slots":            "int",
	"simulation.items_per_worker": "int",
	"simulation.rounds":           "int",
	"simulation.report_interval":  "int",
	"simulation.seed":             "uint",
	"report.format":               "string",
	"report.tui":                  "string",
	"report.output":               "string",
	"report.theme":                "string",
	"logging.enabled":             "bool",
	"logging.level":               "string",
	"logging.dir":                 "string",
	"logging.max_size_mb":         "int",
	"logging.max_backups":         "int",
	"logging.compress":            "bool",
}

// ValidKeys returns the settable keys in sorted order.
func ValidKeys() []string {
	keys := make([]string, 0, len(validKeys))
	for k := range validKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(out, "# Invalid configuration, showing defaults:\n%s", indentComment(err.Error()))
		cfg = appconfig.Default()
	}

	data, err := yaml.Marshal(settings(cfg))
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// settings lays cfg out under the same keys the config file uses.
func settings(cfg *appconfig.Config) map[string]map[string]any {
	s, r, l := cfg.Simulation, cfg.Report, cfg.Logging
	return map[string]map[string]any{
		"simulation": {
			"width":            s.Width,
			"height":           s.Height,
			"p_site":           s.PSite,
			"workers":          s.Workers,
			"slots":            s.Slots,
			"items_per_worker": s.ItemsPerWorker,
			"rounds":           s.Rounds,
			"report_interval":  s.ReportInterval,
			"seed":             s.Seed,
		},
		"report": {
			"format": r.Format,
			"tui":    r.TUI,
			"output": r.Output,
			"theme":  r.Theme,
		},
		"logging": {
			"enabled":     l.Enabled,
			"level":       l.Level,
			"dir":         l.Dir,
			"max_size_mb": l.MaxSizeMB,
			"max_backups": l.MaxBackups,
			"compress":    l.Compress,
		},
	}
}

func indentComment(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString("#   ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'percolate config set --help' to see valid keys", key)
	}

	typedValue, err := parseValue(key, keyType, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = appconfig.ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

func parseValue(key, keyType, value string) (any, error) {
	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, errors.NewValidationError("expected true or false").WithField(key).WithValue(value)
		}
		return value == "true", nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.NewValidationError("expected integer").WithField(key).WithValue(value).WithCause(err)
		}
		return n, nil
	case "uint":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.NewValidationError("expected non-negative integer").WithField(key).WithValue(value).WithCause(err)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.NewValidationError("expected number").WithField(key).WithValue(value).WithCause(err)
		}
		return f, nil
	default:
		return value, nil
	}
}

const defaultConfigContent = `# percolate configuration

# Lattice and pool parameters for run and sweep
simulation:
  # Lattice dimensions in sites
  width: 64
  height: 64
  # Probability that a site is occupied
  p_site: 0.5927
  # Worker goroutines (0 = one per CPU)
  workers: 0
  # Trials per round (0 = workers * items_per_worker)
  slots: 0
  items_per_worker: 4
  # Submit/wait rounds per run
  rounds: 256
  # Rounds between progress reports (0 = only at the end)
  report_interval: 32
  # Base seed; runs with the same seed and grid are identical (0 = clock)
  seed: 0

# Progress and result presentation
report:
  # Console format: text or json
  format: text
  # Live dashboard: auto (terminal only), always, never
  tui: auto
  # Optional result file; .json, .yaml or .yml
  output: ""
  # Optional palette file for the text report and dashboard
  theme: ""

# Structured run log
logging:
  enabled: true
  # debug, info, warn, error
  level: info
  # Directory for percolate.log (empty = stderr)
  dir: ""
  # Rotate the log at this size and keep this many backups
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'percolate config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to change the default simulation parameters.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", configFile)
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: PERCOLATE_* (e.g., PERCOLATE_SIMULATION_P_SITE)")
	return nil
}
