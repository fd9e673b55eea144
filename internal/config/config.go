package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config represents the complete percolate configuration
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Report     ReportConfig     `mapstructure:"report"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds the lattice and pool parameters for a run
type SimulationConfig struct {
	// Width and Height are the lattice dimensions in sites
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	// PSite is the probability that a site is occupied
	PSite float64 `mapstructure:"p_site"`
	// Workers is the pool size. 0 means one worker per CPU.
	Workers int `mapstructure:"workers"`
	// Slots is the number of models (and tasks) per round.
	// 0 means Workers * ItemsPerWorker.
	Slots int `mapstructure:"slots"`
	// ItemsPerWorker sizes Slots when Slots is 0
	ItemsPerWorker int `mapstructure:"items_per_worker"`
	// Rounds is the number of submit/wait rounds
	Rounds int `mapstructure:"rounds"`
	// ReportInterval is how many rounds pass between progress reports
	ReportInterval int `mapstructure:"report_interval"`
	// Seed makes a run reproducible. 0 derives a seed from the clock.
	Seed uint64 `mapstructure:"seed"`
}

// Console formats for ReportConfig.Format
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ReportConfig controls how progress and results are presented
type ReportConfig struct {
	// Format is the console format: "text" or "json"
	Format string `mapstructure:"format"`
	// TUI selects the live dashboard: "auto", "always" or "never"
	TUI string `mapstructure:"tui"`
	// Output is an optional result file; the extension picks JSON or YAML
	Output string `mapstructure:"output"`
	// Theme is an optional YAML palette for the text report and dashboard
	Theme string `mapstructure:"theme"`
}

// LoggingConfig controls the structured run log
type LoggingConfig struct {
	// Enabled turns file logging on. When false a no-op logger is used.
	Enabled bool `mapstructure:"enabled"`
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Dir is where percolate.log is written. Empty means stderr.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the rotation threshold
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files
	Compress bool `mapstructure:"compress"`
}

// ResolvedWorkers returns Workers, or the CPU count when Workers is 0.
func (s *SimulationConfig) ResolvedWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

// ResolvedSlots returns Slots, or ResolvedWorkers()*ItemsPerWorker when
// Slots is 0.
func (s *SimulationConfig) ResolvedSlots() int {
	if s.Slots > 0 {
		return s.Slots
	}
	items := s.ItemsPerWorker
	if items <= 0 {
		items = 1
	}
	return s.ResolvedWorkers() * items
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Width:          64,
			Height:         64,
			PSite:          0.5927,
			Workers:        0,
			Slots:          0,
			ItemsPerWorker: 4,
			Rounds:         256,
			ReportInterval: 32,
			Seed:           0,
		},
		Report: ReportConfig{
			Format: FormatText,
			TUI:    "auto",
			Output: "",
			Theme:  "",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Simulation defaults
	v.SetDefault("simulation.width", defaults.Simulation.Width)
	v.SetDefault("simulation.height", defaults.Simulation.Height)
	v.SetDefault("simulation.p_site", defaults.Simulation.PSite)
	v.SetDefault("simulation.workers", defaults.Simulation.Workers)
	v.SetDefault("simulation.slots", defaults.Simulation.Slots)
	v.SetDefault("simulation.items_per_worker", defaults.Simulation.ItemsPerWorker)
	v.SetDefault("simulation.rounds", defaults.Simulation.Rounds)
	v.SetDefault("simulation.report_interval", defaults.Simulation.ReportInterval)
	v.SetDefault("simulation.seed", defaults.Simulation.Seed)

	// Report defaults
	v.SetDefault("report.format", defaults.Report.Format)
	v.SetDefault("report.tui", defaults.Report.TUI)
	v.SetDefault("report.output", defaults.Report.Output)
	v.SetDefault("report.theme", defaults.Report.Theme)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load against a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it
// cannot be loaded.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "percolate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".percolate"
	}
	return filepath.Join(home, ".config", "percolate")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
