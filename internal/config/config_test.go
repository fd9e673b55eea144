package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Simulation.Width != 64 || cfg.Simulation.Height != 64 {
		t.Errorf("lattice = %dx%d, want 64x64", cfg.Simulation.Width, cfg.Simulation.Height)
	}
	if cfg.Simulation.PSite != 0.5927 {
		t.Errorf("Simulation.PSite = %v, want 0.5927", cfg.Simulation.PSite)
	}
	if cfg.Simulation.Rounds != 256 {
		t.Errorf("Simulation.Rounds = %d, want 256", cfg.Simulation.Rounds)
	}
	if cfg.Report.Format != "text" {
		t.Errorf("Report.Format = %q, want %q", cfg.Report.Format, "text")
	}
	if cfg.Report.TUI != "auto" {
		t.Errorf("Report.TUI = %q, want %q", cfg.Report.TUI, "auto")
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should default to true")
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate, got %v", errs)
	}
}

func TestSimulationConfig_Resolved(t *testing.T) {
	tests := []struct {
		name        string
		cfg         SimulationConfig
		wantWorkers int
		wantSlots   int
	}{
		{
			name:        "explicit values",
			cfg:         SimulationConfig{Workers: 3, Slots: 7, ItemsPerWorker: 4},
			wantWorkers: 3,
			wantSlots:   7,
		},
		{
			name:        "slots derived from workers",
			cfg:         SimulationConfig{Workers: 3, ItemsPerWorker: 4},
			wantWorkers: 3,
			wantSlots:   12,
		},
		{
			name:        "workers derived from CPU count",
			cfg:         SimulationConfig{ItemsPerWorker: 2},
			wantWorkers: runtime.NumCPU(),
			wantSlots:   runtime.NumCPU() * 2,
		},
		{
			name:        "missing items per worker falls back to one",
			cfg:         SimulationConfig{Workers: 5},
			wantWorkers: 5,
			wantSlots:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolvedWorkers(); got != tt.wantWorkers {
				t.Errorf("ResolvedWorkers() = %d, want %d", got, tt.wantWorkers)
			}
			if got := tt.cfg.ResolvedSlots(); got != tt.wantSlots {
				t.Errorf("ResolvedSlots() = %d, want %d", got, tt.wantSlots)
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `simulation:
  width: 16
  p_site: 0.7
  seed: 42
report:
  format: json
logging:
  level: debug
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		v := viper.New()
		SetDefaultsOn(v)
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig failed: %v", err)
		}

		cfg, err := LoadFrom(v)
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if cfg.Simulation.Width != 16 {
			t.Errorf("Width = %d, want 16", cfg.Simulation.Width)
		}
		if cfg.Simulation.Height != 64 {
			t.Errorf("Height = %d, want default 64", cfg.Simulation.Height)
		}
		if cfg.Simulation.PSite != 0.7 {
			t.Errorf("PSite = %v, want 0.7", cfg.Simulation.PSite)
		}
		if cfg.Simulation.Seed != 42 {
			t.Errorf("Seed = %d, want 42", cfg.Simulation.Seed)
		}
		if cfg.Report.Format != "json" {
			t.Errorf("Format = %q, want json", cfg.Report.Format)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("Level = %q, want debug", cfg.Logging.Level)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaultsOn(v)
		v.Set("simulation.p_site", 1.5)
		v.Set("simulation.rounds", 0)

		_, err := LoadFrom(v)
		if err == nil {
			t.Fatal("expected a validation error")
		}
		verrs, ok := err.(ValidationErrors)
		if !ok {
			t.Fatalf("error type = %T, want ValidationErrors", err)
		}
		if len(verrs) != 2 {
			t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/percolate" {
			t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/percolate")
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		want := filepath.Join(home, ".config", "percolate")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/percolate/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestGet(t *testing.T) {
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Simulation.ItemsPerWorker != 4 {
		t.Errorf("Get().Simulation.ItemsPerWorker = %d, want 4", cfg.Simulation.ItemsPerWorker)
	}
}
