package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/percolate/internal/config"
)

// flagKeys maps command-line flags to the viper keys they override.
var flagKeys = map[string]string{
	"width":           "simulation.width",
	"height":          "simulation.height",
	"p":               "simulation.p_site",
	"workers":         "simulation.workers",
	"slots":           "simulation.slots",
	"rounds":          "simulation.rounds",
	"report-interval": "simulation.report_interval",
	"seed":            "simulation.seed",
	"format":          "report.format",
	"tui":             "report.tui",
	"output":          "report.output",
}

// addGridFlags registers the lattice and pool flags shared by run and sweep.
func addGridFlags(cmd *cobra.Command) {
	d := appconfig.Default().Simulation
	f := cmd.Flags()
	f.Int("width", d.Width, "lattice width in sites")
	f.Int("height", d.Height, "lattice height in sites")
	f.Int("workers", d.Workers, "worker goroutines (0 = one per CPU)")
	f.Int("slots", d.Slots, "trials per round (0 = workers * items_per_worker)")
	f.Int("rounds", d.Rounds, "rounds per run")
	f.Uint64("seed", d.Seed, "base seed (0 = derive from the clock)")
}

// bindFlags points every flag of cmd that has a config key at that key.
// Binding happens when the command runs because run and sweep share keys
// and viper keeps one flag per key.
func bindFlags(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			if err := viper.BindPFlag(key, fl); err != nil {
				return err
			}
		}
	}
	return nil
}
