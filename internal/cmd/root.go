// Package cmd implements the percolate command line.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/percolate/internal/cmd/config"
	appconfig "github.com/Iron-Ham/percolate/internal/config"
	"github.com/Iron-Ham/percolate/internal/errors"
)

var (
	cfgFile string
	// configErr is a read failure of an explicitly named config file.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "percolate",
	Short: "Monte Carlo site percolation on a worker pool",
	Long: `percolate estimates how often a randomly occupied square lattice
contains a cluster spanning it, left to right and top to bottom.

Trials run in rounds on a fixed pool of worker goroutines. Each round
submits one trial per model slot and waits for all of them before the
next round starts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ReportError prints a command failure to w. Errors caused by bad input
// are followed by a pointer to the help text.
func ReportError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if errors.IsUserFacing(err) {
		fmt.Fprintln(w, "Run 'percolate --help' for usage.")
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/percolate/config.yaml)")

	config.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath(".")
	}

	// PERCOLATE_SIMULATION_P_SITE for simulation.p_site
	viper.SetEnvPrefix("PERCOLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default config is fine; a broken or missing --config is not.
	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = errors.Wrap(err, "failed to read config")
		}
	}
}

// loadConfig returns the validated configuration for a command.
func loadConfig() (*appconfig.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return appconfig.Load()
}
