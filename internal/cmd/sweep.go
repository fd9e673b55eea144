package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appconfig "github.com/Iron-Ham/percolate/internal/config"
	"github.com/Iron-Ham/percolate/internal/event"
	"github.com/Iron-Ham/percolate/internal/pool"
	"github.com/Iron-Ham/percolate/internal/report"
	"github.com/Iron-Ham/percolate/internal/simulation"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a simulation at each of several probabilities",
	Long: `Run one simulation per occupation probability, evenly spaced from
--from to --to, and print the spanning frequencies as a table.

Every point uses the same base seed, so the frequencies never decrease
as p grows. All points share one worker pool.

Examples:
  # Bracket the square-lattice threshold
  percolate sweep --from 0.55 --to 0.65 --steps 11

  # JSON lines, one result per point
  percolate sweep --format json --output sweep.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE:    runSweep,
}

var (
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	addGridFlags(sweepCmd)
	d := appconfig.Default()
	f := sweepCmd.Flags()
	f.Float64Var(&sweepFrom, "from", 0.5, "first probability")
	f.Float64Var(&sweepTo, "to", 0.7, "last probability")
	f.IntVar(&sweepSteps, "steps", 9, "number of probabilities")
	f.String("format", d.Report.Format, "table format: text or json")
	f.StringP("output", "o", d.Report.Output, "write all results to a .json or .yaml file")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyTheme(cfg.Report.Theme); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	params := paramsFromConfig(cfg.Simulation)
	p, err := pool.New(params.Workers, pool.WithLogger(logger), pool.WithName("sweep"))
	if err != nil {
		return err
	}
	bus := event.NewBus()
	bus.SetLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ps := simulation.Linspace(sweepFrom, sweepTo, sweepSteps)
	results, sweepErr := simulation.Sweep(ctx, p, params, ps,
		simulation.WithBus(bus), simulation.WithLogger(logger))

	out := cmd.OutOrStdout()
	if len(results) > 0 {
		if cfg.Report.Format == appconfig.FormatJSON {
			err = report.WriteSweepJSON(out, results)
		} else {
			err = report.RenderSweep(out, results)
		}
		if err != nil {
			return err
		}
	}

	if len(results) > 0 && cfg.Report.Output != "" {
		if err := report.WriteResult(cfg.Report.Output, results...); err != nil {
			return err
		}
		if cfg.Report.Format != appconfig.FormatJSON {
			fmt.Fprintf(out, "Results written to %s\n", cfg.Report.Output)
		}
	}
	return sweepErr
}
