package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appconfig "github.com/Iron-Ham/percolate/internal/config"
	"github.com/Iron-Ham/percolate/internal/event"
	"github.com/Iron-Ham/percolate/internal/logging"
	"github.com/Iron-Ham/percolate/internal/pool"
	"github.com/Iron-Ham/percolate/internal/report"
	"github.com/Iron-Ham/percolate/internal/simulation"
	"github.com/Iron-Ham/percolate/internal/tui"
	"github.com/Iron-Ham/percolate/internal/tui/styles"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation",
	Long: `Run rounds of percolation trials at a single occupation probability
and report the running frequencies of spanning clusters.

Flags override the config file, which overrides the built-in defaults.
Interrupting the run stops it after the current round; the partial
totals are still reported and written to --output.

Examples:
  # 128x128 lattice just above the threshold
  percolate run --width 128 --height 128 --p 0.6

  # Reproducible run with the result saved as YAML
  percolate run --seed 42 --output result.yaml

  # Machine-readable progress
  percolate run --format json --tui never`,
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE:    runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addGridFlags(runCmd)
	d := appconfig.Default()
	f := runCmd.Flags()
	f.Float64("p", d.Simulation.PSite, "site occupation probability")
	f.Int("report-interval", d.Simulation.ReportInterval, "rounds between progress reports (0 = end only)")
	f.String("format", d.Report.Format, "console format: text or json")
	f.String("tui", d.Report.TUI, "live dashboard: auto, always or never")
	f.StringP("output", "o", d.Report.Output, "write the result to a .json or .yaml file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyTheme(cfg.Report.Theme); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stdout, _ := out.(*os.File)
	dashboard := tui.ShouldUse(cfg.Report.TUI, stdout)

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr(), dashboard)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	params := paramsFromConfig(cfg.Simulation)
	p, err := pool.New(params.Workers, pool.WithLogger(logger), pool.WithName("trials"))
	if err != nil {
		return err
	}
	bus := event.NewBus()
	bus.SetLogger(logger)

	runner, err := simulation.New(params, p, simulation.WithBus(bus), simulation.WithLogger(logger))
	if err != nil {
		p.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		res    *simulation.Result
		runErr error
	)
	if dashboard {
		res, runErr = runWithDashboard(ctx, runner, bus)
	} else {
		detach := report.Attach(bus, newReporter(cfg.Report.Format, out))
		res, runErr = runner.Run(ctx)
		detach()
	}

	if res != nil && cfg.Report.Output != "" {
		if err := report.WriteResult(cfg.Report.Output, res); err != nil {
			return err
		}
		if cfg.Report.Format != appconfig.FormatJSON {
			fmt.Fprintf(out, "Result written to %s\n", cfg.Report.Output)
		}
	}
	return runErr
}

// runWithDashboard runs the simulation on its own goroutine while the
// dashboard owns the terminal. Quitting the dashboard cancels the run.
func runWithDashboard(ctx context.Context, runner *simulation.Runner, bus *event.Bus) (*simulation.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := tui.New(bus, cancel)

	var (
		res    *simulation.Result
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, runErr = runner.Run(ctx)
	}()

	_, uiErr := app.Run()
	if uiErr != nil {
		cancel()
	}
	<-done
	if uiErr != nil && runErr == nil {
		runErr = fmt.Errorf("dashboard failed: %w", uiErr)
	}
	return res, runErr
}

func newReporter(format string, w io.Writer) report.Reporter {
	if format == appconfig.FormatJSON {
		return report.NewJSONReporter(w)
	}
	return report.NewTextReporter(w)
}

// newLogger builds the run logger. Without a log directory the log goes to
// stderr, except under the dashboard where it would corrupt the display.
func newLogger(c appconfig.LoggingConfig, stderr io.Writer, dashboard bool) (*logging.Logger, error) {
	switch {
	case !c.Enabled:
		return logging.NopLogger(), nil
	case c.Dir != "":
		return logging.NewLoggerWithRotation(c.Dir, c.Level, logging.RotationConfig{
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			Compress:   c.Compress,
		})
	case dashboard:
		return logging.NopLogger(), nil
	default:
		return logging.NewWriterLogger(stderr, c.Level), nil
	}
}

// applyTheme loads a palette file and restyles the text report and dashboard.
func applyTheme(path string) error {
	if path == "" {
		return nil
	}
	theme, err := styles.LoadThemeFile(path)
	if err != nil {
		return err
	}
	styles.Apply(theme.ToPalette())
	return nil
}

func paramsFromConfig(s appconfig.SimulationConfig) simulation.Params {
	return simulation.Params{
		Width:          s.Width,
		Height:         s.Height,
		PSite:          s.PSite,
		Workers:        s.ResolvedWorkers(),
		Slots:          s.ResolvedSlots(),
		Rounds:         s.Rounds,
		ReportInterval: s.ReportInterval,
		Seed:           s.Seed,
	}
}
