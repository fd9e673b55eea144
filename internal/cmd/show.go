package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/event"
	"github.com/Iron-Ham/percolate/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a saved result file",
	Long: `Print a result file written by 'run --output' or 'sweep --output'.

A single result is shown as a summary; a sweep is shown as a table.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	results, err := report.ReadResults(args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("%s holds no results", args[0])
	}
	out := cmd.OutOrStdout()
	if len(results) > 1 {
		return report.RenderSweep(out, results)
	}

	res := results[0]
	var stopped error
	if res.Canceled {
		stopped = errors.ErrCanceled
	}
	fmt.Fprintln(out, report.FormatStarted(event.NewRunStartedEvent(res.RunID, res.Params.RunConfig())))
	fmt.Fprintln(out, report.FormatSummary(event.NewRunCompletedEvent(res.RunID, res.Rounds, res.Snapshot, res.Elapsed, stopped)))
	return nil
}
