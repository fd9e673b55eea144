package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/percolate/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View run logs",
	Long: `View and filter the structured run log, including rotated backups.

By default, reads the directory set by logging.dir and shows the last 50
entries. Use flags to filter and format the output.

Examples:
  # Show the last 50 entries
  percolate logs --dir ~/.cache/percolate

  # Warnings and errors from the last hour
  percolate logs --level warn --since 1h

  # Everything worker 3 logged in round 12
  percolate logs --worker 3 --round 12 --tail 0

  # Messages matching a glob
  percolate logs --grep "trial*"

  # Export one run as CSV
  percolate logs --run 1a2b3c4d --export run.csv

  # Follow a running simulation
  percolate logs -f --level warn`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsDir          string
	logsLevel        string
	logsSince        time.Duration
	logsRun          string
	logsWorker       int
	logsRound        int
	logsGrep         string
	logsTail         int
	logsFollow       bool
	logsExport       string
	logsExportFormat string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	f := logsCmd.Flags()
	f.StringVar(&logsDir, "dir", "", "log directory (default: logging.dir)")
	f.StringVar(&logsLevel, "level", "", "minimum level (debug/info/warn/error)")
	f.DurationVar(&logsSince, "since", 0, "only entries newer than this (e.g., 1h, 30m)")
	f.StringVar(&logsRun, "run", "", "only entries of this run id")
	f.IntVar(&logsWorker, "worker", 0, "only entries of this worker")
	f.IntVar(&logsRound, "round", 0, "only entries of this round")
	f.StringVar(&logsGrep, "grep", "", "glob the whole message must match (e.g., \"round*\")")
	f.IntVarP(&logsTail, "tail", "n", 50, "number of entries to show (0 for all)")
	f.BoolVarP(&logsFollow, "follow", "f", false, "keep printing new entries (like tail -f)")
	f.StringVar(&logsExport, "export", "", "write the matching entries to this file instead")
	f.StringVar(&logsExportFormat, "export-format", "", "json, text or csv (default: from the --export extension)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := logsDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Logging.Dir
	}
	if dir == "" {
		return fmt.Errorf("no log directory: pass --dir or set logging.dir")
	}

	filter := logging.LogFilter{
		Level:   logsLevel,
		RunID:   logsRun,
		Pattern: logsGrep,
	}
	if logsSince > 0 {
		filter.Since = time.Now().Add(-logsSince)
	}
	if cmd.Flags().Changed("worker") {
		filter.Worker = &logsWorker
	}
	if cmd.Flags().Changed("round") {
		filter.Round = &logsRound
	}
	if logsFollow {
		return followLogs(cmd, dir, filter)
	}

	entries, err := logging.AggregateLogs(dir)
	if err != nil {
		return err
	}
	entries, err = logging.FilterLogs(entries, filter)
	if err != nil {
		return err
	}

	if logsExport != "" {
		format := logsExportFormat
		if format == "" {
			format = exportFormatFor(logsExport)
		}
		if err := logging.ExportLogEntries(entries, logsExport, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}
	return logging.WriteEntries(cmd.OutOrStdout(), entries, "text")
}

func followLogs(cmd *cobra.Command, dir string, filter logging.LogFilter) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", filepath.Join(dir, logging.LogFileName))
	return logging.Follow(ctx, dir, filter, func(e logging.LogEntry) {
		fmt.Fprintln(out, logging.FormatText(e))
	})
}

func exportFormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	default:
		return "text"
	}
}
