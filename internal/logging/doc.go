// Package logging provides structured JSON logging for percolation runs.
//
// A [Logger] wraps log/slog and carries persistent attributes so that every
// line written on behalf of a trial can be traced back to its run, worker
// and round:
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	runLog := logger.WithRun("run-1a2b")
//	runLog.WithRound(3).Warn("trial failed", "slot", 7, "error", err)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"trial failed","run_id":"run-1a2b","round":3,"slot":7,"error":"..."}
//
// [RotatingWriter] bounds the log's size on disk, keeping a configurable
// number of (optionally gzipped) backups next to the active file.
//
// [AggregateLogs], [FilterLogs] and [WriteEntries] read those files back for
// the "percolate logs" command. Filters can select by level, time range, run,
// worker, round, and a glob pattern on the message.
//
// All types are safe for concurrent use; child loggers share one writer.
package logging
