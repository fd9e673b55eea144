package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Iron-Ham/percolate/internal/simulation"
	"github.com/Iron-Ham/percolate/internal/tui/styles"
	"github.com/Iron-Ham/percolate/internal/util"
)

// SweepHeaders are the column titles of RenderSweep.
var SweepHeaders = []string{"p", "samples", "x", "y", "both", "failed", "elapsed"}

// SweepRows returns one row of plain cells per result.
func SweepRows(results []*simulation.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		f := r.Frequencies
		rows = append(rows, []string{
			fmt.Sprintf("%.4f", r.Params.PSite),
			util.FormatCount(r.Snapshot.Samples),
			fmt.Sprintf("%.4f", f.X),
			fmt.Sprintf("%.4f", f.Y),
			fmt.Sprintf("%.4f", f.Both),
			fmt.Sprint(r.FailedTrials),
			util.FormatDuration(r.Elapsed),
		})
	}
	return rows
}

// RenderSweep writes a table of percolation frequencies per probability.
func RenderSweep(w io.Writer, results []*simulation.Result) error {
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderColor)).
		Headers(SweepHeaders...).
		Rows(SweepRows(results)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cell.Bold(true).Foreground(styles.PrimaryColor)
			case col == 0:
				return cell.Foreground(styles.TextColor)
			case col >= 2 && col <= 4:
				return cell.Foreground(styles.SecondaryColor).Align(lipgloss.Right)
			default:
				return cell.Foreground(styles.MutedColor).Align(lipgloss.Right)
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// WriteSweepJSON writes one JSON line per result, for --format json.
func WriteSweepJSON(w io.Writer, results []*simulation.Result) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}
