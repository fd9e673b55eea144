package main

import (
	"os"

	"github.com/Iron-Ham/percolate/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}
