package simulation

import (
	"math"
	"runtime"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/event"
)

// Params are the inputs of one simulation run.
type Params struct {
	Width          int     `json:"width" yaml:"width"`
	Height         int     `json:"height" yaml:"height"`
	PSite          float64 `json:"p_site" yaml:"p_site"`
	Workers        int     `json:"workers" yaml:"workers"`
	Slots          int     `json:"slots" yaml:"slots"` // models, and tasks per round
	Rounds         int     `json:"rounds" yaml:"rounds"`
	ReportInterval int     `json:"report_interval" yaml:"report_interval"` // 0 reports after the last round only
	Seed           uint64  `json:"seed" yaml:"seed"` // 0 derives a seed from the clock
}

// DefaultParams returns a 64×64 lattice near the site-percolation threshold,
// four models per CPU and 256 rounds.
func DefaultParams() Params {
	workers := runtime.NumCPU()
	return Params{
		Width:          64,
		Height:         64,
		PSite:          0.5927,
		Workers:        workers,
		Slots:          workers * 4,
		Rounds:         256,
		ReportInterval: 32,
	}
}

// Validate checks every field and returns all problems joined, or nil.
func (p Params) Validate() error {
	var errs []error
	positive := func(field string, v int) {
		if v <= 0 {
			errs = append(errs, errors.NewValidationError("must be positive").WithField(field).WithValue(v))
		}
	}

	positive("width", p.Width)
	positive("height", p.Height)
	positive("workers", p.Workers)
	positive("slots", p.Slots)
	positive("rounds", p.Rounds)
	if p.ReportInterval < 0 {
		errs = append(errs, errors.NewValidationError("must be non-negative").WithField("report_interval").WithValue(p.ReportInterval))
	}
	if math.IsNaN(p.PSite) || p.PSite < 0 || p.PSite > 1 {
		errs = append(errs, errors.NewValidationError("must be within [0, 1]").WithField("p_site").WithValue(p.PSite))
	}
	return errors.Join(errs...)
}

// Samples is the number of trials a complete run executes.
func (p Params) Samples() int { return p.Slots * p.Rounds }

// RunConfig is the event form of p.
func (p Params) RunConfig() event.RunConfig {
	return event.RunConfig{
		Width:          p.Width,
		Height:         p.Height,
		PSite:          p.PSite,
		Workers:        p.Workers,
		Slots:          p.Slots,
		Rounds:         p.Rounds,
		ReportInterval: p.ReportInterval,
		Seed:           p.Seed,
	}
}
