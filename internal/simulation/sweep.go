package simulation

import (
	"context"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/stats"
)

// Sweep runs base once per occupation probability in ps, reusing exec for
// every point and closing it at the end. All points share one resolved
// seed, so trial k sees the same random draws at every p and the measured
// frequencies are non-decreasing in p. Each point aggregates into its own
// counters.
//
// Results are returned in the order of ps. If a point fails or ctx is
// canceled, the results gathered so far are returned with the error.
func Sweep(ctx context.Context, exec Executor, base Params, ps []float64, opts ...Option) ([]*Result, error) {
	if exec == nil {
		return nil, errors.NewValidationError("executor is required").WithField("executor")
	}
	defer exec.Close()

	if len(ps) == 0 {
		return nil, errors.NewValidationError("sweep needs at least one probability").WithField("p_site")
	}
	if base.Seed == 0 {
		base.Seed = clockSeed()
	}

	results := make([]*Result, 0, len(ps))
	for i, p := range ps {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrapf(errors.Join(errors.ErrCanceled, err), "sweep stopped before point %d", i)
		}

		params := base
		params.PSite = p
		pointOpts := append(append([]Option(nil), opts...), WithCounters(stats.New()), keepExecutor())

		r, err := New(params, exec, pointOpts...)
		if err != nil {
			return results, errors.Wrapf(err, "sweep point %d (p=%g)", i, p)
		}
		res, err := r.Run(ctx)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, errors.Wrapf(err, "sweep point %d (p=%g)", i, p)
		}
	}
	return results, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive. n == 1
// yields just lo; n <= 0 yields nil.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
