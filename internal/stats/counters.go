// Package stats holds the aggregate percolation counters shared by every
// trial of a run.
package stats

import "sync"

// Counters accumulates trial outcomes. All methods are safe for concurrent
// use; the lock is held only for the increment itself.
type Counters struct {
	mu       sync.Mutex
	x        uint64
	y        uint64
	both     uint64
	samples  uint64
	failures uint64
}

// New returns zeroed counters.
func New() *Counters {
	return &Counters{}
}

// Record adds one sampled trial. x and y report whether the lattice
// percolated horizontally and vertically.
func (c *Counters) Record(x, y bool) {
	c.mu.Lock()
	c.samples++
	if x {
		c.x++
	}
	if y {
		c.y++
	}
	if x && y {
		c.both++
	}
	c.mu.Unlock()
}

// RecordFailure counts a trial that did not produce a sample.
func (c *Counters) RecordFailure() {
	c.mu.Lock()
	c.failures++
	c.mu.Unlock()
}

// Snapshot returns a consistent copy of the counters.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		X:        c.x,
		Y:        c.y,
		Both:     c.both,
		Samples:  c.samples,
		Failures: c.failures,
	}
}

// Snapshot is an immutable view of Counters at one instant.
type Snapshot struct {
	X        uint64 `json:"x" yaml:"x"`
	Y        uint64 `json:"y" yaml:"y"`
	Both     uint64 `json:"both" yaml:"both"`
	Samples  uint64 `json:"samples" yaml:"samples"`
	Failures uint64 `json:"failures" yaml:"failures"`
}

// Frequencies are percolation counts divided by the number of samples.
type Frequencies struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Both float64 `json:"both" yaml:"both"`
}

// Frequencies returns X/n, Y/n and Both/n, or all zeros before any sample.
func (s Snapshot) Frequencies() Frequencies {
	if s.Samples == 0 {
		return Frequencies{}
	}
	n := float64(s.Samples)
	return Frequencies{
		X:    float64(s.X) / n,
		Y:    float64(s.Y) / n,
		Both: float64(s.Both) / n,
	}
}

// Sub returns the counts accumulated between prev and s.
func (s Snapshot) Sub(prev Snapshot) Snapshot {
	return Snapshot{
		X:        s.X - prev.X,
		Y:        s.Y - prev.Y,
		Both:     s.Both - prev.Both,
		Samples:  s.Samples - prev.Samples,
		Failures: s.Failures - prev.Failures,
	}
}
