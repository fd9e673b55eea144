// Package model runs a single site-percolation trial: generate a lattice,
// label its clusters, and decide whether a cluster spans it.
package model

import (
	"math/rand/v2"

	"github.com/Iron-Ham/percolate/internal/errors"
	"github.com/Iron-Ham/percolate/internal/lattice"
	"github.com/Iron-Ham/percolate/internal/unionfind"
)

// State is the position of a Model in its trial lifecycle.
type State int

// Model states. Execute may be called from any state and always restarts.
const (
	Uninitialized State = iota
	LatticeGenerated
	ClustersBuilt
	Sampled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LatticeGenerated:
		return "lattice_generated"
	case ClustersBuilt:
		return "clusters_built"
	case Sampled:
		return "sampled"
	default:
		return "unknown"
	}
}

// Sentinels are the union-find ids of the four virtual boundary nodes,
// placed after the W*H site nodes.
type Sentinels struct {
	Top, Bottom, Left, Right int
}

// SentinelsFor returns the sentinel ids for a lattice of n sites.
func SentinelsFor(n int) Sentinels {
	return Sentinels{Top: n, Bottom: n + 1, Left: n + 2, Right: n + 3}
}

// Outcome is the result of one trial.
type Outcome struct {
	X bool // a cluster joins the left and right edges
	Y bool // a cluster joins the top and bottom edges
}

// Both reports percolation in both directions.
func (o Outcome) Both() bool { return o.X && o.Y }

// Recorder receives one outcome per sampled trial. *stats.Counters
// satisfies it.
type Recorder interface {
	Record(x, y bool)
}

// Model owns one lattice and one union-find and is reused across trials.
// It must only be driven by one goroutine at a time.
type Model struct {
	lat      *lattice.Lattice
	uf       *unionfind.UnionFind
	sentinel Sentinels
	state    State
	clusters int     // occupied-site clusters, counted before the boundary pass
	spanning Outcome // edge-to-edge spanning, decided before the boundary pass
	mark     []uint32
	gen      uint32
}

// New allocates a model for a width×height lattice.
func New(width, height int) (*Model, error) {
	lat, err := lattice.New(width, height)
	if err != nil {
		return nil, err
	}
	return newModel(lat)
}

// FromLattice wraps an existing lattice, e.g. one built with lattice.Parse.
// The model starts in LatticeGenerated; call Build before Sample.
func FromLattice(lat *lattice.Lattice) (*Model, error) {
	m, err := newModel(lat)
	if err != nil {
		return nil, err
	}
	m.state = LatticeGenerated
	return m, nil
}

func newModel(lat *lattice.Lattice) (*Model, error) {
	uf, err := unionfind.New(lat.Len() + 4)
	if err != nil {
		return nil, err
	}
	return &Model{
		lat:      lat,
		uf:       uf,
		sentinel: SentinelsFor(lat.Len()),
		mark:     make([]uint32, lat.Len()),
	}, nil
}

// State returns the current lifecycle state.
func (m *Model) State() State { return m.state }

// Lattice exposes the model's lattice for inspection.
func (m *Model) Lattice() *lattice.Lattice { return m.lat }

// Sentinels returns the boundary node ids.
func (m *Model) Sentinels() Sentinels { return m.sentinel }

// Execute runs a full trial up to ClustersBuilt: it regenerates the lattice
// with occupation probability p from rng, then builds clusters. A rejected
// call leaves the model Uninitialized, so the previous trial cannot be
// sampled again.
func (m *Model) Execute(p float64, rng *rand.Rand) error {
	m.state = Uninitialized
	if p < 0 || p > 1 {
		return errors.NewValidationError("occupation probability must be within [0, 1]").
			WithField("p").WithValue(p)
	}
	if rng == nil {
		return errors.NewValidationError("random source is required").WithField("rng")
	}
	m.lat.Generate(p, rng)
	m.state = LatticeGenerated
	return m.Build()
}

// Build labels clusters on the current lattice. It scans rows top to bottom
// and columns left to right, joining each occupied site to its occupied
// left and upper neighbours, then joins occupied edge sites to the matching
// sentinel.
func (m *Model) Build() error {
	if m.state == Uninitialized {
		return errors.NewStateError("build", m.state.String(), LatticeGenerated.String())
	}

	m.uf.Reset()
	w, h := m.lat.Width(), m.lat.Height()

	for j := range h {
		for i := range w {
			k := j*w + i
			if !m.lat.At(k) {
				continue
			}
			if i > 0 && m.lat.At(k-1) {
				if err := m.uf.Union(k, k-1); err != nil {
					return err
				}
			}
			if j > 0 && m.lat.At(k-w) {
				if err := m.uf.Union(k, k-w); err != nil {
					return err
				}
			}
		}
	}

	// Every empty site and each sentinel is still a singleton here.
	m.clusters = m.uf.Count() - (m.lat.Len() - m.lat.Occupied()) - 4
	m.spanning = Outcome{
		X: m.edgesShareCluster(h, func(t int) int { return t * w }, func(t int) int { return t*w + w - 1 }),
		Y: m.edgesShareCluster(w, func(t int) int { return t }, func(t int) int { return (h-1)*w + t }),
	}

	for j := range h {
		if err := m.joinIfOccupied(j*w, m.sentinel.Left); err != nil {
			return err
		}
		if err := m.joinIfOccupied(j*w+w-1, m.sentinel.Right); err != nil {
			return err
		}
	}
	for i := range w {
		if err := m.joinIfOccupied(i, m.sentinel.Top); err != nil {
			return err
		}
		if err := m.joinIfOccupied((h-1)*w+i, m.sentinel.Bottom); err != nil {
			return err
		}
	}

	m.state = ClustersBuilt
	return nil
}

// edgesShareCluster reports whether some cluster has an occupied site on
// both edges. Edge sites are enumerated by position t in [0, n).
func (m *Model) edgesShareCluster(n int, from, to func(t int) int) bool {
	m.gen++
	if m.gen == 0 {
		clear(m.mark)
		m.gen = 1
	}
	for t := range n {
		if k := from(t); m.lat.At(k) {
			r, _ := m.uf.Find(k)
			m.mark[r] = m.gen
		}
	}
	for t := range n {
		if k := to(t); m.lat.At(k) {
			if r, _ := m.uf.Find(k); m.mark[r] == m.gen {
				return true
			}
		}
	}
	return false
}

func (m *Model) joinIfOccupied(site, sentinel int) error {
	if !m.lat.At(site) {
		return nil
	}
	return m.uf.Union(site, sentinel)
}

// PercolatesX reports whether the left and right sentinels share a cluster.
func (m *Model) PercolatesX() (bool, error) {
	if err := m.requireClusters("percolates_x"); err != nil {
		return false, err
	}
	return m.uf.Connected(m.sentinel.Left, m.sentinel.Right)
}

// PercolatesY reports whether the top and bottom sentinels share a cluster.
func (m *Model) PercolatesY() (bool, error) {
	if err := m.requireClusters("percolates_y"); err != nil {
		return false, err
	}
	return m.uf.Connected(m.sentinel.Top, m.sentinel.Bottom)
}

// Sample computes the outcome, records it once on r and moves the model to
// Sampled. Each call is one sample: a Sampled model may be sampled again
// and records the same configuration again, so callers that count trials
// call it once per Execute, as Runner does.
func (m *Model) Sample(r Recorder) (Outcome, error) {
	if err := m.requireClusters("sample"); err != nil {
		return Outcome{}, err
	}
	x, err := m.uf.Connected(m.sentinel.Left, m.sentinel.Right)
	if err != nil {
		return Outcome{}, err
	}
	y, err := m.uf.Connected(m.sentinel.Top, m.sentinel.Bottom)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{X: x, Y: y}
	if r != nil {
		r.Record(out.X, out.Y)
	}
	m.state = Sampled
	return out, nil
}

// Spanning reports whether a single cluster of occupied sites touches both
// opposite edges. Unlike Sample it ignores the boundary nodes, so two
// clusters that only meet through a shared edge do not count.
func (m *Model) Spanning() (Outcome, error) {
	if err := m.requireClusters("spanning"); err != nil {
		return Outcome{}, err
	}
	return m.spanning, nil
}

// Components returns the number of clusters of occupied sites. Empty sites
// and sentinels are not counted, and clusters joined only through a
// sentinel count separately.
func (m *Model) Components() (int, error) {
	if err := m.requireClusters("components"); err != nil {
		return 0, err
	}
	return m.clusters, nil
}

func (m *Model) requireClusters(op string) error {
	if m.state != ClustersBuilt && m.state != Sampled {
		return errors.NewStateError(op, m.state.String(), ClustersBuilt.String())
	}
	return nil
}
