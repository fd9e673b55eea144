// Package lattice provides the rectangular site lattice a percolation trial
// runs on.
package lattice

import (
	"math/rand/v2"
	"strings"

	"github.com/Iron-Ham/percolate/internal/errors"
)

// Site addresses one lattice cell by column I and row J.
type Site struct {
	I, J int
}

// Lattice is a W×H grid of occupied or empty sites stored row-major:
// site (i, j) lives at index j*W + i. It is reused across trials and is not
// safe for concurrent use.
type Lattice struct {
	width, height int
	sites         []bool
}

// New allocates an empty width×height lattice.
func New(width, height int) (*Lattice, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewValidationError("lattice dimensions must be positive").
			WithField("size").WithValue([2]int{width, height})
	}
	return &Lattice{
		width:  width,
		height: height,
		sites:  make([]bool, width*height),
	}, nil
}

// Width returns the number of columns.
func (l *Lattice) Width() int { return l.width }

// Height returns the number of rows.
func (l *Lattice) Height() int { return l.height }

// Len returns Width()*Height().
func (l *Lattice) Len() int { return len(l.sites) }

// Generate overwrites every site, drawing one Float64 per site in row-major
// order; a site is occupied when its draw is below p. The same rng state
// and p always produce the same lattice.
func (l *Lattice) Generate(p float64, rng *rand.Rand) {
	for k := range l.sites {
		l.sites[k] = rng.Float64() < p
	}
}

// Index maps (i, j) to its row-major offset.
func (l *Lattice) Index(i, j int) (int, error) {
	if i < 0 || i >= l.width {
		return 0, errors.NewRangeError("lattice.column", i, l.width)
	}
	if j < 0 || j >= l.height {
		return 0, errors.NewRangeError("lattice.row", j, l.height)
	}
	return j*l.width + i, nil
}

// IsOccupied reports whether site (i, j) is occupied.
func (l *Lattice) IsOccupied(i, j int) (bool, error) {
	k, err := l.Index(i, j)
	if err != nil {
		return false, err
	}
	return l.sites[k], nil
}

// At is IsOccupied by row-major index, without bounds reporting.
// It panics on an out-of-range index like a slice access.
func (l *Lattice) At(k int) bool { return l.sites[k] }

// Set marks site (i, j) occupied or empty.
func (l *Lattice) Set(i, j int, occupied bool) error {
	k, err := l.Index(i, j)
	if err != nil {
		return err
	}
	l.sites[k] = occupied
	return nil
}

// Fill sets every site to the same state.
func (l *Lattice) Fill(occupied bool) {
	for k := range l.sites {
		l.sites[k] = occupied
	}
}

// Neighbors returns the orthogonal neighbours of (i, j) that exist, in the
// order left, right, up, down.
func (l *Lattice) Neighbors(i, j int) ([]Site, error) {
	if _, err := l.Index(i, j); err != nil {
		return nil, err
	}
	out := make([]Site, 0, 4)
	if i > 0 {
		out = append(out, Site{i - 1, j})
	}
	if i < l.width-1 {
		out = append(out, Site{i + 1, j})
	}
	if j > 0 {
		out = append(out, Site{i, j - 1})
	}
	if j < l.height-1 {
		out = append(out, Site{i, j + 1})
	}
	return out, nil
}

// Occupied returns the number of occupied sites.
func (l *Lattice) Occupied() int {
	n := 0
	for _, s := range l.sites {
		if s {
			n++
		}
	}
	return n
}

// String renders the lattice one row per line, '#' for occupied and '.'
// for empty.
func (l *Lattice) String() string {
	var b strings.Builder
	b.Grow(len(l.sites) + l.height)
	for j := range l.height {
		for i := range l.width {
			if l.sites[j*l.width+i] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse builds a lattice from rows of '#' and '.', the inverse of String.
// Blank lines are ignored; every row must have the same length.
func Parse(s string) (*Lattice, error) {
	var rows []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil, errors.NewValidationError("lattice has no rows").WithField("rows")
	}

	l, err := New(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for j, row := range rows {
		if len(row) != l.width {
			return nil, errors.NewValidationError("ragged lattice row").
				WithField("row").WithValue(j)
		}
		for i, c := range row {
			switch c {
			case '#':
				l.sites[j*l.width+i] = true
			case '.':
			default:
				return nil, errors.NewValidationError("unexpected lattice character").
					WithField("row").WithValue(string(c))
			}
		}
	}
	return l, nil
}
