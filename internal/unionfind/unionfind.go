// Package unionfind implements a disjoint-set forest with path compression
// and union by size.
//
// Nodes are dense integers in [0, Capacity()). The structure is meant to be
// allocated once and cleared with Reset between uses, so a trial loop does
// not allocate.
package unionfind

import (
	"fmt"
	"sort"

	"github.com/Iron-Ham/percolate/internal/errors"
)

// UnionFind is a disjoint-set forest. It is not safe for concurrent use.
type UnionFind struct {
	parent []int
	size   []int // valid only at roots
	count  int
}

// New returns a UnionFind over n singleton nodes.
func New(n int) (*UnionFind, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("node count must be positive").
			WithField("n").WithValue(n)
	}
	u := &UnionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	u.Reset()
	return u, nil
}

// Reset makes every node a singleton again without reallocating.
func (u *UnionFind) Reset() {
	for i := range u.parent {
		u.makeSet(i)
	}
	u.count = len(u.parent)
}

// MakeSet makes node the root of a set of size one. A node that has been
// merged since the last Reset cannot be split back out and is rejected with
// a StateError; use Reset to clear the whole structure.
func (u *UnionFind) MakeSet(node int) error {
	if err := u.check(node); err != nil {
		return err
	}
	if u.parent[node] != node || u.size[node] != 1 {
		return errors.NewStateError("make_set", "merged", "singleton")
	}
	u.makeSet(node)
	return nil
}

func (u *UnionFind) makeSet(node int) {
	u.parent[node] = node
	u.size[node] = 1
}

// Capacity returns the number of nodes.
func (u *UnionFind) Capacity() int { return len(u.parent) }

// Count returns the number of disjoint sets.
func (u *UnionFind) Count() int { return u.count }

// Find returns the representative of node's set, compressing the path so
// every node visited points directly at the root afterwards.
func (u *UnionFind) Find(node int) (int, error) {
	if err := u.check(node); err != nil {
		return 0, err
	}
	return u.find(node), nil
}

func (u *UnionFind) find(node int) int {
	root := node
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for node != root {
		next := u.parent[node]
		u.parent[node] = root
		node = next
	}
	return root
}

// Union merges the sets containing a and b. The smaller set's root is
// attached under the larger's; on a tie b's root goes under a's. Joining
// a set with itself is a no-op.
func (u *UnionFind) Union(a, b int) error {
	if err := u.check(a); err != nil {
		return err
	}
	if err := u.check(b); err != nil {
		return err
	}
	u.union(a, b)
	return nil
}

func (u *UnionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	u.count--
}

// Connected reports whether a and b are in the same set.
func (u *UnionFind) Connected(a, b int) (bool, error) {
	if err := u.check(a); err != nil {
		return false, err
	}
	if err := u.check(b); err != nil {
		return false, err
	}
	return u.find(a) == u.find(b), nil
}

// Size returns the number of nodes in node's set.
func (u *UnionFind) Size(node int) (int, error) {
	if err := u.check(node); err != nil {
		return 0, err
	}
	return u.size[u.find(node)], nil
}

// Sets returns every set keyed by its root, members in ascending order.
func (u *UnionFind) Sets() map[int][]int {
	sets := make(map[int][]int, u.count)
	for i := range u.parent {
		r := u.find(i)
		sets[r] = append(sets[r], i)
	}
	for _, members := range sets {
		sort.Ints(members)
	}
	return sets
}

func (u *UnionFind) check(node int) error {
	if node < 0 || node >= len(u.parent) {
		return errors.NewRangeError("unionfind", node, len(u.parent))
	}
	return nil
}

// String summarizes the forest for debugging.
func (u *UnionFind) String() string {
	return fmt.Sprintf("UnionFind{nodes: %d, sets: %d}", len(u.parent), u.count)
}
