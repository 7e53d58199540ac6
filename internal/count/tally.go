// Package count turns syntax trees into tallies and folds tallies into
// groups.
package count

import (
	"github.com/agentic-research/tc/internal/match"
	"github.com/agentic-research/tc/internal/syntax"
)

// Tally holds the counts for one file, or the merged counts of many.
// Matches is indexed like match.Set.Groups.
type Tally struct {
	Tokens  int64
	Matches []int64
}

// NewTally returns a zero tally with width match counters.
func NewTally(width int) Tally {
	return Tally{Matches: make([]int64, width)}
}

// Add adds o into t counter by counter. Addition is commutative and
// associative, so merge order never changes a result.
func (t *Tally) Add(o Tally) {
	t.Tokens += o.Tokens
	if len(o.Matches) > len(t.Matches) {
		grown := make([]int64, len(o.Matches))
		copy(grown, t.Matches)
		t.Matches = grown
	}
	for i, v := range o.Matches {
		t.Matches[i] += v
	}
}

// Count walks tree once. Every leaf adds one token, and every counter the
// node satisfies adds one match; the two are not exclusive. Count performs
// no I/O and keeps no reference to tree.
func Count(tree syntax.Tree, set *match.Set) Tally {
	t := NewTally(set.Len())
	c := set.Bind(tree)
	var groups []int
	syntax.Traverse(tree, func(n syntax.Node) {
		if set.IsToken(n) {
			t.Tokens++
		}
		groups = c.Classify(n, groups[:0])
		for _, g := range groups {
			t.Matches[g]++
		}
	})
	return t
}
