package count

import (
	"sort"

	"github.com/agentic-research/tc/internal/syntax"
)

// KindCount is how often one node kind occurs in a tree.
type KindCount struct {
	Kind   string
	Nodes  int64
	Leaves int64
}

// Kinds returns every node kind in tree with its occurrence counts, most
// frequent first and then by kind. It is the inventory a user consults
// before choosing --kind or --kind-pattern filters.
func Kinds(tree syntax.Tree) []KindCount {
	byKind := make(map[string]*KindCount)
	syntax.Traverse(tree, func(n syntax.Node) {
		k := n.Kind()
		kc, ok := byKind[k]
		if !ok {
			kc = &KindCount{Kind: k}
			byKind[k] = kc
		}
		kc.Nodes++
		if syntax.IsLeaf(n) {
			kc.Leaves++
		}
	})

	out := make([]KindCount, 0, len(byKind))
	for _, kc := range byKind {
		out = append(out, *kc)
	}
	sortKinds(out)
	return out
}

// MergeKinds folds several inventories into one, ordered like Kinds.
func MergeKinds(lists ...[]KindCount) []KindCount {
	byKind := make(map[string]KindCount)
	for _, l := range lists {
		for _, kc := range l {
			m := byKind[kc.Kind]
			m.Kind = kc.Kind
			m.Nodes += kc.Nodes
			m.Leaves += kc.Leaves
			byKind[kc.Kind] = m
		}
	}
	out := make([]KindCount, 0, len(byKind))
	for _, kc := range byKind {
		out = append(out, kc)
	}
	sortKinds(out)
	return out
}

func sortKinds(kinds []KindCount) {
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Nodes != kinds[j].Nodes {
			return kinds[i].Nodes > kinds[j].Nodes
		}
		return kinds[i].Kind < kinds[j].Kind
	})
}
