package count

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// Group is the running total for one group key.
type Group struct {
	Key   string
	Tally Tally
	// Files holds the IDs of every file that contributed.
	Files *roaring.Bitmap
}

// NumFiles is the number of distinct contributing files.
func (g *Group) NumFiles() uint64 {
	return g.Files.GetCardinality()
}

// Aggregator folds per-file tallies into groups. It is not safe for
// concurrent use; concurrent producers funnel through a single consumer
// (see ingest.Engine).
type Aggregator struct {
	width  int
	groups map[string]*Group
}

// NewAggregator returns an empty aggregator for tallies of width counters.
func NewAggregator(width int) *Aggregator {
	return &Aggregator{
		width:  width,
		groups: make(map[string]*Group),
	}
}

// Add merges the tally of file into the group named key, creating the
// group on first contribution.
func (a *Aggregator) Add(key string, file uint32, t Tally) {
	g := a.group(key)
	g.Tally.Add(t)
	g.Files.Add(file)
}

func (a *Aggregator) group(key string) *Group {
	g, ok := a.groups[key]
	if !ok {
		g = &Group{
			Key:   key,
			Tally: NewTally(a.width),
			Files: roaring.New(),
		}
		a.groups[key] = g
	}
	return g
}

// Len is the number of groups.
func (a *Aggregator) Len() int { return len(a.groups) }

// Groups returns the groups ordered by key. Callers must not mutate them.
func (a *Aggregator) Groups() []*Group {
	out := make([]*Group, 0, len(a.groups))
	for _, g := range a.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
