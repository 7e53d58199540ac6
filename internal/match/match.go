// Package match decides which named counters a syntax node increments.
package match

import (
	"fmt"
	"regexp"

	"github.com/agentic-research/tc/internal/syntax"
)

// Family identifies which kind of filter produced a counter.
type Family int

const (
	// FamilyKind counters compare the node kind for equality.
	FamilyKind Family = iota
	// FamilyPattern counters search the node kind with a regular expression.
	FamilyPattern
	// FamilyQuery counters evaluate a structural query.
	FamilyQuery
)

func (f Family) String() string {
	switch f {
	case FamilyKind:
		return "kind"
	case FamilyPattern:
		return "pattern"
	case FamilyQuery:
		return "query"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Group is one named counter. Its position in Set.Groups is the index used
// by Classify and by count.Tally.
type Group struct {
	Name   string
	Family Family
}

// Query is a structural predicate over a tree. Bind prepares the query for
// one tree and returns the per-node test. A nil func means the query can
// never match anything in that tree.
type Query interface {
	String() string
	Bind(tree syntax.Tree) func(syntax.Node) bool
}

// QueryCompiler turns query source text into a Query.
type QueryCompiler func(src string) (Query, error)

// Options are the filters supplied for one invocation.
type Options struct {
	Kinds    []string
	Patterns []string
	Queries  []string
}

// Set is the immutable collection of filters. It is safe for concurrent use
// once New returns.
type Set struct {
	groups   []Group
	kinds    map[string][]int
	patterns []pattern
	queries  []boundQuery
}

type pattern struct {
	group int
	re    *regexp.Regexp
}

type boundQuery struct {
	group int
	q     Query
}

// New compiles opts. Invalid patterns or queries fail here, before any file
// is parsed. compile may be nil when opts has no queries.
func New(opts Options, compile QueryCompiler) (*Set, error) {
	s := &Set{kinds: make(map[string][]int)}

	for _, k := range opts.Kinds {
		idx := len(s.groups)
		s.groups = append(s.groups, Group{Name: k, Family: FamilyKind})
		s.kinds[k] = append(s.kinds[k], idx)
	}

	for _, p := range opts.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid kind pattern %q: %w", p, err)
		}
		idx := len(s.groups)
		s.groups = append(s.groups, Group{Name: p, Family: FamilyPattern})
		s.patterns = append(s.patterns, pattern{group: idx, re: re})
	}

	if len(opts.Queries) > 0 && compile == nil {
		return nil, fmt.Errorf("no query compiler available for %d queries", len(opts.Queries))
	}
	for _, src := range opts.Queries {
		q, err := compile(src)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("invalid query %q: %w", src, err)
		}
		idx := len(s.groups)
		s.groups = append(s.groups, Group{Name: src, Family: FamilyQuery})
		s.queries = append(s.queries, boundQuery{group: idx, q: q})
	}

	return s, nil
}

// Groups returns the counters in command-line order: kinds, then patterns,
// then queries.
func (s *Set) Groups() []Group {
	out := make([]Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Names returns the counter names in the order of Groups.
func (s *Set) Names() []string {
	out := make([]string, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Name
	}
	return out
}

// Len is the number of counters.
func (s *Set) Len() int { return len(s.groups) }

// Close releases whatever the compiled queries hold. Queries that need no
// cleanup are left alone. The Set must not be bound again afterwards.
func (s *Set) Close() {
	for _, bq := range s.queries {
		if c, ok := bq.q.(interface{ Close() }); ok {
			c.Close()
		}
	}
	s.queries = nil
}

// IsToken reports whether n counts toward the token total. Only leaves do,
// whether or not filters are configured.
func (s *Set) IsToken(n syntax.Node) bool {
	return syntax.IsLeaf(n)
}

// Bind prepares the set for one tree. The Classifier carries per-tree state
// and must not be shared between goroutines.
func (s *Set) Bind(tree syntax.Tree) *Classifier {
	c := &Classifier{
		set:    s,
		byKind: make(map[string][]int),
	}
	for _, bq := range s.queries {
		if fn := bq.q.Bind(tree); fn != nil {
			c.queries = append(c.queries, boundPredicate{group: bq.group, match: fn})
		}
	}
	return c
}

type boundPredicate struct {
	group int
	match func(syntax.Node) bool
}

// Classifier evaluates a Set against the nodes of a single tree.
type Classifier struct {
	set     *Set
	byKind  map[string][]int
	queries []boundPredicate
}

// Classify appends to dst the index of every counter n satisfies and
// returns the extended slice. Families are evaluated independently.
func (c *Classifier) Classify(n syntax.Node, dst []int) []int {
	dst = append(dst, c.kindGroups(n.Kind())...)
	for _, q := range c.queries {
		if q.match(n) {
			dst = append(dst, q.group)
		}
	}
	return dst
}

// kindGroups memoizes the literal and pattern counters for a kind. The kind
// vocabulary of a grammar is small, so each regexp runs once per kind.
func (c *Classifier) kindGroups(kind string) []int {
	if g, ok := c.byKind[kind]; ok {
		return g
	}
	var g []int
	g = append(g, c.set.kinds[kind]...)
	for _, p := range c.set.patterns {
		if p.re.MatchString(kind) {
			g = append(g, p.group)
		}
	}
	c.byKind[kind] = g
	return g
}
