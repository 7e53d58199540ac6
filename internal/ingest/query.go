package ingest

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/tc/internal/match"
	"github.com/agentic-research/tc/internal/syntax"
)

// Query is a tree-sitter S-expression query compiled against every
// registered grammar it is valid for. A node matches when it is the node of
// any capture of any match, after predicates such as #eq? are applied.
type Query struct {
	src      string
	compiled map[string]*sitter.Query
}

var _ match.Query = (*Query)(nil)

// CompileQuery compiles src for each registered language. It fails only when
// no grammar accepts src, or when src captures nothing.
func CompileQuery(src string) (match.Query, error) {
	q := &Query{src: src, compiled: make(map[string]*sitter.Query)}
	var errs []error
	for _, l := range Languages() {
		sq, err := sitter.NewQuery([]byte(src), l.Grammar)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Name, err))
			continue
		}
		if sq.CaptureCount() == 0 {
			sq.Close()
			q.Close()
			return nil, errors.New("query has no captures; mark the counted node with @name")
		}
		q.compiled[l.Name] = sq
	}
	if len(q.compiled) == 0 {
		return nil, fmt.Errorf("no grammar accepts the query: %w", errors.Join(errs...))
	}
	return q, nil
}

func (q *Query) String() string { return q.src }

// Bind runs the query over the whole tree once and returns a membership
// test for the captured nodes. Trees that are not tree-sitter trees, or
// whose language the query does not compile for, get nil.
func (q *Query) Bind(tree syntax.Tree) func(syntax.Node) bool {
	t, ok := tree.(*Tree)
	if !ok {
		return nil
	}
	sq, ok := q.compiled[t.Lang.Name]
	if !ok {
		return nil
	}

	captured := make(captureSet)
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(sq, t.RootNode())
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, t.Source)
		for _, c := range m.Captures {
			captured.add(c.Node)
		}
	}
	if len(captured) == 0 {
		return func(syntax.Node) bool { return false }
	}

	return func(n syntax.Node) bool {
		sn, ok := n.(sitterNode)
		if !ok {
			return false
		}
		return captured.has(sn.n)
	}
}

// Close releases the compiled queries.
func (q *Query) Close() {
	for name, sq := range q.compiled {
		sq.Close()
		delete(q.compiled, name)
	}
}
