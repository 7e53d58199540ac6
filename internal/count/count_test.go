package count

import (
	"testing"

	"github.com/agentic-research/tc/internal/match"
	"github.com/agentic-research/tc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// moduleTree is module(function(identifier), comment, comment).
func moduleTree() *syntax.MemoryTree {
	return syntax.NewMemoryTree("test", syntax.N("module",
		syntax.N("function", syntax.N("identifier")),
		syntax.N("comment"),
		syntax.N("comment"),
	))
}

func mustSet(t *testing.T, opts match.Options) *match.Set {
	t.Helper()
	s, err := match.New(opts, nil)
	require.NoError(t, err)
	return s
}

func TestCount_CommentPattern(t *testing.T) {
	set := mustSet(t, match.Options{Patterns: []string{".*comment.*"}})

	got := Count(moduleTree(), set)
	assert.Equal(t, int64(3), got.Tokens)
	assert.Equal(t, []int64{2}, got.Matches)
}

func TestCount_UnfilteredEqualsLeaves(t *testing.T) {
	tree := syntax.NewMemoryTree("test", syntax.N("source_file",
		syntax.N("call",
			syntax.N("identifier"),
			syntax.N("arguments", syntax.N("("), syntax.N("string"), syntax.N(")")),
		),
		syntax.N("ERROR", syntax.N("identifier")),
		syntax.N("MISSING"),
	))

	var leaves int64
	syntax.Traverse(tree, func(n syntax.Node) {
		if n.ChildCount() == 0 {
			leaves++
		}
	})

	got := Count(tree, mustSet(t, match.Options{}))
	assert.Equal(t, leaves, got.Tokens)
	assert.Equal(t, int64(6), got.Tokens)
	assert.Empty(t, got.Matches)
}

func TestCount_NodeIncrementsEveryMatchingCounter(t *testing.T) {
	set := mustSet(t, match.Options{
		Kinds:    []string{"comment", "function"},
		Patterns: []string{"comment", "^f"},
	})

	got := Count(moduleTree(), set)
	assert.Equal(t, int64(3), got.Tokens)
	assert.Equal(t, []int64{2, 1, 2, 1}, got.Matches)
}

func TestCount_Deterministic(t *testing.T) {
	set := mustSet(t, match.Options{Patterns: []string{"o"}})
	tree := moduleTree()

	first := Count(tree, set)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Count(tree, set))
	}
}

func TestTally_Add(t *testing.T) {
	a := Tally{Tokens: 10, Matches: []int64{1, 2}}
	a.Add(Tally{Tokens: 7, Matches: []int64{3, 4}})
	assert.Equal(t, Tally{Tokens: 17, Matches: []int64{4, 6}}, a)
}

func TestTally_AddGrows(t *testing.T) {
	var a Tally
	a.Add(Tally{Tokens: 1, Matches: []int64{5}})
	assert.Equal(t, Tally{Tokens: 1, Matches: []int64{5}}, a)
}
