package ingest

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/tc/internal/syntax"
)

// Tree is a tree-sitter parse of one file. It implements syntax.Tree.
type Tree struct {
	Path   string
	Source []byte
	Lang   *Language
	raw    *sitter.Tree
}

var _ syntax.Tree = (*Tree)(nil)

func (t *Tree) Language() string { return t.Lang.Name }

func (t *Tree) Root() syntax.Node { return sitterNode{n: t.raw.RootNode()} }

func (t *Tree) Walk() syntax.Cursor {
	return &sitterCursor{c: sitter.NewTreeCursor(t.raw.RootNode())}
}

// RootNode exposes the underlying tree-sitter root.
func (t *Tree) RootNode() *sitter.Node { return t.raw.RootNode() }

// Close releases the tree-sitter tree. The Tree is unusable afterwards.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
		t.raw = nil
	}
}

// sitterNode adapts *sitter.Node to syntax.Node.
type sitterNode struct {
	n *sitter.Node
}

func (s sitterNode) Kind() string      { return s.n.Type() }
func (s sitterNode) ChildCount() int   { return int(s.n.ChildCount()) }
func (s sitterNode) StartByte() uint32 { return s.n.StartByte() }
func (s sitterNode) EndByte() uint32   { return s.n.EndByte() }

// sitterCursor adapts sitter.TreeCursor, which keeps a stack sized to the
// current depth.
type sitterCursor struct {
	c *sitter.TreeCursor
}

func (s *sitterCursor) Node() syntax.Node {
	n := s.c.CurrentNode()
	if n == nil {
		return nil
	}
	return sitterNode{n: n}
}

func (s *sitterCursor) GoToFirstChild() bool  { return s.c.GoToFirstChild() }
func (s *sitterCursor) GoToNextSibling() bool { return s.c.GoToNextSibling() }
func (s *sitterCursor) GoToParent() bool      { return s.c.GoToParent() }
func (s *sitterCursor) Close()                { s.c.Close() }

// nodeKey buckets nodes of one tree. A wrapper and the node it wraps can
// share range and symbol, so a key alone does not identify a node.
type nodeKey struct {
	start, end uint32
	symbol     sitter.Symbol
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), symbol: n.Symbol()}
}

// captureSet holds captured nodes; membership is node identity.
type captureSet map[nodeKey][]*sitter.Node

func (s captureSet) add(n *sitter.Node) {
	if s.has(n) {
		return
	}
	k := keyOf(n)
	s[k] = append(s[k], n)
}

func (s captureSet) has(n *sitter.Node) bool {
	for _, c := range s[keyOf(n)] {
		if c.Equal(n) {
			return true
		}
	}
	return false
}
