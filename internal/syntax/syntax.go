// Package syntax is the grammar-independent view of a parsed source file.
//
// Every backend (tree-sitter, or the in-memory tree used for synthesized
// input) exposes the same three contracts. Nothing in this package looks at
// kind strings; classification lives in the match package.
package syntax

// Node is a single node of a syntax tree.
type Node interface {
	// Kind is the grammar-defined tag, e.g. "identifier" or "ERROR".
	Kind() string
	ChildCount() int
	StartByte() uint32
	EndByte() uint32
}

// Cursor moves over a tree one step at a time. An implementation keeps
// state proportional to the depth of the current node, never to fan-out.
type Cursor interface {
	Node() Node
	GoToFirstChild() bool
	GoToNextSibling() bool
	GoToParent() bool
}

// Tree is one parsed source file.
type Tree interface {
	// Language is the registry name of the grammar that produced the tree.
	Language() string
	Root() Node
	// Walk returns a cursor positioned on the root.
	Walk() Cursor
}

// Traverse walks tree in pre-order and calls visit exactly once per node:
// a parent before any of its children, siblings left to right.
//
// The walk is iterative, so pathological nesting cannot exhaust the stack.
func Traverse(tree Tree, visit func(Node)) {
	c := tree.Walk()
	if closer, ok := c.(interface{ Close() }); ok {
		defer closer.Close()
	}
	for {
		n := c.Node()
		if n == nil {
			panic("syntax: cursor positioned on a nil node")
		}
		visit(n)
		if c.GoToFirstChild() || c.GoToNextSibling() {
			continue
		}
		for {
			if !c.GoToParent() {
				return
			}
			if c.GoToNextSibling() {
				break
			}
		}
	}
}

// IsLeaf reports whether n has no children.
func IsLeaf(n Node) bool {
	return n.ChildCount() == 0
}
