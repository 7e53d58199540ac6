package syntax

// MemoryNode is a node of an in-memory tree. Byte ranges are informational.
type MemoryNode struct {
	Type     string
	Start    uint32
	End      uint32
	Children []*MemoryNode
}

// N builds a MemoryNode with the given kind and children.
func N(kind string, children ...*MemoryNode) *MemoryNode {
	return &MemoryNode{Type: kind, Children: children}
}

func (n *MemoryNode) Kind() string      { return n.Type }
func (n *MemoryNode) ChildCount() int   { return len(n.Children) }
func (n *MemoryNode) StartByte() uint32 { return n.Start }
func (n *MemoryNode) EndByte() uint32   { return n.End }

// MemoryTree is a Tree held entirely in memory.
type MemoryTree struct {
	Lang     string
	RootNode *MemoryNode
}

// NewMemoryTree returns a tree rooted at root.
func NewMemoryTree(lang string, root *MemoryNode) *MemoryTree {
	return &MemoryTree{Lang: lang, RootNode: root}
}

func (t *MemoryTree) Language() string { return t.Lang }

func (t *MemoryTree) Root() Node { return t.RootNode }

func (t *MemoryTree) Walk() Cursor {
	return &memoryCursor{stack: []memoryFrame{{node: t.RootNode}}}
}

// memoryFrame records a node and its position among its parent's children.
type memoryFrame struct {
	node  *MemoryNode
	index int
}

type memoryCursor struct {
	stack []memoryFrame
}

func (c *memoryCursor) top() *memoryFrame { return &c.stack[len(c.stack)-1] }

func (c *memoryCursor) Node() Node {
	n := c.top().node
	if n == nil {
		return nil
	}
	return n
}

func (c *memoryCursor) GoToFirstChild() bool {
	n := c.top().node
	if n == nil || len(n.Children) == 0 {
		return false
	}
	c.stack = append(c.stack, memoryFrame{node: n.Children[0]})
	return true
}

func (c *memoryCursor) GoToNextSibling() bool {
	if len(c.stack) < 2 {
		return false
	}
	parent := c.stack[len(c.stack)-2].node
	f := c.top()
	if f.index+1 >= len(parent.Children) {
		return false
	}
	f.index++
	f.node = parent.Children[f.index]
	return true
}

func (c *memoryCursor) GoToParent() bool {
	if len(c.stack) < 2 {
		return false
	}
	c.stack = c.stack[:len(c.stack)-1]
	return true
}
