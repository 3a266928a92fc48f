package query

import (
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/table"
)

// Node is one table occurrence in the join tree.
type Node struct {
	Table   *table.Table
	Alias   string
	Columns []Column

	children []int
}

// PrimaryKey returns the primary key columns of the node's table.
func (n *Node) PrimaryKey() []string {
	return n.Table.PrimaryKey()
}

// Tree is the join hierarchy of a query. Nodes live in an arena and refer
// to their children by index; the first node is the root.
type Tree struct {
	nodes   []*Node
	aliases map[string]int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{aliases: make(map[string]int)}
}

// AddRoot sets the root node. It fails once a root exists.
func (t *Tree) AddRoot(tbl *table.Table, alias string, columns []Column) error {
	if len(t.nodes) > 0 {
		return core.NewValidationError("root", "the join tree already has a root (%s)", t.nodes[0].Alias)
	}
	return t.add(tbl, alias, columns, -1)
}

// AddChild appends a node under parentAlias. If no node has that alias the
// tree is left unchanged and a ReferenceError is returned.
func (t *Tree) AddChild(tbl *table.Table, alias string, columns []Column, parentAlias string) error {
	parent := t.search(parentAlias)
	if parent < 0 {
		return &core.ReferenceError{Alias: parentAlias}
	}
	return t.add(tbl, alias, columns, parent)
}

func (t *Tree) add(tbl *table.Table, alias string, columns []Column, parent int) error {
	if tbl == nil {
		return core.NewValidationError("table", "join target must be a table")
	}
	if alias == "" {
		return core.NewValidationError("alias", "alias cannot be blank")
	}
	if _, dup := t.aliases[alias]; dup {
		return core.NewValidationError("alias", "alias %q is already used in this query", alias)
	}
	cols, err := normalizeColumns(alias, columns, tbl.PrimaryKey())
	if err != nil {
		return err
	}

	idx := len(t.nodes)
	t.nodes = append(t.nodes, &Node{Table: tbl, Alias: alias, Columns: cols})
	t.aliases[alias] = idx
	if parent >= 0 {
		t.nodes[parent].children = append(t.nodes[parent].children, idx)
	}
	return nil
}

// search walks the tree depth-first from the root looking for alias.
func (t *Tree) search(alias string) int {
	if len(t.nodes) == 0 {
		return -1
	}
	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.nodes[idx].Alias == alias {
			return idx
		}
		children := t.nodes[idx].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return -1
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return t.nodes[0]
}

// Node returns the node registered under alias.
func (t *Tree) Node(alias string) (*Node, bool) {
	idx, ok := t.aliases[alias]
	if !ok {
		return nil, false
	}
	return t.nodes[idx], true
}

// Children returns the children of n in insertion order.
func (t *Tree) Children(n *Node) []*Node {
	out := make([]*Node, len(n.children))
	for i, idx := range n.children {
		out[i] = t.nodes[idx]
	}
	return out
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node depth-first, children in insertion order.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	if len(t.nodes) == 0 {
		return
	}
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		fn(t.nodes[idx], depth)
		for _, c := range t.nodes[idx].children {
			visit(c, depth+1)
		}
	}
	visit(0, 0)
}
