// Package treemap computes squarified treemap layouts over entry trees.
//
// Layout is a three step affair:
//
//	h := treemap.NewHierarchy(tree.Root)          // sum leaf sizes, sort siblings
//	laid := treemap.Layout(h, treemap.DefaultOptions(1600, 900))
//	for _, layer := range treemap.Layers(laid) { ... }
//
// [NewHierarchy] gives every node a weight (Value): leaves weigh their size,
// inner nodes the sum of their leaves. Siblings are ordered by ascending
// entry size. [Layout] then tiles a rectangle, reserving a header strip at
// the top of every inner node and a gutter between siblings, and rounds
// coordinates to whole units. Layout never modifies its input, so one
// hierarchy can be laid out at several sizes or from several threads.
package treemap

import (
	"sort"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/ident"
)

// Node associates an entry with its weight and, once laid out, its rectangle.
type Node struct {
	Entry    entry.Entry
	Parent   *Node
	Children []*Node

	// Value is the tiling weight.
	Value float64
	// Depth is the distance from the root; Height the distance to the
	// deepest leaf below.
	Depth  int
	Height int

	X0, Y0, X1, Y1 float64
}

// ID returns the id of the wrapped entry.
func (n *Node) ID() ident.ID {
	return n.Entry.ID()
}

// HasChildren reports whether n is an inner node.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Width returns X1-X0.
func (n *Node) Width() float64 { return n.X1 - n.X0 }

// Height returns Y1-Y0. It is named Span to avoid clashing with the Height
// field.
func (n *Node) Span() float64 { return n.Y1 - n.Y0 }

// Area returns the rectangle area.
func (n *Node) Area() float64 { return n.Width() * n.Span() }

// NewHierarchy wraps an entry tree in nodes, sums leaf sizes into Value and
// sorts siblings by ascending entry size. Ties keep entry order.
func NewHierarchy(root entry.Entry) *Node {
	n := build(root, nil, 0)
	n.sort()
	return n
}

func build(e entry.Entry, parent *Node, depth int) *Node {
	n := &Node{Entry: e, Parent: parent, Depth: depth}
	children := e.Children()
	if len(children) == 0 {
		n.Value = float64(e.Size())
		return n
	}
	n.Children = make([]*Node, len(children))
	for i, c := range children {
		child := build(c, n, depth+1)
		n.Children[i] = child
		n.Value += child.Value
		n.Height = max(n.Height, child.Height+1)
	}
	return n
}

func (n *Node) sort() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		return n.Children[i].Entry.Size() < n.Children[j].Entry.Size()
	})
	for _, c := range n.Children {
		c.sort()
	}
}

// Each visits n and its descendants in pre-order.
func (n *Node) Each(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Each(fn)
	}
}

// Descendants returns n and its descendants in breadth-first order.
func (n *Node) Descendants() []*Node {
	out := []*Node{n}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].Children...)
	}
	return out
}

// Ancestors returns n, its parent, and so on up to the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Index maps entry ids to the nodes of the tree rooted at n.
func (n *Node) Index() map[ident.ID]*Node {
	idx := make(map[ident.ID]*Node)
	n.Each(func(c *Node) { idx[c.ID()] = c })
	return idx
}

// Clone deep-copies the subtree rooted at n. The copy has no parent and
// shares entries with the original.
func (n *Node) Clone() *Node {
	return n.clone(nil)
}

// clone deep-copies the structure below n, keeping entry references.
func (n *Node) clone(parent *Node) *Node {
	c := *n
	c.Parent = parent
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone(&c)
		}
	}
	return &c
}
