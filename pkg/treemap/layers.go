package treemap

import "sort"

// Layer is the set of nodes sharing one height.
type Layer struct {
	Height int
	Nodes  []*Node
}

// Layers groups the descendants of root by height, tallest first, which is
// the order they are painted in: inner nodes first, leaves on top. Nodes keep
// breadth-first order within a layer.
func Layers(root *Node) []Layer {
	byHeight := make(map[int][]*Node)
	for _, n := range root.Descendants() {
		byHeight[n.Height] = append(byHeight[n.Height], n)
	}
	out := make([]Layer, 0, len(byHeight))
	for h, nodes := range byHeight {
		out = append(out, Layer{Height: h, Nodes: nodes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height > out[j].Height })
	return out
}

// Paintable returns the visible nodes of root in paint order.
func Paintable(root *Node) []*Node {
	var out []*Node
	for _, l := range Layers(root) {
		for _, n := range l.Nodes {
			if Visible(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// At returns the topmost visible node containing the point, or nil.
func At(root *Node, x, y float64) *Node {
	var hit *Node
	for _, n := range Paintable(root) {
		if x >= n.X0 && x < n.X1 && y >= n.Y0 && y < n.Y1 {
			hit = n
		}
	}
	return hit
}
