package focus

import (
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Step is one ancestor on the way to a focused node: the node, the weight
// it takes in the view, and the single child the view keeps below it.
type Step struct {
	Node   *treemap.Node
	Weight float64
	Next   *treemap.Node
}

// View is what the layout engine sees for one focus state. For a focused
// node, Steps holds the ancestors from the root down to the target's
// parent; the target's own subtree keeps its natural weights. An unfocused
// view, or one focused on the root, has no steps.
type View struct {
	Target ident.ID
	Steps  []Step
	Root   *treemap.Node
}

// Focused reports whether the view narrows the tree.
func (v *View) Focused() bool {
	return len(v.Steps) > 0
}

// newView derives the view of target within the full hierarchy. The full
// hierarchy is never modified.
func newView(full *treemap.Node, target *treemap.Node) *View {
	if target == nil || target == full {
		return &View{Target: full.ID(), Root: full}
	}

	chain := target.Ancestors()
	steps := make([]Step, 0, len(chain)-1)
	for i := len(chain) - 1; i > 0; i-- {
		steps = append(steps, Step{Node: chain[i], Weight: target.Value, Next: chain[i-1]})
	}
	return &View{Target: target.ID(), Steps: steps, Root: materialize(steps, target)}
}

// materialize builds a standalone hierarchy for the steps: a single-child
// chain of copies ending in a copy of the target's subtree.
func materialize(steps []Step, target *treemap.Node) *treemap.Node {
	var root, prev *treemap.Node
	for _, s := range steps {
		n := &treemap.Node{
			Entry:  s.Node.Entry,
			Parent: prev,
			Value:  s.Weight,
			Depth:  s.Node.Depth,
			Height: s.Node.Height,
		}
		if prev == nil {
			root = n
		} else {
			prev.Children = []*treemap.Node{n}
		}
		prev = n
	}
	t := target.Clone()
	t.Parent = prev
	prev.Children = []*treemap.Node{t}
	return root
}
