package render

import (
	"github.com/matzehuels/sizemap/pkg/color"
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Scene is one frame of the treemap.
type Scene struct {
	// Title is the name of the tree's root entry.
	Title string
	// Path is the navigation path of the focus, "" when unfocused.
	Path string
	// Root is the laid out view.
	Root *treemap.Node
	// Selected is the focused entry, or 0.
	Selected ident.ID
	Colors   *color.Getter
	Options  treemap.Options
}

// Item is a node ready to paint.
type Item struct {
	Node     *treemap.Node
	Color    color.NodeColor
	Selected bool
}

// NewScene lays out the controller's current view.
func NewScene(c *focus.Controller, opts treemap.Options) *Scene {
	return NewSceneWithColors(c, opts, color.NewGetter(c.Hierarchy()))
}

// NewSceneWithColors is NewScene with a shared color getter, for callers
// that render the same tree repeatedly.
func NewSceneWithColors(c *focus.Controller, opts treemap.Options, colors *color.Getter) *Scene {
	st := c.State()
	s := &Scene{
		Title:   c.Tree().Root.Name(),
		Path:    st.Path,
		Root:    c.Layout(opts),
		Colors:  colors,
		Options: opts,
	}
	if st.Focused {
		s.Selected = st.Target
	}
	return s
}

// Items returns the visible nodes in paint order, grouped by layer.
func (s *Scene) Items() [][]Item {
	var out [][]Item
	for _, l := range treemap.Layers(s.Root) {
		var layer []Item
		for _, n := range l.Nodes {
			if !treemap.Visible(n) {
				continue
			}
			layer = append(layer, Item{
				Node:     n,
				Color:    s.Colors.Color(n),
				Selected: s.Selected != 0 && n.ID() == s.Selected,
			})
		}
		if len(layer) > 0 {
			out = append(out, layer)
		}
	}
	return out
}

// Entry returns the entry of a painted node by id.
func (s *Scene) Entry(id ident.ID) (entry.Entry, bool) {
	for _, n := range s.Root.Descendants() {
		if n.ID() == id {
			return n.Entry, true
		}
	}
	return nil, false
}
