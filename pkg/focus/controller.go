// Package focus owns the zoom state of a treemap.
//
// A [Controller] is either unfocused, showing the whole tree, or focused on
// one entry, showing that entry's subtree across the whole frame with its
// ancestors collapsed to a single-child chain. The state is mirrored into a
// "#"-delimited navigation path of URL-safe names, read from and written to
// a [Navigator]:
//
//	nav := focus.NewMemoryNavigator("#bin#main-packages")
//	c := focus.NewController(tree, nav)
//	c.Click(id)                      // focus, or unfocus if already focused
//	root := c.Layout(treemap.DefaultOptions(1600, 900))
//
// Paths that do not resolve fall back to the unfocused view; they are never
// an error.
package focus

import (
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Navigator holds the navigation path, e.g. a URL fragment.
type Navigator interface {
	Path() string
	// SetPath replaces the path; an empty path clears it.
	SetPath(path string)
}

// State is a snapshot of the controller.
type State struct {
	Focused bool
	Target  ident.ID
	Path    string
}

// Controller tracks focus over one entry tree. It is not safe for
// concurrent use; give each viewer its own controller.
type Controller struct {
	tree  *entry.Tree
	full  *treemap.Node
	index map[ident.ID]*treemap.Node
	nav   Navigator

	focused bool
	target  ident.ID
}

// NewController returns a controller for tree whose initial focus is
// resolved from the navigator's current path. A nil navigator keeps the path
// in memory.
func NewController(tree *entry.Tree, nav Navigator) *Controller {
	return NewControllerWithHierarchy(tree, treemap.NewHierarchy(tree.Root), nav)
}

// NewControllerWithHierarchy is NewController for callers that already
// summed the hierarchy of tree.
func NewControllerWithHierarchy(tree *entry.Tree, full *treemap.Node, nav Navigator) *Controller {
	if nav == nil {
		nav = NewMemoryNavigator("")
	}
	c := &Controller{
		tree:  tree,
		full:  full,
		index: full.Index(),
		nav:   nav,
	}
	c.Navigate(nav.Path())
	return c
}

// Hierarchy returns the full, unfocused hierarchy.
func (c *Controller) Hierarchy() *treemap.Node {
	return c.full
}

// Tree returns the entry tree.
func (c *Controller) Tree() *entry.Tree {
	return c.tree
}

// State returns the current focus and path.
func (c *Controller) State() State {
	return State{Focused: c.focused, Target: c.target, Path: c.Path()}
}

// Path returns the navigation path of the current focus, or "" when
// unfocused.
func (c *Controller) Path() string {
	if !c.focused {
		return ""
	}
	return PathOf(c.tree.Ancestry(c.target))
}

// Click applies a pointer click on the entry with the given id. Clicking the
// focused entry unfocuses; clicking any other entry focuses it. Unknown ids
// are ignored. It reports whether the id was known.
func (c *Controller) Click(id ident.ID) bool {
	if _, ok := c.index[id]; !ok {
		return false
	}
	if c.focused && c.target == id {
		c.Clear()
		return true
	}
	c.Focus(id)
	return true
}

// Focus focuses the entry with the given id, if it exists.
func (c *Controller) Focus(id ident.ID) {
	if _, ok := c.index[id]; !ok {
		return
	}
	c.focused, c.target = true, id
	c.sync()
}

// Clear returns to the unfocused view and clears the path.
func (c *Controller) Clear() {
	c.focused, c.target = false, 0
	c.sync()
}

// Navigate re-resolves focus from an externally changed path, such as
// back/forward navigation. Paths that do not resolve unfocus. The
// navigator is then brought in line with the resolved state.
func (c *Controller) Navigate(path string) {
	if id, ok := Resolve(c.tree.Root, path); ok {
		c.focused, c.target = true, id
	} else {
		c.focused, c.target = false, 0
	}
	c.sync()
}

// sync writes the current path unless the navigator already holds it.
func (c *Controller) sync() {
	if p := c.Path(); c.nav.Path() != p {
		c.nav.SetPath(p)
	}
}

// View derives the hierarchy the layout engine should tile.
func (c *Controller) View() *View {
	if !c.focused {
		return newView(c.full, nil)
	}
	return newView(c.full, c.index[c.target])
}

// Layout tiles the current view.
func (c *Controller) Layout(opts treemap.Options) *treemap.Node {
	return treemap.Layout(c.View().Root, opts)
}

// Node returns the full-hierarchy node of an entry id.
func (c *Controller) Node(id ident.ID) (*treemap.Node, bool) {
	n, ok := c.index[id]
	return n, ok
}
