// Package color assigns treemap node colors.
//
// Each direct child of the root gets its own hue, spread evenly around the
// color wheel; every node below inherits the hue of its top-level ancestor.
// Lightness falls linearly with depth, from 0.9 at the root to 0.3 at the
// deepest leaves, and the label color is black or white depending on the
// WCAG relative luminance of the background.
//
// Colors are derived from the full, unfocused hierarchy and looked up by
// entry id, so a node keeps its color when the view zooms in on it.
package color

import (
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Palette constants.
const (
	Base = "#cecece"

	Black = "#000"
	White = "#fff"

	branchSaturation = 0.3
	branchLightness  = 0.85
	rootLightness    = 0.9
	leafLightness    = 0.3

	// Backgrounds brighter than this get black labels.
	luminanceThreshold = 0.19
)

// NodeColor is a background and label color pair.
type NodeColor struct {
	Background string `json:"background"`
	Font       string `json:"font"`
}

// Getter resolves node colors. It is safe for concurrent use.
type Getter struct {
	height int
	branch map[ident.ID]colorful.Color
	nodes  map[ident.ID]*treemap.Node

	mu    sync.Mutex
	cache map[ident.ID]NodeColor
}

// NewGetter prepares colors for the hierarchy rooted at root.
func NewGetter(root *treemap.Node) *Getter {
	g := &Getter{
		height: root.Height,
		branch: make(map[ident.ID]colorful.Color),
		nodes:  root.Index(),
		cache:  make(map[ident.ID]NodeColor),
	}
	base, _ := colorful.Hex(Base)
	g.branch[root.ID()] = base
	n := float64(len(root.Children))
	for i, c := range root.Children {
		hue := 360 * float64(i) / n
		// Snap to 8-bit channels as a CSS color would be.
		g.branch[c.ID()] = snap(colorful.Hsl(hue, branchSaturation, branchLightness))
	}
	return g
}

// Color returns the colors of the node with the same entry id as n. Nodes
// unknown to the getter get the base color.
func (g *Getter) Color(n *treemap.Node) NodeColor {
	return g.ColorOf(n.ID())
}

// ColorOf returns the colors of the node with the given entry id.
func (g *Getter) ColorOf(id ident.ID) NodeColor {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.cache[id]; ok {
		return c
	}
	c := g.compute(id)
	g.cache[id] = c
	return c
}

func (g *Getter) compute(id ident.ID) NodeColor {
	n, ok := g.nodes[id]
	if !ok {
		return NodeColor{Background: Base, Font: fontFor(mustHex(Base))}
	}
	h, s, _ := g.branch[topLevel(n).ID()].Hsl()
	bg := colorful.Hsl(h, s, g.lightness(n.Depth)).Clamped()
	return NodeColor{Background: bg.Hex(), Font: fontFor(bg)}
}

// lightness maps depth 0 to 0.9 and the hierarchy height to 0.3.
func (g *Getter) lightness(depth int) float64 {
	if g.height == 0 {
		return rootLightness
	}
	t := float64(depth) / float64(g.height)
	return rootLightness + (leafLightness-rootLightness)*t
}

// topLevel returns the root for the root itself and otherwise the ancestor
// just below the root.
func topLevel(n *treemap.Node) *treemap.Node {
	cur := n
	for cur.Parent != nil && cur.Parent.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

func fontFor(bg colorful.Color) string {
	if RelativeLuminance(bg) > luminanceThreshold {
		return Black
	}
	return White
}

// RelativeLuminance implements the WCAG 2.0 relative luminance of an sRGB
// color.
func RelativeLuminance(c colorful.Color) float64 {
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

func channel(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func snap(c colorful.Color) colorful.Color {
	r, g, b := c.Clamped().RGB255()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
