package treemap

import (
	"math"

	"github.com/matzehuels/sizemap/pkg/errors"
)

// Phi is the golden ratio, the default target aspect ratio of squarified rows.
var Phi = (1 + math.Sqrt(5)) / 2

// Default framing.
const (
	DefaultPaddingTop   = 20
	DefaultPaddingInner = 1
	// MinVisible is the smallest width and height a node must have to be
	// painted.
	MinVisible = 2
)

// Options controls [Layout].
type Options struct {
	Width, Height float64
	// PaddingTop is reserved at the top of every inner node for its label.
	PaddingTop float64
	// PaddingInner separates siblings.
	PaddingInner float64
	// Round snaps coordinates to whole units.
	Round bool
	// Ratio is the target aspect ratio of a squarified row.
	Ratio float64
}

// DefaultOptions returns the standard framing for a viewport.
func DefaultOptions(width, height float64) Options {
	return Options{
		Width:        width,
		Height:       height,
		PaddingTop:   DefaultPaddingTop,
		PaddingInner: DefaultPaddingInner,
		Round:        true,
		Ratio:        Phi,
	}
}

// Validate checks that the viewport is usable.
func (o Options) Validate() error {
	if !finite(o.Width) || !finite(o.Height) || o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport must be positive and finite, got %vx%v", o.Width, o.Height)
	}
	if !finite(o.PaddingTop) || !finite(o.PaddingInner) || o.PaddingTop < 0 || o.PaddingInner < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must be finite and not negative")
	}
	if !finite(o.Ratio) || (o.Ratio != 0 && o.Ratio < 1) {
		return errors.New(errors.ErrCodeInvalidInput, "ratio must be at least 1, got %v", o.Ratio)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Layout tiles a copy of root into the viewport and returns it. The input is
// left untouched. Calling Layout twice with the same arguments yields
// identical rectangles.
func Layout(root *Node, opts Options) *Node {
	if opts.Ratio == 0 {
		opts.Ratio = Phi
	}
	out := root.clone(nil)
	out.X0, out.Y0, out.X1, out.Y1 = 0, 0, opts.Width, opts.Height

	// Offset applied to each node's rectangle, by depth relative to the root.
	padding := map[int]float64{out.Depth: 0}
	out.Each(func(n *Node) { position(n, padding, opts) })

	if opts.Round {
		out.Each(roundNode)
	}
	return out
}

func position(n *Node, padding map[int]float64, opts Options) {
	p := padding[n.Depth]
	x0, y0, x1, y1 := n.X0+p, n.Y0+p, n.X1-p, n.Y1-p
	x0, x1 = collapse(x0, x1)
	y0, y1 = collapse(y0, y1)
	n.X0, n.Y0, n.X1, n.Y1 = x0, y0, x1, y1

	if !n.HasChildren() {
		return
	}
	p = opts.PaddingInner / 2
	padding[n.Depth+1] = p
	x0 -= p
	y0 += opts.PaddingTop - p
	x1 += p
	y1 += p
	x0, x1 = collapse(x0, x1)
	y0, y1 = collapse(y0, y1)
	squarify(n, x0, y0, x1, y1, opts.Ratio)
}

// collapse folds an inverted interval to its midpoint.
func collapse(lo, hi float64) (float64, float64) {
	if hi < lo {
		mid := (lo + hi) / 2
		return mid, mid
	}
	return lo, hi
}

// roundNode rounds half up, matching browser rounding of the coordinates.
func roundNode(n *Node) {
	n.X0 = math.Floor(n.X0 + 0.5)
	n.Y0 = math.Floor(n.Y0 + 0.5)
	n.X1 = math.Floor(n.X1 + 0.5)
	n.Y1 = math.Floor(n.Y1 + 0.5)
}

// Visible reports whether n is large enough to paint.
func Visible(n *Node) bool {
	return n.Width() >= MinVisible && n.Span() >= MinVisible
}
