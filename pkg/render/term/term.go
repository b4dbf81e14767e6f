// Package term paints a treemap scene as a grid of colored terminal cells.
//
// The scene must be laid out in cell units; [Options] returns a framing
// with a one-row header per inner node and one-cell gaps between siblings.
package term

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Options returns layout options for a cols×rows terminal area.
func Options(cols, rows int) treemap.Options {
	opts := treemap.DefaultOptions(float64(cols), float64(rows))
	opts.PaddingTop = 1
	return opts
}

type cell struct {
	ch     rune
	bg, fg string
	bold   bool
	invert bool
}

// Renderer paints scenes through a lipgloss renderer.
type Renderer struct {
	lg *lipgloss.Renderer
}

// New returns a renderer; a nil lipgloss renderer uses the default one.
func New(lg *lipgloss.Renderer) *Renderer {
	if lg == nil {
		lg = lipgloss.DefaultRenderer()
	}
	return &Renderer{lg: lg}
}

// Render returns the rows of the scene joined by newlines. The node with
// the hover id gets an inverted label.
func (r *Renderer) Render(s *render.Scene, hover ident.ID) string {
	cols, rows := int(s.Root.Width()), int(s.Root.Span())
	if cols <= 0 || rows <= 0 {
		return ""
	}
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' '}
		}
	}

	for _, layer := range s.Items() {
		for _, it := range layer {
			paint(grid, it, hover)
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		r.writeRow(&b, row)
	}
	return b.String()
}

func paint(grid [][]cell, it render.Item, hover ident.ID) {
	n := it.Node
	x0, y0 := clamp(int(n.X0), len(grid[0])), clamp(int(n.Y0), len(grid))
	x1, y1 := clamp(int(n.X1), len(grid[0])), clamp(int(n.Y1), len(grid))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			grid[y][x] = cell{ch: ' ', bg: it.Color.Background, fg: it.Color.Font}
		}
	}
	if y1 <= y0 {
		return
	}

	label := []rune(n.Entry.Name())
	if w := x1 - x0; len(label) > w {
		if w < 2 {
			return
		}
		label = append(label[:w-1], '…')
	}
	row := y0
	if !n.HasChildren() {
		row = y0 + (y1-y0-1)/2
	}
	for i, ch := range label {
		c := &grid[row][x0+i]
		c.ch = ch
		c.bold = it.Selected
		c.invert = n.ID() == hover
	}
}

func clamp(v, hi int) int {
	return max(0, min(v, hi))
}

// writeRow emits runs of identically styled cells.
func (r *Renderer) writeRow(b *strings.Builder, row []cell) {
	start := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && sameStyle(row[i], row[start]) {
			continue
		}
		var text strings.Builder
		for _, c := range row[start:i] {
			text.WriteRune(c.ch)
		}
		b.WriteString(r.style(row[start]).Render(text.String()))
		start = i
	}
}

func sameStyle(a, b cell) bool {
	return a.bg == b.bg && a.fg == b.fg && a.bold == b.bold && a.invert == b.invert
}

func (r *Renderer) style(c cell) lipgloss.Style {
	st := r.lg.NewStyle()
	if c.bg != "" {
		st = st.Background(lipgloss.Color(c.bg))
	}
	if c.fg != "" {
		st = st.Foreground(lipgloss.Color(c.fg))
	}
	return st.Bold(c.bold).Reverse(c.invert)
}

// Hit returns the topmost visible node under a cell.
func Hit(s *render.Scene, col, row int) *treemap.Node {
	return treemap.At(s.Root, float64(col)+0.5, float64(row)+0.5)
}
