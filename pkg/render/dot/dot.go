// Package dot draws the entry tree as a Graphviz node-link diagram, one box
// per entry labeled with its name and size.
//
//	src := dot.ToDOT(tree.Root, dot.Options{MaxDepth: 3})
//	svg, err := dot.RenderSVG(src)
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/sizemap/pkg/color"
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/render"
)

// Options configures ToDOT.
type Options struct {
	// MaxDepth limits how many levels below the root are drawn; 0 draws all.
	MaxDepth int
	// Colors fills boxes with treemap colors when set.
	Colors *color.Getter
}

// ToDOT returns the DOT source for the tree rooted at root.
func ToDOT(root entry.Entry, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"sans-serif\", fontsize=12];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.15;\n\n")

	var edges bytes.Buffer
	entry.Walk(root, func(e entry.Entry, depth int) bool {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(e), attrs(e, opts.Colors))
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return false
		}
		for _, c := range e.Children() {
			fmt.Fprintf(&edges, "  %q -> %q;\n", nodeID(e), nodeID(c))
		}
		return true
	})

	buf.WriteString("\n")
	buf.Write(edges.Bytes())
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(e entry.Entry) string {
	return "n" + e.ID().String()
}

func attrs(e entry.Entry, colors *color.Getter) string {
	a := fmt.Sprintf("label=%q, tooltip=%q", e.Name()+"\n"+entry.FormatBytes(e.Size()), string(e.Kind()))
	if e.Kind().Synthetic() {
		a += `, style="rounded,filled,dashed"`
	}
	if colors != nil {
		c := colors.ColorOf(e.ID())
		a += fmt.Sprintf(", fillcolor=%q, fontcolor=%q", c.Background, expand(c.Font))
	}
	return a
}

// expand turns "#000" into "#000000"; Graphviz only reads six-digit hex.
func expand(hex string) string {
	if len(hex) == 4 && hex[0] == '#' {
		return "#" + string([]byte{hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	return hex
}

// RenderSVG lays out DOT source with Graphviz and returns SVG.
func RenderSVG(src string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders DOT source to PNG via SVG.
func RenderPNG(src string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(src)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// viewBox starting at the origin.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
