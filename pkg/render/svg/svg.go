// Package svg paints a treemap scene as a standalone SVG document.
//
// Every visible node becomes a group carrying its entry id:
//
//	<g class="node" data-id="2a" data-kind="file" transform="translate(x,y)">
//	  <rect .../><text ...>main.go</text>
//	</g>
//
// Groups are emitted layer by layer, inner nodes first, so leaves are
// painted on top. Viewers map pointer events back to entries through
// data-id.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/sizemap/pkg/render"
)

const interactionCSS = `
    .node rect { transition: opacity 0.1s ease; }
    .node:hover > rect { opacity: 0.85; }
    .node text { pointer-events: none; user-select: none; font-family: sans-serif; }`

// Option configures Render.
type Option func(*renderer)

type renderer struct {
	tooltips    bool
	interaction bool
	responsive  bool
}

// WithTooltips adds a <title> with the entry description to every node.
func WithTooltips() Option { return func(r *renderer) { r.tooltips = true } }

// WithInteraction adds hover styling.
func WithInteraction() Option { return func(r *renderer) { r.interaction = true } }

// WithResponsive drops the fixed width and height so the document scales
// to its container.
func WithResponsive() Option { return func(r *renderer) { r.responsive = true } }

// Render returns the SVG document for s.
func Render(s *render.Scene, opts ...Option) []byte {
	var r renderer
	for _, opt := range opts {
		opt(&r)
	}

	w, h := s.Root.Width(), s.Root.Span()
	var buf bytes.Buffer
	if r.responsive {
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" data-path="%s">`+"\n",
			num(w), num(h), escape(s.Path))
	} else {
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s" data-path="%s">`+"\n",
			num(w), num(h), num(w), num(h), escape(s.Path))
	}
	fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(s.Title))
	if r.interaction {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
	}

	header := s.Options.PaddingTop + s.Options.PaddingInner
	for _, layer := range s.Items() {
		fmt.Fprintf(&buf, `  <g class="layer" data-height="%d">`+"\n", layer[0].Node.Height)
		for _, it := range layer {
			writeNode(&buf, it, header, r.tooltips)
		}
		buf.WriteString("  </g>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, it render.Item, header float64, tooltips bool) {
	n := it.Node
	w, h := n.Width(), n.Span()

	fmt.Fprintf(buf, `    <g class="node" data-id="%s" data-kind="%s" transform="translate(%s,%s)">`,
		n.ID(), n.Entry.Kind(), num(n.X0), num(n.Y0))
	if tooltips {
		fmt.Fprintf(buf, "<title>%s\n\n%s</title>", escape(n.Entry.Name()), escape(n.Entry.String()))
	}
	stroke := ""
	if it.Selected {
		stroke = ` stroke="#fff" stroke-width="2"`
	}
	fmt.Fprintf(buf, `<rect fill="%s" width="%s" height="%s"%s/>`, it.Color.Background, num(w), num(h), stroke)

	if l := fit(n.Entry.Name(), w, h, header, n.HasChildren()); showLabel(l, w, h) {
		fmt.Fprintf(buf, `<text fill="%s" font-size="0.8em" dominant-baseline="middle" text-anchor="middle" x="%s" y="%s" transform="scale(%.2f)">%s</text>`,
			it.Color.Font, num(l.X), num(l.Y), l.Scale, escape(l.Text))
	}
	buf.WriteString("</g>\n")
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return trimDot(s)
}

func trimDot(s string) string {
	if s[len(s)-1] == '.' {
		return s[:len(s)-1]
	}
	return s
}
