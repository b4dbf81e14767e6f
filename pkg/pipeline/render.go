package pipeline

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/render/dot"
	"github.com/matzehuels/sizemap/pkg/render/html"
	"github.com/matzehuels/sizemap/pkg/render/svg"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// RenderFormat produces one output format for a scene. Tree, yaml and dot
// exports start at the focused entry, or at the root when unfocused.
func RenderFormat(s *render.Scene, tree *entry.Tree, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return svg.Render(s, svg.WithTooltips(), svg.WithInteraction()), nil
	case FormatHTML:
		return html.Render(html.Page{
			Title: s.Title,
			SVG:   svg.Render(s, svg.WithTooltips(), svg.WithInteraction(), svg.WithResponsive()),
			Path:  s.Path,
			API:   opts.API,
		})
	case FormatJSON:
		return treemap.MarshalLayout(s.Root)
	case FormatTree:
		return json.MarshalIndent(entry.Export(target(s, tree), opts.Depth, true), "", "  ")
	case FormatYAML:
		return yaml.Marshal(entry.Export(target(s, tree), opts.Depth, true))
	case FormatDOT:
		return []byte(toDOT(s, tree, opts)), nil
	case FormatDOTSVG:
		return dot.RenderSVG(toDOT(s, tree, opts))
	case FormatPNG:
		return render.ToPNG(svg.Render(s, svg.WithTooltips()), opts.Scale)
	case FormatPDF:
		return render.ToPDF(svg.Render(s, svg.WithTooltips()))
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
}

func toDOT(s *render.Scene, tree *entry.Tree, opts Options) string {
	return dot.ToDOT(target(s, tree), dot.Options{MaxDepth: opts.Depth, Colors: s.Colors})
}

func target(s *render.Scene, tree *entry.Tree) entry.Entry {
	if s.Selected != 0 {
		if e, ok := tree.Find(s.Selected); ok {
			return e
		}
	}
	return tree.Root
}
