// Package render turns a laid out treemap into output documents.
//
// A [Scene] bundles what every renderer needs: the laid out view, the
// colors from the full hierarchy, and the current focus. Subpackages paint
// it:
//
//   - [svg]: standalone SVG with tooltips
//   - [html]: a viewer page around the SVG
//   - [term]: colored terminal cells for the explorer
//   - [dot]: a Graphviz diagram of the entry tree
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool:
//
//	scene := render.NewScene(ctrl, treemap.DefaultOptions(1600, 900))
//	doc := svg.Render(scene)
//	png, err := render.ToPNG(doc, 2)
//
// [svg]: github.com/matzehuels/sizemap/pkg/render/svg
// [html]: github.com/matzehuels/sizemap/pkg/render/html
// [term]: github.com/matzehuels/sizemap/pkg/render/term
// [dot]: github.com/matzehuels/sizemap/pkg/render/dot
package render
