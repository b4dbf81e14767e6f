// Package pkg provides the core libraries for sizemap binary size treemaps.
//
// # Overview
//
// sizemap reads the JSON size report of a compiled Go binary and charts it
// as a nested treemap: the binary contains sections and package groups,
// packages contain files, sub-packages and symbols, and every rectangle's
// area is proportional to its byte count. Clicking a rectangle zooms the
// whole frame onto it, and the zoomed node is written to a "#"-delimited
// navigation path so a view can be bookmarked and restored.
//
// # Architecture
//
// The typical data flow:
//
//	report JSON
//	     ↓
//	[report] (decode, validate, summarize)
//	     ↓
//	[entry] (normalized tree with stable display names and ids)
//	     ↓
//	[focus] (current target, navigation path, zoomed view hierarchy)
//	     ↓
//	[treemap] (squarified layout)
//	     ↓
//	[render] (scene → SVG, HTML, terminal, Graphviz, PNG/PDF)
//
// # Quick Start
//
//	r, _ := report.ReadFile("bin.json")
//	tree, _ := entry.Build(r)
//
//	ctrl := focus.NewController(tree, focus.NewMemoryNavigator("#bin#std-packages"))
//	scene := render.NewScene(ctrl, treemap.DefaultOptions(1600, 900))
//	doc := svg.Render(scene, svg.WithTooltips())
//
// [pipeline] runs the same steps with caching and is what the CLI and the
// HTTP viewer call.
//
// # Main Packages
//
// ## Domain
//
// [report] - Report wire types, strict decoding and summaries.
//
// [entry] - The entry tree. Builds display entries from a report, reconciles
// declared sizes with children, and exports subtrees as JSON or YAML.
//
// [ident] - Process-unique entry ids.
//
// [treemap] - Hierarchy weighting and the squarified layout.
//
// [color] - Deterministic background and font colors per entry.
//
// [focus] - The focus controller and navigation paths.
//
// ## Output
//
// [render] - Scenes and SVG to PDF/PNG conversion, with [render/svg],
// [render/html], [render/term] and [render/dot] painting them.
//
// ## Infrastructure
//
// [pipeline] - Load → build → layout → render with cached artifacts.
//
// [cache] - Key-value caches (file, Redis, none) and key derivation.
//
// [store] - Uploaded report storage (memory, file, MongoDB).
//
// [errors] - Coded errors, HTTP status mapping and input validation.
//
// [observability] - Hooks for pipeline, cache and server events.
//
// [buildinfo] - Version information.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/treemap/...  # Specific package
//	go test -run Example ./... # Examples only
//
// [report]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/report
// [entry]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/entry
// [ident]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/ident
// [treemap]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/treemap
// [color]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/color
// [focus]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/focus
// [render]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/render/svg
// [render/html]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/render/html
// [render/term]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/render/term
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/store
// [errors]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/sizemap/pkg/buildinfo
package pkg
