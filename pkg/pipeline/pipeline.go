// Package pipeline runs the load → build → layout → render chain shared by
// the CLI and the viewer server.
//
// The stages are:
//
//  1. Load: decode and validate the report JSON
//  2. Build: normalize the report into an entry tree
//  3. Layout: resolve the focus path and tile the view
//  4. Render: produce the requested output formats
//
// A [Runner] adds caching keyed by the content hash of the raw report, so a
// repeated render of an unchanged report skips every stage:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, raw, pipeline.Options{
//	    Path:    "#bin#std-packages",
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatHTML},
//	})
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sizemap/pkg/cache"
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/report"
	"github.com/matzehuels/sizemap/pkg/treemap"
)

// Defaults shared by the CLI and the server.
const (
	DefaultWidth  = 1600.0
	DefaultHeight = 900.0
	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0
)

// Output formats.
const (
	FormatSVG    = "svg"
	FormatHTML   = "html"
	FormatJSON   = "json"
	FormatTree   = "tree"
	FormatYAML   = "yaml"
	FormatDOT    = "dot"
	FormatDOTSVG = "dot-svg"
	FormatPNG    = "png"
	FormatPDF    = "pdf"
)

// Formats lists the supported formats in documentation order.
var Formats = []string{FormatSVG, FormatHTML, FormatJSON, FormatTree, FormatYAML, FormatDOT, FormatDOTSVG, FormatPNG, FormatPDF}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatJSON:
		return "layout.json"
	case FormatTree:
		return "tree.json"
	case FormatDOTSVG:
		return "dot.svg"
	}
	return format
}

// Cache lifetimes per key type.
const (
	TTLSummary  = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configure one pipeline run.
type Options struct {
	// Path is the navigation path to focus; "" shows the whole tree.
	Path string `json:"path,omitempty"`

	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	PaddingTop   float64 `json:"padding_top,omitempty"`
	PaddingInner float64 `json:"padding_inner,omitempty"`

	Formats []string `json:"formats,omitempty"`
	// Depth limits tree, yaml and dot exports below the focused entry;
	// 0 exports everything.
	Depth int `json:"depth,omitempty"`
	// Scale is the PNG resolution multiplier.
	Scale float64 `json:"scale,omitempty"`
	// API is the viewer API base embedded in HTML pages.
	API string `json:"api,omitempty"`

	// Refresh bypasses cache reads.
	Refresh bool        `json:"-"`
	Logger  *log.Logger `json:"-"`
}

// ValidateAndSetDefaults fills zero fields and rejects bad values.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.PaddingTop == 0 {
		o.PaddingTop = treemap.DefaultPaddingTop
	}
	if o.PaddingInner == 0 {
		o.PaddingInner = treemap.DefaultPaddingInner
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Depth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "depth must not be negative")
	}
	if err := errors.ValidateNavPath(o.Path); err != nil {
		return err
	}
	if err := o.TreemapOptions().Validate(); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// TreemapOptions returns the layout options.
func (o *Options) TreemapOptions() treemap.Options {
	opts := treemap.DefaultOptions(o.Width, o.Height)
	opts.PaddingTop = o.PaddingTop
	opts.PaddingInner = o.PaddingInner
	return opts
}

// LayoutKeyOpts returns the cache key inputs of the layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Path:         o.Path,
		Width:        int(o.Width),
		Height:       int(o.Height),
		PaddingTop:   o.PaddingTop,
		PaddingInner: o.PaddingInner,
	}
}

// ArtifactKeyOpts returns the cache key inputs of one artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Layout: o.LayoutKeyOpts(), Depth: o.Depth}
	if format == FormatHTML {
		k.Format += "@" + o.API
	}
	if format == FormatPNG {
		k.Format += "@" + strconv.FormatFloat(o.Scale, 'g', -1, 64)
	}
	return k
}

// Result holds the outputs of a run. On a full cache hit only Artifacts,
// ReportHash and CacheInfo are set.
type Result struct {
	ReportHash string
	Report     *report.Result
	Tree       *entry.Tree
	Controller *focus.Controller
	Scene      *render.Scene
	Artifacts  map[string][]byte
	Stats      Stats
	CacheInfo  CacheInfo
}

// Stats holds timings and sizes.
type Stats struct {
	Entries    int
	Warnings   int
	LoadTime   time.Duration
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which lookups hit.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
