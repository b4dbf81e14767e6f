package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/sizemap/pkg/cache"
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/observability"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/report"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → build → layout → render pipeline on a
// raw report. When every requested format is cached for this report and
// these options, no stage runs.
func (r *Runner) Execute(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{ReportHash: cache.Hash(raw)}

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, result.ReportHash, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo = CacheInfo{LayoutHit: true, RenderHit: true}
			opts.Logger.Debug("served from cache", "report", result.ReportHash[:12], "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 1: Load
	loadStart := time.Now()
	rep, err := r.Load(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Report = rep
	result.Stats.LoadTime = time.Since(loadStart)

	// Stage 2: Build
	buildStart := time.Now()
	tree, err := r.Build(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Tree = tree
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Entries = tree.Len()
	result.Stats.Warnings = len(tree.Warnings)

	opts.Logger.Info("built entry tree",
		"name", rep.Name,
		"entries", tree.Len(),
		"warnings", len(tree.Warnings),
		"duration", result.Stats.LoadTime+result.Stats.BuildTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	result.Controller, result.Scene = r.Layout(ctx, tree, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, info, err := r.RenderWithCacheInfo(ctx, result.ReportHash, result.Scene, tree, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo = info
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"path", result.Scene.Path,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load decodes and validates a raw report.
func (r *Runner) Load(ctx context.Context, raw []byte) (rep *report.Result, err error) {
	done := stage(ctx, observability.StageLoad)
	defer func() { done(err) }()

	if len(raw) > report.MaxReportSize {
		return nil, errors.New(errors.ErrCodeInvalidReport, "report exceeds %d bytes", report.MaxReportSize)
	}
	return report.Parse(raw)
}

// Build normalizes a report into an entry tree and logs every size
// mismatch it had to reconcile.
func (r *Runner) Build(ctx context.Context, rep *report.Result) (tree *entry.Tree, err error) {
	done := stage(ctx, observability.StageBuild)
	defer func() { done(err) }()

	tree, err = entry.Build(rep)
	if err != nil {
		return nil, err
	}
	for _, w := range tree.Warnings {
		r.Logger.Warn("size mismatch", "entry", w.Name, "kind", w.Kind, "declared", w.Declared, "children", w.Children)
	}
	observability.Pipeline().OnTreeBuilt(ctx, tree.Len(), len(tree.Warnings))
	return tree, nil
}

// Layout resolves opts.Path into a focus and tiles the resulting view. A
// path that does not resolve falls back to the whole tree.
func (r *Runner) Layout(ctx context.Context, tree *entry.Tree, opts Options) (*focus.Controller, *render.Scene) {
	done := stage(ctx, observability.StageLayout)
	defer done(nil)

	c := focus.NewController(tree, focus.NewMemoryNavigator(opts.Path))
	if opts.Path != "" && c.Path() != opts.Path {
		r.Logger.Warn("navigation path not found, showing whole tree", "path", opts.Path)
	}
	return c, render.NewScene(c, opts.TreemapOptions())
}

// RenderWithCacheInfo produces every requested format, serving each from
// the cache when possible. The layout export is cached under the layout
// key, everything else under an artifact key.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, reportHash string, s *render.Scene, tree *entry.Tree, opts Options) (artifacts map[string][]byte, info CacheInfo, err error) {
	done := stage(ctx, observability.StageRender)
	defer func() { done(err) }()

	artifacts = make(map[string][]byte, len(opts.Formats))
	var mu sync.Mutex
	hits := 0

	g, gctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			key, keyType, ttl := r.key(reportHash, format, opts)
			if !opts.Refresh {
				if data, ok := r.get(gctx, key, keyType); ok {
					mu.Lock()
					artifacts[format] = data
					hits++
					if format == FormatJSON {
						info.LayoutHit = true
					}
					mu.Unlock()
					return nil
				}
			}
			data, err := RenderFormat(s, tree, format, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
			r.set(gctx, key, keyType, data, ttl)
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, CacheInfo{}, err
	}
	info.RenderHit = hits == len(opts.Formats)
	return artifacts, info, nil
}

// Summary returns the totals of a raw report, cached by content hash.
func (r *Runner) Summary(ctx context.Context, raw []byte) (report.Summary, bool, error) {
	key := r.Keyer.ReportKey(cache.Hash(raw))
	if data, ok := r.get(ctx, key, "report"); ok {
		var s report.Summary
		if err := json.Unmarshal(data, &s); err == nil {
			return s, true, nil
		}
	}
	rep, err := r.Load(ctx, raw)
	if err != nil {
		return report.Summary{}, false, err
	}
	s := report.Summarize(rep)
	if data, err := json.Marshal(s); err == nil {
		r.set(ctx, key, "report", data, TTLSummary)
	}
	return s, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cachedArtifacts(ctx context.Context, reportHash string, opts Options) (map[string][]byte, bool) {
	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key, keyType, _ := r.key(reportHash, format, opts)
		data, ok := r.get(ctx, key, keyType)
		if !ok {
			return nil, false
		}
		out[format] = data
	}
	return out, true
}

func (r *Runner) key(reportHash, format string, opts Options) (key, keyType string, ttl time.Duration) {
	if format == FormatJSON {
		return r.Keyer.LayoutKey(reportHash, opts.LayoutKeyOpts()), "layout", TTLLayout
	}
	return r.Keyer.ArtifactKey(reportHash, opts.ArtifactKeyOpts(format)), "artifact", TTLArtifact
}

// get treats cache errors as misses; the cache is an optimization.
func (r *Runner) get(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func stage(ctx context.Context, s observability.Stage) func(error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, s)
	start := time.Now()
	return func(err error) {
		hooks.OnStageComplete(ctx, s, time.Since(start), err)
	}
}
