package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/pipeline"
	"github.com/matzehuels/sizemap/pkg/report"
)

// renderFlags holds the command-line flags for the render command. Unset
// flags fall back to the [render] config section.
type renderFlags struct {
	formats string
	output  string
	noCache bool
	opts    pipeline.Options
}

// renderCommand creates the render command for generating outputs.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [report.json]",
		Short: "Render a size report as a treemap",
		Long: `Render a size report as a treemap.

The report is normalized into an entry tree, optionally focused on the node
named by --path, laid out with the squarified algorithm and written in every
requested format:

  svg      standalone treemap with tooltips
  html     self-contained viewer page
  json     laid out rectangles
  tree     entry tree as JSON (from the focused node)
  yaml     entry tree as YAML
  dot      Graphviz source of the entry tree
  dot-svg  Graphviz rendering of the entry tree
  png/pdf  rasterized treemap (requires rsvg-convert)

Results are cached by report content, so re-rendering an unchanged report is
instant.`,
		Example: `  sizemap render bin.json
  sizemap render bin.json -f svg,html -o out/bin
  sizemap render bin.json --path '#bin#std-packages' -f tree -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.Config.renderOptions()
			mergeRenderFlags(cmd, &opts, f)
			return c.runRender(cmd.Context(), args[0], opts, f.output, f.noCache)
		},
	}

	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s), comma-separated: "+strings.Join(pipeline.Formats, ", "))
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.opts.Refresh, "refresh", false, "ignore cached results")
	addViewFlags(cmd, &f.opts)
	cmd.Flags().IntVar(&f.opts.Depth, "depth", 0, "limit tree, yaml and dot exports to N levels below the focus")
	cmd.Flags().Float64Var(&f.opts.Scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")

	return cmd
}

// addViewFlags registers the flags shared by render, inspect and explore.
func addViewFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "navigation path to focus, e.g. '#bin#main-packages'")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "frame width")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "frame height")
}

// mergeRenderFlags overrides config-seeded options with the flags the user
// actually set.
func mergeRenderFlags(cmd *cobra.Command, opts *pipeline.Options, f renderFlags) {
	changed := cmd.Flags().Changed
	if formats := parseFormats(f.formats); formats != nil {
		opts.Formats = formats
	}
	if changed("width") {
		opts.Width = f.opts.Width
	}
	if changed("height") {
		opts.Height = f.opts.Height
	}
	opts.Path = f.opts.Path
	opts.Depth = f.opts.Depth
	opts.Scale = f.opts.Scale
	opts.Refresh = f.opts.Refresh
}

// runRender executes the pipeline on one report file and writes the outputs.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	raw, err := readReport(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)
	sp := newSpinner(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(input)))
	sp.Start()

	res, err := runner.Execute(ctx, raw, opts)
	if err != nil {
		sp.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	sp.Stop()
	prog.done("Rendered " + filepath.Base(input))

	return writeArtifacts(artifactWriteParams{
		artifacts: res.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		entries:   res.Stats.Entries,
		warnings:  res.Stats.Warnings,
		cacheHit:  res.CacheInfo.RenderHit,
	})
}

// readReport reads a report file, refusing files over the report size cap.
func readReport(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open report %s", path)
	}
	if info.Size() > report.MaxReportSize {
		return nil, errors.New(errors.ErrCodeInvalidReport, "%s exceeds %d bytes", path, report.MaxReportSize)
	}
	return os.ReadFile(path)
}

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	entries   int
	warnings  int
	cacheHit  bool
}

// writeArtifacts writes each artifact to its output path. A single format
// goes to output verbatim; several formats share output as a base path.
func writeArtifacts(p artifactWriteParams) error {
	toStdout := p.output == "-"
	if toStdout && len(p.formats) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot write %d formats to stdout", len(p.formats))
	}

	var written []string
	for _, format := range p.formats {
		path := outputPath(p.output, p.input, format, len(p.formats) == 1)
		if toStdout {
			path = "-"
		}
		out, err := openOutput(path)
		if err != nil {
			return err
		}
		_, err = out.Write(p.artifacts[format])
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if !toStdout {
			written = append(written, path)
		}
	}

	if toStdout {
		return nil
	}
	printSuccess("Generated %d file(s)", len(written))
	for _, path := range written {
		printFile(path)
	}
	printStats(p.entries, p.warnings, p.cacheHit)
	return nil
}

// outputPath derives the file for one format. With a single format an
// explicit output is used as is.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + pipeline.Extension(format)
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .html, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
