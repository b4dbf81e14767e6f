package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/report"
)

const (
	inspectTable = "table"
	inspectJSON  = "json"
	inspectYAML  = "yaml"
)

// inspectCommand creates the inspect command for printing one node.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		path    string
		depth   int
		format  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [report.json]",
		Short: "Print the children of a node with sizes",
		Long: `Print a report summary and the children of the node named by --path
(the root by default), largest first, with their share of the node.

With --output json or yaml the subtree is exported instead, limited to
--depth levels.`,
		Example: `  sizemap inspect bin.json
  sizemap inspect bin.json --path '#bin#std-packages#runtime'
  sizemap inspect bin.json --output yaml --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateNavPath(path); err != nil {
				return err
			}
			switch format {
			case inspectTable, inspectJSON, inspectYAML:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid output: %q (must be table, json or yaml)", format)
			}
			return c.runInspect(cmd.Context(), os.Stdout, args[0], path, depth, format, noCache)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "navigation path of the node to inspect")
	cmd.Flags().IntVar(&depth, "depth", 1, "levels to export with --output json|yaml (0 = all)")
	cmd.Flags().StringVarP(&format, "output", "o", inspectTable, "output: table, json or yaml")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, w io.Writer, input, path string, depth int, format string, noCache bool) error {
	raw, err := readReport(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sum, cached, err := runner.Summary(ctx, raw)
	if err != nil {
		return err
	}
	parsed, err := runner.Load(ctx, raw)
	if err != nil {
		return err
	}
	tree, err := runner.Build(ctx, parsed)
	if err != nil {
		return err
	}

	target := tree.Root
	if path != "" {
		id, ok := focus.Resolve(tree.Root, path)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "path %s not found in %s", path, input)
		}
		target, _ = tree.Find(id)
	}

	switch format {
	case inspectJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entry.Export(target, depth, true))
	case inspectYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entry.Export(target, depth, true))
	}

	printSummary(sum, cached)
	printNewline()
	fmt.Fprintln(w, StyleTitle.Render(focus.PathOf(tree.Ancestry(target.ID())))+"  "+StyleDim.Render(humanize.Bytes(target.Size())))
	if len(target.Children()) == 0 {
		printInfo("%s has no children", target.Name())
	} else {
		fmt.Fprintln(w, childrenTable(target).Render())
	}
	for _, warn := range tree.Warnings {
		printWarning("%s", warn.String())
	}
	if target.ID() == tree.Root.ID() && len(target.Children()) > 0 {
		printNewline()
		printNextStep("Drill down", fmt.Sprintf("%s inspect %s --path '%s'", appName, input, focus.PathOf(tree.Ancestry(target.Children()[0].ID()))))
	}
	return nil
}

func printSummary(s report.Summary, cached bool) {
	printKeyValue("Binary", s.Name)
	printKeyValue("Size", fmt.Sprintf("%s (%s bytes)", humanize.Bytes(s.Size), humanize.Comma(int64(s.Size))))
	printKeyValue("Sections", fmt.Sprintf("%d (%d debug)", s.Sections, s.DebugSections))
	printKeyValue("Packages", humanize.Comma(int64(s.Packages)))
	printKeyValue("Files", humanize.Comma(int64(s.Files)))
	printKeyValue("Symbols", humanize.Comma(int64(s.Symbols)))
	for _, t := range report.SortedTypes(s.ByType) {
		printKeyValue(string(t), humanize.Bytes(s.ByType[t]))
	}
	if cached {
		printDetail("summary from cache")
	}
}

// childrenTable lists the children of e, largest first.
func childrenTable(e entry.Entry) *table.Table {
	children := entry.SortedBySize(e.Children())
	rows := make([][]string, len(children))
	for i, child := range children {
		share := 0.0
		if e.Size() > 0 {
			share = 100 * float64(child.Size()) / float64(e.Size())
		}
		rows[i] = []string{child.Name(), string(child.Kind()), humanize.Bytes(child.Size()), fmt.Sprintf("%5.1f%%", share), shareBar(share/100, 12)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Kind", "Size", "Share", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case col == 4:
				return base
			case col >= 2:
				base = base.Align(lipgloss.Right).Foreground(colorCyan)
			case children[row].Kind().Synthetic():
				base = base.Foreground(colorDim)
			}
			return base
		})
}
