package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/store"
)

// storeCommand creates the report store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage reports kept for the viewer",
	}
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeRemoveCommand())
	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored reports, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return listReports(cmd.Context(), cmd.OutOrStdout(), st)
		},
	}
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete stored reports",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return removeReports(cmd.Context(), st, args)
		},
	}
}

func listReports(ctx context.Context, w io.Writer, st store.Store) error {
	reports, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		printInfo("No stored reports")
		return nil
	}
	fmt.Fprintln(w, reportsTable(reports))
	return nil
}

func reportsTable(reports []*store.Report) *table.Table {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{r.ID, r.Name, humanize.Bytes(r.Size), r.CreatedAt.Local().Format("2006-01-02 15:04")}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "NAME", "SIZE", "UPLOADED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return s.Bold(true).Foreground(colorCyan)
			case col == 0:
				return s.Foreground(colorGray)
			case col == 2:
				return s.Foreground(colorWhite).Align(lipgloss.Right)
			}
			return s
		})
}

func removeReports(ctx context.Context, st store.Store, ids []string) error {
	for _, id := range ids {
		if err := errors.ValidateReportID(id); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if err := st.Delete(ctx, id); err != nil {
			return err
		}
		printSuccess("Deleted %s", id)
	}
	printDetail("%d report(s) removed", len(ids))
	return nil
}
