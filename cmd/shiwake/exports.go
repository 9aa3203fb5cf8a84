package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/spf13/cobra"
)

func exportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exports",
		Short: "Inspect the CSV export log",
	}
	cmd.AddCommand(exportsListCmd())
	cmd.AddCommand(exportsShowCmd())
	return cmd
}

func exportsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				exports, err := a.store.ListExports(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to list exports: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(exports) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No exports recorded yet."))
					return nil
				}

				fmt.Fprintln(out, cli.FormatTitle("Exports"))
				tbl := cli.NewTable(out, "ID", "Exported At", "Filename", "Entries", "Skipped")
				for _, e := range exports {
					tbl.Row(
						e.ID,
						e.ExportedAt.Local().Format("2006-01-02 15:04:05"),
						e.Filename,
						strconv.Itoa(e.EntryCount),
						strconv.Itoa(len(e.SkippedIDs)),
					)
				}
				return tbl.Flush()
			})
		},
	}
	cmd.Flags().Int("limit", 50, "maximum number of exports (0 for all)")
	return cmd
}

func exportsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an export and the entries it covered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				rec, err := a.store.GetExportRecord(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get export %s: %w", args[0], err)
				}
				entries, err := a.store.GetHistoryByExport(ctx, rec.ID)
				if err != nil {
					return fmt.Errorf("failed to get exported entries: %w", err)
				}

				out := cmd.OutOrStdout()
				body := fmt.Sprintf("File:      %s\nExported:  %s\nEntries:   %d",
					rec.Filename, rec.ExportedAt.Local().Format("2006-01-02 15:04:05"), rec.EntryCount)
				for _, id := range rec.SkippedIDs {
					body += "\nSkipped:   " + id
				}
				fmt.Fprintln(out, cli.RenderBox(cli.ExportIcon+" Export "+rec.ID, body))

				tbl := cli.NewTable(out, "ID", "Date", "Debit", "Credit", "Amount", "Description")
				for _, r := range entries {
					tbl.Row(
						r.ID,
						r.Entry.Date.Format(model.DateLayout),
						cli.FormatAccount(r.Entry.DebitAccount, r.Entry.DebitSubAccount),
						cli.FormatAccount(r.Entry.CreditAccount, r.Entry.CreditSubAccount),
						cli.FormatYen(r.Entry.DebitAmount),
						r.Entry.Description,
					)
				}
				return tbl.Flush()
			})
		},
	}
}
