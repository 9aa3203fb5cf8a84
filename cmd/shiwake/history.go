package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the audit ledger",
	}
	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyStatsCmd())
	cmd.AddCommand(historyShowCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}

	cmd.Flags().Bool("exported", false, "only exported entries")
	cmd.Flags().Bool("unexported", false, "only entries not yet exported")
	cmd.Flags().String("source-type", "", "filter by source type")
	cmd.Flags().String("source-file", "", "filter by source file")
	cmd.Flags().Int("limit", 100, "maximum number of entries (0 for all)")
	cmd.Flags().Int("offset", 0, "number of entries to skip")
	cmd.MarkFlagsMutuallyExclusive("exported", "unexported")

	return cmd
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	var filter service.HistoryFilter
	if v, _ := cmd.Flags().GetBool("exported"); v {
		filter.Exported = &v
	}
	if v, _ := cmd.Flags().GetBool("unexported"); v {
		exported := false
		filter.Exported = &exported
	}
	sourceType, _ := cmd.Flags().GetString("source-type")
	filter.SourceType = model.SourceType(sourceType)
	filter.SourceFile, _ = cmd.Flags().GetString("source-file")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Offset, _ = cmd.Flags().GetInt("offset")

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		records, err := a.store.QueryHistory(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to query history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, cli.InfoStyle.Render("No ledger entries found."))
			return nil
		}

		fmt.Fprintln(out, cli.FormatTitle("Ledger Entries"))
		tbl := cli.NewTable(out, "ID", "Date", "Debit", "Credit", "Amount", "Description", "Source", "Exported")
		for _, r := range records {
			tbl.Row(
				r.ID,
				r.Entry.Date.Format(model.DateLayout),
				cli.FormatAccount(r.Entry.DebitAccount, r.Entry.DebitSubAccount),
				cli.FormatAccount(r.Entry.CreditAccount, r.Entry.CreditSubAccount),
				cli.FormatYen(r.Entry.DebitAmount),
				r.Entry.Description,
				string(r.SourceType),
				cli.FormatExported(r.Exported),
			)
		}
		return tbl.Flush()
	})
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ledger statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				st, err := a.store.Stats(ctx)
				if err != nil {
					return fmt.Errorf("failed to compute stats: %w", err)
				}

				body := fmt.Sprintf("Entries:     %d\nExported:    %d\nUnexported:  %d\nExports:     %d",
					st.Total, st.Exported, st.Unexported, st.TotalExports)

				types := make([]string, 0, len(st.BySourceType))
				for t := range st.BySourceType {
					types = append(types, string(t))
				}
				sort.Strings(types)
				for _, t := range types {
					body += fmt.Sprintf("\n  %-12s %d", t, st.BySourceType[model.SourceType(t)])
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Ledger Statistics", body))
				return nil
			})
		},
	}
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				r, err := a.store.GetHistoryRecord(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get entry %s: %w", args[0], err)
				}

				entry := r.Entry
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatEntry("Ledger Entry", entry))
				fmt.Fprintf(out, "Source:    %s %s\n", r.SourceType, r.SourceFile)
				fmt.Fprintf(out, "Recorded:  %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Learning:  %s\n", strconv.FormatBool(r.LearningApplied))
				if r.Exported && r.ExportedAt != nil {
					fmt.Fprintf(out, "Exported:  %s (%s)\n", r.ExportedAt.Local().Format("2006-01-02 15:04:05"), r.ExportID)
				} else {
					fmt.Fprintln(out, "Exported:  no")
				}
				return nil
			})
		},
	}
}
