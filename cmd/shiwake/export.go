package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/config"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/yayoi"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a Yayoi CSV and record the export",
		Long: `Encode ledger entries as a Yayoi Kaikei import CSV (CP932) and log the
export. Without --ids every entry not yet exported is included, oldest first.
Entries that cannot be encoded block the whole export and are listed.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringSlice("ids", nil, "ledger entry ids to export")
	cmd.Flags().String("dir", "", "output directory (default from export.dir)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ids, _ := cmd.Flags().GetStringSlice("ids")
	dir, _ := cmd.Flags().GetString("dir")

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if dir == "" {
			dir = a.settings.ExportDir
		}
		dir = config.ExpandPath(dir)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}

		var (
			res *engine.ExportResult
			err error
		)
		if len(ids) > 0 {
			res, err = a.pipeline.Export(ctx, ids)
		} else {
			res, err = a.pipeline.ExportUnexported(ctx)
		}

		out := cmd.OutOrStdout()
		var rowErrs *yayoi.RowErrors
		if errors.As(err, &rowErrs) {
			for _, r := range rowErrs.Rows {
				fmt.Fprintln(out, cli.FormatError(r.Error()))
			}
		}
		if err != nil {
			return userError(err)
		}

		path := filepath.Join(dir, res.File.Filename)
		if err := os.WriteFile(path, res.File.Data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d entries to %s", res.File.Rows, path)))
		fmt.Fprintln(out, cli.SubtleStyle.Render("Export ID: "+res.Record.ID))
		if n := len(res.Record.SkippedIDs); n > 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d unknown ids skipped", n)))
		}
		if res.File.Substitutions > 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d characters not representable in CP932 were written as '?'", res.File.Substitutions)))
		}
		return nil
	})
}
