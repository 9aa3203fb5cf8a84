package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/spf13/cobra"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <files...>",
		Short: "OCR invoices, classify them and record the entries",
		Long: `Read each invoice image or PDF with OCR, propose a journal entry and
append it to the audit ledger. Each file succeeds or fails on its own.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().String("direction", "", "force the transaction direction (sales, purchase)")
	cmd.Flags().String("source-type", "", "ledger source type (default ocr_single or ocr_batch)")
	cmd.Flags().Bool("dry-run", false, "classify without recording to the ledger")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	direction, err := parseDirection(cmd)
	if err != nil {
		return err
	}
	sourceType, _ := cmd.Flags().GetString("source-type")
	if sourceType != "" && !model.SourceType(sourceType).IsValid() {
		return common.NewUserError(fmt.Sprintf("unknown source type %q", sourceType), nil)
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	for _, path := range args {
		if !ocr.IsSupported(path) {
			return common.NewUserError(fmt.Sprintf("unsupported file %s", path), common.ErrUnsupportedFormat)
		}
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if len(args) > a.settings.BatchMaxFiles {
			return common.NewUserError(fmt.Sprintf("too many files (max %d)", a.settings.BatchMaxFiles), nil)
		}

		out := cmd.OutOrStdout()
		var progress *cli.Progress
		if !noProgress && len(args) > 1 {
			progress = cli.NewProgress(os.Stderr, len(args), "Processing invoices...")
		}

		var (
			results []engine.ProcessResult
			failed  int
		)
		opts := engine.ProcessOptions{
			Direction:  direction,
			SourceType: model.SourceType(sourceType),
			DryRun:     dryRun,
		}
		for res := range a.pipeline.Process(ctx, args, opts) {
			if progress != nil {
				progress.Step()
			}
			if res.Err != nil {
				failed++
				common.LogError(res.Err, "Failed to process document", common.Fields{"file": res.Path})
			}
			results = append(results, res)
		}
		if progress != nil {
			progress.Finish()
		}

		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", res.Path, userError(res.Err))))
				continue
			}
			title := res.Path
			if res.Suggestion.LearningApplied {
				title += " " + cli.LearnIcon
			}
			fmt.Fprintln(out, cli.FormatEntry(title, res.Suggestion.Entry))
		}

		summary := fmt.Sprintf("%d processed, %d failed", len(results)-failed, failed)
		if dryRun {
			summary += " (dry run, nothing recorded)"
		}
		slog.Info("Processing finished", "processed", len(results)-failed, "failed", failed, "dry_run", dryRun)
		if failed > 0 {
			fmt.Fprintln(out, cli.FormatWarning(summary))
			return nil
		}
		fmt.Fprintln(out, cli.FormatSuccess(summary))
		return nil
	})
}

func parseDirection(cmd *cobra.Command) (model.Direction, error) {
	raw, _ := cmd.Flags().GetString("direction")
	d := model.Direction(raw)
	if raw != "" && !d.IsValid() {
		return "", common.NewUserError(fmt.Sprintf("unknown direction %q (want sales or purchase)", raw), nil)
	}
	return d, nil
}
