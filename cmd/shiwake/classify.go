package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify pre-extracted OCR fields",
		Long: `Propose a journal entry for OCR fields stored as JSON. The file may hold
the raw extraction reply; the first JSON object in it is used.`,
		Args: cobra.NoArgs,
		RunE: runClassify,
	}

	cmd.Flags().String("json", "", "OCR fields JSON file (required)")
	cmd.Flags().String("direction", "", "force the transaction direction (sales, purchase)")
	cmd.Flags().Bool("record", false, "append the suggestion to the ledger as a manual entry")
	cmd.Flags().Bool("output-json", false, "print the suggestion as JSON")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("json")
	record, _ := cmd.Flags().GetBool("record")
	asJSON, _ := cmd.Flags().GetBool("output-json")
	direction, err := parseDirection(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	fields, err := ocr.ParseFields(string(data))
	if err != nil {
		return common.NewUserError("could not read OCR fields from "+path, err)
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		s, err := a.classifier.Classify(ctx, fields, direction)
		if err != nil {
			return common.NewUserError("classification failed", err)
		}

		if record {
			id, err := a.store.Append(ctx, s.Entry, model.SourceManual, filepath.Base(path), s.LearningApplied)
			if err != nil {
				return fmt.Errorf("failed to record entry: %w", err)
			}
			s.Entry.HistoryID = id
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		title := fmt.Sprintf("%s (rule: %s)", model.Text(fields.Issuer), s.RuleName)
		fmt.Fprintln(out, cli.FormatEntry(title, s.Entry))
		if s.LearningApplied {
			fmt.Fprintln(out, cli.FormatInfo("Learned correction applied for "+s.Signature))
		}
		return nil
	})
}
