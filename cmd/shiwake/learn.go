package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/spf13/cobra"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Manage learned corrections",
		Long: `Learned corrections override rule matching for an issuer and direction.
The latest correction for a signature wins.`,
	}
	cmd.AddCommand(learnSaveCmd())
	cmd.AddCommand(learnListCmd())
	cmd.AddCommand(learnDeleteCmd())
	cmd.AddCommand(learnClearCmd())
	return cmd
}

func learnSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a correction for the issuer of an OCR file",
		Args:  cobra.NoArgs,
		RunE:  runLearnSave,
	}

	cmd.Flags().String("json", "", "OCR fields JSON file of the original document (required)")
	cmd.Flags().String("corrected", "", "corrected entry JSON file; overrides the account flags")
	cmd.Flags().String("direction", "", "transaction direction (sales, purchase)")
	cmd.Flags().String("debit", "", "debit account")
	cmd.Flags().String("debit-sub", "", "debit sub-account")
	cmd.Flags().String("debit-tax", "", "debit tax category")
	cmd.Flags().String("credit", "", "credit account")
	cmd.Flags().String("credit-sub", "", "credit sub-account")
	cmd.Flags().String("credit-tax", "", "credit tax category")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

func runLearnSave(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("json")
	correctedPath, _ := cmd.Flags().GetString("corrected")
	direction, err := parseDirection(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	original, err := ocr.ParseFields(string(data))
	if err != nil {
		return common.NewUserError("could not read OCR fields from "+path, err)
	}

	var corrected model.JournalEntry
	if correctedPath != "" {
		raw, err := os.ReadFile(correctedPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", correctedPath, err)
		}
		if err := json.Unmarshal(raw, &corrected); err != nil {
			return common.NewUserError("invalid corrected entry in "+correctedPath, err)
		}
	} else {
		flag := func(name string) string {
			v, _ := cmd.Flags().GetString(name)
			return v
		}
		corrected = model.JournalEntry{
			DebitAccount:      flag("debit"),
			DebitSubAccount:   flag("debit-sub"),
			DebitTaxCategory:  flag("debit-tax"),
			CreditAccount:     flag("credit"),
			CreditSubAccount:  flag("credit-sub"),
			CreditTaxCategory: flag("credit-tax"),
		}
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if err := a.classifier.SubmitCorrection(ctx, original, corrected, direction); err != nil {
			return common.NewUserError("could not save correction", err)
		}
		sig := model.Signature(model.Text(original.Issuer), a.classifier.ResolveDirection(original, direction))
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved correction for "+sig))
		return nil
	})
}

func learnListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned corrections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				records, err := a.store.ListLearning(ctx)
				if err != nil {
					return fmt.Errorf("failed to list corrections: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No learned corrections."))
					return nil
				}

				fmt.Fprintln(out, cli.FormatTitle("Learned Corrections"))
				tbl := cli.NewTable(out, "Signature", "Issuer", "Debit", "Credit", "Count", "Updated")
				for _, r := range records {
					tbl.Row(
						r.Signature,
						r.Issuer,
						cli.FormatAccount(r.Mapping.DebitAccount, r.Mapping.DebitSubAccount),
						cli.FormatAccount(r.Mapping.CreditAccount, r.Mapping.CreditSubAccount),
						strconv.Itoa(r.CorrectionCount),
						r.UpdatedAt.Local().Format("2006-01-02"),
					)
				}
				return tbl.Flush()
			})
		},
	}
}

func learnDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <signature>",
		Short: "Delete one learned correction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if err := a.store.DeleteLearning(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete %s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+args[0]))
				return nil
			})
		},
	}
}

func learnClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every learned correction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				out := cmd.OutOrStdout()
				if !yes {
					ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Delete all learned corrections?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, cli.InfoStyle.Render("Nothing deleted."))
						return nil
					}
				}

				n, err := a.store.ClearLearning(ctx)
				if err != nil {
					return fmt.Errorf("failed to clear corrections: %w", err)
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted %d corrections", n)))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}
