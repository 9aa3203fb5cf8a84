package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/Veraticus/shiwake/internal/bank"
	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/spf13/cobra"
)

func bankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Work with bank statement exports",
	}

	importCmd := &cobra.Command{
		Use:   "import <statement.csv>",
		Short: "Suggest entries for every line of a statement",
		Long: `Read a bank statement CSV (CP932 or UTF-8) and print a suggested entry
for each line. Lines matched with low confidence are flagged for review.
Nothing is appended to the ledger.`,
		Args: cobra.ExactArgs(1),
		RunE: runBankImport,
	}
	importCmd.Flags().String("format", "aichi", "statement layout (aichi, mufg, smbc)")
	importCmd.Flags().String("bank", "", "bank account id (default: the master's default bank)")
	importCmd.Flags().Bool("output-json", false, "print the result as JSON")

	cmd.AddCommand(importCmd)
	return cmd
}

func runBankImport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	bankID, _ := cmd.Flags().GetString("bank")
	asJSON, _ := cmd.Flags().GetBool("output-json")

	format, err := bank.ParseFormat(formatName)
	if err != nil {
		return common.NewUserError("unknown statement format "+formatName, err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	return withApp(cmd.Context(), func(a *app) error {
		res, err := bank.NewImporter(a.index).Import(f, bank.Options{Format: format, BankID: bankID})
		if err != nil {
			return common.NewUserError("could not import "+args[0], err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		table := cli.NewTable(out, "DATE", "DESCRIPTION", "AMOUNT", "DEBIT", "CREDIT", "RULE", "CONF")
		for _, l := range res.Lines {
			conf := strconv.FormatFloat(l.Confidence, 'f', 2, 64)
			if l.NeedsReview {
				conf = cli.WarningStyle.Render(conf)
			}
			table.Row(
				l.Entry.Date.Format(model.DateLayout),
				l.Transaction.Description,
				cli.FormatYen(l.Entry.DebitAmount),
				cli.FormatAccount(l.Entry.DebitAccount, l.Entry.DebitSubAccount),
				cli.FormatAccount(l.Entry.CreditAccount, l.Entry.CreditSubAccount),
				l.Rule,
				conf,
			)
		}
		if err := table.Flush(); err != nil {
			return err
		}

		s := res.Summary
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d lines: %d deposits, %d withdrawals", s.Total, s.Deposits, s.Withdrawals)))
		if s.NeedsReview > 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d lines need review", s.NeedsReview)))
		}
		for _, sk := range res.Skipped {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("line %d skipped: %s", sk.Line, sk.Reason)))
		}
		return nil
	})
}
