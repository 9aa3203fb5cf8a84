package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/spf13/cobra"
)

func entryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Create sales, purchase and payment entries",
	}

	cmd.AddCommand(entryKindCmd("sales", "Book a receivable against sales", engine.KindSales))
	cmd.AddCommand(entryKindCmd("purchase", "Book a purchase against a payable", engine.KindPurchase))
	cmd.AddCommand(entryKindCmd("receive", "Book a customer payment into a bank account", engine.KindPaymentReceived))
	cmd.AddCommand(entryKindCmd("pay", "Book a supplier payment from a bank account", engine.KindPurchasePayment))
	return cmd
}

func entryKindCmd(use, short string, kind engine.EntryKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEntry(cmd, kind)
		},
	}

	cmd.Flags().String("date", "", "entry date, YYYY-MM-DD (default: today)")
	cmd.Flags().String("vendor", "", "customer or supplier name (required)")
	cmd.Flags().Int64("amount", 0, "amount in yen")
	cmd.Flags().String("description", "", "entry description (default: \"{vendor}　{month}月分\")")
	cmd.Flags().String("rule", "", "rule name overriding the default for this kind")
	cmd.Flags().String("bank", "", "bank account id (default: the master's default bank)")
	cmd.Flags().Bool("append", false, "append the entry to the ledger")
	cmd.Flags().Bool("output-json", false, "print the entry as JSON")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runEntry(cmd *cobra.Command, kind engine.EntryKind) error {
	rawDate, _ := cmd.Flags().GetString("date")
	vendor, _ := cmd.Flags().GetString("vendor")
	amount, _ := cmd.Flags().GetInt64("amount")
	description, _ := cmd.Flags().GetString("description")
	rule, _ := cmd.Flags().GetString("rule")
	bankID, _ := cmd.Flags().GetString("bank")
	appendEntry, _ := cmd.Flags().GetBool("append")
	asJSON, _ := cmd.Flags().GetBool("output-json")

	date := model.DateOnly(time.Now())
	if rawDate != "" {
		d, err := time.Parse(model.DateLayout, rawDate)
		if err != nil {
			return common.NewUserError("date must be YYYY-MM-DD", err)
		}
		date = d
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		entry, err := engine.NewJournal(a.index).Create(kind, engine.EntryRequest{
			Date:        date,
			Vendor:      vendor,
			Description: description,
			Rule:        rule,
			BankID:      bankID,
			Amount:      amount,
		})
		if err != nil {
			return common.NewUserError("could not create entry", err)
		}

		if appendEntry {
			id, err := a.store.Append(ctx, entry, kind.SourceType(), "", false)
			if err != nil {
				return fmt.Errorf("failed to record entry: %w", err)
			}
			entry.HistoryID = id
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		}
		fmt.Fprintln(out, cli.FormatEntry(fmt.Sprintf("%s (%s)", vendor, kind), entry))
		if entry.HistoryID != "" {
			fmt.Fprintln(out, cli.FormatSuccess("Recorded "+entry.HistoryID))
		}
		return nil
	})
}
