package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/shiwake/internal/cli"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/rules"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect vendor and journal rules",
	}
	cmd.AddCommand(rulesMatchCmd())
	cmd.AddCommand(rulesListCmd())
	return cmd
}

func rulesMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <issuer> [hints...]",
		Short: "Show which rule an issuer and text would match",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := parseDirection(cmd)
			if err != nil {
				return err
			}
			rawAmount, _ := cmd.Flags().GetString("amount")
			recipient, _ := cmd.Flags().GetString("recipient")

			var amount int64
			if rawAmount != "" {
				amount, err = engine.ParseAmount(rawAmount)
				if err != nil {
					return common.NewUserError("invalid amount "+rawAmount, err)
				}
			}

			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if !direction.IsValid() {
					direction = a.index.DetermineDirection(args[0], recipient)
				}
				res := a.index.MatchQuery(rules.Query{
					Issuer:    args[0],
					Direction: direction,
					Hints:     args[1:],
					Amount:    amount,
				})

				var b strings.Builder
				fmt.Fprintf(&b, "Direction:   %s\n", direction)
				fmt.Fprintf(&b, "Signature:   %s\n", model.Signature(args[0], direction))
				if res.Vendor != nil {
					fmt.Fprintf(&b, "Vendor:      %s (%s)\n", res.Vendor.Name, res.Vendor.Key)
				}
				fmt.Fprintf(&b, "Specificity: %d\n", res.Specificity)
				m := res.Rule.Mapping.WithDefaults()
				fmt.Fprintf(&b, "Debit:       %s (%s)\n", cli.FormatAccount(m.DebitAccount, m.DebitSubAccount), m.DebitTaxCategory)
				fmt.Fprintf(&b, "Credit:      %s (%s)", cli.FormatAccount(m.CreditAccount, m.CreditSubAccount), m.CreditTaxCategory)

				title := "Rule " + res.Rule.Name
				if res.IsDefault {
					title += " (default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(title, b.String()))
				return nil
			})
		},
	}
	cmd.Flags().String("direction", "", "transaction direction (sales, purchase); inferred when empty")
	cmd.Flags().String("amount", "", "invoice amount")
	cmd.Flags().String("recipient", "", "invoice recipient, used to infer the direction")
	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List journal rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatTitle("Journal Rules"))
				tbl := cli.NewTable(out, "Name", "Direction", "Predicate", "Debit", "Credit")
				for _, r := range a.index.Rules() {
					direction := "any"
					if r.Direction != nil {
						direction = string(*r.Direction)
					}
					predicate := strings.Join(r.Keywords, ",")
					if r.VendorKey != "" {
						predicate = "vendor:" + r.VendorKey
					}
					tbl.Row(
						r.Name,
						direction,
						predicate,
						cli.FormatAccount(r.Mapping.DebitAccount, r.Mapping.DebitSubAccount),
						cli.FormatAccount(r.Mapping.CreditAccount, r.Mapping.CreditSubAccount),
					)
				}
				return tbl.Flush()
			})
		},
	}
}
