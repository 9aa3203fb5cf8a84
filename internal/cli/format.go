package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/shiwake/internal/model"
)

// FormatYen renders an amount as "¥1,234".
func FormatYen(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-¥" + b.String()
	}
	return "¥" + b.String()
}

// FormatAccount joins an account and its sub-account as "account/sub".
func FormatAccount(account, sub string) string {
	if sub == "" {
		return account
	}
	return account + "/" + sub
}

// FormatEntry renders a journal entry as a boxed summary.
func FormatEntry(title string, e model.JournalEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date:        %s\n", e.Date.Format(model.DateLayout))
	fmt.Fprintf(&b, "Debit:       %s  %s  (%s)\n",
		DebitStyle.Render(FormatAccount(e.DebitAccount, e.DebitSubAccount)), AmountStyle.Render(FormatYen(e.DebitAmount)), e.DebitTaxCategory)
	fmt.Fprintf(&b, "Credit:      %s  %s  (%s)\n",
		CreditStyle.Render(FormatAccount(e.CreditAccount, e.CreditSubAccount)), AmountStyle.Render(FormatYen(e.CreditAmount)), e.CreditTaxCategory)
	fmt.Fprintf(&b, "Description: %s", e.Description)
	if e.HistoryID != "" {
		fmt.Fprintf(&b, "\nHistory ID:  %s", e.HistoryID)
	}
	return RenderBox(title, b.String())
}
