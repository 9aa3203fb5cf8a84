package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/rules"
)

// EntryKind names one of the typed entry creators.
type EntryKind string

const (
	// KindSales books a receivable against sales.
	KindSales EntryKind = "sales"
	// KindPaymentReceived books a bank deposit against a receivable.
	KindPaymentReceived EntryKind = "payment_received"
	// KindPurchase books a purchase against a payable.
	KindPurchase EntryKind = "purchase"
	// KindPurchasePayment books a payable against a bank withdrawal.
	KindPurchasePayment EntryKind = "purchase_payment"
)

// IsValid reports whether k is a known entry kind.
func (k EntryKind) IsValid() bool {
	switch k {
	case KindSales, KindPaymentReceived, KindPurchase, KindPurchasePayment:
		return true
	}
	return false
}

// SourceType is the ledger source recorded for entries of this kind.
func (k EntryKind) SourceType() model.SourceType {
	switch k {
	case KindSales:
		return model.SourceSales
	case KindPurchase:
		return model.SourcePurchase
	}
	return model.SourcePayment
}

// DefaultRule is the rule name used when a request does not pick one.
func (k EntryKind) DefaultRule() string {
	switch k {
	case KindSales:
		return rules.RuleSales
	case KindPaymentReceived:
		return rules.RulePaymentReceived
	case KindPurchase:
		return rules.RulePurchase
	}
	return rules.RulePurchasePayment
}

// usesBank reports whether the kind moves money through a bank account.
func (k EntryKind) usesBank() bool {
	return k == KindPaymentReceived || k == KindPurchasePayment
}

// EntryRequest describes one typed entry. Rule overrides the kind's
// default rule; BankID overrides the default bank account.
type EntryRequest struct {
	Date        time.Time
	Vendor      string
	Description string
	Rule        string
	BankID      string
	Amount      int64
}

// Journal builds sales, purchase and payment entries from named rules.
type Journal struct {
	index *rules.Index
}

// NewJournal creates a journal over the rule index.
func NewJournal(index *rules.Index) *Journal {
	return &Journal{index: index}
}

// Create builds a balanced entry of the given kind. Vendor sub-accounts use
// the vendor master label when the name is known and the name itself
// otherwise. An empty description becomes "{vendor}　{month}月分".
func (j *Journal) Create(kind EntryKind, req EntryRequest) (model.JournalEntry, error) {
	if !kind.IsValid() {
		return model.JournalEntry{}, fmt.Errorf("%w: %q", ErrUnknownEntryKind, kind)
	}
	vendor := strings.TrimSpace(req.Vendor)
	if vendor == "" {
		return model.JournalEntry{}, ErrMissingVendor
	}
	if req.Amount < 0 {
		return model.JournalEntry{}, fmt.Errorf("%w: %d", ErrInvalidAmount, req.Amount)
	}

	name := req.Rule
	if name == "" {
		name = kind.DefaultRule()
	}
	rule, ok := j.index.Rule(name)
	if !ok {
		return model.JournalEntry{}, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}

	vars := templateVars{vendor: vendor, month: int(req.Date.Month())}
	if v, ok := j.index.FindVendor(vendor); ok {
		vars.vendor = v.Label()
	}
	if kind.usesBank() || req.BankID != "" {
		b, ok := j.index.Bank(req.BankID)
		if !ok && req.BankID != "" {
			return model.JournalEntry{}, fmt.Errorf("%w: %q", ErrUnknownBank, req.BankID)
		}
		vars.bank = b.Label()
	}

	description := strings.TrimSpace(req.Description)
	switch {
	case description != "":
	case rule.DescriptionTemplate != "":
		description = vars.fill(rule.DescriptionTemplate)
	default:
		description = vars.fill(DefaultDescription)
	}

	entry := model.NewEntry(req.Date, vars.fillMapping(rule.Mapping), req.Amount, description)
	slog.Debug("Created typed entry", "kind", kind, "rule", rule.Name, "vendor", vars.vendor)
	return entry, nil
}
