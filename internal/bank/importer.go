package bank

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/rules"
)

// Line is a statement transaction with its suggested entry.
type Line struct {
	Transaction Transaction        `json:"transaction"`
	Entry       model.JournalEntry `json:"entry"`
	Rule        string             `json:"rule"`
	RuleLabel   string             `json:"rule_label,omitempty"`
	Vendor      string             `json:"vendor,omitempty"`
	Confidence  float64            `json:"confidence"`
	NeedsReview bool               `json:"needs_review"`
}

// Summary counts the lines of an import.
type Summary struct {
	Total       int `json:"total_count"`
	Deposits    int `json:"deposit_count"`
	Withdrawals int `json:"withdrawal_count"`
	NeedsReview int `json:"needs_review_count"`
	Skipped     int `json:"skipped_count"`
}

// Result is a parsed and matched statement.
type Result struct {
	Lines   []Line       `json:"entries"`
	Skipped []SkippedRow `json:"skipped,omitempty"`
	Summary Summary      `json:"summary"`
}

// Options select the statement layout and the account being reconciled.
// An empty BankID uses the default bank account.
type Options struct {
	Format Format
	BankID string
}

// Importer turns statement exports into journal entry suggestions. Nothing
// is written to the ledger.
type Importer struct {
	index   *rules.Index
	matcher *Matcher
	now     func() time.Time
}

// NewImporter creates an importer over the rule index.
func NewImporter(index *rules.Index) *Importer {
	return &Importer{
		index:   index,
		matcher: NewMatcher(index),
		now:     time.Now,
	}
}

// SetClock replaces the source of the year used for dates without one.
func (im *Importer) SetClock(now func() time.Time) {
	im.now = now
}

// Import parses r and suggests an entry for every transaction.
func (im *Importer) Import(r io.Reader, opts Options) (*Result, error) {
	account, err := im.account(opts.BankID)
	if err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = FormatAichi
	}

	txs, skipped, err := Parse(r, opts.Format, im.now())
	if err != nil {
		return nil, err
	}

	res := &Result{Lines: make([]Line, 0, len(txs)), Skipped: skipped}
	for _, tx := range txs {
		line := im.suggest(tx, account)
		res.Lines = append(res.Lines, line)
		if tx.Flow() == model.FlowDeposit {
			res.Summary.Deposits++
		} else {
			res.Summary.Withdrawals++
		}
		if line.NeedsReview {
			res.Summary.NeedsReview++
		}
	}
	res.Summary.Total = len(res.Lines)
	res.Summary.Skipped = len(skipped)

	common.LogInfo("Imported bank statement", common.Fields{
		"format":       opts.Format,
		"lines":        res.Summary.Total,
		"needs_review": res.Summary.NeedsReview,
		"skipped":      res.Summary.Skipped,
	})
	return res, nil
}

// Suggest matches a single transaction against the bank rules.
func (im *Importer) Suggest(tx Transaction, bankID string) (Line, error) {
	account, err := im.account(bankID)
	if err != nil {
		return Line{}, err
	}
	if tx.Date.IsZero() {
		tx.Date = im.now()
	}
	return im.suggest(tx, account), nil
}

func (im *Importer) suggest(tx Transaction, account string) Line {
	m := im.matcher.Match(tx.Description, tx.Flow())
	fill := strings.NewReplacer(
		rules.VendorPlaceholder, m.Counterparty,
		rules.BankPlaceholder, account,
	)

	mapping := m.Rule.Mapping
	mapping.DebitSubAccount = fill.Replace(mapping.DebitSubAccount)
	mapping.CreditSubAccount = fill.Replace(mapping.CreditSubAccount)

	return Line{
		Transaction: tx,
		Entry:       model.NewEntry(tx.Date, mapping, tx.Amount(), tx.Description),
		Rule:        m.Rule.Name,
		RuleLabel:   m.Rule.Label,
		Vendor:      m.Counterparty,
		Confidence:  m.Confidence,
		NeedsReview: m.NeedsReview(),
	}
}

// account resolves the sub-account label of the reconciled bank account.
func (im *Importer) account(bankID string) (string, error) {
	b, ok := im.index.Bank(bankID)
	if !ok && bankID != "" {
		return "", fmt.Errorf("%w: %q", engine.ErrUnknownBank, bankID)
	}
	return b.Label(), nil
}
