package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for entries.
const DateLayout = "2006-01-02"

// JournalEntry is a single debit/credit line pair.
// DebitAmount and CreditAmount are whole yen and always equal.
type JournalEntry struct {
	Date              time.Time `json:"date"`
	DebitAccount      string    `json:"debit_account"`
	DebitSubAccount   string    `json:"debit_sub_account"`
	DebitTaxCategory  string    `json:"debit_tax_category"`
	CreditAccount     string    `json:"credit_account"`
	CreditSubAccount  string    `json:"credit_sub_account"`
	CreditTaxCategory string    `json:"credit_tax_category"`
	Description       string    `json:"description"`
	// HistoryID links a suggestion shown in the UI to its ledger row.
	HistoryID    string `json:"history_id,omitempty"`
	DebitAmount  int64  `json:"debit_amount"`
	CreditAmount int64  `json:"credit_amount"`
	// Selected is a UI flag and carries no accounting meaning.
	Selected bool `json:"selected,omitempty"`
}

// NewEntry builds a balanced entry from a mapping.
func NewEntry(date time.Time, mapping AccountMapping, amount int64, description string) JournalEntry {
	mapping = mapping.WithDefaults()
	return JournalEntry{
		Date:              DateOnly(date),
		DebitAccount:      mapping.DebitAccount,
		DebitSubAccount:   mapping.DebitSubAccount,
		DebitTaxCategory:  mapping.DebitTaxCategory,
		DebitAmount:       amount,
		CreditAccount:     mapping.CreditAccount,
		CreditSubAccount:  mapping.CreditSubAccount,
		CreditTaxCategory: mapping.CreditTaxCategory,
		CreditAmount:      amount,
		Description:       description,
	}
}

// Mapping extracts the account fields of the entry.
func (e JournalEntry) Mapping() AccountMapping {
	return AccountMapping{
		DebitAccount:      e.DebitAccount,
		DebitSubAccount:   e.DebitSubAccount,
		DebitTaxCategory:  e.DebitTaxCategory,
		CreditAccount:     e.CreditAccount,
		CreditSubAccount:  e.CreditSubAccount,
		CreditTaxCategory: e.CreditTaxCategory,
	}
}

// IsBalanced reports whether debit and credit amounts agree.
func (e JournalEntry) IsBalanced() bool {
	return e.DebitAmount == e.CreditAmount
}

// Snapshot returns the entry without its transient UI fields.
func (e JournalEntry) Snapshot() JournalEntry {
	e.Selected = false
	e.HistoryID = ""
	return e
}

// MarshalJSON renders Date as YYYY-MM-DD, or an empty string when unset.
func (e JournalEntry) MarshalJSON() ([]byte, error) {
	type Alias JournalEntry
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format(DateLayout)
	}
	return json.Marshal(&struct {
		Alias
		Date string `json:"date"`
	}{
		Alias: Alias(e),
		Date:  date,
	})
}

// UnmarshalJSON accepts Date as YYYY-MM-DD; empty leaves it zero.
func (e *JournalEntry) UnmarshalJSON(data []byte) error {
	type Alias JournalEntry
	aux := &struct {
		*Alias
		Date string `json:"date"`
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	e.Date = time.Time{}
	if aux.Date == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid entry date %q: %w", aux.Date, err)
	}
	e.Date = d
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
