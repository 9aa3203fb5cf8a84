// Package model defines the core data structures for the shiwake application.
package model

// TaxNotApplicable is the tax category label used when none is given.
const TaxNotApplicable = "対象外"

// AccountUnclassified is the account used by the system default rule.
const AccountUnclassified = "未分類"

// AccountMapping holds the six account and tax fields of a journal line pair.
type AccountMapping struct {
	DebitAccount      string `yaml:"debit_account" json:"debit_account"`
	DebitSubAccount   string `yaml:"debit_sub_account,omitempty" json:"debit_sub_account"`
	DebitTaxCategory  string `yaml:"debit_tax_category,omitempty" json:"debit_tax_category"`
	CreditAccount     string `yaml:"credit_account" json:"credit_account"`
	CreditSubAccount  string `yaml:"credit_sub_account,omitempty" json:"credit_sub_account"`
	CreditTaxCategory string `yaml:"credit_tax_category,omitempty" json:"credit_tax_category"`
}

// WithDefaults returns a copy with empty tax categories set to TaxNotApplicable.
func (m AccountMapping) WithDefaults() AccountMapping {
	if m.DebitTaxCategory == "" {
		m.DebitTaxCategory = TaxNotApplicable
	}
	if m.CreditTaxCategory == "" {
		m.CreditTaxCategory = TaxNotApplicable
	}
	return m
}

// JournalRule maps a vendor or keyword predicate to an account mapping.
// Exactly one of VendorKey or Keywords is the predicate; a rule with
// neither only serves as a fallback.
type JournalRule struct {
	Direction           *Direction     `yaml:"direction,omitempty" json:"direction,omitempty"`
	AmountMin           *int64         `yaml:"amount_min,omitempty" json:"amount_min,omitempty"`
	AmountMax           *int64         `yaml:"amount_max,omitempty" json:"amount_max,omitempty"`
	Name                string         `yaml:"name" json:"name"`
	VendorKey           string         `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	DescriptionTemplate string         `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords            []string       `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Mapping             AccountMapping `yaml:"mapping" json:"mapping"`
}

// IsFallback reports whether the rule has no matching predicate.
func (r JournalRule) IsFallback() bool {
	return r.VendorKey == "" && len(r.Keywords) == 0
}

// SystemDefaultRule is returned when nothing else matches.
func SystemDefaultRule() JournalRule {
	return JournalRule{
		Name: "default",
		Mapping: AccountMapping{
			DebitAccount:      AccountUnclassified,
			DebitTaxCategory:  TaxNotApplicable,
			CreditAccount:     AccountUnclassified,
			CreditTaxCategory: TaxNotApplicable,
		},
	}
}
