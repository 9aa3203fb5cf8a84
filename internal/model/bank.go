package model

// Bank is a bank account the business deposits to and pays from.
type Bank struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	SubAccount string `yaml:"sub_account,omitempty" json:"sub_account,omitempty"`
}

// Label returns the sub-account label used in entries for this account.
func (b Bank) Label() string {
	if b.SubAccount != "" {
		return b.SubAccount
	}
	return b.Name
}

// Flow tells whether a bank statement line is money in or money out.
type Flow string

const (
	FlowDeposit    Flow = "deposit"
	FlowWithdrawal Flow = "withdrawal"
)

// IsValid reports whether f is a known flow.
func (f Flow) IsValid() bool {
	return f == FlowDeposit || f == FlowWithdrawal
}

// BankRule maps keywords in a statement description to an account mapping.
// Lower priority values win when several rules match.
type BankRule struct {
	Name     string         `yaml:"name" json:"name"`
	Label    string         `yaml:"label,omitempty" json:"label,omitempty"`
	Flow     Flow           `yaml:"flow" json:"flow"`
	Keywords []string       `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Mapping  AccountMapping `yaml:"mapping" json:"mapping"`
	Priority int            `yaml:"priority" json:"priority"`
}
