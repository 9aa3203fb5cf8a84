package engine

import (
	"strconv"
	"strings"

	"github.com/Veraticus/shiwake/internal/model"
)

// Template placeholders understood in rule descriptions and sub-accounts.
const (
	PlaceholderIssuer        = "{issuer}"
	PlaceholderVendor        = "{vendor}"
	PlaceholderInvoiceNumber = "{invoice_number}"
	PlaceholderMonth         = "{month}"
	PlaceholderBank          = "{bank}"
)

// DefaultDescription is used when neither OCR nor the rule supplies one.
const DefaultDescription = PlaceholderVendor + "　" + PlaceholderMonth + "月分"

type templateVars struct {
	issuer        string
	vendor        string
	invoiceNumber string
	bank          string
	month         int
}

func (v templateVars) fill(tmpl string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	month := ""
	if v.month > 0 {
		month = strconv.Itoa(v.month)
	}
	return strings.NewReplacer(
		PlaceholderIssuer, v.issuer,
		PlaceholderVendor, v.vendor,
		PlaceholderInvoiceNumber, v.invoiceNumber,
		PlaceholderMonth, month,
		PlaceholderBank, v.bank,
	).Replace(tmpl)
}

func (v templateVars) fillMapping(m model.AccountMapping) model.AccountMapping {
	m.DebitSubAccount = v.fill(m.DebitSubAccount)
	m.CreditSubAccount = v.fill(m.CreditSubAccount)
	return m
}
