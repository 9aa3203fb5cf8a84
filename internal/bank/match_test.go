package bank

import (
	"testing"

	"github.com/Veraticus/shiwake/internal/config"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/rules"
	"github.com/stretchr/testify/assert"
)

func testIndex() *rules.Index {
	md := rules.DefaultMasterData()
	md.Vendors = []model.Vendor{
		{Key: "arima", Name: "株式会社有馬", Role: model.RoleClient, SubAccount: "有馬", Aliases: []string{"ｱﾘﾏ"}},
		{Key: "kurumi", Name: "株式会社クルミ", Role: model.RoleSupplier, Aliases: []string{"ｸﾙﾐ"}},
	}
	md.GroupCompanies = []config.GroupCompany{
		{Name: "株式会社ＳＯＫＵＴＡ", Aliases: []string{"ｿｸﾀ"}},
	}
	md.Banks = []model.Bank{
		{ID: "aichi", Name: "愛知銀行", SubAccount: "愛知春日井"},
		{ID: "mufg", Name: "三菱UFJ銀行"},
	}
	md.DefaultBank = "aichi"
	return rules.NewIndex(md)
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(testIndex())

	tests := []struct {
		name             string
		description      string
		flow             model.Flow
		wantRule         string
		wantCounterparty string
		wantReview       bool
	}{
		{
			name:        "half-width fee keyword",
			description: "ﾌﾘｺﾐ ﾃｽｳﾘﾖｳ",
			flow:        model.FlowWithdrawal,
			wantRule:    "bank_fee",
		},
		{
			name:        "lower priority value wins between overlapping keywords",
			description: "住民税 特別徴収",
			flow:        model.FlowWithdrawal,
			wantRule:    "corporate_tax_payment",
		},
		{
			name:             "client deposit is a receivable collection",
			description:      "振込 ｶ)ｱﾘﾏ",
			flow:             model.FlowDeposit,
			wantRule:         rules.BankRuleReceivable,
			wantCounterparty: "有馬",
		},
		{
			name:             "group company deposit is a receivable collection",
			description:      "振込 ｿｸﾀ",
			flow:             model.FlowDeposit,
			wantRule:         rules.BankRuleReceivable,
			wantCounterparty: "株式会社ＳＯＫＵＴＡ",
		},
		{
			name:        "supplier deposit carries no counterparty",
			description: "振込 ｸﾙﾐ",
			flow:        model.FlowDeposit,
			wantRule:    rules.BankRuleUnknownDeposit,
			wantReview:  true,
		},
		{
			name:        "keywords only apply to their own flow",
			description: "振込手数料",
			flow:        model.FlowDeposit,
			wantRule:    rules.BankRuleUnknownDeposit,
			wantReview:  true,
		},
		{
			name:        "unknown withdrawal",
			description: "ATM",
			flow:        model.FlowWithdrawal,
			wantRule:    rules.BankRuleUnknownWithdrawal,
			wantReview:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.description, tt.flow)
			assert.Equal(t, tt.wantRule, got.Rule.Name)
			assert.Equal(t, tt.wantCounterparty, got.Counterparty)
			assert.Equal(t, tt.wantReview, got.NeedsReview())
		})
	}
}

func TestMatcher_Confidence(t *testing.T) {
	m := NewMatcher(testIndex())

	fee := m.Match("振込手数料", model.FlowWithdrawal)
	tax := m.Match("消費税", model.FlowWithdrawal)
	assert.InDelta(t, 0.8, fee.Confidence, 1e-9)
	assert.Greater(t, fee.Confidence, tax.Confidence)
	assert.InDelta(t, 0.85, m.Match("振込 ｿｸﾀ", model.FlowDeposit).Confidence, 1e-9)
}

func TestMatcher_SynthesizedFallback(t *testing.T) {
	md := rules.DefaultMasterData()
	md.BankRules = []model.BankRule{
		{Name: "bank_fee", Flow: model.FlowWithdrawal, Priority: 1, Keywords: []string{"手数料"}, Mapping: model.AccountMapping{DebitAccount: "支払手数料", CreditAccount: "普通預金"}},
	}
	m := NewMatcher(rules.NewIndex(md))

	got := m.Match("ATM", model.FlowWithdrawal)
	assert.Equal(t, rules.BankRuleUnknownWithdrawal, got.Rule.Name)
	assert.Equal(t, "仮払金", got.Rule.Mapping.DebitAccount)
	assert.Equal(t, rules.BankPlaceholder, got.Rule.Mapping.CreditSubAccount)

	got = m.Match("振込 ｱﾘﾏ", model.FlowDeposit)
	assert.Equal(t, rules.BankRuleUnknownDeposit, got.Rule.Name)
	assert.Equal(t, "仮受金", got.Rule.Mapping.CreditAccount)
}
