package rules

import (
	"github.com/Veraticus/shiwake/internal/config"
	"github.com/Veraticus/shiwake/internal/model"
)

// Tax category labels used by the built-in rules.
const (
	TaxPurchase10    = "課対仕入10%"
	TaxSimpleSales10 = "簡売五10%"
	TaxExempt        = "非課税"
)

// Sub-account placeholders filled when an entry is built.
const (
	// VendorPlaceholder is replaced with the matched vendor label.
	VendorPlaceholder = "{vendor}"
	// BankPlaceholder is replaced with the selected bank account label.
	BankPlaceholder = "{bank}"
)

// Names of the rules the typed entry creators look up.
const (
	RuleSales           = "sales_receivable"
	RulePurchase        = "purchase"
	RulePaymentReceived = "payment_received"
	RulePurchasePayment = "purchase_payment"
)

// DefaultMasterData returns the built-in rule set used when no master data
// file is configured.
func DefaultMasterData() *config.MasterData {
	sales := model.DirectionSales
	purchase := model.DirectionPurchase

	payable := func(debit, tax string) model.AccountMapping {
		return model.AccountMapping{
			DebitAccount:      debit,
			DebitTaxCategory:  tax,
			CreditAccount:     "買掛金",
			CreditSubAccount:  VendorPlaceholder,
			CreditTaxCategory: model.TaxNotApplicable,
		}
	}
	bank := func(debit, tax string) model.AccountMapping {
		return model.AccountMapping{
			DebitAccount:      debit,
			DebitTaxCategory:  tax,
			CreditAccount:     "普通預金",
			CreditTaxCategory: model.TaxNotApplicable,
		}
	}
	receivable := model.AccountMapping{
		DebitAccount:      "売掛金",
		DebitSubAccount:   VendorPlaceholder,
		DebitTaxCategory:  model.TaxNotApplicable,
		CreditAccount:     "売上高",
		CreditSubAccount:  VendorPlaceholder,
		CreditTaxCategory: TaxSimpleSales10,
	}

	return &config.MasterData{
		Defaults: config.DefaultRules{
			Sales: &model.JournalRule{
				Name:    RuleSales,
				Mapping: receivable,
			},
			Purchase: &model.JournalRule{
				Name:    RulePurchase,
				Mapping: payable("仕入高", TaxPurchase10),
			},
		},
		Rules: []model.JournalRule{
			{Name: "sales_receivable", Direction: &sales, Keywords: []string{"経営指導料", "指導料", "コンサルティング", "業務委託料"}, Mapping: receivable},
			{Name: "land_rent", Direction: &purchase, Keywords: []string{"賃料", "家賃", "地代", "共益費", "管理費"}, Mapping: payable("地代家賃", TaxPurchase10)},
			{Name: "rent", Direction: &purchase, Keywords: []string{"リース", "PCリース", "レンタル", "コピー機"}, Mapping: payable("賃借料", TaxPurchase10)},
			{Name: "outsourcing_expense", Direction: &purchase, Keywords: []string{"業務支援", "業務委託", "外注", "人件費", "派遣"}, Mapping: payable("外注費", TaxPurchase10)},
			{Name: "travel_expense", Direction: &purchase, Keywords: []string{"出張", "精算", "旅費", "交通費", "新幹線", "宿泊"}, Mapping: bank("旅費交通費", TaxPurchase10)},
			{Name: "welfare_expense", Direction: &purchase, Keywords: []string{"慶祝金", "弔慰金", "見舞金", "祝金", "福利"}, Mapping: bank("福利厚生費", model.TaxNotApplicable)},
			{Name: "miscellaneous", Direction: &purchase, Keywords: []string{"廃棄物", "清掃", "処理費"}, Mapping: payable("雑費", TaxPurchase10)},
			{Name: "utilities", Direction: &purchase, Keywords: []string{"電気", "水道", "光熱", "ガス"}, Mapping: payable("水道光熱費", TaxPurchase10)},
			{Name: "advertising", Direction: &purchase, Keywords: []string{"パンフレット", "印刷", "広告", "看板", "チラシ", "ポスター"}, Mapping: payable("広告宣伝費", TaxPurchase10)},
			{Name: "consumables", Direction: &purchase, Keywords: []string{"備品", "消耗品", "文具", "事務用品"}, Mapping: payable("消耗品費", TaxPurchase10)},
			{Name: "communication_expense", Direction: &purchase, Keywords: []string{"電話", "通信", "NTT", "ドコモ"}, Mapping: payable("通信費", TaxPurchase10)},
			{Name: "insurance", Direction: &purchase, Keywords: []string{"保険", "損保", "生保"}, Mapping: payable("保険料", TaxExempt)},
			{Name: "vehicle_expense", Direction: &purchase, Keywords: []string{"車両", "自動車", "ガソリン", "燃料", "駐車"}, Mapping: payable("車両費", TaxPurchase10)},
		},
	}
}

// DefaultEntryRules returns the payment rules used by the typed entry
// creators when master data does not declare them.
func DefaultEntryRules() []model.JournalRule {
	return []model.JournalRule{
		{
			Name: RulePaymentReceived,
			Mapping: model.AccountMapping{
				DebitAccount:      "普通預金",
				DebitSubAccount:   BankPlaceholder,
				DebitTaxCategory:  model.TaxNotApplicable,
				CreditAccount:     "売掛金",
				CreditSubAccount:  VendorPlaceholder,
				CreditTaxCategory: model.TaxNotApplicable,
			},
		},
		{
			Name: RulePurchasePayment,
			Mapping: model.AccountMapping{
				DebitAccount:      "買掛金",
				DebitSubAccount:   VendorPlaceholder,
				DebitTaxCategory:  model.TaxNotApplicable,
				CreditAccount:     "普通預金",
				CreditSubAccount:  BankPlaceholder,
				CreditTaxCategory: model.TaxNotApplicable,
			},
		},
	}
}
