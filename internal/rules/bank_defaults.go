package rules

import "github.com/Veraticus/shiwake/internal/model"

// Names of the bank rules used when nothing else matches a statement line.
const (
	BankRuleReceivable        = "receivable_collection"
	BankRuleUnknownDeposit    = "temporary_received_deposit"
	BankRuleUnknownWithdrawal = "miscellaneous"
)

// DefaultBankRules returns the built-in statement rules used when master
// data declares none. Keywords are compared after NFKC normalization, so
// half-width katakana in statements matches the full-width forms here.
func DefaultBankRules() []model.BankRule {
	in := func(credit, creditSub string) model.AccountMapping {
		return model.AccountMapping{
			DebitAccount:      "普通預金",
			DebitSubAccount:   BankPlaceholder,
			DebitTaxCategory:  model.TaxNotApplicable,
			CreditAccount:     credit,
			CreditSubAccount:  creditSub,
			CreditTaxCategory: model.TaxNotApplicable,
		}
	}
	out := func(debit, debitSub, tax string) model.AccountMapping {
		return model.AccountMapping{
			DebitAccount:      debit,
			DebitSubAccount:   debitSub,
			DebitTaxCategory:  tax,
			CreditAccount:     "普通預金",
			CreditSubAccount:  BankPlaceholder,
			CreditTaxCategory: model.TaxNotApplicable,
		}
	}
	na := model.TaxNotApplicable
	dep, wd := model.FlowDeposit, model.FlowWithdrawal

	return []model.BankRule{
		{Name: BankRuleReceivable, Label: "売掛金回収", Flow: dep, Priority: 1, Keywords: []string{"売掛金", "売掛", "入金"}, Mapping: in("売掛金", VendorPlaceholder)},
		{Name: BankRuleUnknownDeposit, Label: "仮受金", Flow: dep, Priority: 2, Keywords: []string{"不明入金", "仮受"}, Mapping: in("仮受金", "")},
		{Name: "short_term_loan_receipt", Label: "貸付金回収", Flow: dep, Priority: 3, Keywords: []string{"貸付金回収", "短期貸付"}, Mapping: in("短期貸付金", "")},
		{Name: "short_term_borrowing", Label: "借入", Flow: dep, Priority: 4, Keywords: []string{"借入", "融資"}, Mapping: in("短期借入金", "")},
		{Name: "miscellaneous_income", Label: "雑収入", Flow: dep, Priority: 5, Keywords: []string{"雑収入", "還付", "返金"}, Mapping: in("雑収入", "")},
		{Name: "tax_refund", Label: "税金還付", Flow: dep, Priority: 6, Keywords: []string{"法人税還付", "国税還付", "還付金"}, Mapping: in("未収還付法人税等", "")},

		{Name: "bank_fee", Label: "振込手数料", Flow: wd, Priority: 10, Keywords: []string{"振込手数料", "手数料", "テスウリヨウ"}, Mapping: out("支払手数料", "", TaxPurchase10)},
		{Name: "corporate_tax_payment", Label: "法人税等納付", Flow: wd, Priority: 11, Keywords: []string{"法人税", "住民税", "事業税", "国税", "地方税", "法人都道府県民税", "法人市民税"}, Mapping: out("未払法人税等", "", na)},
		{Name: "consumption_tax_payment", Label: "消費税納付", Flow: wd, Priority: 12, Keywords: []string{"消費税", "消費税等"}, Mapping: out("未払消費税等", "", na)},
		{Name: "salary_payment", Label: "給与支払", Flow: wd, Priority: 13, Keywords: []string{"給与", "給料", "賃金", "キュウヨ"}, Mapping: out("給料手当", "", na)},
		{Name: "resident_tax_payment", Label: "住民税特別徴収", Flow: wd, Priority: 14, Keywords: []string{"住民税", "特別徴収"}, Mapping: out("預り金", "", na)},
		{Name: "social_insurance_payment", Label: "社会保険料", Flow: wd, Priority: 15, Keywords: []string{"社会保険", "健康保険", "厚生年金", "年金", "社保", "労働保険", "雇用保険"}, Mapping: out("法定福利費", "", na)},
		{Name: "outsourcing_payment", Label: "外注費支払", Flow: wd, Priority: 16, Keywords: []string{"外注"}, Mapping: out("買掛金", VendorPlaceholder, na)},
		{Name: "lease_payment", Label: "リース料支払", Flow: wd, Priority: 17, Keywords: []string{"リース", "PCリース", "コピー機"}, Mapping: out("買掛金", VendorPlaceholder, na)},
		{Name: "land_rent_payment", Label: "家賃支払", Flow: wd, Priority: 18, Keywords: []string{"家賃", "賃料", "地代", "共益費", "管理費"}, Mapping: out("買掛金", VendorPlaceholder, na)},
		{Name: "utilities_payment", Label: "水道光熱費支払", Flow: wd, Priority: 19, Keywords: []string{"電気", "水道", "ガス", "光熱", "中部電力", "東邦ガス"}, Mapping: out("買掛金", VendorPlaceholder, na)},
		{Name: "communication_expense", Label: "通信費", Flow: wd, Priority: 20, Keywords: []string{"電話", "通信", "NTT", "ドコモ", "ソフトバンク", "KDDI"}, Mapping: out("通信費", "", TaxPurchase10)},
		{Name: "insurance", Label: "保険料", Flow: wd, Priority: 21, Keywords: []string{"保険", "損保", "生保", "東京海上", "三井住友海上"}, Mapping: out("保険料", "", TaxExempt)},
		{Name: "long_term_loan", Label: "借入金返済", Flow: wd, Priority: 22, Keywords: []string{"借入返済", "長期借入", "ローン", "元金", "返済"}, Mapping: out("長期借入金", "", na)},
		{Name: "interest_expense", Label: "支払利息", Flow: wd, Priority: 23, Keywords: []string{"利息", "金利"}, Mapping: out("支払利息", "", TaxExempt)},
		{Name: "purchase_payment", Label: "買掛金支払", Flow: wd, Priority: 24, Keywords: []string{"仕入", "買掛", "支払"}, Mapping: out("買掛金", VendorPlaceholder, na)},
		{Name: "travel_expense_bank", Label: "旅費交通費", Flow: wd, Priority: 25, Keywords: []string{"出張", "旅費", "交通費"}, Mapping: out("旅費交通費", "", TaxPurchase10)},
		{Name: "welfare_expense", Label: "福利厚生費", Flow: wd, Priority: 26, Keywords: []string{"慶祝金", "弔慰金", "祝金", "見舞金", "福利"}, Mapping: out("福利厚生費", "", na)},
		{Name: "consumables_payment", Label: "消耗品費", Flow: wd, Priority: 27, Keywords: []string{"消耗品", "備品", "文具", "アスクル", "ASKUL"}, Mapping: out("消耗品費", "", TaxPurchase10)},
		{Name: "advertising", Label: "広告宣伝費", Flow: wd, Priority: 28, Keywords: []string{"広告", "宣伝", "印刷", "パンフレット"}, Mapping: out("広告宣伝費", "", TaxPurchase10)},
		{Name: "fixed_asset_purchase", Label: "固定資産購入", Flow: wd, Priority: 29, Keywords: []string{"固定資産", "工具", "器具", "備品購入", "設備"}, Mapping: out("工具器具備品", "", TaxPurchase10)},
		{Name: "vehicle_expense", Label: "車両費", Flow: wd, Priority: 30, Keywords: []string{"車両", "自動車", "ガソリン", "燃料", "駐車"}, Mapping: out("車両費", "", TaxPurchase10)},
		{Name: "short_term_loan_payment", Label: "短期貸付", Flow: wd, Priority: 31, Keywords: []string{"貸付", "短期貸付実行"}, Mapping: out("短期貸付金", "", na)},
		{Name: "prepaid_expense_payment", Label: "前払費用", Flow: wd, Priority: 32, Keywords: []string{"前払", "前納"}, Mapping: out("前払費用", "", na)},
		{Name: "bank_transfer", Label: "口座振替", Flow: wd, Priority: 33, Keywords: []string{"振替", "口座振替", "自振", "フリコミ"}, Mapping: out("仮払金", "", na)},
		{Name: BankRuleUnknownWithdrawal, Label: "雑費", Flow: wd, Priority: 99, Mapping: out("雑費", "", TaxPurchase10)},
	}
}
