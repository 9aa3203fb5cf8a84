package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaster = `
group_companies:
  - name: 株式会社ＳＯＫＵＴＡ
    aliases: [SOKUTA, ソクタ]
vendors:
  - key: ntt
    name: NTT東日本
    role: supplier
    aliases: [NTT]
    default_mapping:
      debit_account: 通信費
      debit_tax_category: 課対仕入10%
      credit_account: 未払金
  - key: arima
    name: 株式会社有馬
    role: client
    sub_account: 有馬
defaults:
  purchase:
    name: purchase
    mapping:
      debit_account: 仕入高
      debit_tax_category: 課対仕入10%
      credit_account: 買掛金
rules:
  - name: land_rent
    keywords: [家賃, 地代]
    mapping:
      debit_account: 地代家賃
      credit_account: 買掛金
  - name: arima_sales
    vendor: arima
    direction: sales
    mapping:
      debit_account: 売掛金
      credit_account: 売上高
      credit_tax_category: 簡売五10%
entry_rules:
  - name: payment_received
    mapping:
      debit_account: 普通預金
      debit_sub_account: "{bank}"
      credit_account: 売掛金
      credit_sub_account: "{vendor}"
banks:
  - id: aichi
    name: 愛知銀行
    sub_account: 愛知銀行春日井
  - id: mufg
    name: 三菱UFJ銀行
default_bank: aichi
bank_rules:
  - name: bank_fee
    flow: withdrawal
    priority: 10
    keywords: [振込手数料, 手数料]
    mapping:
      debit_account: 支払手数料
      debit_tax_category: 課対仕入10%
      credit_account: 普通預金
`

func TestParseMasterData(t *testing.T) {
	md, err := ParseMasterData([]byte(sampleMaster))
	require.NoError(t, err)

	require.Len(t, md.GroupCompanies, 1)
	assert.Equal(t, []string{"SOKUTA", "ソクタ"}, md.GroupCompanies[0].Aliases)

	require.Len(t, md.Vendors, 2)
	assert.Equal(t, model.RoleSupplier, md.Vendors[0].Role)
	require.NotNil(t, md.Vendors[0].DefaultMapping)
	assert.Equal(t, "通信費", md.Vendors[0].DefaultMapping.DebitAccount)
	assert.Equal(t, "有馬", md.Vendors[1].Label())

	require.Len(t, md.Rules, 2)
	assert.Equal(t, []string{"家賃", "地代"}, md.Rules[0].Keywords)
	require.NotNil(t, md.Rules[1].Direction)
	assert.Equal(t, model.DirectionSales, *md.Rules[1].Direction)

	require.NotNil(t, md.Defaults.Purchase)
	assert.Nil(t, md.Defaults.Sales)

	require.Len(t, md.EntryRules, 1)
	assert.Equal(t, "{bank}", md.EntryRules[0].Mapping.DebitSubAccount)

	require.Len(t, md.Banks, 2)
	assert.Equal(t, "aichi", md.DefaultBank)
	assert.Equal(t, "愛知銀行春日井", md.Banks[0].Label())
	assert.Equal(t, "三菱UFJ銀行", md.Banks[1].Label())

	require.Len(t, md.BankRules, 1)
	assert.Equal(t, model.FlowWithdrawal, md.BankRules[0].Flow)
	assert.Equal(t, 10, md.BankRules[0].Priority)
}

func TestParseMasterData_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "vendors: [:"},
		{"missing key", "vendors:\n  - name: A\n    role: supplier\n"},
		{"bad role", "vendors:\n  - key: a\n    name: A\n    role: partner\n"},
		{"duplicate key", "vendors:\n  - {key: a, name: A, role: client}\n  - {key: a, name: B, role: client}\n"},
		{"rule without predicate", "rules:\n  - name: x\n    mapping: {debit_account: a, credit_account: b}\n"},
		{"rule unknown vendor", "rules:\n  - name: x\n    vendor: nope\n    mapping: {debit_account: a, credit_account: b}\n"},
		{"rule missing credit", "rules:\n  - name: x\n    keywords: [k]\n    mapping: {debit_account: a}\n"},
		{"entry rule without name", "entry_rules:\n  - mapping: {debit_account: a, credit_account: b}\n"},
		{"duplicate entry rule", "entry_rules:\n  - {name: x, mapping: {debit_account: a, credit_account: b}}\n  - {name: x, mapping: {debit_account: a, credit_account: b}}\n"},
		{"bank without id", "banks:\n  - name: A\n"},
		{"duplicate bank", "banks:\n  - {id: a}\n  - {id: a}\n"},
		{"unknown default bank", "banks:\n  - {id: a}\ndefault_bank: b\n"},
		{"bank rule bad flow", "bank_rules:\n  - {name: x, flow: sideways, mapping: {debit_account: a, credit_account: b}}\n"},
		{"bank rule missing debit", "bank_rules:\n  - {name: x, flow: deposit, mapping: {credit_account: b}}\n"},
		{"inverted amounts", "rules:\n  - name: x\n    keywords: [k]\n    amount_min: 10\n    amount_max: 5\n    mapping: {debit_account: a, credit_account: b}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMasterData([]byte(tt.yaml))
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadMasterData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMaster), 0o600))

	md, err := LoadMasterData(path)
	require.NoError(t, err)
	assert.Len(t, md.Vendors, 2)

	_, err = LoadMasterData(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
