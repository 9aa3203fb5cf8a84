package bank

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImporter() *Importer {
	im := NewImporter(testIndex())
	im.SetClock(func() time.Time { return testNow })
	return im
}

func TestImporter_Import(t *testing.T) {
	input := `日付,摘要,お預り金額,お引出金額,残高
2024/04/01,振込 ｶ)ｱﾘﾏ,"330,000",,"1,330,000"
2024/04/02,ﾃｽｳﾘﾖｳ,,440,"1,329,560"
2024/04/03,ATM,,"10,000","1,319,560"
bad,振込,100,,
`
	res, err := testImporter().Import(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 3, Deposits: 1, Withdrawals: 2, NeedsReview: 1, Skipped: 1}, res.Summary)
	require.Len(t, res.Lines, 3)

	receipt := res.Lines[0]
	assert.Equal(t, "有馬", receipt.Vendor)
	assert.Equal(t, "普通預金", receipt.Entry.DebitAccount)
	assert.Equal(t, "愛知春日井", receipt.Entry.DebitSubAccount)
	assert.Equal(t, "売掛金", receipt.Entry.CreditAccount)
	assert.Equal(t, "有馬", receipt.Entry.CreditSubAccount)
	assert.Equal(t, int64(330000), receipt.Entry.DebitAmount)
	assert.Equal(t, "振込 ｶ)ｱﾘﾏ", receipt.Entry.Description)
	assert.False(t, receipt.NeedsReview)

	fee := res.Lines[1]
	assert.Equal(t, "bank_fee", fee.Rule)
	assert.Equal(t, "支払手数料", fee.Entry.DebitAccount)
	assert.Equal(t, "愛知春日井", fee.Entry.CreditSubAccount)
	assert.True(t, fee.Entry.IsBalanced())

	assert.True(t, res.Lines[2].NeedsReview)
	assert.Equal(t, 5, res.Skipped[0].Line)
}

func TestImporter_NamedBank(t *testing.T) {
	input := "日付,摘要,お預り,お支払,残高,メモ\n2024/04/10,振込手数料,,330,\"1,000\",\n"

	res, err := testImporter().Import(strings.NewReader(input), Options{Format: FormatSMBC, BankID: "mufg"})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "三菱UFJ銀行", res.Lines[0].Entry.CreditSubAccount)
}

func TestImporter_UnknownBank(t *testing.T) {
	_, err := testImporter().Import(strings.NewReader(""), Options{BankID: "mizuho"})
	assert.ErrorIs(t, err, engine.ErrUnknownBank)

	_, err = testImporter().Suggest(Transaction{Description: "入金", Deposit: 1}, "mizuho")
	assert.ErrorIs(t, err, engine.ErrUnknownBank)
}

func TestImporter_Suggest(t *testing.T) {
	line, err := testImporter().Suggest(Transaction{Description: "売掛金 ｿｸﾀ", Deposit: 5000}, "")
	require.NoError(t, err)

	assert.Equal(t, "receivable_collection", line.Rule)
	assert.Equal(t, "株式会社ＳＯＫＵＴＡ", line.Entry.CreditSubAccount)
	assert.Equal(t, "2024-06-01", line.Entry.Date.Format(model.DateLayout))
	assert.Equal(t, int64(5000), line.Entry.CreditAmount)
}
