package ocr

import (
	"testing"

	"github.com/Veraticus/shiwake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	tests := []struct {
		check func(t *testing.T, f model.OCRFields)
		name  string
		reply string
	}{
		{
			name:  "plain object",
			reply: `{"issuer": "ACME Co", "total_amount": 15000, "date": "2024-04-01", "invoice_no": "INV-1"}`,
			check: func(t *testing.T, f model.OCRFields) {
				t.Helper()
				assert.Equal(t, "ACME Co", model.Text(f.Issuer))
				assert.Equal(t, "15000", model.Text(f.Amount))
				assert.Equal(t, "2024-04-01", model.Text(f.Date))
				assert.Equal(t, "INV-1", model.Text(f.InvoiceNumber))
				assert.Nil(t, f.Recipient)
			},
		},
		{
			name:  "markdown fence and prose",
			reply: "以下が結果です。\n```json\n{\"issuer\": \"株式会社有馬\", \"amount\": \"33,000\"}\n```\nご確認ください。",
			check: func(t *testing.T, f model.OCRFields) {
				t.Helper()
				assert.Equal(t, "株式会社有馬", model.Text(f.Issuer))
				assert.Equal(t, "33,000", model.Text(f.Amount))
			},
		},
		{
			name:  "braces inside strings",
			reply: `{"issuer": "A {B} \"C\"", "description": "}{"} trailing {"issuer": "second"}`,
			check: func(t *testing.T, f model.OCRFields) {
				t.Helper()
				assert.Equal(t, `A {B} "C"`, model.Text(f.Issuer))
				assert.Equal(t, "}{", model.Text(f.Description))
			},
		},
		{
			name:  "empty strings are absent",
			reply: `{"issuer": "  ", "date": "", "total_amount": null, "amount": 500}`,
			check: func(t *testing.T, f model.OCRFields) {
				t.Helper()
				assert.Nil(t, f.Issuer)
				assert.Nil(t, f.Date)
				assert.Equal(t, "500", model.Text(f.Amount))
			},
		},
		{
			name: "line items and confidence",
			reply: `{"issuer": "X", "confidence": 0.92, "items": [
				{"name": "通信費", "quantity": 1, "unit_price": 1000, "amount": 1000},
				{"quantity": 2},
				"junk"
			]}`,
			check: func(t *testing.T, f model.OCRFields) {
				t.Helper()
				require.NotNil(t, f.Confidence)
				assert.InDelta(t, 0.92, *f.Confidence, 1e-9)
				require.Len(t, f.LineItems, 1)
				assert.Equal(t, "通信費", f.LineItems[0].Name)
				assert.Equal(t, "1000", model.Text(f.LineItems[0].UnitPrice))
			},
		},
		{
			name:  "large amounts keep their digits",
			reply: `{"total_amount": 12345678901}`,
			check: func(t *testing.T, f model.OCRFields) {
				t.Helper()
				assert.Equal(t, "12345678901", model.Text(f.Amount))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFields(tt.reply)
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestParseFields_Errors(t *testing.T) {
	_, err := ParseFields("I could not read this document.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseFields(`{"issuer": "unterminated"`)
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseFields(`{"issuer": bad}`)
	assert.Error(t, err)
}
