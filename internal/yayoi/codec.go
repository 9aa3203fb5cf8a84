// Package yayoi encodes journal entries into the 25-column CSV import
// format of Yayoi Kaikei.
package yayoi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/shiwake/internal/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// Columns is the number of fields in every row.
const Columns = 25

const (
	identificationFlag = "2000"
	rowFlag            = "no"
	zero               = "0"
	substitute         = '?'
)

// reiwaStart is the first day of the Reiwa era.
var reiwaStart = time.Date(2019, time.May, 1, 0, 0, 0, 0, time.UTC)

// ErrNoEntries is returned when asked to encode an empty batch.
var ErrNoEntries = errors.New("no entries to export")

// RowError describes one invalid row. Row is zero-based.
type RowError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Row     int    `json:"row"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// RowErrors lists every row-level problem found in a batch.
type RowErrors struct {
	Rows []RowError
}

func (e *RowErrors) Error() string {
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	return fmt.Sprintf("%d invalid rows: %s", len(e.Rows), strings.Join(msgs, "; "))
}

// Export is an encoded CSV ready to be written or downloaded.
type Export struct {
	Filename string
	Data     []byte
	Rows     int
	// Substitutions counts characters that CP932 cannot represent and were
	// written as '?'.
	Substitutions int
}

// Codec renders entries as Yayoi CSV. The zero value is usable and numbers
// slips from 1 using the wall clock for filenames.
type Codec struct {
	Now         func() time.Time
	StartSlipNo int
}

// NewCodec returns a codec numbering slips from startSlipNo.
func NewCodec(startSlipNo int) *Codec {
	return &Codec{StartSlipNo: startSlipNo}
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Codec) startSlipNo() int {
	if c.StartSlipNo <= 0 {
		return 1
	}
	return c.StartSlipNo
}

// Filename returns the export file name for t.
func Filename(t time.Time) string {
	return t.Format("yayoi_20060102_150405.csv")
}

// Validate returns every problem that would prevent entries from being encoded.
func Validate(entries []model.JournalEntry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	var rowErrs []RowError
	for i, e := range entries {
		add := func(field, msg string) {
			rowErrs = append(rowErrs, RowError{Row: i, Field: field, Message: msg})
		}
		switch {
		case e.Date.IsZero():
			add("date", "missing")
		case e.Date.Before(reiwaStart):
			add("date", "before the Reiwa era")
		}
		if strings.TrimSpace(e.DebitAccount) == "" {
			add("debit_account", "missing")
		}
		if strings.TrimSpace(e.CreditAccount) == "" {
			add("credit_account", "missing")
		}
		if e.DebitAmount <= 0 {
			add("debit_amount", "must be positive")
		}
		if e.CreditAmount <= 0 {
			add("credit_amount", "must be positive")
		}
		if !e.IsBalanced() {
			add("amount", fmt.Sprintf("debit %d does not equal credit %d", e.DebitAmount, e.CreditAmount))
		}
	}

	if len(rowErrs) > 0 {
		return &RowErrors{Rows: rowErrs}
	}
	return nil
}

// Encode validates entries and renders them as CP932 CSV without a header.
// Nothing is encoded when any row is invalid.
func (c *Codec) Encode(entries []model.JournalEntry) (*Export, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	start := c.startSlipNo()
	for i, e := range entries {
		if err := w.Write(Row(e, start+i)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	data, subs := toCP932(buf.String())
	return &Export{
		Filename:      Filename(c.now()),
		Data:          data,
		Rows:          len(entries),
		Substitutions: subs,
	}, nil
}

// Row renders one entry as the 25 Yayoi columns.
func Row(e model.JournalEntry, slipNo int) []string {
	return []string{
		identificationFlag,
		strconv.Itoa(slipNo),
		"",
		ReiwaDate(e.Date),
		e.DebitAccount,
		e.DebitSubAccount,
		"",
		taxOrDefault(e.DebitTaxCategory),
		strconv.FormatInt(e.DebitAmount, 10),
		zero,
		e.CreditAccount,
		e.CreditSubAccount,
		"",
		taxOrDefault(e.CreditTaxCategory),
		strconv.FormatInt(e.CreditAmount, 10),
		zero,
		e.Description,
		"",
		"",
		zero,
		"",
		"",
		zero,
		zero,
		rowFlag,
	}
}

// ReiwaDate formats t as R.YY/MM/DD, where Reiwa 1 is 2019.
func ReiwaDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("R.%02d/%02d/%02d", t.Year()-2018, int(t.Month()), t.Day())
}

func taxOrDefault(tax string) string {
	if tax == "" {
		return model.TaxNotApplicable
	}
	return tax
}

// toCP932 encodes s rune by rune, writing '?' for runes CP932 lacks.
func toCP932(s string) ([]byte, int) {
	enc := japanese.ShiftJIS.NewEncoder()
	out := make([]byte, 0, len(s))
	subs := 0
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		b, err := encodeRune(enc, r)
		if err != nil {
			out = append(out, substitute)
			subs++
			continue
		}
		out = append(out, b...)
	}
	return out, subs
}

func encodeRune(enc *encoding.Encoder, r rune) ([]byte, error) {
	enc.Reset()
	return enc.Bytes([]byte(string(r)))
}
