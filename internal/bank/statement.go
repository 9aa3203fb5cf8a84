// Package bank parses bank statement CSV exports and suggests journal
// entries for each statement line.
package bank

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"golang.org/x/text/encoding/japanese"
)

// Statement errors.
var (
	ErrUnknownFormat    = errors.New("unknown bank statement format")
	ErrInvalidStatement = errors.New("invalid bank statement")
)

// Format names the CSV layout of a bank's statement export.
type Format string

const (
	FormatAichi Format = "aichi"
	FormatMUFG  Format = "mufg"
	FormatSMBC  Format = "smbc"
)

type layout struct {
	headerRows int
	minColumns int
}

// Every supported export is date, description, deposit, withdrawal,
// balance; they differ in header and trailing columns.
var layouts = map[Format]layout{
	FormatAichi: {headerRows: 1, minColumns: 5},
	FormatMUFG:  {headerRows: 1, minColumns: 6},
	FormatSMBC:  {headerRows: 1, minColumns: 6},
}

// ParseFormat validates a format name. Empty selects FormatAichi.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatAichi, nil
	}
	if _, ok := layouts[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Transaction is one statement line.
type Transaction struct {
	Date        time.Time `json:"-"`
	Description string    `json:"description"`
	Deposit     int64     `json:"deposit"`
	Withdrawal  int64     `json:"withdrawal"`
	Balance     int64     `json:"balance"`
	// Line is the 1-based CSV record number, header rows included.
	Line int `json:"line,omitempty"`
}

// Flow is deposit when money came in and withdrawal otherwise.
func (t Transaction) Flow() model.Flow {
	if t.Deposit > 0 {
		return model.FlowDeposit
	}
	return model.FlowWithdrawal
}

// Amount is the moved amount regardless of flow.
func (t Transaction) Amount() int64 {
	if t.Deposit > 0 {
		return t.Deposit
	}
	return t.Withdrawal
}

// MarshalJSON writes Date as YYYY-MM-DD and adds the flow.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	date := ""
	if !t.Date.IsZero() {
		date = t.Date.Format(model.DateLayout)
	}
	return json.Marshal(struct {
		Alias
		Date string     `json:"date"`
		Flow model.Flow `json:"flow"`
	}{
		Alias: Alias(t),
		Date:  date,
		Flow:  t.Flow(),
	})
}

// SkippedRow is a statement line that could not be read as a transaction.
type SkippedRow struct {
	Reason string `json:"reason"`
	Line   int    `json:"line"`
}

// Parse reads a statement export. CP932 input is decoded; UTF-8 input,
// with or without a byte order mark, is read as is. Rows without a date or
// without any movement are skipped, as are rows whose date cannot be read.
// Dates without a year take the year of now.
func Parse(r io.Reader, format Format, now time.Time) ([]Transaction, []SkippedRow, error) {
	l, ok := layouts[format]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read statement: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if !utf8.Valid(data) {
		data, err = japanese.ShiftJIS.NewDecoder().Bytes(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidStatement, err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		txs     []Transaction
		skipped []SkippedRow
	)
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidStatement, err)
		}
		if n <= l.headerRows {
			continue
		}
		if len(record) < l.minColumns {
			if !blank(record) {
				skipped = append(skipped, SkippedRow{Line: n, Reason: fmt.Sprintf("expected %d columns, got %d", l.minColumns, len(record))})
			}
			continue
		}

		tx, reason := parseRow(record, now)
		if reason != "" {
			slog.Debug("Skipping statement row", "line", n, "reason", reason)
			skipped = append(skipped, SkippedRow{Line: n, Reason: reason})
			continue
		}
		if tx == nil {
			continue
		}
		tx.Line = n
		txs = append(txs, *tx)
	}
	return txs, skipped, nil
}

func parseRow(record []string, now time.Time) (*Transaction, string) {
	rawDate := strings.TrimSpace(record[0])
	tx := &Transaction{
		Description: strings.TrimSpace(record[1]),
		Deposit:     parseAmount(record[2]),
		Withdrawal:  parseAmount(record[3]),
		Balance:     parseAmount(record[4]),
	}
	if rawDate == "" || (tx.Deposit == 0 && tx.Withdrawal == 0) {
		return nil, ""
	}

	date, ok := parseDate(rawDate, now)
	if !ok {
		return nil, fmt.Sprintf("unreadable date %q", rawDate)
	}
	tx.Date = date
	return tx, ""
}

// parseAmount reads a statement amount; blank and unreadable cells are 0.
func parseAmount(raw string) int64 {
	if strings.TrimSpace(raw) == "" {
		return 0
	}
	n, err := engine.ParseAmount(raw)
	if err != nil {
		return 0
	}
	return n
}

func parseDate(raw string, now time.Time) (time.Time, bool) {
	if d, ok := engine.ParseDate(raw); ok {
		return d, true
	}
	d, err := time.Parse("1/2", raw)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
