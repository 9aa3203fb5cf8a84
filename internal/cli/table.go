package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// Table writes aligned columns with a styled header row.
type Table struct {
	w      *tabwriter.Writer
	header []string
	err    error
}

// NewTable starts a table with the given column titles.
func NewTable(w io.Writer, header ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0), header: header}

	styled := make([]string, len(header))
	rule := make([]string, len(header))
	for i, h := range header {
		styled[i] = TableHeaderStyle.Render(h)
		rule[i] = strings.Repeat("─", max(utf8.RuneCountInString(h), 4))
	}
	t.line(styled)
	t.line(rule)
	return t
}

// Row appends one row; missing cells are left empty.
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.header))
	copy(row, cells)
	t.line(row)
}

// Flush writes the table and returns the first error seen.
func (t *Table) Flush() error {
	if t.err != nil {
		return t.err
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

func (t *Table) line(cells []string) {
	if t.err != nil {
		return
	}
	if _, err := fmt.Fprintln(t.w, strings.Join(cells, "\t")); err != nil {
		t.err = fmt.Errorf("failed to write table row: %w", err)
	}
}
