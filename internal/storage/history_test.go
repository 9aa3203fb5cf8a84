package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_SnapshotIsStored(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	entry := testEntry(15000, "ACME Co 4月分")
	entry.Selected = true
	entry.HistoryID = "stale"

	id, err := store.Append(ctx, entry, model.SourceOCRSingle, "invoice.pdf", true)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := store.GetHistoryRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, id, rec.Entry.HistoryID)
	assert.False(t, rec.Entry.Selected)
	assert.Equal(t, entry.Date, rec.Entry.Date)
	assert.Equal(t, int64(15000), rec.Entry.DebitAmount)
	assert.Equal(t, int64(15000), rec.Entry.CreditAmount)
	assert.Equal(t, "課対仕入10%", rec.Entry.DebitTaxCategory)
	assert.Equal(t, model.TaxNotApplicable, rec.Entry.CreditTaxCategory)
	assert.Equal(t, model.SourceOCRSingle, rec.SourceType)
	assert.Equal(t, "invoice.pdf", rec.SourceFile)
	assert.True(t, rec.LearningApplied)
	assert.False(t, rec.Exported)
	assert.Nil(t, rec.ExportedAt)
	assert.Empty(t, rec.ExportID)
}

func TestAppend_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	unbalanced := testEntry(100, "x")
	unbalanced.CreditAmount = 99
	noDebit := testEntry(100, "x")
	noDebit.DebitAccount = ""
	negative := testEntry(-5, "x")

	tests := []struct {
		want   error
		name   string
		source model.SourceType
		entry  model.JournalEntry
	}{
		{name: "missing date", entry: model.JournalEntry{DebitAccount: "a", CreditAccount: "b"}, source: model.SourceManual, want: ErrInvalidEntry},
		{name: "unbalanced", entry: unbalanced, source: model.SourceManual, want: ErrInvalidEntry},
		{name: "missing debit account", entry: noDebit, source: model.SourceManual, want: ErrInvalidEntry},
		{name: "negative amount", entry: negative, source: model.SourceManual, want: ErrInvalidEntry},
		{name: "unknown source type", entry: testEntry(1, "x"), source: "scanner", want: ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Append(ctx, tt.entry, tt.source, "", false)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestAppendBatch_PartialFailure(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	missingDate := testEntry(200, "second")
	missingDate.Date = time.Time{}
	entries := []model.JournalEntry{testEntry(100, "first"), missingDate, testEntry(300, "third")}

	results, err := store.AppendBatch(ctx, entries, []string{"a.pdf", "b.pdf", "c.pdf"}, model.SourceOCRBatch, []bool{false, false, true})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].ID)
	assert.ErrorIs(t, results[1].Err, ErrInvalidEntry)
	assert.Empty(t, results[1].ID)
	var itemErr *common.ItemError
	require.True(t, errors.As(results[1].Err, &itemErr))
	assert.Equal(t, 1, itemErr.Index)
	assert.Equal(t, "b.pdf", itemErr.Name)
	assert.NoError(t, results[2].Err)

	records, err := store.QueryHistory(ctx, service.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Entry.Description)
	assert.True(t, records[0].LearningApplied)
	assert.Equal(t, "first", records[1].Entry.Description)

	for _, r := range records {
		assert.NotEqual(t, "b.pdf", r.SourceFile)
	}
}

func TestAppendBatch_LengthMismatch(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	entries := []model.JournalEntry{testEntry(1, "a"), testEntry(2, "b")}

	_, err := store.AppendBatch(ctx, entries, []string{"only-one.pdf"}, model.SourceOCRBatch, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = store.AppendBatch(ctx, entries, nil, model.SourceOCRBatch, []bool{true})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)

	results, err := store.AppendBatch(ctx, entries, nil, model.SourceOCRBatch, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQueryHistory_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var ids []string
	for i, src := range []model.SourceType{model.SourceManual, model.SourceOCRBatch, model.SourceOCRBatch, model.SourceSales} {
		file := ""
		if src == model.SourceOCRBatch {
			file = "batch.zip"
		}
		id, err := store.Append(ctx, testEntry(int64(i+1)*100, string(rune('a'+i))), src, file, false)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := store.RecordExport(ctx, "yayoi_20240401_090000.csv", []string{ids[0]})
	require.NoError(t, err)

	exported, unexported := true, false

	tests := []struct {
		name   string
		filter service.HistoryFilter
		want   []string
	}{
		{name: "all newest first", filter: service.HistoryFilter{}, want: []string{"d", "c", "b", "a"}},
		{name: "exported only", filter: service.HistoryFilter{Exported: &exported}, want: []string{"a"}},
		{name: "unexported only", filter: service.HistoryFilter{Exported: &unexported}, want: []string{"d", "c", "b"}},
		{name: "by source type", filter: service.HistoryFilter{SourceType: model.SourceOCRBatch}, want: []string{"c", "b"}},
		{name: "by source file", filter: service.HistoryFilter{SourceFile: "batch.zip"}, want: []string{"c", "b"}},
		{name: "limit", filter: service.HistoryFilter{Limit: 2}, want: []string{"d", "c"}},
		{name: "limit and offset", filter: service.HistoryFilter{Limit: 2, Offset: 1}, want: []string{"c", "b"}},
		{name: "offset without limit", filter: service.HistoryFilter{Offset: 3}, want: []string{"a"}},
		{name: "no match", filter: service.HistoryFilter{SourceType: model.SourcePayment}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.QueryHistory(ctx, tt.filter)
			require.NoError(t, err)
			got := []string{}
			for _, r := range records {
				got = append(got, r.Entry.Description)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryHistory_SameTimestampKeepsInsertionOrder(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	frozen := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return frozen })

	for _, d := range []string{"first", "second", "third"} {
		_, err := store.Append(ctx, testEntry(1, d), model.SourceManual, "", false)
		require.NoError(t, err)
	}

	records, err := store.QueryHistory(ctx, service.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Entry.Description)
	assert.Equal(t, "first", records[2].Entry.Description)
}

func TestGetHistoryRecord_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetHistoryRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStats_Invariants(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		src := model.SourceOCRBatch
		if i%2 == 0 {
			src = model.SourceManual
		}
		id, err := store.Append(ctx, testEntry(int64(i+1), "x"), src, "", false)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := store.RecordExport(ctx, "one.csv", ids[:2])
	require.NoError(t, err)
	_, err = store.RecordExport(ctx, "two.csv", ids[1:3])
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Exported)
	assert.Equal(t, 2, stats.Unexported)
	assert.Equal(t, stats.Total, stats.Exported+stats.Unexported)
	assert.Equal(t, 2, stats.TotalExports)
	assert.Equal(t, 3, stats.BySourceType[model.SourceManual])
	assert.Equal(t, 2, stats.BySourceType[model.SourceOCRBatch])

	exports, err := store.ListExports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, exports, stats.TotalExports)
}

func TestLedger_RejectsDirectMutation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	id, err := store.Append(ctx, testEntry(15000, "original"), model.SourceManual, "", false)
	require.NoError(t, err)
	other, err := store.Append(ctx, testEntry(100, "other"), model.SourceManual, "", false)
	require.NoError(t, err)
	exp, err := store.RecordExport(ctx, "first.csv", []string{id})
	require.NoError(t, err)

	statements := []struct {
		name  string
		query string
		args  []any
	}{
		{"amount update", `UPDATE history_records SET debit_amount = 1, credit_amount = 1 WHERE id = ?`, []any{id}},
		{"description update", `UPDATE history_records SET description = 'changed' WHERE id = ?`, []any{other}},
		{"unexport", `UPDATE history_records SET exported = 0 WHERE id = ?`, []any{id}},
		{"relink export", `UPDATE history_records SET export_id = 'other' WHERE id = ?`, []any{id}},
		{"set exported without value", `UPDATE history_records SET exported = 2 WHERE id = ?`, []any{other}},
		{"delete history", `DELETE FROM history_records WHERE id = ?`, []any{other}},
		{"rename export", `UPDATE export_records SET filename = 'x.csv' WHERE id = ?`, []any{exp.ID}},
		{"delete export", `DELETE FROM export_records WHERE id = ?`, []any{exp.ID}},
		{"delete export entry", `DELETE FROM export_entries WHERE export_id = ?`, []any{exp.ID}},
	}

	for _, st := range statements {
		t.Run(st.name, func(t *testing.T) {
			_, err := store.db.ExecContext(ctx, st.query, st.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "immutable")
			assert.ErrorIs(t, immutableError(err), common.ErrImmutable)
		})
	}

	_, err = store.db.ExecContext(ctx, `INSERT INTO history_records (id) VALUES (?)`, id)
	require.Error(t, err)
	assert.NotErrorIs(t, immutableError(err), common.ErrImmutable)

	rec, err := store.GetHistoryRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "original", rec.Entry.Description)
	assert.Equal(t, int64(15000), rec.Entry.DebitAmount)
	assert.True(t, rec.Exported)
	assert.Equal(t, exp.ID, rec.ExportID)
}

func TestAppend_Concurrent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.Append(ctx, testEntry(int64(i+1), "concurrent"), model.SourceOCRBatch, "", false)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate id %s", ids[i])
		seen[ids[i]] = true
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, stats.Total)
}
