package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordExport_SkipsUnknownIDs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	id1, err := store.Append(ctx, testEntry(15000, "ACME Co 4月分"), model.SourceOCRSingle, "a.pdf", false)
	require.NoError(t, err)
	id2 := "does-not-exist"

	rec, err := store.RecordExport(ctx, "export_20240401.csv", []string{id1, id2})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "export_20240401.csv", rec.Filename)
	assert.Equal(t, 1, rec.EntryCount)
	assert.Equal(t, []string{id1}, rec.HistoryIDs)
	assert.Equal(t, []string{id2}, rec.SkippedIDs)

	h, err := store.GetHistoryRecord(ctx, id1)
	require.NoError(t, err)
	assert.True(t, h.Exported)
	require.NotNil(t, h.ExportedAt)
	assert.Equal(t, rec.ExportedAt, *h.ExportedAt)
	assert.Equal(t, rec.ID, h.ExportID)

	stored, err := store.GetExportRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestRecordExport_KeepsFirstLinkage(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	id1, err := store.Append(ctx, testEntry(100, "one"), model.SourceManual, "", false)
	require.NoError(t, err)
	id2, err := store.Append(ctx, testEntry(200, "two"), model.SourceManual, "", false)
	require.NoError(t, err)

	first, err := store.RecordExport(ctx, "first.csv", []string{id1})
	require.NoError(t, err)
	second, err := store.RecordExport(ctx, "second.csv", []string{id1, id2, id1})
	require.NoError(t, err)

	assert.Equal(t, 2, second.EntryCount)
	assert.Equal(t, []string{id1, id2}, second.HistoryIDs)
	assert.Empty(t, second.SkippedIDs)

	h1, err := store.GetHistoryRecord(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, h1.ExportID)
	assert.Equal(t, first.ExportedAt, *h1.ExportedAt)

	h2, err := store.GetHistoryRecord(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, second.ID, h2.ExportID)

	covered, err := store.GetHistoryByExport(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, covered, 2)
	assert.Equal(t, "one", covered[0].Entry.Description)
	assert.Equal(t, "two", covered[1].Entry.Description)
}

func TestRecordExport_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.RecordExport(ctx, "", []string{"x"})
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = store.RecordExport(ctx, "x.csv", nil)
	assert.ErrorIs(t, err, ErrEmptySlice)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalExports)
}

func TestRecordExport_AllUnknown(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rec, err := store.RecordExport(ctx, "empty.csv", []string{"ghost-1", "ghost-2"})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.EntryCount)
	assert.Empty(t, rec.HistoryIDs)
	assert.Equal(t, []string{"ghost-1", "ghost-2"}, rec.SkippedIDs)
}

func TestListExports_NewestFirst(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	id, err := store.Append(ctx, testEntry(100, "one"), model.SourceManual, "", false)
	require.NoError(t, err)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := store.RecordExport(ctx, name, []string{id})
		require.NoError(t, err)
	}

	all, err := store.ListExports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.csv", all[0].Filename)
	assert.Equal(t, "a.csv", all[2].Filename)
	assert.Equal(t, []string{id}, all[1].HistoryIDs)

	limited, err := store.ListExports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b.csv", limited[1].Filename)
}

func TestGetExportRecord_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetExportRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
