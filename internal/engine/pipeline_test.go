package engine

import (
	"bytes"
	"context"
	"iter"
	"testing"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/Veraticus/shiwake/internal/storage"
	"github.com/Veraticus/shiwake/internal/testutil"
	"github.com/Veraticus/shiwake/internal/yayoi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

var exportTime = time.Date(2024, 5, 31, 18, 30, 0, 0, time.UTC)

func createTestPipeline(t *testing.T) (*Pipeline, *ocr.MockExtractor, *storage.SQLiteStorage) {
	t.Helper()

	store := testutil.SetupTestLedger(t).Storage

	classifier := NewClassifier(testIndex(), store)
	classifier.SetClock(func() time.Time { return processingDate })

	mock := ocr.NewMockExtractor()
	mock.Fields["acme.pdf"] = acmeFields()
	mock.Fields["ntt.png"] = model.OCRFields{
		Issuer: model.Ptr("NTT東日本"),
		Amount: model.Ptr("8,250"),
		Date:   model.Ptr("2024/04/30"),
	}
	mock.Fields["no-amount.pdf"] = model.OCRFields{Issuer: model.Ptr("ACME Co")}
	mock.Errors["blurry.jpg"] = common.ErrOCRFailed

	codec := &yayoi.Codec{Now: func() time.Time { return exportTime }}
	return NewPipeline(mock, classifier, store, codec), mock, store
}

func collect(seq iter.Seq[ProcessResult]) []ProcessResult {
	var out []ProcessResult
	for r := range seq {
		out = append(out, r)
	}
	return out
}

func TestPipeline_Process(t *testing.T) {
	p, mock, store := createTestPipeline(t)
	ctx := context.Background()

	paths := []string{"in/acme.pdf", "in/blurry.jpg", "in/no-amount.pdf", "in/ntt.png"}
	results := collect(p.Process(ctx, paths, ProcessOptions{Direction: model.DirectionPurchase}))
	require.Len(t, results, 4)
	assert.Equal(t, paths, mock.Calls())

	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].HistoryID)
	assert.Equal(t, results[0].HistoryID, results[0].Suggestion.Entry.HistoryID)

	assert.ErrorIs(t, results[1].Err, common.ErrOCRFailed)
	assert.Empty(t, results[1].HistoryID)
	assert.ErrorIs(t, results[2].Err, ErrMissingAmount)
	assert.NoError(t, results[3].Err)

	records, err := store.QueryHistory(ctx, service.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, model.SourceOCRBatch, r.SourceType)
		assert.False(t, r.Exported)
	}

	rec, err := store.GetHistoryRecord(ctx, results[0].HistoryID)
	require.NoError(t, err)
	assert.Equal(t, "acme.pdf", rec.SourceFile)
	assert.Equal(t, int64(15000), rec.Entry.DebitAmount)
}

func TestPipeline_ProcessSingleAndDryRun(t *testing.T) {
	p, _, store := createTestPipeline(t)
	ctx := context.Background()

	results := collect(p.Process(ctx, []string{"acme.pdf"}, ProcessOptions{DryRun: true}))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Empty(t, results[0].HistoryID)
	assert.Equal(t, model.DirectionPurchase, results[0].Suggestion.Direction)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	results = collect(p.Process(ctx, []string{"acme.pdf"}, ProcessOptions{}))
	require.NoError(t, results[0].Err)
	rec, err := store.GetHistoryRecord(ctx, results[0].HistoryID)
	require.NoError(t, err)
	assert.Equal(t, model.SourceOCRSingle, rec.SourceType)
}

func TestPipeline_ProcessLearningFlag(t *testing.T) {
	p, _, store := createTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, p.classifier.SubmitCorrection(ctx, acmeFields(),
		model.JournalEntry{DebitAccount: "通信費", CreditAccount: "未払金"}, model.DirectionPurchase))

	results := collect(p.Process(ctx, []string{"acme.pdf"}, ProcessOptions{SourceType: model.SourceManual}))
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Suggestion.LearningApplied)

	rec, err := store.GetHistoryRecord(ctx, results[0].HistoryID)
	require.NoError(t, err)
	assert.True(t, rec.LearningApplied)
	assert.Equal(t, model.SourceManual, rec.SourceType)
	assert.Equal(t, "通信費", rec.Entry.DebitAccount)
}

func TestPipeline_NoExtractor(t *testing.T) {
	p, _, _ := createTestPipeline(t)
	p.extractor = nil

	results := collect(p.Process(context.Background(), []string{"acme.pdf"}, ProcessOptions{}))
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrNoExtractor)
}

func TestPipeline_ProcessCancelled(t *testing.T) {
	p, mock, _ := createTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := collect(p.Process(ctx, []string{"acme.pdf", "ntt.png"}, ProcessOptions{}))
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Empty(t, mock.Calls())
}

func TestPipeline_Export(t *testing.T) {
	p, _, store := createTestPipeline(t)
	ctx := context.Background()

	results := collect(p.Process(ctx, []string{"acme.pdf", "ntt.png"}, ProcessOptions{}))
	ids := []string{results[0].HistoryID, "missing", results[1].HistoryID}

	res, err := p.Export(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, "yayoi_20240531_183000.csv", res.File.Filename)
	assert.Equal(t, 2, res.File.Rows)
	assert.Equal(t, 2, res.Record.EntryCount)
	assert.Equal(t, []string{"missing"}, res.Record.SkippedIDs)
	assert.Equal(t, res.File.Filename, res.Record.Filename)

	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(res.File.Data)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSuffix(decoded, []byte("\r\n")), []byte("\r\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "ACME Co　4月分")
	assert.Contains(t, string(lines[1]), "通信費")

	for _, id := range []string{results[0].HistoryID, results[1].HistoryID} {
		rec, err := store.GetHistoryRecord(ctx, id)
		require.NoError(t, err)
		assert.True(t, rec.Exported)
		assert.Equal(t, res.Record.ID, rec.ExportID)
	}
}

func TestPipeline_ExportRepeatedIDs(t *testing.T) {
	p, _, _ := createTestPipeline(t)
	ctx := context.Background()

	results := collect(p.Process(ctx, []string{"acme.pdf", "ntt.png"}, ProcessOptions{}))
	a, b := results[0].HistoryID, results[1].HistoryID

	res, err := p.Export(ctx, []string{b, a, b, a})
	require.NoError(t, err)
	assert.Equal(t, 2, res.File.Rows)
	assert.Equal(t, res.File.Rows, res.Record.EntryCount)
	assert.Equal(t, []string{b, a}, res.Record.HistoryIDs)

	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(res.File.Data)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSuffix(decoded, []byte("\r\n")), []byte("\r\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "通信費")
}

func TestPipeline_ExportInvalidRecordsNothing(t *testing.T) {
	p, _, store := createTestPipeline(t)
	ctx := context.Background()

	_, err := p.Export(ctx, []string{"missing"})
	assert.ErrorIs(t, err, yayoi.ErrNoEntries)

	exports, err := store.ListExports(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, exports)
}

func TestPipeline_ExportUnexported(t *testing.T) {
	p, _, store := createTestPipeline(t)
	ctx := context.Background()

	_, err := p.ExportUnexported(ctx)
	assert.ErrorIs(t, err, yayoi.ErrNoEntries)

	results := collect(p.Process(ctx, []string{"acme.pdf", "ntt.png"}, ProcessOptions{}))
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	res, err := p.ExportUnexported(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{results[0].HistoryID, results[1].HistoryID}, res.Record.HistoryIDs)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Exported)
	assert.Zero(t, stats.Unexported)

	_, err = p.ExportUnexported(ctx)
	assert.ErrorIs(t, err, yayoi.ErrNoEntries)
}

func TestPipeline_ExportRowErrorsRecordNothing(t *testing.T) {
	p, _, store := createTestPipeline(t)
	ctx := context.Background()

	good, err := store.Append(ctx, testutil.NewEntry().Amount(3300).Build(), model.SourceManual, "", false)
	require.NoError(t, err)
	heisei, err := store.Append(ctx, testutil.NewEntry().On(2019, time.April, 30).Build(), model.SourceManual, "", false)
	require.NoError(t, err)

	_, err = p.Export(ctx, []string{good, heisei})
	var rowErrs *yayoi.RowErrors
	require.ErrorAs(t, err, &rowErrs)
	require.Len(t, rowErrs.Rows, 1)
	assert.Equal(t, 1, rowErrs.Rows[0].Row)
	assert.Equal(t, "date", rowErrs.Rows[0].Field)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Exported)
	assert.Zero(t, stats.TotalExports)
}
