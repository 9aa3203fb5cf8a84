package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func learningRecord(issuer, debit string, updated time.Time) *model.LearningRecord {
	return &model.LearningRecord{
		Signature: model.Signature(issuer, model.DirectionPurchase),
		Issuer:    issuer,
		Direction: model.DirectionPurchase,
		Mapping: model.AccountMapping{
			DebitAccount:  debit,
			CreditAccount: "未払金",
		},
		UpdatedAt: updated,
	}
}

func TestLookupLearning_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	rec, err := store.LookupLearning(context.Background(), "purchase:nobody")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpsertLearning_InsertAndUpdate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertLearning(ctx, learningRecord("ACME Co", "消耗品費", base)))

	rec, err := store.LookupLearning(ctx, "purchase:acmeco")
	require.NoError(t, err)
	assert.Equal(t, "消耗品費", rec.Mapping.DebitAccount)
	assert.Equal(t, model.TaxNotApplicable, rec.Mapping.DebitTaxCategory)
	assert.Equal(t, 1, rec.CorrectionCount)
	assert.Equal(t, base, rec.CreatedAt)

	require.NoError(t, store.UpsertLearning(ctx, learningRecord("ＡＣＭＥ　Ｃｏ", "通信費", base.Add(time.Minute))))

	rec, err = store.LookupLearning(ctx, "purchase:acmeco")
	require.NoError(t, err)
	assert.Equal(t, "通信費", rec.Mapping.DebitAccount)
	assert.Equal(t, "ＡＣＭＥ　Ｃｏ", rec.Issuer)
	assert.Equal(t, 2, rec.CorrectionCount)
	assert.Equal(t, base, rec.CreatedAt)
	assert.Equal(t, base.Add(time.Minute), rec.UpdatedAt)
}

func TestUpsertLearning_LastWriterWins(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertLearning(ctx, learningRecord("ACME Co", "通信費", base.Add(time.Hour))))
	// A correction made earlier but delivered later must not win.
	require.NoError(t, store.UpsertLearning(ctx, learningRecord("ACME Co", "消耗品費", base)))

	rec, err := store.LookupLearning(ctx, "purchase:acmeco")
	require.NoError(t, err)
	assert.Equal(t, "通信費", rec.Mapping.DebitAccount)
	assert.Equal(t, 1, rec.CorrectionCount)
}

func TestUpsertLearning_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		record *model.LearningRecord
		want   error
		name   string
	}{
		{name: "nil record", record: nil, want: ErrNilParameter},
		{name: "missing signature", record: &model.LearningRecord{Direction: model.DirectionPurchase}, want: ErrInvalidLearn},
		{
			name: "invalid direction",
			record: &model.LearningRecord{Signature: "x:y", Direction: "refund",
				Mapping: model.AccountMapping{DebitAccount: "a", CreditAccount: "b"}},
			want: ErrInvalidLearn,
		},
		{
			name:   "missing credit account",
			record: &model.LearningRecord{Signature: "purchase:y", Direction: model.DirectionPurchase, Mapping: model.AccountMapping{DebitAccount: "a"}},
			want:   ErrInvalidLearn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.UpsertLearning(ctx, tt.record), tt.want)
		})
	}

	records, err := store.ListLearning(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpsertLearning_Concurrent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := learningRecord("ACME Co", fmt.Sprintf("account-%02d", i), base.Add(time.Duration(i)*time.Second))
			errs <- store.UpsertLearning(ctx, rec)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := store.LookupLearning(ctx, "purchase:acmeco")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("account-%02d", writers-1), rec.Mapping.DebitAccount)
	assert.Equal(t, "未払金", rec.Mapping.CreditAccount)
}

func TestListDeleteClearLearning(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertLearning(ctx, learningRecord("ACME Co", "通信費", base)))
	require.NoError(t, store.UpsertLearning(ctx, learningRecord("Beta KK", "旅費交通費", base.Add(time.Hour))))
	require.NoError(t, store.UpsertLearning(ctx, learningRecord("Gamma", "雑費", base.Add(2*time.Hour))))

	records, err := store.ListLearning(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "gamma", records[0].Signature[len("purchase:"):])
	assert.Equal(t, "Beta KK", records[1].Issuer)

	require.NoError(t, store.DeleteLearning(ctx, "purchase:betakk"))
	assert.ErrorIs(t, store.DeleteLearning(ctx, "purchase:betakk"), common.ErrNotFound)

	n, err := store.ClearLearning(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err = store.ListLearning(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
