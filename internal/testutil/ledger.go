// Package testutil provides ledger fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/storage"
)

// TestLedger is a migrated in-memory ledger that is closed on test cleanup.
type TestLedger struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// LedgerOptions configures SetupTestLedgerWithOptions.
type LedgerOptions struct {
	// Clock pins created_at and exported_at timestamps.
	Clock       func() time.Time
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Learning    []model.LearningRecord
}

// SetupTestLedger creates an empty ledger.
func SetupTestLedger(t *testing.T) *TestLedger {
	t.Helper()
	return SetupTestLedgerWithOptions(t, LedgerOptions{})
}

// SetupTestLedgerWithOptions creates a ledger, seeds learning records and
// runs any custom setup.
//
// Example:
//
//	ledger := testutil.SetupTestLedgerWithOptions(t, testutil.LedgerOptions{
//		Learning: []model.LearningRecord{testutil.Learned("ACME Co", model.DirectionPurchase, "通信費")},
//	})
func SetupTestLedgerWithOptions(t *testing.T, opts LedgerOptions) *TestLedger {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if opts.Clock != nil {
		store.SetClock(opts.Clock)
	}

	for i := range opts.Learning {
		if err := store.UpsertLearning(ctx, &opts.Learning[i]); err != nil {
			t.Fatalf("failed to seed learning record %q: %v", opts.Learning[i].Signature, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestLedger{Storage: store, t: t}
}

// MustAppend appends entries as manual records and returns their ids.
func (l *TestLedger) MustAppend(entries ...model.JournalEntry) []string {
	l.t.Helper()
	ids := make([]string, len(entries))
	for i, e := range entries {
		id, err := l.Storage.Append(context.Background(), e, model.SourceManual, "", false)
		if err != nil {
			l.t.Fatalf("failed to append entry %d: %v", i, err)
		}
		ids[i] = id
	}
	return ids
}

// MustRecordExport links ids to a new export record.
func (l *TestLedger) MustRecordExport(filename string, ids ...string) *model.ExportRecord {
	l.t.Helper()
	rec, err := l.Storage.RecordExport(context.Background(), filename, ids)
	if err != nil {
		l.t.Fatalf("failed to record export %q: %v", filename, err)
	}
	return rec
}

// MustGet returns the history record for id or fails the test.
func (l *TestLedger) MustGet(id string) *model.HistoryRecord {
	l.t.Helper()
	rec, err := l.Storage.GetHistoryRecord(context.Background(), id)
	if err != nil {
		l.t.Fatalf("history record %q not found: %v", id, err)
	}
	return rec
}

// Learned builds a learning record mapping issuer to a debit account
// credited to 未払金.
func Learned(issuer string, direction model.Direction, debit string) model.LearningRecord {
	return model.LearningRecord{
		Signature: model.Signature(issuer, direction),
		Issuer:    issuer,
		Direction: direction,
		Mapping: model.AccountMapping{
			DebitAccount:  debit,
			CreditAccount: "未払金",
		}.WithDefaults(),
	}
}
