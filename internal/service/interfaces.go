// Package service defines the interfaces shared by the classification
// pipeline, the HTTP surface and the CLI.
package service

import (
	"context"

	"github.com/Veraticus/shiwake/internal/model"
)

// HistoryFilter narrows a ledger query. Zero values mean "no constraint".
type HistoryFilter struct {
	Exported   *bool
	SourceType model.SourceType
	SourceFile string
	Limit      int
	Offset     int
}

// BatchResult is the outcome of appending one element of a batch.
// Exactly one of ID and Err is set.
type BatchResult struct {
	Err   error
	ID    string
	Index int
}

// LearningStore persists human corrections keyed by vendor signature.
type LearningStore interface {
	LookupLearning(ctx context.Context, signature string) (*model.LearningRecord, error)
	UpsertLearning(ctx context.Context, record *model.LearningRecord) error
	ListLearning(ctx context.Context) ([]model.LearningRecord, error)
	DeleteLearning(ctx context.Context, signature string) error
	ClearLearning(ctx context.Context) (int, error)
}

// Ledger is the append-only audit log of journal entries and exports.
type Ledger interface {
	Append(ctx context.Context, entry model.JournalEntry, sourceType model.SourceType, sourceFile string, learningApplied bool) (string, error)
	AppendBatch(ctx context.Context, entries []model.JournalEntry, sourceFiles []string, sourceType model.SourceType, learningFlags []bool) ([]BatchResult, error)
	QueryHistory(ctx context.Context, filter HistoryFilter) ([]model.HistoryRecord, error)
	GetHistoryRecord(ctx context.Context, id string) (*model.HistoryRecord, error)
	GetHistoryByExport(ctx context.Context, exportID string) ([]model.HistoryRecord, error)
	Stats(ctx context.Context) (*model.LedgerStats, error)

	RecordExport(ctx context.Context, filename string, ids []string) (*model.ExportRecord, error)
	ListExports(ctx context.Context, limit int) ([]model.ExportRecord, error)
	GetExportRecord(ctx context.Context, id string) (*model.ExportRecord, error)
}

// Storage is the full persistence layer.
type Storage interface {
	LearningStore
	Ledger

	Migrate(ctx context.Context) error
	Close() error
}
