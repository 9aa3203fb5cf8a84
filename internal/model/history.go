package model

import "time"

// SourceType tells where a ledger entry came from.
type SourceType string

// Source type constants.
const (
	SourceOCRBatch  SourceType = "ocr_batch"
	SourceOCRSingle SourceType = "ocr_single"
	SourceManual    SourceType = "manual"
	SourceSales     SourceType = "sales"
	SourcePurchase  SourceType = "purchase"
	SourcePayment   SourceType = "payment"
)

// IsValid reports whether s is a known source type.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceOCRBatch, SourceOCRSingle, SourceManual, SourceSales, SourcePurchase, SourcePayment:
		return true
	}
	return false
}

// HistoryRecord is one immutable ledger row. Only Exported, ExportedAt and
// ExportID change, once, when the record is first included in an export.
type HistoryRecord struct {
	CreatedAt       time.Time    `json:"created_at"`
	ExportedAt      *time.Time   `json:"exported_at,omitempty"`
	ID              string       `json:"id"`
	SourceType      SourceType   `json:"source_type"`
	SourceFile      string       `json:"source_file,omitempty"`
	ExportID        string       `json:"export_id,omitempty"`
	Entry           JournalEntry `json:"entry"`
	LearningApplied bool         `json:"learning_applied"`
	Exported        bool         `json:"exported"`
}

// ExportRecord logs one CSV generation and the ledger rows it covered.
type ExportRecord struct {
	ExportedAt time.Time `json:"exported_at"`
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	HistoryIDs []string  `json:"entry_ids"`
	// SkippedIDs were requested but not present in the ledger.
	SkippedIDs []string `json:"skipped_ids,omitempty"`
	EntryCount int      `json:"entry_count"`
}

// LedgerStats summarizes the audit ledger at a point in time.
type LedgerStats struct {
	BySourceType map[SourceType]int `json:"entries_by_source_type"`
	Total        int                `json:"total_entries"`
	Exported     int                `json:"exported_entries"`
	Unexported   int                `json:"unexported_entries"`
	TotalExports int                `json:"total_exports"`
}
