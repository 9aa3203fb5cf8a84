package api

import (
	"encoding/json"

	"github.com/Veraticus/shiwake/internal/model"
)

type classifyRequest struct {
	Fields    *model.OCRFields `json:"fields" binding:"required"`
	Direction model.Direction  `json:"direction" binding:"omitempty,oneof=sales purchase"`
}

type appendRequest struct {
	Entry           *model.JournalEntry `json:"entry" binding:"required"`
	SourceType      model.SourceType    `json:"source_type"`
	SourceFile      string              `json:"source_file"`
	LearningApplied bool                `json:"learning_applied"`
}

type appendBatchRequest struct {
	SourceType           model.SourceType  `json:"source_type"`
	Entries              []json.RawMessage `json:"entries" binding:"required,min=1"`
	SourceFiles          []string          `json:"source_files"`
	LearningAppliedFlags []bool            `json:"learning_applied_flags"`
}

type batchItem struct {
	EntryID string `json:"entry_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Index   int    `json:"index"`
}

type historyQuery struct {
	Exported   *bool  `form:"exported"`
	SourceType string `form:"source_type"`
	SourceFile string `form:"source_file"`
	Limit      int    `form:"limit,default=100" binding:"min=0"`
	Offset     int    `form:"offset" binding:"min=0"`
}

type exportsQuery struct {
	Limit int `form:"limit,default=50" binding:"min=0"`
}

type recordExportRequest struct {
	Filename string   `json:"filename" binding:"required"`
	EntryIDs []string `json:"entry_ids" binding:"required,min=1"`
}

type generateCSVRequest struct {
	EntryIDs []string `json:"entry_ids" binding:"required,min=1"`
}

type learnRequest struct {
	Original  *model.OCRFields    `json:"original" binding:"required"`
	Corrected *model.JournalEntry `json:"corrected" binding:"required"`
	Direction model.Direction     `json:"direction" binding:"omitempty,oneof=sales purchase"`
}

type entryRequest struct {
	Amount      *int64 `json:"amount" binding:"required,min=0"`
	Date        string `json:"date" binding:"required"`
	VendorName  string `json:"vendor_name" binding:"required"`
	Description string `json:"description"`
	Rule        string `json:"rule"`
	BankID      string `json:"bank_id"`
	Append      bool   `json:"append"`
}

type bankMatchRequest struct {
	Description string `json:"description" binding:"required"`
	Date        string `json:"date"`
	BankID      string `json:"bank_id"`
	Deposit     int64  `json:"deposit" binding:"min=0"`
	Withdrawal  int64  `json:"withdrawal" binding:"min=0"`
}
