package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/Veraticus/shiwake/internal/storage"
	"github.com/gin-gonic/gin"
)

func (s *Server) appendEntry(c *gin.Context) {
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.SourceType == "" {
		req.SourceType = model.SourceManual
	}

	id, err := s.ledger.Append(c.Request.Context(), *req.Entry, req.SourceType, req.SourceFile, req.LearningApplied)
	if err != nil {
		respondError(c, err, "Failed to append entry")
		return
	}

	loggerFrom(c).Info("Appended ledger entry", slog.String("history_id", id))
	c.JSON(http.StatusCreated, gin.H{"entry_id": id})
}

func (s *Server) appendBatch(c *gin.Context) {
	var req appendBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.SourceType == "" {
		req.SourceType = model.SourceOCRBatch
	}
	n := len(req.Entries)
	if req.SourceFiles != nil && len(req.SourceFiles) != n {
		respondError(c, fmt.Errorf("%w: %d source files for %d entries", storage.ErrLengthMismatch, len(req.SourceFiles), n), "Failed to append entries")
		return
	}
	if req.LearningAppliedFlags != nil && len(req.LearningAppliedFlags) != n {
		respondError(c, fmt.Errorf("%w: %d learning flags for %d entries", storage.ErrLengthMismatch, len(req.LearningAppliedFlags), n), "Failed to append entries")
		return
	}

	// Entries that fail to decode are reported in place; the rest are appended.
	items := make([]batchItem, n)
	var (
		entries []model.JournalEntry
		files   []string
		flags   []bool
		index   []int
	)
	for i, raw := range req.Entries {
		items[i].Index = i
		var entry model.JournalEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			items[i].Error = (&common.ItemError{Index: i, Name: sourceFileAt(req.SourceFiles, i), Err: err}).Error()
			continue
		}
		entries = append(entries, entry)
		index = append(index, i)
		if req.SourceFiles != nil {
			files = append(files, req.SourceFiles[i])
		}
		if req.LearningAppliedFlags != nil {
			flags = append(flags, req.LearningAppliedFlags[i])
		}
	}

	var ids []string
	if len(entries) > 0 {
		results, err := s.ledger.AppendBatch(c.Request.Context(), entries, files, req.SourceType, flags)
		if err != nil {
			respondError(c, err, "Failed to append entries")
			return
		}
		for _, r := range results {
			i := index[r.Index]
			var ie *common.ItemError
			if errors.As(r.Err, &ie) {
				ie.Index = i
			}
			items[i].EntryID = r.ID
			if r.Err != nil {
				items[i].Error = r.Err.Error()
				continue
			}
			ids = append(ids, r.ID)
		}
	}
	if ids == nil {
		ids = []string{}
	}

	status := http.StatusCreated
	if len(ids) < n {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"results": items, "entry_ids": ids, "count": len(ids)})
}

func sourceFileAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func (s *Server) listEntries(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	filter := service.HistoryFilter{
		Exported:   q.Exported,
		SourceType: model.SourceType(q.SourceType),
		SourceFile: q.SourceFile,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if filter.SourceType != "" && !filter.SourceType.IsValid() {
		respondError(c, fmt.Errorf("%w: %q", storage.ErrInvalidSource, q.SourceType), "Invalid source type")
		return
	}

	records, err := s.ledger.QueryHistory(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to query history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": records, "count": len(records)})
}

func (s *Server) getEntry(c *gin.Context) {
	rec, err := s.ledger.GetHistoryRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get entry")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.ledger.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) listExports(c *gin.Context) {
	var q exportsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	exports, err := s.ledger.ListExports(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err, "Failed to list exports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": exports, "count": len(exports)})
}

func (s *Server) getExport(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	rec, err := s.ledger.GetExportRecord(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to get export")
		return
	}
	entries, err := s.ledger.GetHistoryByExport(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to get exported entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"export": rec, "entries": entries})
}

func (s *Server) recordExport(c *gin.Context) {
	var req recordExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rec, err := s.ledger.RecordExport(c.Request.Context(), req.Filename, req.EntryIDs)
	if err != nil {
		respondError(c, err, "Failed to record export")
		return
	}
	c.JSON(http.StatusCreated, rec)
}
