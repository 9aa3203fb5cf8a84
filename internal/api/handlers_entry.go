package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/gin-gonic/gin"
)

// createEntry handles the typed entry routes. Entries are returned for
// review unless the request asks for them to be appended.
func (s *Server) createEntry(kind engine.EntryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req entryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		date, err := parseRequestDate(req.Date)
		if err != nil {
			bindError(c, err)
			return
		}

		entry, err := s.journal.Create(kind, engine.EntryRequest{
			Date:        date,
			Vendor:      req.VendorName,
			Description: req.Description,
			Rule:        req.Rule,
			BankID:      req.BankID,
			Amount:      *req.Amount,
		})
		if err != nil {
			respondError(c, err, "Failed to create entry")
			return
		}

		if !req.Append {
			c.JSON(http.StatusOK, gin.H{"kind": kind, "entry": entry})
			return
		}

		id, err := s.ledger.Append(c.Request.Context(), entry, kind.SourceType(), "", false)
		if err != nil {
			respondError(c, err, "Failed to append entry")
			return
		}
		loggerFrom(c).Info("Appended typed entry", slog.String("kind", string(kind)), slog.String("history_id", id))
		c.JSON(http.StatusCreated, gin.H{"kind": kind, "entry": entry, "entry_id": id})
	}
}

// parseRequestDate reads a YYYY-MM-DD date. Empty yields the zero time.
func parseRequestDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", raw)
	}
	return d, nil
}
