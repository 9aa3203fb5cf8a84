package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const csvContentType = "text/csv; charset=Shift_JIS"

// generateCSV encodes the requested ledger entries, records the export and
// returns the file as an attachment.
func (s *Server) generateCSV(c *gin.Context) {
	var req generateCSVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := s.pipeline.Export(c.Request.Context(), req.EntryIDs)
	if err != nil {
		respondError(c, err, "Failed to generate CSV")
		return
	}

	loggerFrom(c).Info("Generated CSV",
		slog.String("export_id", res.Record.ID),
		slog.String("filename", res.File.Filename),
		slog.Int("rows", res.File.Rows))

	c.Header("Content-Disposition", `attachment; filename="`+res.File.Filename+`"`)
	c.Header("X-Export-ID", res.Record.ID)
	c.Header("X-Skipped-Count", strconv.Itoa(len(res.Record.SkippedIDs)))
	c.Header("X-Substitutions", strconv.Itoa(res.File.Substitutions))
	c.Data(http.StatusOK, csvContentType, res.File.Data)
}
