package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Veraticus/shiwake/internal/bank"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/gin-gonic/gin"
)

// importStatement parses an uploaded statement CSV and returns a suggested
// entry for every line. Nothing is appended to the ledger.
func (s *Server) importStatement(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		bindError(c, err)
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".csv" {
		respondError(c, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext), "Unsupported statement file")
		return
	}
	format, err := bank.ParseFormat(c.PostForm("bank_type"))
	if err != nil {
		respondError(c, err, "Unknown statement format")
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer f.Close()

	res, err := s.importer.Import(f, bank.Options{Format: format, BankID: c.PostForm("bank_id")})
	if err != nil {
		respondError(c, err, "Failed to import statement")
		return
	}

	loggerFrom(c).Info("Imported statement",
		slog.String("filename", file.Filename),
		slog.Int("lines", res.Summary.Total),
		slog.Int("needs_review", res.Summary.NeedsReview),
	)
	c.JSON(http.StatusOK, res)
}

func (s *Server) matchTransaction(c *gin.Context) {
	var req bankMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	date, err := parseRequestDate(req.Date)
	if err != nil {
		bindError(c, err)
		return
	}

	line, err := s.importer.Suggest(bank.Transaction{
		Date:        date,
		Description: req.Description,
		Deposit:     req.Deposit,
		Withdrawal:  req.Withdrawal,
	}, req.BankID)
	if err != nil {
		respondError(c, err, "Failed to match transaction")
		return
	}
	c.JSON(http.StatusOK, line)
}
