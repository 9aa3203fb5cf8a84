package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	suggestion, err := s.classifier.Classify(c.Request.Context(), *req.Fields, req.Direction)
	if err != nil {
		respondError(c, err, "Failed to classify document")
		return
	}

	loggerFrom(c).Debug("Classified document",
		slog.String("signature", suggestion.Signature),
		slog.String("rule", suggestion.RuleName))
	c.JSON(http.StatusOK, suggestion)
}

func (s *Server) saveCorrection(c *gin.Context) {
	var req learnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := s.classifier.SubmitCorrection(c.Request.Context(), *req.Original, *req.Corrected, req.Direction); err != nil {
		respondError(c, err, "Failed to save correction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listCorrections(c *gin.Context) {
	records, err := s.learning.ListLearning(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list corrections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": records, "count": len(records)})
}

func (s *Server) deleteCorrection(c *gin.Context) {
	signature := c.Param("signature")
	if err := s.learning.DeleteLearning(c.Request.Context(), signature); err != nil {
		respondError(c, err, "Failed to delete correction")
		return
	}
	loggerFrom(c).Info("Deleted learning record", slog.String("signature", signature))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) clearCorrections(c *gin.Context) {
	n, err := s.learning.ClearLearning(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to clear corrections")
		return
	}
	loggerFrom(c).Info("Cleared learning records", slog.Int("count", n))
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": n})
}
