package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Veraticus/shiwake/internal/bank"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/storage"
	"github.com/Veraticus/shiwake/internal/yayoi"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		classErr *engine.ClassificationError
		rowErrs  *yayoi.RowErrors
	)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &rowErrs):
		return http.StatusUnprocessableEntity
	case errors.As(err, &classErr),
		errors.Is(err, storage.ErrInvalidEntry),
		errors.Is(err, storage.ErrInvalidSource),
		errors.Is(err, storage.ErrInvalidLearn),
		errors.Is(err, storage.ErrLengthMismatch),
		errors.Is(err, storage.ErrEmptyString),
		errors.Is(err, storage.ErrEmptySlice),
		errors.Is(err, yayoi.ErrNoEntries),
		errors.Is(err, engine.ErrUnknownEntryKind),
		errors.Is(err, engine.ErrMissingVendor),
		errors.Is(err, engine.ErrUnknownRule),
		errors.Is(err, engine.ErrUnknownBank),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, bank.ErrUnknownFormat),
		errors.Is(err, bank.ErrInvalidStatement):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrImmutable):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNoExtractor):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrOCRFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Server errors are logged
// with details and reported with msg only.
func respondError(c *gin.Context, err error, msg string) {
	logger := loggerFrom(c)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": msg})
		return
	}

	logger.Warn(msg, slog.String("error", err.Error()))
	body := gin.H{"error": err.Error()}
	var rowErrs *yayoi.RowErrors
	if errors.As(err, &rowErrs) {
		body["rows"] = rowErrs.Rows
	}
	c.JSON(status, body)
}

func bindError(c *gin.Context, err error) {
	loggerFrom(c).Warn("Invalid request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}
