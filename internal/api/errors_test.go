package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Veraticus/shiwake/internal/bank"
	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/storage"
	"github.com/Veraticus/shiwake/internal/yayoi"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "not found", err: fmt.Errorf("history record x: %w", common.ErrNotFound), want: http.StatusNotFound},
		{name: "immutable", err: fmt.Errorf("failed to mark history record x exported: %w", fmt.Errorf("%w: history records are immutable", common.ErrImmutable)), want: http.StatusConflict},
		{name: "row errors", err: &yayoi.RowErrors{}, want: http.StatusUnprocessableEntity},
		{name: "length mismatch", err: fmt.Errorf("%w: 1 source files for 2 entries", storage.ErrLengthMismatch), want: http.StatusBadRequest},
		{name: "classification", err: &engine.ClassificationError{Field: "amount", Err: engine.ErrInvalidAmount}, want: http.StatusBadRequest},
		{name: "unknown bank", err: fmt.Errorf("%w: \"x\"", engine.ErrUnknownBank), want: http.StatusBadRequest},
		{name: "unknown rule", err: engine.ErrUnknownRule, want: http.StatusBadRequest},
		{name: "invalid statement", err: bank.ErrInvalidStatement, want: http.StatusBadRequest},
		{name: "unsupported", err: common.ErrUnsupportedFormat, want: http.StatusUnsupportedMediaType},
		{name: "no extractor", err: engine.ErrNoExtractor, want: http.StatusServiceUnavailable},
		{name: "ocr", err: common.ErrOCRFailed, want: http.StatusBadGateway},
		{name: "other", err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
