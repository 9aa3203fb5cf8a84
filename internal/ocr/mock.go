package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
)

// MockExtractor returns canned fields keyed by file base name.
type MockExtractor struct {
	Fields map[string]model.OCRFields
	Errors map[string]error
	calls  []string
	mu     sync.Mutex
}

// NewMockExtractor creates an empty mock.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Fields: make(map[string]model.OCRFields),
		Errors: make(map[string]error),
	}
}

// Extract returns the configured result for path.
func (m *MockExtractor) Extract(ctx context.Context, path string) (model.OCRFields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)

	if err := ctx.Err(); err != nil {
		return model.OCRFields{}, err
	}
	name := filepath.Base(path)
	if err, ok := m.Errors[name]; ok {
		return model.OCRFields{}, err
	}
	if f, ok := m.Fields[name]; ok {
		return f, nil
	}
	return model.OCRFields{}, fmt.Errorf("%w: no mock result for %s", common.ErrOCRFailed, name)
}

// Calls returns the paths passed to Extract, in order.
func (m *MockExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
