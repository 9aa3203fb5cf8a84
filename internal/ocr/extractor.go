package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
)

// Extractor reads structured invoice fields from a document on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) (model.OCRFields, error)
}

// MediaTypePDF is sent as a document block rather than an image.
const MediaTypePDF = "application/pdf"

var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  MediaTypePDF,
}

// MediaType returns the upload media type for path based on its extension.
func MediaType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mt, ok := mediaTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	return mt, nil
}

// IsSupported reports whether path has an extension the extractor can read.
func IsSupported(path string) bool {
	_, err := MediaType(path)
	return err == nil
}
