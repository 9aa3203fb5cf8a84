package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/gin-gonic/gin"
)

// invoiceResult is one processed upload. Uploads are classified only;
// the client appends accepted entries to history itself.
type invoiceResult struct {
	Fields     *model.OCRFields   `json:"fields,omitempty"`
	Suggestion *engine.Suggestion `json:"suggestion,omitempty"`
	Filename   string             `json:"filename"`
	Error      string             `json:"error,omitempty"`
	Index      int                `json:"index"`
}

func (s *Server) uploadInvoice(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		bindError(c, err)
		return
	}
	direction, ok := directionParam(c)
	if !ok {
		return
	}

	results, err := s.processUploads(c, []*multipart.FileHeader{file}, engine.ProcessOptions{
		Direction:  direction,
		SourceType: model.SourceOCRSingle,
	})
	if err != nil {
		respondError(c, err, "Failed to store upload")
		return
	}

	res := results[0]
	if res.Err != nil {
		respondError(c, res.Err, "Failed to process invoice")
		return
	}
	c.JSON(http.StatusOK, invoiceResult{
		Filename:   file.Filename,
		Fields:     &res.Fields,
		Suggestion: res.Suggestion,
	})
}

func (s *Server) uploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		bindError(c, err)
		return
	}
	files := form.File["files"]
	switch {
	case len(files) == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	case len(files) > s.maxBatch:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("too many files: %d (max %d)", len(files), s.maxBatch)})
		return
	}
	direction, ok := directionParam(c)
	if !ok {
		return
	}

	results, err := s.processUploads(c, files, engine.ProcessOptions{
		Direction:  direction,
		SourceType: model.SourceOCRBatch,
	})
	if err != nil {
		respondError(c, err, "Failed to store upload")
		return
	}

	out := make([]invoiceResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = invoiceResult{Index: i, Filename: files[i].Filename}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			failed++
			continue
		}
		out[i].Fields = &res.Fields
		out[i].Suggestion = res.Suggestion
	}

	loggerFrom(c).Info("Processed invoice batch",
		slog.Int("files", len(files)),
		slog.Int("failed", failed))
	c.JSON(http.StatusOK, gin.H{
		"results":   out,
		"total":     len(files),
		"succeeded": len(files) - failed,
		"failed":    failed,
	})
}

// processUploads saves files to a scratch directory and classifies them in
// a dry run. Unsupported formats fail per file without reaching OCR.
func (s *Server) processUploads(c *gin.Context, files []*multipart.FileHeader, opts engine.ProcessOptions) ([]engine.ProcessResult, error) {
	dir, err := os.MkdirTemp(s.uploadDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	results := make([]engine.ProcessResult, len(files))
	var (
		paths   []string
		indexes []int
	)
	for i, fh := range files {
		name := uploadName(fh.Filename)
		results[i] = engine.ProcessResult{Index: i, Path: name}
		if !ocr.IsSupported(name) {
			results[i].Err = &common.ItemError{Index: i, Name: name, Err: common.ErrUnsupportedFormat}
			continue
		}

		// One subdirectory per file keeps duplicate names apart.
		path := filepath.Join(dir, strconv.Itoa(i), name)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		if err := c.SaveUploadedFile(fh, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", name, err)
		}
		paths = append(paths, path)
		indexes = append(indexes, i)
	}

	opts.DryRun = true
	for res := range s.pipeline.Process(c.Request.Context(), paths, opts) {
		i := indexes[res.Index]
		res.Index = i
		var itemErr *common.ItemError
		if errors.As(res.Err, &itemErr) {
			itemErr.Index = i
		}
		results[i] = res
	}
	for i := range results {
		if results[i].Err == nil && results[i].Suggestion == nil {
			results[i].Err = c.Request.Context().Err()
		}
	}
	return results, nil
}

func directionParam(c *gin.Context) (model.Direction, bool) {
	d := model.Direction(c.PostForm("direction"))
	if d != "" && !d.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction %q", d)})
		return "", false
	}
	return d, true
}

func uploadName(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return "upload"
	}
	return name
}
