package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"slices"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/Veraticus/shiwake/internal/yayoi"
)

// Pipeline wires OCR, classification, the ledger and the CSV codec.
type Pipeline struct {
	extractor  ocr.Extractor
	classifier *Classifier
	ledger     service.Ledger
	codec      *yayoi.Codec
}

// NewPipeline creates a pipeline. extractor may be nil when only
// pre-extracted fields and exports are used.
func NewPipeline(extractor ocr.Extractor, classifier *Classifier, ledger service.Ledger, codec *yayoi.Codec) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		classifier: classifier,
		ledger:     ledger,
		codec:      codec,
	}
}

// ProcessOptions controls a processing run.
type ProcessOptions struct {
	Direction  model.Direction
	SourceType model.SourceType
	// DryRun classifies without appending to the ledger.
	DryRun bool
}

// ProcessResult is the outcome for one document.
type ProcessResult struct {
	Err        error
	Suggestion *Suggestion
	Fields     model.OCRFields
	Path       string
	HistoryID  string
	Index      int
}

// ErrNoExtractor is returned when processing files without an OCR backend.
var ErrNoExtractor = errors.New("no OCR extractor configured")

// Process runs OCR, classification and ledger append for each path in order.
// Each document succeeds or fails on its own.
func (p *Pipeline) Process(ctx context.Context, paths []string, opts ProcessOptions) iter.Seq[ProcessResult] {
	sourceType := opts.SourceType
	if sourceType == "" {
		sourceType = model.SourceOCRSingle
		if len(paths) > 1 {
			sourceType = model.SourceOCRBatch
		}
	}

	return func(yield func(ProcessResult) bool) {
		for i, path := range paths {
			res := ProcessResult{Index: i, Path: path}
			if err := p.processOne(ctx, &res, sourceType, opts); err != nil {
				res.Err = &common.ItemError{Index: i, Name: filepath.Base(path), Err: err}
			}
			if !yield(res) || ctx.Err() != nil {
				return
			}
		}
	}
}

func (p *Pipeline) processOne(ctx context.Context, res *ProcessResult, sourceType model.SourceType, opts ProcessOptions) error {
	if p.extractor == nil {
		return ErrNoExtractor
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := p.extractor.Extract(ctx, res.Path)
	if err != nil {
		return err
	}
	res.Fields = fields

	s, err := p.classifier.Classify(ctx, fields, opts.Direction)
	if err != nil {
		return err
	}
	res.Suggestion = s

	if opts.DryRun {
		return nil
	}
	id, err := p.ledger.Append(ctx, s.Entry, sourceType, filepath.Base(res.Path), s.LearningApplied)
	if err != nil {
		return err
	}
	res.HistoryID = id
	s.Entry.HistoryID = id
	return nil
}

// ExportResult is an encoded CSV and the export record logged for it.
type ExportResult struct {
	File   *yayoi.Export
	Record *model.ExportRecord
}

// Export encodes the ledger records named by ids and logs the export.
// Repeated ids are encoded once, in first-seen order. Unknown ids are left
// out of the CSV and reported as skipped. Nothing is recorded when encoding fails.
func (p *Pipeline) Export(ctx context.Context, ids []string) (*ExportResult, error) {
	ids = uniqueIDs(ids)
	entries := make([]model.JournalEntry, 0, len(ids))
	for _, id := range ids {
		rec, err := p.ledger.GetHistoryRecord(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, rec.Entry)
	}

	file, err := p.codec.Encode(entries)
	if err != nil {
		return nil, err
	}

	record, err := p.ledger.RecordExport(ctx, file.Filename, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to record export: %w", err)
	}

	common.LogInfo("Exported journal entries", common.Fields{
		"export_id":     record.ID,
		"filename":      file.Filename,
		"entries":       record.EntryCount,
		"substitutions": file.Substitutions,
	})
	return &ExportResult{File: file, Record: record}, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ExportUnexported exports every record not yet exported, oldest first.
func (p *Pipeline) ExportUnexported(ctx context.Context) (*ExportResult, error) {
	unexported := false
	records, err := p.ledger.QueryHistory(ctx, service.HistoryFilter{Exported: &unexported})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, yayoi.ErrNoEntries
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	slices.Reverse(ids)
	return p.Export(ctx, ids)
}
