package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/google/uuid"
)

// RecordExport logs one CSV generation covering ids and marks the covered
// records exported. Unknown ids are skipped and reported in SkippedIDs.
// Records that were already exported are listed but keep their first export linkage.
func (s *SQLiteStorage) RecordExport(ctx context.Context, filename string, ids []string) (*model.ExportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(filename, "filename"); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids", ErrEmptySlice)
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec := &model.ExportRecord{
		ID:         uuid.NewString(),
		Filename:   filename,
		ExportedAt: s.now(),
		HistoryIDs: []string{},
	}

	seen := make(map[string]bool, len(ids))
	var fresh []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		var exported bool
		err := tx.QueryRowContext(ctx, `SELECT exported FROM history_records WHERE id = ?`, id).Scan(&exported)
		if errors.Is(err, sql.ErrNoRows) {
			rec.SkippedIDs = append(rec.SkippedIDs, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up history record %s: %w", id, err)
		}
		rec.HistoryIDs = append(rec.HistoryIDs, id)
		if !exported {
			fresh = append(fresh, id)
		}
	}
	rec.EntryCount = len(rec.HistoryIDs)

	skipped, err := json.Marshal(rec.SkippedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode skipped ids: %w", err)
	}
	if rec.SkippedIDs == nil {
		skipped = []byte("[]")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO export_records (id, filename, exported_at, entry_count, skipped_ids)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, toNanos(rec.ExportedAt), rec.EntryCount, string(skipped),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert export record: %w", err)
	}

	for pos, id := range rec.HistoryIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO export_entries (export_id, position, history_id) VALUES (?, ?, ?)`,
			rec.ID, pos, id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to link history record %s: %w", id, immutableError(err))
		}
	}

	for _, id := range fresh {
		_, err := tx.ExecContext(ctx, `
			UPDATE history_records SET exported = 1, exported_at = ?, export_id = ?
			WHERE id = ? AND exported = 0`,
			toNanos(rec.ExportedAt), rec.ID, id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark history record %s exported: %w", id, immutableError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit export: %w", err)
	}

	if len(rec.SkippedIDs) > 0 {
		common.LogWarn("Export referenced unknown history records", common.Fields{
			"export_id":   rec.ID,
			"filename":    rec.Filename,
			"skipped_ids": rec.SkippedIDs,
		})
	}
	if already := rec.EntryCount - len(fresh); already > 0 {
		common.LogInfo("Export includes previously exported records", common.Fields{
			"export_id": rec.ID,
			"count":     already,
		})
	}
	return rec, nil
}

// ListExports returns export records newest first. limit <= 0 means no limit.
func (s *SQLiteStorage) ListExports(ctx context.Context, limit int) ([]model.ExportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, filename, exported_at, entry_count, skipped_ids
		FROM export_records ORDER BY exported_at DESC, seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	records := []model.ExportRecord{}
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range records {
		ids, err := exportHistoryIDs(ctx, tx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].HistoryIDs = ids
	}
	return records, nil
}

// GetExportRecord returns one export record by id.
func (s *SQLiteStorage) GetExportRecord(ctx context.Context, id string) (*model.ExportRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, exported_at, entry_count, skipped_ids
		FROM export_records WHERE id = ?`, id)
	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export record %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export record: %w", err)
	}

	ids, err := exportHistoryIDs(ctx, s.db, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.HistoryIDs = ids
	return rec, nil
}

func exportHistoryIDs(ctx context.Context, q queryable, exportID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT history_id FROM export_entries WHERE export_id = ? ORDER BY position`, exportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query export entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan export entry: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanExport(row scanner) (*model.ExportRecord, error) {
	var (
		rec        model.ExportRecord
		exportedAt int64
		skipped    string
	)
	if err := row.Scan(&rec.ID, &rec.Filename, &exportedAt, &rec.EntryCount, &skipped); err != nil {
		return nil, err
	}
	rec.ExportedAt = fromNanos(exportedAt)
	if err := json.Unmarshal([]byte(skipped), &rec.SkippedIDs); err != nil {
		return nil, fmt.Errorf("%w: export %s skipped ids: %v", common.ErrDatabaseCorrupted, rec.ID, err)
	}
	if len(rec.SkippedIDs) == 0 {
		rec.SkippedIDs = nil
	}
	return &rec, nil
}
