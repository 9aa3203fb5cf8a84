package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/google/uuid"
)

const historyColumns = `h.id, h.entry_date,
	h.debit_account, h.debit_sub_account, h.debit_tax_category, h.debit_amount,
	h.credit_account, h.credit_sub_account, h.credit_tax_category, h.credit_amount,
	h.description, h.source_type, h.source_file, h.learning_applied,
	h.created_at, h.exported, h.exported_at, h.export_id`

// Append records an immutable snapshot of entry and returns its new id.
func (s *SQLiteStorage) Append(ctx context.Context, entry model.JournalEntry, sourceType model.SourceType, sourceFile string, learningApplied bool) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateSourceType(sourceType); err != nil {
		return "", err
	}
	if err := validateEntry(entry); err != nil {
		return "", err
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	return s.appendTx(ctx, s.db, entry, sourceType, sourceFile, learningApplied)
}

// AppendBatch appends entries one by one. sourceFiles and learningFlags are
// optional positional arrays; when non-nil they must match len(entries).
// Each element succeeds or fails on its own and earlier successes are kept.
func (s *SQLiteStorage) AppendBatch(ctx context.Context, entries []model.JournalEntry, sourceFiles []string, sourceType model.SourceType, learningFlags []bool) ([]service.BatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateSourceType(sourceType); err != nil {
		return nil, err
	}
	if sourceFiles != nil && len(sourceFiles) != len(entries) {
		return nil, fmt.Errorf("%w: %d source files for %d entries", ErrLengthMismatch, len(sourceFiles), len(entries))
	}
	if learningFlags != nil && len(learningFlags) != len(entries) {
		return nil, fmt.Errorf("%w: %d learning flags for %d entries", ErrLengthMismatch, len(learningFlags), len(entries))
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	results := make([]service.BatchResult, len(entries))
	for i, entry := range entries {
		results[i].Index = i

		var sourceFile string
		if sourceFiles != nil {
			sourceFile = sourceFiles[i]
		}
		learned := learningFlags != nil && learningFlags[i]

		if err := validateEntry(entry); err != nil {
			results[i].Err = &common.ItemError{Index: i, Name: sourceFile, Err: err}
			continue
		}
		id, err := s.appendTx(ctx, s.db, entry, sourceType, sourceFile, learned)
		if err != nil {
			results[i].Err = &common.ItemError{Index: i, Name: sourceFile, Err: err}
			continue
		}
		results[i].ID = id
	}
	return results, nil
}

func (s *SQLiteStorage) appendTx(ctx context.Context, q queryable, entry model.JournalEntry, sourceType model.SourceType, sourceFile string, learningApplied bool) (string, error) {
	e := entry.Snapshot()
	id := uuid.NewString()

	_, err := q.ExecContext(ctx, `
		INSERT INTO history_records (
			id, entry_date,
			debit_account, debit_sub_account, debit_tax_category, debit_amount,
			credit_account, credit_sub_account, credit_tax_category, credit_amount,
			description, source_type, source_file, learning_applied, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.Date.Format(model.DateLayout),
		e.DebitAccount, e.DebitSubAccount, e.DebitTaxCategory, e.DebitAmount,
		e.CreditAccount, e.CreditSubAccount, e.CreditTaxCategory, e.CreditAmount,
		e.Description, string(sourceType), sourceFile, learningApplied, toNanos(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to append history record: %w", err)
	}

	common.LogDebug("Appended history record", common.Fields{
		"history_id":  id,
		"source_type": sourceType,
		"source_file": sourceFile,
	})
	return id, nil
}

// QueryHistory returns ledger records newest first, ties broken by insertion order.
func (s *SQLiteStorage) QueryHistory(ctx context.Context, filter service.HistoryFilter) ([]model.HistoryRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Exported != nil {
		where = append(where, "h.exported = ?")
		args = append(args, *filter.Exported)
	}
	if filter.SourceType != "" {
		where = append(where, "h.source_type = ?")
		args = append(args, string(filter.SourceType))
	}
	if filter.SourceFile != "" {
		where = append(where, "h.source_file = ?")
		args = append(args, filter.SourceFile)
	}

	query := `SELECT ` + historyColumns + ` FROM history_records h`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY h.created_at DESC, h.seq DESC"

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(filter.Offset, 0))
	}

	return s.queryHistoryRows(ctx, s.db, query, args...)
}

// GetHistoryRecord returns one ledger record by id.
func (s *SQLiteStorage) GetHistoryRecord(ctx context.Context, id string) (*model.HistoryRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM history_records h WHERE h.id = ?`, id)
	rec, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history record %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

// GetHistoryByExport returns the records an export covered, in export order.
func (s *SQLiteStorage) GetHistoryByExport(ctx context.Context, exportID string) ([]model.HistoryRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(exportID, "exportID"); err != nil {
		return nil, err
	}

	return s.queryHistoryRows(ctx, s.db, `
		SELECT `+historyColumns+`
		FROM export_entries ee
		JOIN history_records h ON h.id = ee.history_id
		WHERE ee.export_id = ?
		ORDER BY ee.position`, exportID)
}

// Stats summarizes the ledger inside a single read transaction so the
// counts are mutually consistent.
func (s *SQLiteStorage) Stats(ctx context.Context) (*model.LedgerStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stats := &model.LedgerStats{BySourceType: make(map[model.SourceType]int)}
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(exported), 0) FROM history_records`,
	).Scan(&stats.Total, &stats.Exported)
	if err != nil {
		return nil, fmt.Errorf("failed to count history records: %w", err)
	}
	stats.Unexported = stats.Total - stats.Exported

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM export_records`).Scan(&stats.TotalExports); err != nil {
		return nil, fmt.Errorf("failed to count export records: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT source_type, COUNT(*) FROM history_records GROUP BY source_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by source type: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			st    string
			count int
		)
		if err := rows.Scan(&st, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source type count: %w", err)
		}
		stats.BySourceType[model.SourceType(st)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SQLiteStorage) queryHistoryRows(ctx context.Context, q queryable, query string, args ...any) ([]model.HistoryRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []model.HistoryRecord{}
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanHistory(row scanner) (*model.HistoryRecord, error) {
	var (
		rec        model.HistoryRecord
		date       string
		sourceType string
		createdAt  int64
		exportedAt sql.NullInt64
		exportID   sql.NullString
	)
	e := &rec.Entry
	err := row.Scan(
		&rec.ID, &date,
		&e.DebitAccount, &e.DebitSubAccount, &e.DebitTaxCategory, &e.DebitAmount,
		&e.CreditAccount, &e.CreditSubAccount, &e.CreditTaxCategory, &e.CreditAmount,
		&e.Description, &sourceType, &rec.SourceFile, &rec.LearningApplied,
		&createdAt, &rec.Exported, &exportedAt, &exportID,
	)
	if err != nil {
		return nil, err
	}

	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: history record %s has date %q", common.ErrDatabaseCorrupted, rec.ID, date)
	}
	e.Date = d
	e.HistoryID = rec.ID
	rec.SourceType = model.SourceType(sourceType)
	rec.CreatedAt = fromNanos(createdAt)
	if exportedAt.Valid {
		t := fromNanos(exportedAt.Int64)
		rec.ExportedAt = &t
	}
	if exportID.Valid {
		rec.ExportID = exportID.String
	}
	return &rec, nil
}
