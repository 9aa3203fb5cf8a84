package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
)

const learningColumns = `signature, issuer, direction,
	debit_account, debit_sub_account, debit_tax_category,
	credit_account, credit_sub_account, credit_tax_category,
	correction_count, created_at, updated_at`

// LookupLearning returns the learning record for a signature, or common.ErrNotFound.
func (s *SQLiteStorage) LookupLearning(ctx context.Context, signature string) (*model.LearningRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(signature, "signature"); err != nil {
		return nil, err
	}
	return s.lookupLearningTx(ctx, s.db, signature)
}

func (s *SQLiteStorage) lookupLearningTx(ctx context.Context, q queryable, signature string) (*model.LearningRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+learningColumns+` FROM learning_records WHERE signature = ?`, signature)
	rec, err := scanLearning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("learning record %q: %w", signature, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query learning record: %w", err)
	}
	return rec, nil
}

// UpsertLearning stores the latest correction for a signature.
// A record whose UpdatedAt is older than the stored one is ignored, so the
// most recent correction always wins regardless of arrival order.
func (s *SQLiteStorage) UpsertLearning(ctx context.Context, record *model.LearningRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLearning(record); err != nil {
		return err
	}

	rec := *record
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	if rec.CorrectionCount <= 0 {
		rec.CorrectionCount = 1
	}
	m := rec.Mapping.WithDefaults()

	s.learnMu.Lock()
	defer s.learnMu.Unlock()

	prev, err := s.lookupLearningTx(ctx, s.db, rec.Signature)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_records (`+learningColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			issuer = excluded.issuer,
			direction = excluded.direction,
			debit_account = excluded.debit_account,
			debit_sub_account = excluded.debit_sub_account,
			debit_tax_category = excluded.debit_tax_category,
			credit_account = excluded.credit_account,
			credit_sub_account = excluded.credit_sub_account,
			credit_tax_category = excluded.credit_tax_category,
			correction_count = learning_records.correction_count + 1,
			updated_at = excluded.updated_at
		WHERE excluded.updated_at >= learning_records.updated_at`,
		rec.Signature, rec.Issuer, string(rec.Direction),
		m.DebitAccount, m.DebitSubAccount, m.DebitTaxCategory,
		m.CreditAccount, m.CreditSubAccount, m.CreditTaxCategory,
		rec.CorrectionCount, toNanos(rec.CreatedAt), toNanos(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learning record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check upserted rows: %w", err)
	}
	switch {
	case n == 0:
		common.LogDebug("Ignored stale learning update", common.Fields{
			"signature":  rec.Signature,
			"updated_at": rec.UpdatedAt,
		})
	case prev != nil && prev.Issuer != rec.Issuer:
		common.LogWarn("Learning signature issuer spelling changed", common.Fields{
			"signature":       rec.Signature,
			"previous_issuer": prev.Issuer,
			"issuer":          rec.Issuer,
		})
	}
	return nil
}

// ListLearning returns all learning records, most recently updated first.
func (s *SQLiteStorage) ListLearning(ctx context.Context) ([]model.LearningRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+learningColumns+` FROM learning_records ORDER BY updated_at DESC, signature`)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.LearningRecord
	for rows.Next() {
		rec, err := scanLearning(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learning record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteLearning removes one learning record.
func (s *SQLiteStorage) DeleteLearning(ctx context.Context, signature string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(signature, "signature"); err != nil {
		return err
	}

	s.learnMu.Lock()
	defer s.learnMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM learning_records WHERE signature = ?`, signature)
	if err != nil {
		return fmt.Errorf("failed to delete learning record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("learning record %q: %w", signature, common.ErrNotFound)
	}
	return nil
}

// ClearLearning removes every learning record and reports how many were deleted.
func (s *SQLiteStorage) ClearLearning(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	s.learnMu.Lock()
	defer s.learnMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM learning_records`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear learning records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted rows: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLearning(row scanner) (*model.LearningRecord, error) {
	var (
		rec                  model.LearningRecord
		direction            string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&rec.Signature, &rec.Issuer, &direction,
		&rec.Mapping.DebitAccount, &rec.Mapping.DebitSubAccount, &rec.Mapping.DebitTaxCategory,
		&rec.Mapping.CreditAccount, &rec.Mapping.CreditSubAccount, &rec.Mapping.CreditTaxCategory,
		&rec.CorrectionCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Direction = model.Direction(direction)
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	return &rec, nil
}
