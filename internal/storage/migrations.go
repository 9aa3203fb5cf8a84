package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/shiwake/internal/common"
)

// ExpectedSchemaVersion is the schema version this build reads and writes.
// Migrate fails if the database ends up at any other version.
const ExpectedSchemaVersion = 3

// Migration is one schema step. Its statements run in a single transaction
// together with the user_version bump.
type Migration struct {
	Description string
	Statements  []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Learning store",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS learning_records (
				signature TEXT PRIMARY KEY,
				issuer TEXT NOT NULL,
				direction TEXT NOT NULL,
				debit_account TEXT NOT NULL,
				debit_sub_account TEXT NOT NULL DEFAULT '',
				debit_tax_category TEXT NOT NULL DEFAULT '',
				credit_account TEXT NOT NULL,
				credit_sub_account TEXT NOT NULL DEFAULT '',
				credit_tax_category TEXT NOT NULL DEFAULT '',
				correction_count INTEGER NOT NULL DEFAULT 1,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE INDEX idx_learning_updated ON learning_records(updated_at)`,
		},
	},
	{
		Version:     2,
		Description: "Audit ledger and export log",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS history_records (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT UNIQUE NOT NULL,
				entry_date TEXT NOT NULL,
				debit_account TEXT NOT NULL,
				debit_sub_account TEXT NOT NULL DEFAULT '',
				debit_tax_category TEXT NOT NULL DEFAULT '',
				debit_amount INTEGER NOT NULL,
				credit_account TEXT NOT NULL,
				credit_sub_account TEXT NOT NULL DEFAULT '',
				credit_tax_category TEXT NOT NULL DEFAULT '',
				credit_amount INTEGER NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				source_type TEXT NOT NULL,
				source_file TEXT NOT NULL DEFAULT '',
				learning_applied INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				exported INTEGER NOT NULL DEFAULT 0,
				exported_at INTEGER,
				export_id TEXT
			)`,
			`CREATE INDEX idx_history_created ON history_records(created_at, seq)`,
			`CREATE INDEX idx_history_exported ON history_records(exported)`,
			`CREATE INDEX idx_history_source_file ON history_records(source_file)`,
			`CREATE INDEX idx_history_export_id ON history_records(export_id)`,

			`CREATE TABLE IF NOT EXISTS export_records (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT UNIQUE NOT NULL,
				filename TEXT NOT NULL,
				exported_at INTEGER NOT NULL,
				entry_count INTEGER NOT NULL,
				skipped_ids TEXT NOT NULL DEFAULT '[]'
			)`,
			`CREATE INDEX idx_exports_exported_at ON export_records(exported_at, seq)`,

			`CREATE TABLE IF NOT EXISTS export_entries (
				export_id TEXT NOT NULL,
				position INTEGER NOT NULL,
				history_id TEXT NOT NULL,
				PRIMARY KEY (export_id, position),
				FOREIGN KEY (export_id) REFERENCES export_records(id),
				FOREIGN KEY (history_id) REFERENCES history_records(id)
			)`,
			`CREATE INDEX idx_export_entries_history ON export_entries(history_id)`,
		},
	},
	{
		Version:     3,
		Description: "Ledger immutability triggers",
		Statements: []string{
			`CREATE TRIGGER history_snapshot_immutable
			BEFORE UPDATE OF id, entry_date, debit_account, debit_sub_account, debit_tax_category,
				debit_amount, credit_account, credit_sub_account, credit_tax_category, credit_amount,
				description, source_type, source_file, learning_applied, created_at, seq
			ON history_records
			BEGIN
				SELECT RAISE(ABORT, 'history records are immutable');
			END`,
			`CREATE TRIGGER history_export_once
			BEFORE UPDATE OF exported, exported_at, export_id ON history_records
			WHEN OLD.exported = 1 OR NEW.exported <> 1
			BEGIN
				SELECT RAISE(ABORT, 'history records are immutable: export state is final');
			END`,
			`CREATE TRIGGER history_no_delete
			BEFORE DELETE ON history_records
			BEGIN
				SELECT RAISE(ABORT, 'history records are immutable: delete not allowed');
			END`,
			`CREATE TRIGGER export_records_immutable
			BEFORE UPDATE ON export_records
			BEGIN
				SELECT RAISE(ABORT, 'export records are immutable');
			END`,
			`CREATE TRIGGER export_records_no_delete
			BEFORE DELETE ON export_records
			BEGIN
				SELECT RAISE(ABORT, 'export records are immutable: delete not allowed');
			END`,
			`CREATE TRIGGER export_entries_immutable
			BEFORE UPDATE ON export_entries
			BEGIN
				SELECT RAISE(ABORT, 'export records are immutable');
			END`,
			`CREATE TRIGGER export_entries_no_delete
			BEFORE DELETE ON export_entries
			BEGIN
				SELECT RAISE(ABORT, 'export records are immutable: delete not allowed');
			END`,
		},
	},
}

// Migrate applies every migration newer than the recorded user_version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > ExpectedSchemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than supported %d", common.ErrDatabaseCorrupted, current, ExpectedSchemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

func (s *SQLiteStorage) applyMigration(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
