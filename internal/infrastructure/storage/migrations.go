package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_purchases_tables",
		Up:      migration002AddPurchasesTables,
	},
	{
		Version: 3,
		Name:    "add_notification_settings_table",
		Up:      migration003AddNotificationSettings,
	},
	{
		Version: 4,
		Name:    "add_sweep_runs_table",
		Up:      migration004AddSweepRunsTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		slog.Default().Debug("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// Timestamps are stored as fixed-width UTC text (see timeLayout) so that
// string comparison matches chronological order.

// migration001InitialSchema creates users, profiles, ranges and blacklist
func migration001InitialSchema(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			created_at TEXT NOT NULL,
			last_login TEXT NOT NULL
		)`,

		`CREATE TABLE financial_profiles (
			user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			monthly_salary REAL NOT NULL DEFAULT 0,
			monthly_savings REAL NOT NULL DEFAULT 0,
			current_balance REAL NOT NULL DEFAULT 0,
			consider_savings BOOLEAN NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,

		// seq preserves authoring order among ranges with equal min_amount
		`CREATE TABLE cooling_ranges (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			min_amount REAL NOT NULL,
			max_amount REAL,
			cooling_days INTEGER NOT NULL CHECK (cooling_days > 0),
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_cooling_ranges_user ON cooling_ranges(user_id, min_amount)`,

		`CREATE TABLE categories_blacklist (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_categories_blacklist_user ON categories_blacklist(user_id)`,
	})
}

// migration002AddPurchasesTables creates purchases and purchase_history
func migration002AddPurchasesTables(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE purchases (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			category TEXT NOT NULL,
			url TEXT,
			cooling_until TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			completed_at TEXT
		)`,

		`CREATE INDEX idx_purchases_user ON purchases(user_id, created_at)`,
		`CREATE INDEX idx_purchases_due ON purchases(status, cooling_until)`,

		`CREATE TABLE purchase_history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			purchase_id TEXT REFERENCES purchases(id) ON DELETE SET NULL,
			action TEXT NOT NULL,
			notes TEXT,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_purchase_history_user ON purchase_history(user_id, created_at)`,
	})
}

// migration003AddNotificationSettings creates notification_settings
func migration003AddNotificationSettings(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE notification_settings (
			user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			frequency TEXT NOT NULL DEFAULT 'weekly',
			channel TEXT NOT NULL DEFAULT 'app',
			enabled BOOLEAN NOT NULL DEFAULT 1,
			exclude_categories TEXT NOT NULL DEFAULT '[]',
			last_notification_sent TEXT,
			updated_at TEXT NOT NULL
		)`,
	})
}

// migration004AddSweepRunsTable creates the sweep_runs table
func migration004AddSweepRunsTable(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE sweep_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			purchases_due INTEGER NOT NULL DEFAULT 0,
			notifications_sent INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_message TEXT
		)`,

		`CREATE INDEX idx_sweep_runs_started ON sweep_runs(started_at)`,
	})
}
