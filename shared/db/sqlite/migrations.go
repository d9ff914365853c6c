package sqlite

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all schema changes.
// Applied versions are recorded in schema_migrations and never rerun.
var migrations = []migration{
	{
		version: 1,
		name:    "create_images_table",
		up: `
			CREATE TABLE IF NOT EXISTS images (
				id TEXT PRIMARY KEY,
				location TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				updated_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_images_location
			ON images(location);
		`,
	},
}

// runMigrations executes all pending migrations
func runMigrations(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion, err := SchemaVersion(conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if err := applyMigration(conn, m); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(conn *sql.DB, m migration) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}

	if _, err := tx.Exec(m.up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}

	return nil
}

// SchemaVersion reports the highest applied migration.
func SchemaVersion(conn *sql.DB) (int, error) {
	var version int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}
