package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/dfryer1193/mailmanifest/shared/db"
	_ "modernc.org/sqlite"
)

const (
	// DefaultPath is used when no path is configured
	DefaultPath = "./manifest.db"
)

var _ db.Database = (*SQLiteDB)(nil)

type SQLiteConfig struct {
	Path string
}

// NewSQLiteConfig returns a config for path, falling back to DefaultPath.
func NewSQLiteConfig(path string) *SQLiteConfig {
	if path == "" {
		path = DefaultPath
	}

	return &SQLiteConfig{
		Path: path,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance. Call Connect before use.
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath: cfg.Path,
	}
}

// Connect opens the database, applies pragmas and runs pending migrations
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if s.dbPath == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Path returns the file the database is stored in
func (s *SQLiteDB) Path() string {
	return s.dbPath
}
