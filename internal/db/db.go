package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/odbcgod/inventory.db"

// DB wraps the SQLite inventory database
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	migrations := []string{
		migrationV1,
		migrationV2,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates the initial schema
const migrationV1 = `
-- One row per resolution run
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,
    backend TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    driver_count INTEGER DEFAULT 0,
    dsn_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scans_time ON scans(started_at);

-- Drivers as seen by a scan
CREATE TABLE IF NOT EXISTS scan_drivers (
    id INTEGER PRIMARY KEY,
    scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
    scope TEXT NOT NULL,
    name TEXT NOT NULL,
    attrs TEXT,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_drivers_scan ON scan_drivers(scan_id);

-- Data sources as seen by a scan; merged = 1 for the global view
CREATE TABLE IF NOT EXISTS scan_dsns (
    id INTEGER PRIMARY KEY,
    scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
    scope TEXT NOT NULL,
    name TEXT NOT NULL,
    driver_name TEXT,
    driver_path TEXT,
    server TEXT,
    database_name TEXT,
    host TEXT,
    merged INTEGER DEFAULT 0,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_dsns_scan ON scan_dsns(scan_id);
CREATE INDEX IF NOT EXISTS idx_scan_dsns_name ON scan_dsns(name);
`

// migrationV2 records the connection string outcome per data source
const migrationV2 = `
ALTER TABLE scan_dsns ADD COLUMN translated INTEGER DEFAULT 0;
ALTER TABLE scan_dsns ADD COLUMN translate_error TEXT;
`

// Scan is one recorded resolution run
type Scan struct {
	ID          string
	Backend     string
	StartedAt   time.Time
	DriverCount int
	DSNCount    int
}

// DriverEntry is a driver as recorded by a scan
type DriverEntry struct {
	Scope string
	Name  string
	Attrs map[string]string
}

// DSNEntry is a data source as recorded by a scan
type DSNEntry struct {
	Scope          string
	Name           string
	DriverName     string
	DriverPath     string
	Server         string
	Database       string
	Host           string
	Merged         bool
	Translated     bool
	TranslateError string
}
