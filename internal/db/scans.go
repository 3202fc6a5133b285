package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordScan stores a scan with its drivers and data sources in one
// transaction. A new ID is assigned when scan.ID is empty.
func (d *DB) RecordScan(scan *Scan, drivers []DriverEntry, dsns []DSNEntry) error {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.StartedAt.IsZero() {
		scan.StartedAt = time.Now()
	}
	scan.DriverCount = len(drivers)
	scan.DSNCount = 0
	for _, e := range dsns {
		if e.Merged {
			scan.DSNCount++
		}
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin scan: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO scans (id, backend, started_at, driver_count, dsn_count)
		VALUES (?, ?, ?, ?, ?)
	`, scan.ID, scan.Backend, scan.StartedAt.UTC(), scan.DriverCount, scan.DSNCount); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	for i, e := range drivers {
		var attrs string
		if e.Attrs != nil {
			b, err := json.Marshal(e.Attrs)
			if err == nil {
				attrs = string(b)
			}
		}
		if _, err := tx.Exec(`
			INSERT INTO scan_drivers (scan_id, scope, name, attrs, position)
			VALUES (?, ?, ?, ?, ?)
		`, scan.ID, e.Scope, e.Name, nullString(attrs), i); err != nil {
			return fmt.Errorf("failed to insert driver %s: %w", e.Name, err)
		}
	}

	for i, e := range dsns {
		if _, err := tx.Exec(`
			INSERT INTO scan_dsns (
				scan_id, scope, name, driver_name, driver_path, server,
				database_name, host, merged, position, translated, translate_error
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, scan.ID, e.Scope, e.Name, nullString(e.DriverName), nullString(e.DriverPath),
			nullString(e.Server), nullString(e.Database), nullString(e.Host),
			boolInt(e.Merged), i, boolInt(e.Translated), nullString(e.TranslateError),
		); err != nil {
			return fmt.Errorf("failed to insert dsn %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan: %w", err)
	}
	return nil
}

// GetScan returns a scan by ID, or nil if unknown
func (d *DB) GetScan(id string) (*Scan, error) {
	row := d.conn.QueryRow(`
		SELECT id, backend, started_at, driver_count, dsn_count
		FROM scans WHERE id = ?
	`, id)
	return scanScanRow(row)
}

// LatestScan returns the most recent scan, or nil if none was recorded
func (d *DB) LatestScan() (*Scan, error) {
	row := d.conn.QueryRow(`
		SELECT id, backend, started_at, driver_count, dsn_count
		FROM scans ORDER BY started_at DESC, rowid DESC LIMIT 1
	`)
	return scanScanRow(row)
}

// GetScans returns the most recent scans, newest first
func (d *DB) GetScans(limit int) ([]*Scan, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, backend, started_at, driver_count, dsn_count
		FROM scans ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		var s Scan
		if err := rows.Scan(&s.ID, &s.Backend, &s.StartedAt, &s.DriverCount, &s.DSNCount); err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, &s)
	}
	return scans, rows.Err()
}

// GetScanDrivers returns the drivers recorded by a scan in recorded order
func (d *DB) GetScanDrivers(scanID string) ([]*DriverEntry, error) {
	rows, err := d.conn.Query(`
		SELECT scope, name, attrs FROM scan_drivers
		WHERE scan_id = ? ORDER BY position
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan drivers: %w", err)
	}
	defer rows.Close()

	var out []*DriverEntry
	for rows.Next() {
		var e DriverEntry
		var attrs sql.NullString
		if err := rows.Scan(&e.Scope, &e.Name, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &e.Attrs); err != nil {
				return nil, fmt.Errorf("driver %s: bad attrs: %w", e.Name, err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// GetScanDSNs returns the data sources recorded by a scan. With mergedOnly
// set only the global merged view is returned.
func (d *DB) GetScanDSNs(scanID string, mergedOnly bool) ([]*DSNEntry, error) {
	query := `
		SELECT scope, name, driver_name, driver_path, server, database_name, host,
			merged, translated, translate_error
		FROM scan_dsns WHERE scan_id = ?`
	if mergedOnly {
		query += ` AND merged = 1`
	}
	query += ` ORDER BY position`

	rows, err := d.conn.Query(query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan dsns: %w", err)
	}
	defer rows.Close()

	var out []*DSNEntry
	for rows.Next() {
		var e DSNEntry
		var driverName, driverPath, server, database, host, translateErr sql.NullString
		var merged, translated int
		if err := rows.Scan(&e.Scope, &e.Name, &driverName, &driverPath, &server,
			&database, &host, &merged, &translated, &translateErr); err != nil {
			return nil, fmt.Errorf("failed to scan dsn: %w", err)
		}
		e.DriverName = driverName.String
		e.DriverPath = driverPath.String
		e.Server = server.String
		e.Database = database.String
		e.Host = host.String
		e.Merged = merged != 0
		e.Translated = translated != 0
		e.TranslateError = translateErr.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteScan removes a scan and its entries
func (d *DB) DeleteScan(id string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The foreign_keys pragma only applies to the connection that ran it,
	// so cascade by hand
	for _, q := range []string{
		"DELETE FROM scan_dsns WHERE scan_id = ?",
		"DELETE FROM scan_drivers WHERE scan_id = ?",
		"DELETE FROM scans WHERE id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("failed to delete scan: %w", err)
		}
	}
	return tx.Commit()
}

func scanScanRow(row *sql.Row) (*Scan, error) {
	var s Scan
	err := row.Scan(&s.ID, &s.Backend, &s.StartedAt, &s.DriverCount, &s.DSNCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scan row: %w", err)
	}
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
