// Package inventory records resolved ODBC configuration into the SQLite
// inventory so later runs can list and diff it.
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/sigreer/odbcgod/internal/connstr"
	"github.com/sigreer/odbcgod/internal/db"
	"github.com/sigreer/odbcgod/internal/odbc"
	"github.com/sigreer/odbcgod/internal/store"
	"go.uber.org/zap"
)

// Snapshot is everything one resolution run saw
type Snapshot struct {
	Drivers []db.DriverEntry
	DSNs    []db.DSNEntry
}

// Collect resolves drivers and data sources of both scopes plus the merged
// view. Scopes that are unavailable are logged and skipped; any other store
// error aborts the collection.
func Collect(r *odbc.Resolver, translators *connstr.Registry, log *zap.Logger) (*Snapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snap := &Snapshot{}

	for _, scope := range store.Scopes {
		drivers, err := r.ListDrivers(scope)
		if err != nil {
			if errors.Is(err, store.ErrScopeUnavailable) {
				log.Warn("scope unavailable", zap.Stringer("scope", scope), zap.Error(err))
				continue
			}
			return nil, err
		}
		for _, d := range drivers {
			snap.Drivers = append(snap.Drivers, driverEntry(d))
		}

		dsns, err := r.ListDSNs(scope)
		if err != nil {
			return nil, err
		}
		for _, d := range dsns {
			snap.DSNs = append(snap.DSNs, dsnEntry(d, false, translators))
		}
	}

	merged, err := mergedDSNs(r)
	if err != nil {
		return nil, err
	}
	for _, d := range merged {
		snap.DSNs = append(snap.DSNs, dsnEntry(d, true, translators))
	}

	log.Debug("snapshot collected",
		zap.Int("drivers", len(snap.Drivers)), zap.Int("dsns", len(merged)))
	return snap, nil
}

// mergedDSNs returns the merged view, falling back to whichever scope is
// available when the other one cannot be opened
func mergedDSNs(r *odbc.Resolver) ([]*odbc.DSNRecord, error) {
	merged, err := r.ListAllDSNs()
	if err == nil || !errors.Is(err, store.ErrScopeUnavailable) {
		return merged, err
	}
	var out []*odbc.DSNRecord
	for _, scope := range store.Scopes {
		dsns, err := r.ListDSNs(scope)
		if err != nil {
			if errors.Is(err, store.ErrScopeUnavailable) {
				continue
			}
			return nil, err
		}
		out = append(out, dsns...)
	}
	return out, nil
}

// Sync collects a snapshot and records it as a new scan
func Sync(database *db.DB, r *odbc.Resolver, translators *connstr.Registry, backend string, log *zap.Logger) (*db.Scan, error) {
	started := time.Now()
	snap, err := Collect(r, translators, log)
	if err != nil {
		return nil, fmt.Errorf("failed to collect snapshot: %w", err)
	}

	scan := &db.Scan{Backend: backend, StartedAt: started}
	if err := database.RecordScan(scan, snap.Drivers, snap.DSNs); err != nil {
		return nil, err
	}
	return scan, nil
}

func driverEntry(d *odbc.DriverRecord) db.DriverEntry {
	attrs := make(map[string]string)
	for k, v := range map[string]*string{
		"APILevel":         d.APILevel,
		"ConnectFunctions": d.ConnectFunctions,
		"CPTimeout":        d.CPTimeout,
		"Driver":           d.DriverDLL,
		"DriverODBCVer":    d.DriverODBCVer,
		"FileExtns":        d.FileExtns,
		"FileUsage":        d.FileUsage,
		"Setup":            d.Setup,
		"SQLLevel":         d.SQLLevel,
		"UsageCount":       d.UsageCount,
		"Uninstall":        d.Uninstall,
	} {
		if v != nil {
			attrs[k] = *v
		}
	}
	return db.DriverEntry{Scope: d.Scope.String(), Name: d.Name, Attrs: attrs}
}

func dsnEntry(d *odbc.DSNRecord, merged bool, translators *connstr.Registry) db.DSNEntry {
	e := db.DSNEntry{
		Scope:      d.Scope.String(),
		Name:       d.Name,
		DriverName: d.DriverName,
		DriverPath: odbc.Str(d.DriverPath),
		Server:     odbc.Str(d.Server),
		Database:   odbc.Str(d.Database),
		Host:       odbc.Str(d.Host),
		Merged:     merged,
	}
	if translators != nil {
		_, ok, err := translators.ConnectionString(d)
		e.Translated = ok && err == nil
		if err != nil {
			e.TranslateError = err.Error()
		}
	}
	return e
}
