package odbc

import (
	"fmt"

	"github.com/sigreer/odbcgod/internal/store"
	"go.uber.org/zap"
)

// Resolver enumerates and merges driver and data source records from a store.
// Every call reads a fresh snapshot; nothing is retained between calls, so a
// Resolver is safe for concurrent use if its store is.
type Resolver struct {
	store store.Store
	log   *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used to report skipped entries
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a resolver reading from s
func New(s store.Store, opts ...Option) *Resolver {
	r := &Resolver{store: s, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// withScope opens the scope root, runs fn and closes the root
func (r *Resolver) withScope(scope store.Scope, fn func(root store.Key) error) error {
	root, err := r.store.OpenScope(scope)
	if err != nil {
		return fmt.Errorf("open %s scope: %w", scope, err)
	}
	defer root.Close()
	return fn(root)
}

// readAll opens path under root and collects every value. ok is false when
// the location does not exist.
func readAll(root store.Key, path string) (attrs map[string]string, ok bool, err error) {
	k, err := root.Open(path)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer k.Close()

	names, err := k.ValueNames()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	attrs = make(map[string]string, len(names))
	for _, name := range names {
		v, found, err := k.Value(name)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", path, err)
		}
		if found {
			attrs[name] = v
		}
	}
	return attrs, true, nil
}

// valueNames lists the value names at path; a missing location yields nil
func valueNames(root store.Key, path string) ([]string, error) {
	k, err := root.Open(path)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	defer k.Close()

	names, err := k.ValueNames()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

// ListDriverNames returns the drivers registered in the scope's driver index
func (r *Resolver) ListDriverNames(scope store.Scope) ([]string, error) {
	var names []string
	err := r.withScope(scope, func(root store.Key) error {
		var err error
		names, err = valueNames(root, store.DriversIndexPath)
		return err
	})
	return names, err
}

// Driver returns the named driver, or nil if it has no detail location
func (r *Resolver) Driver(scope store.Scope, name string) (*DriverRecord, error) {
	var rec *DriverRecord
	err := r.withScope(scope, func(root store.Key) error {
		var err error
		rec, err = driver(root, scope, name)
		return err
	})
	return rec, err
}

func driver(root store.Key, scope store.Scope, name string) (*DriverRecord, error) {
	attrs, ok, err := readAll(root, store.DriverPath(name))
	if err != nil || !ok {
		return nil, err
	}
	rec := ParseDriver(name, attrs)
	rec.Scope = scope
	return rec, nil
}

// ListDrivers returns every indexed driver that has a detail location, in
// index order
func (r *Resolver) ListDrivers(scope store.Scope) ([]*DriverRecord, error) {
	var out []*DriverRecord
	err := r.withScope(scope, func(root store.Key) error {
		names, err := valueNames(root, store.DriversIndexPath)
		if err != nil {
			return err
		}
		for _, name := range names {
			rec, err := driver(root, scope, name)
			if err != nil {
				return err
			}
			if rec == nil {
				r.log.Debug("driver has no detail location, skipping",
					zap.Stringer("scope", scope), zap.String("driver", name))
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DSN returns the named data source, or nil if it has no detail location.
// The driver name comes from the data source index, even if the detail
// location carries its own Driver attribute.
func (r *Resolver) DSN(scope store.Scope, name string) (*DSNRecord, error) {
	var rec *DSNRecord
	err := r.withScope(scope, func(root store.Key) error {
		var err error
		rec, err = dsn(root, scope, name)
		return err
	})
	return rec, err
}

func dsn(root store.Key, scope store.Scope, name string) (*DSNRecord, error) {
	driverName, err := indexedDriver(root, name)
	if err != nil {
		return nil, err
	}
	attrs, ok, err := readAll(root, store.DSNPath(name))
	if err != nil || !ok {
		return nil, err
	}
	return ParseDSN(name, scope, driverName, attrs), nil
}

// indexedDriver reads the driver name registered for a data source
func indexedDriver(root store.Key, name string) (string, error) {
	idx, err := root.Open(store.DSNIndexPath)
	if err != nil {
		if store.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	defer idx.Close()

	v, _, err := idx.Value(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", store.DSNIndexPath, err)
	}
	return v, nil
}

// ListDSNs returns every indexed data source of the scope that has a detail
// location, in index order, tagged with scope
func (r *Resolver) ListDSNs(scope store.Scope) ([]*DSNRecord, error) {
	var out []*DSNRecord
	err := r.withScope(scope, func(root store.Key) error {
		names, err := valueNames(root, store.DSNIndexPath)
		if err != nil {
			return err
		}
		for _, name := range names {
			rec, err := dsn(root, scope, name)
			if err != nil {
				return err
			}
			if rec == nil {
				r.log.Debug("data source has no detail location, skipping",
					zap.Stringer("scope", scope), zap.String("dsn", name))
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DSNPreferUser returns the user scope data source if one exists, otherwise
// the system scope one, otherwise nil
func (r *Resolver) DSNPreferUser(name string) (*DSNRecord, error) {
	rec, err := r.DSN(store.ScopeUser, name)
	if err != nil || rec != nil {
		return rec, err
	}
	return r.DSN(store.ScopeSystem, name)
}

// ListAllDSNs merges both scopes: system order is kept, a user data source
// replaces the system one of the same name in place, and user-only data
// sources are appended.
func (r *Resolver) ListAllDSNs() ([]*DSNRecord, error) {
	system, err := r.ListDSNs(store.ScopeSystem)
	if err != nil {
		return nil, err
	}
	user, err := r.ListDSNs(store.ScopeUser)
	if err != nil {
		return nil, err
	}
	return merge(system, user, func(d *DSNRecord) string { return d.Name }), nil
}

// ListAllDrivers merges driver lists the same way ListAllDSNs merges data sources
func (r *Resolver) ListAllDrivers() ([]*DriverRecord, error) {
	system, err := r.ListDrivers(store.ScopeSystem)
	if err != nil {
		return nil, err
	}
	user, err := r.ListDrivers(store.ScopeUser)
	if err != nil {
		return nil, err
	}
	return merge(system, user, func(d *DriverRecord) string { return d.Name }), nil
}

// merge overlays override onto base by name. Names are compared exactly, as
// stored. Duplicates within base or override collapse to the last one seen.
func merge[T any](base, override []T, name func(T) string) []T {
	out := make([]T, 0, len(base)+len(override))
	pos := make(map[string]int, len(base)+len(override))
	for _, rec := range base {
		if i, ok := pos[name(rec)]; ok {
			out[i] = rec
			continue
		}
		pos[name(rec)] = len(out)
		out = append(out, rec)
	}
	for _, rec := range override {
		if i, ok := pos[name(rec)]; ok {
			out[i] = rec
			continue
		}
		pos[name(rec)] = len(out)
		out = append(out, rec)
	}
	return out
}
