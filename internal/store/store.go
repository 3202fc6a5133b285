// Package store defines the hierarchical key/value store that ODBC configuration
// is read from, along with the well-known locations inside it.
//
// Backends (Windows registry, unixODBC INI files, in-memory fixtures) implement
// Store. Callers never mutate the store.
package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a queried location does not exist.
// Resolvers treat it as an absent value, never as a fault.
var ErrNotFound = errors.New("location not found")

// ErrScopeUnavailable is returned when a scope root cannot be opened
var ErrScopeUnavailable = errors.New("scope unavailable")

// Scope partitions configuration into machine-wide and per-user sets
type Scope int

const (
	ScopeSystem Scope = iota
	ScopeUser
)

// Scopes lists every scope in resolution order (system first)
var Scopes = []Scope{ScopeSystem, ScopeUser}

func (s Scope) String() string {
	switch s {
	case ScopeSystem:
		return "system"
	case ScopeUser:
		return "user"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope converts "system" or "user" (any case) to a Scope
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "system", "sys", "machine":
		return ScopeSystem, nil
	case "user":
		return ScopeUser, nil
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}

// MarshalText renders the scope name for JSON/YAML output
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a scope name
func (s *Scope) UnmarshalText(b []byte) error {
	v, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Store opens scope roots
type Store interface {
	OpenScope(scope Scope) (Key, error)
}

// Key is an open location in the store. Every Key returned by OpenScope or
// Open must be closed by the caller.
type Key interface {
	// Open opens a sub-location relative to this key. Returns ErrNotFound
	// (possibly wrapped) when the path does not exist.
	Open(path string) (Key, error)

	// ValueNames lists value names in store order
	ValueNames() ([]string, error)

	// Value returns the string value stored under name
	Value(name string) (string, bool, error)

	Close() error
}

// IsNotFound reports whether err means a location does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
