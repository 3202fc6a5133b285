package registry

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// View selects which registry view of a 64-bit Windows installation is read
type View int

const (
	// ViewDefault reads the view native to the running binary
	ViewDefault View = iota
	// View32 reads the 32-bit view, where 32-bit drivers register
	View32
	// View64 reads the 64-bit view, also from a 32-bit binary
	View64
)

func (v View) String() string {
	switch v {
	case View32:
		return "32"
	case View64:
		return "64"
	default:
		return "default"
	}
}

// ParseView converts "default", "32" or "64" to a View. Empty means default.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "native":
		return ViewDefault, nil
	case "32", "32bit", "wow64_32":
		return View32, nil
	case "64", "64bit", "wow64_64":
		return View64, nil
	}
	return ViewDefault, fmt.Errorf("unknown registry view %q", s)
}

// Option configures a Store
type Option func(*Store)

// WithView selects the registry view
func WithView(v View) Option {
	return func(s *Store) {
		s.view = v
	}
}

// With32BitView reads the 32-bit registry view
func With32BitView() Option {
	return WithView(View32)
}

// With64BitView reads the 64-bit registry view
func With64BitView() Option {
	return WithView(View64)
}

// WithLogger sets the logger used to report skipped values
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a registry store
func New(opts ...Option) *Store {
	s := &Store{log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("component", "registry_store"), zap.Stringer("view", s.view))
	return s
}

// View returns the registry view the store reads
func (s *Store) View() View {
	return s.view
}
