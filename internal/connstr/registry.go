package connstr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sigreer/odbcgod/internal/odbc"
	"go.uber.org/zap"
)

// Translator builds a provider connection string for a data source
type Translator interface {
	Translate(dsn *odbc.DSNRecord) (string, error)
}

// TranslatorFunc adapts a function to Translator
type TranslatorFunc func(dsn *odbc.DSNRecord) (string, error)

// Translate implements Translator
func (f TranslatorFunc) Translate(dsn *odbc.DSNRecord) (string, error) {
	return f(dsn)
}

// Registry maps ODBC driver names to translators. Lookups match the driver
// name exactly.
type Registry struct {
	mu          sync.RWMutex
	translators map[string]Translator
	logger      *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		translators: make(map[string]Translator),
		logger:      logger.With(zap.String("component", "connstr_registry")),
	}
}

// DefaultRegistry returns a registry with the built-in translators
func DefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for _, v := range SQLAnywhereVersions {
		r.Register(SQLAnywhereDriverName(v), SQLAnywhere(v))
	}
	return r
}

// Register binds driverName to t, replacing any previous binding
func (r *Registry) Register(driverName string, t Translator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.translators[driverName] = t
	r.logger.Debug("translator registered", zap.String("driver", driverName))
}

// Lookup returns the translator for driverName
func (r *Registry) Lookup(driverName string) (Translator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.translators[driverName]
	return t, ok
}

// Drivers lists the driver names that have a translator, sorted
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.translators))
	for n := range r.translators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ConnectionString translates dsn. ok is false when no translator is
// registered for its driver, which is not an error.
func (r *Registry) ConnectionString(dsn *odbc.DSNRecord) (s string, ok bool, err error) {
	t, ok := r.Lookup(dsn.DriverName)
	if !ok {
		return "", false, nil
	}
	s, err = t.Translate(dsn)
	if err != nil {
		return "", true, fmt.Errorf("translate %s: %w", dsn.Name, err)
	}
	return s, true, nil
}
