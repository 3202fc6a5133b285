//go:build !windows

package registry

import (
	"fmt"

	"github.com/sigreer/odbcgod/internal/store"
	"go.uber.org/zap"
)

// Store has no registry to read outside Windows; every scope is unavailable
type Store struct {
	view View
	log  *zap.Logger
}

// OpenScope implements store.Store
func (s *Store) OpenScope(scope store.Scope) (store.Key, error) {
	return nil, fmt.Errorf("%w: %s: windows registry not available on this platform", store.ErrScopeUnavailable, scope)
}
