//go:build windows

package registry

import (
	"errors"
	"fmt"

	"github.com/sigreer/odbcgod/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sys/windows/registry"
)

// Store is a store.Store backed by the registry
type Store struct {
	view View
	log  *zap.Logger
}

func (s *Store) access() uint32 {
	access := uint32(registry.QUERY_VALUE | registry.ENUMERATE_SUB_KEYS)
	switch s.view {
	case View32:
		access |= registry.WOW64_32KEY
	case View64:
		access |= registry.WOW64_64KEY
	}
	return access
}

// OpenScope implements store.Store
func (s *Store) OpenScope(scope store.Scope) (store.Key, error) {
	switch scope {
	case store.ScopeSystem:
		return &key{k: registry.LOCAL_MACHINE, access: s.access(), log: s.log, predefined: true}, nil
	case store.ScopeUser:
		return &key{k: registry.CURRENT_USER, access: s.access(), log: s.log, predefined: true}, nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrScopeUnavailable, scope)
}

type key struct {
	k          registry.Key
	access     uint32
	log        *zap.Logger
	path       string
	predefined bool
}

func (k *key) Open(path string) (store.Key, error) {
	sub, err := registry.OpenKey(k.k, path, k.access)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	full := path
	if k.path != "" {
		full = k.path + `\` + path
	}
	return &key{k: sub, access: k.access, log: k.log, path: full}, nil
}

func (k *key) ValueNames() ([]string, error) {
	names, err := k.k.ReadValueNames(0)
	if err != nil {
		return nil, fmt.Errorf("read value names: %w", err)
	}
	return names, nil
}

// Value renders string, integer and multi-string values as text. Values of
// other types are reported absent.
func (k *key) Value(name string) (string, bool, error) {
	_, valtype, err := k.k.GetValue(name, nil)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", name, err)
	}

	v, ok, err := decodeValue(k.k, name, valtype)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", name, err)
	}
	if !ok {
		k.log.Debug("value has no text form, skipping",
			zap.String("key", k.path), zap.String("value", name), zap.Uint32("type", valtype))
	}
	return v, ok, nil
}

func (k *key) Close() error {
	if k.predefined {
		return nil
	}
	return k.k.Close()
}
