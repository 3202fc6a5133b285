package store

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Memory is an in-memory Store. Locations and value names are matched
// case-insensitively and enumerated in insertion order, like the registry.
//
// Memory is safe for concurrent readers once populated.
type Memory struct {
	mu     sync.RWMutex
	roots  map[Scope]*node
	faults map[string]error
	open   atomic.Int64
}

type node struct {
	name     string
	children []*node
	values   []value
}

type value struct {
	name string
	data string
}

// NewMemory creates an empty store with both scope roots present
func NewMemory() *Memory {
	m := &Memory{
		roots:  make(map[Scope]*node),
		faults: make(map[string]error),
	}
	for _, s := range Scopes {
		m.roots[s] = &node{}
	}
	return m
}

// Set stores a value at path in scope, creating intermediate locations
func (m *Memory) Set(scope Scope, path, name, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.ensure(scope, path)
	for i := range n.values {
		if strings.EqualFold(n.values[i].name, name) {
			n.values[i].data = data
			return
		}
	}
	n.values = append(n.values, value{name: name, data: data})
}

// SetAll stores several values at once, in the given order
func (m *Memory) SetAll(scope Scope, path string, pairs ...[2]string) {
	for _, p := range pairs {
		m.Set(scope, path, p[0], p[1])
	}
}

// CreatePath creates a location without values
func (m *Memory) CreatePath(scope Scope, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(scope, path)
}

// RemoveScope drops a scope root so OpenScope fails with ErrScopeUnavailable
func (m *Memory) RemoveScope(scope Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roots, scope)
}

// Fail makes every access to path in scope return err. An empty path
// injects the fault at the scope root.
func (m *Memory) Fail(scope Scope, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[faultKey(scope, path)] = err
}

// OpenKeys returns how many keys are currently open
func (m *Memory) OpenKeys() int {
	return int(m.open.Load())
}

func (m *Memory) ensure(scope Scope, path string) *node {
	n, ok := m.roots[scope]
	if !ok {
		n = &node{}
		m.roots[scope] = n
	}
	for _, part := range SplitPath(path) {
		child := n.child(part)
		if child == nil {
			child = &node{name: part}
			n.children = append(n.children, child)
		}
		n = child
	}
	return n
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

func faultKey(scope Scope, path string) string {
	return scope.String() + ":" + strings.ToLower(strings.Join(SplitPath(path), `\`))
}

// OpenScope implements Store
func (m *Memory) OpenScope(scope Scope) (Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.faults[faultKey(scope, "")]; ok {
		return nil, err
	}
	root, ok := m.roots[scope]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScopeUnavailable, scope)
	}
	m.open.Add(1)
	return &memKey{store: m, scope: scope, node: root}, nil
}

type memKey struct {
	store  *Memory
	scope  Scope
	path   []string
	node   *node
	closed bool
}

func (k *memKey) Open(path string) (Key, error) {
	k.store.mu.RLock()
	defer k.store.mu.RUnlock()

	full := append(append([]string(nil), k.path...), SplitPath(path)...)
	if err, ok := k.store.faults[faultKey(k.scope, strings.Join(full, `\`))]; ok {
		return nil, err
	}

	n := k.node
	for _, part := range SplitPath(path) {
		n = n.child(part)
		if n == nil {
			return nil, fmt.Errorf("%s\\%s: %w", k.scope, strings.Join(full, `\`), ErrNotFound)
		}
	}
	k.store.open.Add(1)
	return &memKey{store: k.store, scope: k.scope, path: full, node: n}, nil
}

func (k *memKey) ValueNames() ([]string, error) {
	k.store.mu.RLock()
	defer k.store.mu.RUnlock()

	names := make([]string, 0, len(k.node.values))
	for _, v := range k.node.values {
		names = append(names, v.name)
	}
	return names, nil
}

func (k *memKey) Value(name string) (string, bool, error) {
	k.store.mu.RLock()
	defer k.store.mu.RUnlock()

	for _, v := range k.node.values {
		if strings.EqualFold(v.name, name) {
			return v.data, true, nil
		}
	}
	return "", false, nil
}

func (k *memKey) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	k.store.open.Add(-1)
	return nil
}
