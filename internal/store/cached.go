package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sigreer/odbcgod/internal/cache"
)

// Cached wraps a Store and remembers the contents of every opened location
// for a TTL. Missing locations are remembered too. Errors are never cached.
//
// A scope root that opened recently is not reopened: the wrapped store is
// only touched when a location misses the cache.
type Cached struct {
	inner  Store
	snaps  *cache.Cache[string, *snapshot]
	scopes *cache.Cache[Scope, struct{}]
}

type snapshot struct {
	missing bool
	names   []string
	values  map[string]string
}

// NewCached wraps inner with a cache of the given lifetime
func NewCached(inner Store, ttl time.Duration) *Cached {
	return &Cached{
		inner:  inner,
		snaps:  cache.New[string, *snapshot](ttl),
		scopes: cache.New[Scope, struct{}](ttl),
	}
}

// Len returns the number of cached locations
func (c *Cached) Len() int {
	return c.snaps.Len()
}

// Invalidate drops everything cached so far
func (c *Cached) Invalidate() {
	c.snaps.Clear()
	c.scopes.Clear()
}

// OpenScope implements Store
func (c *Cached) OpenScope(scope Scope) (Key, error) {
	if _, ok := c.scopes.Get(scope); ok {
		return &cachedKey{store: c, scope: scope}, nil
	}
	root, err := c.inner.OpenScope(scope)
	if err != nil {
		return nil, err
	}
	c.scopes.Set(scope, struct{}{})
	return &cachedKey{store: c, scope: scope, inner: root}, nil
}

type cachedKey struct {
	store *Cached
	scope Scope
	path  []string
	inner Key
	snap  *snapshot
}

func (k *cachedKey) Open(path string) (Key, error) {
	full := append(append([]string(nil), k.path...), SplitPath(path)...)
	id := k.scope.String() + ":" + strings.ToLower(strings.Join(full, `\`))

	if snap, ok := k.store.snaps.Get(id); ok {
		if snap.missing {
			return nil, fmt.Errorf("%s\\%s: %w", k.scope, strings.Join(full, `\`), ErrNotFound)
		}
		return &cachedKey{store: k.store, scope: k.scope, path: full, snap: snap}, nil
	}

	child, err := k.openInner(path, full)
	if err != nil {
		if IsNotFound(err) {
			k.store.snaps.Set(id, &snapshot{missing: true})
		}
		return nil, err
	}

	snap, err := load(child)
	if err != nil {
		child.Close()
		return nil, err
	}
	k.store.snaps.Set(id, snap)
	return &cachedKey{store: k.store, scope: k.scope, path: full, inner: child, snap: snap}, nil
}

// openInner opens path on the wrapped store. Keys served from the cache hold
// no inner handle, so they reopen from the scope root.
func (k *cachedKey) openInner(path string, full []string) (Key, error) {
	if k.inner != nil {
		return k.inner.Open(path)
	}
	root, err := k.store.inner.OpenScope(k.scope)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.Open(strings.Join(full, `\`))
}

func load(k Key) (*snapshot, error) {
	names, err := k.ValueNames()
	if err != nil {
		return nil, err
	}
	snap := &snapshot{names: names, values: make(map[string]string, len(names))}
	for _, name := range names {
		v, ok, err := k.Value(name)
		if err != nil {
			return nil, err
		}
		if ok {
			snap.values[strings.ToLower(name)] = v
		}
	}
	return snap, nil
}

func (k *cachedKey) ValueNames() ([]string, error) {
	if k.snap == nil {
		if k.inner == nil {
			return nil, nil
		}
		return k.inner.ValueNames()
	}
	return append([]string(nil), k.snap.names...), nil
}

func (k *cachedKey) Value(name string) (string, bool, error) {
	if k.snap == nil {
		if k.inner == nil {
			return "", false, nil
		}
		return k.inner.Value(name)
	}
	v, ok := k.snap.values[strings.ToLower(name)]
	return v, ok, nil
}

func (k *cachedKey) Close() error {
	if k.inner == nil {
		return nil
	}
	err := k.inner.Close()
	k.inner = nil
	return err
}
