package config

import (
	"runtime"

	"github.com/sigreer/odbcgod/internal/store"
	"github.com/sigreer/odbcgod/internal/store/inifile"
	"github.com/sigreer/odbcgod/internal/store/registry"
	"go.uber.org/zap"
)

// ResolveBackend turns "auto" into the native backend of the platform
func (c *Config) ResolveBackend() string {
	if c.Backend != BackendAuto {
		return c.Backend
	}
	if runtime.GOOS == "windows" {
		return BackendRegistry
	}
	return BackendINI
}

// OpenStore builds the configured store, wrapped in a cache when CacheTTL is set
func (c *Config) OpenStore(log *zap.Logger) (store.Store, error) {
	var s store.Store
	switch c.ResolveBackend() {
	case BackendRegistry:
		view, err := registry.ParseView(c.Registry.View)
		if err != nil {
			return nil, err
		}
		s = registry.New(registry.WithView(view), registry.WithLogger(log))
	case BackendFixture:
		m, err := store.LoadFixture(c.Fixture)
		if err != nil {
			return nil, err
		}
		s = m
	default:
		s = inifile.New(c.INI.SystemDir, c.INI.UserDir)
	}

	if c.CacheTTL > 0 {
		s = store.NewCached(s, c.CacheTTL)
	}
	return s, nil
}
