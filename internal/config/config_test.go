package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sigreer/odbcgod/internal/store"
	"github.com/sigreer/odbcgod/internal/store/inifile"
	"github.com/sigreer/odbcgod/internal/store/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("ODBCSYSINI", "")
	path := writeConfig(t, `
backend: ini
ini:
  system_dir: /opt/odbc/etc
  user_dir: /home/app
cache_ttl: 30s
inventory: /tmp/inv.db
log:
  level: debug
  encoding: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendINI, cfg.Backend)
	assert.Equal(t, "/opt/odbc/etc", cfg.INI.SystemDir)
	assert.Equal(t, "/home/app", cfg.INI.UserDir)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "/tmp/inv.db", cfg.Inventory)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("ODBCSYSINI", "")
	cfg, err := Load(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, def.INI.SystemDir, cfg.INI.SystemDir)
	assert.Equal(t, def.Inventory, cfg.Inventory)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Zero(t, cfg.CacheTTL)
}

func TestLoadNoFile(t *testing.T) {
	t.Setenv("ODBCSYSINI", "")
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "backend: [\n"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "backend: odbc-mystery\n"))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = Load(writeConfig(t, "backend: fixture\n"))
	assert.ErrorContains(t, err, "fixture path")

	_, err = Load(writeConfig(t, "cache_ttl: -5s\n"))
	assert.ErrorContains(t, err, "cache_ttl")

	_, err = Load(writeConfig(t, "registry:\n  view: \"16\"\n"))
	assert.ErrorContains(t, err, "unknown registry view")
}

func TestODBCSYSINIOverridesSystemDir(t *testing.T) {
	t.Setenv("ODBCSYSINI", "/usr/local/etc")
	cfg, err := Load(writeConfig(t, "ini:\n  system_dir: /etc\n"))
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/etc", cfg.INI.SystemDir)
}

func TestResolveBackend(t *testing.T) {
	cfg := Default()
	want := BackendINI
	if runtime.GOOS == "windows" {
		want = BackendRegistry
	}
	assert.Equal(t, want, cfg.ResolveBackend())

	cfg.Backend = BackendFixture
	assert.Equal(t, BackendFixture, cfg.ResolveBackend())
}

func TestOpenStore(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendINI
	s, err := cfg.OpenStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &inifile.Store{}, s)

	cfg.CacheTTL = time.Minute
	s, err = cfg.OpenStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &store.Cached{}, s)
}

func TestOpenStoreFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odbc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system:\n  dsns:\n    - name: Sales\n      driver: SQL Anywhere 12\n"), 0o644))

	cfg := Default()
	cfg.Backend = BackendFixture
	cfg.Fixture = path
	s, err := cfg.OpenStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, s)

	cfg.Fixture = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.OpenStore(nil)
	assert.Error(t, err)
}

func TestRegistryView(t *testing.T) {
	tests := []struct {
		yaml string
		want registry.View
	}{
		{"backend: registry\n", registry.ViewDefault},
		{"backend: registry\nregistry:\n  view: default\n", registry.ViewDefault},
		{"backend: registry\nregistry:\n  view: \"32\"\n", registry.View32},
		{"backend: registry\nregistry:\n  view: \"64\"\n", registry.View64},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, tt.yaml))
		require.NoError(t, err)

		s, err := cfg.OpenStore(nil)
		require.NoError(t, err)
		rs, ok := s.(*registry.Store)
		require.True(t, ok, "got %T", s)
		assert.Equal(t, tt.want, rs.View(), tt.yaml)
	}
}
