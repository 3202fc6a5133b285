// Package inifile reads ODBC configuration from unixODBC style INI files.
//
// System scope reads odbcinst.ini and odbc.ini from a system directory
// (usually /etc), user scope reads .odbcinst.ini and .odbc.ini from the
// home directory. The files are presented through the same well-known
// locations the Windows registry uses, so the resolver does not care
// which backend it talks to.
package inifile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigreer/odbcgod/internal/store"
	"gopkg.in/ini.v1"
)

// File names per scope
const (
	SystemInstFile = "odbcinst.ini"
	SystemDSNFile  = "odbc.ini"
	UserInstFile   = ".odbcinst.ini"
	UserDSNFile    = ".odbc.ini"
)

// globalSection is the unixODBC section holding tracing options, never a driver or DSN
const globalSection = "ODBC"

// Store is a store.Store backed by INI files
type Store struct {
	SystemDir string
	UserDir   string
}

// New creates an INI store. An empty userDir means the current user's home.
func New(systemDir, userDir string) *Store {
	if systemDir == "" {
		systemDir = "/etc"
	}
	if userDir == "" {
		userDir, _ = os.UserHomeDir()
	}
	return &Store{SystemDir: systemDir, UserDir: userDir}
}

// Paths returns the driver and DSN file paths for scope
func (s *Store) Paths(scope store.Scope) (inst, dsn string) {
	if scope == store.ScopeUser {
		return filepath.Join(s.UserDir, UserInstFile), filepath.Join(s.UserDir, UserDSNFile)
	}
	return filepath.Join(s.SystemDir, SystemInstFile), filepath.Join(s.SystemDir, SystemDSNFile)
}

// OpenScope implements store.Store. Both files are parsed once per call.
func (s *Store) OpenScope(scope store.Scope) (store.Key, error) {
	if scope != store.ScopeSystem && scope != store.ScopeUser {
		return nil, fmt.Errorf("%w: %s", store.ErrScopeUnavailable, scope)
	}
	if scope == store.ScopeUser && s.UserDir == "" {
		return nil, fmt.Errorf("%w: %s: no home directory", store.ErrScopeUnavailable, scope)
	}

	instPath, dsnPath := s.Paths(scope)
	inst, err := loadFile(instPath)
	if err != nil {
		return nil, err
	}
	dsn, err := loadFile(dsnPath)
	if err != nil {
		return nil, err
	}
	return &key{files: &files{inst: inst, dsn: dsn}}, nil
}

// loadFile returns nil without error when the file does not exist
func loadFile(path string) (*ini.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

type files struct {
	inst *ini.File
	dsn  *ini.File
}

// key is a location in the virtual tree SOFTWARE\ODBC\{ODBCINST.INI,ODBC.INI}\<section>
type key struct {
	files *files
	path  []string
	// names and values are set for leaf locations
	names  []string
	values map[string]string
}

var prefix = []string{"SOFTWARE", "ODBC"}

func (k *key) Open(path string) (store.Key, error) {
	full := append(append([]string(nil), k.path...), store.SplitPath(path)...)
	notFound := fmt.Errorf("%s: %w", strings.Join(full, `\`), store.ErrNotFound)

	for i, part := range full {
		if i < len(prefix) && !strings.EqualFold(part, prefix[i]) {
			return nil, notFound
		}
	}
	if len(full) <= len(prefix) {
		return &key{files: k.files, path: full}, nil
	}

	var f *ini.File
	var index string
	switch {
	case strings.EqualFold(full[2], "ODBCINST.INI"):
		f, index = k.files.inst, store.DriversIndexName
	case strings.EqualFold(full[2], "ODBC.INI"):
		f, index = k.files.dsn, store.DSNIndexName
	}
	if f == nil {
		return nil, notFound
	}
	switch len(full) {
	case 3:
		return &key{files: k.files, path: full}, nil
	case 4:
	default:
		return nil, notFound
	}

	name := full[3]
	if strings.EqualFold(name, index) {
		child := &key{files: k.files, path: full}
		child.names, child.values = indexValues(f, index)
		return child, nil
	}

	sec := findSection(f, name)
	if sec == nil || strings.EqualFold(name, globalSection) {
		return nil, notFound
	}
	child := &key{files: k.files, path: full, values: make(map[string]string)}
	for _, kv := range sec.Keys() {
		child.names = append(child.names, kv.Name())
		child.values[strings.ToLower(kv.Name())] = kv.Value()
	}
	return child, nil
}

// indexValues lists the explicit index section when present, otherwise
// derives the index from the sections themselves, as unixODBC does.
func indexValues(f *ini.File, index string) ([]string, map[string]string) {
	values := make(map[string]string)
	var names []string

	if sec := findSection(f, index); sec != nil {
		for _, kv := range sec.Keys() {
			names = append(names, kv.Name())
			values[strings.ToLower(kv.Name())] = kv.Value()
		}
		return names, values
	}

	for _, sec := range f.Sections() {
		n := sec.Name()
		if n == ini.DefaultSection || strings.EqualFold(n, globalSection) {
			continue
		}
		v := "Installed"
		if index == store.DSNIndexName {
			v = ""
			if dk := findKey(sec, "Driver"); dk != nil {
				v = dk.Value()
			}
		}
		names = append(names, n)
		values[strings.ToLower(n)] = v
	}
	return names, values
}

func findSection(f *ini.File, name string) *ini.Section {
	if sec, err := f.GetSection(name); err == nil {
		return sec
	}
	for _, sec := range f.Sections() {
		if strings.EqualFold(sec.Name(), name) {
			return sec
		}
	}
	return nil
}

func findKey(sec *ini.Section, name string) *ini.Key {
	for _, kv := range sec.Keys() {
		if strings.EqualFold(kv.Name(), name) {
			return kv
		}
	}
	return nil
}

func (k *key) ValueNames() ([]string, error) {
	return append([]string(nil), k.names...), nil
}

func (k *key) Value(name string) (string, bool, error) {
	v, ok := k.values[strings.ToLower(name)]
	return v, ok, nil
}

func (k *key) Close() error {
	return nil
}
