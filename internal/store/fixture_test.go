package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixture = `
system:
  drivers:
    - name: SQL Anywhere 12
      attributes:
        Driver: dbodbc12.dll
        APILevel: "1"
    - name: Ghost
      no_detail: true
  dsns:
    - name: Sales
      driver: SQL Anywhere 12
      attributes:
        ServerName: db1
        DatabaseName: prod
        CommLinks: TCPIP{IP=10.0.0.5}
    - name: Hidden
      unindexed: true
      attributes:
        Server: h
user:
  dsns:
    - name: Sales
      driver: SQL Anywhere 17
`

func readValues(t *testing.T, s Store, scope Scope, path string) [][2]string {
	t.Helper()
	root, err := s.OpenScope(scope)
	require.NoError(t, err)
	defer root.Close()

	k, err := root.Open(path)
	require.NoError(t, err)
	defer k.Close()

	names, err := k.ValueNames()
	require.NoError(t, err)
	var out [][2]string
	for _, n := range names {
		v, _, err := k.Value(n)
		require.NoError(t, err)
		out = append(out, [2]string{n, v})
	}
	return out
}

func TestReadFixture(t *testing.T) {
	m, err := ReadFixture(strings.NewReader(sampleFixture))
	require.NoError(t, err)

	assert.Equal(t, [][2]string{
		{"SQL Anywhere 12", "Installed"},
		{"Ghost", "Installed"},
	}, readValues(t, m, ScopeSystem, DriversIndexPath))

	assert.Equal(t, [][2]string{
		{"Driver", "dbodbc12.dll"},
		{"APILevel", "1"},
	}, readValues(t, m, ScopeSystem, DriverPath("SQL Anywhere 12")))

	assert.Equal(t, [][2]string{
		{"Sales", "SQL Anywhere 12"},
	}, readValues(t, m, ScopeSystem, DSNIndexPath))

	assert.Equal(t, [][2]string{
		{"ServerName", "db1"},
		{"DatabaseName", "prod"},
		{"CommLinks", "TCPIP{IP=10.0.0.5}"},
	}, readValues(t, m, ScopeSystem, DSNPath("Sales")))

	assert.Equal(t, [][2]string{{"Server", "h"}}, readValues(t, m, ScopeSystem, DSNPath("Hidden")))
	assert.Equal(t, [][2]string{{"Sales", "SQL Anywhere 17"}}, readValues(t, m, ScopeUser, DSNIndexPath))

	root, err := m.OpenScope(ScopeSystem)
	require.NoError(t, err)
	defer root.Close()
	_, err = root.Open(DriverPath("Ghost"))
	assert.True(t, IsNotFound(err))
}

func TestReadFixtureEmpty(t *testing.T) {
	m, err := ReadFixture(strings.NewReader(""))
	require.NoError(t, err)

	root, err := m.OpenScope(ScopeUser)
	require.NoError(t, err)
	defer root.Close()
	_, err = root.Open(DSNIndexPath)
	assert.True(t, IsNotFound(err))
}

func TestReadFixtureBadAttributes(t *testing.T) {
	_, err := ReadFixture(strings.NewReader("system:\n  dsns:\n    - name: x\n      attributes: [a, b]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attributes must be a mapping")
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odbc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))

	m, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, readValues(t, m, ScopeSystem, DSNIndexPath), 1)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
