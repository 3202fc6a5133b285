package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sigreer/odbcgod/internal/db"
	"github.com/sigreer/odbcgod/internal/odbc"
	"github.com/sigreer/odbcgod/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func salesDSN() *odbc.DSNRecord {
	return &odbc.DSNRecord{
		Name:       "Sales",
		Scope:      store.ScopeUser,
		DriverName: "SQL Anywhere 12",
		Server:     ptr("db1"),
		UserID:     ptr("app"),
		Password:   ptr("hunter2"),
	}
}

func TestPrintDSNMasksPassword(t *testing.T) {
	var buf bytes.Buffer
	PrintDSN(&buf, salesDSN())

	out := buf.String()
	assert.Contains(t, out, "Sales")
	assert.Contains(t, out, "user")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "Database")
}

func TestPrintJSONOmitsPassword(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, salesDSN()))
	assert.NotContains(t, buf.String(), "hunter2")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "user", got["scope"])
}

func TestPrintDSNs(t *testing.T) {
	var buf bytes.Buffer
	PrintDSNs(&buf, nil)
	assert.Contains(t, buf.String(), "No data sources")

	buf.Reset()
	PrintDSNs(&buf, []*odbc.DSNRecord{salesDSN(), {Name: "Bare", Scope: store.ScopeSystem}})
	out := buf.String()
	assert.Contains(t, out, "SQL Anywhere 12")
	assert.Contains(t, out, "2 data source(s)")
}

func TestPrintDiff(t *testing.T) {
	var buf bytes.Buffer
	PrintDiff(&buf, &db.ScanDiff{})
	assert.Equal(t, "No changes.\n", buf.String())

	buf.Reset()
	PrintDiff(&buf, &db.ScanDiff{Added: []string{"a"}, Removed: []string{"b"}, Changed: []string{"c"}})
	assert.Equal(t, "+ a\n- b\n~ c\n", buf.String())
}
