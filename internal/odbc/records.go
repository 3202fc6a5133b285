// Package odbc resolves ODBC driver and data source registrations across the
// system and user scopes of a configuration store.
package odbc

import (
	"sort"
	"strings"

	"github.com/sigreer/odbcgod/internal/store"
)

// DriverRecord describes an installed ODBC driver. Absent attributes are nil.
type DriverRecord struct {
	Name  string      `json:"name"`
	Scope store.Scope `json:"scope"`

	APILevel         *string `json:"api_level,omitempty"`
	ConnectFunctions *string `json:"connect_functions,omitempty"`
	CPTimeout        *string `json:"cp_timeout,omitempty"`
	DriverDLL        *string `json:"driver_dll,omitempty"`
	DriverODBCVer    *string `json:"driver_odbc_ver,omitempty"`
	FileExtns        *string `json:"file_extns,omitempty"`
	FileUsage        *string `json:"file_usage,omitempty"`
	Setup            *string `json:"setup,omitempty"`
	SQLLevel         *string `json:"sql_level,omitempty"`
	UsageCount       *string `json:"usage_count,omitempty"`
	Uninstall        *string `json:"uninstall,omitempty"`
}

// DSNRecord describes a data source.
//
// DriverName comes from the scope's data source index and identifies the
// owning DriverRecord. DriverPath is the "Driver" attribute of the data
// source itself, usually a library path. The two are never merged.
type DSNRecord struct {
	Name       string      `json:"name"`
	Scope      store.Scope `json:"scope"`
	DriverName string      `json:"driver_name"`

	Description *string `json:"description,omitempty"`
	Server      *string `json:"server,omitempty"`
	DriverPath  *string `json:"driver_path,omitempty"`
	Database    *string `json:"database,omitempty"`
	UserID      *string `json:"user_id,omitempty"`
	Password    *string `json:"-"`
	CommLinks   *string `json:"comm_links,omitempty"`
	Host        *string `json:"host,omitempty"`
}

// field binds one typed attribute to the raw keys that populate it.
// Keys are lower case and listed in priority order.
type field[T any] struct {
	keys []string
	ptr  func(*T) **string
}

var driverFields = []field[DriverRecord]{
	{[]string{"apilevel"}, func(r *DriverRecord) **string { return &r.APILevel }},
	{[]string{"connectfunctions"}, func(r *DriverRecord) **string { return &r.ConnectFunctions }},
	{[]string{"cptimeout"}, func(r *DriverRecord) **string { return &r.CPTimeout }},
	{[]string{"driver"}, func(r *DriverRecord) **string { return &r.DriverDLL }},
	{[]string{"driverodbcver"}, func(r *DriverRecord) **string { return &r.DriverODBCVer }},
	{[]string{"fileextns"}, func(r *DriverRecord) **string { return &r.FileExtns }},
	{[]string{"fileusage"}, func(r *DriverRecord) **string { return &r.FileUsage }},
	{[]string{"setup"}, func(r *DriverRecord) **string { return &r.Setup }},
	{[]string{"sqllevel"}, func(r *DriverRecord) **string { return &r.SQLLevel }},
	{[]string{"usagecount"}, func(r *DriverRecord) **string { return &r.UsageCount }},
	{[]string{"uninstall"}, func(r *DriverRecord) **string { return &r.Uninstall }},
}

var dsnFields = []field[DSNRecord]{
	{[]string{"description"}, func(r *DSNRecord) **string { return &r.Description }},
	{[]string{"server", "servername", "eng", "enginename"}, func(r *DSNRecord) **string { return &r.Server }},
	{[]string{"driver"}, func(r *DSNRecord) **string { return &r.DriverPath }},
	{[]string{"database", "databasename", "dbn"}, func(r *DSNRecord) **string { return &r.Database }},
	{[]string{"uid", "userid", "user"}, func(r *DSNRecord) **string { return &r.UserID }},
	{[]string{"pwd", "password"}, func(r *DSNRecord) **string { return &r.Password }},
	{[]string{"commlinks", "links"}, func(r *DSNRecord) **string { return &r.CommLinks }},
	{[]string{"host"}, func(r *DSNRecord) **string { return &r.Host }},
}

// ParseDriver builds a driver record from raw attributes. Keys match
// case-insensitively; unknown keys are dropped. It never fails.
func ParseDriver(name string, attrs map[string]string) *DriverRecord {
	r := &DriverRecord{Name: name}
	apply(r, driverFields, fold(attrs))
	return r
}

// ParseDSN builds a data source record from raw attributes. driverName is
// taken as given and is not read from attrs.
//
// When synonyms (e.g. "server" and "servername") are both present the one
// listed first in the field table wins.
func ParseDSN(name string, scope store.Scope, driverName string, attrs map[string]string) *DSNRecord {
	r := &DSNRecord{Name: name, Scope: scope, DriverName: driverName}
	apply(r, dsnFields, fold(attrs))
	return r
}

func apply[T any](r *T, fields []field[T], attrs map[string]string) {
	for _, f := range fields {
		for _, k := range f.keys {
			if v, ok := attrs[k]; ok {
				v := v
				*f.ptr(r) = &v
				break
			}
		}
	}
}

// fold lower-cases keys. Keys that differ only by case resolve to the
// lexically smallest original key, so the result does not depend on map order.
func fold(attrs map[string]string) map[string]string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(attrs))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, seen := out[lk]; !seen {
			out[lk] = attrs[k]
		}
	}
	return out
}

// Str dereferences an optional attribute, returning "" when absent
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
