package store

// Well-known locations, relative to a scope root. Both scopes use the same layout.
const (
	// InstRoot holds driver registrations
	InstRoot = `SOFTWARE\ODBC\ODBCINST.INI`
	// DSNRoot holds data source registrations
	DSNRoot = `SOFTWARE\ODBC\ODBC.INI`

	DriversIndexName = "ODBC Drivers"
	DSNIndexName     = "ODBC Data Sources"

	DriversIndexPath = InstRoot + `\` + DriversIndexName
	DSNIndexPath     = DSNRoot + `\` + DSNIndexName
)

// DriverPath returns the detail location of a driver
func DriverPath(name string) string {
	return InstRoot + `\` + name
}

// DSNPath returns the detail location of a data source
func DSNPath(name string) string {
	return DSNRoot + `\` + name
}

// SplitPath splits a backslash separated path into its non-empty components
func SplitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '\\' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
