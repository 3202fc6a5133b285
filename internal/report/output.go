// Package report renders drivers, data sources and inventory scans
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sigreer/odbcgod/internal/db"
	"github.com/sigreer/odbcgod/internal/odbc"
)

// PrintJSON outputs v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintDrivers outputs a driver list as a table
func PrintDrivers(w io.Writer, drivers []*odbc.DriverRecord) {
	if len(drivers) == 0 {
		fmt.Fprintln(w, "No ODBC drivers registered.")
		return
	}
	fmt.Fprintf(w, "%-36s %-7s %-8s %s\n", "DRIVER", "SCOPE", "ODBCVER", "LIBRARY")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, d := range drivers {
		fmt.Fprintf(w, "%-36s %-7s %-8s %s\n", d.Name, d.Scope, dash(d.DriverODBCVer), dash(d.DriverDLL))
	}
	fmt.Fprintf(w, "\n%s driver(s)\n", humanize.Comma(int64(len(drivers))))
}

// PrintDriver outputs every attribute of one driver
func PrintDriver(w io.Writer, d *odbc.DriverRecord) {
	printField(w, "Driver", d.Name)
	printField(w, "Scope", d.Scope.String())
	printPtrField(w, "Library", d.DriverDLL)
	printPtrField(w, "Setup", d.Setup)
	printPtrField(w, "API Level", d.APILevel)
	printPtrField(w, "ConnectFunctions", d.ConnectFunctions)
	printPtrField(w, "ODBC Version", d.DriverODBCVer)
	printPtrField(w, "SQL Level", d.SQLLevel)
	printPtrField(w, "File Extensions", d.FileExtns)
	printPtrField(w, "File Usage", d.FileUsage)
	printPtrField(w, "Usage Count", d.UsageCount)
	printPtrField(w, "CP Timeout", d.CPTimeout)
	printPtrField(w, "Uninstall", d.Uninstall)
}

// PrintDSNs outputs a data source list as a table
func PrintDSNs(w io.Writer, dsns []*odbc.DSNRecord) {
	if len(dsns) == 0 {
		fmt.Fprintln(w, "No data sources configured.")
		return
	}
	fmt.Fprintf(w, "%-24s %-7s %-28s %-16s %s\n", "DSN", "SCOPE", "DRIVER", "SERVER", "DATABASE")
	fmt.Fprintln(w, strings.Repeat("-", 95))
	for _, d := range dsns {
		fmt.Fprintf(w, "%-24s %-7s %-28s %-16s %s\n",
			d.Name, d.Scope, orDash(d.DriverName), dash(d.Server), dash(d.Database))
	}
	fmt.Fprintf(w, "\n%s data source(s)\n", humanize.Comma(int64(len(dsns))))
}

// PrintDSN outputs every attribute of one data source. The password is masked.
func PrintDSN(w io.Writer, d *odbc.DSNRecord) {
	printField(w, "DSN", d.Name)
	printField(w, "Scope", d.Scope.String())
	printField(w, "Driver", d.DriverName)
	printPtrField(w, "Driver Path", d.DriverPath)
	printPtrField(w, "Description", d.Description)
	printPtrField(w, "Server", d.Server)
	printPtrField(w, "Database", d.Database)
	printPtrField(w, "User ID", d.UserID)
	if odbc.Str(d.Password) != "" {
		printField(w, "Password", "********")
	}
	printPtrField(w, "Host", d.Host)
	printPtrField(w, "CommLinks", d.CommLinks)
}

// PrintScans outputs recorded inventory scans
func PrintScans(w io.Writer, scans []*db.Scan) {
	if len(scans) == 0 {
		fmt.Fprintln(w, "No scans in inventory. Run 'odbcgod inventory sync' to populate.")
		return
	}
	fmt.Fprintf(w, "%-36s %-9s %-8s %-6s %s\n", "SCAN", "BACKEND", "DRIVERS", "DSNS", "WHEN")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range scans {
		fmt.Fprintf(w, "%-36s %-9s %-8d %-6d %s\n",
			s.ID, s.Backend, s.DriverCount, s.DSNCount, humanize.Time(s.StartedAt))
	}
}

// PrintScanDSNs outputs the data sources recorded by one scan
func PrintScanDSNs(w io.Writer, scan *db.Scan, dsns []*db.DSNEntry) {
	fmt.Fprintf(w, "Scan %s (%s, %s)\n\n", scan.ID, scan.Backend, humanize.Time(scan.StartedAt))
	fmt.Fprintf(w, "%-24s %-7s %-28s %-16s %s\n", "DSN", "SCOPE", "DRIVER", "SERVER", "CONNSTR")
	fmt.Fprintln(w, strings.Repeat("-", 95))
	for _, e := range dsns {
		status := "-"
		switch {
		case e.TranslateError != "":
			status = "error"
		case e.Translated:
			status = "ok"
		}
		fmt.Fprintf(w, "%-24s %-7s %-28s %-16s %s\n",
			e.Name, e.Scope, orDash(e.DriverName), orDash(e.Server), status)
	}
}

// PrintDiff outputs the difference between two scans
func PrintDiff(w io.Writer, d *db.ScanDiff) {
	if d.Empty() {
		fmt.Fprintln(w, "No changes.")
		return
	}
	for _, n := range d.Added {
		fmt.Fprintf(w, "+ %s\n", n)
	}
	for _, n := range d.Removed {
		fmt.Fprintf(w, "- %s\n", n)
	}
	for _, n := range d.Changed {
		fmt.Fprintf(w, "~ %s\n", n)
	}
}

// printField prints a field if value is non-empty
func printField(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "%-20s %s\n", label, value)
	}
}

// printPtrField prints a pointer field if non-nil
func printPtrField(w io.Writer, label string, value *string) {
	if value != nil && *value != "" {
		fmt.Fprintf(w, "%-20s %s\n", label, *value)
	}
}

func dash(p *string) string {
	return orDash(odbc.Str(p))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
