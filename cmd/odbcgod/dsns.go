package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sigreer/odbcgod/internal/connstr"
	"github.com/sigreer/odbcgod/internal/odbc"
	"github.com/sigreer/odbcgod/internal/report"
	"github.com/spf13/cobra"
)

var dsnsCmd = &cobra.Command{
	Use:   "dsns",
	Short: "List data sources",
	Long: `List configured data sources.

With --scope all (the default) the merged view is shown: system data
sources in their configured order, each replaced in place by a user
data source of the same name, followed by user-only data sources.`,
	Run: runDSNs,
}

var dsnCmd = &cobra.Command{
	Use:   "dsn <name>",
	Short: "Show one data source",
	Long: `Show one data source. Without --scope the user data source is
preferred over the system one.`,
	Args: cobra.ExactArgs(1),
	Run:  runDSN,
}

var connstrCmd = &cobra.Command{
	Use:   "connstr <dsn>",
	Short: "Derive a native connection string for a data source",
	Long: `Derive a provider connection string from a data source.

Exit status is 2 when no translator exists for the data source's driver,
and 1 when the data source is missing or its configuration is malformed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConnstr,
}

func init() {
	addOutputFlags(dsnsCmd.Flags())
	addScopeFlag(dsnsCmd.Flags(), "all")

	addOutputFlags(dsnCmd.Flags())
	addScopeFlag(dsnCmd.Flags(), "all")

	connstrCmd.Flags().Bool("list", false, "List drivers with a translator and exit")
}

func runDSNs(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()

	scope, all, err := scopeFlag(cmd)
	if err != nil {
		a.fatalf(1, "Error: %v\n", err)
	}

	var dsns []*odbc.DSNRecord
	if all {
		dsns, err = a.resolver.ListAllDSNs()
	} else {
		dsns, err = a.resolver.ListDSNs(scope)
	}
	if err != nil {
		a.fatalf(1, "Error reading data sources: %v\n", err)
	}

	if wantJSON(cmd) {
		if dsns == nil {
			dsns = []*odbc.DSNRecord{}
		}
		if err := report.PrintJSON(os.Stdout, dsns); err != nil {
			a.fatalf(1, "Error encoding output: %v\n", err)
		}
		return
	}
	report.PrintDSNs(os.Stdout, dsns)
}

// lookupDSN honours --scope when the command has one, otherwise prefers user
func lookupDSN(cmd *cobra.Command, a *app, name string) (*odbc.DSNRecord, error) {
	if cmd.Flags().Lookup("scope") != nil {
		scope, all, err := scopeFlag(cmd)
		if err != nil {
			return nil, err
		}
		if !all {
			return a.resolver.DSN(scope, name)
		}
	}
	return a.resolver.DSNPreferUser(name)
}

func runDSN(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()

	d, err := lookupDSN(cmd, a, args[0])
	if err != nil {
		a.fatalf(1, "Error reading data source: %v\n", err)
	}
	if d == nil {
		a.fatalf(1, "Not found: %s\n", args[0])
	}

	if wantJSON(cmd) {
		if err := report.PrintJSON(os.Stdout, d); err != nil {
			a.fatalf(1, "Error encoding output: %v\n", err)
		}
		return
	}
	report.PrintDSN(os.Stdout, d)
}

func runConnstr(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()

	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, name := range a.translators.Drivers() {
			fmt.Println(name)
		}
		return
	}
	if len(args) == 0 {
		a.fatalf(1, "Error: a data source name is required\n")
	}

	d, err := a.resolver.DSNPreferUser(args[0])
	if err != nil {
		a.fatalf(1, "Error reading data source: %v\n", err)
	}
	if d == nil {
		a.fatalf(1, "Not found: %s\n", args[0])
	}

	s, ok, err := a.translators.ConnectionString(d)
	if !ok {
		a.fatalf(2, "No connection string translator for driver %q\n", d.DriverName)
	}
	if err != nil {
		if errors.Is(err, connstr.ErrMissingSubAttribute) {
			a.fatalf(1, "Data source %s is misconfigured: %v\n", d.Name, err)
		}
		a.fatalf(1, "Error translating %s: %v\n", d.Name, err)
	}
	fmt.Println(s)
}
