package main

import (
	"os"

	"github.com/sigreer/odbcgod/internal/odbc"
	"github.com/sigreer/odbcgod/internal/report"
	"github.com/sigreer/odbcgod/internal/store"
	"github.com/spf13/cobra"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List installed ODBC drivers",
	Long: `List the drivers registered in the driver index.

Drivers listed in the index without a detail section are skipped.
With --scope all (the default) user drivers override system drivers
of the same name.`,
	Run: runDrivers,
}

var driverCmd = &cobra.Command{
	Use:   "driver <name>",
	Short: "Show one driver",
	Args:  cobra.ExactArgs(1),
	Run:   runDriver,
}

func init() {
	addOutputFlags(driversCmd.Flags())
	addScopeFlag(driversCmd.Flags(), "all")

	addOutputFlags(driverCmd.Flags())
	addScopeFlag(driverCmd.Flags(), "system")
}

func runDrivers(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()

	scope, all, err := scopeFlag(cmd)
	if err != nil {
		a.fatalf(1, "Error: %v\n", err)
	}

	var drivers []*odbc.DriverRecord
	if all {
		drivers, err = a.resolver.ListAllDrivers()
	} else {
		drivers, err = a.resolver.ListDrivers(scope)
	}
	if err != nil {
		a.fatalf(1, "Error reading drivers: %v\n", err)
	}

	if wantJSON(cmd) {
		if drivers == nil {
			drivers = []*odbc.DriverRecord{}
		}
		if err := report.PrintJSON(os.Stdout, drivers); err != nil {
			a.fatalf(1, "Error encoding output: %v\n", err)
		}
		return
	}
	report.PrintDrivers(os.Stdout, drivers)
}

func runDriver(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()

	scope, all, err := scopeFlag(cmd)
	if err != nil {
		a.fatalf(1, "Error: %v\n", err)
	}

	var d *odbc.DriverRecord
	if all {
		d, err = a.resolver.Driver(store.ScopeUser, args[0])
		if err == nil && d == nil {
			d, err = a.resolver.Driver(store.ScopeSystem, args[0])
		}
	} else {
		d, err = a.resolver.Driver(scope, args[0])
	}
	if err != nil {
		a.fatalf(1, "Error reading driver: %v\n", err)
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
	report.PrintDriver(os.Stdout, d)
}
