package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sigreer/odbcgod/internal/db"
	"github.com/sigreer/odbcgod/internal/inventory"
	"github.com/sigreer/odbcgod/internal/report"
	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Manage the ODBC configuration inventory",
	Long: `Manage the persistent inventory database.

Each sync records the drivers and data sources seen in both scopes,
plus the merged data source view, so configuration drift can be
tracked over time.`,
}

var inventorySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Record the current configuration as a new scan",
	Run:   runInventorySync,
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded scans",
	Run:   runInventoryList,
}

var inventoryShowCmd = &cobra.Command{
	Use:   "show [scan]",
	Short: "Show data sources of a scan (latest by default)",
	Args:  cobra.MaximumNArgs(1),
	Run:   runInventoryShow,
}

var inventoryDiffCmd = &cobra.Command{
	Use:   "diff <from> <to>",
	Short: "Compare the merged data sources of two scans",
	Args:  cobra.ExactArgs(2),
	Run:   runInventoryDiff,
}

func init() {
	inventoryCmd.AddCommand(inventorySyncCmd)
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryShowCmd)
	inventoryCmd.AddCommand(inventoryDiffCmd)

	inventoryCmd.PersistentFlags().String("db", "", "inventory database (default from config)")

	addOutputFlags(inventoryListCmd.Flags())
	inventoryListCmd.Flags().Int("limit", 20, "Maximum number of scans to show")

	addOutputFlags(inventoryShowCmd.Flags())
	inventoryShowCmd.Flags().Bool("all", false, "Include per-scope entries, not only the merged view")

	addOutputFlags(inventoryDiffCmd.Flags())
}

func openDB(cmd *cobra.Command, a *app) *db.DB {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = a.cfg.Inventory
	}
	database, err := db.New(path)
	if err != nil {
		a.fatalf(1, "Error opening database: %v\n", err)
	}
	a.onClose(database.Close)
	return database
}

func runInventorySync(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()
	database := openDB(cmd, a)

	scan, err := inventory.Sync(database, a.resolver, a.translators, a.cfg.ResolveBackend(), a.log)
	if err != nil {
		a.fatalf(1, "Error syncing inventory: %v\n", err)
	}
	fmt.Printf("Recorded scan %s: %s driver(s), %s data source(s)\n",
		scan.ID, humanize.Comma(int64(scan.DriverCount)), humanize.Comma(int64(scan.DSNCount)))
}

func runInventoryList(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()
	database := openDB(cmd, a)

	limit, _ := cmd.Flags().GetInt("limit")
	scans, err := database.GetScans(limit)
	if err != nil {
		a.fatalf(1, "Error querying scans: %v\n", err)
	}

	if wantJSON(cmd) {
		report.PrintJSON(os.Stdout, scans)
		return
	}
	report.PrintScans(os.Stdout, scans)
}

func runInventoryShow(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()
	database := openDB(cmd, a)

	var scan *db.Scan
	var err error
	if len(args) == 1 {
		scan, err = database.GetScan(args[0])
	} else {
		scan, err = database.LatestScan()
	}
	if err != nil {
		a.fatalf(1, "Error querying scan: %v\n", err)
	}
	if scan == nil {
		a.fatalf(1, "No such scan. Run 'odbcgod inventory sync' to populate.\n")
	}

	all, _ := cmd.Flags().GetBool("all")
	dsns, err := database.GetScanDSNs(scan.ID, !all)
	if err != nil {
		a.fatalf(1, "Error querying data sources: %v\n", err)
	}

	if wantJSON(cmd) {
		report.PrintJSON(os.Stdout, map[string]any{"scan": scan, "dsns": dsns})
		return
	}
	report.PrintScanDSNs(os.Stdout, scan, dsns)
}

func runInventoryDiff(cmd *cobra.Command, args []string) {
	a := mustSetup()
	defer a.close()
	database := openDB(cmd, a)

	diff, err := database.DiffScans(args[0], args[1])
	if err != nil {
		a.fatalf(1, "Error comparing scans: %v\n", err)
	}

	if wantJSON(cmd) {
		report.PrintJSON(os.Stdout, diff)
		return
	}
	report.PrintDiff(os.Stdout, diff)
}
