package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sigreer/odbcgod/internal/config"
	"github.com/sigreer/odbcgod/internal/connstr"
	"github.com/sigreer/odbcgod/internal/logger"
	"github.com/sigreer/odbcgod/internal/odbc"
	"github.com/sigreer/odbcgod/internal/store"
	"github.com/sigreer/odbcgod/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	cfgFile      string
	backend      string
	fixture      string
	logLevel     string
	registryView string
)

// Replaced in tests
var (
	osExit           = os.Exit
	stderr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "odbcgod",
	Short: "ODBC driver and data source inspector",
	Long: `odbcgod lists the ODBC drivers and data sources configured on this
machine, merging system-wide and per-user settings the way the driver
manager does, and derives native connection strings for known drivers.

Configuration is read from the Windows registry or from unixODBC
odbcinst.ini/odbc.ini files.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("odbcgod", version.Version)
	},
}

// app bundles what every command needs
type app struct {
	cfg         *config.Config
	log         *zap.Logger
	resolver    *odbc.Resolver
	translators *connstr.Registry
	closers     []func() error
}

// onClose registers fn to run when the command finishes, also on fatalf
func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close runs registered closers in reverse order and flushes the logger
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	a.log.Sync()
}

// fatalf prints to stderr, releases resources and exits with code.
// Deferred calls do not run after os.Exit.
func (a *app) fatalf(code int, format string, args ...any) {
	fmt.Fprintf(stderr, format, args...)
	a.close()
	osExit(code)
}

// setup loads config, applies global flag overrides and opens the store
func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if fixture != "" {
		cfg.Fixture = fixture
		if backend == "" {
			cfg.Backend = config.BackendFixture
		}
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if registryView != "" {
		cfg.Registry.View = registryView
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	s, err := cfg.OpenStore(log)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.ResolveBackend(), err)
	}
	log.Debug("store opened", zap.String("backend", cfg.ResolveBackend()), zap.Duration("cache_ttl", cfg.CacheTTL))

	return &app{
		cfg:         cfg,
		log:         log,
		resolver:    odbc.New(s, odbc.WithLogger(log)),
		translators: connstr.DefaultRegistry(log),
	}, nil
}

// mustSetup is setup for Run functions: it exits on failure
func mustSetup() *app {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}

// addOutputFlags registers the shared --json flag
func addOutputFlags(fs *pflag.FlagSet) {
	fs.Bool("json", false, "Output as JSON")
}

// addScopeFlag registers --scope with the given default
func addScopeFlag(fs *pflag.FlagSet, def string) {
	fs.StringP("scope", "s", def, "Scope: system, user or all")
}

// wantJSON is true when --json is set or stdout is not a terminal
func wantJSON(cmd *cobra.Command) bool {
	if j, _ := cmd.Flags().GetBool("json"); j {
		return true
	}
	fd := os.Stdout.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// scopeFlag parses --scope; "all" or empty sets all
func scopeFlag(cmd *cobra.Command) (scope store.Scope, all bool, err error) {
	s, _ := cmd.Flags().GetString("scope")
	if s == "" || s == "all" {
		return 0, true, nil
	}
	scope, err = store.ParseScope(s)
	return scope, false, err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/odbcgod/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "store backend: auto, registry, ini or fixture")
	rootCmd.PersistentFlags().StringVar(&fixture, "fixture", "", "read configuration from a YAML fixture")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&registryView, "registry-view", "", "registry view: default, 32 or 64")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(driverCmd)
	rootCmd.AddCommand(dsnsCmd)
	rootCmd.AddCommand(dsnCmd)
	rootCmd.AddCommand(connstrCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
