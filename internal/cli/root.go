// Package cli implements the command-line interface for pakd. Every command
// runs its transactions through an in-process scheduler.
package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pakd/internal/config"
	"pakd/internal/history"
	"pakd/internal/logging"
	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/backend/sample"
	"pakd/pkg/scheduler"
)

var (
	// Global flags
	cfgFile     string
	backendName string
	filterFlag  string
	yes         bool
	verbose     bool
	noColor     bool
	offline     bool
	useTUI      bool

	// Global state
	cfg      *config.Config
	logger   *logrus.Logger
	registry *backend.Registry
	store    *history.Store
	sched    *scheduler.Scheduler
	filters  backend.Filter
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pakd",
	Short: "Package-management transaction broker",
	Long: `pakd runs package operations as transactions against a pluggable
backend. Queries run concurrently; installs, removals and updates are
serialized. Progress, prompts and results are streamed as they happen.

Examples:
  pakd resolve glib2                  # Look up a package by name
  pakd search --details library       # Search names and descriptions
  pakd install vips-doc               # Install, prompting for key and license
  pakd upgrade --tui                  # Watch a system update in the monitor
  pakd history                        # Show finished transactions`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initializeApp() },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", "backend to load (default from config)")
	rootCmd.PersistentFlags().StringVarP(&filterFlag, "filter", "f", "", "result filters, e.g. \"installed;~devel\"")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "treat the network as unavailable")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "follow the transaction in the interactive monitor")

	// Query commands
	rootCmd.AddCommand(resolveCmd, searchCmd, dependsCmd, requiresCmd, detailsCmd,
		filesCmd, updatesCmd, updateDetailCmd, packagesCmd, whatProvidesCmd)

	// Mutating commands
	rootCmd.AddCommand(installCmd, installFileCmd, removeCmd, upgradeCmd, refreshCmd,
		downloadCmd, installSignatureCmd, acceptEulaCmd)

	rootCmd.AddCommand(repoCmd, historyCmd, backendCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.ErrorMsg("%v", err)
	}
	// PersistentPostRunE does not run when the command fails.
	_ = shutdown()
	return err
}

// initializeApp loads configuration and starts the scheduler.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply global flag overrides
	if verbose {
		cfg.Output.Verbose = true
		cfg.Log.Level = "debug"
	}
	if noColor {
		cfg.Output.Color = false
	}
	if offline {
		cfg.General.Online = false
	}
	if backendName != "" {
		cfg.General.Backend = backendName
	}

	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)
	logger = logging.New(cfg.Log)

	filters, err = backend.ParseFilter(filterFlag)
	if err != nil {
		return err
	}

	registry = backend.NewRegistry()
	registry.Register(sample.Name, sample.Factory)

	b, err := registry.Open(cfg.General.Backend, settings(cfg))
	if err != nil {
		return err
	}

	store, err = history.OpenAt(config.HistoryPath(), cfg.Scheduler.HistoryMax)
	if err != nil {
		// Non-fatal: transactions still run without a history record
		ui.WarningMsg("Could not open history: %v", err)
		store = nil
	} else if age := cfg.Scheduler.HistoryMaxAge.Duration; age > 0 {
		if n, err := store.Prune(age); err == nil && n > 0 {
			logger.WithField("removed", n).Debug("pruned history")
		}
	}

	opts := scheduler.Options{
		Locale:      cfg.General.Locale,
		CancelGrace: cfg.Scheduler.CancelGrace.Duration,
		ArchiveSize: cfg.Scheduler.ArchiveSize,
		Logger:      logger,
	}
	if store != nil {
		opts.History = store
	}

	sched, err = scheduler.New(context.Background(), b, opts)
	if err != nil {
		return err
	}
	return nil
}

// settings maps the configuration onto backend factory settings.
func settings(c *config.Config) backend.Settings {
	return backend.Settings{
		Catalog:        c.Backend.Catalog,
		Repos:          c.ReposFile(),
		FileIndex:      c.Backend.FileIndex,
		Tick:           c.Backend.Tick.Duration,
		Offline:        !c.General.Online,
		ExclusiveCache: c.Backend.ExclusiveCache,
		Watch:          c.Backend.Watch,
		Logger:         logging.Component(logger, "backend"),
	}
}

// shutdown stops the scheduler and closes the history store. It is safe to
// call more than once.
func shutdown() error {
	var err error
	if sched != nil {
		err = sched.Close()
		sched = nil
	}
	if store != nil {
		if cerr := store.Close(); err == nil {
			err = cerr
		}
		store = nil
	}
	return err
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pakd version",
	// The version command needs no scheduler.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("pakd version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
