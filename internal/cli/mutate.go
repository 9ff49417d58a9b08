package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"pakd/internal/config"
	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

var (
	onlyTrusted bool
	allowDeps   bool
	autoremove  bool
	forceCache  bool
	downloadDir string
)

var installCmd = &cobra.Command{
	Use:   "install <package>...",
	Short: "Install packages",
	Long: `Install packages by name or package id.

When a repository key or license agreement is required you are asked to
import the key or accept the agreement, and the install is retried.

Examples:
  pakd install glib2                  # Pick a version interactively
  pakd install -y vips-doc            # Accept key and license prompts
  pakd install "glib2;2.14.0;i386;fedora"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ids, err := resolvePackages(ctx, args, backend.FilterNotInstalled)
		if err != nil {
			return err
		}
		if err := confirmPackages("Installing", ids); err != nil {
			return err
		}
		return mutate(ctx, transaction.Request{
			Role:        backend.RoleInstallPackages,
			OnlyTrusted: onlyTrusted,
			PackageIDs:  ids,
		}, "Installing", "Installed %d package(s)", len(ids))
	},
}

var installFileCmd = &cobra.Command{
	Use:   "install-file <file>...",
	Short: "Install local package files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := make([]string, len(args))
		for i, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			paths[i] = abs
		}
		return mutate(context.Background(), transaction.Request{
			Role:        backend.RoleInstallFiles,
			OnlyTrusted: onlyTrusted,
			Files:       paths,
		}, "Installing files", "Installed %d file(s)", len(paths))
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <package>...",
	Aliases: []string{"uninstall", "rm"},
	Short:   "Remove installed packages",
	Long: `Remove installed packages.

Removing a package that others depend on fails unless --allow-deps is
given, in which case the dependants are removed too.

Examples:
  pakd remove glib2 --allow-deps
  pakd remove --autoremove gtk2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ids, err := resolvePackages(ctx, args, backend.FilterInstalled)
		if err != nil {
			return err
		}
		if err := confirmPackages("Removing", ids); err != nil {
			return err
		}
		return mutate(ctx, transaction.Request{
			Role:       backend.RoleRemovePackages,
			PackageIDs: ids,
			AllowDeps:  allowDeps,
			Autoremove: autoremove,
		}, "Removing", "Removed %d package(s)", len(ids))
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [package]...",
	Short: "Apply available updates",
	Long: `Apply updates. Without arguments every available update is applied.

Examples:
  pakd upgrade                        # Update the whole system
  pakd upgrade powertop               # Update one package`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if len(args) == 0 {
			return mutate(ctx, transaction.Request{
				Role:        backend.RoleUpdateSystem,
				OnlyTrusted: onlyTrusted,
			}, "Updating system", "System is up to date")
		}
		ids, err := updateIDs(ctx, args)
		if err != nil {
			return err
		}
		if err := confirmPackages("Updating", ids); err != nil {
			return err
		}
		return mutate(ctx, transaction.Request{
			Role:        backend.RoleUpdatePackages,
			OnlyTrusted: onlyTrusted,
			PackageIDs:  ids,
		}, "Updating", "Updated %d package(s)", len(ids))
	},
}

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Aliases: []string{"update"},
	Short:   "Refresh package metadata",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(context.Background(), transaction.Request{
			Role:  backend.RoleRefreshCache,
			Force: forceCache,
		}, "Refreshing metadata", "Package metadata refreshed")
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <package>...",
	Short: "Download packages without installing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ids, err := resolvePackages(ctx, args, backend.FilterNone)
		if err != nil {
			return err
		}
		dir := downloadDir
		if dir == "" {
			dir = config.DownloadDir()
		}
		if dir, err = filepath.Abs(dir); err != nil {
			return err
		}
		return mutate(ctx, transaction.Request{
			Role:       backend.RoleDownloadPackages,
			PackageIDs: ids,
			Directory:  dir,
		}, "Downloading", "Downloaded %d package(s) to %s", len(ids), dir)
	},
}

var installSignatureCmd = &cobra.Command{
	Use:   "install-signature <key-id> <package>",
	Short: "Import a repository signing key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ids, err := resolvePackages(ctx, args[1:], backend.FilterNone)
		if err != nil {
			return err
		}
		return mutate(ctx, transaction.Request{
			Role:       backend.RoleInstallSignature,
			SigType:    backend.SigTypeGPG,
			KeyID:      args[0],
			PackageIDs: ids,
		}, "Importing key", "Imported key %s", args[0])
	},
}

var acceptEulaCmd = &cobra.Command{
	Use:   "accept-eula <eula-id>",
	Short: "Accept a license agreement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(context.Background(), transaction.Request{
			Role:   backend.RoleAcceptEula,
			EulaID: args[0],
		}, "Accepting agreement", "Accepted %s", args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{installCmd, installFileCmd, upgradeCmd} {
		c.Flags().BoolVar(&onlyTrusted, "only-trusted", true, "refuse unsigned packages")
	}
	removeCmd.Flags().BoolVar(&allowDeps, "allow-deps", false, "also remove packages that depend on these")
	removeCmd.Flags().BoolVar(&autoremove, "autoremove", false, "remove dependencies no longer needed")
	refreshCmd.Flags().BoolVar(&forceCache, "force", false, "refresh even when metadata is current")
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "download directory (default from data dir)")
}

// mutate runs a state-changing transaction and reports success.
func mutate(ctx context.Context, req transaction.Request, label, success string, args ...interface{}) error {
	if _, err := run(ctx, req, runOptions{label: label}); err != nil {
		return err
	}
	ui.SuccessMsg(success, args...)
	return nil
}
