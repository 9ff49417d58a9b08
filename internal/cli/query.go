package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

var (
	searchDetails bool
	searchGroup   bool
	searchFile    bool
	recursive     bool
	providesKind  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>...",
	Short: "Look up packages by exact name",
	Long: `Resolve package names to package ids.

Examples:
  pakd resolve glib2                  # All versions of glib2
  pakd resolve -f installed glib2     # Only the installed one
  pakd resolve -f newest glib2 gtk2   # Newest candidate of each`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPackages(transaction.Request{
			Role:    backend.RoleResolve,
			Filters: filters,
			Names:   cfg.ResolveAliases(args),
		}, "Resolving")
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search for packages",
	Long: `Search package names. With --details the summary and description are
searched too; --group matches a package group and --file a file path.

Examples:
  pakd search power                   # Names containing "power"
  pakd search --details library       # Names and descriptions
  pakd search --group system          # Packages in the system group
  pakd search --file /usr/bin/vips    # Owner of a file`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var dependsCmd = &cobra.Command{
	Use:   "depends <package>...",
	Short: "Show what packages depend on",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIDQuery(backend.RoleGetDepends, args)
	},
}

var requiresCmd = &cobra.Command{
	Use:   "requires <package>...",
	Short: "Show packages that require the given packages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIDQuery(backend.RoleGetRequires, args)
	},
}

var detailsCmd = &cobra.Command{
	Use:     "details <package>...",
	Aliases: []string{"info"},
	Short:   "Show package details",
	Long: `Show license, group, size and description of packages.

Examples:
  pakd details glib2
  pakd details "glib2;2.14.0;i386;fedora"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStreamQuery(backend.RoleGetDetails, args)
	},
}

var filesCmd = &cobra.Command{
	Use:   "files <package>...",
	Short: "List files owned by packages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStreamQuery(backend.RoleGetFiles, args)
	},
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List available updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPackages(transaction.Request{Role: backend.RoleGetUpdates, Filters: filters}, "Checking for updates")
	},
}

var updateDetailCmd = &cobra.Command{
	Use:   "update-detail <package>...",
	Short: "Show the advisory behind pending updates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ids, err := updateIDs(ctx, args)
		if err != nil {
			return err
		}
		_, err = run(ctx, transaction.Request{Role: backend.RoleGetUpdateDetail, PackageIDs: ids}, runOptions{})
		return err
	},
}

var packagesCmd = &cobra.Command{
	Use:     "packages",
	Aliases: []string{"list"},
	Short:   "List all packages",
	Long: `List every package the backend knows about.

Examples:
  pakd packages                       # Everything
  pakd packages -f installed          # Installed packages only
  pakd packages -f "~installed;~devel"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPackages(transaction.Request{Role: backend.RoleGetPackages, Filters: filters}, "Listing packages")
	},
}

var whatProvidesCmd = &cobra.Command{
	Use:   "what-provides <term>",
	Short: "Find packages providing a capability",
	Long: `Find packages that provide a codec, mime type, font or modalias.

Examples:
  pakd what-provides "gstreamer0.10(decoder-audio/x-wma)" --kind codec`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPackages(transaction.Request{
			Role:     backend.RoleWhatProvides,
			Filters:  filters,
			Provides: backend.Provides(providesKind),
			Search:   args[0],
		}, "Searching providers")
	},
}

func init() {
	searchCmd.Flags().BoolVarP(&searchDetails, "details", "d", false, "search summaries and descriptions")
	searchCmd.Flags().BoolVarP(&searchGroup, "group", "g", false, "search by package group")
	searchCmd.Flags().BoolVar(&searchFile, "file", false, "search by file path")
	searchCmd.MarkFlagsMutuallyExclusive("details", "group", "file")

	dependsCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "follow dependencies recursively")
	requiresCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "follow reverse dependencies recursively")

	whatProvidesCmd.Flags().StringVarP(&providesKind, "kind", "k", string(backend.ProvidesAny),
		"provides kind: any, codec, mimetype, font, modalias")
}

func runSearch(cmd *cobra.Command, args []string) error {
	req := transaction.Request{Role: backend.RoleSearchName, Filters: filters, Search: args[0]}
	switch {
	case searchDetails:
		req.Role = backend.RoleSearchDetails
	case searchGroup:
		req.Role = backend.RoleSearchGroup
		req.Search = ""
		req.Group = args[0]
	case searchFile:
		req.Role = backend.RoleSearchFile
	}
	return listPackages(req, fmt.Sprintf("Searching for '%s'", args[0]))
}

// listPackages runs a query and prints its package events as one table.
func listPackages(req transaction.Request, label string) error {
	res, err := run(context.Background(), req, runOptions{quiet: true, label: label})
	if err != nil {
		return err
	}
	ui.PrintPackages(res.Packages())
	return nil
}

// runIDQuery resolves args and lists the packages a dependency query
// returns.
func runIDQuery(role backend.Role, args []string) error {
	ctx := context.Background()
	ids, err := resolvePackages(ctx, args, backend.FilterNone)
	if err != nil {
		return err
	}
	return listPackages(transaction.Request{
		Role:       role,
		Filters:    filters,
		PackageIDs: ids,
		Recursive:  recursive,
	}, fmt.Sprintf("Querying %s", strings.Join(args, ", ")))
}

// runStreamQuery resolves args and streams the detail events of role.
func runStreamQuery(role backend.Role, args []string) error {
	ctx := context.Background()
	ids, err := resolvePackages(ctx, args, backend.FilterNone)
	if err != nil {
		return err
	}
	_, err = run(ctx, transaction.Request{Role: role, PackageIDs: ids}, runOptions{})
	return err
}

// updateIDs maps names onto the ids of their pending updates.
func updateIDs(ctx context.Context, args []string) ([]string, error) {
	var ids, names []string
	for _, arg := range args {
		if strings.Count(arg, ";") == 3 {
			ids = append(ids, arg)
		} else {
			names = append(names, arg)
		}
	}
	if len(names) == 0 {
		return ids, nil
	}

	res, err := run(ctx, transaction.Request{Role: backend.RoleGetUpdates}, runOptions{quiet: true, label: "Checking for updates"})
	if err != nil {
		return nil, err
	}
	pending := make(map[string]string)
	for _, p := range res.Packages() {
		pending[p.ID.Name] = p.ID.String()
	}
	for _, name := range cfg.ResolveAliases(names) {
		id, ok := pending[name]
		if !ok {
			return nil, fmt.Errorf("%w: no update for %s", ErrPackageNotFound, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
