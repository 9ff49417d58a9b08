package cli

import (
	"context"

	"github.com/spf13/cobra"

	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage software repositories",
	Long: `List, enable, disable and configure repositories.

Examples:
  pakd repo list
  pakd repo disable development
  pakd repo set fedora mirror https://mirror.example.org/fedora`,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := run(context.Background(), transaction.Request{
			Role:    backend.RoleGetRepoList,
			Filters: filters,
		}, runOptions{quiet: true, label: "Listing repositories"})
		if err != nil {
			return err
		}

		var repos []backend.RepoDetail
		for _, ev := range res.Events {
			if r, ok := ev.(transaction.RepoDetailEvent); ok {
				repos = append(repos, r.RepoDetail)
			}
		}
		ui.PrintRepos(repos)
		return nil
	},
}

var repoEnableCmd = &cobra.Command{
	Use:   "enable <repo-id>",
	Short: "Enable a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRepoEnabled(args[0], true)
	},
}

var repoDisableCmd = &cobra.Command{
	Use:   "disable <repo-id>",
	Short: "Disable a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRepoEnabled(args[0], false)
	},
}

var repoSetCmd = &cobra.Command{
	Use:   "set <repo-id> <parameter> <value>",
	Short: "Set a repository parameter",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(context.Background(), transaction.Request{
			Role:      backend.RoleRepoSetData,
			RepoID:    args[0],
			Parameter: args[1],
			Value:     args[2],
		}, "Updating "+args[0], "Set %s.%s", args[0], args[1])
	},
}

func init() {
	repoCmd.AddCommand(repoListCmd, repoEnableCmd, repoDisableCmd, repoSetCmd)
}

func setRepoEnabled(id string, enabled bool) error {
	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}
	return mutate(context.Background(), transaction.Request{
		Role:    backend.RoleRepoEnable,
		RepoID:  id,
		Enabled: enabled,
	}, "Updating "+id, "%s %s", verb, id)
}
