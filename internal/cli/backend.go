package cli

import (
	"github.com/spf13/cobra"

	"pakd/internal/ui"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Show what the loaded backend supports",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintCapabilities(sched.Capabilities(), sched.Backend().Description())
	},
}

var backendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backends",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range registry.Names() {
			if name == sched.Capabilities().Name() {
				ui.Println("%s %s %s", ui.SymbolSuccess, ui.Bold(name), ui.Muted.Sprint("(loaded)"))
			} else {
				ui.Println("  %s", name)
			}
		}
	},
}

func init() {
	backendCmd.AddCommand(backendListCmd)
}
