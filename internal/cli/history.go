package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pakd/internal/ui"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished transactions",
	Long: `Display the record of transactions run by pakd, newest first.

Examples:
  pakd history              # Show recent history
  pakd history -l 20        # Show last 20 transactions
  pakd history --clear      # Forget all records`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if store == nil {
		return errors.New("history is not available")
	}

	if historyClear {
		if !yes {
			ok, err := ui.Confirm("Delete all history entries", false)
			if err != nil {
				return err
			}
			if !ok {
				return ErrAborted
			}
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		ui.SuccessMsg("History cleared")
		return nil
	}

	entries, err := sched.OldTransactions(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	total, err := store.Count()
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	ui.PrintHistory(entries, total)
	return nil
}
