package commands

import (
	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "spendiq",
		Short:   "Double-entry ledger with analytic budgets",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(&dir),
		newAnalyticCommand(&dir),
		newRuleCommand(&dir),
		newJournalCommand(&dir),
		newInvoiceCommand(&dir),
		newBudgetCommand(&dir),
		newServeCommand(&dir),
	)

	return rootCmd
}
