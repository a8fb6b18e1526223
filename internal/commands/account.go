package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Chart of accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the chart of accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(*dir, func(a *app) error {
					accts, err := a.svc.Accounts.All(cmd.Context())
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tRECONCILABLE")
					for _, acct := range accts {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", acct.Code, acct.Name, acct.Type, acct.Reconcilable)
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "import <file.csv>",
			Short: "Add or update accounts from a CSV file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()

				return withApp(*dir, func(a *app) error {
					n, err := a.svc.Accounts.Import(cmd.Context(), f)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", n)
					return nil
				})
			},
		},
		newAccountExportCommand(dir),
	)
	return cmd
}

func newAccountExportCommand(dir *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dir, func(a *app) error {
				w, closeFn, err := outputFile(cmd, out)
				if err != nil {
					return err
				}
				defer closeFn()
				return a.svc.Accounts.Export(cmd.Context(), w)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
