package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/analytic"
	"github.com/spendiq/spendiq/internal/model"
)

func newAnalyticCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytic",
		Short: "Analytic accounts (cost centers, projects, departments)",
	}

	var parent string
	add := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Create an analytic account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dir, func(a *app) error {
				acct, err := a.svc.Analytic.CreateAccount(cmd.Context(), analytic.AccountDraft{
					Code:       args[0],
					Name:       args[1],
					ParentCode: parent,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created analytic account %s %s (%s)\n", acct.Code, acct.Name, acct.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&parent, "parent", "", "parent analytic account code")

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the analytic account tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dir, func(a *app) error {
				tree, err := a.svc.Analytic.Tree(cmd.Context())
				if err != nil {
					return err
				}
				printTree(cmd.OutOrStdout(), tree, 0)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func printTree(w io.Writer, nodes []model.AnalyticAccount, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", depth), n.Code, n.Name)
		printTree(w, n.Children, depth+1)
	}
}
