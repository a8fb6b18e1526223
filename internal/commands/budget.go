package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/budget"
	"github.com/spendiq/spendiq/internal/model"
)

func newBudgetCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Budgets per analytic account",
	}
	cmd.AddCommand(
		newBudgetCreateCommand(dir),
		newBudgetTransitionCommand(dir, "confirm", "Confirm a draft budget", func(ctx context.Context, a *app, id string) (model.Budget, error) {
			return a.svc.Budgets.Confirm(ctx, id)
		}),
		newBudgetTransitionCommand(dir, "revise", "Supersede a confirmed budget with a new draft", func(ctx context.Context, a *app, id string) (model.Budget, error) {
			return a.svc.Budgets.Revise(ctx, id)
		}),
		newBudgetTransitionCommand(dir, "archive", "Archive a draft or confirmed budget", func(ctx context.Context, a *app, id string) (model.Budget, error) {
			return a.svc.Budgets.Archive(ctx, id)
		}),
		&cobra.Command{
			Use:   "list",
			Short: "List budgets with actuals for confirmed ones",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(*dir, func(a *app) error {
					budgets, err := a.svc.Budgets.List(cmd.Context())
					if err != nil {
						return err
					}
					codes, err := analyticCodes(cmd.Context(), a)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tANALYTIC\tTYPE\tPERIOD\tSTATUS\tBUDGETED\tACTUAL\tACHIEVED")
					for _, b := range budgets {
						actual, pct := "-", "-"
						if b.Actuals != nil {
							actual = money(b.Actuals.ActualAmount)
							pct = money(b.Actuals.AchievedPercentage) + "%"
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s..%s\t%s\t%s\t%s\t%s\n",
							b.ID, b.Name, codes[b.AnalyticAccountID], b.Type,
							b.StartDate.Format(model.DateLayout), b.EndDate.Format(model.DateLayout),
							b.Status, money(b.BudgetedAmount), actual, pct)
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "actuals <budget-id>",
			Short: "Reconcile a budget against posted documents",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(*dir, func(a *app) error {
					b, err := a.svc.Budgets.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					act, err := a.svc.Budgets.ComputeActuals(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s (%s)\n", b.Name, b.Status)
					fmt.Fprintf(out, "  budgeted   %s\n", money(b.BudgetedAmount))
					fmt.Fprintf(out, "  actual     %s\n", money(act.ActualAmount))
					fmt.Fprintf(out, "  achieved   %s%%\n", money(act.AchievedPercentage))
					fmt.Fprintf(out, "  remaining  %s\n", money(act.RemainingAmount))
					if act.IsOverBudget {
						fmt.Fprintln(out, "  OVER BUDGET")
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "history <budget-id>",
			Short: "Show the revision chain of a budget",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(*dir, func(a *app) error {
					chain, err := a.svc.Budgets.History(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					for _, b := range chain {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n", b.ID, b.Status, money(b.BudgetedAmount), b.CreatedAt.Format(model.DateLayout))
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func newBudgetCreateCommand(dir *string) *cobra.Command {
	var (
		name       string
		start, end string
		analytic   string
		budgetType string
		amount     string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft budget",
		Example: `  spendiq budget create --name "Q1 Marketing" --analytic MKT --type EXPENSE \
    --start 2025-01-01 --end 2025-03-31 --amount 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := budget.Draft{Name: name, Type: model.BudgetType(strings.ToUpper(budgetType))}
			var err error
			if d.StartDate, err = parseDate("start", start, today()); err != nil {
				return err
			}
			if d.EndDate, err = parseDate("end", end, d.StartDate); err != nil {
				return err
			}
			if d.BudgetedAmount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			return withApp(*dir, func(a *app) error {
				acct, err := a.svc.Analytic.AccountByCode(cmd.Context(), analytic)
				if err != nil {
					return err
				}
				d.AnalyticAccountID = acct.ID
				b, err := a.svc.Budgets.Create(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created budget %s (%s)\n", b.Name, b.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "budget name (required)")
	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&analytic, "analytic", "", "analytic account code (required)")
	cmd.Flags().StringVar(&budgetType, "type", string(model.BudgetTypeExpense), "INCOME or EXPENSE")
	cmd.Flags().StringVar(&amount, "amount", "", "budgeted amount (required)")
	for _, f := range []string{"name", "start", "end", "analytic", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newBudgetTransitionCommand(dir *string, use, short string, fn func(ctx context.Context, a *app, id string) (model.Budget, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <budget-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dir, func(a *app) error {
				b, err := fn(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Budget %s is %s (%s)\n", b.Name, b.Status, b.ID)
				return nil
			})
		},
	}
}
