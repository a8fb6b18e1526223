package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/analytic"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

func newRuleCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Auto-analytical rules",
	}
	cmd.AddCommand(
		newRuleAddCommand(dir),
		newRuleListCommand(dir),
		newRuleShowCommand(dir),
		newRuleMatchCommand(dir),
		newRuleToggleCommand(dir, "enable", true),
		newRuleToggleCommand(dir, "disable", false),
	)
	return cmd
}

func newRuleAddCommand(dir *string) *cobra.Command {
	var (
		name     string
		priority int
		target   string
		when     []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a rule",
		Example: `  spendiq rule add --name ads --target MKT --priority 10 \
    --when "DESCRIPTION CONTAINS ads" --when "VENDOR EQUALS v-42"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conds := make([]model.Condition, 0, len(when))
			for _, w := range when {
				c, err := parseCondition(w)
				if err != nil {
					return err
				}
				conds = append(conds, c)
			}

			return withApp(*dir, func(a *app) error {
				acct, err := a.svc.Analytic.AccountByCode(cmd.Context(), target)
				if err != nil {
					return err
				}
				r, err := a.svc.Analytic.CreateRule(cmd.Context(), analytic.RuleDraft{
					Name:            name,
					Priority:        priority,
					TargetAccountID: acct.ID,
					Conditions:      conds,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created rule %s (%s)\n", r.Name, r.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "rule name (required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "higher priorities are evaluated first")
	cmd.Flags().StringVar(&target, "target", "", "analytic account code to assign (required)")
	cmd.Flags().StringArrayVar(&when, "when", nil, `condition as "FIELD OPERATOR VALUE"; repeatable, all must hold`)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

// parseCondition reads "FIELD OPERATOR VALUE". The value may contain spaces.
func parseCondition(s string) (model.Condition, error) {
	parts := strings.SplitN(strings.TrimSpace(s), " ", 3)
	if len(parts) != 3 {
		return model.Condition{}, ledgererr.Validationf("--when %q: expected FIELD OPERATOR VALUE", s)
	}
	c := model.Condition{
		Field:    model.ConditionField(strings.ToUpper(parts[0])),
		Operator: model.ConditionOperator(strings.ToUpper(parts[1])),
		Value:    strings.TrimSpace(parts[2]),
	}
	if !analytic.ValidField(c.Field) {
		return model.Condition{}, ledgererr.Validationf("--when %q: unknown field %s", s, parts[0])
	}
	if !analytic.ValidOperator(c.Operator) {
		return model.Condition{}, ledgererr.Validationf("--when %q: unknown operator %s", s, parts[1])
	}
	return c, nil
}

func newRuleListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dir, func(a *app) error {
				ctx := cmd.Context()
				rules, err := a.svc.Analytic.Rules(ctx)
				if err != nil {
					return err
				}
				codes, err := analyticCodes(ctx, a)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tPRIORITY\tACTIVE\tTARGET\tCONDITIONS")
				for _, r := range rules {
					conds := make([]string, 0, len(r.Conditions))
					for _, c := range r.Conditions {
						conds = append(conds, fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value))
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\t%s\n",
						r.ID, r.Name, r.Priority, r.Active, codes[r.TargetAccountID], strings.Join(conds, " AND "))
				}
				return tw.Flush()
			})
		},
	}
}

func newRuleShowCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show a rule and its conditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dir, func(a *app) error {
				ctx := cmd.Context()
				r, err := a.svc.Analytic.Rule(ctx, args[0])
				if err != nil {
					return err
				}
				codes, err := analyticCodes(ctx, a)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				state := "active"
				if !r.Active {
					state = "inactive"
				}
				fmt.Fprintf(out, "%s (%s)\n", r.Name, r.ID)
				fmt.Fprintf(out, "  priority  %d, %s\n", r.Priority, state)
				fmt.Fprintf(out, "  target    %s\n", codes[r.TargetAccountID])
				for _, c := range r.Conditions {
					fmt.Fprintf(out, "  when      %s %s %q\n", c.Field, c.Operator, c.Value)
				}
				return nil
			})
		},
	}
}

func newRuleMatchCommand(dir *string) *cobra.Command {
	var vendor, category, description, accountCode string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Show which analytic account the rules assign to a line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dir, func(a *app) error {
				ctx := cmd.Context()
				mc := model.MatchContext{VendorID: vendor, ProductCategoryID: category, Description: description}
				if accountCode != "" {
					acct, err := a.svc.Accounts.ByCode(ctx, accountCode)
					if err != nil {
						return err
					}
					mc.AccountID = acct.ID
				}

				target, ok, err := a.svc.Analytic.FindAnalyticAccount(ctx, mc)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "No rule matched")
					return nil
				}
				codes, err := analyticCodes(ctx, a)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Matched %s\n", codes[target])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor id")
	cmd.Flags().StringVar(&category, "category", "", "product category id")
	cmd.Flags().StringVar(&description, "description", "", "line description")
	cmd.Flags().StringVar(&accountCode, "account", "", "ledger account code")
	return cmd
}

func newRuleToggleCommand(dir *string, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dir, func(a *app) error {
				if err := a.svc.Analytic.SetRuleActive(cmd.Context(), args[0], active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %s %sd\n", args[0], use)
				return nil
			})
		},
	}
}

// analyticCodes maps analytic account ids to codes for display.
func analyticCodes(ctx context.Context, a *app) (map[string]string, error) {
	accts, err := a.svc.Analytic.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]string, len(accts))
	for _, acct := range accts {
		codes[acct.ID] = acct.Code
	}
	return codes, nil
}
