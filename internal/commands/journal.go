package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/journal"
	"github.com/spendiq/spendiq/internal/model"
)

func newJournalCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Journal entries",
	}
	cmd.AddCommand(
		newJournalCreateCommand(dir),
		&cobra.Command{
			Use:   "post <entry-id>",
			Short: "Post a draft entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(*dir, func(a *app) error {
					e, err := a.svc.Journal.Post(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", e.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <entry-id>",
			Short: "Delete a draft entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(*dir, func(a *app) error {
					return a.svc.Journal.Delete(cmd.Context(), args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List journal entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(*dir, func(a *app) error {
					entries, err := a.svc.Journal.FindAll(cmd.Context())
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tDATE\tREFERENCE\tSTATE\tDEBIT\tCREDIT")
					for _, e := range entries {
						debit, credit := e.Totals()
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
							e.ID, e.Date.Format(model.DateLayout), e.Reference, e.State, money(debit), money(credit))
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "show <entry-id>",
			Short: "Show an entry with its lines",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(*dir, func(a *app) error {
					e, err := a.svc.Journal.FindOne(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printEntry(cmd.OutOrStdout(), e)
				})
			},
		},
		newJournalExportCommand(dir),
	)
	return cmd
}

func newJournalCreateCommand(dir *string) *cobra.Command {
	var (
		date      string
		reference string
		partner   string
		lines     []string
		post      bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a journal entry",
		Example: `  spendiq journal create --date 2025-01-15 --ref "Office rent" \
    --line 5200:1500:0:OPS --line 1010:0:1500 --post`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDate("date", date, today())
			if err != nil {
				return err
			}
			return withApp(*dir, func(a *app) error {
				draft := journal.Draft{Date: d, Reference: reference}
				for _, raw := range lines {
					l, err := parseEntryLine(cmd.Context(), a, raw)
					if err != nil {
						return err
					}
					l.PartnerID = partner
					draft.Lines = append(draft.Lines, l)
				}

				e, err := a.svc.Journal.Create(cmd.Context(), draft)
				if err != nil {
					return err
				}
				if post {
					if e, err = a.svc.Journal.Post(cmd.Context(), e.ID); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s entry %q (%s)\n", e.State, e.Reference, e.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&reference, "ref", "", "reference")
	cmd.Flags().StringVar(&partner, "partner", "", "partner id for every line")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "ACCOUNT:DEBIT:CREDIT[:ANALYTIC[:LABEL]]; repeatable")
	cmd.Flags().BoolVar(&post, "post", false, "post the entry after creating it")
	return cmd
}

// parseEntryLine reads ACCOUNT:DEBIT:CREDIT[:ANALYTIC[:LABEL]] where ACCOUNT
// and ANALYTIC are codes.
func parseEntryLine(ctx context.Context, a *app, raw string) (journal.LineDraft, error) {
	parts, err := splitFields("line", raw, 3, 5)
	if err != nil {
		return journal.LineDraft{}, err
	}
	acct, err := a.svc.Accounts.ByCode(ctx, parts[0])
	if err != nil {
		return journal.LineDraft{}, err
	}
	l := journal.LineDraft{AccountID: acct.ID}
	if l.Debit, err = parseAmount("debit", parts[1]); err != nil {
		return journal.LineDraft{}, err
	}
	if l.Credit, err = parseAmount("credit", parts[2]); err != nil {
		return journal.LineDraft{}, err
	}
	if len(parts) > 3 && parts[3] != "" {
		an, err := a.svc.Analytic.AccountByCode(ctx, parts[3])
		if err != nil {
			return journal.LineDraft{}, err
		}
		l.AnalyticAccountID = an.ID
	}
	if len(parts) > 4 {
		l.Label = parts[4]
	}
	return l, nil
}

func printEntry(w io.Writer, e model.JournalEntry) error {
	fmt.Fprintf(w, "%s  %s  %s  %s\n", e.ID, e.Date.Format(model.DateLayout), e.State, e.Reference)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tANALYTIC\tPARTNER\tLABEL\tDEBIT\tCREDIT")
	for _, l := range e.Lines {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t%s\n",
			l.AccountCode, l.AccountName, l.AnalyticAccountName, l.PartnerID, l.Label, money(l.Debit), money(l.Credit))
	}
	debit, credit := e.Totals()
	fmt.Fprintf(tw, "\t\t\t\t%s\t%s\n", money(debit), money(credit))
	return tw.Flush()
}

func newJournalExportCommand(dir *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every journal line as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dir, func(a *app) error {
				entries, err := a.svc.Journal.FindAll(cmd.Context())
				if err != nil {
					return err
				}
				w, closeFn, err := outputFile(cmd, out)
				if err != nil {
					return err
				}
				defer closeFn()
				return journal.WriteLines(w, entries)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
