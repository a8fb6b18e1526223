package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/invoice"
	"github.com/spendiq/spendiq/internal/model"
)

func newInvoiceCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice",
		Aliases: []string{"bill"},
		Short:   "Customer invoices, vendor bills and refunds",
	}
	cmd.AddCommand(
		newInvoiceCreateCommand(dir),
		newInvoiceActionCommand(dir, "post", "Post a draft document to the ledger", func(ctx context.Context, a *app, id string) (model.Invoice, error) {
			return a.svc.Invoices.Post(ctx, id)
		}),
		newInvoiceActionCommand(dir, "cancel", "Cancel a draft document", func(ctx context.Context, a *app, id string) (model.Invoice, error) {
			return a.svc.Invoices.Cancel(ctx, id)
		}),
		newInvoicePayCommand(dir),
		newInvoiceImportCommand(dir),
		&cobra.Command{
			Use:   "list",
			Short: "List documents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(*dir, func(a *app) error {
					invs, err := a.svc.Invoices.List(cmd.Context())
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNUMBER\tTYPE\tDATE\tPARTNER\tSTATUS\tPAYMENT\tTOTAL\tPAID")
					for _, inv := range invs {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
							inv.ID, inv.Number, inv.Type, inv.Date.Format(model.DateLayout), inv.PartnerID,
							inv.Status, inv.PaymentState, money(inv.TotalAmount), money(inv.PaidAmount))
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "show <invoice-id>",
			Short: "Show a document with its lines and payments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(*dir, func(a *app) error {
					inv, err := a.svc.Invoices.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					pays, err := a.svc.Invoices.Payments(cmd.Context(), inv.ID)
					if err != nil {
						return err
					}
					codes, err := analyticCodes(cmd.Context(), a)
					if err != nil {
						return err
					}
					return printInvoice(cmd.OutOrStdout(), inv, pays, codes)
				})
			},
		},
	)
	return cmd
}

func newInvoiceCreateCommand(dir *string) *cobra.Command {
	var (
		docType string
		date    string
		due     string
		partner string
		lines   []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft document",
		Example: `  spendiq invoice create --type IN_INVOICE --partner v-42 \
    --line "Search ads:1:300" --line "Chairs:2:50:5300:OPS"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDate("date", date, today())
			if err != nil {
				return err
			}
			dueDate, err := parseDate("due", due, time.Time{})
			if err != nil {
				return err
			}
			return withApp(*dir, func(a *app) error {
				draft := invoice.Draft{
					Type:      model.DocumentType(strings.ToUpper(docType)),
					Date:      d,
					DueDate:   dueDate,
					PartnerID: partner,
				}
				for _, raw := range lines {
					l, err := parseInvoiceLine(cmd.Context(), a, raw)
					if err != nil {
						return err
					}
					draft.Lines = append(draft.Lines, l)
				}
				inv, err := a.svc.Invoices.Create(cmd.Context(), draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s total %s (%s)\n", inv.Type, inv.Number, money(inv.TotalAmount), inv.ID)
				if n := untaggedLines(inv); n > 0 && inv.Type.Vendor() {
					fmt.Fprintf(cmd.OutOrStdout(), "%d line(s) have no analytic account and must be tagged before posting\n", n)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&docType, "type", string(model.DocOutInvoice), "OUT_INVOICE, IN_INVOICE, OUT_REFUND or IN_REFUND")
	cmd.Flags().StringVar(&date, "date", "", "document date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().StringVar(&partner, "partner", "", "customer or vendor id (required)")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "DESCRIPTION:QTY:PRICE[:ACCOUNT[:ANALYTIC[:CATEGORY]]]; repeatable")
	_ = cmd.MarkFlagRequired("partner")
	return cmd
}

// parseInvoiceLine reads DESCRIPTION:QTY:PRICE[:ACCOUNT[:ANALYTIC[:CATEGORY]]]
// where ACCOUNT and ANALYTIC are codes.
func parseInvoiceLine(ctx context.Context, a *app, raw string) (invoice.LineDraft, error) {
	parts, err := splitFields("line", raw, 3, 6)
	if err != nil {
		return invoice.LineDraft{}, err
	}
	l := invoice.LineDraft{Description: parts[0]}
	if l.Quantity, err = parseAmount("quantity", parts[1]); err != nil {
		return invoice.LineDraft{}, err
	}
	if l.UnitPrice, err = parseAmount("unit price", parts[2]); err != nil {
		return invoice.LineDraft{}, err
	}
	if len(parts) > 3 && parts[3] != "" {
		acct, err := a.svc.Accounts.ByCode(ctx, parts[3])
		if err != nil {
			return invoice.LineDraft{}, err
		}
		l.AccountID = acct.ID
	}
	if len(parts) > 4 && parts[4] != "" {
		an, err := a.svc.Analytic.AccountByCode(ctx, parts[4])
		if err != nil {
			return invoice.LineDraft{}, err
		}
		l.AnalyticAccountID = an.ID
	}
	if len(parts) > 5 {
		l.ProductCategoryID = parts[5]
	}
	return l, nil
}

func untaggedLines(inv model.Invoice) int {
	n := 0
	for _, l := range inv.Lines {
		if l.AnalyticAccountID == "" {
			n++
		}
	}
	return n
}

func newInvoiceActionCommand(dir *string, use, short string, fn func(ctx context.Context, a *app, id string) (model.Invoice, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <invoice-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dir, func(a *app) error {
				inv, err := fn(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", inv.Number, inv.Status)
				return nil
			})
		},
	}
}

func newInvoicePayCommand(dir *string) *cobra.Command {
	var amount, date string
	cmd := &cobra.Command{
		Use:   "pay <invoice-id>",
		Short: "Register a payment against a posted document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			d, err := parseDate("date", date, today())
			if err != nil {
				return err
			}
			return withApp(*dir, func(a *app) error {
				p, err := a.svc.Invoices.RegisterPayment(cmd.Context(), args[0], amt, d)
				if err != nil {
					return err
				}
				inv, err := a.svc.Invoices.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Paid %s on %s, now %s (%s of %s)\n",
					money(p.Amount), inv.Number, inv.PaymentState, money(inv.PaidAmount), money(inv.TotalAmount))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid (required)")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func printInvoice(w io.Writer, inv model.Invoice, pays []model.Payment, analyticCodes map[string]string) error {
	fmt.Fprintf(w, "%s  %s  %s  %s  partner %s\n", inv.Number, inv.Type, inv.Date.Format(model.DateLayout), inv.Status, inv.PartnerID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DESCRIPTION\tQTY\tPRICE\tSUBTOTAL\tANALYTIC")
	for _, l := range inv.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Description, l.Quantity, money(l.UnitPrice), money(l.Subtotal), analyticCodes[l.AnalyticAccountID])
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\t\n", money(inv.TotalAmount))
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, p := range pays {
		fmt.Fprintf(w, "payment %s  %s\n", p.Date.Format(model.DateLayout), money(p.Amount))
	}
	fmt.Fprintf(w, "%s: %s paid\n", inv.PaymentState, money(inv.PaidAmount))
	return nil
}
