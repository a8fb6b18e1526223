// Package invoice creates, posts and settles customer invoices, vendor bills
// and their refunds.
package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/accounts"
	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/analytic"
	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/journal"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// LineDraft is one billed item of a new document.
type LineDraft struct {
	Description       string
	ProductCategoryID string
	AccountID         string
	AnalyticAccountID string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
}

// Draft holds the parameters for creating a document.
type Draft struct {
	Type      model.DocumentType
	Date      time.Time
	DueDate   time.Time
	PartnerID string
	Lines     []LineDraft
}

// Service is the invoice/bill poster.
type Service struct {
	store    store.Transactor
	journal  *journal.Service
	system   accounts.SystemAccounts
	log      *slog.Logger
	activity activity.Recorder
}

// NewService creates an invoice Service. Journal entries are written through j.
func NewService(st store.Transactor, j *journal.Service, system accounts.SystemAccounts, logger *slog.Logger, rec activity.Recorder) *Service {
	return &Service{store: st, journal: j, system: system, log: logger, activity: rec}
}

// Create stores a DRAFT document numbered PREFIX/YYYY/NNNN. Lines without an
// analytic account are tagged by the active rules when one matches.
func (s *Service) Create(ctx context.Context, d Draft) (model.Invoice, error) {
	if err := validateDraft(d); err != nil {
		return model.Invoice{}, err
	}

	inv := model.Invoice{
		ID:           id.New(),
		Type:         d.Type,
		Date:         model.Day(d.Date),
		PartnerID:    d.PartnerID,
		Status:       model.DocStatusDraft,
		PaymentState: model.PaymentNotPaid,
		TotalAmount:  decimal.Zero,
		PaidAmount:   decimal.Zero,
	}
	if !d.DueDate.IsZero() {
		inv.DueDate = model.Day(d.DueDate)
	}

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		prefix := id.DocumentPrefix(d.Type)
		seq, err := q.NextDocumentSeq(ctx, prefix, inv.Date.Year())
		if err != nil {
			return err
		}
		inv.Number = id.FormatDocumentNumber(prefix, inv.Date.Year(), seq)

		for i, ld := range d.Lines {
			line, err := s.buildLine(ctx, q, inv, i, ld)
			if err != nil {
				return err
			}
			inv.Lines = append(inv.Lines, line)
			inv.TotalAmount = inv.TotalAmount.Add(line.Subtotal)
		}
		return q.InsertInvoice(ctx, inv)
	})
	if err != nil {
		return model.Invoice{}, err
	}

	s.log.Info("invoice created", "invoice_id", inv.ID, "number", inv.Number, "type", inv.Type, "total", inv.TotalAmount.StringFixed(2))
	s.record(activity.ActionInvoiceCreated, inv.ID, fmt.Sprintf("%s total %s", inv.Number, inv.TotalAmount.StringFixed(2)))
	return inv, nil
}

func (s *Service) buildLine(ctx context.Context, q *store.Queries, inv model.Invoice, seq int, ld LineDraft) (model.InvoiceLine, error) {
	line := model.InvoiceLine{
		ID:                id.New(),
		InvoiceID:         inv.ID,
		Seq:               seq,
		Description:       ld.Description,
		ProductCategoryID: ld.ProductCategoryID,
		AccountID:         ld.AccountID,
		AnalyticAccountID: ld.AnalyticAccountID,
		Quantity:          ld.Quantity,
		UnitPrice:         ld.UnitPrice,
		Subtotal:          ld.Quantity.Mul(ld.UnitPrice).Round(2),
	}

	if line.AccountID != "" {
		if _, err := q.GetAccount(ctx, line.AccountID); err != nil {
			return model.InvoiceLine{}, err
		}
	}
	if line.AnalyticAccountID != "" {
		if _, err := q.GetAnalyticAccount(ctx, line.AnalyticAccountID); err != nil {
			return model.InvoiceLine{}, err
		}
		return line, nil
	}

	mc := model.MatchContext{
		ProductCategoryID: ld.ProductCategoryID,
		Description:       ld.Description,
		AccountID:         ld.AccountID,
	}
	if inv.Type.Vendor() {
		mc.VendorID = inv.PartnerID
	}
	target, ok, err := analytic.Find(ctx, q, mc)
	if err != nil {
		return model.InvoiceLine{}, err
	}
	if ok {
		line.AnalyticAccountID = target
		s.log.Debug("analytic account assigned by rule", "line", seq+1, "analytic_account_id", target)
	}
	return line, nil
}

func validateDraft(d Draft) error {
	var msgs []string
	if !d.Type.Valid() {
		msgs = append(msgs, fmt.Sprintf("unknown document type %q", d.Type))
	}
	if d.Date.IsZero() {
		msgs = append(msgs, "date is required")
	}
	if !d.DueDate.IsZero() && !d.Date.IsZero() && model.Day(d.DueDate).Before(model.Day(d.Date)) {
		msgs = append(msgs, "due date is before document date")
	}
	if strings.TrimSpace(d.PartnerID) == "" {
		msgs = append(msgs, "partner is required")
	}
	if len(d.Lines) == 0 {
		msgs = append(msgs, "document must have at least one line")
	}
	for i, l := range d.Lines {
		if !l.Quantity.IsPositive() {
			msgs = append(msgs, fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		if l.UnitPrice.IsNegative() {
			msgs = append(msgs, fmt.Sprintf("line %d: unit price %s is negative", i+1, l.UnitPrice))
		}
	}
	if len(msgs) > 0 {
		return ledgererr.Validationf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// Post turns a DRAFT document into a posted journal entry and marks the
// document POSTED. The entry, its lines and the status change commit together.
func (s *Service) Post(ctx context.Context, invoiceID string) (model.Invoice, error) {
	var inv model.Invoice
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		inv, err = q.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		switch inv.Status {
		case model.DocStatusPosted:
			return fmt.Errorf("%s: %w", inv.Number, ledgererr.ErrAlreadyPosted)
		case model.DocStatusCancelled:
			return ledgererr.InvalidStatef("%s is cancelled", inv.Number)
		}

		partnerRole, counterRole := accounts.RoleReceivable, accounts.RoleSales
		if inv.Type.Vendor() {
			partnerRole, counterRole = accounts.RolePayable, accounts.RoleExpense
		}
		sys, err := s.system.Resolve(ctx, q, partnerRole, counterRole)
		if err != nil {
			return err
		}

		if inv.Type.Vendor() {
			if n := untagged(inv.Lines); n > 0 {
				return &MissingAnalyticAccountError{Number: inv.Number, Lines: n}
			}
		}

		entry, err := s.journal.CreateAndPostInTx(ctx, q, entryDraft(inv, sys[partnerRole], sys[counterRole]))
		if err != nil {
			return err
		}
		if err := q.MarkInvoicePosted(ctx, inv.ID, entry.ID); err != nil {
			return err
		}
		inv.Status = model.DocStatusPosted
		inv.JournalEntryID = entry.ID
		return nil
	})
	if err != nil {
		return model.Invoice{}, err
	}

	s.log.Info("invoice posted", "invoice_id", inv.ID, "number", inv.Number, "entry_id", inv.JournalEntryID, "total", inv.TotalAmount.StringFixed(2))
	s.record(activity.ActionInvoicePosted, inv.ID, fmt.Sprintf("%s total %s", inv.Number, inv.TotalAmount.StringFixed(2)))
	return inv, nil
}

func untagged(lines []model.InvoiceLine) int {
	n := 0
	for _, l := range lines {
		if l.AnalyticAccountID == "" {
			n++
		}
	}
	return n
}

// partnerDebit reports whether the partner-side account (receivable or
// payable) is debited when the document is posted.
func partnerDebit(t model.DocumentType) bool {
	return t.Inflow()
}

// entryDraft builds one aggregate line on the partner account for the
// document total and one counterpart line per document line.
func entryDraft(inv model.Invoice, partnerAcct, counterAcct model.Account) journal.Draft {
	debitPartner := partnerDebit(inv.Type)

	aggregate := journal.LineDraft{
		AccountID: partnerAcct.ID,
		PartnerID: inv.PartnerID,
		Label:     inv.Number,
		Debit:     decimal.Zero,
		Credit:    decimal.Zero,
	}
	if debitPartner {
		aggregate.Debit = inv.TotalAmount
	} else {
		aggregate.Credit = inv.TotalAmount
	}
	lines := []journal.LineDraft{aggregate}

	for _, l := range inv.Lines {
		acct := l.AccountID
		if acct == "" {
			acct = counterAcct.ID
		}
		cl := journal.LineDraft{
			AccountID:         acct,
			PartnerID:         inv.PartnerID,
			AnalyticAccountID: l.AnalyticAccountID,
			Label:             l.Description,
			Debit:             decimal.Zero,
			Credit:            decimal.Zero,
		}
		if debitPartner {
			cl.Credit = l.Subtotal
		} else {
			cl.Debit = l.Subtotal
		}
		lines = append(lines, cl)
	}

	return journal.Draft{Date: inv.Date, Reference: inv.Number, Lines: lines}
}

// Cancel moves a DRAFT document to CANCELLED.
func (s *Service) Cancel(ctx context.Context, invoiceID string) (model.Invoice, error) {
	var inv model.Invoice
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		inv, err = q.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		switch inv.Status {
		case model.DocStatusPosted:
			return fmt.Errorf("%s cannot be cancelled: %w", inv.Number, ledgererr.ErrAlreadyPosted)
		case model.DocStatusCancelled:
			return ledgererr.InvalidStatef("%s is already cancelled", inv.Number)
		}
		inv.Status = model.DocStatusCancelled
		return q.SetInvoiceStatus(ctx, inv.ID, model.DocStatusCancelled)
	})
	if err != nil {
		return model.Invoice{}, err
	}

	s.log.Info("invoice cancelled", "invoice_id", inv.ID, "number", inv.Number)
	s.record(activity.ActionInvoiceCanceled, inv.ID, inv.Number)
	return inv, nil
}

// RegisterPayment settles part or all of a posted document through the bank
// account. The payment entry is created and posted in the same transaction
// that updates the paid amount.
func (s *Service) RegisterPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, date time.Time) (model.Payment, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return model.Payment{}, ledgererr.Validationf("payment amount must be positive")
	}
	if date.IsZero() {
		return model.Payment{}, ledgererr.Validationf("payment date is required")
	}

	var inv model.Invoice
	var pay model.Payment
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		inv, err = q.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != model.DocStatusPosted {
			return ledgererr.InvalidStatef("%s is %s, only posted documents can be paid", inv.Number, inv.Status)
		}
		if amount.GreaterThan(inv.Outstanding()) {
			return ledgererr.Validationf("payment %s exceeds outstanding %s on %s",
				amount.StringFixed(2), inv.Outstanding().StringFixed(2), inv.Number)
		}

		partnerRole := accounts.RoleReceivable
		if inv.Type.Vendor() {
			partnerRole = accounts.RolePayable
		}
		sys, err := s.system.Resolve(ctx, q, accounts.RoleBank, partnerRole)
		if err != nil {
			return err
		}

		entry, err := s.journal.CreateAndPostInTx(ctx, q, paymentDraft(inv, amount, date, sys[accounts.RoleBank], sys[partnerRole]))
		if err != nil {
			return err
		}

		pay = model.Payment{ID: id.New(), InvoiceID: inv.ID, Date: model.Day(date), Amount: amount, JournalEntryID: entry.ID}
		if err := q.InsertPayment(ctx, pay); err != nil {
			return err
		}

		inv.PaidAmount = inv.PaidAmount.Add(amount)
		inv.PaymentState = model.PaymentPartial
		if inv.Outstanding().Sign() <= 0 {
			inv.PaymentState = model.PaymentPaid
		}
		return q.UpdateInvoicePayment(ctx, inv)
	})
	if err != nil {
		return model.Payment{}, err
	}

	s.log.Info("payment registered", "invoice_id", inv.ID, "number", inv.Number, "amount", amount.StringFixed(2), "payment_state", inv.PaymentState)
	s.record(activity.ActionPaymentRecorded, inv.ID, fmt.Sprintf("%s paid %s (%s)", inv.Number, amount.StringFixed(2), inv.PaymentState))
	return pay, nil
}

// paymentDraft moves amount between the bank and the partner account. Money
// comes in for customer invoices and vendor refunds, and goes out otherwise.
func paymentDraft(inv model.Invoice, amount decimal.Decimal, date time.Time, bank, partnerAcct model.Account) journal.Draft {
	bankLine := journal.LineDraft{AccountID: bank.ID, Label: "Payment " + inv.Number, Debit: decimal.Zero, Credit: decimal.Zero}
	partnerLine := journal.LineDraft{AccountID: partnerAcct.ID, PartnerID: inv.PartnerID, Label: "Payment " + inv.Number, Debit: decimal.Zero, Credit: decimal.Zero}
	if partnerDebit(inv.Type) {
		bankLine.Debit = amount
		partnerLine.Credit = amount
	} else {
		partnerLine.Debit = amount
		bankLine.Credit = amount
	}
	return journal.Draft{Date: date, Reference: "PAY " + inv.Number, Lines: []journal.LineDraft{bankLine, partnerLine}}
}

// Get returns a document with its lines.
func (s *Service) Get(ctx context.Context, invoiceID string) (model.Invoice, error) {
	return s.store.Queries().GetInvoice(ctx, invoiceID)
}

// List returns document headers, newest first.
func (s *Service) List(ctx context.Context) ([]model.Invoice, error) {
	return s.store.Queries().ListInvoices(ctx)
}

// Payments returns the settlements recorded against a document.
func (s *Service) Payments(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	return s.store.Queries().ListPayments(ctx, invoiceID)
}

func (s *Service) record(action, subject, details string) {
	if err := s.activity.Record(activity.Entry{Action: action, Subject: subject, Details: details}); err != nil {
		s.log.Warn("failed to record activity", "action", action, "error", err)
	}
}
