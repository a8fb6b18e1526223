package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

const invoiceColumns = `id, number, type, date, due_date, partner_id, status, payment_state,
	total_amount, paid_amount, COALESCE(journal_entry_id, '')`

// InsertInvoice writes a document header and its lines.
func (q *Queries) InsertInvoice(ctx context.Context, inv model.Invoice) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO invoices(id, number, type, date, due_date, partner_id, status, payment_state, total_amount, paid_amount, journal_entry_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, string(inv.Type), formatDate(inv.Date), formatDate(inv.DueDate), inv.PartnerID,
		string(inv.Status), string(inv.PaymentState), inv.TotalAmount.StringFixed(2), inv.PaidAmount.StringFixed(2),
		nullString(inv.JournalEntryID))
	if err != nil {
		return fmt.Errorf("inserting invoice %s: %w", inv.Number, err)
	}

	for _, l := range inv.Lines {
		_, err := q.db.ExecContext(ctx, `
		INSERT INTO invoice_lines(id, invoice_id, seq, description, product_category_id, account_id, quantity, unit_price, subtotal, analytic_account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, inv.ID, l.Seq, l.Description, l.ProductCategoryID, nullString(l.AccountID),
			l.Quantity.String(), l.UnitPrice.String(), l.Subtotal.StringFixed(2), nullString(l.AnalyticAccountID))
		if err != nil {
			return fmt.Errorf("inserting invoice line %d: %w", l.Seq, err)
		}
	}
	return nil
}

// GetInvoice returns a document with its lines in order.
func (q *Queries) GetInvoice(ctx context.Context, invoiceID string) (model.Invoice, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, invoiceID)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Invoice{}, ledgererr.NotFoundf("invoice %s", invoiceID)
	}
	if err != nil {
		return model.Invoice{}, err
	}

	rows, err := q.db.QueryContext(ctx, `
	SELECT id, invoice_id, seq, description, product_category_id, COALESCE(account_id, ''),
	       quantity, unit_price, subtotal, COALESCE(analytic_account_id, '')
	FROM invoice_lines WHERE invoice_id = ? ORDER BY seq`, invoiceID)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("reading invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l model.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Seq, &l.Description, &l.ProductCategoryID, &l.AccountID,
			&l.Quantity, &l.UnitPrice, &l.Subtotal, &l.AnalyticAccountID); err != nil {
			return model.Invoice{}, fmt.Errorf("scanning invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

// ListInvoices returns document headers, newest first. Lines are not loaded.
func (q *Queries) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY date DESC, number DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()
	var out []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// MarkInvoicePosted flips a DRAFT document to POSTED and links its entry.
func (q *Queries) MarkInvoicePosted(ctx context.Context, invoiceID, entryID string) error {
	res, err := q.db.ExecContext(ctx, `
	UPDATE invoices SET status = ?, journal_entry_id = ?
	WHERE id = ? AND status = ?`,
		string(model.DocStatusPosted), entryID, invoiceID, string(model.DocStatusDraft))
	if err != nil {
		return fmt.Errorf("marking invoice %s posted: %w", invoiceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("invoice %s: %w", invoiceID, ledgererr.ErrAlreadyPosted)
	}
	return nil
}

// SetInvoiceStatus moves a document to status unconditionally.
func (q *Queries) SetInvoiceStatus(ctx context.Context, invoiceID string, status model.DocumentStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE invoices SET status = ? WHERE id = ?`, string(status), invoiceID)
	if err != nil {
		return fmt.Errorf("updating invoice %s: %w", invoiceID, err)
	}
	return requireOneRow(res, "invoice "+invoiceID)
}

// UpdateInvoicePayment stores the settled amount and payment state.
func (q *Queries) UpdateInvoicePayment(ctx context.Context, inv model.Invoice) error {
	res, err := q.db.ExecContext(ctx, `UPDATE invoices SET paid_amount = ?, payment_state = ? WHERE id = ?`,
		inv.PaidAmount.StringFixed(2), string(inv.PaymentState), inv.ID)
	if err != nil {
		return fmt.Errorf("updating invoice %s payment: %w", inv.ID, err)
	}
	return requireOneRow(res, "invoice "+inv.ID)
}

// InsertPayment records a settlement.
func (q *Queries) InsertPayment(ctx context.Context, p model.Payment) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO invoice_payments(id, invoice_id, date, amount, journal_entry_id)
	VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.InvoiceID, formatDate(p.Date), p.Amount.StringFixed(2), p.JournalEntryID)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// ListPayments returns the settlements recorded against a document.
func (q *Queries) ListPayments(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	rows, err := q.db.QueryContext(ctx, `
	SELECT id, invoice_id, date, amount, journal_entry_id
	FROM invoice_payments WHERE invoice_id = ? ORDER BY date, rowid`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()
	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		var date string
		if err := rows.Scan(&p.ID, &p.InvoiceID, &date, &p.Amount, &p.JournalEntryID); err != nil {
			return nil, err
		}
		if p.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// NextDocumentSeq returns the next available sequence for prefix and year.
func (q *Queries) NextDocumentSeq(ctx context.Context, prefix string, year int) (int, error) {
	pattern := fmt.Sprintf("%s/%04d/%%", prefix, year)
	rows, err := q.db.QueryContext(ctx, `SELECT number FROM invoices WHERE number LIKE ?`, pattern)
	if err != nil {
		return 0, fmt.Errorf("reading document numbers: %w", err)
	}
	defer rows.Close()

	maxSeq := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, err
		}
		p, _, seq, err := id.ParseDocumentNumber(number)
		if err != nil || !strings.EqualFold(p, prefix) {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, rows.Err()
}

// ActualTuples streams every document line tagged with analyticAccountID,
// whatever the document status or date. Filtering belongs to the caller.
func (q *Queries) ActualTuples(ctx context.Context, analyticAccountID string) ([]model.ActualTuple, error) {
	rows, err := q.db.QueryContext(ctx, `
	SELECT i.type, i.status, i.date, l.analytic_account_id, l.subtotal
	FROM invoice_lines l
	JOIN invoices i ON i.id = l.invoice_id
	WHERE l.analytic_account_id = ?`, analyticAccountID)
	if err != nil {
		return nil, fmt.Errorf("reading actual tuples: %w", err)
	}
	defer rows.Close()

	var out []model.ActualTuple
	for rows.Next() {
		var t model.ActualTuple
		var typ, status, date string
		if err := rows.Scan(&typ, &status, &date, &t.AnalyticAccountID, &t.Amount); err != nil {
			return nil, fmt.Errorf("scanning actual tuple: %w", err)
		}
		t.DocumentType = model.DocumentType(typ)
		t.Status = model.DocumentStatus(status)
		if t.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanInvoice(s scanner) (model.Invoice, error) {
	var inv model.Invoice
	var typ, date, dueDate, status, paymentState string
	err := s.Scan(&inv.ID, &inv.Number, &typ, &date, &dueDate, &inv.PartnerID, &status, &paymentState,
		&inv.TotalAmount, &inv.PaidAmount, &inv.JournalEntryID)
	if err != nil {
		return model.Invoice{}, err
	}
	inv.Type = model.DocumentType(typ)
	inv.Status = model.DocumentStatus(status)
	inv.PaymentState = model.PaymentState(paymentState)
	if inv.Date, err = parseDate(date); err != nil {
		return model.Invoice{}, err
	}
	if inv.DueDate, err = parseDate(dueDate); err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}
