package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType discriminates customer and vendor documents.
type DocumentType string

const (
	DocOutInvoice DocumentType = "OUT_INVOICE" // customer invoice
	DocInInvoice  DocumentType = "IN_INVOICE"  // vendor bill
	DocOutRefund  DocumentType = "OUT_REFUND"  // customer credit note
	DocInRefund   DocumentType = "IN_REFUND"   // vendor refund
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocOutInvoice, DocInInvoice, DocOutRefund, DocInRefund:
		return true
	}
	return false
}

// Vendor reports whether the document sits on the payable side.
func (t DocumentType) Vendor() bool {
	return t == DocInInvoice || t == DocInRefund
}

// Refund reports whether the document reverses an earlier invoice.
func (t DocumentType) Refund() bool {
	return t == DocOutRefund || t == DocInRefund
}

// Inflow reports whether the document brings money in: customer invoices and
// vendor refunds. Vendor bills and customer refunds are outflows.
func (t DocumentType) Inflow() bool {
	return t.Valid() && t.Vendor() == t.Refund()
}

// DocumentStatus represents the lifecycle state of an invoice or bill.
type DocumentStatus string

const (
	DocStatusDraft     DocumentStatus = "DRAFT"
	DocStatusPosted    DocumentStatus = "POSTED"
	DocStatusCancelled DocumentStatus = "CANCELLED"
)

// PaymentState tracks settlement of a posted document.
type PaymentState string

const (
	PaymentNotPaid PaymentState = "NOT_PAID"
	PaymentPartial PaymentState = "PARTIAL"
	PaymentPaid    PaymentState = "PAID"
)

// InvoiceLine is one billed item. Subtotal = Quantity * UnitPrice.
type InvoiceLine struct {
	ID                string
	InvoiceID         string
	Seq               int
	Description       string
	ProductCategoryID string
	AccountID         string // "" = document type's default counterpart account
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	Subtotal          decimal.Decimal
	AnalyticAccountID string
}

// Invoice is a customer invoice, vendor bill, or refund of either.
type Invoice struct {
	ID             string
	Number         string
	Type           DocumentType
	Date           time.Time
	DueDate        time.Time // zero = no due date
	PartnerID      string
	Status         DocumentStatus
	PaymentState   PaymentState
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	JournalEntryID string // set once posted
	Lines          []InvoiceLine
}

// Outstanding returns the amount still to be paid.
func (inv Invoice) Outstanding() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// Payment records one settlement against a posted document.
type Payment struct {
	ID             string
	InvoiceID      string
	Date           time.Time
	Amount         decimal.Decimal
	JournalEntryID string
}

// ActualTuple is the minimal projection of a document line needed to compute
// budget actuals.
type ActualTuple struct {
	DocumentType      DocumentType
	Status            DocumentStatus
	Date              time.Time
	AnalyticAccountID string
	Amount            decimal.Decimal
}
