package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/invoice"
	"github.com/spendiq/spendiq/internal/model"
)

// InvoiceLineRequest is one line of a document request.
type InvoiceLineRequest struct {
	Description       string          `json:"description"`
	ProductCategoryID string          `json:"product_category_id,omitempty"`
	AccountID         string          `json:"account_id,omitempty"`
	AccountCode       string          `json:"account_code,omitempty"`
	AnalyticAccountID string          `json:"analytic_account_id,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	Type      string               `json:"type"`
	Date      string               `json:"date"`
	DueDate   string               `json:"due_date,omitempty"`
	PartnerID string               `json:"partner_id"`
	Lines     []InvoiceLineRequest `json:"lines"`
}

// PaymentRequest is the body of POST /invoices/{id}/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// InvoiceLine is the JSON form of a document line.
type InvoiceLine struct {
	ID                string          `json:"id"`
	Description       string          `json:"description"`
	ProductCategoryID string          `json:"product_category_id,omitempty"`
	AccountID         string          `json:"account_id,omitempty"`
	AnalyticAccountID string          `json:"analytic_account_id,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Subtotal          decimal.Decimal `json:"subtotal"`
}

// Invoice is the JSON form of a document.
type Invoice struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	Type           string          `json:"type"`
	Date           string          `json:"date"`
	DueDate        string          `json:"due_date,omitempty"`
	PartnerID      string          `json:"partner_id"`
	Status         string          `json:"status"`
	PaymentState   string          `json:"payment_state"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	JournalEntryID string          `json:"journal_entry_id,omitempty"`
	Lines          []InvoiceLine   `json:"lines,omitempty"`
}

// Payment is the JSON form of a settlement.
type Payment struct {
	ID             string          `json:"id"`
	InvoiceID      string          `json:"invoice_id"`
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	JournalEntryID string          `json:"journal_entry_id"`
}

func toInvoice(inv model.Invoice) Invoice {
	out := Invoice{
		ID:             inv.ID,
		Number:         inv.Number,
		Type:           string(inv.Type),
		Date:           formatDate(inv.Date),
		DueDate:        formatDate(inv.DueDate),
		PartnerID:      inv.PartnerID,
		Status:         string(inv.Status),
		PaymentState:   string(inv.PaymentState),
		TotalAmount:    inv.TotalAmount,
		PaidAmount:     inv.PaidAmount,
		JournalEntryID: inv.JournalEntryID,
	}
	for _, l := range inv.Lines {
		out.Lines = append(out.Lines, InvoiceLine{
			ID:                l.ID,
			Description:       l.Description,
			ProductCategoryID: l.ProductCategoryID,
			AccountID:         l.AccountID,
			AnalyticAccountID: l.AnalyticAccountID,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			Subtotal:          l.Subtotal,
		})
	}
	return out
}

func toPayment(p model.Payment) Payment {
	return Payment{ID: p.ID, InvoiceID: p.InvoiceID, Date: formatDate(p.Date), Amount: p.Amount, JournalEntryID: p.JournalEntryID}
}

// ListInvoices handles GET /invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.Invoices.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Invoice, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvoice(inv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": out})
}

// GetInvoice handles GET /invoices/{id}.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": toInvoice(inv)})
}

// CreateInvoice handles POST /invoices.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	draft := invoice.Draft{Type: model.DocumentType(req.Type), Date: date, DueDate: due, PartnerID: req.PartnerID}
	for _, l := range req.Lines {
		acct, err := h.accountID(r.Context(), l.AccountID, l.AccountCode)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		draft.Lines = append(draft.Lines, invoice.LineDraft{
			Description:       l.Description,
			ProductCategoryID: l.ProductCategoryID,
			AccountID:         acct,
			AnalyticAccountID: l.AnalyticAccountID,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
		})
	}

	inv, err := h.svc.Invoices.Create(r.Context(), draft)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"invoice": toInvoice(inv)})
}

// PostInvoice handles POST /invoices/{id}/post.
func (h *Handler) PostInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Invoices.Post(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": toInvoice(inv)})
}

// CancelInvoice handles POST /invoices/{id}/cancel.
func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Invoices.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": toInvoice(inv)})
}

// ListPayments handles GET /invoices/{id}/payments.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Invoices.Get(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	pays, err := h.svc.Invoices.Payments(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Payment, 0, len(pays))
	for _, p := range pays {
		out = append(out, toPayment(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}

// RegisterPayment handles POST /invoices/{id}/payments.
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.svc.Invoices.RegisterPayment(r.Context(), chi.URLParam(r, "id"), req.Amount, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment": toPayment(p)})
}
